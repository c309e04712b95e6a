package middlewares

import (
	"net/http"
	"time"

	"github.com/dropDatabas3/tenantgate/internal/observability/logger"
	"github.com/dropDatabas3/tenantgate/internal/tenantctx"
)

// ─── Status recorder ─────────────────────────────────────────────────

// statusRecorder captura el status code y bytes escritos de la respuesta.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.wroteHeader {
		return // Evitar llamadas múltiples
	}
	s.status = code
	s.wroteHeader = true
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if !s.wroteHeader {
		s.status = http.StatusOK
		s.wroteHeader = true
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

// ─── Logging middleware ──────────────────────────────────────────────

// WithLogging registra cada request con el logger singleton y deja un
// logger scoped (request_id, method, path) en el contexto para las capas
// de abajo.
//
// Ejemplo (prod):
//
//	{"level":"info","msg":"request completed","request_id":"...","method":"POST","path":"/api/auth/login","status":200,"bytes":256,"duration":"45ms"}
func WithLogging() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// WithRequestID ya corrió y dejó el header puesto.
			requestID := w.Header().Get("X-Request-ID")
			if requestID == "" {
				requestID = GetRequestID(r.Context())
			}

			reqLog := logger.L().With(
				logger.RequestID(requestID),
				logger.Method(r.Method),
				logger.Path(r.URL.Path),
			)

			// Inyectar logger en contexto para uso en handlers/services
			ctx := logger.ToContext(r.Context(), reqLog)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(ctx))

			// La identidad se adjunta al cierre: si un middleware interno
			// la pobló, acá todavía no la vemos (vive en un ctx derivado),
			// así que solo sumamos lo que este nivel conoce.
			done := reqLog
			if tid, ok := tenantctx.TenantID(r.Context()); ok {
				done = done.With(logger.TenantID(tid))
			}
			if p, ok := tenantctx.PrincipalFrom(r.Context()); ok {
				done = done.With(logger.UserID(p.UserID))
			}

			done.Info("request completed",
				logger.Status(rec.status),
				logger.Bytes(rec.bytes),
				logger.Duration(time.Since(start)),
			)
		})
	}
}
