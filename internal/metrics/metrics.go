// Package metrics registra y expone las métricas Prometheus del servicio.
package metrics

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	metricsOnce sync.Once
	metricsErr  error

	// HTTP
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInflight        *prometheus.GaugeVec

	// Dominio
	loginsTotal             *prometheus.CounterVec
	tokenVerificationsTotal *prometheus.CounterVec
	refreshRotationsTotal   *prometheus.CounterVec
	rateLimitedTotal        *prometheus.CounterVec
	tenantViolationsTotal   prometheus.Counter
)

// Register inicializa las métricas en el registry indicado (o el default)
// y devuelve el handler para /metrics.
func Register(registry prometheus.Registerer) (http.Handler, error) {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	metricsOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Número total de requests procesadas",
		}, []string{"method", "path", "status"})

		httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latencia de los requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"})

		httpInflight = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Requests en vuelo por método y ruta",
		}, []string{"method", "path"})

		loginsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "logins_total",
			Help: "Intentos de login por resultado",
		}, []string{"result"}) // result: success|invalid_credentials|rate_limited|error

		tokenVerificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "token_verifications_total",
			Help: "Verificaciones de token por resultado",
		}, []string{"result"}) // result: ok|expired|malformed|bad_signature|unsupported

		refreshRotationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "refresh_rotations_total",
			Help: "Rotaciones de refresh token por resultado",
		}, []string{"result"}) // result: success|replayed|revoked|expired|error

		rateLimitedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rate_limited_total",
			Help: "Requests rechazadas por rate limit, por operación",
		}, []string{"key"})

		tenantViolationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tenant_violations_total",
			Help: "Accesos cruzados de tenant detectados y bloqueados",
		})

		for _, c := range []prometheus.Collector{
			httpRequestsTotal, httpRequestDuration, httpInflight,
			loginsTotal, tokenVerificationsTotal, refreshRotationsTotal,
			rateLimitedTotal, tenantViolationsTotal,
		} {
			if err := registerCollector(registry, c); err != nil {
				metricsErr = err
				return
			}
		}
	})
	if metricsErr != nil {
		return nil, metricsErr
	}

	return promhttp.Handler(), nil
}

// registerCollector registra el collector ignorando duplicados.
func registerCollector(reg prometheus.Registerer, collector prometheus.Collector) error {
	if err := reg.Register(collector); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return err
	}
	return nil
}

// WithHTTP instrumenta requests con contadores, latencia e inflight.
func WithHTTP(next http.Handler) http.Handler {
	if next == nil {
		return nil
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if httpRequestsTotal == nil {
			next.ServeHTTP(w, r)
			return
		}

		method := strings.ToUpper(r.Method)
		pathLabel := normalizePath(r.URL.Path)

		httpInflight.WithLabelValues(method, pathLabel).Inc()
		start := time.Now()

		rec := &statusRecorder{ResponseWriter: w}
		defer func() {
			httpInflight.WithLabelValues(method, pathLabel).Dec()
			httpRequestDuration.WithLabelValues(method, pathLabel).Observe(time.Since(start).Seconds())

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			httpRequestsTotal.WithLabelValues(method, pathLabel, strconv.Itoa(status)).Inc()
		}()

		next.ServeHTTP(rec, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

// ─── Helpers de registro ───
// Todos toleran métricas sin inicializar (tests de paquetes sueltos).

// RecordLogin registra un intento de login.
func RecordLogin(result string) {
	if loginsTotal != nil {
		loginsTotal.WithLabelValues(result).Inc()
	}
}

// RecordTokenVerification registra el resultado de una verificación.
func RecordTokenVerification(result string) {
	if tokenVerificationsTotal != nil {
		tokenVerificationsTotal.WithLabelValues(result).Inc()
	}
}

// RecordRefreshRotation registra el resultado de una rotación.
func RecordRefreshRotation(result string) {
	if refreshRotationsTotal != nil {
		refreshRotationsTotal.WithLabelValues(result).Inc()
	}
}

// RecordRateLimited registra un rechazo por rate limit.
func RecordRateLimited(key string) {
	if rateLimitedTotal != nil {
		rateLimitedTotal.WithLabelValues(key).Inc()
	}
}

// RecordTenantViolation registra un acceso cruzado bloqueado.
func RecordTenantViolation() {
	if tenantViolationsTotal != nil {
		tenantViolationsTotal.Inc()
	}
}

var (
	uuidSegmentRE  = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F-]{4}-[0-9a-fA-F-]{4,}$`)
	tokenSegmentRE = regexp.MustCompile(`^[A-Za-z0-9_-]{24,}$`)
)

// normalizePath colapsa segmentos dinámicos para acotar la cardinalidad
// de los labels.
func normalizePath(p string) string {
	if p == "" {
		return "/"
	}
	clean := strings.SplitN(p, "?", 2)[0]
	if !strings.HasPrefix(clean, "/") {
		clean = "/" + clean
	}

	segments := strings.Split(clean, "/")
	var out []string
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		if isDynamicSegment(seg) {
			out = append(out, ":param")
		} else {
			out = append(out, seg)
		}
	}
	if len(out) == 0 {
		return "/"
	}
	return "/" + strings.Join(out, "/")
}

func isDynamicSegment(seg string) bool {
	if len(seg) > 48 {
		return true
	}
	if uuidSegmentRE.MatchString(seg) {
		return true
	}
	if tokenSegmentRE.MatchString(seg) {
		return true
	}
	if _, err := strconv.Atoi(seg); err == nil {
		return true
	}
	return false
}
