package middlewares

import (
	"context"
	"errors"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	httperrors "github.com/dropDatabas3/tenantgate/internal/http/errors"
	"github.com/dropDatabas3/tenantgate/internal/metrics"
	"github.com/dropDatabas3/tenantgate/internal/observability/logger"
	"github.com/dropDatabas3/tenantgate/internal/rate"
)

// ClientIP extrae la IP del cliente, considerando proxies.
func ClientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		parts := strings.Split(xf, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

// RateKeyFunc define cómo generar la clave de admisión para un request.
type RateKeyFunc func(r *http.Request) string

// KeyByIP genera claves "op|IP": presupuesto propio por operación,
// contado por caller.
func KeyByIP(op string) RateKeyFunc {
	return func(r *http.Request) string {
		return op + "|" + ClientIP(r)
	}
}

// RateLimitConfig configura el middleware de admisión.
type RateLimitConfig struct {
	Limiter rate.Limiter
	KeyFunc RateKeyFunc
}

// WithRateLimit rechaza con 429 los requests que exceden el presupuesto de
// su operación, ANTES de que el handler corra. Sin limiter configurado es
// un no-op; si el limiter falla (Redis caído) el request pasa.
func WithRateLimit(cfg RateLimitConfig) Middleware {
	if cfg.Limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = KeyByIP(rate.KeyAuthentication)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := cfg.KeyFunc(r)
			res, err := cfg.Limiter.Acquire(r.Context(), key)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					// El request murió esperando slot: no hay a quién responder.
					return
				}
				logger.From(r.Context()).Warn("rate limiter unavailable, failing open",
					logger.Component("middlewares.rate"),
					logger.Key(key),
					logger.Err(err),
				)
				next.ServeHTTP(w, r)
				return
			}

			if !res.Allowed {
				op, _, _ := strings.Cut(key, "|")
				metrics.RecordRateLimited(op)
				if op == rate.KeyLogin {
					metrics.RecordLogin("rate_limited")
				}
				if res.RetryAfter > 0 {
					secs := int(math.Ceil(res.RetryAfter.Seconds()))
					if secs < 1 {
						secs = 1
					}
					w.Header().Set("Retry-After", strconv.Itoa(secs))
				}
				if res.WindowTTL > 0 {
					resetAt := time.Now().Add(res.WindowTTL).Unix()
					w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt, 10))
				}
				httperrors.WriteError(w, httperrors.ErrRateLimitExceeded)
				return
			}

			// Headers informativos
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			if res.WindowTTL > 0 {
				resetAt := time.Now().Add(res.WindowTTL).Unix()
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt, 10))
			}

			next.ServeHTTP(w, r)
		})
	}
}
