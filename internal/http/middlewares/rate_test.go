package middlewares

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/tenantgate/internal/rate"
)

type stubLimiter struct {
	res  rate.Result
	err  error
	keys []string
}

func (s *stubLimiter) Acquire(ctx context.Context, key string) (rate.Result, error) {
	s.keys = append(s.keys, key)
	return s.res, s.err
}

func TestRateLimitRejectsBeforeHandler(t *testing.T) {
	// Presupuesto real de 2: el tercer intento muere en el middleware,
	// el handler (y por lo tanto el chequeo de credenciales) nunca corre.
	lim := rate.NewBucketLimiter(map[string]rate.KeyConfig{
		rate.KeyLogin: {Limit: 2, Period: time.Minute},
	})
	defer lim.Close()

	handlerHits := 0
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerHits++
		w.WriteHeader(http.StatusOK)
	}), WithRateLimit(RateLimitConfig{Limiter: lim, KeyFunc: KeyByIP(rate.KeyLogin)}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))
		require.Equal(t, http.StatusOK, rec.Code, "hit %d", i+1)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, 2, handlerHits, "el handler no debe ver el request rechazado")
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}

func TestRateLimitKeySeparatesCallers(t *testing.T) {
	lim := rate.NewBucketLimiter(map[string]rate.KeyConfig{
		rate.KeyLogin: {Limit: 1, Period: time.Minute},
	})
	defer lim.Close()

	h := Chain(okHandler(), WithRateLimit(RateLimitConfig{Limiter: lim, KeyFunc: KeyByIP(rate.KeyLogin)}))

	first := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	first.RemoteAddr = "1.2.3.4:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, first)
	require.Equal(t, http.StatusOK, rec.Code)

	// Mismo caller: agotado.
	again := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	again.RemoteAddr = "1.2.3.4:6666"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, again)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Otro caller: presupuesto propio.
	other := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	other.RemoteAddr = "5.6.7.8:5555"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, other)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitHonorsForwardedFor(t *testing.T) {
	stub := &stubLimiter{res: rate.Result{Allowed: true, Remaining: 9}}
	h := Chain(okHandler(), WithRateLimit(RateLimitConfig{Limiter: stub, KeyFunc: KeyByIP(rate.KeyRefresh)}))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	req.RemoteAddr = "127.0.0.1:9999"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, stub.keys, 1)
	assert.Equal(t, "refresh|203.0.113.7", stub.keys[0])
	assert.Equal(t, "9", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimitFailsOpenOnLimiterError(t *testing.T) {
	stub := &stubLimiter{err: errors.New("redis: connection refused")}
	h := Chain(okHandler(), WithRateLimit(RateLimitConfig{Limiter: stub}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitNilLimiterIsNoop(t *testing.T) {
	h := Chain(okHandler(), WithRateLimit(RateLimitConfig{}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
