package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dto "github.com/dropDatabas3/tenantgate/internal/http/dto/health"
	"github.com/dropDatabas3/tenantgate/internal/store"
	"github.com/dropDatabas3/tenantgate/internal/store/adapters/memory"
)

// failingStore envuelve un store sano con un Ping que falla.
type failingStore struct {
	store.Store
}

func (failingStore) Ping(ctx context.Context) error {
	return errors.New("pool exhausted")
}

func TestHealthzAlwaysOK(t *testing.T) {
	ctrl := NewHealthController(Deps{Store: failingStore{memory.New()}})

	rec := httptest.NewRecorder()
	ctrl.Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	// Liveness no mira dependencias: responde ok con el store caído.
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.LiveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestHealthzMethodNotAllowed(t *testing.T) {
	ctrl := NewHealthController(Deps{Store: memory.New()})

	rec := httptest.NewRecorder()
	ctrl.Healthz(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))

	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET", rec.Header().Get("Allow"))
}

func TestReadyzHealthy(t *testing.T) {
	ctrl := NewHealthController(Deps{Store: memory.New()})

	rec := httptest.NewRecorder()
	ctrl.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.ReadyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ready", resp.Status)
	assert.Equal(t, "ok", resp.Components["store"].Status)
	assert.NotContains(t, resp.Components, "cache")
}

func TestReadyzStoreDownIs503(t *testing.T) {
	ctrl := NewHealthController(Deps{Store: failingStore{memory.New()}})

	rec := httptest.NewRecorder()
	ctrl.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp dto.ReadyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unavailable", resp.Status)
	assert.Equal(t, "down", resp.Components["store"].Status)
	assert.Contains(t, resp.Components["store"].Detail, "pool exhausted")
}

func TestReadyzCacheDownOnlyDegrades(t *testing.T) {
	ctrl := NewHealthController(Deps{
		Store:      memory.New(),
		CacheCheck: func(ctx context.Context) error { return errors.New("redis: connection refused") },
	})

	rec := httptest.NewRecorder()
	ctrl.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	// La cache caída se reporta pero no baja el servicio.
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.ReadyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ready", resp.Status)
	assert.Equal(t, "ok", resp.Components["store"].Status)
	assert.Equal(t, "down", resp.Components["cache"].Status)
}
