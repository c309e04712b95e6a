// Package health contiene el controller para health checks.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	dto "github.com/dropDatabas3/tenantgate/internal/http/dto/health"
	httperrors "github.com/dropDatabas3/tenantgate/internal/http/errors"
	"github.com/dropDatabas3/tenantgate/internal/observability/logger"
	"github.com/dropDatabas3/tenantgate/internal/store"
)

const probeTimeout = 2 * time.Second

// Deps contiene las dependencias del health controller.
type Deps struct {
	Store store.Store

	// CacheCheck pingea la cache externa. nil = cache en memoria,
	// no hay nada que probar.
	CacheCheck func(ctx context.Context) error
}

// HealthController maneja las rutas de health check.
type HealthController struct {
	deps Deps
}

// NewHealthController crea un nuevo controller de health check.
func NewHealthController(deps Deps) *HealthController {
	return &HealthController{deps: deps}
}

// Healthz maneja GET /healthz
//
// Liveness puro: si el proceso responde, está vivo. No toca
// dependencias para que un backend caído no mate el pod.
func (c *HealthController) Healthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(dto.LiveResponse{Status: "ok"})
}

// Readyz maneja GET /readyz
//
// Readiness: pingea el store y la cache. El store caído baja el
// servicio a 503; la cache caída se reporta pero no lo baja, el
// servicio degrada a ir siempre al store.
func (c *HealthController) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("HealthController.Readyz"))

	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	response := dto.ReadyResponse{
		Status:     "ready",
		Components: make(map[string]dto.ComponentStatus),
		Timestamp:  time.Now().UTC(),
	}

	if err := c.deps.Store.Ping(probeCtx); err != nil {
		log.Warn("store ping failed", logger.Err(err))
		response.Status = "unavailable"
		response.Components["store"] = dto.ComponentStatus{Status: "down", Detail: err.Error()}
	} else {
		response.Components["store"] = dto.ComponentStatus{Status: "ok"}
	}

	if c.deps.CacheCheck != nil {
		if err := c.deps.CacheCheck(probeCtx); err != nil {
			log.Warn("cache ping failed", logger.Err(err))
			response.Components["cache"] = dto.ComponentStatus{Status: "down", Detail: err.Error()}
		} else {
			response.Components["cache"] = dto.ComponentStatus{Status: "ok"}
		}
	}

	statusCode := http.StatusOK
	if response.Status == "unavailable" {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}
