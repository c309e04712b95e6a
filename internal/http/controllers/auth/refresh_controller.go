package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	dto "github.com/dropDatabas3/tenantgate/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/tenantgate/internal/http/errors"
	"github.com/dropDatabas3/tenantgate/internal/http/middlewares"
	svc "github.com/dropDatabas3/tenantgate/internal/http/services/auth"
	"github.com/dropDatabas3/tenantgate/internal/observability/logger"
)

// RefreshController maneja la rotación de refresh tokens.
type RefreshController struct {
	service svc.RefreshService
}

// NewRefreshController crea un nuevo controller de refresh.
func NewRefreshController(service svc.RefreshService) *RefreshController {
	return &RefreshController{service: service}
}

// Refresh maneja POST /api/auth/refresh
//
// No mira X-Tenant-ID: el tenant sale de los claims verificados del
// propio refresh token.
func (c *RefreshController) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("RefreshController.Refresh"))

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxTokenBodySize)
	defer r.Body.Close()

	var req dto.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}

	if strings.TrimSpace(req.RefreshToken) == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("refreshToken es obligatorio"))
		return
	}

	req.DeviceInfo = r.UserAgent()
	req.IPAddress = middlewares.ClientIP(r)

	result, err := c.service.Refresh(ctx, req)
	if err != nil {
		log.Debug("refresh rejected", logger.Err(err))
		writeAuthError(w, err, log)
		return
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(result.Response())
}
