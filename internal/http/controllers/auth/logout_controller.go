package auth

import (
	"encoding/json"
	"net/http"

	dto "github.com/dropDatabas3/tenantgate/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/tenantgate/internal/http/errors"
	"github.com/dropDatabas3/tenantgate/internal/http/middlewares"
	svc "github.com/dropDatabas3/tenantgate/internal/http/services/auth"
	"github.com/dropDatabas3/tenantgate/internal/observability/logger"
)

// LogoutController maneja el cierre de sesión.
type LogoutController struct {
	service svc.LogoutService
}

// NewLogoutController crea un nuevo controller de logout.
func NewLogoutController(service svc.LogoutService) *LogoutController {
	return &LogoutController{service: service}
}

// Logout maneja POST /api/auth/logout
//
// El refresh token puede venir como Bearer o en el body. La respuesta
// es 200 siempre: logout nunca le cuenta al caller si el token era
// válido o a quién pertenecía.
func (c *LogoutController) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LogoutController.Logout"))

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	raw := middlewares.BearerToken(r)
	if raw == "" {
		// Fallback por body. Un body ausente o roto no es error:
		// simplemente no hay nada que revocar.
		r.Body = http.MaxBytesReader(w, r.Body, maxTokenBodySize)
		defer r.Body.Close()
		var req dto.LogoutRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			raw = req.RefreshToken
		}
	}

	revoked := c.service.Logout(ctx, raw)
	log.Debug("logout completed", logger.Int("revoked_tokens", revoked))

	w.Header().Set("Content-Type", contentTypeJSON)
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(dto.LogoutResponse{Message: "Logout successful"})
}
