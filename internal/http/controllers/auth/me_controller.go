package auth

import (
	"encoding/json"
	"net/http"

	dto "github.com/dropDatabas3/tenantgate/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/tenantgate/internal/http/errors"
	"github.com/dropDatabas3/tenantgate/internal/tenantctx"
)

// MeController devuelve la identidad verificada del request.
type MeController struct{}

// NewMeController crea un nuevo controller de identidad.
func NewMeController() *MeController {
	return &MeController{}
}

// Me maneja GET /api/me
//
// Eco puro de los claims que pobló el middleware de autenticación.
// No toca el store: para el estado fresco de la cuenta está validate.
func (c *MeController) Me(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	p, ok := tenantctx.PrincipalFrom(r.Context())
	if !ok {
		// El guard de la ruta ya corta esto; doble chequeo por si el
		// controller se monta sin guard.
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(dto.MeResponse{
		UserID:   p.UserID,
		TenantID: p.TenantID,
		Roles:    p.Roles,
	})
}
