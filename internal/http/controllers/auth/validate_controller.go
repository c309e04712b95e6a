package auth

import (
	"encoding/json"
	"net/http"

	httperrors "github.com/dropDatabas3/tenantgate/internal/http/errors"
	"github.com/dropDatabas3/tenantgate/internal/http/middlewares"
	svc "github.com/dropDatabas3/tenantgate/internal/http/services/auth"
	"github.com/dropDatabas3/tenantgate/internal/observability/logger"
)

// ValidateController maneja la introspección de access tokens.
type ValidateController struct {
	service svc.ValidateService
}

// NewValidateController crea un nuevo controller de validación.
func NewValidateController(service svc.ValidateService) *ValidateController {
	return &ValidateController{service: service}
}

// Validate maneja GET /api/auth/validate
//
// Verifica el Bearer contra firma, vencimiento y estado actual de la
// cuenta. Un token que pasa acá puede igual morir en el próximo
// request si la cuenta se suspende: la respuesta refleja el ahora.
func (c *ValidateController) Validate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ValidateController.Validate"))

	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	raw := middlewares.BearerToken(r)
	if raw == "" {
		httperrors.WriteError(w, httperrors.ErrTokenMissing)
		return
	}

	result, err := c.service.Validate(ctx, raw)
	if err != nil {
		log.Debug("validate rejected", logger.Err(err))
		writeAuthError(w, err, log)
		return
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(result.Response())
}
