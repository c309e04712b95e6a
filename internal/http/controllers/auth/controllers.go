// Package auth contiene los controllers de autenticación.
package auth

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/dropDatabas3/tenantgate/internal/domain/repository"
	httperrors "github.com/dropDatabas3/tenantgate/internal/http/errors"
	svc "github.com/dropDatabas3/tenantgate/internal/http/services/auth"
	"github.com/dropDatabas3/tenantgate/internal/observability/logger"
	tokens "github.com/dropDatabas3/tenantgate/internal/security/token"
)

const (
	maxLoginBodySize = 64 * 1024 // 64KB
	maxTokenBodySize = 4 << 10   // 4KB para JSON chico
	contentTypeJSON  = "application/json; charset=utf-8"
)

// Controllers agrupa todos los controllers del dominio auth.
type Controllers struct {
	Login    *LoginController
	Refresh  *RefreshController
	Logout   *LogoutController
	Validate *ValidateController
	Me       *MeController
}

// NewControllers crea el agregador de controllers auth.
func NewControllers(s svc.Services) *Controllers {
	return &Controllers{
		Login:    NewLoginController(s.Login),
		Refresh:  NewRefreshController(s.Refresh),
		Logout:   NewLogoutController(s.Logout),
		Validate: NewValidateController(s.Validate),
		Me:       NewMeController(),
	}
}

// writeAuthError mapea los errores de los services auth al catálogo
// HTTP. El orden importa: ErrTokenExpired es también un verify error,
// va antes del colapso genérico a token inválido.
func writeAuthError(w http.ResponseWriter, err error, log *zap.Logger) {
	switch {
	case errors.Is(err, svc.ErrInvalidCredentials):
		httperrors.WriteError(w, httperrors.ErrInvalidCredentials)

	case errors.Is(err, svc.ErrTokenRevoked):
		httperrors.WriteError(w, httperrors.ErrTokenRevoked)

	case errors.Is(err, tokens.ErrTokenExpired):
		httperrors.WriteError(w, httperrors.ErrTokenExpired)

	case repository.IsTenantViolation(err):
		httperrors.WriteError(w, httperrors.ErrTenantViolation)

	case tokens.IsVerifyError(err):
		httperrors.WriteError(w, httperrors.ErrTokenInvalid)

	default:
		log.Error("unexpected error", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
	}
}
