package auth

import (
	"context"
	"strings"

	"github.com/dropDatabas3/tenantgate/internal/audit"
	"github.com/dropDatabas3/tenantgate/internal/observability/logger"
	tokens "github.com/dropDatabas3/tenantgate/internal/security/token"
	"github.com/dropDatabas3/tenantgate/internal/store"
	"github.com/dropDatabas3/tenantgate/internal/tenantctx"
	"go.uber.org/zap"
)

// LogoutService revoca los refresh tokens de la sesión.
// Es best-effort: el caller siempre recibe una respuesta exitosa,
// incluso con un token inválido, para no filtrar estado de sesión.
type LogoutService interface {
	// Logout retorna cuántos tokens quedaron revocados.
	Logout(ctx context.Context, rawToken string) int
}

// LogoutDeps contiene las dependencias del logout service.
type LogoutDeps struct {
	Store store.Store
	Codec *tokens.Codec
}

type logoutService struct {
	deps LogoutDeps
}

// NewLogoutService crea un nuevo servicio de logout.
func NewLogoutService(deps LogoutDeps) LogoutService {
	return &logoutService{deps: deps}
}

func (s *logoutService) Logout(ctx context.Context, rawToken string) int {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.logout"),
		logger.Op("Logout"),
	)

	raw := strings.TrimSpace(rawToken)
	if raw == "" {
		log.Debug("logout without token")
		return 0
	}

	claims, err := s.deps.Codec.VerifyKind(raw, tokens.KindRefresh)
	if err != nil {
		log.Debug("logout token rejected", logger.Err(err))
		return 0
	}
	tenantID := claims.TenantID
	ctx = tenantctx.WithTenant(ctx, tenantID)

	// Revoca toda la familia del usuario, no solo el token presentado:
	// un logout explícito invalida la sesión completa del dispositivo
	// y cualquier rotación en vuelo.
	count, err := s.deps.Store.Tokens().RevokeAllForUser(ctx, tenantID, claims.Subject, "logout")
	if err != nil {
		log.Warn("logout revocation failed",
			logger.TenantID(tenantID),
			logger.UserID(claims.Subject),
			logger.Err(err),
		)
		return 0
	}

	audit.Event(ctx, "logout",
		logger.UserID(claims.Subject),
		zap.Int("revoked_tokens", count),
	)
	return count
}
