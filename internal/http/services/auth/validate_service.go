package auth

import (
	"context"
	"strings"

	"github.com/dropDatabas3/tenantgate/internal/audit"
	"github.com/dropDatabas3/tenantgate/internal/domain/repository"
	dto "github.com/dropDatabas3/tenantgate/internal/http/dto/auth"
	"github.com/dropDatabas3/tenantgate/internal/metrics"
	"github.com/dropDatabas3/tenantgate/internal/observability/logger"
	tokens "github.com/dropDatabas3/tenantgate/internal/security/token"
	"github.com/dropDatabas3/tenantgate/internal/store"
	"github.com/dropDatabas3/tenantgate/internal/tenantctx"
)

// ValidateService verifica un access token y lo enriquece con el
// usuario actual. Lo usan servicios downstream que no quieren
// verificar JWTs por su cuenta.
type ValidateService interface {
	Validate(ctx context.Context, rawToken string) (*dto.ValidateResult, error)
}

// ValidateDeps contiene las dependencias del validate service.
type ValidateDeps struct {
	Store store.Store
	Codec *tokens.Codec
}

type validateService struct {
	deps ValidateDeps
}

// NewValidateService crea un nuevo servicio de validación.
func NewValidateService(deps ValidateDeps) ValidateService {
	return &validateService{deps: deps}
}

func (s *validateService) Validate(ctx context.Context, rawToken string) (*dto.ValidateResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.validate"),
		logger.Op("Validate"),
	)

	raw := strings.TrimSpace(rawToken)
	if raw == "" {
		metrics.RecordTokenVerification("malformed")
		return nil, tokens.ErrTokenMalformed
	}

	claims, err := s.deps.Codec.VerifyKind(raw, tokens.KindAccess)
	metrics.RecordTokenVerification(tokens.VerificationResult(err))
	if err != nil {
		log.Debug("access token rejected", logger.Err(err))
		return nil, err
	}
	tenantID := claims.TenantID
	ctx = tenantctx.WithTenant(ctx, tenantID)
	log = log.With(logger.TenantID(tenantID), logger.UserID(claims.Subject))

	// Enriquecer con el estado actual del usuario. Un token válido de
	// una cuenta borrada o suspendida no sirve.
	user, err := s.deps.Store.Users().GetByID(ctx, tenantID, claims.Subject)
	if err != nil {
		switch {
		case repository.IsTenantViolation(err):
			log.Warn("access token subject belongs to another tenant")
			metrics.RecordTenantViolation()
			audit.Event(ctx, "tenant_violation",
				logger.UserID(claims.Subject),
				logger.Reason("validate_user_cross_tenant"),
			)
			return nil, repository.ErrTenantViolation
		case repository.IsNotFound(err):
			log.Debug("access token subject no longer exists")
			return nil, ErrInvalidCredentials
		default:
			log.Error("validate user lookup failed", logger.Err(err))
			return nil, ErrInvalidCredentials
		}
	}
	if !user.CanAuthenticate() {
		log.Info("account cannot authenticate", logger.String("status", string(user.Status)))
		return nil, ErrInvalidCredentials
	}

	return &dto.ValidateResult{
		TokenType: tokens.KindAccess,
		Remaining: s.deps.Codec.RemainingValidity(raw),
		User:      user,
	}, nil
}
