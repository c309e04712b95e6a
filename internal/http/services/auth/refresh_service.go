package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/tenantgate/internal/audit"
	"github.com/dropDatabas3/tenantgate/internal/domain/repository"
	dto "github.com/dropDatabas3/tenantgate/internal/http/dto/auth"
	"github.com/dropDatabas3/tenantgate/internal/metrics"
	"github.com/dropDatabas3/tenantgate/internal/observability/logger"
	tokens "github.com/dropDatabas3/tenantgate/internal/security/token"
	"github.com/dropDatabas3/tenantgate/internal/store"
	"github.com/dropDatabas3/tenantgate/internal/tenantctx"
)

// RefreshService define la rotación de refresh tokens.
type RefreshService interface {
	Refresh(ctx context.Context, in dto.RefreshRequest) (*dto.TokenPairResult, error)
}

// RefreshDeps contiene las dependencias del refresh service.
type RefreshDeps struct {
	Store store.Store
	Codec *tokens.Codec
}

type refreshService struct {
	deps RefreshDeps
}

// NewRefreshService crea un nuevo servicio de rotación.
func NewRefreshService(deps RefreshDeps) RefreshService {
	return &refreshService{deps: deps}
}

func (s *refreshService) Refresh(ctx context.Context, in dto.RefreshRequest) (*dto.TokenPairResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.refresh"),
		logger.Op("Refresh"),
	)

	raw := strings.TrimSpace(in.RefreshToken)
	if raw == "" {
		return nil, tokens.ErrTokenMalformed
	}

	// El tenant sale de los claims verificados, nunca de un header.
	claims, err := s.deps.Codec.VerifyKind(raw, tokens.KindRefresh)
	if err != nil {
		log.Debug("refresh token rejected", logger.Err(err))
		metrics.RecordRefreshRotation(rotationLabel(err))
		return nil, err
	}
	tenantID := claims.TenantID
	userID := claims.Subject
	ctx = tenantctx.WithTenant(ctx, tenantID)
	log = log.With(logger.TenantID(tenantID), logger.UserID(userID))

	hash := tokens.SHA256Base64URL(raw)

	rt, err := s.deps.Store.Tokens().GetByHash(ctx, tenantID, hash)
	if err != nil {
		switch {
		case repository.IsTenantViolation(err):
			log.Warn("refresh token belongs to another tenant")
			metrics.RecordTenantViolation()
			metrics.RecordRefreshRotation("error")
			audit.Event(ctx, "tenant_violation",
				logger.UserID(userID),
				logger.Reason("refresh_token_cross_tenant"),
			)
			return nil, repository.ErrTenantViolation
		case repository.IsNotFound(err):
			// Firmado por nosotros pero sin registro: tratarlo igual
			// que un token revocado, sin dar detalle.
			log.Debug("refresh token has no record")
			metrics.RecordRefreshRotation("revoked")
			return nil, ErrTokenRevoked
		default:
			log.Error("refresh token lookup failed", logger.Err(err))
			metrics.RecordRefreshRotation("error")
			return nil, fmt.Errorf("token lookup: %w", err)
		}
	}

	now := time.Now()
	if rt.Expired(now) {
		log.Debug("refresh token record expired")
		metrics.RecordRefreshRotation("expired")
		return nil, tokens.ErrTokenExpired
	}
	if rt.Revoked() {
		// Reuso de un token ya rotado: señal clásica de replay.
		log.Warn("refresh token replayed")
		metrics.RecordRefreshRotation("replayed")
		audit.Event(ctx, "refresh_replay_detected",
			logger.UserID(rt.UserID),
			logger.String("token_id", rt.ID),
		)
		return nil, ErrTokenRevoked
	}

	// La cuenta tiene que seguir pudiendo autenticar.
	user, err := s.deps.Store.Users().GetByID(ctx, tenantID, rt.UserID)
	if err != nil {
		if repository.IsTenantViolation(err) {
			metrics.RecordTenantViolation()
			audit.Event(ctx, "tenant_violation", logger.Reason("refresh_user_cross_tenant"))
			return nil, repository.ErrTenantViolation
		}
		log.Debug("refresh user lookup failed", logger.Err(err))
		metrics.RecordRefreshRotation("error")
		return nil, ErrInvalidCredentials
	}
	if !user.CanAuthenticate() {
		log.Info("account cannot authenticate", logger.String("status", string(user.Status)))
		metrics.RecordRefreshRotation("error")
		return nil, ErrInvalidCredentials
	}

	// Rotación: revocación condicional de un solo ganador y alta del
	// reemplazo en la MISMA transacción. El perdedor no escribe nada.
	access, accessExp, err := s.deps.Codec.IssueAccess(user.ID, tenantID, user.Roles)
	if err != nil {
		log.Error("failed to issue access token", logger.Err(err))
		metrics.RecordRefreshRotation("error")
		return nil, fmt.Errorf("issue access: %w", err)
	}
	newRefresh, _, err := s.deps.Codec.IssueRefresh(user.ID, tenantID)
	if err != nil {
		log.Error("failed to issue refresh token", logger.Err(err))
		metrics.RecordRefreshRotation("error")
		return nil, fmt.Errorf("issue refresh: %w", err)
	}

	err = s.deps.Store.Atomic(ctx, func(ctx context.Context) error {
		won, err := s.deps.Store.Tokens().Revoke(ctx, tenantID, hash, "rotated")
		if err != nil {
			return err
		}
		if !won {
			return ErrTokenRevoked
		}
		_, err = s.deps.Store.Tokens().Create(ctx, repository.CreateRefreshTokenInput{
			TenantID:   tenantID,
			UserID:     user.ID,
			TokenHash:  tokens.SHA256Base64URL(newRefresh),
			TTLSeconds: int(s.deps.Codec.RefreshTTL().Seconds()),
			DeviceInfo: in.DeviceInfo,
			IPAddress:  in.IPAddress,
		})
		return err
	})
	if err != nil {
		if errors.Is(err, ErrTokenRevoked) {
			// Perdió la carrera contra una rotación concurrente.
			log.Warn("refresh rotation lost race")
			metrics.RecordRefreshRotation("replayed")
			audit.Event(ctx, "refresh_replay_detected",
				logger.UserID(user.ID),
				logger.String("token_id", rt.ID),
			)
			return nil, ErrTokenRevoked
		}
		log.Error("refresh rotation failed", logger.Err(err))
		metrics.RecordRefreshRotation("error")
		return nil, fmt.Errorf("rotate refresh: %w", err)
	}

	log.Info("refresh successful")
	metrics.RecordRefreshRotation("success")

	return &dto.TokenPairResult{
		AccessToken:  access,
		RefreshToken: newRefresh,
		ExpiresAt:    accessExp,
		User:         user,
	}, nil
}

// rotationLabel proyecta un fallo de verificación al label de métrica.
func rotationLabel(err error) string {
	if errors.Is(err, tokens.ErrTokenExpired) {
		return "expired"
	}
	return "error"
}
