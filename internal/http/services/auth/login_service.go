package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/tenantgate/internal/audit"
	"github.com/dropDatabas3/tenantgate/internal/domain/repository"
	dto "github.com/dropDatabas3/tenantgate/internal/http/dto/auth"
	"github.com/dropDatabas3/tenantgate/internal/metrics"
	"github.com/dropDatabas3/tenantgate/internal/observability/logger"
	tokens "github.com/dropDatabas3/tenantgate/internal/security/token"
	"github.com/dropDatabas3/tenantgate/internal/store"
	"github.com/dropDatabas3/tenantgate/internal/tenantctx"
	"github.com/dropDatabas3/tenantgate/internal/tenantdir"
)

// LoginService define la operación de login por password.
type LoginService interface {
	Login(ctx context.Context, in dto.LoginRequest) (*dto.TokenPairResult, error)
}

// LoginDeps contiene las dependencias del login service.
type LoginDeps struct {
	Store   store.Store
	Tenants *tenantdir.Directory
	Codec   *tokens.Codec
	Verify  PasswordVerifier
}

type loginService struct {
	deps LoginDeps
}

// NewLoginService crea un nuevo servicio de login.
func NewLoginService(deps LoginDeps) LoginService {
	return &loginService{deps: deps}
}

func (s *loginService) Login(ctx context.Context, in dto.LoginRequest) (*dto.TokenPairResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.login"),
		logger.Op("Login"),
		logger.TenantID(in.TenantID),
	)

	// Normalización
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Email == "" || in.Password == "" || in.TenantID <= 0 {
		return nil, ErrInvalidCredentials
	}

	// El tenant viaja en el ctx derivado del request: muere con él,
	// nunca en estado global.
	ctx = tenantctx.WithTenant(ctx, in.TenantID)

	// Gate de tenant: inexistente o desactivado responde igual que una
	// credencial mala, sin dar pistas.
	if _, err := s.deps.Tenants.RequireActive(ctx, in.TenantID); err != nil {
		log.Debug("tenant gate failed", logger.Err(err))
		metrics.RecordLogin("invalid_credentials")
		return nil, ErrInvalidCredentials
	}

	user, err := s.deps.Store.Users().GetByEmail(ctx, in.TenantID, in.Email)
	if err != nil {
		if repository.IsNotFound(err) {
			log.Debug("user not found")
		} else {
			log.Error("user lookup failed", logger.Err(err))
		}
		metrics.RecordLogin("invalid_credentials")
		return nil, ErrInvalidCredentials
	}

	log = log.With(logger.UserID(user.ID))

	// Estado y verificación de email se reportan como credencial
	// inválida: una cuenta que no puede autenticar no recibe tokens ni
	// un motivo distinguible.
	if !user.CanAuthenticate() {
		log.Info("account cannot authenticate", logger.String("status", string(user.Status)))
		metrics.RecordLogin("invalid_credentials")
		return nil, ErrInvalidCredentials
	}

	if !s.deps.Verify(in.Password, user.PasswordHash) {
		log.Debug("password check failed")
		metrics.RecordLogin("invalid_credentials")
		audit.Event(ctx, "login_failed", logger.UserID(user.ID), logger.Reason("bad_password"))
		return nil, ErrInvalidCredentials
	}

	// Emisión del par
	access, accessExp, err := s.deps.Codec.IssueAccess(user.ID, user.TenantID, user.Roles)
	if err != nil {
		log.Error("failed to issue access token", logger.Err(err))
		metrics.RecordLogin("error")
		return nil, fmt.Errorf("issue access: %w", err)
	}
	refresh, _, err := s.deps.Codec.IssueRefresh(user.ID, user.TenantID)
	if err != nil {
		log.Error("failed to issue refresh token", logger.Err(err))
		metrics.RecordLogin("error")
		return nil, fmt.Errorf("issue refresh: %w", err)
	}

	// Persistencia del refresh y sello de último login en UNA sola
	// transacción: o queda todo, o no queda nada.
	now := time.Now().UTC()
	err = s.deps.Store.Atomic(ctx, func(ctx context.Context) error {
		if _, err := s.deps.Store.Tokens().Create(ctx, repository.CreateRefreshTokenInput{
			TenantID:   user.TenantID,
			UserID:     user.ID,
			TokenHash:  tokens.SHA256Base64URL(refresh),
			TTLSeconds: int(s.deps.Codec.RefreshTTL().Seconds()),
			DeviceInfo: in.DeviceInfo,
			IPAddress:  in.IPAddress,
		}); err != nil {
			return err
		}
		return s.deps.Store.Users().SetLastLogin(ctx, user.TenantID, user.ID, now)
	})
	if err != nil {
		log.Error("failed to persist session", logger.Err(err))
		metrics.RecordLogin("error")
		return nil, fmt.Errorf("persist session: %w", err)
	}

	log.Info("login successful")
	metrics.RecordLogin("success")
	audit.Event(ctx, "login_success",
		logger.UserID(user.ID),
		zap.String("ip", in.IPAddress),
	)

	return &dto.TokenPairResult{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    accessExp,
		User:         user,
	}, nil
}
