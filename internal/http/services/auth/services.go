// Package auth contiene los services de autenticación: login, rotación
// de refresh tokens, logout y validación.
package auth

import (
	"errors"

	"github.com/dropDatabas3/tenantgate/internal/security/password"
	tokens "github.com/dropDatabas3/tenantgate/internal/security/token"
	"github.com/dropDatabas3/tenantgate/internal/store"
	"github.com/dropDatabas3/tenantgate/internal/tenantdir"
)

// Errores del dominio auth. El resto de la taxonomía vive en los
// paquetes tokens (fallos de verificación) y repository (violaciones
// de tenant).
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenRevoked       = errors.New("refresh token revoked")
)

// PasswordVerifier verifica un password plano contra su hash PHC.
type PasswordVerifier func(plain, phc string) bool

// Deps contiene las dependencias para crear los services auth.
type Deps struct {
	Store   store.Store
	Tenants *tenantdir.Directory
	Codec   *tokens.Codec
	Verify  PasswordVerifier // nil = argon2id por defecto
}

// Services agrupa todos los services del dominio auth.
type Services struct {
	Login    LoginService
	Refresh  RefreshService
	Logout   LogoutService
	Validate ValidateService
}

// NewServices crea el agregador de services auth.
func NewServices(d Deps) Services {
	if d.Verify == nil {
		d.Verify = password.Verify
	}
	return Services{
		Login:    NewLoginService(LoginDeps{Store: d.Store, Tenants: d.Tenants, Codec: d.Codec, Verify: d.Verify}),
		Refresh:  NewRefreshService(RefreshDeps{Store: d.Store, Codec: d.Codec}),
		Logout:   NewLogoutService(LogoutDeps{Store: d.Store, Codec: d.Codec}),
		Validate: NewValidateService(ValidateDeps{Store: d.Store, Codec: d.Codec}),
	}
}
