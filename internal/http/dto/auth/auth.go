// Package auth contiene DTOs para los endpoints de autenticación.
package auth

import (
	"time"

	"github.com/dropDatabas3/tenantgate/internal/domain/repository"
)

// LoginRequest representa la solicitud de login por password.
// TenantID viene del header X-Tenant-ID; los metadatos de dispositivo
// los inyecta el controller desde el request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`

	TenantID   int64  `json:"-"`
	DeviceInfo string `json:"-"`
	IPAddress  string `json:"-"`
}

// RefreshRequest representa la solicitud de rotación de refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`

	DeviceInfo string `json:"-"`
	IPAddress  string `json:"-"`
}

// LogoutRequest es el fallback por body cuando no hay Authorization.
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// UserSummary es la vista pública del usuario en las respuestas.
type UserSummary struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	FullName  string `json:"fullName,omitempty"`
	Role      string `json:"role,omitempty"`
	TenantID  int64  `json:"tenantId"`
}

// NewUserSummary proyecta un usuario del dominio a su vista pública.
func NewUserSummary(u *repository.User) UserSummary {
	return UserSummary{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		FullName:  u.FullName(),
		Role:      u.PrimaryRole(),
		TenantID:  u.TenantID,
	}
}

// TokenPairResponse es la respuesta de login y refresh.
type TokenPairResponse struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	TokenType    string      `json:"tokenType"` // "Bearer"
	ExpiresIn    int64       `json:"expiresIn"` // segundos
	ExpiresAt    time.Time   `json:"expiresAt"`
	User         UserSummary `json:"user"`
}

// TokenPairResult es el resultado interno de los services.
type TokenPairResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         *repository.User
}

// Response proyecta el resultado interno a la respuesta pública.
func (r *TokenPairResult) Response() TokenPairResponse {
	return TokenPairResponse{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(time.Until(r.ExpiresAt).Seconds()),
		ExpiresAt:    r.ExpiresAt,
		User:         NewUserSummary(r.User),
	}
}

// LogoutResponse es la respuesta fija de logout.
type LogoutResponse struct {
	Message string `json:"message"`
}

// ValidateResponse es la respuesta del echo de validación.
type ValidateResponse struct {
	Valid     bool        `json:"valid"`
	TokenType string      `json:"tokenType"`
	ExpiresIn int64       `json:"expiresIn"` // segundos restantes
	User      UserSummary `json:"user"`
}

// ValidateResult es el resultado interno del service de validación.
type ValidateResult struct {
	TokenType string
	Remaining time.Duration
	User      *repository.User
}

// Response proyecta el resultado interno a la respuesta pública.
func (r *ValidateResult) Response() ValidateResponse {
	return ValidateResponse{
		Valid:     true,
		TokenType: r.TokenType,
		ExpiresIn: int64(r.Remaining.Seconds()),
		User:      NewUserSummary(r.User),
	}
}

// MeResponse es el eco de la identidad verificada del request.
// Sale directo de los claims, sin tocar el store.
type MeResponse struct {
	UserID   string   `json:"userId"`
	TenantID int64    `json:"tenantId"`
	Roles    []string `json:"roles"`
}
