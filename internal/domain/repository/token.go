package repository

import (
	"context"
	"time"
)

// RefreshToken representa un token de refresco persistido.
// El token firmado nunca se guarda: solo su hash SHA-256.
type RefreshToken struct {
	ID               string
	UserID           string
	TenantID         int64
	TokenHash        string
	IssuedAt         time.Time
	ExpiresAt        time.Time
	RevokedAt        *time.Time
	RevocationReason *string
	DeviceInfo       string
	IPAddress        string
}

// Revoked indica si el token ya fue revocado.
func (t *RefreshToken) Revoked() bool {
	return t.RevokedAt != nil
}

// Expired indica si el token venció respecto de now.
func (t *RefreshToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// CreateRefreshTokenInput contiene los datos para crear un refresh token.
type CreateRefreshTokenInput struct {
	TenantID   int64
	UserID     string
	TokenHash  string
	TTLSeconds int
	DeviceInfo string
	IPAddress  string
}

// TokenRepository define operaciones sobre refresh tokens.
type TokenRepository interface {
	// Create crea un nuevo refresh token.
	// Retorna el ID del token creado.
	Create(ctx context.Context, input CreateRefreshTokenInput) (string, error)

	// GetByHash busca un token por su hash.
	// Retorna ErrNotFound si no existe. Si existe pero su tenant no es
	// tenantID, retorna ErrTenantViolation.
	GetByHash(ctx context.Context, tenantID int64, tokenHash string) (*RefreshToken, error)

	// Revoke revoca un token activo. La actualización es condicional:
	// solo gana quien encuentra el token sin revocar. Retorna false si
	// otro caller lo revocó primero, ErrNotFound si el hash no existe y
	// ErrTenantViolation si pertenece a otro tenant.
	Revoke(ctx context.Context, tenantID int64, tokenHash, reason string) (bool, error)

	// RevokeAllForUser revoca todos los tokens activos de un usuario
	// dentro de un tenant. Retorna el número de tokens revocados.
	RevokeAllForUser(ctx context.Context, tenantID int64, userID, reason string) (int, error)
}
