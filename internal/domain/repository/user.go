package repository

import (
	"context"
	"strings"
	"time"
)

// UserStatus es el estado de la cuenta.
type UserStatus string

const (
	StatusActive              UserStatus = "active"
	StatusInactive            UserStatus = "inactive"
	StatusSuspended           UserStatus = "suspended"
	StatusPendingVerification UserStatus = "pending_verification"
)

// User representa un usuario del sistema.
type User struct {
	ID            string
	TenantID      int64
	Email         string
	EmailVerified bool
	FirstName     string
	LastName      string
	Roles         []string
	Status        UserStatus
	PasswordHash  string
	LastLoginAt   *time.Time
	CreatedAt     time.Time
}

// FullName compone nombre y apellido, omitiendo partes vacías.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// PrimaryRole retorna el primer rol, o vacío si no tiene.
func (u *User) PrimaryRole() string {
	if len(u.Roles) == 0 {
		return ""
	}
	return u.Roles[0]
}

// CanAuthenticate indica si la cuenta puede iniciar sesión:
// estado activo y email verificado. Cualquier otra combinación se
// reporta al caller como credencial inválida, sin distinguir el motivo.
func (u *User) CanAuthenticate() bool {
	return u.Status == StatusActive && u.EmailVerified
}

// CreateUserInput contiene los datos para crear un usuario.
type CreateUserInput struct {
	TenantID      int64
	Email         string
	PasswordHash  string
	FirstName     string
	LastName      string
	Roles         []string
	Status        UserStatus
	EmailVerified bool
}

// UserRepository define operaciones sobre usuarios.
type UserRepository interface {
	// GetByEmail busca un usuario por email dentro de un tenant.
	// Retorna ErrNotFound si no existe.
	GetByEmail(ctx context.Context, tenantID int64, email string) (*User, error)

	// GetByID busca un usuario por ID dentro de un tenant.
	// Retorna ErrNotFound si no existe en ese tenant; si el ID existe
	// pero pertenece a otro tenant, ErrTenantViolation.
	GetByID(ctx context.Context, tenantID int64, userID string) (*User, error)

	// Create crea un nuevo usuario.
	// Retorna ErrConflict si el email ya existe en el tenant.
	Create(ctx context.Context, input CreateUserInput) (*User, error)

	// SetLastLogin registra el instante del último login exitoso.
	SetLastLogin(ctx context.Context, tenantID int64, userID string, at time.Time) error
}
