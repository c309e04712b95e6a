package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/tenantgate/internal/domain/repository"
)

// ─── UserRepository ───

type userRepo struct{ db *Store }

const userColumns = `id::text, tenant_id, email, email_verified,
	COALESCE(first_name, ''), COALESCE(last_name, ''),
	roles, status, password_hash, last_login_at, created_at`

func scanUser(row pgx.Row) (*repository.User, error) {
	var u repository.User
	var status string
	err := row.Scan(
		&u.ID, &u.TenantID, &u.Email, &u.EmailVerified,
		&u.FirstName, &u.LastName,
		&u.Roles, &status, &u.PasswordHash, &u.LastLoginAt, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Status = repository.UserStatus(status)
	return &u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, tenantID int64, email string) (*repository.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM app_user
		WHERE tenant_id = $1 AND email = $2
	`
	u, err := scanUser(r.db.q(ctx).QueryRow(ctx, query, tenantID, email))
	if err == pgx.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pg: get user by email: %w", err)
	}
	return u, nil
}

func (r *userRepo) GetByID(ctx context.Context, tenantID int64, userID string) (*repository.User, error) {
	// Se busca por ID solo y se compara el tenant después: un ID que
	// existe bajo otro tenant es una violación de aislamiento y debe
	// reportarse como tal, nunca como un simple not-found.
	const query = `
		SELECT ` + userColumns + `
		FROM app_user
		WHERE id = $1
	`
	u, err := scanUser(r.db.q(ctx).QueryRow(ctx, query, userID))
	if err == pgx.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pg: get user by id: %w", err)
	}
	if u.TenantID != tenantID {
		return nil, repository.ErrTenantViolation
	}
	return u, nil
}

func (r *userRepo) Create(ctx context.Context, input repository.CreateUserInput) (*repository.User, error) {
	status := input.Status
	if status == "" {
		status = repository.StatusPendingVerification
	}

	const query = `
		INSERT INTO app_user (tenant_id, email, email_verified, first_name, last_name, roles, status, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id::text, created_at
	`
	u := &repository.User{
		TenantID:      input.TenantID,
		Email:         input.Email,
		EmailVerified: input.EmailVerified,
		FirstName:     input.FirstName,
		LastName:      input.LastName,
		Roles:         input.Roles,
		Status:        status,
		PasswordHash:  input.PasswordHash,
	}
	err := r.db.q(ctx).QueryRow(ctx, query,
		input.TenantID, input.Email, input.EmailVerified,
		nullIfEmpty(input.FirstName), nullIfEmpty(input.LastName),
		input.Roles, string(status), input.PasswordHash,
	).Scan(&u.ID, &u.CreatedAt)
	if isUniqueViolation(err) {
		return nil, repository.ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("pg: insert user: %w", err)
	}
	return u, nil
}

func (r *userRepo) SetLastLogin(ctx context.Context, tenantID int64, userID string, at time.Time) error {
	const query = `
		UPDATE app_user SET last_login_at = $3
		WHERE tenant_id = $1 AND id = $2
	`
	tag, err := r.db.q(ctx).Exec(ctx, query, tenantID, userID, at)
	if err != nil {
		return fmt.Errorf("pg: set last login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// nullIfEmpty retorna nil para strings vacíos, útil para columnas opcionales.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
