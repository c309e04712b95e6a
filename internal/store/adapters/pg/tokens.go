package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/tenantgate/internal/domain/repository"
)

// ─── TokenRepository ───

type tokenRepo struct{ db *Store }

func (r *tokenRepo) Create(ctx context.Context, input repository.CreateRefreshTokenInput) (string, error) {
	const query = `
		INSERT INTO refresh_token (tenant_id, user_id, token_hash, issued_at, expires_at, device_info, ip_address)
		VALUES ($1, $2, $3, NOW(), NOW() + $4::interval, $5, $6)
		RETURNING id::text
	`
	ttl := fmt.Sprintf("%d seconds", input.TTLSeconds)
	var id string
	err := r.db.q(ctx).QueryRow(ctx, query,
		input.TenantID, input.UserID, input.TokenHash, ttl,
		input.DeviceInfo, input.IPAddress,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("pg: insert refresh token: %w", err)
	}
	return id, nil
}

const tokenColumns = `id::text, user_id::text, tenant_id, token_hash,
	issued_at, expires_at, revoked_at, revocation_reason,
	COALESCE(device_info, ''), COALESCE(ip_address, '')`

func scanToken(row pgx.Row) (*repository.RefreshToken, error) {
	var t repository.RefreshToken
	err := row.Scan(
		&t.ID, &t.UserID, &t.TenantID, &t.TokenHash,
		&t.IssuedAt, &t.ExpiresAt, &t.RevokedAt, &t.RevocationReason,
		&t.DeviceInfo, &t.IPAddress,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tokenRepo) GetByHash(ctx context.Context, tenantID int64, tokenHash string) (*repository.RefreshToken, error) {
	// El hash es único globalmente: se busca sin filtro de tenant y se
	// compara después, para que un hash de otro tenant se reporte como
	// violación y no se disfrace de not-found.
	const query = `
		SELECT ` + tokenColumns + `
		FROM refresh_token
		WHERE token_hash = $1
	`
	t, err := scanToken(r.db.q(ctx).QueryRow(ctx, query, tokenHash))
	if err == pgx.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pg: get token by hash: %w", err)
	}
	if t.TenantID != tenantID {
		return nil, repository.ErrTenantViolation
	}
	return t, nil
}

func (r *tokenRepo) Revoke(ctx context.Context, tenantID int64, tokenHash, reason string) (bool, error) {
	// Update condicional: el predicado revoked_at IS NULL garantiza un
	// único ganador aunque dos rotaciones lleguen a la vez.
	const query = `
		UPDATE refresh_token
		SET revoked_at = NOW(), revocation_reason = $3
		WHERE token_hash = $1 AND tenant_id = $2 AND revoked_at IS NULL
	`
	tag, err := r.db.q(ctx).Exec(ctx, query, tokenHash, tenantID, reason)
	if err != nil {
		return false, fmt.Errorf("pg: revoke token: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	// Cero filas: distinguir entre hash inexistente, tenant ajeno y
	// carrera perdida.
	t, err := r.GetByHash(ctx, tenantID, tokenHash)
	if err != nil {
		return false, err
	}
	if t.Revoked() {
		return false, nil
	}
	return false, fmt.Errorf("pg: revoke token: update matched nothing for active token %s", t.ID)
}

func (r *tokenRepo) RevokeAllForUser(ctx context.Context, tenantID int64, userID, reason string) (int, error) {
	const query = `
		UPDATE refresh_token
		SET revoked_at = NOW(), revocation_reason = $3
		WHERE tenant_id = $1 AND user_id = $2 AND revoked_at IS NULL
	`
	tag, err := r.db.q(ctx).Exec(ctx, query, tenantID, userID, reason)
	if err != nil {
		return 0, fmt.Errorf("pg: revoke all for user: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
