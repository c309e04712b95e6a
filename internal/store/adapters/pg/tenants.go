package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/tenantgate/internal/domain/repository"
)

// ─── TenantRepository ───

type tenantRepo struct{ db *Store }

func (r *tenantRepo) GetByID(ctx context.Context, id int64) (*repository.Tenant, error) {
	const query = `
		SELECT id, slug, name, active, created_at
		FROM tenant
		WHERE id = $1
	`
	var t repository.Tenant
	err := r.db.q(ctx).QueryRow(ctx, query, id).Scan(
		&t.ID, &t.Slug, &t.Name, &t.Active, &t.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pg: get tenant by id: %w", err)
	}
	return &t, nil
}

func (r *tenantRepo) Create(ctx context.Context, tenant *repository.Tenant) error {
	const query = `
		INSERT INTO tenant (id, slug, name, active, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING created_at
	`
	err := r.db.q(ctx).QueryRow(ctx, query,
		tenant.ID, tenant.Slug, tenant.Name, tenant.Active,
	).Scan(&tenant.CreatedAt)
	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("pg: insert tenant: %w", err)
	}
	return nil
}
