package repository

import (
	"context"
	"time"
)

// Tenant representa un arrendatario del sistema.
type Tenant struct {
	ID        int64
	Slug      string
	Name      string
	Active    bool
	CreatedAt time.Time
}

// TenantRepository define operaciones sobre tenants.
type TenantRepository interface {
	// GetByID busca un tenant por su ID.
	// Retorna ErrNotFound si no existe.
	GetByID(ctx context.Context, id int64) (*Tenant, error)

	// Create crea un nuevo tenant. El ID viene dado (los tenants se
	// aprovisionan desde fuera, este servicio solo los consulta).
	// Retorna ErrConflict si el ID o slug ya existe.
	Create(ctx context.Context, tenant *Tenant) error
}
