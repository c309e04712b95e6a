// Package admin contiene DTOs para los endpoints administrativos.
package admin

import (
	"time"

	"github.com/dropDatabas3/tenantgate/internal/domain/repository"
)

// CreateTenantRequest representa el alta de un tenant.
// El ID viene dado: los tenants se aprovisionan desde fuera y este
// servicio solo verifica que no colisione.
type CreateTenantRequest struct {
	ID     int64  `json:"id"`
	Slug   string `json:"slug"`
	Name   string `json:"name"`
	Active *bool  `json:"active,omitempty"` // nil = activo
}

// TenantResponse es la vista pública de un tenant.
type TenantResponse struct {
	ID        int64     `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewTenantResponse proyecta un tenant del dominio a su vista pública.
func NewTenantResponse(t *repository.Tenant) TenantResponse {
	return TenantResponse{
		ID:        t.ID,
		Slug:      t.Slug,
		Name:      t.Name,
		Active:    t.Active,
		CreatedAt: t.CreatedAt,
	}
}
