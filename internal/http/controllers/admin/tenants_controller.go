// Package admin contiene los controllers administrativos. Montan
// detrás de RequireRole("ADMIN"); acá adentro ya hay un principal
// verificado con ese rol.
package admin

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dropDatabas3/tenantgate/internal/domain/repository"
	dto "github.com/dropDatabas3/tenantgate/internal/http/dto/admin"
	httperrors "github.com/dropDatabas3/tenantgate/internal/http/errors"
	"github.com/dropDatabas3/tenantgate/internal/observability/logger"
	"github.com/dropDatabas3/tenantgate/internal/store"
)

const (
	maxAdminBodySize = 4 << 10
	contentTypeJSON  = "application/json; charset=utf-8"
)

// TenantsController maneja el aprovisionamiento de tenants.
// Opera sobre el store directo: el alta de tenants es un insert con
// validación, no amerita capa de service.
type TenantsController struct {
	store store.Store
}

// NewTenantsController crea un nuevo controller de tenants.
func NewTenantsController(st store.Store) *TenantsController {
	return &TenantsController{store: st}
}

// Create maneja POST /api/admin/tenants
func (c *TenantsController) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("TenantsController.Create"))

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAdminBodySize)
	defer r.Body.Close()

	var req dto.CreateTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}

	req.Slug = strings.ToLower(strings.TrimSpace(req.Slug))
	req.Name = strings.TrimSpace(req.Name)
	if req.ID <= 0 || req.Slug == "" || req.Name == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("id, slug y name son obligatorios"))
		return
	}

	tenant := &repository.Tenant{
		ID:     req.ID,
		Slug:   req.Slug,
		Name:   req.Name,
		Active: req.Active == nil || *req.Active,
	}

	if err := c.store.Tenants().Create(ctx, tenant); err != nil {
		if repository.IsConflict(err) {
			httperrors.WriteError(w, httperrors.ErrConflict.WithDetail("tenant id o slug ya existe"))
			return
		}
		log.Error("tenant create failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}

	log.Info("tenant created",
		logger.TenantID(tenant.ID),
		logger.String("slug", tenant.Slug),
	)

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(dto.NewTenantResponse(tenant))
}
