// Package tenantdir resuelve tenants por ID con un cache read-through.
//
// Las lecturas van primero al cache (memoria o Redis), y los misses se
// coalescen con singleflight para que N requests concurrentes del mismo
// tenant generen una sola consulta al repositorio.
package tenantdir

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/tenantgate/internal/cache"
	"github.com/dropDatabas3/tenantgate/internal/domain/repository"
	"github.com/dropDatabas3/tenantgate/internal/observability/logger"
)

// ErrInactive indica que el tenant existe pero está desactivado.
var ErrInactive = errors.New("tenant inactive")

// Directory es el directorio de tenants con cache.
type Directory struct {
	repo  repository.TenantRepository
	cache cache.Client
	ttl   time.Duration
	sf    singleflight.Group
}

// New crea un Directory sobre el repositorio y cache indicados.
// ttl controla cuánto vive cada entrada en el cache.
func New(repo repository.TenantRepository, c cache.Client, ttl time.Duration) *Directory {
	return &Directory{repo: repo, cache: c, ttl: ttl}
}

// cachedTenant es la forma serializada del tenant en el cache.
type cachedTenant struct {
	ID        int64     `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

func cacheKey(id int64) string {
	return "tenant:" + strconv.FormatInt(id, 10)
}

// Lookup devuelve el tenant por ID, consultando primero el cache.
// Retorna repository.ErrNotFound si no existe.
func (d *Directory) Lookup(ctx context.Context, id int64) (*repository.Tenant, error) {
	key := cacheKey(id)

	if raw, err := d.cache.Get(ctx, key); err == nil {
		var ct cachedTenant
		if err := json.Unmarshal([]byte(raw), &ct); err == nil {
			return &repository.Tenant{
				ID:        ct.ID,
				Slug:      ct.Slug,
				Name:      ct.Name,
				Active:    ct.Active,
				CreatedAt: ct.CreatedAt,
			}, nil
		}
		// Entrada corrupta: se descarta y se vuelve a resolver.
		_ = d.cache.Delete(ctx, key)
	}

	result, err, _ := d.sf.Do(key, func() (interface{}, error) {
		tenant, err := d.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		d.store(ctx, key, tenant)
		return tenant, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*repository.Tenant), nil
}

// RequireActive devuelve el tenant solo si existe y está activo.
// Retorna ErrInactive para tenants desactivados.
func (d *Directory) RequireActive(ctx context.Context, id int64) (*repository.Tenant, error) {
	tenant, err := d.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if !tenant.Active {
		return nil, ErrInactive
	}
	return tenant, nil
}

// store guarda el tenant en cache. Best-effort: un fallo de cache no
// rompe la resolución.
func (d *Directory) store(ctx context.Context, key string, tenant *repository.Tenant) {
	raw, err := json.Marshal(cachedTenant{
		ID:        tenant.ID,
		Slug:      tenant.Slug,
		Name:      tenant.Name,
		Active:    tenant.Active,
		CreatedAt: tenant.CreatedAt,
	})
	if err != nil {
		return
	}
	if err := d.cache.Set(ctx, key, string(raw), d.ttl); err != nil {
		logger.L().Debug("tenantdir: cache set failed",
			logger.Component("tenantdir"),
			logger.TenantID(tenant.ID),
			logger.Err(err),
		)
	}
}
