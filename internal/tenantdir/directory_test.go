package tenantdir

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/tenantgate/internal/cache"
	"github.com/dropDatabas3/tenantgate/internal/domain/repository"
)

type fakeTenantRepo struct {
	mu      sync.Mutex
	tenants map[int64]*repository.Tenant
	calls   atomic.Int64
	delay   time.Duration
}

func (f *fakeTenantRepo) GetByID(ctx context.Context, id int64) (*repository.Tenant, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tenants[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTenantRepo) Create(ctx context.Context, tenant *repository.Tenant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tenants[tenant.ID]; ok {
		return repository.ErrConflict
	}
	cp := *tenant
	f.tenants[tenant.ID] = &cp
	return nil
}

func newFakeRepo(tenants ...*repository.Tenant) *fakeTenantRepo {
	f := &fakeTenantRepo{tenants: make(map[int64]*repository.Tenant)}
	for _, t := range tenants {
		f.tenants[t.ID] = t
	}
	return f
}

func TestLookupCachesResult(t *testing.T) {
	repo := newFakeRepo(&repository.Tenant{ID: 1, Slug: "demo", Name: "Demo", Active: true})
	c := cache.NewMemory("t", time.Minute)
	defer c.Close()

	dir := New(repo, c, time.Minute)
	ctx := context.Background()

	first, err := dir.Lookup(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "demo", first.Slug)

	second, err := dir.Lookup(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	require.Equal(t, int64(1), repo.calls.Load(), "second lookup should hit the cache")
}

func TestLookupMissing(t *testing.T) {
	repo := newFakeRepo()
	c := cache.NewMemory("t", time.Minute)
	defer c.Close()

	dir := New(repo, c, time.Minute)

	_, err := dir.Lookup(context.Background(), 42)
	require.True(t, repository.IsNotFound(err))
}

func TestLookupCoalescesConcurrent(t *testing.T) {
	repo := newFakeRepo(&repository.Tenant{ID: 1, Slug: "demo", Name: "Demo", Active: true})
	repo.delay = 50 * time.Millisecond
	c := cache.NewMemory("t", time.Minute)
	defer c.Close()

	dir := New(repo, c, time.Minute)
	ctx := context.Background()

	const n = 10
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = dir.Lookup(ctx, 1)
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
	}
	require.Equal(t, int64(1), repo.calls.Load(), "concurrent lookups should coalesce into one repo call")
}

func TestRequireActive(t *testing.T) {
	repo := newFakeRepo(
		&repository.Tenant{ID: 1, Slug: "demo", Name: "Demo", Active: true},
		&repository.Tenant{ID: 2, Slug: "off", Name: "Off", Active: false},
	)
	c := cache.NewMemory("t", time.Minute)
	defer c.Close()

	dir := New(repo, c, time.Minute)
	ctx := context.Background()

	tenant, err := dir.RequireActive(ctx, 1)
	require.NoError(t, err)
	require.True(t, tenant.Active)

	_, err = dir.RequireActive(ctx, 2)
	require.ErrorIs(t, err, ErrInactive)

	_, err = dir.RequireActive(ctx, 99)
	require.True(t, repository.IsNotFound(err))
}

func TestLookupRecoversFromCorruptEntry(t *testing.T) {
	repo := newFakeRepo(&repository.Tenant{ID: 1, Slug: "demo", Name: "Demo", Active: true})
	c := cache.NewMemory("t", time.Minute)
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "tenant:1", "{not json", time.Minute))

	dir := New(repo, c, time.Minute)
	tenant, err := dir.Lookup(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "demo", tenant.Slug)
}
