package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/tenantgate/internal/cache"
	"github.com/dropDatabas3/tenantgate/internal/domain/repository"
	dto "github.com/dropDatabas3/tenantgate/internal/http/dto/auth"
	"github.com/dropDatabas3/tenantgate/internal/security/password"
	tokens "github.com/dropDatabas3/tenantgate/internal/security/token"
	"github.com/dropDatabas3/tenantgate/internal/store/adapters/memory"
	"github.com/dropDatabas3/tenantgate/internal/tenantdir"
)

// Params livianos: el costo de producción de argon2 no aporta nada acá.
var testHashParams = password.Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, KeyLen: 32}

const (
	testSecret   = "0123456789abcdef0123456789abcdef"
	testEmail    = "admin@demo.com"
	testPassword = "password123"
)

type testEnv struct {
	store *memory.Store
	codec *tokens.Codec
	svcs  Services
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := memory.New()
	dir := tenantdir.New(st.Tenants(), cache.NewMemory("tenantdir", time.Minute), time.Minute)
	codec, err := tokens.New(tokens.Config{
		Issuer:     "tenantgate-test",
		Secret:     testSecret,
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 30 * 24 * time.Hour,
	})
	require.NoError(t, err)
	return &testEnv{
		store: st,
		codec: codec,
		svcs:  NewServices(Deps{Store: st, Tenants: dir, Codec: codec}),
	}
}

func (e *testEnv) seedTenant(t *testing.T, id int64, slug string, active bool) {
	t.Helper()
	err := e.store.Tenants().Create(context.Background(), &repository.Tenant{
		ID:     id,
		Slug:   slug,
		Name:   fmt.Sprintf("Tenant %s", slug),
		Active: active,
	})
	require.NoError(t, err)
}

func (e *testEnv) seedUser(t *testing.T, tenantID int64, email, plain string, status repository.UserStatus, verified bool) *repository.User {
	t.Helper()
	hash, err := password.Hash(testHashParams, plain)
	require.NoError(t, err)
	u, err := e.store.Users().Create(context.Background(), repository.CreateUserInput{
		TenantID:      tenantID,
		Email:         email,
		PasswordHash:  hash,
		FirstName:     "Admin",
		LastName:      "Demo",
		Roles:         []string{"ADMIN"},
		Status:        status,
		EmailVerified: verified,
	})
	require.NoError(t, err)
	return u
}

// seedDefault deja el tenant 1 activo con la cuenta admin estándar.
func (e *testEnv) seedDefault(t *testing.T) *repository.User {
	t.Helper()
	e.seedTenant(t, 1, "demo", true)
	return e.seedUser(t, 1, testEmail, testPassword, repository.StatusActive, true)
}

func (e *testEnv) login(t *testing.T) *dto.TokenPairResult {
	t.Helper()
	pair, err := e.svcs.Login.Login(context.Background(), dto.LoginRequest{
		Email:      testEmail,
		Password:   testPassword,
		TenantID:   1,
		DeviceInfo: "go-test",
		IPAddress:  "127.0.0.1",
	})
	require.NoError(t, err)
	require.NotNil(t, pair)
	return pair
}
