package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/tenantgate/internal/cache"
	"github.com/dropDatabas3/tenantgate/internal/domain/repository"
	dto "github.com/dropDatabas3/tenantgate/internal/http/dto/auth"
	svc "github.com/dropDatabas3/tenantgate/internal/http/services/auth"
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
	ctrl  *Controllers
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
	svcs := svc.NewServices(svc.Deps{Store: st, Tenants: dir, Codec: codec})
	return &testEnv{store: st, codec: codec, ctrl: NewControllers(svcs)}
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

// seedDefault deja el tenant 1 activo con la cuenta admin estándar.
func (e *testEnv) seedDefault(t *testing.T) *repository.User {
	t.Helper()
	e.seedTenant(t, 1, "demo", true)
	hash, err := password.Hash(testHashParams, testPassword)
	require.NoError(t, err)
	u, err := e.store.Users().Create(context.Background(), repository.CreateUserInput{
		TenantID:      1,
		Email:         testEmail,
		PasswordHash:  hash,
		FirstName:     "Admin",
		LastName:      "Demo",
		Roles:         []string{"ADMIN"},
		Status:        repository.StatusActive,
		EmailVerified: true,
	})
	require.NoError(t, err)
	return u
}

// postJSON arma un request POST con body JSON.
func postJSON(t *testing.T, target string, body any) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// doLogin pega al endpoint con las credenciales sembradas y devuelve
// el par decodificado.
func (e *testEnv) doLogin(t *testing.T) dto.TokenPairResponse {
	t.Helper()
	req := postJSON(t, "/api/auth/login", map[string]string{
		"email":    testEmail,
		"password": testPassword,
	})
	req.Header.Set("X-Tenant-ID", "1")
	rec := httptest.NewRecorder()
	e.ctrl.Login.Login(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp dto.TokenPairResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

// errorCode extrae el campo code del body de error.
func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Code
}
