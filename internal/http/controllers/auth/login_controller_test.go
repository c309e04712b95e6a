package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dto "github.com/dropDatabas3/tenantgate/internal/http/dto/auth"
	tokens "github.com/dropDatabas3/tenantgate/internal/security/token"
)

func TestLoginHappyPath(t *testing.T) {
	env := newTestEnv(t)
	env.seedDefault(t)

	req := postJSON(t, "/api/auth/login", map[string]string{
		"email":    testEmail,
		"password": testPassword,
	})
	req.Header.Set("X-Tenant-ID", "1")
	req.Header.Set("User-Agent", "go-test")
	rec := httptest.NewRecorder()
	env.ctrl.Login.Login(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "no-cache", rec.Header().Get("Pragma"))
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var resp dto.TokenPairResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.InDelta(t, 900, resp.ExpiresIn, 5)
	assert.Equal(t, testEmail, resp.User.Email)
	assert.Equal(t, int64(1), resp.User.TenantID)
	assert.Equal(t, "ADMIN", resp.User.Role)

	// El access que devuelve tiene que verificar contra el mismo codec.
	claims, err := env.codec.VerifyKind(resp.AccessToken, tokens.KindAccess)
	require.NoError(t, err)
	assert.Equal(t, int64(1), claims.TenantID)
	assert.Equal(t, resp.User.ID, claims.Subject)
}

func TestLoginTenantHeaderRequired(t *testing.T) {
	env := newTestEnv(t)
	env.seedDefault(t)

	cases := []struct {
		name   string
		header string
	}{
		{"sin header", ""},
		{"no numérico", "demo"},
		{"cero", "0"},
		{"negativo", "-3"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := postJSON(t, "/api/auth/login", map[string]string{
				"email":    testEmail,
				"password": testPassword,
			})
			if tc.header != "" {
				req.Header.Set("X-Tenant-ID", tc.header)
			}
			rec := httptest.NewRecorder()
			env.ctrl.Login.Login(rec, req)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "MISSING_TENANT_HEADER", errorCode(t, rec))
		})
	}
}

func TestLoginBadCredentialsAreUniform(t *testing.T) {
	env := newTestEnv(t)
	env.seedDefault(t)
	env.seedTenant(t, 2, "otro", true)

	cases := []struct {
		name     string
		tenant   string
		email    string
		password string
	}{
		{"password incorrecto", "1", testEmail, "nope"},
		{"email desconocido", "1", "ghost@demo.com", testPassword},
		{"tenant ajeno", "2", testEmail, testPassword},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := postJSON(t, "/api/auth/login", map[string]string{
				"email":    tc.email,
				"password": tc.password,
			})
			req.Header.Set("X-Tenant-ID", tc.tenant)
			rec := httptest.NewRecorder()
			env.ctrl.Login.Login(rec, req)

			// Mismo código y mismo body para todos: nada de oráculos.
			require.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, rec))
		})
	}
}

func TestLoginRejectsMalformedRequests(t *testing.T) {
	env := newTestEnv(t)
	env.seedDefault(t)

	t.Run("método incorrecto", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/login", nil)
		req.Header.Set("X-Tenant-ID", "1")
		rec := httptest.NewRecorder()
		env.ctrl.Login.Login(rec, req)

		require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		assert.Equal(t, "POST", rec.Header().Get("Allow"))
	})

	t.Run("body no JSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("email=a&password=b"))
		req.Header.Set("X-Tenant-ID", "1")
		rec := httptest.NewRecorder()
		env.ctrl.Login.Login(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_JSON", errorCode(t, rec))
	})

	t.Run("campos vacíos", func(t *testing.T) {
		req := postJSON(t, "/api/auth/login", map[string]string{"email": "  ", "password": ""})
		req.Header.Set("X-Tenant-ID", "1")
		rec := httptest.NewRecorder()
		env.ctrl.Login.Login(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "MISSING_FIELDS", errorCode(t, rec))
	})
}
