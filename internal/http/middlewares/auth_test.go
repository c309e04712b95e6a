package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tokens "github.com/dropDatabas3/tenantgate/internal/security/token"
	"github.com/dropDatabas3/tenantgate/internal/tenantctx"
)

func testCodec(t *testing.T) *tokens.Codec {
	t.Helper()
	c, err := tokens.New(tokens.Config{
		Issuer:     "tenantgate-test",
		Secret:     "0123456789abcdef0123456789abcdef",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	})
	require.NoError(t, err)
	return c
}

func TestAuthenticationPopulatesPrincipal(t *testing.T) {
	codec := testCodec(t)
	raw, _, err := codec.IssueAccess("user-1", 7, []string{"ADMIN", "EDITOR"})
	require.NoError(t, err)

	var seen *tenantctx.Principal
	var seenTenant int64
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = tenantctx.PrincipalFrom(r.Context())
		seenTenant, _ = tenantctx.TenantID(r.Context())
		w.WriteHeader(http.StatusOK)
	}), WithAuthentication(codec))

	req := httptest.NewRequest(http.MethodGet, "/protegida", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "user-1", seen.UserID)
	assert.Equal(t, int64(7), seen.TenantID)
	assert.Equal(t, int64(7), seenTenant)
	assert.True(t, seen.HasRole("ADMIN"))
	assert.True(t, seen.HasRole("EDITOR"))
	assert.False(t, seen.HasRole("OWNER"))
}

func TestAuthenticationFailsOpenWithoutIdentity(t *testing.T) {
	codec := testCodec(t)

	run := func(t *testing.T, authorization string) {
		t.Helper()
		called := false
		h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			_, hasPrincipal := tenantctx.PrincipalFrom(r.Context())
			_, hasTenant := tenantctx.TenantID(r.Context())
			assert.False(t, hasPrincipal, "el request sin token válido no lleva principal")
			assert.False(t, hasTenant, "el request sin token válido no lleva tenant")
			w.WriteHeader(http.StatusOK)
		}), WithAuthentication(codec))

		req := httptest.NewRequest(http.MethodGet, "/publica", nil)
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.True(t, called, "el enforcer no rechaza, los guards sí")
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	t.Run("sin header", func(t *testing.T) { run(t, "") })
	t.Run("token basura", func(t *testing.T) { run(t, "Bearer not-a-jwt") })
	t.Run("esquema ajeno", func(t *testing.T) { run(t, "Basic dXNlcjpwYXNz") })

	t.Run("refresh donde va access", func(t *testing.T) {
		raw, _, err := codec.IssueRefresh("user-1", 7)
		require.NoError(t, err)
		run(t, "Bearer "+raw)
	})
}

func TestAuthenticationClearsInheritedIdentity(t *testing.T) {
	codec := testCodec(t)

	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasPrincipal := tenantctx.PrincipalFrom(r.Context())
		_, hasTenant := tenantctx.TenantID(r.Context())
		assert.False(t, hasPrincipal)
		assert.False(t, hasTenant)
		w.WriteHeader(http.StatusOK)
	}), WithAuthentication(codec))

	// Un ctx ancestro ya traía identidad (reuso de pipeline): el token
	// inválido tiene que blanquearla, no dejar pasar la vieja.
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	ctx := tenantctx.WithTenant(req.Context(), 99)
	ctx = tenantctx.WithPrincipal(ctx, &tenantctx.Principal{UserID: "stale", TenantID: 99})
	req = req.WithContext(ctx)
	req.Header.Set("Authorization", "Bearer expired-garbage")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
