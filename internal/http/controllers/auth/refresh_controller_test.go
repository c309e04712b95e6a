package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dto "github.com/dropDatabas3/tenantgate/internal/http/dto/auth"
	tokens "github.com/dropDatabas3/tenantgate/internal/security/token"
)

func TestRefreshHappyPath(t *testing.T) {
	env := newTestEnv(t)
	env.seedDefault(t)
	pair := env.doLogin(t)

	req := postJSON(t, "/api/auth/refresh", map[string]string{"refreshToken": pair.RefreshToken})
	rec := httptest.NewRecorder()
	env.ctrl.Refresh.Refresh(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var resp dto.TokenPairResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEqual(t, pair.AccessToken, resp.AccessToken)
	assert.NotEqual(t, pair.RefreshToken, resp.RefreshToken)
	assert.InDelta(t, 900, resp.ExpiresIn, 5)

	// Identidad preservada a través de la rotación.
	claims, err := env.codec.VerifyKind(resp.AccessToken, tokens.KindAccess)
	require.NoError(t, err)
	assert.Equal(t, int64(1), claims.TenantID)
	assert.Equal(t, pair.User.ID, claims.Subject)
}

func TestRefreshReplayReturns401(t *testing.T) {
	env := newTestEnv(t)
	env.seedDefault(t)
	pair := env.doLogin(t)

	rec := httptest.NewRecorder()
	env.ctrl.Refresh.Refresh(rec, postJSON(t, "/api/auth/refresh", map[string]string{"refreshToken": pair.RefreshToken}))
	require.Equal(t, http.StatusOK, rec.Code)

	// El token ya rotado no sirve de nuevo.
	rec = httptest.NewRecorder()
	env.ctrl.Refresh.Refresh(rec, postJSON(t, "/api/auth/refresh", map[string]string{"refreshToken": pair.RefreshToken}))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "TOKEN_REVOKED", errorCode(t, rec))
}

func TestRefreshRejectsMalformedRequests(t *testing.T) {
	env := newTestEnv(t)
	env.seedDefault(t)
	pair := env.doLogin(t)

	t.Run("método incorrecto", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/refresh", nil)
		rec := httptest.NewRecorder()
		env.ctrl.Refresh.Refresh(rec, req)

		require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		assert.Equal(t, "POST", rec.Header().Get("Allow"))
	})

	t.Run("token vacío", func(t *testing.T) {
		rec := httptest.NewRecorder()
		env.ctrl.Refresh.Refresh(rec, postJSON(t, "/api/auth/refresh", map[string]string{"refreshToken": "   "}))

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "MISSING_FIELDS", errorCode(t, rec))
	})

	t.Run("token basura", func(t *testing.T) {
		rec := httptest.NewRecorder()
		env.ctrl.Refresh.Refresh(rec, postJSON(t, "/api/auth/refresh", map[string]string{"refreshToken": "not-a-jwt"}))

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "TOKEN_INVALID", errorCode(t, rec))
	})

	t.Run("access donde va refresh", func(t *testing.T) {
		rec := httptest.NewRecorder()
		env.ctrl.Refresh.Refresh(rec, postJSON(t, "/api/auth/refresh", map[string]string{"refreshToken": pair.AccessToken}))

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "TOKEN_INVALID", errorCode(t, rec))
	})
}
