package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/tenantgate/internal/domain/repository"
	tokens "github.com/dropDatabas3/tenantgate/internal/security/token"
)

func TestValidateReturnsCurrentUser(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedDefault(t)
	pair := env.login(t)

	res, err := env.svcs.Validate.Validate(context.Background(), pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, tokens.KindAccess, res.TokenType)
	assert.Equal(t, user.ID, res.User.ID)
	assert.Greater(t, res.Remaining, time.Duration(0))
	assert.LessOrEqual(t, res.Remaining, 15*time.Minute)

	out := res.Response()
	assert.True(t, out.Valid)
	assert.Equal(t, testEmail, out.User.Email)
	assert.Greater(t, out.ExpiresIn, int64(0))
}

func TestValidateRejectsWrongKindAndGarbage(t *testing.T) {
	env := newTestEnv(t)
	env.seedDefault(t)
	pair := env.login(t)
	ctx := context.Background()

	_, err := env.svcs.Validate.Validate(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, tokens.ErrUnsupportedTokenType)

	_, err = env.svcs.Validate.Validate(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, tokens.ErrTokenMalformed)

	_, err = env.svcs.Validate.Validate(ctx, "")
	assert.ErrorIs(t, err, tokens.ErrTokenMalformed)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedDefault(t)

	// Codec paralelo con el mismo secreto y un TTL que muere enseguida.
	short, err := tokens.New(tokens.Config{
		Issuer:     "tenantgate-test",
		Secret:     testSecret,
		AccessTTL:  time.Nanosecond,
		RefreshTTL: time.Hour,
	})
	require.NoError(t, err)
	raw, _, err := short.IssueAccess(user.ID, 1, user.Roles)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, err = env.svcs.Validate.Validate(context.Background(), raw)
	assert.ErrorIs(t, err, tokens.ErrTokenExpired)
}

func TestValidateRejectsDeletedSubject(t *testing.T) {
	env := newTestEnv(t)
	env.seedDefault(t)

	raw, _, err := env.codec.IssueAccess("deadbeef-0000-0000-0000-000000000000", 1, []string{"ADMIN"})
	require.NoError(t, err)

	_, err = env.svcs.Validate.Validate(context.Background(), raw)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateCrossTenantSubjectIsViolation(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedDefault(t)
	env.seedTenant(t, 2, "acme", true)

	// Token que declara tenant 2 para un usuario del tenant 1.
	raw, _, err := env.codec.IssueAccess(user.ID, 2, user.Roles)
	require.NoError(t, err)

	_, err = env.svcs.Validate.Validate(context.Background(), raw)
	assert.ErrorIs(t, err, repository.ErrTenantViolation)
}
