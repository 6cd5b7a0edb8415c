package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("secret", "media-path")

	token, err := m.GenerateAccessToken("u-1", []string{"edit own document media"}, time.Minute)
	require.NoError(t, err)

	claims, err := m.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, []string{"edit own document media"}, claims.Permissions)
}

func TestVerifyAccessTokenRejects(t *testing.T) {
	m := NewJWTManager("secret", "media-path")

	other, err := NewJWTManager("other", "media-path").GenerateAccessToken("u-1", nil, time.Minute)
	require.NoError(t, err)
	_, err = m.VerifyAccessToken(other)
	assert.Error(t, err)

	foreign, err := NewJWTManager("secret", "someone-else").GenerateAccessToken("u-1", nil, time.Minute)
	require.NoError(t, err)
	_, err = m.VerifyAccessToken(foreign)
	assert.Error(t, err)

	// a non-positive ttl falls back to the default lifetime
	defaulted, err := m.GenerateAccessToken("u-1", nil, -time.Minute)
	require.NoError(t, err)
	_, err = m.VerifyAccessToken(defaulted)
	assert.NoError(t, err)

	_, err = m.VerifyAccessToken("not-a-token")
	assert.Error(t, err)
}

func TestExtractTokenFromHeader(t *testing.T) {
	token, err := ExtractTokenFromHeader("Bearer abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", token)

	for _, header := range []string{"", "Bearer ", "Basic abc", "bearer abc"} {
		_, err := ExtractTokenFromHeader(header)
		assert.Error(t, err, header)
	}
}

func TestAccount(t *testing.T) {
	anon := AccountFromContext(context.Background())
	assert.False(t, anon.IsAuthenticated())
	assert.False(t, anon.HasPermission("edit any document media"))

	acc := AccountFromClaims(&JWTClaims{UserID: "7", Permissions: []string{"edit any document media"}})
	ctx := WithAccount(context.Background(), acc)

	got := AccountFromContext(ctx)
	assert.True(t, got.IsAuthenticated())
	assert.True(t, got.HasPermission("edit any document media"))
	assert.False(t, got.HasPermission("edit any image media"))

	var nilAcc *Account
	assert.False(t, nilAcc.HasPermission("x"))
}
