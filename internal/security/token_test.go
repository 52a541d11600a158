package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken("secret", "u1", "admin", time.Minute)
	require.NoError(t, err)

	claims, err := ParseAccessToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "u1", claims.Subject)
}

func TestParseAccessToken_Rejections(t *testing.T) {
	token, err := GenerateAccessToken("secret", "u1", "customer", time.Minute)
	require.NoError(t, err)

	_, err = ParseAccessToken(token, "other-secret")
	assert.Error(t, err)

	expired, err := GenerateAccessToken("secret", "u1", "customer", -time.Minute)
	require.NoError(t, err)
	_, err = ParseAccessToken(expired, "secret")
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	_, err = ParseAccessToken("not.a.jwt", "secret")
	assert.Error(t, err)
}

func TestRefreshTokenHashing(t *testing.T) {
	token, hash, err := GenerateRefreshToken(64)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, HashRefreshToken(token), hash)

	other, _, err := GenerateRefreshToken(64)
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
	assert.NotEqual(t, HashRefreshToken(other), hash)
}
