package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	SetSecret("test-secret")

	token, err := GenerateAccessToken("user-123", "moderator")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "moderator", claims.Role)
	assert.Equal(t, "devspace", claims.Issuer)
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	SetSecret("test-secret")

	_, err := VerifyToken("")
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = VerifyToken("not.a.jwt")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	SetSecret("secret-one")
	token, err := GenerateAccessToken("user-123", "member")
	require.NoError(t, err)

	SetSecret("secret-two")
	_, err = VerifyToken(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokensAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		tok := GenerateRefreshToken()
		require.NotEmpty(t, tok)
		require.False(t, seen[tok])
		seen[tok] = true
	}
}
