// internal/auth/token_test.go
package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing-api/internal/domain"
	"billing-api/internal/util"
)

func testUser(isAdmin bool) *domain.User {
	return &domain.User{
		ID:       7,
		Username: "alice",
		IsActive: true,
		IsAdmin:  isAdmin,
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	tokens := NewTokenManager("secret", "billing-api", 15*time.Minute, 24*time.Hour)

	t.Run("UserRole", func(t *testing.T) {
		tokenStr, err := tokens.GenerateAccessToken(testUser(false))
		require.NoError(t, err)

		principal, err := tokens.ParseAccessToken(tokenStr)
		require.NoError(t, err)
		assert.Equal(t, "alice", principal.Identity)
		assert.Equal(t, domain.RoleUser, principal.Role)
		assert.False(t, principal.IsAdmin())
	})

	t.Run("AdminRole", func(t *testing.T) {
		tokenStr, err := tokens.GenerateAccessToken(testUser(true))
		require.NoError(t, err)

		principal, err := tokens.ParseAccessToken(tokenStr)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleAdmin, principal.Role)
		assert.True(t, principal.IsAdmin())
	})
}

func TestParseAccessTokenRejections(t *testing.T) {
	tokens := NewTokenManager("secret", "billing-api", 15*time.Minute, 24*time.Hour)

	t.Run("Garbage", func(t *testing.T) {
		_, err := tokens.ParseAccessToken("not.a.jwt")
		assert.ErrorIs(t, err, util.ErrUnauthorized)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		other := NewTokenManager("other-secret", "billing-api", 15*time.Minute, 24*time.Hour)
		tokenStr, err := other.GenerateAccessToken(testUser(false))
		require.NoError(t, err)

		_, err = tokens.ParseAccessToken(tokenStr)
		assert.ErrorIs(t, err, util.ErrUnauthorized)
	})

	t.Run("WrongIssuer", func(t *testing.T) {
		other := NewTokenManager("secret", "someone-else", 15*time.Minute, 24*time.Hour)
		tokenStr, err := other.GenerateAccessToken(testUser(false))
		require.NoError(t, err)

		_, err = tokens.ParseAccessToken(tokenStr)
		assert.ErrorIs(t, err, util.ErrUnauthorized)
	})

	t.Run("Expired", func(t *testing.T) {
		expired := NewTokenManager("secret", "billing-api", -time.Minute, 24*time.Hour)
		tokenStr, err := expired.GenerateAccessToken(testUser(false))
		require.NoError(t, err)

		_, err = tokens.ParseAccessToken(tokenStr)
		assert.ErrorIs(t, err, util.ErrUnauthorized)
	})

	t.Run("RefreshTokenIsNotAnAccessToken", func(t *testing.T) {
		tokenStr, err := tokens.GenerateRefreshToken(testUser(false))
		require.NoError(t, err)

		_, err = tokens.ParseAccessToken(tokenStr)
		assert.ErrorIs(t, err, util.ErrUnauthorized)
	})
}

func TestActivationTokenRoundTrip(t *testing.T) {
	tokens := NewTokenManager("secret", "billing-api", 15*time.Minute, 24*time.Hour)

	tokenStr, err := tokens.GenerateActivationToken(42)
	require.NoError(t, err)

	userID, err := tokens.ParseActivationToken(tokenStr)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)

	// An activation token grants no API access.
	_, err = tokens.ParseAccessToken(tokenStr)
	assert.ErrorIs(t, err, util.ErrUnauthorized)
}
