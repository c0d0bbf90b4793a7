package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken(testSecret, 42, "dj-ada", "DJ", 15)
	require.NoError(t, err)
	require.NotEmpty(t, tok.Token)

	userID, username, role, err := ParseAccessToken(testSecret, tok.Token)
	require.NoError(t, err)
	require.Equal(t, uint64(42), userID)
	require.Equal(t, "dj-ada", username)
	require.Equal(t, "DJ", role)
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
	tok, err := NewAccessToken(testSecret, 42, "dj-ada", "DJ", 15)
	require.NoError(t, err)

	_, _, _, err = ParseAccessToken("other-secret", tok.Token)
	require.Error(t, err)
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	tok, err := NewAccessToken(testSecret, 42, "dj-ada", "DJ", -1)
	require.NoError(t, err)

	_, _, _, err = ParseAccessToken(testSecret, tok.Token)
	require.Error(t, err)
}

func TestParseAccessTokenRejectsGarbage(t *testing.T) {
	_, _, _, err := ParseAccessToken(testSecret, "not-a-token")
	require.Error(t, err)
}

func TestRefreshTokenRawIsUniqueAndHashable(t *testing.T) {
	a, err := NewRefreshToken(7)
	require.NoError(t, err)
	b, err := NewRefreshToken(7)
	require.NoError(t, err)

	require.NotEqual(t, a.Raw, b.Raw)
	require.True(t, a.Exp.After(b.Exp.AddDate(0, 0, -8)))

	// The stored form is a stable hash of the raw value.
	require.Equal(t, HashRefreshRaw(a.Raw), HashRefreshRaw(a.Raw))
	require.NotEqual(t, HashRefreshRaw(a.Raw), HashRefreshRaw(b.Raw))
}
