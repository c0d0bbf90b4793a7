package utils

import (
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotEqual(t, "s3cret", hash)

	require.True(t, VerifyPassword(hash, "s3cret"))
	require.False(t, VerifyPassword(hash, "wrong"))
}

func TestVerifyPasswordEmptyHashFails(t *testing.T) {
	// Audience accounts store no hash; login must never succeed for them.
	require.False(t, VerifyPassword("", "anything"))
	require.False(t, VerifyPassword("", ""))
}
