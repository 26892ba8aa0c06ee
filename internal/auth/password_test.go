package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordVerifier(t *testing.T) {
	t.Parallel()

	v := NewPasswordVerifier(bcrypt.MinCost)

	t.Run("matches the hashed password only", func(t *testing.T) {
		hash, err := v.Hash("secret123")
		require.NoError(t, err)
		require.NotEqual(t, "secret123", hash)

		require.True(t, v.Matches("secret123", hash))
		require.False(t, v.Matches("wrong", hash))
	})

	t.Run("salts every hash", func(t *testing.T) {
		a, err := v.Hash("same")
		require.NoError(t, err)
		b, err := v.Hash("same")
		require.NoError(t, err)
		require.NotEqual(t, a, b)
	})

	t.Run("malformed hashes never match", func(t *testing.T) {
		require.False(t, v.Matches("anything", ""))
		require.False(t, v.Matches("anything", "not-a-bcrypt-hash"))
		require.False(t, v.Matches("anything", "$2a$04$short"))
	})

	t.Run("blank ownership secrets fall back to admin", func(t *testing.T) {
		hash, err := v.Hash(OwnershipSecret("   "))
		require.NoError(t, err)
		require.True(t, v.Matches("admin", hash))

		hash, err = v.Hash(OwnershipSecret(""))
		require.NoError(t, err)
		require.True(t, v.Matches(DefaultOwnershipSecret, hash))

		require.Equal(t, "secret123", OwnershipSecret("secret123"))
	})
}

func TestNewPasswordVerifierFallsBackToDefaultCost(t *testing.T) {
	t.Parallel()

	require.Equal(t, bcrypt.DefaultCost, NewPasswordVerifier(0).cost)
	require.Equal(t, bcrypt.DefaultCost, NewPasswordVerifier(99).cost)
	require.Equal(t, bcrypt.MinCost, NewPasswordVerifier(bcrypt.MinCost).cost)
}
