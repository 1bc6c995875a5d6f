package memberauth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	memberauth "github.com/clubware/go-memberauth"
)

func TestHashPassword(t *testing.T) {
	t.Run("hashes non empty passwords", func(t *testing.T) {
		hash, err := memberauth.HashPassword("correct horse battery staple")
		require.NoError(t, err)
		assert.NotEmpty(t, hash)
		assert.NotEqual(t, "correct horse battery staple", hash)
	})

	t.Run("rejects empty passwords", func(t *testing.T) {
		_, err := memberauth.HashPassword("")
		assert.ErrorIs(t, err, memberauth.ErrNoEmptyString)
	})
}

func TestComparePasswordAndHash(t *testing.T) {
	hash, err := memberauth.HashPassword("correct horse battery staple")
	require.NoError(t, err)

	t.Run("matching password", func(t *testing.T) {
		assert.NoError(t, memberauth.ComparePasswordAndHash("correct horse battery staple", hash))
	})

	t.Run("wrong password", func(t *testing.T) {
		err := memberauth.ComparePasswordAndHash("wrong password", hash)
		assert.ErrorIs(t, err, memberauth.ErrMismatchedHashAndPassword)
	})

	t.Run("garbage hash", func(t *testing.T) {
		err := memberauth.ComparePasswordAndHash("anything", "not-a-bcrypt-hash")
		assert.Error(t, err)
	})
}

func TestRandomPasswordHash(t *testing.T) {
	a := memberauth.RandomPasswordHash()
	b := memberauth.RandomPasswordHash()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
