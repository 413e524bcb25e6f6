package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	digest, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", string(digest))

	ok, err := VerifyPassword("secret1", digest)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("Secret1", digest)
	require.NoError(t, err)
	assert.False(t, ok, "mismatch is not an error")

	ok, err = VerifyPassword("", digest)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPassword_SaltedDigests(t *testing.T) {
	first, err := HashPassword("secret1")
	require.NoError(t, err)
	second, err := HashPassword("secret1")
	require.NoError(t, err)

	assert.NotEqual(t, string(first), string(second))

	ok, err := VerifyPassword("secret1", second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyPassword_MalformedDigest(t *testing.T) {
	ok, err := VerifyPassword("secret1", []byte("not-a-bcrypt-digest"))
	require.Error(t, err)
	assert.False(t, ok)
}
