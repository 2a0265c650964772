package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	t.Parallel()

	hash, err := Hash("correct horse battery staple")
	require.NoError(t, err)

	assert.NotEqual(t, "correct horse battery staple", hash)
	assert.True(t, strings.HasPrefix(hash, "$2"))
	assert.True(t, Verify("correct horse battery staple", hash))
	assert.False(t, Verify("wrong password", hash))
	assert.False(t, Verify("correct horse battery staple", "not-a-hash"))
}

func TestRandomToken(t *testing.T) {
	t.Parallel()

	token, err := RandomToken(32, Alphanumeric)
	require.NoError(t, err)
	assert.Len(t, token, 32)
	for _, r := range token {
		assert.Contains(t, Alphanumeric, string(r))
	}

	other, err := RandomToken(32, Alphanumeric)
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestScramble(t *testing.T) {
	t.Parallel()

	hash, err := Scramble()
	require.NoError(t, err)

	// The throwaway value is discarded, so nothing should verify
	assert.False(t, Verify("", hash))
	assert.False(t, Verify("password", hash))
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()

	assert.True(t, ValidatePassword("12345678"))
	assert.False(t, ValidatePassword("1234567"))
	assert.False(t, ValidatePassword(""))
}
