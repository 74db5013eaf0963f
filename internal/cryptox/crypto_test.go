package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	h, err := HashPassword("correct horse")
	require.NoError(t, err)
	require.Contains(t, h, "$")

	ok, err := VerifyPassword("correct horse", h)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong horse", h)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPassword_SaltVaries(t *testing.T) {
	h1, err := HashPassword("pw")
	require.NoError(t, err)
	h2, err := HashPassword("pw")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestVerifyPassword_Malformed(t *testing.T) {
	tests := []string{"", "nodollar", "zz$aa", "aabb$zz"}
	for _, stored := range tests {
		_, err := VerifyPassword("pw", stored)
		assert.ErrorIs(t, err, ErrMalformedHash, "stored=%q", stored)
	}
}

func TestRandomToken(t *testing.T) {
	tok, err := RandomToken(32)
	require.NoError(t, err)
	assert.Len(t, tok, 64)
	assert.Equal(t, strings.ToLower(tok), tok)

	tok2, err := RandomToken(32)
	require.NoError(t, err)
	assert.NotEqual(t, tok, tok2)
}
