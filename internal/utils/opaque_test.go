package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpaqueToken(t *testing.T) {
	token, err := NewOpaqueToken()
	require.NoError(t, err)
	assert.Len(t, token, 64, "32 random bytes hex-encoded")

	other, err := NewOpaqueToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestHashToken(t *testing.T) {
	hash := HashToken("some-refresh-token")

	assert.Len(t, hash, 64)
	assert.Equal(t, hash, HashToken("some-refresh-token"), "hashing is deterministic")
	assert.NotEqual(t, hash, HashToken("another-token"))
}
