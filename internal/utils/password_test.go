package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("Password123", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "Password123", hash)

	assert.True(t, CheckPasswordHash("Password123", hash))
	assert.False(t, CheckPasswordHash("Password124", hash))
	assert.False(t, CheckPasswordHash("Password123", "not-a-bcrypt-hash"))
}

func TestSanitizeEmail(t *testing.T) {
	assert.Equal(t, "user@example.com", SanitizeEmail("  User@Example.COM "))
}
