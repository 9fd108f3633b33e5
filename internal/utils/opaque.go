package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// NewOpaqueToken returns a 64-character hex token from 32 random bytes,
// used for email activation links.
func NewOpaqueToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate opaque token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// HashToken hashes a token with sha256 for at-rest storage; the raw token
// only ever travels to the client.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
