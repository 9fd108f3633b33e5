package domain

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenKind discriminates access tokens from refresh tokens so one can
// never be presented where the other is expected.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// TokenClaims are the JWT claims carried by both token kinds. Subject holds
// the user's identity key; Kind holds the type discriminator; ID (jti) is
// set on refresh tokens only.
type TokenClaims struct {
	Kind TokenKind `json:"typ"`
	jwt.RegisteredClaims
}

// IssuedAtTime returns the iat claim, zero if absent.
func (tc *TokenClaims) IssuedAtTime() time.Time {
	if tc.IssuedAt == nil {
		return time.Time{}
	}
	return tc.IssuedAt.Time
}

// TokenPair represents a freshly issued access/refresh token pair.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
