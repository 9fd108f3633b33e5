package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mbayedev/immoka/internal/domain"
)

const (
	tokenIssuer   = "immoka-api"
	tokenAudience = "immoka-client"
)

// Token verification failures, each a distinct kind so callers can map them
// to distinct responses.
var (
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenExpired   = errors.New("token is expired")
	ErrTokenWrongType = errors.New("token type mismatch")
)

// JWTManager issues and verifies access and refresh tokens. The two kinds
// are signed with distinct secrets and carry a type discriminator claim, so
// neither can be replayed in place of the other.
type JWTManager struct {
	accessSecret       []byte
	refreshSecret      []byte
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(accessSecret, refreshSecret string, accessTokenExpiry, refreshTokenExpiry time.Duration) *JWTManager {
	return &JWTManager{
		accessSecret:       []byte(accessSecret),
		refreshSecret:      []byte(refreshSecret),
		accessTokenExpiry:  accessTokenExpiry,
		refreshTokenExpiry: refreshTokenExpiry,
	}
}

// GenerateAccessToken mints a short-lived access token for the given
// identity key.
func (j *JWTManager) GenerateAccessToken(identityKey string) (string, error) {
	return j.sign(identityKey, domain.TokenKindAccess, j.accessSecret, j.accessTokenExpiry, "")
}

// GenerateRefreshToken mints a refresh token carrying a unique jti, kept
// for future revocation-by-id.
func (j *JWTManager) GenerateRefreshToken(identityKey string) (string, error) {
	return j.sign(identityKey, domain.TokenKindRefresh, j.refreshSecret, j.refreshTokenExpiry, uuid.New().String())
}

// GenerateTokenPair mints both tokens for the given identity key.
func (j *JWTManager) GenerateTokenPair(identityKey string) (*domain.TokenPair, error) {
	accessToken, err := j.GenerateAccessToken(identityKey)
	if err != nil {
		return nil, err
	}

	refreshToken, err := j.GenerateRefreshToken(identityKey)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (j *JWTManager) sign(identityKey string, kind domain.TokenKind, secret []byte, expiry time.Duration, jti string) (string, error) {
	now := time.Now()
	claims := &domain.TokenClaims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identityKey,
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			ID:        jti,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", kind, err)
	}

	return signed, nil
}

// VerifyAccessToken validates a token against the access secret and
// returns its claims.
func (j *JWTManager) VerifyAccessToken(tokenString string) (*domain.TokenClaims, error) {
	return j.verify(tokenString, domain.TokenKindAccess, j.accessSecret)
}

// VerifyRefreshToken validates a token against the refresh secret and
// returns its claims.
func (j *JWTManager) VerifyRefreshToken(tokenString string) (*domain.TokenClaims, error) {
	return j.verify(tokenString, domain.TokenKindRefresh, j.refreshSecret)
}

func (j *JWTManager) verify(tokenString string, kind domain.TokenKind, secret []byte) (*domain.TokenClaims, error) {
	claims := &domain.TokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithAudience(tokenAudience))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.Kind != kind {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrTokenWrongType, kind, claims.Kind)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}

	return claims, nil
}

// DecodeExpiry extracts the exp claim of a signed token without verifying
// it, used to persist the stored session expiry.
func (j *JWTManager) DecodeExpiry(tokenString string) (time.Time, error) {
	claims := &domain.TokenClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return time.Time{}, fmt.Errorf("failed to decode token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("%w: missing exp claim", ErrTokenInvalid)
	}
	return claims.ExpiresAt.Time, nil
}

// AccessTokenExpiry returns the configured access token lifetime.
func (j *JWTManager) AccessTokenExpiry() time.Duration {
	return j.accessTokenExpiry
}

// RefreshTokenExpiry returns the configured refresh token lifetime.
func (j *JWTManager) RefreshTokenExpiry() time.Duration {
	return j.refreshTokenExpiry
}
