package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mbayedev/immoka/internal/domain"
	"github.com/mbayedev/immoka/internal/utils"
)

// AuthResult contains the issued token pair and the authenticated user.
type AuthResult struct {
	User             *domain.User
	AccessToken      string
	RefreshToken     string
	AccessExpiresIn  int // seconds
	RefreshExpiresIn int // seconds
}

// issueTokens generates an access/refresh pair, records the refresh session
// with its device metadata, and evicts the oldest sessions beyond the
// per-user bound.
func (s *authService) issueTokens(ctx context.Context, user *domain.User, meta ClientMeta) (*AuthResult, error) {
	pair, err := s.jwtManager.GenerateTokenPair(user.IdentityKey)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token pair: %w", err)
	}

	expiresAt, err := s.jwtManager.DecodeExpiry(pair.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decode refresh token expiry: %w", err)
	}

	session := &domain.RefreshSession{
		UserKey:   user.IdentityKey,
		TokenHash: utils.HashToken(pair.RefreshToken),
		ExpiresAt: expiresAt,
	}
	if meta.UserAgent != "" {
		device := utils.ParseUserAgent(meta.UserAgent)
		session.UserAgent = &device
	}
	if meta.IP != "" {
		ip := meta.IP
		session.IP = &ip
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to record refresh session: %w", err)
	}

	if err := s.sessionRepo.PruneToMostRecent(ctx, user.IdentityKey, domain.MaxSessionsPerUser); err != nil {
		s.logger.Warn("failed to prune refresh sessions", zap.Error(err))
	}

	return &AuthResult{
		User:             user,
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		AccessExpiresIn:  int(s.jwtManager.AccessTokenExpiry().Seconds()),
		RefreshExpiresIn: int(s.jwtManager.RefreshTokenExpiry().Seconds()),
	}, nil
}
