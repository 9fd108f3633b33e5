package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mbayedev/immoka/internal/apperr"
	"github.com/mbayedev/immoka/internal/domain"
	"github.com/mbayedev/immoka/internal/dto"
	"github.com/mbayedev/immoka/internal/email"
	"github.com/mbayedev/immoka/internal/ged"
	"github.com/mbayedev/immoka/internal/repository"
	"github.com/mbayedev/immoka/internal/utils"
)

const activationTokenTTL = 24 * time.Hour

// authService implements AuthService interface
type authService struct {
	userRepo         repository.UserRepository
	sessionRepo      repository.SessionRepository
	entrepriseRepo   repository.EntrepriseRepository
	jwtManager       *utils.JWTManager
	blacklistService *TokenBlacklistService
	gedClient        *ged.Client
	mailer           email.Mailer
	logger           *zap.Logger
	bcryptCost       int
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	entrepriseRepo repository.EntrepriseRepository,
	jwtManager *utils.JWTManager,
	blacklistService *TokenBlacklistService,
	gedClient *ged.Client,
	mailer email.Mailer,
	logger *zap.Logger,
	bcryptCost int,
) AuthService {
	return &authService{
		userRepo:         userRepo,
		sessionRepo:      sessionRepo,
		entrepriseRepo:   entrepriseRepo,
		jwtManager:       jwtManager,
		blacklistService: blacklistService,
		gedClient:        gedClient,
		mailer:           mailer,
		logger:           logger,
		bcryptCost:       bcryptCost,
	}
}

// Register creates a new account in the inactive state, sends the activation
// email, and for entreprise accounts creates the agency profile with its
// optional logo.
func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest, logo *ged.File, meta ClientMeta) (*AuthResult, error) {
	if err := req.Validate(); err != nil {
		return nil, apperr.Validation("invalid registration data").WithDetails(err).WithCause(err)
	}

	emailAddr := utils.SanitizeEmail(req.Email)

	if _, err := s.userRepo.GetByEmail(ctx, emailAddr); err == nil {
		return nil, apperr.Conflict("an account with this email already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check user existence: %w", err)
	}

	passwordHash, err := utils.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := domain.Role(req.Role)
	if req.Role == "" {
		role = domain.RoleUser
	}
	if !role.Valid() || role == domain.RoleMaster {
		return nil, apperr.Validation("invalid role")
	}

	token, err := utils.NewOpaqueToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate activation token: %w", err)
	}
	expires := time.Now().Add(activationTokenTTL)

	user := &domain.User{
		Name:                     req.Name,
		Email:                    emailAddr,
		PasswordHash:             passwordHash,
		Role:                     role,
		IsActive:                 false,
		EmailVerified:            false,
		VerificationToken:        &token,
		VerificationTokenExpires: &expires,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperr.Conflict("an account with this email already exists")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if role == domain.RoleEntreprise {
		if err := s.createEntreprise(ctx, user, req, logo); err != nil {
			return nil, err
		}
	}

	email.SendAsync(s.logger, func() error {
		return s.mailer.SendVerification(user.Email, user.Name, token)
	})

	return s.issueTokens(ctx, user, meta)
}

func (s *authService) createEntreprise(ctx context.Context, user *domain.User, req *dto.RegisterRequest, logo *ged.File) error {
	entreprise := &domain.Entreprise{
		CorporateName:  req.CorporateName,
		RCCM:           req.RCCM,
		Description:    req.Description,
		Adresse:        req.Adresse,
		Phone:          req.Phone,
		OtherPhone:     req.OtherPhone,
		ResponsableKey: user.IdentityKey,
	}

	if logo != nil {
		logoFile, err := s.gedClient.UploadLogo(ctx, *logo, req.CorporateName)
		if err != nil {
			s.logger.Warn("failed to upload entreprise logo", zap.Error(err))
		} else {
			entreprise.LogoFile = logoFile
		}
	}

	if err := s.entrepriseRepo.Create(ctx, entreprise); err != nil {
		if entreprise.LogoFile != nil {
			if delErr := s.gedClient.DeleteFile(ctx, entreprise.LogoFile.Filename); delErr != nil {
				s.logger.Warn("failed to clean up orphan logo", zap.Error(delErr))
			}
		}
		if errors.Is(err, repository.ErrDuplicateCorporateName) {
			return apperr.Conflict("an entreprise with this corporate name already exists")
		}
		return fmt.Errorf("failed to create entreprise: %w", err)
	}

	return nil
}

// Login authenticates a user and records the new session.
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest, meta ClientMeta) (*AuthResult, error) {
	if err := req.Validate(); err != nil {
		return nil, apperr.Validation("invalid credentials payload").WithDetails(err).WithCause(err)
	}

	user, err := s.userRepo.GetByEmail(ctx, utils.SanitizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Authentication("invalid email or password")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, apperr.Authentication("invalid email or password")
	}

	if !user.IsActive {
		return nil, apperr.Authorization("account is not activated, check your email")
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.IdentityKey); err != nil {
		s.logger.Warn("failed to update last login", zap.Error(err))
	}

	return s.issueTokens(ctx, user, meta)
}

// RefreshToken rotates a refresh token: the presented token is verified,
// checked against the session registry, blacklisted, and replaced by a
// fresh pair.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string, meta ClientMeta) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, apperr.Authentication("refresh token is required")
	}

	claims, err := s.jwtManager.VerifyRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			return nil, apperr.Authentication("refresh token expired")
		}
		return nil, apperr.Authentication("invalid refresh token")
	}

	blacklisted, err := s.blacklistService.IsTokenBlacklisted(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	if blacklisted {
		return nil, apperr.Authentication("refresh token has been revoked")
	}

	tokenHash := utils.HashToken(refreshToken)
	session, err := s.sessionRepo.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Authentication("refresh session not found")
		}
		return nil, fmt.Errorf("failed to get refresh session: %w", err)
	}

	if session.Expired(time.Now()) {
		_ = s.sessionRepo.DeleteByTokenHash(ctx, tokenHash)
		return nil, apperr.Authentication("refresh token expired")
	}

	user, err := s.userRepo.GetByIdentityKey(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Authentication("account no longer exists")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.IsActive {
		return nil, apperr.Authorization("account is deactivated")
	}

	if user.ChangedPasswordAfter(claims.IssuedAtTime()) {
		return nil, apperr.Authentication("password changed, please log in again")
	}

	if err := s.blacklistService.AddToken(ctx, refreshToken, s.jwtManager.RefreshTokenExpiry()); err != nil {
		s.logger.Warn("failed to blacklist rotated refresh token", zap.Error(err))
	}
	if err := s.sessionRepo.DeleteByTokenHash(ctx, tokenHash); err != nil {
		s.logger.Warn("failed to delete rotated refresh session", zap.Error(err))
	}

	return s.issueTokens(ctx, user, meta)
}

// Logout revokes the presented refresh token. Unknown tokens are ignored so
// logout stays idempotent.
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	if err := s.blacklistService.AddToken(ctx, refreshToken, s.jwtManager.RefreshTokenExpiry()); err != nil {
		s.logger.Warn("failed to blacklist refresh token", zap.Error(err))
	}

	if err := s.sessionRepo.DeleteByTokenHash(ctx, utils.HashToken(refreshToken)); err != nil {
		return fmt.Errorf("failed to delete refresh session: %w", err)
	}

	return nil
}

// LogoutAll drops every session of the user, disconnecting all devices.
func (s *authService) LogoutAll(ctx context.Context, identityKey string) (int, error) {
	count, err := s.sessionRepo.DeleteAllForUser(ctx, identityKey)
	if err != nil {
		return 0, fmt.Errorf("failed to delete user sessions: %w", err)
	}
	return count, nil
}

// Sessions lists the caller's connected devices. Expired rows are pruned
// on the way, there is no scheduled job doing it.
func (s *authService) Sessions(ctx context.Context, identityKey string) ([]*domain.RefreshSession, error) {
	if _, err := s.sessionRepo.DeleteExpired(ctx); err != nil {
		s.logger.Warn("failed to prune expired sessions", zap.Error(err))
	}

	sessions, err := s.sessionRepo.ListByUserKey(ctx, identityKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// VerifyEmail activates the account matching the activation token. Token
// problems are reported in a fixed order: unknown token, then already
// activated, then expired.
func (s *authService) VerifyEmail(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, apperr.InvalidActivationToken()
	}

	user, err := s.userRepo.GetByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.InvalidActivationToken()
		}
		return nil, fmt.Errorf("failed to look up activation token: %w", err)
	}

	if user.EmailVerified {
		return nil, apperr.AlreadyActivated(user.Email)
	}

	if !user.VerificationTokenValid(time.Now()) {
		return nil, apperr.ActivationTokenExpired(user.Email)
	}

	if err := s.userRepo.Activate(ctx, user.IdentityKey); err != nil {
		return nil, fmt.Errorf("failed to activate user: %w", err)
	}

	user.IsActive = true
	user.EmailVerified = true
	user.VerificationToken = nil
	user.VerificationTokenExpires = nil

	return user, nil
}

// ResendActivation issues a fresh activation token for a not-yet-verified
// account. Unknown emails get the same answer as known ones.
func (s *authService) ResendActivation(ctx context.Context, emailAddr string) error {
	user, err := s.userRepo.GetByEmail(ctx, utils.SanitizeEmail(emailAddr))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if user.EmailVerified {
		return apperr.AlreadyActivated(user.Email)
	}

	token, err := utils.NewOpaqueToken()
	if err != nil {
		return fmt.Errorf("failed to generate activation token: %w", err)
	}

	expires := time.Now().Add(activationTokenTTL)
	if err := s.userRepo.SetVerification(ctx, user.IdentityKey, token, expires.Unix()); err != nil {
		return fmt.Errorf("failed to store activation token: %w", err)
	}

	email.SendAsync(s.logger, func() error {
		return s.mailer.SendVerification(user.Email, user.Name, token)
	})

	return nil
}

// ChangePassword verifies the current password, stores the new hash, and
// disconnects every device.
func (s *authService) ChangePassword(ctx context.Context, identityKey string, req *dto.ChangePasswordRequest) error {
	if err := req.Validate(); err != nil {
		return apperr.Validation("invalid password payload").WithDetails(err).WithCause(err)
	}

	user, err := s.userRepo.GetByIdentityKey(ctx, identityKey)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("account not found")
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if !utils.CheckPasswordHash(req.CurrentPassword, user.PasswordHash) {
		return apperr.Authentication("current password is incorrect")
	}

	passwordHash, err := utils.HashPassword(req.NewPassword, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, identityKey, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if _, err := s.sessionRepo.DeleteAllForUser(ctx, identityKey); err != nil {
		s.logger.Warn("failed to revoke sessions after password change", zap.Error(err))
	}

	return nil
}

// Authenticate resolves an access token to its user, rejecting revoked
// tokens, deactivated accounts, and tokens predating a password change.
func (s *authService) Authenticate(ctx context.Context, accessToken string) (*domain.User, error) {
	claims, err := s.jwtManager.VerifyAccessToken(accessToken)
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			return nil, apperr.Authentication("access token expired")
		}
		return nil, apperr.Authentication("invalid access token")
	}

	blacklisted, err := s.blacklistService.IsTokenBlacklisted(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	if blacklisted {
		return nil, apperr.Authentication("access token has been revoked")
	}

	user, err := s.userRepo.GetByIdentityKey(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Authentication("account no longer exists")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.IsActive {
		return nil, apperr.Authorization("account is deactivated")
	}

	if user.ChangedPasswordAfter(claims.IssuedAtTime()) {
		return nil, apperr.Authentication("password changed, please log in again")
	}

	return user, nil
}
