package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mbayedev/immoka/internal/apperr"
	"github.com/mbayedev/immoka/internal/domain"
	"github.com/mbayedev/immoka/internal/dto"
	"github.com/mbayedev/immoka/internal/ged"
	"github.com/mbayedev/immoka/internal/repository"
	"github.com/mbayedev/immoka/internal/utils"
)

// userService implements UserService interface
type userService struct {
	userRepo       repository.UserRepository
	sessionRepo    repository.SessionRepository
	entrepriseRepo repository.EntrepriseRepository
	gedClient      *ged.Client
	logger         *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	entrepriseRepo repository.EntrepriseRepository,
	gedClient *ged.Client,
	logger *zap.Logger,
) UserService {
	return &userService{
		userRepo:       userRepo,
		sessionRepo:    sessionRepo,
		entrepriseRepo: entrepriseRepo,
		gedClient:      gedClient,
		logger:         logger,
	}
}

// GetProfile returns the user and, for entreprise accounts, its agency
// profile.
func (s *userService) GetProfile(ctx context.Context, identityKey string) (*domain.User, *domain.Entreprise, error) {
	user, err := s.getUser(ctx, identityKey)
	if err != nil {
		return nil, nil, err
	}

	var entreprise *domain.Entreprise
	if user.Role == domain.RoleEntreprise {
		entreprise, err = s.entrepriseRepo.GetByResponsableKey(ctx, identityKey)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, nil, fmt.Errorf("failed to get entreprise: %w", err)
		}
	}

	return user, entreprise, nil
}

// UpdateProfile updates the caller's own name and email.
func (s *userService) UpdateProfile(ctx context.Context, identityKey string, req *dto.UpdateProfileRequest) (*domain.User, error) {
	if err := req.Validate(); err != nil {
		return nil, apperr.Validation("invalid profile data").WithDetails(err).WithCause(err)
	}

	user, err := s.getUser(ctx, identityKey)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Email != "" {
		user.Email = utils.SanitizeEmail(req.Email)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperr.Conflict("an account with this email already exists")
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// DeleteAccount removes the caller's account and drops its sessions.
func (s *userService) DeleteAccount(ctx context.Context, identityKey string) error {
	if _, err := s.sessionRepo.DeleteAllForUser(ctx, identityKey); err != nil {
		s.logger.Warn("failed to revoke sessions before account deletion", zap.Error(err))
	}

	if err := s.userRepo.Delete(ctx, identityKey); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("account not found")
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return nil
}

// UpdateLogo replaces the agency logo of an entreprise account. The new
// file goes to the GED first, the previous one is removed once the profile
// points at its replacement.
func (s *userService) UpdateLogo(ctx context.Context, identityKey string, file ged.File) (*domain.Entreprise, error) {
	user, err := s.getUser(ctx, identityKey)
	if err != nil {
		return nil, err
	}
	if user.Role != domain.RoleEntreprise {
		return nil, apperr.Authorization("only entreprise accounts have a logo")
	}

	entreprise, err := s.entrepriseRepo.GetByResponsableKey(ctx, identityKey)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("entreprise profile not found")
		}
		return nil, fmt.Errorf("failed to get entreprise: %w", err)
	}

	logo, err := s.gedClient.UploadLogo(ctx, file, entreprise.CorporateName)
	if err != nil {
		return nil, apperr.Validation("invalid logo file").WithCause(err)
	}

	previous := entreprise.LogoFile
	if err := s.entrepriseRepo.UpdateLogo(ctx, entreprise.Key, logo); err != nil {
		if delErr := s.gedClient.DeleteFile(ctx, logo.Filename); delErr != nil {
			s.logger.Warn("failed to clean up orphan logo", zap.Error(delErr))
		}
		return nil, fmt.Errorf("failed to update logo: %w", err)
	}
	entreprise.LogoFile = logo

	if previous != nil && previous.Filename != "" {
		if err := s.gedClient.DeleteFile(ctx, previous.Filename); err != nil {
			s.logger.Warn("failed to delete previous logo",
				zap.String("file", previous.Filename), zap.Error(err))
		}
	}

	return entreprise, nil
}

// ToggleEntrepriseBlock flips the blocked flag of an agency.
func (s *userService) ToggleEntrepriseBlock(ctx context.Context, key string) (*domain.Entreprise, error) {
	entreprise, err := s.entrepriseRepo.GetByKey(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("entreprise not found")
		}
		return nil, fmt.Errorf("failed to get entreprise: %w", err)
	}

	entreprise.IsBlocked = !entreprise.IsBlocked
	if err := s.entrepriseRepo.SetBlocked(ctx, key, entreprise.IsBlocked); err != nil {
		return nil, fmt.Errorf("failed to toggle entreprise block: %w", err)
	}

	return entreprise, nil
}

// ListUsers returns an admin page of accounts.
func (s *userService) ListUsers(ctx context.Context, filter repository.UserFilter, page, limit int) ([]*domain.User, dto.Pagination, error) {
	page, limit = normalizePage(page, limit)

	users, total, err := s.userRepo.List(ctx, filter, (page-1)*limit, limit)
	if err != nil {
		return nil, dto.Pagination{}, fmt.Errorf("failed to list users: %w", err)
	}

	return users, dto.NewPagination(total, page, limit), nil
}

// GetUser returns a single account by identity key.
func (s *userService) GetUser(ctx context.Context, identityKey string) (*domain.User, error) {
	return s.getUser(ctx, identityKey)
}

// ToggleStatus flips the active flag of an account. Deactivation also
// disconnects every device.
func (s *userService) ToggleStatus(ctx context.Context, identityKey string) (*domain.User, error) {
	user, err := s.getUser(ctx, identityKey)
	if err != nil {
		return nil, err
	}

	user.IsActive = !user.IsActive
	if err := s.userRepo.SetActive(ctx, identityKey, user.IsActive); err != nil {
		return nil, fmt.Errorf("failed to toggle status: %w", err)
	}

	if !user.IsActive {
		if _, err := s.sessionRepo.DeleteAllForUser(ctx, identityKey); err != nil {
			s.logger.Warn("failed to revoke sessions of deactivated account", zap.Error(err))
		}
	}

	return user, nil
}

// UpdateRole changes the role of an account.
func (s *userService) UpdateRole(ctx context.Context, identityKey string, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, apperr.Validation("invalid role")
	}

	user, err := s.getUser(ctx, identityKey)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateRole(ctx, identityKey, role); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	user.Role = role
	return user, nil
}

// UpdateUser edits an account from the administration panel. Deactivating
// an account also disconnects every device.
func (s *userService) UpdateUser(ctx context.Context, identityKey string, req *dto.AdminUpdateUserRequest) (*domain.User, error) {
	if err := req.Validate(); err != nil {
		return nil, apperr.Validation("invalid user data").WithDetails(err).WithCause(err)
	}

	user, err := s.getUser(ctx, identityKey)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Email != "" {
		user.Email = utils.SanitizeEmail(req.Email)
	}
	if req.Role != "" {
		user.Role = domain.Role(req.Role)
	}
	wasActive := user.IsActive
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperr.Conflict("an account with this email already exists")
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	if wasActive && !user.IsActive {
		if _, err := s.sessionRepo.DeleteAllForUser(ctx, identityKey); err != nil {
			s.logger.Warn("failed to revoke sessions of deactivated account", zap.Error(err))
		}
	}

	return user, nil
}

// DeleteUser removes an account (admin).
func (s *userService) DeleteUser(ctx context.Context, identityKey string) error {
	return s.DeleteAccount(ctx, identityKey)
}

// Stats aggregates account counts for the admin dashboard.
func (s *userService) Stats(ctx context.Context) (*repository.UserStats, error) {
	stats, err := s.userRepo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get user stats: %w", err)
	}
	return stats, nil
}

func (s *userService) getUser(ctx context.Context, identityKey string) (*domain.User, error) {
	user, err := s.userRepo.GetByIdentityKey(ctx, identityKey)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("account not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
