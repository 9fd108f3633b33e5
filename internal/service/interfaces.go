package service

import (
	"context"

	"github.com/mbayedev/immoka/internal/domain"
	"github.com/mbayedev/immoka/internal/dto"
	"github.com/mbayedev/immoka/internal/ged"
	"github.com/mbayedev/immoka/internal/repository"
)

// ClientMeta carries the device metadata recorded with each session.
type ClientMeta struct {
	UserAgent string
	IP        string
}

// AuthService defines methods for authentication operations
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest, logo *ged.File, meta ClientMeta) (*AuthResult, error)
	Login(ctx context.Context, req *dto.LoginRequest, meta ClientMeta) (*AuthResult, error)
	RefreshToken(ctx context.Context, refreshToken string, meta ClientMeta) (*AuthResult, error)
	Logout(ctx context.Context, refreshToken string) error
	LogoutAll(ctx context.Context, identityKey string) (int, error)
	Sessions(ctx context.Context, identityKey string) ([]*domain.RefreshSession, error)
	VerifyEmail(ctx context.Context, token string) (*domain.User, error)
	ResendActivation(ctx context.Context, email string) error
	ChangePassword(ctx context.Context, identityKey string, req *dto.ChangePasswordRequest) error
	Authenticate(ctx context.Context, accessToken string) (*domain.User, error)
}

// UserService defines profile and administration operations.
type UserService interface {
	GetProfile(ctx context.Context, identityKey string) (*domain.User, *domain.Entreprise, error)
	UpdateProfile(ctx context.Context, identityKey string, req *dto.UpdateProfileRequest) (*domain.User, error)
	UpdateLogo(ctx context.Context, identityKey string, file ged.File) (*domain.Entreprise, error)
	DeleteAccount(ctx context.Context, identityKey string) error
	ToggleEntrepriseBlock(ctx context.Context, key string) (*domain.Entreprise, error)
	ListUsers(ctx context.Context, filter repository.UserFilter, page, limit int) ([]*domain.User, dto.Pagination, error)
	GetUser(ctx context.Context, identityKey string) (*domain.User, error)
	ToggleStatus(ctx context.Context, identityKey string) (*domain.User, error)
	UpdateRole(ctx context.Context, identityKey string, role domain.Role) (*domain.User, error)
	UpdateUser(ctx context.Context, identityKey string, req *dto.AdminUpdateUserRequest) (*domain.User, error)
	DeleteUser(ctx context.Context, identityKey string) error
	Stats(ctx context.Context) (*repository.UserStats, error)
}

// AnnonceService defines listing operations.
type AnnonceService interface {
	Create(ctx context.Context, req *dto.CreateAnnonceRequest, medias []ged.File, createdBy string) (*domain.Annonce, []ged.UploadOutcome, error)
	GetByReference(ctx context.Context, reference string, viewer *domain.User) (*domain.Annonce, error)
	List(ctx context.Context, page, limit int) ([]*domain.Annonce, dto.Pagination, error)
	UpdateStatus(ctx context.Context, reference string, status domain.AnnonceStatus, actor *domain.User) error
}
