package repository

import (
	"context"

	"github.com/mbayedev/immoka/internal/domain"
)

// UserFilter narrows admin user listings.
type UserFilter struct {
	Role     *domain.Role
	IsActive *bool
	Search   string
}

// UserStats aggregates account counts for the admin dashboard.
type UserStats struct {
	Total    int            `json:"total"`
	Active   int            `json:"active"`
	Inactive int            `json:"inactive"`
	ByRole   map[string]int `json:"byRole"`
}

// UserRepository defines methods for user persistence.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByIdentityKey(ctx context.Context, identityKey string) (*domain.User, error)
	GetByVerificationToken(ctx context.Context, token string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	UpdatePassword(ctx context.Context, identityKey, passwordHash string) error
	UpdateLastLogin(ctx context.Context, identityKey string) error
	SetVerification(ctx context.Context, identityKey, token string, expires int64) error
	Activate(ctx context.Context, identityKey string) error
	SetActive(ctx context.Context, identityKey string, active bool) error
	UpdateRole(ctx context.Context, identityKey string, role domain.Role) error
	Delete(ctx context.Context, identityKey string) error
	List(ctx context.Context, filter UserFilter, offset, limit int) ([]*domain.User, int, error)
	Stats(ctx context.Context) (*UserStats, error)
}

// SessionRepository defines methods for the refresh session registry.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.RefreshSession) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.RefreshSession, error)
	ListByUserKey(ctx context.Context, userKey string) ([]*domain.RefreshSession, error)
	DeleteByTokenHash(ctx context.Context, tokenHash string) error
	DeleteAllForUser(ctx context.Context, userKey string) (int, error)
	PruneToMostRecent(ctx context.Context, userKey string, keep int) error
	DeleteExpired(ctx context.Context) (int, error)
}

// EntrepriseRepository defines methods for agency profiles.
type EntrepriseRepository interface {
	Create(ctx context.Context, entreprise *domain.Entreprise) error
	GetByKey(ctx context.Context, key string) (*domain.Entreprise, error)
	GetByResponsableKey(ctx context.Context, responsableKey string) (*domain.Entreprise, error)
	UpdateLogo(ctx context.Context, key string, logo *domain.LogoFile) error
	SetBlocked(ctx context.Context, key string, blocked bool) error
}

// AnnonceRepository defines methods for property listings.
type AnnonceRepository interface {
	Create(ctx context.Context, annonce *domain.Annonce) error
	GetByReference(ctx context.Context, reference string) (*domain.Annonce, error)
	List(ctx context.Context, offset, limit int) ([]*domain.Annonce, int, error)
	UpdateStatus(ctx context.Context, reference string, status domain.AnnonceStatus) error
}
