package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/mbayedev/immoka/internal/domain"
	"github.com/mbayedev/immoka/pkg/database"
)

// entrepriseRepository implements EntrepriseRepository interface
type entrepriseRepository struct {
	db *database.Postgres
}

// NewEntrepriseRepository creates a new entreprise repository
func NewEntrepriseRepository(db *database.Postgres) EntrepriseRepository {
	return &entrepriseRepository{db: db}
}

// Create inserts an agency profile. The logo descriptor is stored as JSONB.
func (r *entrepriseRepository) Create(ctx context.Context, entreprise *domain.Entreprise) error {
	query := `
		INSERT INTO entreprises (id, key, corporate_name, rccm, description, adresse, phone,
			other_phone, is_blocked, responsable_key, logo_file, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	if entreprise.ID == "" {
		entreprise.ID = uuid.New().String()
	}
	if entreprise.Key == "" {
		entreprise.Key = uuid.New().String()
	}

	now := time.Now()
	if entreprise.CreatedAt.IsZero() {
		entreprise.CreatedAt = now
	}
	if entreprise.UpdatedAt.IsZero() {
		entreprise.UpdatedAt = now
	}

	logoJSON, err := marshalNullable(entreprise.LogoFile)
	if err != nil {
		return fmt.Errorf("failed to marshal logo file: %w", err)
	}

	_, err = r.db.DB.ExecContext(ctx, query,
		entreprise.ID,
		entreprise.Key,
		entreprise.CorporateName,
		entreprise.RCCM,
		entreprise.Description,
		entreprise.Adresse,
		entreprise.Phone,
		entreprise.OtherPhone,
		entreprise.IsBlocked,
		entreprise.ResponsableKey,
		logoJSON,
		entreprise.CreatedAt,
		entreprise.UpdatedAt,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" { // unique_violation
				return fmt.Errorf("entreprise %s already exists: %w", entreprise.CorporateName, ErrDuplicateCorporateName)
			}
		}
		return fmt.Errorf("failed to create entreprise: %w", err)
	}

	return nil
}

// GetByKey retrieves an agency profile by its public key.
func (r *entrepriseRepository) GetByKey(ctx context.Context, key string) (*domain.Entreprise, error) {
	return r.getByColumn(ctx, "key", key)
}

// GetByResponsableKey retrieves the agency profile owned by a user.
func (r *entrepriseRepository) GetByResponsableKey(ctx context.Context, responsableKey string) (*domain.Entreprise, error) {
	return r.getByColumn(ctx, "responsable_key", responsableKey)
}

func (r *entrepriseRepository) getByColumn(ctx context.Context, column, value string) (*domain.Entreprise, error) {
	query := fmt.Sprintf(`
		SELECT id, key, corporate_name, rccm, description, adresse, phone,
			other_phone, is_blocked, responsable_key, logo_file, created_at, updated_at
		FROM entreprises
		WHERE %s = $1
	`, column)

	entreprise := &domain.Entreprise{}
	var logoJSON []byte

	err := r.db.DB.QueryRowContext(ctx, query, value).Scan(
		&entreprise.ID,
		&entreprise.Key,
		&entreprise.CorporateName,
		&entreprise.RCCM,
		&entreprise.Description,
		&entreprise.Adresse,
		&entreprise.Phone,
		&entreprise.OtherPhone,
		&entreprise.IsBlocked,
		&entreprise.ResponsableKey,
		&logoJSON,
		&entreprise.CreatedAt,
		&entreprise.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("entreprise not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get entreprise: %w", err)
	}

	if len(logoJSON) > 0 {
		logo := &domain.LogoFile{}
		if err := json.Unmarshal(logoJSON, logo); err != nil {
			return nil, fmt.Errorf("failed to unmarshal logo file: %w", err)
		}
		entreprise.LogoFile = logo
	}

	return entreprise, nil
}

// UpdateLogo replaces the stored logo descriptor. A nil logo clears it.
func (r *entrepriseRepository) UpdateLogo(ctx context.Context, key string, logo *domain.LogoFile) error {
	query := `UPDATE entreprises SET logo_file = $2, updated_at = NOW() WHERE key = $1`

	logoJSON, err := marshalNullable(logo)
	if err != nil {
		return fmt.Errorf("failed to marshal logo file: %w", err)
	}

	result, err := r.db.DB.ExecContext(ctx, query, key, logoJSON)
	if err != nil {
		return fmt.Errorf("failed to update logo: %w", err)
	}

	return expectOneEntreprise(result, key)
}

// SetBlocked toggles the moderation block on an agency.
func (r *entrepriseRepository) SetBlocked(ctx context.Context, key string, blocked bool) error {
	query := `UPDATE entreprises SET is_blocked = $2, updated_at = NOW() WHERE key = $1`

	result, err := r.db.DB.ExecContext(ctx, query, key, blocked)
	if err != nil {
		return fmt.Errorf("failed to set blocked flag: %w", err)
	}

	return expectOneEntreprise(result, key)
}

func expectOneEntreprise(result sql.Result, key string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("entreprise with key %s not found: %w", key, ErrNotFound)
	}

	return nil
}

// marshalNullable serializes the logo to JSON, returning nil for a nil
// pointer so the column stores SQL NULL instead of the string "null".
func marshalNullable(logo *domain.LogoFile) ([]byte, error) {
	if logo == nil {
		return nil, nil
	}
	return json.Marshal(logo)
}
