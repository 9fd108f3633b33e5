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

// annonceRepository implements AnnonceRepository interface
type annonceRepository struct {
	db *database.Postgres
}

// NewAnnonceRepository creates a new annonce repository
func NewAnnonceRepository(db *database.Postgres) AnnonceRepository {
	return &annonceRepository{db: db}
}

// Create inserts a listing. The nested sections are stored as JSONB columns.
func (r *annonceRepository) Create(ctx context.Context, annonce *domain.Annonce) error {
	query := `
		INSERT INTO annonces (id, key, reference, statut, titre, description_courte, usage,
			contact, localisation, transaction, composition, batiment,
			equipements_interieurs, equipements_exterieurs, visibilite, medias,
			created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`

	if annonce.ID == "" {
		annonce.ID = uuid.New().String()
	}
	if annonce.Key == "" {
		annonce.Key = uuid.New().String()
	}

	now := time.Now()
	if annonce.CreatedAt.IsZero() {
		annonce.CreatedAt = now
	}
	if annonce.UpdatedAt.IsZero() {
		annonce.UpdatedAt = now
	}

	sections, err := marshalSections(
		annonce.Contact,
		annonce.Localisation,
		annonce.Transaction,
		annonce.Composition,
		annonce.Batiment,
		annonce.EquipementsInterieurs,
		annonce.EquipementsExterieurs,
		annonce.Visibilite,
		annonce.Medias,
	)
	if err != nil {
		return err
	}

	args := []any{
		annonce.ID,
		annonce.Key,
		annonce.Reference,
		annonce.Statut,
		annonce.Titre,
		annonce.DescriptionCourte,
		annonce.Usage,
	}
	args = append(args, sections...)
	args = append(args, annonce.CreatedBy, annonce.CreatedAt, annonce.UpdatedAt)

	_, err = r.db.DB.ExecContext(ctx, query, args...)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" { // unique_violation
				return fmt.Errorf("annonce %s already exists: %w", annonce.Reference, ErrDuplicateReference)
			}
		}
		return fmt.Errorf("failed to create annonce: %w", err)
	}

	return nil
}

// GetByReference retrieves a listing by its human-facing reference.
func (r *annonceRepository) GetByReference(ctx context.Context, reference string) (*domain.Annonce, error) {
	query := `
		SELECT id, key, reference, statut, titre, description_courte, usage,
			contact, localisation, transaction, composition, batiment,
			equipements_interieurs, equipements_exterieurs, visibilite, medias,
			created_by, created_at, updated_at
		FROM annonces
		WHERE reference = $1
	`

	annonce, err := r.scanAnnonce(r.db.DB.QueryRowContext(ctx, query, reference))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("annonce %s not found: %w", reference, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get annonce: %w", err)
	}

	return annonce, nil
}

// List returns a page of listings, newest first, plus the total count.
func (r *annonceRepository) List(ctx context.Context, offset, limit int) ([]*domain.Annonce, int, error) {
	var total int
	if err := r.db.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM annonces`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count annonces: %w", err)
	}

	query := `
		SELECT id, key, reference, statut, titre, description_courte, usage,
			contact, localisation, transaction, composition, batiment,
			equipements_interieurs, equipements_exterieurs, visibilite, medias,
			created_by, created_at, updated_at
		FROM annonces
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list annonces: %w", err)
	}
	defer rows.Close()

	var annonces []*domain.Annonce
	for rows.Next() {
		annonce, err := r.scanAnnonce(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan annonce: %w", err)
		}
		annonces = append(annonces, annonce)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate annonces: %w", err)
	}

	return annonces, total, nil
}

// UpdateStatus moves a listing through its lifecycle.
func (r *annonceRepository) UpdateStatus(ctx context.Context, reference string, status domain.AnnonceStatus) error {
	query := `UPDATE annonces SET statut = $2, updated_at = NOW() WHERE reference = $1`

	result, err := r.db.DB.ExecContext(ctx, query, reference, status)
	if err != nil {
		return fmt.Errorf("failed to update annonce status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("annonce with reference %s not found: %w", reference, ErrNotFound)
	}

	return nil
}

func (r *annonceRepository) scanAnnonce(row interface{ Scan(...any) error }) (*domain.Annonce, error) {
	annonce := &domain.Annonce{}
	var createdBy sql.NullString
	var contact, localisation, transaction, composition, batiment []byte
	var equipInt, equipExt, visibilite, medias []byte

	err := row.Scan(
		&annonce.ID,
		&annonce.Key,
		&annonce.Reference,
		&annonce.Statut,
		&annonce.Titre,
		&annonce.DescriptionCourte,
		&annonce.Usage,
		&contact,
		&localisation,
		&transaction,
		&composition,
		&batiment,
		&equipInt,
		&equipExt,
		&visibilite,
		&medias,
		&createdBy,
		&annonce.CreatedAt,
		&annonce.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if createdBy.Valid {
		annonce.CreatedBy = createdBy.String
	}

	for _, section := range []struct {
		raw  []byte
		dest any
	}{
		{contact, &annonce.Contact},
		{localisation, &annonce.Localisation},
		{transaction, &annonce.Transaction},
		{composition, &annonce.Composition},
		{batiment, &annonce.Batiment},
		{equipInt, &annonce.EquipementsInterieurs},
		{equipExt, &annonce.EquipementsExterieurs},
		{visibilite, &annonce.Visibilite},
		{medias, &annonce.Medias},
	} {
		if len(section.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(section.raw, section.dest); err != nil {
			return nil, fmt.Errorf("failed to unmarshal annonce section: %w", err)
		}
	}

	return annonce, nil
}

func marshalSections(sections ...any) ([]any, error) {
	out := make([]any, 0, len(sections))
	for _, section := range sections {
		raw, err := json.Marshal(section)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal annonce section: %w", err)
		}
		out = append(out, raw)
	}
	return out, nil
}
