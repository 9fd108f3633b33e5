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

// annonceService implements AnnonceService interface
type annonceService struct {
	annonceRepo repository.AnnonceRepository
	gedClient   *ged.Client
	logger      *zap.Logger
}

// NewAnnonceService creates a new annonce service
func NewAnnonceService(annonceRepo repository.AnnonceRepository, gedClient *ged.Client, logger *zap.Logger) AnnonceService {
	return &annonceService{
		annonceRepo: annonceRepo,
		gedClient:   gedClient,
		logger:      logger,
	}
}

// Create persists a new listing. Media files are uploaded to the GED first;
// files that fail to upload do not block the rest, their outcomes are
// returned alongside the listing so the client can retry them.
func (s *annonceService) Create(ctx context.Context, req *dto.CreateAnnonceRequest, medias []ged.File, createdBy string) (*domain.Annonce, []ged.UploadOutcome, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, apperr.Validation("invalid annonce data").WithDetails(err).WithCause(err)
	}

	if len(medias) > ged.MaxBatchFiles {
		return nil, nil, apperr.Validation(fmt.Sprintf("a listing accepts at most %d files", ged.MaxBatchFiles))
	}

	reference, err := utils.GenerateReference()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate reference: %w", err)
	}

	annonce := req.ToAnnonce(createdBy)
	annonce.Reference = reference

	var outcomes []ged.UploadOutcome
	if len(medias) > 0 {
		outcomes = s.gedClient.UploadBatch(ctx, "annonce_media", medias)
		for _, outcome := range outcomes {
			if outcome.Media != nil {
				annonce.Medias = append(annonce.Medias, *outcome.Media)
			} else {
				s.logger.Warn("media upload failed",
					zap.String("reference", reference),
					zap.String("file", outcome.Name),
					zap.String("error", outcome.Error))
			}
		}
	}

	if err := s.annonceRepo.Create(ctx, annonce); err != nil {
		s.cleanupMedias(ctx, annonce.Medias)
		if errors.Is(err, repository.ErrDuplicateReference) {
			return nil, nil, apperr.Conflict("a listing with this reference already exists")
		}
		return nil, nil, fmt.Errorf("failed to create annonce: %w", err)
	}

	return annonce, outcomes, nil
}

// GetByReference returns one listing. Drafts are visible only to their
// creator or a master account; everyone else gets a not-found so the
// reference does not leak.
func (s *annonceService) GetByReference(ctx context.Context, reference string, viewer *domain.User) (*domain.Annonce, error) {
	annonce, err := s.annonceRepo.GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("annonce not found")
		}
		return nil, fmt.Errorf("failed to get annonce: %w", err)
	}

	if annonce.Statut == domain.StatusBrouillon && !canManage(annonce, viewer) {
		return nil, apperr.NotFound("annonce not found")
	}

	return annonce, nil
}

func canManage(annonce *domain.Annonce, user *domain.User) bool {
	if user == nil {
		return false
	}
	return annonce.CreatedBy == user.IdentityKey || user.Role == domain.RoleMaster
}

// List returns a page of listings, newest first.
func (s *annonceService) List(ctx context.Context, page, limit int) ([]*domain.Annonce, dto.Pagination, error) {
	page, limit = normalizePage(page, limit)

	annonces, total, err := s.annonceRepo.List(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, dto.Pagination{}, fmt.Errorf("failed to list annonces: %w", err)
	}

	return annonces, dto.NewPagination(total, page, limit), nil
}

// UpdateStatus moves a listing through its lifecycle. Only the listing's
// creator or a master account may change it.
func (s *annonceService) UpdateStatus(ctx context.Context, reference string, status domain.AnnonceStatus, actor *domain.User) error {
	if !status.Valid() {
		return apperr.Validation("invalid annonce status")
	}

	annonce, err := s.annonceRepo.GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("annonce not found")
		}
		return fmt.Errorf("failed to get annonce: %w", err)
	}

	if !canManage(annonce, actor) {
		return apperr.Authorization("you cannot modify this annonce")
	}

	if err := s.annonceRepo.UpdateStatus(ctx, reference, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("annonce not found")
		}
		return fmt.Errorf("failed to update annonce status: %w", err)
	}

	return nil
}

func (s *annonceService) cleanupMedias(ctx context.Context, medias []domain.Media) {
	for _, media := range medias {
		if media.Filename == "" {
			continue
		}
		if err := s.gedClient.DeleteFile(ctx, media.Filename); err != nil {
			s.logger.Warn("failed to clean up orphan media", zap.String("file", media.Filename), zap.Error(err))
		}
	}
}
