package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mbayedev/immoka/internal/apperr"
	"github.com/mbayedev/immoka/internal/domain"
	"github.com/mbayedev/immoka/internal/dto"
	"github.com/mbayedev/immoka/internal/ged"
	"github.com/mbayedev/immoka/internal/service"
)

// AnnonceHandler handles listing requests
type AnnonceHandler struct {
	annonceService service.AnnonceService
	logger         *zap.Logger
}

// NewAnnonceHandler creates a new annonce handler
func NewAnnonceHandler(annonceService service.AnnonceService, logger *zap.Logger) *AnnonceHandler {
	return &AnnonceHandler{
		annonceService: annonceService,
		logger:         logger,
	}
}

// Create publishes a new listing
// @Summary Create a listing
// @Description Create a listing from multipart form data. Section fields hold JSON; media files ride alongside.
// @Tags annonces
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Success 201 {object} dto.Envelope
// @Failure 400 {object} dto.Envelope
// @Router /annonces/add-annonce [post]
func (h *AnnonceHandler) Create(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		respondError(c, h.logger, apperr.Authentication("authentication required"))
		return
	}

	req, medias, err := h.bindCreate(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	annonce, outcomes, err := h.annonceService.Create(c.Request.Context(), req, medias, user.IdentityKey)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	data := gin.H{"annonce": annonce}
	if len(outcomes) > 0 {
		data["uploads"] = outcomes
	}
	respond(c, http.StatusCreated, "Annonce créée", data)
}

func (h *AnnonceHandler) bindCreate(c *gin.Context) (*dto.CreateAnnonceRequest, []ged.File, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil, apperr.Validation("multipart form data expected").WithCause(err)
	}

	req := &dto.CreateAnnonceRequest{
		Titre:             c.PostForm("titre"),
		DescriptionCourte: c.PostForm("descriptionCourte"),
		Usage:             c.PostForm("usage"),
		Statut:            c.PostForm("statut"),
	}

	sections := []struct {
		field string
		dest  any
	}{
		{"contact", &req.Contact},
		{"localisation", &req.Localisation},
		{"transaction", &req.Transaction},
		{"composition", &req.Composition},
		{"batiment", &req.Batiment},
		{"equipementsInterieurs", &req.EquipementsInterieurs},
		{"equipementsExterieurs", &req.EquipementsExterieurs},
		{"visibilite", &req.Visibilite},
	}
	for _, section := range sections {
		raw := c.PostForm(section.field)
		if raw == "" {
			continue
		}
		if err := dto.DecodeSection([]byte(raw), section.dest); err != nil {
			return nil, nil, apperr.Validation(fmt.Sprintf("invalid %s section", section.field)).WithCause(err)
		}
	}

	fileHeaders := form.File["medias"]
	if len(fileHeaders) > ged.MaxBatchFiles {
		return nil, nil, apperr.Validation(fmt.Sprintf("a listing accepts at most %d files", ged.MaxBatchFiles))
	}

	medias := make([]ged.File, 0, len(fileHeaders))
	for _, fileHeader := range fileHeaders {
		content, err := fileHeader.Open()
		if err != nil {
			return nil, nil, apperr.Validation("unreadable media file").WithCause(err)
		}
		medias = append(medias, ged.File{
			Name:        fileHeader.Filename,
			ContentType: fileHeader.Header.Get("Content-Type"),
			Size:        fileHeader.Size,
			Content:     content,
		})
	}

	return req, medias, nil
}

// Get returns one listing
// @Summary Get a listing
// @Tags annonces
// @Produce json
// @Param reference path string true "Listing reference"
// @Success 200 {object} dto.Envelope
// @Failure 404 {object} dto.Envelope
// @Router /annonces/{reference} [get]
func (h *AnnonceHandler) Get(c *gin.Context) {
	annonce, err := h.annonceService.GetByReference(c.Request.Context(), c.Param("reference"), CurrentUser(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respond(c, http.StatusOK, "Annonce récupérée", gin.H{"annonce": annonce})
}

// UpdateStatus moves a listing through its lifecycle
// @Summary Update a listing status
// @Tags annonces
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param reference path string true "Listing reference"
// @Success 200 {object} dto.Envelope
// @Failure 400 {object} dto.Envelope
// @Failure 403 {object} dto.Envelope
// @Router /annonces/{reference}/status [patch]
func (h *AnnonceHandler) UpdateStatus(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		respondError(c, h.logger, apperr.Authentication("authentication required"))
		return
	}

	var req dto.UpdateAnnonceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, apperr.Validation("Données invalides").WithCause(err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(c, h.logger, apperr.Validation("Données invalides").WithDetails(err).WithCause(err))
		return
	}

	reference := c.Param("reference")
	if err := h.annonceService.UpdateStatus(c.Request.Context(), reference, domain.AnnonceStatus(req.Statut), user); err != nil {
		respondError(c, h.logger, err)
		return
	}

	respond(c, http.StatusOK, "Statut de l'annonce mis à jour", gin.H{
		"reference": reference,
		"statut":    req.Statut,
	})
}

// List returns a page of listings
// @Summary List listings
// @Tags annonces
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} dto.Envelope
// @Router /annonces [get]
func (h *AnnonceHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	annonces, pagination, err := h.annonceService.List(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respond(c, http.StatusOK, "Annonces récupérées", gin.H{
		"annonces":   annonces,
		"pagination": pagination,
	})
}
