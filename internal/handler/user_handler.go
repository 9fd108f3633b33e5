package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mbayedev/immoka/internal/apperr"
	"github.com/mbayedev/immoka/internal/domain"
	"github.com/mbayedev/immoka/internal/dto"
	"github.com/mbayedev/immoka/internal/ged"
	"github.com/mbayedev/immoka/internal/repository"
	"github.com/mbayedev/immoka/internal/service"
)

// UserHandler handles profile and administration requests
type UserHandler struct {
	userService service.UserService
	logger      *zap.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// GetProfile returns the caller's profile
// @Summary Get own profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.Envelope
// @Router /users/profile [get]
func (h *UserHandler) GetProfile(c *gin.Context) {
	current := CurrentUser(c)

	user, entreprise, err := h.userService.GetProfile(c.Request.Context(), current.IdentityKey)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	data := gin.H{"user": user}
	if entreprise != nil {
		data["entreprise"] = entreprise
	}
	respond(c, http.StatusOK, "Profil récupéré", data)
}

// UpdateProfile updates the caller's name or email
// @Summary Update own profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.Envelope
// @Router /users/profile [put]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	current := CurrentUser(c)

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, apperr.Validation("invalid request body").WithCause(err))
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), current.IdentityKey, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respond(c, http.StatusOK, "Profil mis à jour", gin.H{"user": user})
}

// UpdateLogo replaces the caller's agency logo
// @Summary Update the agency logo
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.Envelope
// @Failure 400 {object} dto.Envelope
// @Router /users/profile/logo [put]
func (h *UserHandler) UpdateLogo(c *gin.Context) {
	current := CurrentUser(c)

	fileHeader, err := c.FormFile("logo")
	if err != nil {
		respondError(c, h.logger, apperr.Validation("logo file expected").WithCause(err))
		return
	}
	content, err := fileHeader.Open()
	if err != nil {
		respondError(c, h.logger, apperr.Validation("unreadable logo file").WithCause(err))
		return
	}
	defer content.Close()

	entreprise, err := h.userService.UpdateLogo(c.Request.Context(), current.IdentityKey, ged.File{
		Name:        fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Content:     content,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respond(c, http.StatusOK, "Logo mis à jour", gin.H{"entreprise": entreprise})
}

// DeleteProfile removes the caller's account
// @Summary Delete own account
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.Envelope
// @Router /users/profile [delete]
func (h *UserHandler) DeleteProfile(c *gin.Context) {
	current := CurrentUser(c)

	if err := h.userService.DeleteAccount(c.Request.Context(), current.IdentityKey); err != nil {
		respondError(c, h.logger, err)
		return
	}

	respond(c, http.StatusOK, "Compte supprimé", nil)
}

// ListUsers returns a page of accounts
// @Summary List users
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param role query string false "Filter by role"
// @Param active query bool false "Filter by active flag"
// @Param search query string false "Search by name or email"
// @Success 200 {object} dto.Envelope
// @Router /admin/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	filter := repository.UserFilter{Search: c.Query("search")}
	if roleParam := c.Query("role"); roleParam != "" {
		role := domain.Role(roleParam)
		if !role.Valid() {
			respondError(c, h.logger, apperr.Validation("invalid role filter"))
			return
		}
		filter.Role = &role
	}
	if activeParam := c.Query("active"); activeParam != "" {
		active, err := strconv.ParseBool(activeParam)
		if err != nil {
			respondError(c, h.logger, apperr.Validation("invalid active filter"))
			return
		}
		filter.IsActive = &active
	}

	users, pagination, err := h.userService.ListUsers(c.Request.Context(), filter, page, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respond(c, http.StatusOK, "Utilisateurs récupérés", gin.H{
		"users":      users,
		"pagination": pagination,
	})
}

// GetUser returns one account
// @Summary Get a user
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param key path string true "Identity key"
// @Success 200 {object} dto.Envelope
// @Router /admin/users/{key} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userService.GetUser(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respond(c, http.StatusOK, "Utilisateur récupéré", gin.H{"user": user})
}

// ToggleStatus flips an account's active flag
// @Summary Toggle a user's status
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param key path string true "Identity key"
// @Success 200 {object} dto.Envelope
// @Router /admin/users/{key}/toggle-status [patch]
func (h *UserHandler) ToggleStatus(c *gin.Context) {
	user, err := h.userService.ToggleStatus(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	message := "Compte désactivé"
	if user.IsActive {
		message = "Compte activé"
	}
	respond(c, http.StatusOK, message, gin.H{"user": user})
}

// UpdateRole changes an account's role
// @Summary Update a user's role
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param key path string true "Identity key"
// @Success 200 {object} dto.Envelope
// @Router /admin/users/{key}/role [patch]
func (h *UserHandler) UpdateRole(c *gin.Context) {
	var req dto.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, apperr.Validation("invalid request body").WithCause(err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(c, h.logger, apperr.Validation("invalid role").WithDetails(err).WithCause(err))
		return
	}

	user, err := h.userService.UpdateRole(c.Request.Context(), c.Param("key"), domain.Role(req.Role))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respond(c, http.StatusOK, "Rôle mis à jour", gin.H{"user": user})
}

// UpdateUser edits an account
// @Summary Update a user
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param key path string true "Identity key"
// @Success 200 {object} dto.Envelope
// @Router /admin/users/{key} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req dto.AdminUpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, apperr.Validation("invalid request body").WithCause(err))
		return
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), c.Param("key"), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respond(c, http.StatusOK, "Utilisateur mis à jour", gin.H{"user": user})
}

// DeleteUser removes an account
// @Summary Delete a user
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param key path string true "Identity key"
// @Success 200 {object} dto.Envelope
// @Router /admin/users/{key} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	if err := h.userService.DeleteUser(c.Request.Context(), c.Param("key")); err != nil {
		respondError(c, h.logger, err)
		return
	}

	respond(c, http.StatusOK, "Utilisateur supprimé", nil)
}

// ToggleEntrepriseBlock flips an agency's blocked flag
// @Summary Toggle an entreprise's blocked flag
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param key path string true "Entreprise key"
// @Success 200 {object} dto.Envelope
// @Router /admin/entreprises/{key}/toggle-block [patch]
func (h *UserHandler) ToggleEntrepriseBlock(c *gin.Context) {
	entreprise, err := h.userService.ToggleEntrepriseBlock(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	message := "Entreprise débloquée"
	if entreprise.IsBlocked {
		message = "Entreprise bloquée"
	}
	respond(c, http.StatusOK, message, gin.H{"entreprise": entreprise})
}

// Stats returns account aggregates
// @Summary User statistics
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.Envelope
// @Router /admin/users/stats [get]
func (h *UserHandler) Stats(c *gin.Context) {
	stats, err := h.userService.Stats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respond(c, http.StatusOK, "Statistiques récupérées", gin.H{"stats": stats})
}
