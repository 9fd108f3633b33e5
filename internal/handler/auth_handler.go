package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mbayedev/immoka/internal/apperr"
	"github.com/mbayedev/immoka/internal/dto"
	"github.com/mbayedev/immoka/internal/ged"
	"github.com/mbayedev/immoka/internal/service"
	"github.com/mbayedev/immoka/internal/utils"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService  service.AuthService
	logger       *zap.Logger
	secureCookie bool
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService service.AuthService, logger *zap.Logger, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		logger:       logger,
		secureCookie: secureCookie,
	}
}

// Register handles user registration
// @Summary Register a new user
// @Description Create an account. Entreprise accounts may attach a logo as multipart form data.
// @Tags auth
// @Accept json
// @Accept multipart/form-data
// @Produce json
// @Success 201 {object} dto.Envelope
// @Failure 400 {object} dto.Envelope
// @Failure 409 {object} dto.Envelope
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	req, logo, err := h.bindRegister(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	result, err := h.authService.Register(c.Request.Context(), req, logo, clientMeta(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.setAuthCookies(c, result)
	respond(c, http.StatusCreated, "Compte créé. Un email d'activation vous a été envoyé.", authPayload(result))
}

// authPayload carries the issued pair in the body; the same tokens also
// travel as httpOnly cookies so both browser and API clients are served.
func authPayload(result *service.AuthResult) gin.H {
	return gin.H{
		"user":             result.User,
		"accessToken":      result.AccessToken,
		"refreshToken":     result.RefreshToken,
		"expiresIn":        result.AccessExpiresIn,
		"refreshExpiresIn": result.RefreshExpiresIn,
	}
}

func (h *AuthHandler) bindRegister(c *gin.Context) (*dto.RegisterRequest, *ged.File, error) {
	req := &dto.RegisterRequest{}

	contentType := c.ContentType()
	if contentType != "multipart/form-data" {
		if err := c.ShouldBindJSON(req); err != nil {
			return nil, nil, apperr.Validation("invalid request body").WithCause(err)
		}
		return req, nil, nil
	}

	req.Name = c.PostForm("name")
	req.Email = c.PostForm("email")
	req.Password = c.PostForm("password")
	req.Role = c.PostForm("role")
	req.CorporateName = c.PostForm("corporateName")
	req.RCCM = c.PostForm("rccm")
	req.Description = c.PostForm("description")
	req.Adresse = c.PostForm("adresse")
	req.Phone = c.PostForm("phone")
	req.OtherPhone = c.PostForm("otherPhone")

	fileHeader, err := c.FormFile("logo")
	if err != nil {
		// Logo is optional.
		return req, nil, nil
	}

	content, err := fileHeader.Open()
	if err != nil {
		return nil, nil, apperr.Validation("unreadable logo file").WithCause(err)
	}

	logo := &ged.File{
		Name:        fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Content:     content,
	}
	return req, logo, nil
}

// Login handles user login
// @Summary Login user
// @Description Authenticate with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login request"
// @Success 200 {object} dto.Envelope
// @Failure 401 {object} dto.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, apperr.Validation("invalid request body").WithCause(err))
		return
	}

	result, err := h.authService.Login(c.Request.Context(), &req, clientMeta(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.setAuthCookies(c, result)
	respond(c, http.StatusOK, "Connexion réussie", authPayload(result))
}

// Refresh rotates the refresh token
// @Summary Refresh tokens
// @Description Exchange a valid refresh token for a new pair
// @Tags auth
// @Produce json
// @Success 200 {object} dto.Envelope
// @Failure 401 {object} dto.Envelope
// @Router /auth/refresh-token [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken := h.extractRefreshToken(c)

	result, err := h.authService.RefreshToken(c.Request.Context(), refreshToken, clientMeta(c))
	if err != nil {
		h.clearAuthCookies(c)
		respondError(c, h.logger, err)
		return
	}

	h.setAuthCookies(c, result)
	respond(c, http.StatusOK, "Token rafraîchi", authPayload(result))
}

// Logout revokes the current session
// @Summary Logout
// @Description Revoke the presented refresh token and clear cookies
// @Tags auth
// @Produce json
// @Success 200 {object} dto.Envelope
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	refreshToken := h.extractRefreshToken(c)

	if err := h.authService.Logout(c.Request.Context(), refreshToken); err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.clearAuthCookies(c)
	respond(c, http.StatusOK, "Déconnexion réussie", nil)
}

// LogoutAll revokes every session of the caller
// @Summary Logout from all devices
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.Envelope
// @Router /auth/logout-all [post]
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		respondError(c, h.logger, apperr.Authentication("authentication required"))
		return
	}

	count, err := h.authService.LogoutAll(c.Request.Context(), user.IdentityKey)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.clearAuthCookies(c)
	respond(c, http.StatusOK, "Déconnecté de tous les appareils", gin.H{"sessionsRevoked": count})
}

// Sessions lists the caller's connected devices
// @Summary List active sessions
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.Envelope
// @Router /auth/sessions [get]
func (h *AuthHandler) Sessions(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		respondError(c, h.logger, apperr.Authentication("authentication required"))
		return
	}

	sessions, err := h.authService.Sessions(c.Request.Context(), user.IdentityKey)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respond(c, http.StatusOK, "Sessions récupérées", gin.H{"sessions": sessions})
}

// VerifyEmail activates an account
// @Summary Verify email
// @Description Activate the account matching an activation token
// @Tags auth
// @Produce json
// @Param token path string true "Activation token"
// @Success 200 {object} dto.Envelope
// @Failure 401 {object} dto.Envelope
// @Failure 410 {object} dto.Envelope
// @Router /auth/verify-email/{token} [get]
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	user, err := h.authService.VerifyEmail(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respond(c, http.StatusOK, "Compte activé avec succès", gin.H{"user": user})
}

// ResendActivation sends a fresh activation email
// @Summary Resend activation email
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} dto.Envelope
// @Router /auth/resend-activation [post]
func (h *AuthHandler) ResendActivation(c *gin.Context) {
	var req dto.ResendActivationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, apperr.Validation("invalid request body").WithCause(err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(c, h.logger, apperr.Validation("invalid email").WithDetails(err).WithCause(err))
		return
	}

	if err := h.authService.ResendActivation(c.Request.Context(), req.Email); err != nil {
		respondError(c, h.logger, err)
		return
	}

	respond(c, http.StatusOK, "Si ce compte existe, un email d'activation a été envoyé.", nil)
}

// ChangePassword changes the caller's password
// @Summary Change password
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.Envelope
// @Failure 401 {object} dto.Envelope
// @Router /auth/change-password [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		respondError(c, h.logger, apperr.Authentication("authentication required"))
		return
	}

	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, apperr.Validation("invalid request body").WithCause(err))
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), user.IdentityKey, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.clearAuthCookies(c)
	respond(c, http.StatusOK, "Mot de passe modifié. Veuillez vous reconnecter.", nil)
}

// extractRefreshToken reads the refresh token from the cookie transport,
// falling back to the request body for non-browser clients.
func (h *AuthHandler) extractRefreshToken(c *gin.Context) string {
	if cookie, err := c.Cookie(RefreshTokenCookie); err == nil && cookie != "" {
		return cookie
	}

	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err == nil {
		return req.RefreshToken
	}

	return ""
}

func (h *AuthHandler) setAuthCookies(c *gin.Context, result *service.AuthResult) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(AccessTokenCookie, result.AccessToken, result.AccessExpiresIn, "/", "", h.secureCookie, true)
	c.SetCookie(RefreshTokenCookie, result.RefreshToken, result.RefreshExpiresIn, "/", "", h.secureCookie, true)
}

func (h *AuthHandler) clearAuthCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(AccessTokenCookie, "", -1, "/", "", h.secureCookie, true)
	c.SetCookie(RefreshTokenCookie, "", -1, "/", "", h.secureCookie, true)
}

// clientMeta collects the device metadata stored with the session.
func clientMeta(c *gin.Context) service.ClientMeta {
	return service.ClientMeta{
		UserAgent: c.Request.UserAgent(),
		IP:        utils.ClientIP(c.Request),
	}
}
