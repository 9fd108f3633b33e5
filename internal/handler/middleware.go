package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mbayedev/immoka/internal/apperr"
	"github.com/mbayedev/immoka/internal/domain"
	"github.com/mbayedev/immoka/internal/service"
)

const (
	contextUserKey = "auth_user"

	// AccessTokenCookie and RefreshTokenCookie are the cookie transport
	// names, mirrored by the Angular client.
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// extractAccessToken pulls the access token from the Authorization header,
// falling back to the cookie transport.
func extractAccessToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}

	if cookie, err := c.Cookie(AccessTokenCookie); err == nil {
		return cookie
	}

	return ""
}

// AuthGate rejects requests without a valid access token and stores the
// resolved user in the request context.
func AuthGate(authService service.AuthService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractAccessToken(c)
		if token == "" {
			respondError(c, logger, apperr.Authentication("authentication required"))
			return
		}

		user, err := authService.Authenticate(c.Request.Context(), token)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.Set(contextUserKey, user)
		c.Next()
	}
}

// OptionalAuthGate resolves the user when a valid token is present but lets
// anonymous requests through.
func OptionalAuthGate(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractAccessToken(c)
		if token == "" {
			c.Next()
			return
		}

		if user, err := authService.Authenticate(c.Request.Context(), token); err == nil {
			c.Set(contextUserKey, user)
		}

		c.Next()
	}
}

// RequireRoles allows only the listed roles past. Must run after AuthGate.
func RequireRoles(logger *zap.Logger, roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			respondError(c, logger, apperr.Authentication("authentication required"))
			return
		}

		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}

		respondError(c, logger, apperr.Authorization("insufficient permissions"))
	}
}

// CurrentUser returns the authenticated user, or nil on anonymous requests.
func CurrentUser(c *gin.Context) *domain.User {
	value, exists := c.Get(contextUserKey)
	if !exists {
		return nil
	}
	user, ok := value.(*domain.User)
	if !ok {
		return nil
	}
	return user
}
