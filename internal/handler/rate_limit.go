package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mbayedev/immoka/internal/apperr"
	"github.com/mbayedev/immoka/internal/service"
	"github.com/mbayedev/immoka/internal/utils"
)

// RateLimitMiddleware creates a rate limiting middleware
func RateLimitMiddleware(rateLimiter *service.RateLimiter, logger *zap.Logger, limit int, window time.Duration, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFunc(c)

		allowed, err := rateLimiter.Allow(c.Request.Context(), key, limit, window)
		if err != nil {
			// The limiter store is unreachable; let the request through
			// rather than failing closed on infrastructure trouble.
			logger.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}

		remaining, _ := rateLimiter.GetRemainingRequests(c.Request.Context(), key, limit, window)
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			respondError(c, logger, apperr.TooManyRequests("Trop de requêtes, réessayez plus tard"))
			return
		}

		c.Next()
	}
}

// IPBasedKey extracts the rate limit key from the client IP.
func IPBasedKey(c *gin.Context) string {
	return utils.ClientIP(c.Request)
}
