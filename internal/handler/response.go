package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation"
	"go.uber.org/zap"

	"github.com/mbayedev/immoka/internal/apperr"
	"github.com/mbayedev/immoka/internal/dto"
)

// respond writes a success envelope.
func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, dto.NewEnvelope(message, data))
}

// respondError maps an error onto the envelope. Unexpected errors are
// logged with their cause and reported as an opaque 500.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	appErr := apperr.From(err)

	if appErr.Status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.Error(err),
		)
	}

	errs := buildErrorList(appErr)
	envelope := dto.NewErrorEnvelope(appErr.Message, errs)
	c.AbortWithStatusJSON(appErr.Status, envelope)
}

// buildErrorList flattens the error payload: the machine code first, then
// any details, with ozzo field errors expanded per field.
func buildErrorList(appErr *apperr.Error) []any {
	errs := []any{map[string]string{"code": appErr.Code}}

	for _, detail := range appErr.Details {
		if fieldErrs, ok := detail.(validation.Errors); ok {
			for field, fieldErr := range fieldErrs {
				errs = append(errs, map[string]string{
					"field":   field,
					"message": fieldErr.Error(),
				})
			}
			continue
		}
		errs = append(errs, detail)
	}

	return errs
}
