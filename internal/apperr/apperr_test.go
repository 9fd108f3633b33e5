package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrom_PassesThroughAppErrors(t *testing.T) {
	original := NotFound("Utilisateur introuvable")

	converted := From(original)
	assert.Same(t, original, converted)

	wrapped := fmt.Errorf("service layer: %w", original)
	converted = From(wrapped)
	assert.Same(t, original, converted)
}

func TestFrom_WrapsUnknownErrors(t *testing.T) {
	cause := errors.New("connection refused")

	converted := From(cause)
	assert.Equal(t, http.StatusInternalServerError, converted.Status)
	assert.Equal(t, "INTERNAL_ERROR", converted.Code)
	assert.ErrorIs(t, converted, cause)
}

func TestWithCause_DoesNotMutateOriginal(t *testing.T) {
	base := Validation("Données invalides")
	withCause := base.WithCause(errors.New("boom"))

	require.NotSame(t, base, withCause)
	assert.Nil(t, base.Unwrap())
	assert.EqualError(t, withCause.Unwrap(), "boom")
	assert.Contains(t, withCause.Error(), "boom")
}

func TestWithDetails_DoesNotMutateOriginal(t *testing.T) {
	base := Validation("Données invalides")
	detailed := base.WithDetails(map[string]string{"field": "email"})

	assert.Empty(t, base.Details)
	assert.Len(t, detailed.Details, 1)
}

func TestActivationErrorCodes(t *testing.T) {
	invalid := InvalidActivationToken()
	assert.Equal(t, http.StatusUnauthorized, invalid.Status)
	assert.Equal(t, "INVALID_TOKEN", invalid.Code)

	already := AlreadyActivated("user@example.com")
	assert.Equal(t, http.StatusUnauthorized, already.Status)
	assert.Equal(t, "ALREADY_ACTIVATED", already.Code)
	require.Len(t, already.Details, 1)
	assert.Equal(t, map[string]string{"email": "user@example.com"}, already.Details[0])

	expired := ActivationTokenExpired("user@example.com")
	assert.Equal(t, http.StatusGone, expired.Status)
	assert.Equal(t, "TOKEN_EXPIRED", expired.Code)
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		err    *Error
		status int
		code   string
	}{
		{Validation("x"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{Authentication("x"), http.StatusUnauthorized, "AUTHENTICATION_ERROR"},
		{Authorization("x"), http.StatusForbidden, "AUTHORIZATION_ERROR"},
		{NotFound("x"), http.StatusNotFound, "NOT_FOUND"},
		{Conflict("x"), http.StatusConflict, "CONFLICT"},
		{Gone("x"), http.StatusGone, "GONE"},
		{TooManyRequests("x"), http.StatusTooManyRequests, "TOO_MANY_REQUESTS"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.status, tt.err.Status)
		assert.Equal(t, tt.code, tt.err.Code)
	}
}
