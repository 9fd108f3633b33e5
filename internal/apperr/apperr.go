// Package apperr defines the API error taxonomy. Services return *Error
// values; the handler layer maps them onto the response envelope, so HTTP
// status decisions live in one place.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is an API-visible failure with an HTTP status, a machine-readable
// code and a human message. Details, when set, are serialized into the
// envelope's errors array.
type Error struct {
	Status  int
	Code    string
	Message string
	Details []any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// WithCause attaches an underlying error for logging; the cause is never
// serialized to clients.
func (e *Error) WithCause(err error) *Error {
	clone := *e
	clone.cause = err
	return &clone
}

// WithDetails attaches structured detail entries for the envelope.
func (e *Error) WithDetails(details ...any) *Error {
	clone := *e
	clone.Details = append(clone.Details[:len(clone.Details):len(clone.Details)], details...)
	return &clone
}

func newError(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

func Validation(message string) *Error {
	return newError(http.StatusBadRequest, "VALIDATION_ERROR", message)
}

func Authentication(message string) *Error {
	return newError(http.StatusUnauthorized, "AUTHENTICATION_ERROR", message)
}

func Authorization(message string) *Error {
	return newError(http.StatusForbidden, "AUTHORIZATION_ERROR", message)
}

func NotFound(message string) *Error {
	return newError(http.StatusNotFound, "NOT_FOUND", message)
}

func Conflict(message string) *Error {
	return newError(http.StatusConflict, "CONFLICT", message)
}

func Gone(message string) *Error {
	return newError(http.StatusGone, "GONE", message)
}

func TooManyRequests(message string) *Error {
	return newError(http.StatusTooManyRequests, "TOO_MANY_REQUESTS", message)
}

func Internal(message string) *Error {
	return newError(http.StatusInternalServerError, "INTERNAL_ERROR", message)
}

// Activation-token failures carry dedicated codes so clients can branch on
// them (resend link, redirect to login, ...).
func InvalidActivationToken() *Error {
	return newError(http.StatusUnauthorized, "INVALID_TOKEN", "Token d'activation invalide")
}

func AlreadyActivated(email string) *Error {
	e := newError(http.StatusUnauthorized, "ALREADY_ACTIVATED", "Ce compte est déjà activé")
	e.Details = []any{map[string]string{"email": email}}
	return e
}

func ActivationTokenExpired(email string) *Error {
	e := newError(http.StatusGone, "TOKEN_EXPIRED", "Le lien d'activation a expiré. Veuillez demander un nouveau lien.")
	e.Details = []any{map[string]string{"email": email}}
	return e
}

// From converts any error to an *Error, defaulting to a 500 whose internal
// message is kept only as the cause.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("Une erreur interne est survenue").WithCause(err)
}
