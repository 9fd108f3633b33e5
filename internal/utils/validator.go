package utils

import "strings"

// SanitizeEmail lowercases and trims an email address before lookup or
// storage; the unique index is on the normalized form.
func SanitizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
