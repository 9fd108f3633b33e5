package domain

import "time"

// Role enumerates the account roles known to the platform.
type Role string

const (
	RoleUser       Role = "user"
	RoleClient     Role = "client"
	RoleEntreprise Role = "entreprise"
	RoleMaster     Role = "master"
)

// Valid reports whether the role is one of the enumerated values.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleClient, RoleEntreprise, RoleMaster:
		return true
	}
	return false
}

// User represents a marketplace account.
//
// IdentityKey is the stable public identifier embedded in tokens and
// referenced by entreprises and annonces; it never changes after creation
// and is distinct from the storage row id.
type User struct {
	ID            string    `json:"-" db:"id"`
	IdentityKey   string    `json:"identityKey" db:"identity_key"`
	Name          string    `json:"name" db:"name"`
	Email         string    `json:"email" db:"email"`
	PasswordHash  string    `json:"-" db:"password_hash"`
	Role          Role      `json:"role" db:"role"`
	IsActive      bool      `json:"isActive" db:"is_active"`
	EmailVerified bool      `json:"emailVerified" db:"email_verified"`

	LastLoginAt       *time.Time `json:"lastLogin" db:"last_login_at"`
	PasswordChangedAt *time.Time `json:"-" db:"password_changed_at"`

	// Activation sub-state, write-only from the API's perspective.
	VerificationToken        *string    `json:"-" db:"verification_token"`
	VerificationTokenExpires *time.Time `json:"-" db:"verification_token_expires"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// ChangedPasswordAfter reports whether the password was changed after the
// given token issue time. Tokens minted before a password change must be
// rejected by the auth gate.
func (u *User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	// iat claims carry second precision; truncate to avoid rejecting a
	// token minted in the same second as the change.
	return u.PasswordChangedAt.Truncate(time.Second).After(issuedAt.Truncate(time.Second))
}

// VerificationTokenValid reports whether the stored activation token is
// still inside its 24h window.
func (u *User) VerificationTokenValid(now time.Time) bool {
	return u.VerificationTokenExpires != nil && u.VerificationTokenExpires.After(now)
}
