package domain

import "time"

// MaxSessionsPerUser bounds the refresh session history kept per account.
// Recording a session beyond the cap silently evicts the oldest entries.
const MaxSessionsPerUser = 5

// RefreshSession is one entry of a user's refresh token registry. The token
// itself is stored as a sha256 hash; the raw signed string only ever lives
// in the client cookie and response body.
type RefreshSession struct {
	ID        string    `json:"id" db:"id"`
	UserKey   string    `json:"userKey" db:"user_key"`
	TokenHash string    `json:"-" db:"token_hash"`
	ExpiresAt time.Time `json:"expiresAt" db:"expires_at"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UserAgent *string   `json:"userAgent" db:"user_agent"`
	IP        *string   `json:"ip" db:"ip_address"`
}

// Expired reports whether the session's stored expiry has passed.
func (s *RefreshSession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
