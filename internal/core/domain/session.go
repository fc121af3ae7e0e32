package domain

import "time"

// Session is a server-side login session. Only the digest of the opaque
// token is stored.
type Session struct {
	ID           string
	AccountID    string
	TokenHash    string
	IPAddress    string
	UserAgent    string
	CreatedAt    time.Time
	ExpiresAt    time.Time
	LastActivity time.Time
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// SessionMetadata captures client details recorded when a session is issued.
type SessionMetadata struct {
	IPAddress string
	UserAgent string
}
