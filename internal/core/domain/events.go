package domain

import "time"

// AccountRegisteredEvent is emitted when signup starts and the inactive account row exists.
type AccountRegisteredEvent struct {
	EventID      string
	AccountID    string
	Email        string
	AccountType  AccountType
	RegisteredAt time.Time
	Metadata     map[string]any
}

// AccountActivatedEvent is emitted once email verification completes.
type AccountActivatedEvent struct {
	EventID     string
	AccountID   string
	Method      VerificationMethod
	ActivatedAt time.Time
	Metadata    map[string]any
}

// SessionCreatedEvent is emitted whenever a session is issued.
type SessionCreatedEvent struct {
	EventID   string
	SessionID string
	AccountID string
	Origin    string
	IPAddress string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// SessionRevokedEvent is emitted on logout or expiry cleanup.
type SessionRevokedEvent struct {
	EventID   string
	SessionID string
	AccountID string
	Reason    string
	RevokedAt time.Time
}
