package domain

import "time"

// Session models a stored invitation session. Only the SHA-256 digest of the
// bearer token is persisted; the raw token lives in the guest's cookie.
type Session struct {
	ID             string
	InvitationID   string
	TokenHash      string // hex SHA-256 of the raw token (unique)
	EmailVerified  bool
	ExpiresAt      time.Time
	LastAccessedAt time.Time
	CreatedAt      time.Time
}

// SessionData is what validation hands back to route adapters. It carries no
// token material.
type SessionData struct {
	ID            string
	InvitationID  string
	EmailVerified bool
	ExpiresAt     time.Time
}
