package store

import (
	"context"
	"errors"
	"time"

	"github.com/jhaverinen/kutsu/internal/invite/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable.
type Store interface {
	Invitations() Invitations
	Guests() Guests
	RSVPs() RSVPs
	Sessions() Sessions
	VerificationCodes() VerificationCodes

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, rolling back when fn returns
	// an error and committing otherwise. Preferred over Tx directly.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Invitations interface {
	// CreateInvitation inserts a new invitation (id is provided by the app via ULID).
	CreateInvitation(ctx context.Context, inv domain.Invitation) error

	// GetInvitationByID returns an invitation by id.
	GetInvitationByID(ctx context.Context, id string) (domain.Invitation, error)

	// GetInvitationByCode looks an invitation up by its normalized code.
	GetInvitationByCode(ctx context.Context, code string) (domain.Invitation, error)

	// DeleteInvitation removes an invitation; sessions, guests, rsvp and
	// verification codes cascade per schema.
	DeleteInvitation(ctx context.Context, id string) error
}

type Guests interface {
	CreateGuest(ctx context.Context, g domain.Guest) error

	// ListInvitationGuests returns all guests for an invitation, primary first.
	ListInvitationGuests(ctx context.Context, invitationID string) ([]domain.Guest, error)
}

type RSVPs interface {
	// GetRSVPByInvitationID returns the single reply for an invitation.
	GetRSVPByInvitationID(ctx context.Context, invitationID string) (domain.RSVP, error)

	// UpsertRSVP inserts or replaces the reply for r.InvitationID, bumping
	// updated_at on replacement.
	UpsertRSVP(ctx context.Context, r domain.RSVP) error
}

type Sessions interface {
	// CreateSession stores a new session record (token_hash must be unique).
	CreateSession(ctx context.Context, s domain.Session) error

	// GetSessionByTokenHash returns the session matching a token digest.
	GetSessionByTokenHash(ctx context.Context, hash string) (domain.Session, error)

	// GetSessionByID returns a session by its id.
	GetSessionByID(ctx context.Context, id string) (domain.Session, error)

	// CountInvitationSessions returns how many sessions an invitation has.
	CountInvitationSessions(ctx context.Context, invitationID string) (int, error)

	// DeleteOldestInvitationSession removes the single oldest session (by
	// created_at) for an invitation. No-op when none exist.
	DeleteOldestInvitationSession(ctx context.Context, invitationID string) error

	// TouchSession sets last_accessed_at.
	TouchSession(ctx context.Context, id string, at time.Time) error

	// RotateSessionToken replaces the token digest and flips email_verified.
	RotateSessionToken(ctx context.Context, id string, newHash string) error

	// DeleteSession removes a session by id.
	DeleteSession(ctx context.Context, id string) error

	// DeleteInvitationSessions removes every session for an invitation.
	DeleteInvitationSessions(ctx context.Context, invitationID string) error

	// DeleteExpiredSessions is housekeeping; removes sessions past expiry.
	DeleteExpiredSessions(ctx context.Context) error
}

type VerificationCodes interface {
	// CreateVerificationCode stores a new code record (hash only).
	CreateVerificationCode(ctx context.Context, c domain.VerificationCode) error

	// ListRecentVerificationCodes returns codes for an invitation created at
	// or after since, newest first. Verified and expired rows are included;
	// they still count toward the send window.
	ListRecentVerificationCodes(ctx context.Context, invitationID string, since time.Time) ([]domain.VerificationCode, error)

	// GetOldestUnverifiedCode returns the earliest-issued code with a null
	// verified_at for an invitation.
	GetOldestUnverifiedCode(ctx context.Context, invitationID string) (domain.VerificationCode, error)

	// IncrementVerificationAttempts bumps the failed attempt counter.
	IncrementVerificationAttempts(ctx context.Context, id string) error

	// MarkVerificationCodeVerified sets verified_at.
	MarkVerificationCodeVerified(ctx context.Context, id string, at time.Time) error

	// DeleteVerificationCode removes a single code row.
	DeleteVerificationCode(ctx context.Context, id string) error

	// DeleteInvitationVerificationCodes removes every code row for an
	// invitation, resetting its cooldown history.
	DeleteInvitationVerificationCodes(ctx context.Context, invitationID string) error

	// DeleteExpiredVerificationCodes is housekeeping; removes rows past expiry.
	DeleteExpiredVerificationCodes(ctx context.Context) error
}
