package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jhaverinen/kutsu/internal/invite/domain"
	"github.com/jhaverinen/kutsu/internal/invite/store"
	"github.com/jhaverinen/kutsu/pkg/cryptox"
	"github.com/jhaverinen/kutsu/pkg/idx"
	"github.com/jhaverinen/kutsu/pkg/slogx"
)

const (
	// SessionTTL is the fixed lifetime of an invitation session.
	SessionTTL = 30 * 24 * time.Hour

	// MaxSessionsPerInvitation caps live sessions per invitation to prevent
	// session flooding; creating one past the cap evicts the oldest.
	MaxSessionsPerInvitation = 5
)

var (
	// ErrNoSession is returned for tokens that are missing, malformed or
	// expired. Callers must not be able to tell those apart.
	ErrNoSession = errors.New("no session")

	// ErrSessionNotFound reports a lookup by session id that failed. Ids are
	// internal, so absence indicates a programming or race error, not bad
	// client input.
	ErrSessionNotFound = errors.New("session not found")
)

// SessionService owns the invitation session lifecycle: creation with cap
// enforcement, token validation, rotation on email verification, deletion.
type SessionService struct {
	Store store.Store
}

// Create issues a new session for an invitation and returns the raw bearer
// token. This is the only time the raw token is available; only its digest
// is stored.
func (s *SessionService) Create(ctx context.Context, invitationID string) (string, domain.SessionData, error) {
	log := slogx.FromContext(ctx)

	// Best-effort sweep of globally expired sessions; creation does not
	// depend on it succeeding.
	if err := s.Store.Sessions().DeleteExpiredSessions(ctx); err != nil {
		log.Warn("failed to sweep expired sessions", slog.Any("error", err))
	}

	token, err := cryptox.GenerateToken()
	if err != nil {
		log.Error("failed to generate session token", slog.Any("error", err))
		return "", domain.SessionData{}, err
	}

	now := time.Now().UTC()
	session := domain.Session{
		ID:             idx.New().String(),
		InvitationID:   invitationID,
		TokenHash:      cryptox.HashToken(token),
		EmailVerified:  false,
		ExpiresAt:      now.Add(SessionTTL),
		LastAccessedAt: now,
		CreatedAt:      now,
	}

	// Count-then-evict-then-insert runs in one transaction so the cap holds
	// even when two logins race on the same invitation.
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		count, err := tx.Sessions().CountInvitationSessions(ctx, invitationID)
		if err != nil {
			return err
		}

		if count >= MaxSessionsPerInvitation {
			if err := tx.Sessions().DeleteOldestInvitationSession(ctx, invitationID); err != nil {
				return err
			}
			log.Debug("evicted oldest session at cap",
				slog.String("invitation_id", invitationID),
				slog.Int("count", count),
			)
		}

		return tx.Sessions().CreateSession(ctx, session)
	})
	if err != nil {
		log.Error("failed to create session",
			slog.String("invitation_id", invitationID),
			slog.Any("error", err),
		)
		return "", domain.SessionData{}, err
	}

	log.Debug("session created",
		slog.String("session_id", session.ID),
		slog.String("invitation_id", invitationID),
		slog.Time("expires_at", session.ExpiresAt),
	)

	return token, sessionData(session), nil
}

// ValidateToken resolves a raw bearer token to session data, bumping
// last_accessed_at. Unknown and expired tokens both yield ErrNoSession;
// expired records are deleted on detection.
func (s *SessionService) ValidateToken(ctx context.Context, token string) (domain.SessionData, error) {
	log := slogx.FromContext(ctx)

	session, err := s.Store.Sessions().GetSessionByTokenHash(ctx, cryptox.HashToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.SessionData{}, ErrNoSession
		}
		log.Error("failed to look up session", slog.Any("error", err))
		return domain.SessionData{}, err
	}

	now := time.Now().UTC()
	if now.After(session.ExpiresAt) {
		if err := s.Store.Sessions().DeleteSession(ctx, session.ID); err != nil {
			log.Warn("failed to delete expired session",
				slog.String("session_id", session.ID),
				slog.Any("error", err),
			)
		}
		return domain.SessionData{}, ErrNoSession
	}

	if err := s.Store.Sessions().TouchSession(ctx, session.ID, now); err != nil {
		log.Error("failed to update last_accessed_at",
			slog.String("session_id", session.ID),
			slog.Any("error", err),
		)
		return domain.SessionData{}, err
	}

	return sessionData(session), nil
}

// MarkEmailVerified rotates the session token and flips email_verified,
// preserving the original expiry. Rotation invalidates any token that may
// have leaked before verification. Returns the new raw token for cookie
// replacement.
func (s *SessionService) MarkEmailVerified(ctx context.Context, sessionID string) (string, time.Time, error) {
	log := slogx.FromContext(ctx)

	session, err := s.Store.Sessions().GetSessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Internal-only call; the caller controls the id
			return "", time.Time{}, ErrSessionNotFound
		}
		log.Error("failed to fetch session", slog.Any("error", err))
		return "", time.Time{}, err
	}

	newToken, err := cryptox.GenerateToken()
	if err != nil {
		log.Error("failed to generate rotated token", slog.Any("error", err))
		return "", time.Time{}, err
	}

	if err := s.Store.Sessions().RotateSessionToken(ctx, sessionID, cryptox.HashToken(newToken)); err != nil {
		log.Error("failed to rotate session token",
			slog.String("session_id", sessionID),
			slog.Any("error", err),
		)
		return "", time.Time{}, err
	}

	log.Info("session email verified",
		slog.String("session_id", sessionID),
		slog.String("invitation_id", session.InvitationID),
	)

	return newToken, session.ExpiresAt, nil
}

// Delete removes a single session (logout).
func (s *SessionService) Delete(ctx context.Context, sessionID string) error {
	return s.Store.Sessions().DeleteSession(ctx, sessionID)
}

// DeleteForInvitation removes every session for an invitation
// (administrative invalidation).
func (s *SessionService) DeleteForInvitation(ctx context.Context, invitationID string) error {
	return s.Store.Sessions().DeleteInvitationSessions(ctx, invitationID)
}

func sessionData(s domain.Session) domain.SessionData {
	return domain.SessionData{
		ID:            s.ID,
		InvitationID:  s.InvitationID,
		EmailVerified: s.EmailVerified,
		ExpiresAt:     s.ExpiresAt,
	}
}
