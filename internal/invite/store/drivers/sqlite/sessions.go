package sqlite

import (
	"context"
	"time"

	"github.com/jhaverinen/kutsu/internal/invite/domain"
)

type sessionsRepo struct {
	q queryer
}

const sessionColumns = `id, invitation_id, token_hash, email_verified, expires_at, last_accessed_at, created_at`

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO invitation_session (`+sessionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.InvitationID, s.TokenHash, s.EmailVerified,
		s.ExpiresAt.UTC(), s.LastAccessedAt.UTC(), s.CreatedAt.UTC(),
	)
	return err
}

func (r *sessionsRepo) GetSessionByTokenHash(ctx context.Context, hash string) (domain.Session, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM invitation_session WHERE token_hash = ?`, hash)
	return scanSession(row)
}

func (r *sessionsRepo) GetSessionByID(ctx context.Context, id string) (domain.Session, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM invitation_session WHERE id = ?`, id)
	return scanSession(row)
}

func (r *sessionsRepo) CountInvitationSessions(ctx context.Context, invitationID string) (int, error) {
	var count int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM invitation_session WHERE invitation_id = ?`, invitationID).
		Scan(&count)
	return count, err
}

func (r *sessionsRepo) DeleteOldestInvitationSession(ctx context.Context, invitationID string) error {
	// Tie-break on id so eviction stays deterministic when timestamps collide
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM invitation_session WHERE id = (
		   SELECT id FROM invitation_session
		   WHERE invitation_id = ?
		   ORDER BY created_at ASC, id ASC
		   LIMIT 1
		 )`, invitationID)
	return err
}

func (r *sessionsRepo) TouchSession(ctx context.Context, id string, at time.Time) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE invitation_session SET last_accessed_at = ? WHERE id = ?`, at.UTC(), id)
	return err
}

func (r *sessionsRepo) RotateSessionToken(ctx context.Context, id string, newHash string) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE invitation_session SET token_hash = ?, email_verified = 1 WHERE id = ?`,
		newHash, id)
	return err
}

func (r *sessionsRepo) DeleteSession(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM invitation_session WHERE id = ?`, id)
	return err
}

func (r *sessionsRepo) DeleteInvitationSessions(ctx context.Context, invitationID string) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM invitation_session WHERE invitation_id = ?`, invitationID)
	return err
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM invitation_session WHERE expires_at < ?`, time.Now().UTC())
	return err
}

func scanSession(row rowScanner) (domain.Session, error) {
	var s domain.Session
	err := row.Scan(
		&s.ID, &s.InvitationID, &s.TokenHash, &s.EmailVerified,
		&s.ExpiresAt, &s.LastAccessedAt, &s.CreatedAt,
	)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}
	return s, nil
}
