package sqlite

import (
	"context"
	"time"

	"github.com/jhaverinen/kutsu/internal/invite/domain"
)

type rsvpsRepo struct {
	q queryer
}

func (r *rsvpsRepo) GetRSVPByInvitationID(ctx context.Context, invitationID string) (domain.RSVP, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT id, invitation_id, email, attending, guest_count, message, submitted_at, updated_at
		 FROM rsvp WHERE invitation_id = ?`, invitationID)

	var rec domain.RSVP
	err := row.Scan(
		&rec.ID, &rec.InvitationID, &rec.Email, &rec.Attending, &rec.GuestCount,
		&rec.Message, &rec.SubmittedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return domain.RSVP{}, mapNotFound(err)
	}
	return rec, nil
}

func (r *rsvpsRepo) UpsertRSVP(ctx context.Context, rec domain.RSVP) error {
	now := time.Now().UTC()
	if rec.SubmittedAt.IsZero() {
		rec.SubmittedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}

	// One reply per invitation; re-submitting replaces the answer but keeps
	// the original submitted_at.
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO rsvp (id, invitation_id, email, attending, guest_count, message, submitted_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (invitation_id) DO UPDATE SET
		   email = excluded.email,
		   attending = excluded.attending,
		   guest_count = excluded.guest_count,
		   message = excluded.message,
		   updated_at = excluded.updated_at`,
		rec.ID, rec.InvitationID, rec.Email, rec.Attending, rec.GuestCount,
		rec.Message, rec.SubmittedAt.UTC(), rec.UpdatedAt.UTC(),
	)
	return err
}
