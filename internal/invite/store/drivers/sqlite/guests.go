package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/jhaverinen/kutsu/internal/invite/domain"
)

type guestsRepo struct {
	q queryer
}

const guestColumns = `id, invitation_id, name, is_primary, attending, dietary_restrictions, photography_consent, created_at, updated_at`

func (r *guestsRepo) CreateGuest(ctx context.Context, g domain.Guest) error {
	now := time.Now().UTC()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = now
	}
	if g.UpdatedAt.IsZero() {
		g.UpdatedAt = now
	}

	_, err := r.q.ExecContext(ctx,
		`INSERT INTO guest (`+guestColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.InvitationID, g.Name, g.IsPrimary, mapOptionalBool(g.Attending),
		g.DietaryRestrictions, g.PhotographyConsent, g.CreatedAt.UTC(), g.UpdatedAt.UTC(),
	)
	return err
}

func (r *guestsRepo) ListInvitationGuests(ctx context.Context, invitationID string) ([]domain.Guest, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+guestColumns+` FROM guest
		 WHERE invitation_id = ?
		 ORDER BY is_primary DESC, created_at ASC`, invitationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var guests []domain.Guest
	for rows.Next() {
		var g domain.Guest
		var attending sql.NullBool
		if err := rows.Scan(
			&g.ID, &g.InvitationID, &g.Name, &g.IsPrimary, &attending,
			&g.DietaryRestrictions, &g.PhotographyConsent, &g.CreatedAt, &g.UpdatedAt,
		); err != nil {
			return nil, err
		}
		g.Attending = mapNullBoolPtr(attending)
		guests = append(guests, g)
	}
	return guests, rows.Err()
}
