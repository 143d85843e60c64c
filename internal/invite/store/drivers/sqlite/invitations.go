package sqlite

import (
	"context"
	"time"

	"github.com/jhaverinen/kutsu/internal/invite/domain"
)

type invitationsRepo struct {
	q queryer
}

const invitationColumns = `id, code, primary_guest_name, max_guests, notes, created_at, updated_at`

func (r *invitationsRepo) CreateInvitation(ctx context.Context, inv domain.Invitation) error {
	now := time.Now().UTC()
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = now
	}
	if inv.UpdatedAt.IsZero() {
		inv.UpdatedAt = now
	}

	_, err := r.q.ExecContext(ctx,
		`INSERT INTO invitation (`+invitationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.Code, inv.PrimaryGuestName, inv.MaxGuests, inv.Notes,
		inv.CreatedAt.UTC(), inv.UpdatedAt.UTC(),
	)
	return err
}

func (r *invitationsRepo) GetInvitationByID(ctx context.Context, id string) (domain.Invitation, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+invitationColumns+` FROM invitation WHERE id = ?`, id)
	return scanInvitation(row)
}

func (r *invitationsRepo) GetInvitationByCode(ctx context.Context, code string) (domain.Invitation, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+invitationColumns+` FROM invitation WHERE code = ?`, code)
	return scanInvitation(row)
}

func (r *invitationsRepo) DeleteInvitation(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM invitation WHERE id = ?`, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvitation(row rowScanner) (domain.Invitation, error) {
	var inv domain.Invitation
	err := row.Scan(
		&inv.ID, &inv.Code, &inv.PrimaryGuestName, &inv.MaxGuests, &inv.Notes,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return domain.Invitation{}, mapNotFound(err)
	}
	return inv, nil
}
