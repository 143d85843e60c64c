package app

import (
	"context"
	"errors"
	"time"

	"github.com/jhaverinen/kutsu/internal/invite/domain"
	"github.com/jhaverinen/kutsu/internal/invite/store"
	"github.com/jhaverinen/kutsu/pkg/idx"
)

// Seed inserts a handful of sample invitations for local development.
// Existing codes are left alone so seeding is safe to re-run.
func (app *Application) Seed(ctx context.Context) error {
	samples := []struct {
		code      string
		primary   string
		maxGuests int
		guests    []string
	}{
		{"WED-ALICE1", "Alice Virtanen", 2, []string{"Alice Virtanen", "Antti Virtanen"}},
		{"WED-BOB002", "Bob Korhonen", 1, []string{"Bob Korhonen"}},
		{"WED-CARO03", "Carol Nieminen", 4, []string{"Carol Nieminen", "Chris Nieminen", "Casper Nieminen", "Cecilia Nieminen"}},
	}

	now := time.Now().UTC()
	for _, sample := range samples {
		if _, err := app.db.Invitations().GetInvitationByCode(ctx, sample.code); err == nil {
			continue
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		inv := domain.Invitation{
			ID:               idx.New().String(),
			Code:             sample.code,
			PrimaryGuestName: sample.primary,
			MaxGuests:        sample.maxGuests,
			Notes:            "Seeded for development",
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := app.db.Invitations().CreateInvitation(ctx, inv); err != nil {
			return err
		}

		for i, name := range sample.guests {
			guest := domain.Guest{
				ID:           idx.New().String(),
				InvitationID: inv.ID,
				Name:         name,
				IsPrimary:    i == 0,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := app.db.Guests().CreateGuest(ctx, guest); err != nil {
				return err
			}
		}

		app.logger.Info("seeded invitation", "code", sample.code, "guests", len(sample.guests))
	}

	return nil
}
