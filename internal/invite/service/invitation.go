package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jhaverinen/kutsu/internal/invite/domain"
	"github.com/jhaverinen/kutsu/internal/invite/store"
	"github.com/jhaverinen/kutsu/pkg/idx"
	"github.com/jhaverinen/kutsu/pkg/slogx"
)

var (
	// ErrInvitationNotFound covers both unknown invitation codes and unknown
	// ids; callers decide how much to reveal.
	ErrInvitationNotFound = errors.New("invitation not found")

	// ErrNoRSVP is returned when an operation needs a submitted reply and
	// none exists yet.
	ErrNoRSVP = errors.New("no rsvp submitted")
)

// InvitationDetails aggregates everything the details endpoint may expose.
// Guests and RSVP stay nil until the caller is allowed to see them.
type InvitationDetails struct {
	Invitation domain.Invitation
	Guests     []domain.Guest
	RSVP       *domain.RSVP
	HasRSVP    bool
}

// RSVPInput is the guest-submitted reply payload.
type RSVPInput struct {
	Email      string
	Attending  bool
	GuestCount int
	Message    string
}

// InvitationService resolves invitation codes, aggregates invitation detail
// and owns the single RSVP record per invitation.
type InvitationService struct {
	Store store.Store
}

// NormalizeCode canonicalizes a printed invitation code for lookup.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Authenticate resolves an invitation code to its invitation. Unknown codes
// yield ErrInvitationNotFound without hinting whether the code ever existed.
func (s *InvitationService) Authenticate(ctx context.Context, code string) (domain.Invitation, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return domain.Invitation{}, ErrInvitationNotFound
	}

	inv, err := s.Store.Invitations().GetInvitationByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Invitation{}, ErrInvitationNotFound
		}
		slogx.FromContext(ctx).Error("failed to look up invitation", slog.Any("error", err))
		return domain.Invitation{}, err
	}
	return inv, nil
}

// Details loads an invitation with its guests and reply. Guest and RSVP data
// is withheld unless the session's email address has been verified; before a
// reply exists there is nothing sensitive to hide, so the gate only engages
// once an RSVP is on file.
func (s *InvitationService) Details(ctx context.Context, invitationID string, emailVerified bool) (InvitationDetails, error) {
	log := slogx.FromContext(ctx)

	inv, err := s.Store.Invitations().GetInvitationByID(ctx, invitationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return InvitationDetails{}, ErrInvitationNotFound
		}
		log.Error("failed to fetch invitation", slog.Any("error", err))
		return InvitationDetails{}, err
	}

	details := InvitationDetails{Invitation: inv}

	rsvp, err := s.Store.RSVPs().GetRSVPByInvitationID(ctx, invitationID)
	switch {
	case err == nil:
		details.HasRSVP = true
	case errors.Is(err, store.ErrNotFound):
		// No reply yet.
	default:
		log.Error("failed to fetch rsvp", slog.Any("error", err))
		return InvitationDetails{}, err
	}

	if details.HasRSVP && !emailVerified {
		return details, nil
	}

	guests, err := s.Store.Guests().ListInvitationGuests(ctx, invitationID)
	if err != nil {
		log.Error("failed to list guests", slog.Any("error", err))
		return InvitationDetails{}, err
	}
	details.Guests = guests
	if details.HasRSVP {
		details.RSVP = &rsvp
	}

	return details, nil
}

// RSVPEmail returns the reply address on file for an invitation.
func (s *InvitationService) RSVPEmail(ctx context.Context, invitationID string) (string, error) {
	rsvp, err := s.Store.RSVPs().GetRSVPByInvitationID(ctx, invitationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrNoRSVP
		}
		return "", err
	}
	return rsvp.Email, nil
}

// SubmitRSVP inserts or replaces the reply for an invitation.
func (s *InvitationService) SubmitRSVP(ctx context.Context, invitationID string, in RSVPInput) (domain.RSVP, error) {
	log := slogx.FromContext(ctx)

	if _, err := s.Store.Invitations().GetInvitationByID(ctx, invitationID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.RSVP{}, ErrInvitationNotFound
		}
		return domain.RSVP{}, err
	}

	now := time.Now().UTC()
	rsvp := domain.RSVP{
		ID:           idx.New().String(),
		InvitationID: invitationID,
		Email:        strings.TrimSpace(strings.ToLower(in.Email)),
		Attending:    in.Attending,
		GuestCount:   in.GuestCount,
		Message:      in.Message,
		SubmittedAt:  now,
		UpdatedAt:    now,
	}

	if err := s.Store.RSVPs().UpsertRSVP(ctx, rsvp); err != nil {
		log.Error("failed to upsert rsvp",
			slog.String("invitation_id", invitationID),
			slog.Any("error", err),
		)
		return domain.RSVP{}, err
	}

	log.Info("rsvp recorded",
		slog.String("invitation_id", invitationID),
		slog.Bool("attending", in.Attending),
	)

	return rsvp, nil
}

// DeleteInvitation removes an invitation and, via schema cascade, its guests,
// reply, sessions and verification codes.
func (s *InvitationService) DeleteInvitation(ctx context.Context, invitationID string) error {
	return s.Store.Invitations().DeleteInvitation(ctx, invitationID)
}
