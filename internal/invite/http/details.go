package http

import (
	"errors"
	"net/http"

	"github.com/jhaverinen/kutsu/internal/invite/domain"
	"github.com/jhaverinen/kutsu/internal/invite/service"
	"github.com/jhaverinen/kutsu/pkg/guestsdk"
	"github.com/jhaverinen/kutsu/pkg/httpx"
	"github.com/jhaverinen/kutsu/pkg/slogx"
)

// DetailsHandler returns the invitation detail view for the current session.
// Guest and reply data stays hidden until the session's email is verified.
type DetailsHandler struct {
	InvitationService *service.InvitationService
}

func (h *DetailsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	session, ok := SessionFromContext(ctx)
	if !ok {
		httpx.WriteJSON(w, http.StatusUnauthorized, guestsdk.ErrorResponse{
			Error:            "unauthorized",
			ErrorDescription: "No session",
		})
		return
	}

	details, err := h.InvitationService.Details(ctx, session.InvitationID, session.EmailVerified)
	if err != nil {
		if errors.Is(err, service.ErrInvitationNotFound) {
			// Session outlived its invitation
			httpx.WriteJSON(w, http.StatusNotFound, guestsdk.ErrorResponse{
				Error:            "not_found",
				ErrorDescription: "Invitation no longer exists",
			})
			return
		}
		slogx.FromContext(ctx).Error("failed to load invitation details", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, guestsdk.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to load invitation",
		})
		return
	}

	resp := guestsdk.DetailsResponse{
		InvitationID:              details.Invitation.ID,
		PrimaryGuestName:          details.Invitation.PrimaryGuestName,
		MaxGuests:                 details.Invitation.MaxGuests,
		Notes:                     details.Invitation.Notes,
		RequiresEmailVerification: details.HasRSVP && !session.EmailVerified,
		CanSubmitRSVP:             !details.HasRSVP,
	}

	for _, g := range details.Guests {
		resp.Guests = append(resp.Guests, toSDKGuest(g))
	}
	if details.RSVP != nil {
		rsvp := toSDKRSVP(*details.RSVP)
		resp.RSVP = &rsvp
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}

func toSDKGuest(g domain.Guest) guestsdk.Guest {
	return guestsdk.Guest{
		ID:                  g.ID,
		Name:                g.Name,
		IsPrimary:           g.IsPrimary,
		Attending:           g.Attending,
		DietaryRestrictions: g.DietaryRestrictions,
		PhotographyConsent:  g.PhotographyConsent,
	}
}

func toSDKRSVP(r domain.RSVP) guestsdk.RSVP {
	return guestsdk.RSVP{
		Email:       r.Email,
		Attending:   r.Attending,
		GuestCount:  r.GuestCount,
		Message:     r.Message,
		SubmittedAt: r.SubmittedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
