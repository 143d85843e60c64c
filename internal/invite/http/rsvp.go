package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"

	"github.com/jhaverinen/kutsu/internal/invite/service"
	"github.com/jhaverinen/kutsu/pkg/guestsdk"
	"github.com/jhaverinen/kutsu/pkg/httpx"
	"github.com/jhaverinen/kutsu/pkg/slogx"
)

// RSVPHandler records or replaces the reply for the session's invitation.
type RSVPHandler struct {
	InvitationService *service.InvitationService
}

func (h *RSVPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	session, ok := SessionFromContext(ctx)
	if !ok {
		httpx.WriteJSON(w, http.StatusUnauthorized, guestsdk.ErrorResponse{
			Error:            "unauthorized",
			ErrorDescription: "No session",
		})
		return
	}

	var req guestsdk.RSVPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, guestsdk.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "Invalid JSON body",
		})
		return
	}

	if _, err := mail.ParseAddress(req.Email); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, guestsdk.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "A valid email address is required",
		})
		return
	}
	if req.GuestCount < 0 {
		httpx.WriteJSON(w, http.StatusBadRequest, guestsdk.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "guest_count must not be negative",
		})
		return
	}

	rsvp, err := h.InvitationService.SubmitRSVP(ctx, session.InvitationID, service.RSVPInput{
		Email:      req.Email,
		Attending:  req.Attending,
		GuestCount: req.GuestCount,
		Message:    req.Message,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvitationNotFound) {
			httpx.WriteJSON(w, http.StatusNotFound, guestsdk.ErrorResponse{
				Error:            "not_found",
				ErrorDescription: "Invitation no longer exists",
			})
			return
		}
		slogx.FromContext(ctx).Error("failed to submit rsvp", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, guestsdk.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to save RSVP",
		})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, guestsdk.RSVPResponse{
		InvitationID: rsvp.InvitationID,
		Attending:    rsvp.Attending,
		GuestCount:   rsvp.GuestCount,
		SubmittedAt:  rsvp.SubmittedAt,
	})
}
