package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jhaverinen/kutsu/internal/invite/domain"
	"github.com/jhaverinen/kutsu/internal/invite/service"
	"github.com/jhaverinen/kutsu/pkg/guestsdk"
	"github.com/jhaverinen/kutsu/pkg/httpx"
	"github.com/jhaverinen/kutsu/pkg/slogx"
)

// VerificationHandler drives the emailed code flow: GET probes the send
// cooldown, HandleSend issues a code to the RSVP address, HandleVerify
// checks a submitted code and rotates the session cookie on success.
type VerificationHandler struct {
	InvitationService   *service.InvitationService
	VerificationService *service.VerificationService
	SessionService      *service.SessionService
	SecureCookies       bool
}

func (h *VerificationHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	session, ok := SessionFromContext(ctx)
	if !ok {
		httpx.WriteJSON(w, http.StatusUnauthorized, guestsdk.ErrorResponse{
			Error:            "unauthorized",
			ErrorDescription: "No session",
		})
		return
	}

	ends, err := h.VerificationService.CooldownStatus(ctx, session.InvitationID)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to read cooldown status", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, guestsdk.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to read verification status",
		})
		return
	}

	resp := guestsdk.CooldownStatusResponse{CooldownActive: !ends.IsZero()}
	if !ends.IsZero() {
		resp.CooldownEndsAt = &ends
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *VerificationHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	session, ok := SessionFromContext(ctx)
	if !ok {
		httpx.WriteJSON(w, http.StatusUnauthorized, guestsdk.ErrorResponse{
			Error:            "unauthorized",
			ErrorDescription: "No session",
		})
		return
	}

	// The code goes to the address on the reply, so a reply must exist.
	address, err := h.InvitationService.RSVPEmail(ctx, session.InvitationID)
	if err != nil {
		if errors.Is(err, service.ErrNoRSVP) {
			httpx.WriteJSON(w, http.StatusNotFound, guestsdk.ErrorResponse{
				Error:            "no_rsvp",
				ErrorDescription: "Submit an RSVP before verifying an email address",
			})
			return
		}
		log.Error("failed to load rsvp email", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, guestsdk.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to send verification code",
		})
		return
	}

	result, err := h.VerificationService.SendCode(ctx, session.InvitationID, address)
	if err != nil {
		log.Error("failed to send verification code", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, guestsdk.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to send verification code",
		})
		return
	}

	if !result.CodeSent {
		switch result.Reason {
		case domain.SendFailCooldown:
			ends := result.CooldownEndsAt
			httpx.WriteJSON(w, http.StatusTooManyRequests, guestsdk.SendVerificationResponse{
				Success:        false,
				CooldownEndsAt: &ends,
			})
		case domain.SendFailRateLimit:
			httpx.WriteJSON(w, http.StatusBadRequest, guestsdk.ErrorResponse{
				Error:            "rate_limited",
				ErrorDescription: "Too many verification codes requested, try again later",
			})
		}
		return
	}

	ends := result.CooldownEndsAt
	httpx.WriteJSON(w, http.StatusOK, guestsdk.SendVerificationResponse{
		Success:        true,
		CooldownEndsAt: &ends,
	})
}

func (h *VerificationHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	session, ok := SessionFromContext(ctx)
	if !ok {
		httpx.WriteJSON(w, http.StatusUnauthorized, guestsdk.ErrorResponse{
			Error:            "unauthorized",
			ErrorDescription: "No session",
		})
		return
	}

	var req guestsdk.VerifyEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		httpx.WriteJSON(w, http.StatusBadRequest, guestsdk.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "code is required",
		})
		return
	}

	result, err := h.VerificationService.ValidateCode(ctx, session.InvitationID, req.Code)
	if err != nil {
		if errors.Is(err, service.ErrNoPendingCode) {
			httpx.WriteJSON(w, http.StatusBadRequest, guestsdk.VerifyEmailResponse{
				Success: false,
				Reason:  string(domain.ValidationFailInvalid),
			})
			return
		}
		log.Error("failed to validate verification code", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, guestsdk.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to verify code",
		})
		return
	}

	if !result.Valid {
		httpx.WriteJSON(w, http.StatusBadRequest, guestsdk.VerifyEmailResponse{
			Success: false,
			Reason:  string(result.Reason),
		})
		return
	}

	newToken, expiresAt, err := h.SessionService.MarkEmailVerified(ctx, session.ID)
	if err != nil {
		log.Error("failed to mark session verified", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, guestsdk.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to verify code",
		})
		return
	}

	setSessionCookie(w, newToken, expiresAt, h.SecureCookies)
	httpx.WriteJSON(w, http.StatusOK, guestsdk.VerifyEmailResponse{
		Success: true,
		Email:   result.Email,
	})
}
