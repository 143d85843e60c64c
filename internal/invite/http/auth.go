package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jhaverinen/kutsu/internal/invite/service"
	"github.com/jhaverinen/kutsu/pkg/guestsdk"
	"github.com/jhaverinen/kutsu/pkg/httpx"
	"github.com/jhaverinen/kutsu/pkg/slogx"
)

// ValidateHandler exchanges an invitation code for a session cookie.
type ValidateHandler struct {
	InvitationService *service.InvitationService
	SessionService    *service.SessionService
	SecureCookies     bool
}

func (h *ValidateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req guestsdk.ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, guestsdk.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "Invalid JSON body",
		})
		return
	}

	inv, err := h.InvitationService.Authenticate(ctx, req.Code)
	if err != nil {
		if errors.Is(err, service.ErrInvitationNotFound) {
			// Same response for unknown, blank and malformed codes
			httpx.WriteJSON(w, http.StatusBadRequest, guestsdk.ErrorResponse{
				Error:            "invalid_code",
				ErrorDescription: "Invitation code is not valid",
			})
			return
		}
		log.Error("failed to authenticate invitation", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, guestsdk.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to validate invitation code",
		})
		return
	}

	token, data, err := h.SessionService.Create(ctx, inv.ID)
	if err != nil {
		log.Error("failed to create session", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, guestsdk.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to create session",
		})
		return
	}

	setSessionCookie(w, token, data.ExpiresAt, h.SecureCookies)
	httpx.WriteJSON(w, http.StatusOK, guestsdk.ValidateResponse{
		InvitationID:     inv.ID,
		PrimaryGuestName: inv.PrimaryGuestName,
		SessionExpiresAt: data.ExpiresAt,
	})
}

// LogoutHandler clears the session cookie. The server-side delete is best
// effort; logout always succeeds from the client's point of view.
type LogoutHandler struct {
	SessionService *service.SessionService
	SecureCookies  bool
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		if data, err := h.SessionService.ValidateToken(ctx, cookie.Value); err == nil {
			if err := h.SessionService.Delete(ctx, data.ID); err != nil {
				slogx.FromContext(ctx).Warn("failed to delete session on logout", "err", err)
			}
		}
	}

	clearSessionCookie(w, h.SecureCookies)
	w.WriteHeader(http.StatusNoContent)
}
