package http

import (
	"net/http"
	"strings"

	"github.com/jhaverinen/kutsu/internal/invite/service"
	"github.com/jhaverinen/kutsu/pkg/cryptox"
	"github.com/jhaverinen/kutsu/pkg/guestsdk"
	"github.com/jhaverinen/kutsu/pkg/httpx"
	"github.com/jhaverinen/kutsu/pkg/slogx"
)

// AdminSessionsHandler force-invalidates every session for an invitation.
// Guarded by a shared bearer token compared in constant time.
type AdminSessionsHandler struct {
	SessionService *service.SessionService
	AdminToken     string
}

func (h *AdminSessionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !h.authorized(r) {
		httpx.WriteJSON(w, http.StatusUnauthorized, guestsdk.ErrorResponse{
			Error:            "unauthorized",
			ErrorDescription: "Invalid admin token",
		})
		return
	}

	invitationID := r.PathValue("id")
	if invitationID == "" {
		httpx.WriteJSON(w, http.StatusBadRequest, guestsdk.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "invitation id is required",
		})
		return
	}

	if err := h.SessionService.DeleteForInvitation(ctx, invitationID); err != nil {
		slogx.FromContext(ctx).Error("failed to delete invitation sessions", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, guestsdk.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to delete sessions",
		})
		return
	}

	slogx.FromContext(ctx).Info("invalidated invitation sessions", "invitation_id", invitationID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminSessionsHandler) authorized(r *http.Request) bool {
	// Endpoint disabled entirely when no token is configured
	if h.AdminToken == "" {
		return false
	}

	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return false
	}
	return cryptox.ConstantTimeEquals(token, h.AdminToken)
}
