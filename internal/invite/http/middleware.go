package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/jhaverinen/kutsu/internal/invite/domain"
	"github.com/jhaverinen/kutsu/internal/invite/service"
	"github.com/jhaverinen/kutsu/pkg/guestsdk"
	"github.com/jhaverinen/kutsu/pkg/httpx"
	"github.com/jhaverinen/kutsu/pkg/slogx"
)

type contextKey string

const sessionContextKey contextKey = "invite.session"

// SessionFromContext returns the session attached by SessionMiddleware.
func SessionFromContext(ctx context.Context) (domain.SessionData, bool) {
	data, ok := ctx.Value(sessionContextKey).(domain.SessionData)
	return data, ok
}

// SessionMiddleware resolves the session cookie to session data and attaches
// it to the request context. Requests without a valid session get 401; the
// stale cookie is cleared so clients stop resending it.
func SessionMiddleware(sessions *service.SessionService, secureCookies bool) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				httpx.WriteJSON(w, http.StatusUnauthorized, guestsdk.ErrorResponse{
					Error:            "unauthorized",
					ErrorDescription: "No session",
				})
				return
			}

			data, err := sessions.ValidateToken(r.Context(), cookie.Value)
			if err != nil {
				if errors.Is(err, service.ErrNoSession) {
					clearSessionCookie(w, secureCookies)
					httpx.WriteJSON(w, http.StatusUnauthorized, guestsdk.ErrorResponse{
						Error:            "unauthorized",
						ErrorDescription: "Session is invalid or expired",
					})
					return
				}
				slogx.FromContext(r.Context()).Error("session validation failed", "err", err)
				httpx.WriteJSON(w, http.StatusInternalServerError, guestsdk.ErrorResponse{
					Error:            "server_error",
					ErrorDescription: "Failed to validate session",
				})
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, data)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
