package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/jhaverinen/kutsu/internal/invite/service"
	"github.com/jhaverinen/kutsu/internal/invite/store"
	"github.com/jhaverinen/kutsu/pkg/httpx"
	"github.com/jhaverinen/kutsu/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion  string
	startTime     time.Time
	logger        *slog.Logger
	secureCookies bool
	adminToken    string

	store               store.Store
	InvitationService   *service.InvitationService
	SessionService      *service.SessionService
	VerificationService *service.VerificationService
}

func NewRouter(
	buildVersion string,
	secureCookies bool,
	adminToken string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:           http.NewServeMux(),
		buildVersion:  buildVersion,
		startTime:     time.Now(),
		logger:        logger,
		secureCookies: secureCookies,
		adminToken:    adminToken,
		store:         st,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerInvitation()
	r.registerAdmin()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	validateHandler := &ValidateHandler{
		InvitationService: r.InvitationService,
		SessionService:    r.SessionService,
		SecureCookies:     r.secureCookies,
	}

	// POST /auth/validate - strict rate limit by IP (code guessing surface)
	r.Mux.Handle("POST /v1/auth/validate",
		httpx.Chain(validateHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	logoutHandler := &LogoutHandler{
		SessionService: r.SessionService,
		SecureCookies:  r.secureCookies,
	}
	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(logoutHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerInvitation() {
	sessionGate := SessionMiddleware(r.SessionService, r.secureCookies)

	detailsHandler := &DetailsHandler{InvitationService: r.InvitationService}
	r.Mux.Handle("GET /v1/invitation/details",
		httpx.Chain(detailsHandler,
			sessionGate,
			httpx.RateLimitBySession(httpx.LenientLimit, SessionCookieName),
		),
	)

	rsvpHandler := &RSVPHandler{InvitationService: r.InvitationService}
	r.Mux.Handle("POST /v1/invitation/rsvp",
		httpx.Chain(rsvpHandler,
			sessionGate,
			httpx.RateLimitBySession(httpx.ModerateLimit, SessionCookieName),
		),
	)

	verificationHandler := &VerificationHandler{
		InvitationService:   r.InvitationService,
		VerificationService: r.VerificationService,
		SessionService:      r.SessionService,
		SecureCookies:       r.secureCookies,
	}

	r.Mux.Handle("GET /v1/invitation/send-verification",
		httpx.Chain(http.HandlerFunc(verificationHandler.HandleStatus),
			sessionGate,
			httpx.RateLimitBySession(httpx.LenientLimit, SessionCookieName),
		),
	)

	// The service applies its own per-invitation cooldown on top; this
	// limit just shields it from hammering.
	r.Mux.Handle("POST /v1/invitation/send-verification",
		httpx.Chain(http.HandlerFunc(verificationHandler.HandleSend),
			sessionGate,
			httpx.RateLimitBySession(httpx.ModerateLimit, SessionCookieName),
		),
	)

	// POST /verify-email - strict limit (prevent brute force of 6-digit codes)
	r.Mux.Handle("POST /v1/invitation/verify-email",
		httpx.Chain(http.HandlerFunc(verificationHandler.HandleVerify),
			sessionGate,
			httpx.RateLimitBySession(httpx.StrictLimit, SessionCookieName),
		),
	)
}

func (r *Router) registerAdmin() {
	h := &AdminSessionsHandler{
		SessionService: r.SessionService,
		AdminToken:     r.adminToken,
	}
	r.Mux.Handle("DELETE /v1/admin/invitations/{id}/sessions",
		httpx.Chain(h,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
