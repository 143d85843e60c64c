package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jhaverinen/kutsu/internal/invite/domain"
	"github.com/jhaverinen/kutsu/internal/invite/service"
	"github.com/jhaverinen/kutsu/internal/invite/store"
	"github.com/jhaverinen/kutsu/internal/invite/store/drivers/sqlite"
	"github.com/jhaverinen/kutsu/pkg/guestsdk"
	"github.com/jhaverinen/kutsu/pkg/idx"
	"github.com/jhaverinen/kutsu/pkg/slogx"
	"github.com/stretchr/testify/require"
)

const testAdminToken = "test-admin-token"

// captureMailer records sent codes instead of delivering them.
type captureMailer struct {
	mu    sync.Mutex
	codes []string
}

func (m *captureMailer) SendVerificationCode(_ context.Context, _, code string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes = append(m.codes, code)
	return nil
}

func (m *captureMailer) lastCode(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.codes)
	return m.codes[len(m.codes)-1]
}

type testEnv struct {
	store  store.Store
	mailer *captureMailer
	server *httptest.Server
	inv    domain.Invitation
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())

	now := time.Now().UTC()
	inv := domain.Invitation{
		ID:               idx.New().String(),
		Code:             "WED-TEST42",
		PrimaryGuestName: "Alice Example",
		MaxGuests:        2,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	require.NoError(t, s.Invitations().CreateInvitation(context.Background(), inv))

	guest := domain.Guest{
		ID:           idx.New().String(),
		InvitationID: inv.ID,
		Name:         "Alice Example",
		IsPrimary:    true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, s.Guests().CreateGuest(context.Background(), guest))

	mailer := &captureMailer{}
	logger := slogx.New(slogx.Config{Service: "kutsu-test", Level: "error", Format: "text"})

	r := NewRouter("test", false, testAdminToken, s, logger)
	r.InvitationService = &service.InvitationService{Store: s}
	r.SessionService = &service.SessionService{Store: s}
	r.VerificationService = &service.VerificationService{Store: s, Mailer: mailer}
	r.ApplyRoutes()

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	return &testEnv{store: s, mailer: mailer, server: server, inv: inv}
}

func (e *testEnv) client(t *testing.T) *guestsdk.Client {
	t.Helper()
	c, err := guestsdk.NewClient(e.server.URL)
	require.NoError(t, err)
	return c
}

func TestGuestFlowEndToEnd(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	client := env.client(t)

	// Login with a sloppily typed but valid code.
	login, err := client.Validate(ctx, "  wed-test42 ")
	require.NoError(t, err)
	require.Equal(t, env.inv.ID, login.InvitationID)
	require.Equal(t, "Alice Example", login.PrimaryGuestName)

	// Before any RSVP the details are open and invite a reply.
	details, err := client.Details(ctx)
	require.NoError(t, err)
	require.False(t, details.RequiresEmailVerification)
	require.True(t, details.CanSubmitRSVP)
	require.Len(t, details.Guests, 1)

	// Submit the reply; detail access now demands verification.
	_, err = client.SubmitRSVP(ctx, guestsdk.RSVPRequest{
		Email:      "alice@example.com",
		Attending:  true,
		GuestCount: 2,
	})
	require.NoError(t, err)

	details, err = client.Details(ctx)
	require.NoError(t, err)
	require.True(t, details.RequiresEmailVerification)
	require.False(t, details.CanSubmitRSVP)
	require.Empty(t, details.Guests)
	require.Nil(t, details.RSVP)

	// Request a code and verify it; the cookie rotates underneath.
	sent, err := client.SendVerification(ctx)
	require.NoError(t, err)
	require.True(t, sent.Success)
	require.NotNil(t, sent.CooldownEndsAt)

	verified, err := client.VerifyEmail(ctx, env.mailer.lastCode(t))
	require.NoError(t, err)
	require.True(t, verified.Success)
	require.Equal(t, "alice@example.com", verified.Email)

	// The rotated session sees the full picture.
	details, err = client.Details(ctx)
	require.NoError(t, err)
	require.False(t, details.RequiresEmailVerification)
	require.Len(t, details.Guests, 1)
	require.NotNil(t, details.RSVP)
	require.Equal(t, "alice@example.com", details.RSVP.Email)

	// Logout kills the session.
	require.NoError(t, client.Logout(ctx))

	_, err = client.Details(ctx)
	var apiErr *guestsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestValidateRejectsUnknownCode(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	client := env.client(t)

	_, err := client.Validate(ctx, "WED-NOPE")
	var apiErr *guestsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Equal(t, "invalid_code", apiErr.Code)
}

func TestDetailsRequiresSession(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	client := env.client(t)

	_, err := client.Details(ctx)
	var apiErr *guestsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestSendVerificationRequiresRSVP(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	client := env.client(t)

	_, err := client.Validate(ctx, env.inv.Code)
	require.NoError(t, err)

	_, err = client.SendVerification(ctx)
	var apiErr *guestsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	require.Equal(t, "no_rsvp", apiErr.Code)
}

func TestSendVerificationCooldown(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	client := env.client(t)

	_, err := client.Validate(ctx, env.inv.Code)
	require.NoError(t, err)

	_, err = client.SubmitRSVP(ctx, guestsdk.RSVPRequest{Email: "alice@example.com", Attending: true, GuestCount: 1})
	require.NoError(t, err)

	first, err := client.SendVerification(ctx)
	require.NoError(t, err)
	require.True(t, first.Success)

	// Probe reports the active cooldown.
	status, err := client.VerificationStatus(ctx)
	require.NoError(t, err)
	require.True(t, status.CooldownActive)
	require.NotNil(t, status.CooldownEndsAt)

	// Immediate resend is refused with 429.
	resp, err := client.SendVerification(ctx)
	if err != nil {
		var apiErr *guestsdk.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	} else {
		t.Fatalf("expected cooldown refusal, got %+v", resp)
	}
}

func TestVerifyEmailWrongCode(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	client := env.client(t)

	_, err := client.Validate(ctx, env.inv.Code)
	require.NoError(t, err)
	_, err = client.SubmitRSVP(ctx, guestsdk.RSVPRequest{Email: "alice@example.com", Attending: true, GuestCount: 1})
	require.NoError(t, err)
	_, err = client.SendVerification(ctx)
	require.NoError(t, err)

	wrong := "000000"
	if wrong == env.mailer.lastCode(t) {
		wrong = "000001"
	}

	_, err = client.VerifyEmail(ctx, wrong)
	var apiErr *guestsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

	// The right code still works afterwards.
	verified, err := client.VerifyEmail(ctx, env.mailer.lastCode(t))
	require.NoError(t, err)
	require.True(t, verified.Success)
}

func TestAdminSessionInvalidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	client := env.client(t)

	_, err := client.Validate(ctx, env.inv.Code)
	require.NoError(t, err)

	url := env.server.URL + "/v1/admin/invitations/" + env.inv.ID + "/sessions"

	t.Run("rejects missing token", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodDelete, url, nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("rejects wrong token", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodDelete, url, nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer wrong-token")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("invalidates all sessions", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodDelete, url, nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+testAdminToken)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusNoContent, resp.StatusCode)

		_, err = client.Details(ctx)
		var apiErr *guestsdk.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	})
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.server.URL + "/livez")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp2, err := http.Get(env.server.URL + "/readyz")
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)
}

func TestLogoutWithoutSession(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	client := env.client(t)

	// Logout with no cookie still clears and succeeds.
	require.NoError(t, client.Logout(ctx))
}
