package invite_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/jhaverinen/kutsu/internal/invite/app"
	"github.com/jhaverinen/kutsu/pkg/guestsdk"
	"github.com/stretchr/testify/require"
)

/*
 * End-to-end tests for the guest API. These boot the fully wired application
 * (config, migrations, seeding, mailer selection) against a temporary
 * database file and drive it through the typed SDK, exactly as a browser
 * frontend would short of the network hop.
 */

func setupApplication(t *testing.T) (string, *app.Application) {
	t.Helper()

	cfg := app.LoadConfig()
	cfg.DatabaseFile = filepath.Join(t.TempDir(), "kutsu-e2e.db")
	cfg.Env = "test"
	cfg.LogLevel = "error"
	cfg.LogFormat = "text"
	cfg.ResendAPIKey = "" // force the log mailer; no outbound email in tests
	cfg.AdminToken = "e2e-admin-token"

	application, err := app.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.Close() })

	require.NoError(t, application.Seed(context.Background()))

	server := httptest.NewServer(application.Handler())
	t.Cleanup(server.Close)

	return server.URL, application
}

func newClient(t *testing.T, baseURL string) *guestsdk.Client {
	t.Helper()
	client, err := guestsdk.NewClient(baseURL)
	require.NoError(t, err)
	return client
}

func TestHealthEndpoints(t *testing.T) {
	baseURL, _ := setupApplication(t)

	for _, path := range []string{"/livez", "/readyz"} {
		resp, err := http.Get(baseURL + path)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		_ = resp.Body.Close()
	}
}

func TestSeededGuestFlow(t *testing.T) {
	ctx := context.Background()
	baseURL, _ := setupApplication(t)
	client := newClient(t, baseURL)

	// Seeded codes are usable straight away, case-insensitively.
	login, err := client.Validate(ctx, "wed-alice1")
	require.NoError(t, err)
	require.Equal(t, "Alice Virtanen", login.PrimaryGuestName)
	require.WithinDuration(t, time.Now().Add(30*24*time.Hour), login.SessionExpiresAt, time.Minute)

	details, err := client.Details(ctx)
	require.NoError(t, err)
	require.True(t, details.CanSubmitRSVP)
	require.Len(t, details.Guests, 2)

	_, err = client.SubmitRSVP(ctx, guestsdk.RSVPRequest{
		Email:      "alice@example.com",
		Attending:  true,
		GuestCount: 2,
		Message:    "See you there!",
	})
	require.NoError(t, err)

	// Once a reply exists the details lock down until the email is verified.
	details, err = client.Details(ctx)
	require.NoError(t, err)
	require.True(t, details.RequiresEmailVerification)
	require.Empty(t, details.Guests)

	// The code went to the log mailer, so verification stops here; the
	// send itself must still succeed and start a cooldown.
	sent, err := client.SendVerification(ctx)
	require.NoError(t, err)
	require.True(t, sent.Success)
	require.NotNil(t, sent.CooldownEndsAt)

	status, err := client.VerificationStatus(ctx)
	require.NoError(t, err)
	require.True(t, status.CooldownActive)

	require.NoError(t, client.Logout(ctx))

	_, err = client.Details(ctx)
	var apiErr *guestsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	_, application := setupApplication(t)

	// Re-running the seeder must not duplicate or error.
	require.NoError(t, application.Seed(ctx))
	require.NoError(t, application.Seed(ctx))
}

func TestSessionsSurviveRestart(t *testing.T) {
	ctx := context.Background()

	cfg := app.LoadConfig()
	cfg.DatabaseFile = filepath.Join(t.TempDir(), "kutsu-restart.db")
	cfg.Env = "test"
	cfg.LogLevel = "error"
	cfg.LogFormat = "text"
	cfg.ResendAPIKey = ""

	first, err := app.New(cfg)
	require.NoError(t, err)
	require.NoError(t, first.Seed(ctx))

	server := httptest.NewServer(first.Handler())
	client := newClient(t, server.URL)

	_, err = client.Validate(ctx, "WED-BOB002")
	require.NoError(t, err)

	server.Close()
	require.NoError(t, first.Close())

	// Same database file, fresh process: the cookie still works.
	second, err := app.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })

	server2 := httptest.NewServer(second.Handler())
	t.Cleanup(server2.Close)

	// Point the same cookie jar at the new server address.
	client2 := newClient(t, server2.URL)
	client2.HTTPClient = client.HTTPClient

	details, err := client2.Details(ctx)
	require.NoError(t, err)
	require.Equal(t, "Bob Korhonen", details.PrimaryGuestName)
}
