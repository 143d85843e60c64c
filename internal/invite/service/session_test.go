package service

import (
	"context"
	"testing"
	"time"

	"github.com/jhaverinen/kutsu/internal/invite/domain"
	"github.com/jhaverinen/kutsu/internal/invite/store"
	"github.com/jhaverinen/kutsu/internal/invite/store/drivers/sqlite"
	"github.com/jhaverinen/kutsu/pkg/cryptox"
	"github.com/jhaverinen/kutsu/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func seedInvitation(t *testing.T, s store.Store) domain.Invitation {
	t.Helper()

	now := time.Now().UTC()
	inv := domain.Invitation{
		ID:               idx.New().String(),
		Code:             "WED-" + idx.New().String()[:8],
		PrimaryGuestName: "Alice Example",
		MaxGuests:        2,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	require.NoError(t, s.Invitations().CreateInvitation(context.Background(), inv))
	return inv
}

func TestSessionCreateAndValidate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	inv := seedInvitation(t, s)

	svc := &SessionService{Store: s}

	token, data, err := svc.Create(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, token, 64)
	require.Equal(t, inv.ID, data.InvitationID)
	require.False(t, data.EmailVerified)
	require.WithinDuration(t, time.Now().Add(SessionTTL), data.ExpiresAt, time.Minute)

	got, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	require.Equal(t, data.ID, got.ID)
	require.Equal(t, inv.ID, got.InvitationID)
}

func TestSessionValidateUnknownToken(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedInvitation(t, s)

	svc := &SessionService{Store: s}

	_, err := svc.ValidateToken(ctx, "0000000000000000000000000000000000000000000000000000000000000000")
	require.ErrorIs(t, err, ErrNoSession)
}

func TestSessionValidateExpiredToken(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	inv := seedInvitation(t, s)

	svc := &SessionService{Store: s}

	// Insert an already-expired session directly.
	token, err := cryptox.GenerateToken()
	require.NoError(t, err)

	now := time.Now().UTC()
	session := domain.Session{
		ID:             idx.New().String(),
		InvitationID:   inv.ID,
		TokenHash:      cryptox.HashToken(token),
		ExpiresAt:      now.Add(-time.Hour),
		LastAccessedAt: now.Add(-time.Hour),
		CreatedAt:      now.Add(-2 * time.Hour),
	}
	require.NoError(t, s.Sessions().CreateSession(ctx, session))

	// Expired and unknown tokens must be indistinguishable.
	_, err = svc.ValidateToken(ctx, token)
	require.ErrorIs(t, err, ErrNoSession)

	// The expired record is removed on detection.
	_, err = s.Sessions().GetSessionByID(ctx, session.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestSessionCapEvictsOldest(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	inv := seedInvitation(t, s)

	svc := &SessionService{Store: s}

	tokens := make([]string, 0, MaxSessionsPerInvitation+1)
	for i := 0; i < MaxSessionsPerInvitation+1; i++ {
		token, _, err := svc.Create(ctx, inv.ID)
		require.NoError(t, err)
		tokens = append(tokens, token)
		time.Sleep(2 * time.Millisecond)
	}

	count, err := s.Sessions().CountInvitationSessions(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, MaxSessionsPerInvitation, count)

	// The first session was evicted; the rest still validate.
	_, err = svc.ValidateToken(ctx, tokens[0])
	require.ErrorIs(t, err, ErrNoSession)

	for _, token := range tokens[1:] {
		_, err := svc.ValidateToken(ctx, token)
		require.NoError(t, err)
	}
}

func TestSessionMarkEmailVerified(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	inv := seedInvitation(t, s)

	svc := &SessionService{Store: s}

	oldToken, data, err := svc.Create(ctx, inv.ID)
	require.NoError(t, err)

	newToken, expiresAt, err := svc.MarkEmailVerified(ctx, data.ID)
	require.NoError(t, err)
	require.NotEqual(t, oldToken, newToken)
	require.True(t, expiresAt.Equal(data.ExpiresAt), "rotation must preserve expiry")

	// Old token is dead, new one carries the verified flag.
	_, err = svc.ValidateToken(ctx, oldToken)
	require.ErrorIs(t, err, ErrNoSession)

	got, err := svc.ValidateToken(ctx, newToken)
	require.NoError(t, err)
	require.True(t, got.EmailVerified)
	require.Equal(t, data.ID, got.ID)
}

func TestSessionMarkEmailVerifiedUnknownID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedInvitation(t, s)

	svc := &SessionService{Store: s}

	_, _, err := svc.MarkEmailVerified(ctx, idx.New().String())
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionDeleteForInvitation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	inv := seedInvitation(t, s)

	svc := &SessionService{Store: s}

	var tokens []string
	for i := 0; i < 3; i++ {
		token, _, err := svc.Create(ctx, inv.ID)
		require.NoError(t, err)
		tokens = append(tokens, token)
	}

	require.NoError(t, svc.DeleteForInvitation(ctx, inv.ID))

	for _, token := range tokens {
		_, err := svc.ValidateToken(ctx, token)
		require.ErrorIs(t, err, ErrNoSession)
	}
}

func TestSessionLogoutDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	inv := seedInvitation(t, s)

	svc := &SessionService{Store: s}

	token, data, err := svc.Create(ctx, inv.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, data.ID))

	_, err = svc.ValidateToken(ctx, token)
	require.ErrorIs(t, err, ErrNoSession)
}
