package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/jhaverinen/kutsu/internal/invite/domain"
	"github.com/jhaverinen/kutsu/internal/invite/store"
	"github.com/jhaverinen/kutsu/pkg/cryptox"
	"github.com/jhaverinen/kutsu/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestHousekeepingCleansExpiredRecords(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	inv := seedInvitation(t, s)

	now := time.Now().UTC()

	expired := domain.Session{
		ID:             idx.New().String(),
		InvitationID:   inv.ID,
		TokenHash:      cryptox.HashToken("expired-token"),
		ExpiresAt:      now.Add(-time.Hour),
		LastAccessedAt: now.Add(-time.Hour),
		CreatedAt:      now.Add(-2 * time.Hour),
	}
	require.NoError(t, s.Sessions().CreateSession(ctx, expired))

	live := domain.Session{
		ID:             idx.New().String(),
		InvitationID:   inv.ID,
		TokenHash:      cryptox.HashToken("live-token"),
		ExpiresAt:      now.Add(time.Hour),
		LastAccessedAt: now,
		CreatedAt:      now,
	}
	require.NoError(t, s.Sessions().CreateSession(ctx, live))

	seedCodeWithValue(t, s, inv.ID, "alice@example.com", "111111", now.Add(-time.Hour), now.Add(-45*time.Minute))
	seedCodeWithValue(t, s, inv.ID, "alice@example.com", "222222", now, now.Add(CodeTTL))

	hk := NewHousekeepingService(s, slog.Default(), time.Hour)
	hk.Start()
	hk.Stop()

	_, err := s.Sessions().GetSessionByID(ctx, expired.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Sessions().GetSessionByID(ctx, live.ID)
	require.NoError(t, err)

	codes, err := s.VerificationCodes().ListRecentVerificationCodes(ctx, inv.ID, now.Add(-2*time.Hour))
	require.NoError(t, err)
	require.Len(t, codes, 1)
}

func TestHousekeepingDefaultsInterval(t *testing.T) {
	s := newTestStore(t)
	hk := NewHousekeepingService(s, slog.Default(), 0)
	require.Equal(t, time.Hour, hk.Interval)
}
