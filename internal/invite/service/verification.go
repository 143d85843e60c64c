package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jhaverinen/kutsu/internal/invite/domain"
	"github.com/jhaverinen/kutsu/internal/invite/email"
	"github.com/jhaverinen/kutsu/internal/invite/store"
	"github.com/jhaverinen/kutsu/pkg/cryptox"
	"github.com/jhaverinen/kutsu/pkg/idx"
	"github.com/jhaverinen/kutsu/pkg/slogx"
)

const (
	// CodeTTL is how long an emailed verification code stays valid.
	CodeTTL = 15 * time.Minute

	// MaxCodeAttempts is the number of wrong guesses allowed against a
	// single code before it is destroyed.
	MaxCodeAttempts = 5

	// MaxSendsPerWindow caps code emails per invitation inside sendWindow.
	MaxSendsPerWindow = 10

	sendWindow = time.Hour
)

// ErrNoPendingCode is returned by ValidateCode when no unverified code
// exists for the invitation.
var ErrNoPendingCode = errors.New("no pending verification code")

// VerificationService implements emailed code verification with a
// progressive per-invitation send cooldown and a hard hourly send cap.
type VerificationService struct {
	Store  store.Store
	Mailer email.Mailer
}

// SendCooldown returns the waiting period imposed after sendCount codes
// have been issued in the current window. The schedule ramps from one
// minute to three, then grows by a minute per extra send.
func SendCooldown(sendCount int) time.Duration {
	switch {
	case sendCount <= 0:
		return 0
	case sendCount == 1:
		return 60 * time.Second
	case sendCount == 2:
		return 90 * time.Second
	case sendCount == 3:
		return 120 * time.Second
	case sendCount == 4:
		return 180 * time.Second
	default:
		return 180*time.Second + time.Duration(sendCount-4)*60*time.Second
	}
}

// SendCode issues a fresh verification code to the given address unless the
// invitation is inside its cooldown or past the hourly cap. A declined send
// is not an error; the returned SendResult carries the refusal reason.
func (s *VerificationService) SendCode(ctx context.Context, invitationID, address string) (domain.SendResult, error) {
	log := slogx.FromContext(ctx)

	now := time.Now().UTC()
	recent, err := s.Store.VerificationCodes().ListRecentVerificationCodes(ctx, invitationID, now.Add(-sendWindow))
	if err != nil {
		log.Error("failed to list recent verification codes", slog.Any("error", err))
		return domain.SendResult{}, err
	}

	if len(recent) >= MaxSendsPerWindow {
		log.Warn("verification send rate limit hit",
			slog.String("invitation_id", invitationID),
			slog.Int("sends_last_hour", len(recent)),
		)
		return domain.SendResult{
			CodeSent: false,
			Reason:   domain.SendFailRateLimit,
		}, nil
	}

	if len(recent) > 0 {
		// Cooldown is keyed off the most recent send; the schedule position
		// excludes that send itself.
		latest := recent[0]
		cooldownEnds := latest.CreatedAt.Add(SendCooldown(len(recent)))
		if now.Before(cooldownEnds) {
			return domain.SendResult{
				CodeSent:       false,
				Reason:         domain.SendFailCooldown,
				CooldownEndsAt: cooldownEnds,
			}, nil
		}
	}

	code, err := cryptox.GenerateCode()
	if err != nil {
		log.Error("failed to generate verification code", slog.Any("error", err))
		return domain.SendResult{}, err
	}

	record := domain.VerificationCode{
		ID:           idx.New().String(),
		InvitationID: invitationID,
		Email:        address,
		CodeHash:     cryptox.HashToken(code),
		Attempts:     0,
		ExpiresAt:    now.Add(CodeTTL),
		CreatedAt:    now,
	}

	if err := s.Store.VerificationCodes().CreateVerificationCode(ctx, record); err != nil {
		log.Error("failed to persist verification code", slog.Any("error", err))
		return domain.SendResult{}, err
	}

	if err := s.Mailer.SendVerificationCode(ctx, address, code, record.ExpiresAt); err != nil {
		log.Error("failed to deliver verification code",
			slog.String("invitation_id", invitationID),
			slog.Any("error", err),
		)
		// The persisted record still counts toward the cooldown so a flaky
		// mail provider cannot be used to sidestep the schedule.
		return domain.SendResult{}, err
	}

	log.Info("verification code sent",
		slog.String("invitation_id", invitationID),
		slog.Time("expires_at", record.ExpiresAt),
	)

	// This send joins the window, so the next cooldown slot counts it too.
	return domain.SendResult{
		CodeSent:       true,
		CreatedAt:      record.CreatedAt,
		CooldownEndsAt: record.CreatedAt.Add(SendCooldown(len(recent) + 1)),
	}, nil
}

// CooldownStatus reports when the invitation may next request a code
// without creating one. The zero time means a send is allowed now.
func (s *VerificationService) CooldownStatus(ctx context.Context, invitationID string) (time.Time, error) {
	now := time.Now().UTC()
	recent, err := s.Store.VerificationCodes().ListRecentVerificationCodes(ctx, invitationID, now.Add(-sendWindow))
	if err != nil {
		return time.Time{}, err
	}
	if len(recent) == 0 {
		return time.Time{}, nil
	}
	if len(recent) >= MaxSendsPerWindow {
		// Capped until the oldest send in the window ages out.
		return recent[len(recent)-1].CreatedAt.Add(sendWindow), nil
	}
	cooldownEnds := recent[0].CreatedAt.Add(SendCooldown(len(recent)))
	if now.Before(cooldownEnds) {
		return cooldownEnds, nil
	}
	return time.Time{}, nil
}

// ValidateCode checks a submitted code against the oldest unverified one for
// the invitation. On success the code is marked verified and every code for
// the invitation is discarded. Wrong guesses increment the attempt counter;
// a code whose counter has reached the cap, or which has expired, is
// destroyed when the next validation finds it.
func (s *VerificationService) ValidateCode(ctx context.Context, invitationID, submitted string) (domain.ValidationResult, error) {
	log := slogx.FromContext(ctx)

	record, err := s.Store.VerificationCodes().GetOldestUnverifiedCode(ctx, invitationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.ValidationResult{}, ErrNoPendingCode
		}
		log.Error("failed to fetch verification code", slog.Any("error", err))
		return domain.ValidationResult{}, err
	}

	now := time.Now().UTC()
	if now.After(record.ExpiresAt) {
		if err := s.Store.VerificationCodes().DeleteVerificationCode(ctx, record.ID); err != nil {
			log.Warn("failed to delete expired code", slog.Any("error", err))
		}
		return domain.ValidationResult{Valid: false, Reason: domain.ValidationFailExpired}, nil
	}

	if record.Attempts >= MaxCodeAttempts {
		if err := s.Store.VerificationCodes().DeleteVerificationCode(ctx, record.ID); err != nil {
			log.Warn("failed to delete exhausted code", slog.Any("error", err))
		}
		return domain.ValidationResult{Valid: false, Reason: domain.ValidationFailTooManyAttempts}, nil
	}

	if !cryptox.ConstantTimeEquals(cryptox.HashToken(submitted), record.CodeHash) {
		// The cap is enforced lazily at the top of the next call, so a
		// wrong guess always reads as invalid even when it was the last one.
		if err := s.Store.VerificationCodes().IncrementVerificationAttempts(ctx, record.ID); err != nil {
			log.Error("failed to record failed attempt", slog.Any("error", err))
			return domain.ValidationResult{}, err
		}
		return domain.ValidationResult{Valid: false, Reason: domain.ValidationFailInvalid}, nil
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.VerificationCodes().MarkVerificationCodeVerified(ctx, record.ID, now); err != nil {
			return err
		}
		return tx.VerificationCodes().DeleteInvitationVerificationCodes(ctx, invitationID)
	})
	if err != nil {
		log.Error("failed to finalize verification", slog.Any("error", err))
		return domain.ValidationResult{}, err
	}

	log.Info("email verified",
		slog.String("invitation_id", invitationID),
		slog.String("email", record.Email),
	)

	return domain.ValidationResult{Valid: true, Email: record.Email}, nil
}

// CleanupExpired removes expired verification codes. Meant for the
// housekeeping loop.
func (s *VerificationService) CleanupExpired(ctx context.Context) error {
	return s.Store.VerificationCodes().DeleteExpiredVerificationCodes(ctx)
}
