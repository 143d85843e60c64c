package domain

import "time"

// VerificationCode models a stored email verification code. The 6-digit code
// itself is only ever delivered out-of-band; the row holds its digest.
type VerificationCode struct {
	ID           string
	InvitationID string
	Email        string
	CodeHash     string // hex SHA-256 of the 6-digit code
	Attempts     int
	ExpiresAt    time.Time
	VerifiedAt   *time.Time
	CreatedAt    time.Time
}

// SendFailReason says why a send was refused.
type SendFailReason string

const (
	SendFailCooldown  SendFailReason = "cooldown"
	SendFailRateLimit SendFailReason = "rate_limit"
)

// SendResult reports the outcome of a verification-code send request.
// CooldownEndsAt is set for cooldown refusals and, on success, marks when
// the next send becomes allowed. CreatedAt is set only on success.
type SendResult struct {
	CodeSent       bool
	Reason         SendFailReason
	CooldownEndsAt time.Time
	CreatedAt      time.Time
}

// ValidationFailReason says why a code was rejected.
type ValidationFailReason string

const (
	ValidationFailExpired         ValidationFailReason = "expired"
	ValidationFailTooManyAttempts ValidationFailReason = "too_many_attempts"
	ValidationFailInvalid         ValidationFailReason = "invalid"
)

// ValidationResult reports the outcome of a verification-code check. Email
// is the verified address, set only when Valid is true.
type ValidationResult struct {
	Valid  bool
	Reason ValidationFailReason
	Email  string
}
