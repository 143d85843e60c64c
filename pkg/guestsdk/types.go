package guestsdk

import "time"

// ErrorResponse is the standard error payload returned by every endpoint.
type ErrorResponse struct {
	// Error is a stable machine-readable code (e.g. "invalid_request",
	// "rate_limited")
	Error string `json:"error"`

	// ErrorDescription is a human-readable description of the error
	ErrorDescription string `json:"error_description"`
}

// ValidateRequest is the body for POST /v1/auth/validate.
type ValidateRequest struct {
	// Code is the invitation code printed on the card. Case and surrounding
	// whitespace are ignored.
	Code string `json:"code"`
}

// ValidateResponse confirms a successful invitation login. The session token
// itself travels in the cookie, never in the body.
type ValidateResponse struct {
	InvitationID     string    `json:"invitation_id"`
	PrimaryGuestName string    `json:"primary_guest_name"`
	SessionExpiresAt time.Time `json:"session_expires_at"`
}

// Guest is a single person covered by an invitation.
type Guest struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	IsPrimary           bool   `json:"is_primary"`
	Attending           *bool  `json:"attending,omitempty"`
	DietaryRestrictions string `json:"dietary_restrictions,omitempty"`
	PhotographyConsent  bool   `json:"photography_consent"`
}

// RSVP is the reply on file for an invitation.
type RSVP struct {
	Email       string    `json:"email"`
	Attending   bool      `json:"attending"`
	GuestCount  int       `json:"guest_count"`
	Message     string    `json:"message,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DetailsResponse is returned by GET /v1/invitation/details. Guests and RSVP
// are omitted until a reply exists and the session's email is verified.
type DetailsResponse struct {
	InvitationID     string  `json:"invitation_id"`
	PrimaryGuestName string  `json:"primary_guest_name"`
	MaxGuests        int     `json:"max_guests"`
	Notes            string  `json:"notes,omitempty"`
	Guests           []Guest `json:"guests,omitempty"`
	RSVP             *RSVP   `json:"rsvp,omitempty"`

	// RequiresEmailVerification is true once a reply is on file but the
	// current session has not verified its email address.
	RequiresEmailVerification bool `json:"requires_email_verification"`

	// CanSubmitRSVP is true while no reply exists yet.
	CanSubmitRSVP bool `json:"can_submit_rsvp"`
}

// RSVPRequest is the body for POST /v1/invitation/rsvp.
type RSVPRequest struct {
	Email      string `json:"email"`
	Attending  bool   `json:"attending"`
	GuestCount int    `json:"guest_count"`
	Message    string `json:"message,omitempty"`
}

// RSVPResponse confirms a stored reply.
type RSVPResponse struct {
	InvitationID string    `json:"invitation_id"`
	Attending    bool      `json:"attending"`
	GuestCount   int       `json:"guest_count"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

// SendVerificationResponse is returned by POST /v1/invitation/send-verification.
type SendVerificationResponse struct {
	Success bool `json:"success"`

	// CooldownEndsAt is when the next send becomes possible. Present on
	// success (the cooldown the send itself started) and on cooldown
	// refusals.
	CooldownEndsAt *time.Time `json:"cooldown_ends_at,omitempty"`
}

// CooldownStatusResponse is returned by GET /v1/invitation/send-verification.
type CooldownStatusResponse struct {
	CooldownActive bool       `json:"cooldown_active"`
	CooldownEndsAt *time.Time `json:"cooldown_ends_at,omitempty"`
}

// VerifyEmailRequest is the body for POST /v1/invitation/verify-email.
type VerifyEmailRequest struct {
	Code string `json:"code"`
}

// VerifyEmailResponse reports the outcome of a code submission. Reason is
// one of "expired", "too_many_attempts" or "invalid" when Success is false.
type VerifyEmailResponse struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
	Email   string `json:"email,omitempty"`
}

// HealthChecks reports per-dependency health on the readiness endpoint.
type HealthChecks struct {
	Database string `json:"database"`
}

// HealthResponse is returned by GET /livez and GET /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}
