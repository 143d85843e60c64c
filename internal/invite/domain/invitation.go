package domain

import "time"

// Invitation is the unit of access control: one invitation code grants one
// browsing identity regardless of how many guests it covers.
type Invitation struct {
	ID               string
	Code             string // short uppercase code printed on the card
	PrimaryGuestName string
	MaxGuests        int
	Notes            string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type Guest struct {
	ID                  string
	InvitationID        string
	Name                string
	IsPrimary           bool
	Attending           *bool // nil until the guest has answered
	DietaryRestrictions string
	PhotographyConsent  bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// RSVP is the single reply record for an invitation. Its email address is
// the target of the verification-code flow.
type RSVP struct {
	ID           string
	InvitationID string
	Email        string
	Attending    bool
	GuestCount   int
	Message      string
	SubmittedAt  time.Time
	UpdatedAt    time.Time
}
