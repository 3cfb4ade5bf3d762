// Package model defines the core domain types for issuance and attendance
// validation: events, issued records, and their status machines.
package model

import "time"

// EventType distinguishes registration events from ticketed events. It also
// doubles as the kind of a Record, since a record inherits its event's type.
type EventType string

const (
	EventTypeRegistration EventType = "registration"
	EventTypeTicket       EventType = "ticket"
)

// Valid reports whether t is one of the known event types.
func (t EventType) Valid() bool {
	return t == EventTypeRegistration || t == EventTypeTicket
}

// ApplicantType is either one of the registration applicant classes
// (member, guest, invitee, or a named group tag) or a ticket category.
type ApplicantType string

const (
	ApplicantMember  ApplicantType = "member"
	ApplicantGuest   ApplicantType = "guest"
	ApplicantInvitee ApplicantType = "invitee"
)

// Eligibility captures who may receive a record for an event.
type Eligibility struct {
	// AllowedGroups holds the named group tags admitted to the event. An
	// empty list means no group restriction beyond the guest/invitee flags.
	AllowedGroups []string `json:"allowed_groups"`
	AllowGuests   bool     `json:"allow_guests"`
	AllowInvitees bool     `json:"allow_invitees"`
	// RequiredFields maps an applicant type to the custom fields that must
	// be supplied (non-empty) for that type.
	RequiredFields map[string][]string `json:"required_fields"`
}

// PaymentSettings describes whether and how much an event charges. Payment
// capture itself happens in an external collaborator; this core only reads
// the Required flag and the settled fact on each record.
type PaymentSettings struct {
	Required bool   `json:"required"`
	Amount   int64  `json:"amount"` // minor currency units
	Currency string `json:"currency"`
}

// Event is the configuration snapshot this core consumes. It is created and
// mutated by the event-management surface; issuance and validation treat it
// as read-only.
type Event struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Type        EventType       `json:"type"`
	Eligibility Eligibility     `json:"eligibility"`
	Payment     PaymentSettings `json:"payment"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
