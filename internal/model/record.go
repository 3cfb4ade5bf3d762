package model

import "time"

// RecordStatus tracks a record through its lifecycle. Registrations move
// pending → active → online; tickets move pending → paid → used. The
// "online"/"used" states are terminal: no transition exists out of them.
type RecordStatus string

const (
	StatusPending RecordStatus = "pending"
	StatusActive  RecordStatus = "active"
	StatusPaid    RecordStatus = "paid"
	StatusOnline  RecordStatus = "online"
	StatusUsed    RecordStatus = "used"
)

// PaymentStatus is the settled fact written by the external payment
// collaborator. This core only reads it.
type PaymentStatus string

const (
	PaymentNotRequired PaymentStatus = "not_required"
	PaymentPending     PaymentStatus = "pending"
	PaymentPaid        PaymentStatus = "paid"
	PaymentFailed      PaymentStatus = "failed"
)

// Valid reports whether p is one of the known payment statuses.
func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentNotRequired, PaymentPending, PaymentPaid, PaymentFailed:
		return true
	}
	return false
}

// TerminalStatus returns the attended-terminal status for a record kind.
func TerminalStatus(kind EventType) RecordStatus {
	if kind == EventTypeTicket {
		return StatusUsed
	}
	return StatusOnline
}

// ReadyStatus returns the non-terminal "good to validate" status a record
// starts in when no payment is outstanding.
func ReadyStatus(kind EventType) RecordStatus {
	if kind == EventTypeTicket {
		return StatusPaid
	}
	return StatusActive
}

// Record unifies registrations and tickets: the issued proof of eligibility
// for one applicant at one event.
type Record struct {
	ID            string        `json:"id"`
	EventID       string        `json:"event_id"`
	Kind          EventType     `json:"kind"`
	ApplicantType ApplicantType `json:"applicant_type"`
	// Fields holds the custom fields supplied at issuance.
	Fields map[string]string `json:"fields,omitempty"`
	// UniqueID is the long opaque human-shareable identifier.
	UniqueID string `json:"unique_id"`
	// QRPayload is a signed structured token {record id, event id, nonce}
	// meant to be embedded in a scannable code. It is a lookup key, not a
	// security token.
	QRPayload string `json:"qr_payload"`
	// ManualCode is the short human-enterable fallback: 6 uppercase letters
	// for registrations, 6 digits for tickets. Unique per event.
	ManualCode string `json:"manual_code"`
	// TicketNumber is set for tickets only and is globally unique.
	TicketNumber  string        `json:"ticket_number,omitempty"`
	Status        RecordStatus  `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	ValidatedAt   *time.Time    `json:"validated_at,omitempty"`
	ValidatedBy   string        `json:"validated_by,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Attended reports whether the record has reached its terminal status.
func (r *Record) Attended() bool {
	return r.Status == StatusOnline || r.Status == StatusUsed
}

// Outcome classifies the result of a validation attempt. AlreadyUsed is a
// first-class expected outcome, not an error.
type Outcome string

const (
	OutcomeValid           Outcome = "valid"
	OutcomeAlreadyUsed     Outcome = "already_used"
	OutcomeInvalid         Outcome = "invalid"
	OutcomePaymentRequired Outcome = "payment_required"
)

// ValidationResult is what the attendance validator reports back to every
// entry surface (QR scan, manual entry, fallback lookup).
type ValidationResult struct {
	Outcome Outcome `json:"outcome"`
	Record  *Record `json:"record,omitempty"`
	Reason  string  `json:"reason,omitempty"`
}
