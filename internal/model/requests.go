package model

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Name        string          `json:"name" validate:"required"`
	Type        EventType       `json:"type" validate:"required,oneof=registration ticket"`
	Eligibility Eligibility     `json:"eligibility"`
	Payment     PaymentSettings `json:"payment"`
}

// UpdateEventRequest mutates an event's eligibility and payment settings.
// Updates invalidate any cached config snapshot for the event.
type UpdateEventRequest struct {
	Name        *string          `json:"name,omitempty"`
	Eligibility *Eligibility     `json:"eligibility,omitempty"`
	Payment     *PaymentSettings `json:"payment,omitempty"`
}

// IssueRequest is the payload for issuing a record to an applicant.
type IssueRequest struct {
	ApplicantType ApplicantType     `json:"applicant_type" validate:"required"`
	Fields        map[string]string `json:"fields"`
}

// ValidateRequest carries one inbound identifier from any entry surface
// (QR scan, manual entry, or raw id fallback) plus the validating actor.
type ValidateRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Actor      string `json:"actor" validate:"required"`
}

// PaymentUpdateRequest is written by the external payment collaborator when
// a settlement fact changes.
type PaymentUpdateRequest struct {
	Status PaymentStatus `json:"status" validate:"required,oneof=not_required pending paid failed"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
