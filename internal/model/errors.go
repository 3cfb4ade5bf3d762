package model

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the repository and service layers. Stores
// return these (optionally wrapped) so callers can translate them into HTTP
// status codes with errors.Is.
var (
	// ErrNotFound is returned when a requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateCode is returned when a manual code collides within an
	// event. Creation retries on it up to the generator's attempt bound.
	ErrDuplicateCode = errors.New("manual code already in use for this event")

	// ErrDuplicateUniqueID is returned on the (negligible-probability)
	// collision of a long opaque identifier.
	ErrDuplicateUniqueID = errors.New("unique id already in use")

	// ErrDuplicateTicketNumber is returned when a generated ticket number
	// collides globally.
	ErrDuplicateTicketNumber = errors.New("ticket number already in use")

	// ErrCodeSpaceExhausted is fatal for a single creation attempt: the
	// generator ran out of retries without finding a free short code.
	ErrCodeSpaceExhausted = errors.New("identifier generation exhausted retry budget")
)

// RejectionError reports an eligibility rejection. It is recoverable and
// surfaced to the caller; no record or identifier is created for a rejected
// application.
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("application rejected: %s", e.Reason)
}
