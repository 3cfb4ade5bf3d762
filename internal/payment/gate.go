// Package payment holds the payment gate: the pure predicate deciding
// whether a record's payment state permits attendance validation. It is
// consulted by the attendance validator before any state transition and
// never anywhere else; issuance does not require payment to have happened.
package payment

import "github.com/eventgate/eventgate/internal/model"

// Satisfied reports whether the record clears the event's payment gate.
func Satisfied(event *model.Event, record *model.Record) bool {
	if !event.Payment.Required {
		return true
	}
	return record.PaymentStatus == model.PaymentPaid ||
		record.PaymentStatus == model.PaymentNotRequired
}
