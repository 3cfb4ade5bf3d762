// Package eligibility decides whether an applicant may receive a record for
// an event. It is a pure function of the event config and the application;
// it runs strictly before identifier generation, so rejected applications
// never create records or identifiers.
package eligibility

import (
	"fmt"
	"slices"
	"strings"

	"github.com/eventgate/eventgate/internal/model"
)

// Check returns nil when the applicant may receive a record, or a
// *model.RejectionError describing why not.
func Check(event *model.Event, applicant model.ApplicantType, fields map[string]string) error {
	elig := event.Eligibility

	switch applicant {
	case model.ApplicantGuest:
		if !elig.AllowGuests {
			return &model.RejectionError{Reason: "guests are not allowed for this event"}
		}
	case model.ApplicantInvitee:
		if !elig.AllowInvitees {
			return &model.RejectionError{Reason: "invitees are not allowed for this event"}
		}
	default:
		// Named groups (including "member") must appear in the event's
		// allowed set when one is configured.
		if len(elig.AllowedGroups) > 0 && !slices.Contains(elig.AllowedGroups, string(applicant)) {
			return &model.RejectionError{
				Reason: fmt.Sprintf("group %q is not eligible for this event", applicant),
			}
		}
	}

	for _, name := range elig.RequiredFields[string(applicant)] {
		if strings.TrimSpace(fields[name]) == "" {
			return &model.RejectionError{
				Reason: fmt.Sprintf("required field %q is missing", name),
			}
		}
	}
	return nil
}
