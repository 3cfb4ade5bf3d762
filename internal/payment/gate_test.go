package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eventgate/eventgate/internal/model"
)

func TestSatisfied(t *testing.T) {
	tests := []struct {
		name     string
		required bool
		status   model.PaymentStatus
		want     bool
	}{
		{"free event ignores payment state", false, model.PaymentFailed, true},
		{"free event with pending payment", false, model.PaymentPending, true},
		{"paid clears the gate", true, model.PaymentPaid, true},
		{"not_required clears the gate", true, model.PaymentNotRequired, true},
		{"pending blocks", true, model.PaymentPending, false},
		{"failed blocks", true, model.PaymentFailed, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			event := &model.Event{Payment: model.PaymentSettings{Required: tc.required}}
			record := &model.Record{PaymentStatus: tc.status}
			assert.Equal(t, tc.want, Satisfied(event, record))
		})
	}
}
