package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventgate/eventgate/internal/cache"
	"github.com/eventgate/eventgate/internal/model"
	"github.com/eventgate/eventgate/internal/service"
)

func issueRecord(t *testing.T, svc *service.Service, eventID string, applicant model.ApplicantType) *model.Record {
	t.Helper()
	rec, err := svc.Issue(context.Background(), eventID, model.IssueRequest{ApplicantType: applicant})
	require.NoError(t, err)
	return rec
}

func TestValidateByManualCode(t *testing.T) {
	svc, _ := newTestService(t)
	event := freeRegistrationEvent(t, svc)
	rec := issueRecord(t, svc, event.ID, model.ApplicantMember)

	result, err := svc.Validate(context.Background(), event.ID, rec.ManualCode, "scanner-1")
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeValid, result.Outcome)
	assert.Equal(t, model.StatusOnline, result.Record.Status)
	assert.Equal(t, "scanner-1", result.Record.ValidatedBy)
	require.NotNil(t, result.Record.ValidatedAt)
}

func TestValidateByUniqueID(t *testing.T) {
	svc, _ := newTestService(t)
	event := freeRegistrationEvent(t, svc)
	rec := issueRecord(t, svc, event.ID, model.ApplicantMember)

	result, err := svc.Validate(context.Background(), event.ID, rec.UniqueID, "scanner-1")
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeValid, result.Outcome)
}

func TestValidateByRecordID(t *testing.T) {
	svc, _ := newTestService(t)
	event := freeRegistrationEvent(t, svc)
	rec := issueRecord(t, svc, event.ID, model.ApplicantMember)

	result, err := svc.Validate(context.Background(), event.ID, rec.ID, "scanner-1")
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeValid, result.Outcome)
}

func TestValidateByQRPayload(t *testing.T) {
	svc, _ := newTestService(t)
	event := freeRegistrationEvent(t, svc)
	rec := issueRecord(t, svc, event.ID, model.ApplicantMember)

	result, err := svc.Validate(context.Background(), event.ID, rec.QRPayload, "scanner-1")
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeValid, result.Outcome)
	assert.Equal(t, rec.ID, result.Record.ID)
}

func TestValidateByTicketNumber(t *testing.T) {
	svc, _ := newTestService(t)
	event := createEvent(t, svc, model.CreateEventRequest{
		Name: "Open Day",
		Type: model.EventTypeTicket,
	})
	rec := issueRecord(t, svc, event.ID, "general")

	result, err := svc.Validate(context.Background(), event.ID, rec.TicketNumber, "gate-2")
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeValid, result.Outcome)
	assert.Equal(t, model.StatusUsed, result.Record.Status)
}

func TestValidateUnknownIdentifier(t *testing.T) {
	svc, _ := newTestService(t)
	event := freeRegistrationEvent(t, svc)

	result, err := svc.Validate(context.Background(), event.ID, uuid.New().String(), "scanner-1")
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeInvalid, result.Outcome)
	assert.Nil(t, result.Record)
}

func TestValidateWrongEvent(t *testing.T) {
	svc, _ := newTestService(t)
	eventA := freeRegistrationEvent(t, svc)
	eventB := createEvent(t, svc, model.CreateEventRequest{
		Name: "Other Meetup",
		Type: model.EventTypeRegistration,
	})
	rec := issueRecord(t, svc, eventA.ID, model.ApplicantMember)

	// The uniqueId resolves, but the record belongs to event A.
	result, err := svc.Validate(context.Background(), eventB.ID, rec.UniqueID, "scanner-1")
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeInvalid, result.Outcome)

	// No mutation happened: validating against the right event still works.
	result, err = svc.Validate(context.Background(), eventA.ID, rec.UniqueID, "scanner-1")
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeValid, result.Outcome)
}

func TestValidateStructuralMatchIsFinal(t *testing.T) {
	svc, store := newTestService(t)
	event := freeRegistrationEvent(t, svc)

	// A record whose uniqueId happens to look like a manual code. The
	// manual-code strategy matches the shape, misses, and resolution must
	// not fall through to the uniqueId strategy.
	rec := issueRecord(t, svc, event.ID, model.ApplicantMember)
	planted := *rec
	planted.ID = uuid.New().String()
	planted.UniqueID = "ZZZZZZ"
	planted.ManualCode = "AAAAAA"
	require.NoError(t, store.CreateRecord(context.Background(), &planted))

	result, err := svc.Validate(context.Background(), event.ID, "ZZZZZZ", "scanner-1")
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeInvalid, result.Outcome)
}

func TestValidatePaymentLifecycle(t *testing.T) {
	svc, _ := newTestService(t)
	event := paidTicketEvent(t, svc)
	rec := issueRecord(t, svc, event.ID, "general")

	// Payment outstanding: validation blocked, no mutation.
	result, err := svc.Validate(context.Background(), event.ID, rec.ManualCode, "gate-1")
	require.NoError(t, err)
	assert.Equal(t, model.OutcomePaymentRequired, result.Outcome)
	assert.Contains(t, result.Reason, "pending")

	// Still blocked after a failed settlement.
	_, err = svc.SetPaymentStatus(context.Background(), rec.ID, model.PaymentFailed)
	require.NoError(t, err)
	result, err = svc.Validate(context.Background(), event.ID, rec.ManualCode, "gate-1")
	require.NoError(t, err)
	assert.Equal(t, model.OutcomePaymentRequired, result.Outcome)

	// The settled fact flips the gate exactly once.
	_, err = svc.SetPaymentStatus(context.Background(), rec.ID, model.PaymentPaid)
	require.NoError(t, err)
	result, err = svc.Validate(context.Background(), event.ID, rec.ManualCode, "gate-1")
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeValid, result.Outcome)

	firstValidatedAt := *result.Record.ValidatedAt

	// Idempotent from here on.
	result, err = svc.Validate(context.Background(), event.ID, rec.ManualCode, "gate-2")
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeAlreadyUsed, result.Outcome)
	require.NotNil(t, result.Record.ValidatedAt)
	assert.True(t, result.Record.ValidatedAt.Equal(firstValidatedAt), "already-used must not restamp")
	assert.Equal(t, "gate-1", result.Record.ValidatedBy)
}

func TestValidateConcurrentExactlyOneValid(t *testing.T) {
	svc, _ := newTestService(t)
	event := freeRegistrationEvent(t, svc)
	rec := issueRecord(t, svc, event.ID, model.ApplicantMember)

	const goroutines = 32
	var wg sync.WaitGroup
	outcomes := make(chan model.Outcome, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := svc.Validate(context.Background(), event.ID, rec.ManualCode, "scanner")
			if err == nil {
				outcomes <- result.Outcome
			}
		}()
	}
	wg.Wait()
	close(outcomes)

	var valid, alreadyUsed int
	for outcome := range outcomes {
		switch outcome {
		case model.OutcomeValid:
			valid++
		case model.OutcomeAlreadyUsed:
			alreadyUsed++
		}
	}
	assert.Equal(t, 1, valid, "exactly one racing caller may observe Valid")
	assert.Equal(t, goroutines-1, alreadyUsed)
}

func TestUpdateEventInvalidatesCache(t *testing.T) {
	eventCache := cache.NewMemory(time.Hour, 16)
	svc, _ := newTestService(t, service.WithEventCache(eventCache))
	event := createEvent(t, svc, model.CreateEventRequest{
		Name:    "Cached Gala",
		Type:    model.EventTypeRegistration,
		Payment: model.PaymentSettings{Required: true, Amount: 1000, Currency: "USD"},
	})
	rec := issueRecord(t, svc, event.ID, model.ApplicantMember)

	// Warm the cache and confirm the gate blocks.
	result, err := svc.Validate(context.Background(), event.ID, rec.ManualCode, "scanner-1")
	require.NoError(t, err)
	assert.Equal(t, model.OutcomePaymentRequired, result.Outcome)

	// Dropping the charge must take effect immediately despite the cache.
	_, err = svc.UpdateEvent(context.Background(), event.ID, model.UpdateEventRequest{
		Payment: &model.PaymentSettings{Required: false},
	})
	require.NoError(t, err)

	result, err = svc.Validate(context.Background(), event.ID, rec.ManualCode, "scanner-1")
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeValid, result.Outcome)
}

func TestQRRoundTripThroughStore(t *testing.T) {
	svc, store := newTestService(t)
	event := freeRegistrationEvent(t, svc)
	rec := issueRecord(t, svc, event.ID, model.ApplicantMember)

	// The payload embedded in the record resolves back to the same record.
	found, err := store.GetRecordByID(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.QRPayload, found.QRPayload)

	result, err := svc.Validate(context.Background(), event.ID, found.QRPayload, "scanner-1")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, result.Record.ID)
	assert.Equal(t, rec.EventID, result.Record.EventID)
}
