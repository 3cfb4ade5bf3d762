package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/eventgate/eventgate/internal/audit"
	"github.com/eventgate/eventgate/internal/eligibility"
	"github.com/eventgate/eventgate/internal/model"
)

// createAttempts bounds regeneration when a short code that passed the
// pre-check collides at write time. Two simultaneous creations can pick the
// same code; the store's unique constraint detects it and a fresh identifier
// set resolves it.
const createAttempts = 3

// Issue runs the issuance path: eligibility check, identifier generation,
// then the store write. A rejected application creates nothing.
func (s *Service) Issue(ctx context.Context, eventID string, req model.IssueRequest) (*model.Record, error) {
	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if req.ApplicantType == "" {
		return nil, fmt.Errorf("applicant type is required")
	}
	if err := eligibility.Check(event, req.ApplicantType, req.Fields); err != nil {
		return nil, err
	}

	status := model.ReadyStatus(event.Type)
	paymentStatus := model.PaymentNotRequired
	if event.Payment.Required {
		status = model.StatusPending
		paymentStatus = model.PaymentPending
	}

	var lastErr error
	for attempt := 0; attempt < createAttempts; attempt++ {
		recordID := uuid.New().String()
		ids, err := s.generator.Generate(ctx, event.ID, recordID, event.Type)
		if err != nil {
			return nil, err
		}

		rec := &model.Record{
			ID:            recordID,
			EventID:       event.ID,
			Kind:          event.Type,
			ApplicantType: req.ApplicantType,
			Fields:        req.Fields,
			UniqueID:      ids.UniqueID,
			QRPayload:     ids.QRPayload,
			ManualCode:    ids.ManualCode,
			TicketNumber:  ids.TicketNumber,
			Status:        status,
			PaymentStatus: paymentStatus,
			CreatedAt:     time.Now().UTC(),
		}

		err = s.records.CreateRecord(ctx, rec)
		if err == nil {
			if s.metrics != nil {
				s.metrics.RecordsIssued.WithLabelValues(string(rec.Kind)).Inc()
			}
			s.emitAudit(ctx, audit.Event{
				Action:   audit.ActionRecordIssued,
				EventID:  event.ID,
				RecordID: rec.ID,
			})
			return rec, nil
		}
		if errors.Is(err, model.ErrDuplicateCode) ||
			errors.Is(err, model.ErrDuplicateTicketNumber) ||
			errors.Is(err, model.ErrDuplicateUniqueID) {
			// Lost a write-time race on a short identifier; regenerate.
			lastErr = err
			continue
		}
		return nil, fmt.Errorf("create record: %w", err)
	}
	return nil, fmt.Errorf("%w: %v", model.ErrCodeSpaceExhausted, lastErr)
}
