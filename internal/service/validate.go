package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/eventgate/eventgate/internal/audit"
	"github.com/eventgate/eventgate/internal/model"
	"github.com/eventgate/eventgate/internal/payment"
)

var (
	ticketNumberShape = regexp.MustCompile(`^TKT-[0-9]{10}$`)
	letterCodeShape   = regexp.MustCompile(`^[A-Z]{6}$`)
	digitCodeShape    = regexp.MustCompile(`^[0-9]{6}$`)
)

// resolveFunc attempts one interpretation of a raw identifier. matched=true
// means the identifier structurally belongs to this strategy, making its
// lookup result final; matched=false lets resolution fall through to the
// next strategy.
type resolveFunc func(ctx context.Context, eventID, raw string) (rec *model.Record, matched bool, err error)

// resolvers returns the resolution strategies in fixed priority order:
// ticket number, manual-code shape, QR payload, uniqueId, raw record id.
// Every entry surface (QR scan, manual entry, fallback) goes through this
// one list; once a shape matches there is no re-try across strategies, even
// when the lookup misses or the record belongs to a different event.
func (s *Service) resolvers() []resolveFunc {
	return []resolveFunc{
		// 1. Exact ticket number.
		func(ctx context.Context, _ string, raw string) (*model.Record, bool, error) {
			if !ticketNumberShape.MatchString(raw) {
				return nil, false, nil
			}
			rec, err := s.records.GetByTicketNumber(ctx, raw)
			return rec, true, err
		},
		// 2. Manual-code shape, scoped to the requested event.
		func(ctx context.Context, eventID, raw string) (*model.Record, bool, error) {
			if !letterCodeShape.MatchString(raw) && !digitCodeShape.MatchString(raw) {
				return nil, false, nil
			}
			rec, err := s.records.GetByManualCode(ctx, eventID, raw)
			return rec, true, err
		},
		// 3. Signed QR payload carrying the record id.
		func(ctx context.Context, _ string, raw string) (*model.Record, bool, error) {
			claims, err := s.generator.DecodeQR(raw)
			if err != nil {
				return nil, false, nil
			}
			rec, err := s.records.GetRecordByID(ctx, claims.RecordID)
			return rec, true, err
		},
		// 4. Long opaque uniqueId; a miss falls through.
		func(ctx context.Context, _ string, raw string) (*model.Record, bool, error) {
			rec, err := s.records.GetByUniqueID(ctx, raw)
			if errors.Is(err, model.ErrNotFound) {
				return nil, false, nil
			}
			return rec, true, err
		},
		// 5. Fallback: the raw string as a store-native record id.
		func(ctx context.Context, _ string, raw string) (*model.Record, bool, error) {
			rec, err := s.records.GetRecordByID(ctx, raw)
			return rec, true, err
		},
	}
}

func (s *Service) resolve(ctx context.Context, eventID, raw string) (*model.Record, error) {
	for _, resolve := range s.resolvers() {
		rec, matched, err := resolve(ctx, eventID, raw)
		if !matched {
			continue
		}
		return rec, err
	}
	return nil, model.ErrNotFound
}

// Validate resolves an inbound identifier and performs the at-most-once
// transition to the attended-terminal status.
//
// Failed attempts (unknown identifier, wrong event, payment outstanding)
// are pure reads and never leave partial state. The transition itself is a
// single conditional write in the store; whichever concurrent caller wins
// that write observes Valid, every other observes AlreadyUsed.
func (s *Service) Validate(ctx context.Context, eventID, rawIdentifier, actor string) (*model.ValidationResult, error) {
	if rawIdentifier == "" {
		return s.finishValidation(ctx, eventID, "", actor,
			&model.ValidationResult{Outcome: model.OutcomeInvalid, Reason: "identifier is required"}), nil
	}

	rec, err := s.resolve(ctx, eventID, rawIdentifier)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return s.finishValidation(ctx, eventID, "", actor,
				&model.ValidationResult{Outcome: model.OutcomeInvalid, Reason: "unknown identifier"}), nil
		}
		return nil, fmt.Errorf("resolve identifier: %w", err)
	}

	if rec.EventID != eventID {
		return s.finishValidation(ctx, eventID, rec.ID, actor,
			&model.ValidationResult{Outcome: model.OutcomeInvalid, Reason: "identifier belongs to a different event"}), nil
	}

	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !payment.Satisfied(event, rec) {
		return s.finishValidation(ctx, eventID, rec.ID, actor, &model.ValidationResult{
			Outcome: model.OutcomePaymentRequired,
			Record:  rec,
			Reason:  fmt.Sprintf("payment is %s", rec.PaymentStatus),
		}), nil
	}

	now := time.Now().UTC()
	won, err := s.records.MarkAttended(ctx, rec.ID, model.TerminalStatus(rec.Kind), actor, now)
	if err != nil {
		return nil, fmt.Errorf("mark attended: %w", err)
	}
	if !won {
		// Another scanner got there first (or the record was already
		// terminal). Re-read so the caller sees the original stamps.
		if fresh, err := s.records.GetRecordByID(ctx, rec.ID); err == nil {
			rec = fresh
		}
		return s.finishValidation(ctx, eventID, rec.ID, actor,
			&model.ValidationResult{Outcome: model.OutcomeAlreadyUsed, Record: rec}), nil
	}

	rec.Status = model.TerminalStatus(rec.Kind)
	rec.ValidatedAt = &now
	rec.ValidatedBy = actor
	return s.finishValidation(ctx, eventID, rec.ID, actor,
		&model.ValidationResult{Outcome: model.OutcomeValid, Record: rec}), nil
}

// finishValidation records metrics and the audit trail entry for an attempt.
func (s *Service) finishValidation(ctx context.Context, eventID, recordID, actor string, result *model.ValidationResult) *model.ValidationResult {
	if s.metrics != nil {
		s.metrics.Validations.WithLabelValues(string(result.Outcome)).Inc()
	}
	s.emitAudit(ctx, audit.Event{
		Action:   audit.ActionValidation,
		EventID:  eventID,
		RecordID: recordID,
		Actor:    actor,
		Outcome:  string(result.Outcome),
	})
	return result
}
