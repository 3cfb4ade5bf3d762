// Package memory provides an in-memory store dual of the PostgreSQL
// repositories. It keeps unit tests and local development lightweight and
// intentionally favors clarity over performance.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/eventgate/eventgate/internal/model"
)

// Store holds events and records behind one mutex. Returned values are
// copies so callers never share memory with the store.
type Store struct {
	mu      sync.Mutex
	events  map[string]model.Event
	records map[string]model.Record
}

// New constructs an empty Store.
func New() *Store {
	return &Store{
		events:  make(map[string]model.Event),
		records: make(map[string]model.Record),
	}
}

func (s *Store) CreateEvent(_ context.Context, event *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.ID] = *event
	return nil
}

func (s *Store) GetEvent(_ context.Context, id string) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.events[id]; ok {
		return &e, nil
	}
	return nil, model.ErrNotFound
}

func (s *Store) UpdateEvent(_ context.Context, event *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[event.ID]; !ok {
		return model.ErrNotFound
	}
	s.events[event.ID] = *event
	return nil
}

func (s *Store) ListEvents(_ context.Context) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := make([]model.Event, 0, len(s.events))
	for _, e := range s.events {
		events = append(events, e)
	}
	return events, nil
}

func (s *Store) CreateRecord(_ context.Context, rec *model.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.records {
		if existing.EventID == rec.EventID && existing.ManualCode == rec.ManualCode {
			return model.ErrDuplicateCode
		}
		if existing.UniqueID == rec.UniqueID {
			return model.ErrDuplicateUniqueID
		}
		if rec.TicketNumber != "" && existing.TicketNumber == rec.TicketNumber {
			return model.ErrDuplicateTicketNumber
		}
	}
	s.records[rec.ID] = *rec
	return nil
}

func (s *Store) GetRecordByID(_ context.Context, id string) (*model.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[id]; ok {
		return &rec, nil
	}
	return nil, model.ErrNotFound
}

func (s *Store) GetByUniqueID(_ context.Context, uniqueID string) (*model.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if rec.UniqueID == uniqueID {
			return &rec, nil
		}
	}
	return nil, model.ErrNotFound
}

func (s *Store) GetByManualCode(_ context.Context, eventID, code string) (*model.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if rec.EventID == eventID && rec.ManualCode == code {
			return &rec, nil
		}
	}
	return nil, model.ErrNotFound
}

func (s *Store) GetByTicketNumber(_ context.Context, number string) (*model.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if rec.TicketNumber != "" && rec.TicketNumber == number {
			return &rec, nil
		}
	}
	return nil, model.ErrNotFound
}

func (s *Store) ListByEvent(_ context.Context, eventID string) ([]model.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var records []model.Record
	for _, rec := range s.records {
		if rec.EventID == eventID {
			records = append(records, rec)
		}
	}
	return records, nil
}

func (s *Store) CodeExists(_ context.Context, eventID, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if rec.EventID == eventID && rec.ManualCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) TicketNumberExists(_ context.Context, number string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if rec.TicketNumber != "" && rec.TicketNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) SetPaymentStatus(_ context.Context, recordID string, status model.PaymentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[recordID]
	if !ok {
		return model.ErrNotFound
	}
	rec.PaymentStatus = status
	s.records[recordID] = rec
	return nil
}

// MarkAttended mirrors the PostgreSQL conditional UPDATE: the terminal check
// and the write happen under one mutex hold, so racing callers observe
// exactly one true result per record.
func (s *Store) MarkAttended(_ context.Context, recordID string, status model.RecordStatus, actor string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[recordID]
	if !ok {
		return false, nil
	}
	if rec.Attended() {
		return false, nil
	}
	rec.Status = status
	rec.ValidatedAt = &at
	rec.ValidatedBy = actor
	s.records[recordID] = rec
	return true, nil
}
