// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eventgate/eventgate/internal/audit"
	"github.com/eventgate/eventgate/internal/cache"
	"github.com/eventgate/eventgate/internal/identifier"
	"github.com/eventgate/eventgate/internal/metrics"
	"github.com/eventgate/eventgate/internal/model"
)

// EventStore is the persistence surface for event configuration.
type EventStore interface {
	CreateEvent(ctx context.Context, event *model.Event) error
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	UpdateEvent(ctx context.Context, event *model.Event) error
	ListEvents(ctx context.Context) ([]model.Event, error)
}

// RecordStore is the persistence surface for issued records. MarkAttended is
// the single synchronization point for concurrent validation: its boolean
// result (one row matched or none) decides valid versus already-used.
type RecordStore interface {
	CreateRecord(ctx context.Context, rec *model.Record) error
	GetRecordByID(ctx context.Context, id string) (*model.Record, error)
	GetByUniqueID(ctx context.Context, uniqueID string) (*model.Record, error)
	GetByManualCode(ctx context.Context, eventID, code string) (*model.Record, error)
	GetByTicketNumber(ctx context.Context, number string) (*model.Record, error)
	ListByEvent(ctx context.Context, eventID string) ([]model.Record, error)
	SetPaymentStatus(ctx context.Context, recordID string, status model.PaymentStatus) error
	MarkAttended(ctx context.Context, recordID string, status model.RecordStatus, actor string, at time.Time) (bool, error)
}

// Service orchestrates issuance and attendance validation.
type Service struct {
	events    EventStore
	records   RecordStore
	generator *identifier.Generator

	cache   cache.EventCache
	logger  *slog.Logger
	metrics *metrics.Metrics
	audit   *audit.Publisher
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithEventCache attaches a config snapshot cache consulted before the store.
func WithEventCache(c cache.EventCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithMetrics attaches Prometheus counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithAuditPublisher attaches the audit trail.
func WithAuditPublisher(p *audit.Publisher) Option {
	return func(s *Service) { s.audit = p }
}

// New constructs a Service.
func New(events EventStore, records RecordStore, generator *identifier.Generator, opts ...Option) *Service {
	s := &Service{
		events:    events,
		records:   records,
		generator: generator,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateEvent validates the request and persists a new event.
func (s *Service) CreateEvent(ctx context.Context, req model.CreateEventRequest) (*model.Event, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, fmt.Errorf("event name is required")
	}
	if !req.Type.Valid() {
		return nil, fmt.Errorf("event type must be %q or %q", model.EventTypeRegistration, model.EventTypeTicket)
	}
	if req.Payment.Required && req.Payment.Amount <= 0 {
		return nil, fmt.Errorf("payment amount must be positive when payment is required")
	}

	now := time.Now().UTC()
	event := &model.Event{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Type:        req.Type,
		Eligibility: req.Eligibility,
		Payment:     req.Payment,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.events.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

// GetEvent returns an event, consulting the config cache first.
func (s *Service) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	if id == "" {
		return nil, fmt.Errorf("event id is required")
	}
	return s.loadEvent(ctx, id)
}

// UpdateEvent applies a config change and invalidates the cached snapshot.
func (s *Service) UpdateEvent(ctx context.Context, id string, req model.UpdateEventRequest) (*model.Event, error) {
	event, err := s.events.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("event name is required")
		}
		event.Name = name
	}
	if req.Eligibility != nil {
		event.Eligibility = *req.Eligibility
	}
	if req.Payment != nil {
		event.Payment = *req.Payment
	}
	event.UpdatedAt = time.Now().UTC()

	if err := s.events.UpdateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, id)
	}
	return event, nil
}

// ListEvents returns all events.
func (s *Service) ListEvents(ctx context.Context) ([]model.Event, error) {
	return s.events.ListEvents(ctx)
}

// GetRecord returns a single record by id.
func (s *Service) GetRecord(ctx context.Context, id string) (*model.Record, error) {
	if id == "" {
		return nil, fmt.Errorf("record id is required")
	}
	return s.records.GetRecordByID(ctx, id)
}

// ListRecords returns all records for an event.
func (s *Service) ListRecords(ctx context.Context, eventID string) ([]model.Record, error) {
	if _, err := s.loadEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.records.ListByEvent(ctx, eventID)
}

// SetPaymentStatus records the settled fact from the external payment
// collaborator. It never touches the attendance status.
func (s *Service) SetPaymentStatus(ctx context.Context, recordID string, status model.PaymentStatus) (*model.Record, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("unknown payment status %q", status)
	}
	if err := s.records.SetPaymentStatus(ctx, recordID, status); err != nil {
		return nil, err
	}
	rec, err := s.records.GetRecordByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.PaymentUpdates.Inc()
	}
	s.emitAudit(ctx, audit.Event{
		Action:   audit.ActionPaymentSettled,
		EventID:  rec.EventID,
		RecordID: rec.ID,
		Outcome:  string(status),
	})
	return rec, nil
}

// loadEvent reads through the config cache when one is attached.
func (s *Service) loadEvent(ctx context.Context, id string) (*model.Event, error) {
	if s.cache != nil {
		if event, ok := s.cache.Get(ctx, id); ok {
			if s.metrics != nil {
				s.metrics.EventCacheHits.Inc()
			}
			return event, nil
		}
		if s.metrics != nil {
			s.metrics.EventCacheMisses.Inc()
		}
	}
	event, err := s.events.GetEvent(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("load event: %w", err)
	}
	if s.cache != nil {
		s.cache.Set(ctx, event)
	}
	return event, nil
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.Warn("audit emit failed", "action", event.Action, "error", err)
	}
}
