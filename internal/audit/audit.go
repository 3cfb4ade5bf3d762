// Package audit records an append-only trail of issuance and validation
// activity. Publishing is best-effort: it never blocks or fails the request
// path that produced the event.
package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Actions recorded in the trail.
const (
	ActionRecordIssued   = "record.issued"
	ActionPaymentSettled = "payment.settled"
	ActionValidation     = "validation"
)

// Event is one audit trail entry.
type Event struct {
	ID       string    `json:"id"`
	At       time.Time `json:"at"`
	Action   string    `json:"action"`
	EventID  string    `json:"event_id,omitempty"`
	RecordID string    `json:"record_id,omitempty"`
	Actor    string    `json:"actor,omitempty"`
	Outcome  string    `json:"outcome,omitempty"`
}

// Store persists audit events locally.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByRecord(ctx context.Context, recordID string) ([]Event, error)
}

// Sink forwards audit events to an external system, e.g. a Kafka topic.
type Sink interface {
	Publish(ctx context.Context, event Event) error
	Close()
}

// InMemoryStore keeps the trail in memory for tests and development.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

// NewInMemoryStore constructs an empty InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemoryStore) ListByRecord(_ context.Context, recordID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, e := range s.events {
		if e.RecordID == recordID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Publisher fans audit events out to the store and the optional sink. With
// an async buffer configured, Emit enqueues and a single worker drains;
// a full buffer drops the event rather than blocking the caller.
type Publisher struct {
	store  Store
	sink   Sink
	logger *slog.Logger

	ch     chan Event
	wg     sync.WaitGroup
	closed sync.Once
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithAsyncBuffer switches the publisher to asynchronous mode with the given
// channel capacity.
func WithAsyncBuffer(size int) PublisherOption {
	return func(p *Publisher) { p.ch = make(chan Event, size) }
}

// WithSink attaches an external sink.
func WithSink(sink Sink) PublisherOption {
	return func(p *Publisher) { p.sink = sink }
}

// WithLogger sets the logger used for drop and sink-failure warnings.
func WithLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) { p.logger = logger }
}

// NewPublisher constructs a Publisher writing to store.
func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if p.ch != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records one audit event. The event's ID and timestamp are stamped
// here so callers only fill the what-happened fields.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	event.ID = uuid.New().String()
	event.At = time.Now().UTC()

	if p.ch == nil {
		p.deliver(ctx, event)
		return nil
	}
	select {
	case p.ch <- event:
	default:
		p.logger.Warn("audit buffer full, dropping event", "action", event.Action, "record_id", event.RecordID)
	}
	return nil
}

// Close drains any buffered events and shuts down the sink.
func (p *Publisher) Close() {
	p.closed.Do(func() {
		if p.ch != nil {
			close(p.ch)
			p.wg.Wait()
		}
		if p.sink != nil {
			p.sink.Close()
		}
	})
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.ch {
		p.deliver(context.Background(), event)
	}
}

func (p *Publisher) deliver(ctx context.Context, event Event) {
	if err := p.store.Append(ctx, event); err != nil {
		p.logger.Warn("audit store append failed", "action", event.Action, "error", err)
	}
	if p.sink != nil {
		if err := p.sink.Publish(ctx, event); err != nil {
			p.logger.Warn("audit sink publish failed", "action", event.Action, "error", err)
		}
	}
}
