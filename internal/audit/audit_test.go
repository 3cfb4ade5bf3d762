package audit

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncEmitAppendsImmediately(t *testing.T) {
	store := NewInMemoryStore()
	p := NewPublisher(store)

	err := p.Emit(context.Background(), Event{
		Action:   ActionRecordIssued,
		EventID:  "evt-1",
		RecordID: "rec-1",
	})
	require.NoError(t, err)

	events, err := store.ListByRecord(context.Background(), "rec-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, ActionRecordIssued, events[0].Action)
	assert.NotEmpty(t, events[0].ID, "emit stamps the entry id")
	assert.False(t, events[0].At.IsZero(), "emit stamps the timestamp")
}

func TestListByRecordFilters(t *testing.T) {
	store := NewInMemoryStore()
	p := NewPublisher(store)
	ctx := context.Background()

	require.NoError(t, p.Emit(ctx, Event{Action: ActionRecordIssued, RecordID: "rec-1"}))
	require.NoError(t, p.Emit(ctx, Event{Action: ActionValidation, RecordID: "rec-1", Outcome: "valid"}))
	require.NoError(t, p.Emit(ctx, Event{Action: ActionRecordIssued, RecordID: "rec-2"}))

	events, err := store.ListByRecord(ctx, "rec-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, ActionRecordIssued, events[0].Action)
	assert.Equal(t, ActionValidation, events[1].Action)
}

func TestAsyncCloseDrains(t *testing.T) {
	store := NewInMemoryStore()
	p := NewPublisher(store, WithAsyncBuffer(64))
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		require.NoError(t, p.Emit(ctx, Event{Action: ActionValidation, RecordID: "rec-1"}))
	}
	p.Close()

	events, err := store.ListByRecord(ctx, "rec-1")
	require.NoError(t, err)
	assert.Len(t, events, 20, "close must flush everything buffered")
}

func TestCloseIsIdempotent(t *testing.T) {
	p := NewPublisher(NewInMemoryStore(), WithAsyncBuffer(8))
	p.Close()
	p.Close()
}

// blockingStore holds Append until released, so the drain worker stays busy
// and the channel buffer can be filled deterministically.
type blockingStore struct {
	release chan struct{}
	inner   *InMemoryStore
	started chan struct{}
	once    sync.Once
}

func (s *blockingStore) Append(ctx context.Context, event Event) error {
	s.once.Do(func() { close(s.started) })
	<-s.release
	return s.inner.Append(ctx, event)
}

func (s *blockingStore) ListByRecord(ctx context.Context, recordID string) ([]Event, error) {
	return s.inner.ListByRecord(ctx, recordID)
}

func TestAsyncFullBufferDropsInsteadOfBlocking(t *testing.T) {
	store := &blockingStore{
		release: make(chan struct{}),
		inner:   NewInMemoryStore(),
		started: make(chan struct{}),
	}
	p := NewPublisher(store, WithAsyncBuffer(2))
	ctx := context.Background()

	// First emit occupies the worker; wait until Append is holding it.
	require.NoError(t, p.Emit(ctx, Event{Action: ActionValidation, RecordID: "rec-1"}))
	<-store.started

	// Two more fill the buffer; the rest must drop without blocking.
	for i := 0; i < 5; i++ {
		require.NoError(t, p.Emit(ctx, Event{Action: ActionValidation, RecordID: "rec-1"}))
	}

	close(store.release)
	p.Close()

	events, err := store.ListByRecord(ctx, "rec-1")
	require.NoError(t, err)
	assert.Len(t, events, 3, "one in flight plus two buffered survive, the rest drop")
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
	closed bool
}

func (s *recordingSink) Publish(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func TestSinkReceivesEventsAndCloses(t *testing.T) {
	sink := &recordingSink{}
	p := NewPublisher(NewInMemoryStore(), WithSink(sink))
	ctx := context.Background()

	require.NoError(t, p.Emit(ctx, Event{Action: ActionPaymentSettled, RecordID: "rec-1"}))
	p.Close()

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.events, 1)
	assert.Equal(t, ActionPaymentSettled, sink.events[0].Action)
	assert.True(t, sink.closed)
}
