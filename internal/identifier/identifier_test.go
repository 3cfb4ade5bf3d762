package identifier

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventgate/eventgate/internal/model"
)

// fakeChecker reports the first N lookups as taken, then everything as free.
type fakeChecker struct {
	mu         sync.Mutex
	collisions int
	calls      int
}

func (f *fakeChecker) CodeExists(_ context.Context, _, _ string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.calls <= f.collisions, nil
}

func (f *fakeChecker) TicketNumberExists(_ context.Context, _ string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.calls <= f.collisions, nil
}

func newTestGenerator(checker CodeChecker) *Generator {
	return New(checker, NewQRSigner("test-signing-key"))
}

func TestGenerateRegistrationShape(t *testing.T) {
	gen := newTestGenerator(&fakeChecker{})

	set, err := gen.Generate(context.Background(), "evt-1", "rec-1", model.EventTypeRegistration)
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^[A-Z]{6}$`), set.ManualCode)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{32}$`), set.UniqueID)
	assert.NotEmpty(t, set.QRPayload)
	assert.Empty(t, set.TicketNumber, "registrations carry no ticket number")
}

func TestGenerateTicketShape(t *testing.T) {
	gen := newTestGenerator(&fakeChecker{})

	set, err := gen.Generate(context.Background(), "evt-1", "rec-1", model.EventTypeTicket)
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^[0-9]{6}$`), set.ManualCode)
	assert.Regexp(t, regexp.MustCompile(`^TKT-[0-9]{10}$`), set.TicketNumber)
}

func TestGenerateRetriesOnCollision(t *testing.T) {
	checker := &fakeChecker{collisions: 3}
	var retries int
	gen := New(checker, NewQRSigner("test-signing-key"), WithRetryHook(func() { retries++ }))

	set, err := gen.Generate(context.Background(), "evt-1", "rec-1", model.EventTypeRegistration)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[A-Z]{6}$`), set.ManualCode)
	assert.Equal(t, 3, retries)
}

func TestGenerateExhaustsRetryBudget(t *testing.T) {
	// Every candidate collides; the bounded retry must fail loudly rather
	// than degrade.
	checker := &fakeChecker{collisions: 1 << 30}
	gen := newTestGenerator(checker)

	_, err := gen.Generate(context.Background(), "evt-1", "rec-1", model.EventTypeRegistration)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrCodeSpaceExhausted)
}

func TestGenerateUniqueIDsDiffer(t *testing.T) {
	gen := newTestGenerator(&fakeChecker{})

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		set, err := gen.Generate(context.Background(), "evt-1", "rec-1", model.EventTypeRegistration)
		require.NoError(t, err)
		assert.False(t, seen[set.UniqueID], "unique id repeated")
		seen[set.UniqueID] = true
	}
}

type errChecker struct{}

func (errChecker) CodeExists(context.Context, string, string) (bool, error) {
	return false, errors.New("store down")
}

func (errChecker) TicketNumberExists(context.Context, string) (bool, error) {
	return false, errors.New("store down")
}

func TestGeneratePropagatesStoreError(t *testing.T) {
	gen := newTestGenerator(errChecker{})

	_, err := gen.Generate(context.Background(), "evt-1", "rec-1", model.EventTypeRegistration)
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrCodeSpaceExhausted)
}
