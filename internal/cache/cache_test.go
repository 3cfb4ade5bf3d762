package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventgate/eventgate/internal/model"
)

func testEvent(id string) *model.Event {
	return &model.Event{ID: id, Name: "Event " + id, Type: model.EventTypeRegistration}
}

func TestMemoryGetSet(t *testing.T) {
	c := NewMemory(time.Minute, 4)
	ctx := context.Background()

	_, ok := c.Get(ctx, "evt-1")
	assert.False(t, ok)

	c.Set(ctx, testEvent("evt-1"))
	got, ok := c.Get(ctx, "evt-1")
	require.True(t, ok)
	assert.Equal(t, "evt-1", got.ID)
}

func TestMemoryReturnsCopy(t *testing.T) {
	c := NewMemory(time.Minute, 4)
	ctx := context.Background()

	c.Set(ctx, testEvent("evt-1"))
	first, ok := c.Get(ctx, "evt-1")
	require.True(t, ok)
	first.Name = "mutated"

	second, ok := c.Get(ctx, "evt-1")
	require.True(t, ok)
	assert.Equal(t, "Event evt-1", second.Name, "callers must not see each other's mutations")
}

func TestMemoryTTLExpiry(t *testing.T) {
	c := NewMemory(20*time.Millisecond, 4)
	ctx := context.Background()

	c.Set(ctx, testEvent("evt-1"))
	_, ok := c.Get(ctx, "evt-1")
	require.True(t, ok)

	time.Sleep(30 * time.Millisecond)
	_, ok = c.Get(ctx, "evt-1")
	assert.False(t, ok, "entries past their TTL read as misses")
}

func TestMemoryInvalidate(t *testing.T) {
	c := NewMemory(time.Minute, 4)
	ctx := context.Background()

	c.Set(ctx, testEvent("evt-1"))
	c.Invalidate(ctx, "evt-1")

	_, ok := c.Get(ctx, "evt-1")
	assert.False(t, ok)

	// Invalidating a missing key is a no-op.
	c.Invalidate(ctx, "evt-2")
}

func TestMemoryCapacityEviction(t *testing.T) {
	c := NewMemory(time.Minute, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		c.Set(ctx, testEvent(fmt.Sprintf("evt-%d", i)))
		time.Sleep(time.Millisecond) // distinct storedAt ordering
	}
	c.Set(ctx, testEvent("evt-3"))

	_, ok := c.Get(ctx, "evt-0")
	assert.False(t, ok, "oldest entry is evicted at capacity")

	_, ok = c.Get(ctx, "evt-3")
	assert.True(t, ok)

	total := 0
	for i := 0; i < 4; i++ {
		if _, ok := c.Get(ctx, fmt.Sprintf("evt-%d", i)); ok {
			total++
		}
	}
	assert.Equal(t, 3, total)
}

func TestMemoryOverwriteDoesNotEvict(t *testing.T) {
	c := NewMemory(time.Minute, 2)
	ctx := context.Background()

	c.Set(ctx, testEvent("evt-0"))
	c.Set(ctx, testEvent("evt-1"))
	c.Set(ctx, testEvent("evt-1")) // refresh, not a new entry

	_, ok := c.Get(ctx, "evt-0")
	assert.True(t, ok, "refreshing an existing key must not evict others")
}
