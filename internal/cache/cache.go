// Package cache provides a bounded, explicitly scoped cache for event
// configuration snapshots, keyed by event id and invalidated whenever an
// event's config changes.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/eventgate/eventgate/internal/model"
)

// EventCache caches read-only event snapshots. Misses are always safe: the
// caller falls back to the store.
type EventCache interface {
	Get(ctx context.Context, eventID string) (*model.Event, bool)
	Set(ctx context.Context, event *model.Event)
	Invalidate(ctx context.Context, eventID string)
}

type memoryEntry struct {
	event    model.Event
	storedAt time.Time
}

// Memory is an in-process EventCache with TTL expiry and a hard entry cap.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	maxSize int
}

// NewMemory constructs a Memory cache. maxSize must be positive.
func NewMemory(ttl time.Duration, maxSize int) *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

func (c *Memory) Get(_ context.Context, eventID string) (*model.Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[eventID]
	if !ok {
		return nil, false
	}
	if time.Since(entry.storedAt) >= c.ttl {
		delete(c.entries, eventID)
		return nil, false
	}
	e := entry.event
	return &e, true
}

func (c *Memory) Set(_ context.Context, event *model.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[event.ID]; !ok && len(c.entries) >= c.maxSize {
		c.evictLocked()
	}
	c.entries[event.ID] = memoryEntry{event: *event, storedAt: time.Now()}
}

func (c *Memory) Invalidate(_ context.Context, eventID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, eventID)
}

// evictLocked drops expired entries first, then the oldest live entry if the
// cache is still full. Callers must hold the mutex.
func (c *Memory) evictLocked() {
	var oldestKey string
	var oldestAt time.Time
	for key, entry := range c.entries {
		if time.Since(entry.storedAt) >= c.ttl {
			delete(c.entries, key)
			continue
		}
		if oldestKey == "" || entry.storedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.storedAt
		}
	}
	if len(c.entries) >= c.maxSize && oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
