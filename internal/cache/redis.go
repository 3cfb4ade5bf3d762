package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eventgate/eventgate/internal/model"
)

// Redis is an EventCache backed by a shared Redis instance, for deployments
// where multiple validator processes should share one snapshot cache.
// All failures degrade to cache misses; the store stays authoritative.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedis connects to the given URL and verifies the connection.
func NewRedis(url string, ttl time.Duration, logger *slog.Logger) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Redis{client: client, ttl: ttl, logger: logger}, nil
}

func (c *Redis) Get(ctx context.Context, eventID string) (*model.Event, bool) {
	data, err := c.client.Get(ctx, c.key(eventID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("event cache get failed", "event_id", eventID, "error", err)
		}
		return nil, false
	}
	var event model.Event
	if err := json.Unmarshal(data, &event); err != nil {
		c.logger.Warn("event cache entry corrupt", "event_id", eventID, "error", err)
		return nil, false
	}
	return &event, true
}

func (c *Redis) Set(ctx context.Context, event *model.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		c.logger.Warn("event cache marshal failed", "event_id", event.ID, "error", err)
		return
	}
	if err := c.client.Set(ctx, c.key(event.ID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("event cache set failed", "event_id", event.ID, "error", err)
	}
}

func (c *Redis) Invalidate(ctx context.Context, eventID string) {
	if err := c.client.Del(ctx, c.key(eventID)).Err(); err != nil {
		c.logger.Warn("event cache invalidate failed", "event_id", eventID, "error", err)
	}
}

// Close releases the underlying connection.
func (c *Redis) Close() error {
	return c.client.Close()
}

func (c *Redis) key(eventID string) string {
	return "eventgate:event:" + eventID
}
