package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Dedupe prevents double-counting the same telemetry event across multiple
// engine processes that share a session (e.g. a checkpoint resumed by a
// different worker than the one that saved it). Backed by Redis SETNX with
// a TTL so the dedupe set self-cleans instead of growing without bound.
type Dedupe struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDedupe wraps an existing Redis client. ttl bounds how long an event id
// is remembered; zero defaults to 24 hours, generous enough to cover any
// single day's log-rotation window.
func NewDedupe(client *redis.Client, ttl time.Duration) *Dedupe {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Dedupe{client: client, ttl: ttl}
}

// SeenEvent atomically marks eventID as seen and reports whether it was
// already seen before this call. A Redis error is treated as "not seen" so
// a dedupe outage degrades to over-counting rather than dropping telemetry.
func (d *Dedupe) SeenEvent(ctx context.Context, eventID string) (bool, error) {
	ok, err := d.client.SetNX(ctx, dedupeKey(eventID), 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("telemetry: dedupe check: %w", err)
	}
	// SetNX reports true when the key was newly set, i.e. not seen before.
	return !ok, nil
}

func dedupeKey(eventID string) string {
	return "agentgraph:telemetry:seen:" + eventID
}
