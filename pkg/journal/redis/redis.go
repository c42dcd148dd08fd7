package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rmax-ai/locklord/pkg/journal"
)

const defaultKey = "locklord:journal"

// Sink mirrors activity log entries into a capped Redis list so external
// consumers (dashboards, alerting) can tail the log without touching the
// daemon.
type Sink struct {
	client *redis.Client
	key    string
	cap    int64
}

// NewSink creates a Redis-backed journal sink. key defaults to
// "locklord:journal" and capacity to 1000 when zero.
func NewSink(client *redis.Client, key string, capacity int64) *Sink {
	if key == "" {
		key = defaultKey
	}
	if capacity <= 0 {
		capacity = 1000
	}
	return &Sink{client: client, key: key, cap: capacity}
}

// Append pushes the entry to the head of the list and trims to capacity.
func (s *Sink) Append(ctx context.Context, e journal.Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, s.key, data)
	pipe.LTrim(ctx, s.key, 0, s.cap-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to push entry to %s: %w", s.key, err)
	}
	return nil
}

// Recent returns up to limit entries in append order, oldest first.
func (s *Sink) Recent(ctx context.Context, limit int64) ([]journal.Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	values, err := s.client.LRange(ctx, s.key, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.key, err)
	}

	// List head is the newest entry; walk backwards to restore order.
	entries := make([]journal.Entry, 0, len(values))
	for i := len(values) - 1; i >= 0; i-- {
		var e journal.Entry
		if err := json.Unmarshal([]byte(values[i]), &e); err != nil {
			return nil, fmt.Errorf("failed to unmarshal entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Close is a no-op; the Redis client is owned by the caller.
func (s *Sink) Close() error {
	return nil
}
