package idempotency

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store remembers processed webhook event ids so duplicate deliveries can be
// skipped before touching the database. An id is recorded only after the
// event has been fully applied; a delivery that failed mid-flight stays
// retryable. The SQL guards remain the source of truth.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// Seen reports whether the event id has been marked as processed.
func (s *Store) Seen(ctx context.Context, eventID string) (bool, error) {
	n, err := s.rdb.Exists(ctx, key(eventID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Mark records the event id as processed.
func (s *Store) Mark(ctx context.Context, eventID string) error {
	return s.rdb.Set(ctx, key(eventID), "1", s.ttl).Err()
}

func key(eventID string) string { return "webhook:" + eventID }
