package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// IdempotencyStore remembers which deliveries have been claimed so a
// redelivered message is not processed twice.
type IdempotencyStore struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func NewIdempotencyStore(rdb *redis.Client, prefix string, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{rdb: rdb, ttl: ttl, prefix: prefix}
}

func (s *IdempotencyStore) key(id string) string {
	return fmt.Sprintf("%s:%s", s.prefix, id)
}

// Claim returns true when id was not claimed before and is now owned by the
// caller.
func (s *IdempotencyStore) Claim(ctx context.Context, id string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, s.key(id), "1", s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", id, err)
	}
	return ok, nil
}

// Release drops a claim so a later delivery of id is processed again.
func (s *IdempotencyStore) Release(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("release %s: %w", id, err)
	}
	return nil
}
