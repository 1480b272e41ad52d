package otp

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps entries in Redis so codes survive restarts and are
// shared across replicas. Keys carry a grace period past the entry's
// expiry so Verify can still report "expired" rather than "not found".
type RedisStore struct {
	client *redis.Client
	prefix string
	grace  time.Duration
}

// NewRedisStore creates a store on an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "rollcall:otp:", grace: time.Minute}
}

// Put stores or overwrites the entry for a mobile number.
func (s *RedisStore) Put(ctx context.Context, mobile string, e Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	ttl := time.Until(e.ExpiresAt) + s.grace
	if ttl <= 0 {
		ttl = s.grace
	}
	return s.client.Set(ctx, s.prefix+mobile, raw, ttl).Err()
}

// Get returns the live entry for a mobile number.
func (s *RedisStore) Get(ctx context.Context, mobile string) (Entry, bool, error) {
	raw, err := s.client.Get(ctx, s.prefix+mobile).Result()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	var e Entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return Entry{}, false, err
	}
	return e, true, nil
}

// Delete removes the entry for a mobile number.
func (s *RedisStore) Delete(ctx context.Context, mobile string) error {
	return s.client.Del(ctx, s.prefix+mobile).Err()
}
