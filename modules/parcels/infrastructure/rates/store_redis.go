package rates

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore backs the rate cache with a shared Redis instance. Expiry is
// enforced server-side via SETEX, so readers never see a stale entry.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", ErrNotCached
		}
		return "", err
	}
	return val, nil
}

func (s *RedisStore) SetEx(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.client.SetEx(ctx, key, value, ttl).Err()
}
