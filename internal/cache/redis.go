package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey holds the snapshot when no key is configured.
const DefaultRedisKey = "orcatalog:models_cache"

// RedisStore keeps the snapshot under a single Redis key. Expiry is left to
// the TTL check on read, so the key never expires server-side.
type RedisStore struct {
	client *redis.Client
	ctx    context.Context
	key    string
}

// RedisConfig configures a RedisStore.
type RedisConfig struct {
	URL string
	Key string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	key := cfg.Key
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, ctx: ctx, key: key}, nil
}

func (s *RedisStore) Load() ([]byte, error) {
	val, err := s.client.Get(s.ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return val, nil
}

func (s *RedisStore) Save(data []byte) error {
	return s.client.Set(s.ctx, s.key, data, 0).Err()
}

func (s *RedisStore) Remove() error {
	return s.client.Del(s.ctx, s.key).Err()
}

func (s *RedisStore) Location() string {
	return fmt.Sprintf("redis://%s/%s", s.client.Options().Addr, s.key)
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
