package config

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wudi/reqrouter/internal/logging"
	"go.uber.org/zap"
)

const redisGetTimeout = 2 * time.Second

// RedisStore reads routing keys from a Redis instance. Missing keys read as
// "" so an empty store parses to the all-RO default.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a Store over a Redis connection.
func NewRedisStore(cfg RedisConfig) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		prefix: cfg.KeyPrefix,
	}
}

// Get implements Store.
func (s *RedisStore) Get(key string) string {
	ctx, cancel := context.WithTimeout(context.Background(), redisGetTimeout)
	defer cancel()

	val, err := s.client.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logging.Error("failed to read routing key from redis",
				zap.String("key", s.prefix+key), zap.Error(err))
		}
		return ""
	}
	return val
}

// Close releases the underlying Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
