package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

// RedisClient backs the idempotency cache and short-TTL hold markers.
// Last-write-wins on a given key is acceptable: writers for the same key
// produce the same deterministic response.
type RedisClient struct {
	client *redis.Client
}

func NewRedisClient(cfg Config) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{client: rdb}, nil
}

// idempotencyKey scopes keys by operation namespace so callers reusing the
// same key value across different operations cannot collide.
func idempotencyKey(namespace, key string) string {
	return fmt.Sprintf("idempo:%s:%s", namespace, key)
}

// GetIdempotent returns the response previously stored under the given
// namespace and deduplication key. Absence is not an error; it signals
// "proceed with real work".
func (r *RedisClient) GetIdempotent(ctx context.Context, namespace, key string) ([]byte, bool, error) {
	raw, err := r.client.Get(ctx, idempotencyKey(namespace, key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("idempotency lookup error: %w", err)
	}
	return raw, true, nil
}

// SetIdempotent stores an opaque serialized response under namespace:key.
func (r *RedisClient) SetIdempotent(ctx context.Context, namespace, key string, payload []byte, ttl time.Duration) error {
	return r.client.Set(ctx, idempotencyKey(namespace, key), payload, ttl).Err()
}

// SetHoldMarker writes a forward-looking marker for an active hold. Used by
// operational tooling only; correctness never depends on it.
func (r *RedisClient) SetHoldMarker(ctx context.Context, reservationID string, ttl time.Duration) error {
	return r.client.Set(ctx, fmt.Sprintf("reservation:%s", reservationID), "PENDING", ttl).Err()
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}
