package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"shopmate/internal/config"
)

// RedisCache wraps a Redis client.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(cfg *config.RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisCache{client: client}, nil
}

// Set stores a JSON-encoded value.
func (c *RedisCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, expiration).Err()
}

// Get loads a JSON-encoded value into dest.
func (c *RedisCache) Get(ctx context.Context, key string, dest any) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// Delete removes keys.
func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	return c.client.Del(ctx, keys...).Err()
}

// Exists reports whether key exists.
func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, key).Result()
	return n > 0, err
}

// SetNX sets key only if it does not exist. Returns true if the key was set.
// Used to deduplicate escalation notifications across racing turns.
func (c *RedisCache) SetNX(ctx context.Context, key string, value any, expiration time.Duration) (bool, error) {
	return c.client.SetNX(ctx, key, value, expiration).Result()
}

// Close closes the connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Client returns the underlying client.
func (c *RedisCache) Client() *redis.Client {
	return c.client
}

// Key patterns
const (
	StoreCacheKeyPrefix = "store:"
	StoreCacheTTL       = 5 * time.Minute

	EscalationDedupKeyPrefix = "escalate:"
	EscalationDedupTTL       = 24 * time.Hour
)

// StoreCacheKey builds the cache key for a store config, keyed by shop domain.
func StoreCacheKey(shop string) string {
	return StoreCacheKeyPrefix + shop
}

// EscalationDedupKey builds the dedup key for an escalation notification.
func EscalationDedupKey(conversationID, reasonHash string) string {
	return EscalationDedupKeyPrefix + conversationID + ":" + reasonHash
}
