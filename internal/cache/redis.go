package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carenest-app/bookingservice/internal/pricing"
)

// configKey is the singleton cache slot for the active pricing config.
const configKey = "pricing:config"

// defaultTTL keeps the cached config short-lived; the rate table changes
// rarely but admins expect edits to show up quickly.
const defaultTTL = 5 * time.Minute

// ErrMiss is returned when the cache has no entry for the config.
var ErrMiss = errors.New("cache: config not cached")

// ConfigCache is a Redis read-through cache for the pricing config. The
// service runs fine without one; callers treat a nil *ConfigCache as a
// permanent miss.
type ConfigCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewConfigCache creates a config cache backed by Redis
func NewConfigCache(addr, password string, db int) (*ConfigCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &ConfigCache{client: client, ttl: defaultTTL}, nil
}

// NewConfigCacheWithClient wraps an existing Redis client, used by tests
func NewConfigCacheWithClient(client *redis.Client, ttl time.Duration) *ConfigCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &ConfigCache{client: client, ttl: ttl}
}

// Close closes the Redis connection
func (c *ConfigCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

// Get retrieves the cached pricing config
func (c *ConfigCache) Get(ctx context.Context) (pricing.Config, error) {
	if c == nil {
		return pricing.Config{}, ErrMiss
	}
	data, err := c.client.Get(ctx, configKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return pricing.Config{}, ErrMiss
		}
		return pricing.Config{}, fmt.Errorf("failed to get cached config: %w", err)
	}

	var cfg pricing.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return pricing.Config{}, fmt.Errorf("failed to unmarshal cached config: %w", err)
	}
	return cfg, nil
}

// Set stores the pricing config with the cache TTL
func (c *ConfigCache) Set(ctx context.Context, cfg pricing.Config) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return c.client.Set(ctx, configKey, data, c.ttl).Err()
}

// Invalidate drops the cached config, forcing the next load through to the
// store. Called after every Save so last-writer-wins holds across replicas.
func (c *ConfigCache) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.client.Del(ctx, configKey).Err()
}
