package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/platinummonkey/cssprep/pkg/config"
)

const redisKeyPrefix = "cssprep:parse:"

// RedisCache shares parse results between machines through Redis
type RedisCache struct {
	client  *redis.Client
	ttl     time.Duration
	metrics *metrics
}

// NewRedisCache connects to the Redis server named by cfg.RedisURL
func NewRedisCache(ctx context.Context, cfg config.CacheConfig) (*RedisCache, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	if cfg.RedisPassword != "" {
		opts.Password = cfg.RedisPassword
	}
	if cfg.RedisDB > 0 {
		opts.DB = cfg.RedisDB
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.PoolTimeout = 4 * time.Second

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: failed to connect to redis: %v", ErrCacheUnavailable, err)
	}

	return &RedisCache{
		client:  client,
		ttl:     cfg.TTL,
		metrics: newMetrics(),
	}, nil
}

// Get retrieves a cached parse result
func (c *RedisCache) Get(ctx context.Context, key *Key) (*Entry, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	redisKey := redisKeyPrefix + key.String()
	data, err := c.client.Get(ctx, redisKey).Bytes()
	if errors.Is(err, redis.Nil) {
		c.metrics.recordMiss()
		return nil, ErrCacheMiss
	} else if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		// Drop corrupt data so the next run repopulates it
		c.client.Del(ctx, redisKey)
		c.metrics.recordMiss()
		return nil, ErrCacheMiss
	}

	c.metrics.recordHit()
	return &entry, nil
}

// Set stores a parse result with the configured TTL
func (c *RedisCache) Set(ctx context.Context, key *Key, entry *Entry) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if entry == nil {
		return fmt.Errorf("entry cannot be nil")
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	if err := c.client.Set(ctx, redisKeyPrefix+key.String(), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Stats returns hit/miss counts for this process. ItemCount is not tracked.
func (c *RedisCache) Stats(ctx context.Context) (*Stats, error) {
	return c.metrics.stats(0), nil
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
