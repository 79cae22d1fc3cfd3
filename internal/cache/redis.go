package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

const (
	defaultTTL = 24 * time.Hour
)

// RedisCache stores embeddings in Redis as JSON, gzipped above a size threshold
type RedisCache struct {
	client     *redis.Client
	ttl        time.Duration
	compressor Compressor
}

// NewRedisCache creates a new Redis cache client
func NewRedisCache(cfg Config) (*RedisCache, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("Redis address is required")
	}
	if cfg.TTL == 0 {
		cfg.TTL = defaultTTL
	}
	if cfg.CompressionThreshold == 0 {
		cfg.CompressionThreshold = defaultCompressionThreshold
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{
		client:     client,
		ttl:        cfg.TTL,
		compressor: Compressor{Threshold: cfg.CompressionThreshold},
	}, nil
}

// Get implements Cache
func (c *RedisCache) Get(ctx context.Context, key string) (*Entry, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil // Cache miss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get from cache: %w", err)
	}

	data, err := c.compressor.Decompress(val)
	if err != nil {
		return nil, err
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal embedding: %v", ErrInvalidValue, err)
	}
	if err := entry.validate(); err != nil {
		return nil, err
	}

	log.Debug().Str("key", key).Msg("Cache hit")
	return &entry, nil
}

// Set implements Cache
func (c *RedisCache) Set(ctx context.Context, key string, entry *Entry) error {
	if key == "" {
		return ErrInvalidKey
	}
	if err := entry.validate(); err != nil {
		return err
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding: %w", err)
	}
	payload, err := c.compressor.Compress(data)
	if err != nil {
		return err
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in cache: %w", err)
	}

	log.Debug().
		Str("key", key).
		Int("bytes", len(payload)).
		Bool("compressed", len(payload) != len(data)).
		Msg("Cached embedding")
	return nil
}

// Delete implements Cache
func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete from cache: %w", err)
	}

	log.Debug().Int("count", len(keys)).Msg("Deleted cached embeddings")
	return nil
}

// Clear implements Cache
func (c *RedisCache) Clear(ctx context.Context) error {
	if err := c.client.FlushDB(ctx).Err(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	log.Debug().Msg("Cleared cache")
	return nil
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Health checks if Redis is healthy
func (c *RedisCache) Health(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
