package cache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
)

// MemoryCache keeps the most recently used entries in process memory
type MemoryCache struct {
	entries *lru.Cache[string, *Entry]
}

// NewMemoryCache creates an LRU cache holding at most maxEntries entries
func NewMemoryCache(maxEntries int) (*MemoryCache, error) {
	entries, err := lru.New[string, *Entry](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}
	return &MemoryCache{entries: entries}, nil
}

// Get implements Cache
func (c *MemoryCache) Get(_ context.Context, key string) (*Entry, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	entry, ok := c.entries.Get(key)
	if !ok {
		return nil, nil // Cache miss
	}
	log.Debug().Str("key", key).Msg("Cache hit")
	return entry, nil
}

// Set implements Cache
func (c *MemoryCache) Set(_ context.Context, key string, entry *Entry) error {
	if key == "" {
		return ErrInvalidKey
	}
	if err := entry.validate(); err != nil {
		return err
	}
	if evicted := c.entries.Add(key, entry); evicted {
		log.Debug().Str("key", key).Msg("Evicted least recently used embedding")
	}
	log.Debug().Str("key", key).Msg("Cached embedding")
	return nil
}

// Delete implements Cache
func (c *MemoryCache) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		c.entries.Remove(key)
	}
	return nil
}

// Clear implements Cache
func (c *MemoryCache) Clear(_ context.Context) error {
	c.entries.Purge()
	return nil
}

// Len returns the number of cached entries
func (c *MemoryCache) Len() int {
	return c.entries.Len()
}

// Close implements Cache
func (c *MemoryCache) Close() error {
	c.entries.Purge()
	return nil
}

// Health implements Cache
func (c *MemoryCache) Health(_ context.Context) error {
	return nil
}
