// Package cache keeps short-lived copies of the provider's reference
// collections in redis. Lookups and hierarchies are still rebuilt on every
// report; only the raw rows are reused.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andresuchdata/salesdash/internal/config"
)

const (
	referenceKeyPrefix = "report:ref"
	scanBatchSize      = 100
)

// ReferenceCache satisfies upstream.ReferenceCache.
type ReferenceCache interface {
	Get(ctx context.Context, collection string) ([]json.RawMessage, bool, error)
	Set(ctx context.Context, collection string, rows []json.RawMessage) error
	InvalidateAll(ctx context.Context) error
	// Close releases the redis connection pool.
	Close() error
}

type redisReferenceCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

type noopReferenceCache struct{}

// NewReferenceCache connects to redis when caching is enabled. namespace
// separates providers sharing one redis, typically the provider base URL.
func NewReferenceCache(cfg config.CacheConfig, namespace string) (ReferenceCache, error) {
	if !cfg.Enabled {
		return &noopReferenceCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisReferenceCache{
		client: client,
		ttl:    ttl,
		prefix: namespacePrefix(namespace),
	}, nil
}

func NewNoopReferenceCache() ReferenceCache {
	return &noopReferenceCache{}
}

func (c *redisReferenceCache) Get(ctx context.Context, collection string) ([]json.RawMessage, bool, error) {
	payload, err := c.client.Get(ctx, c.key(collection)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, false, fmt.Errorf("decode %s reference cache: %w", collection, err)
	}
	return rows, true, nil
}

func (c *redisReferenceCache) Set(ctx context.Context, collection string, rows []json.RawMessage) error {
	if rows == nil {
		rows = []json.RawMessage{}
	}
	payload, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode %s reference cache: %w", collection, err)
	}

	if err := c.client.Set(ctx, c.key(collection), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisReferenceCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, c.prefix+":", scanBatchSize)
}

func (c *redisReferenceCache) Close() error {
	return c.client.Close()
}

func (c *redisReferenceCache) key(collection string) string {
	return referenceKey(c.prefix, collection)
}

func (n *noopReferenceCache) Get(ctx context.Context, collection string) ([]json.RawMessage, bool, error) {
	return nil, false, nil
}

func (n *noopReferenceCache) Set(ctx context.Context, collection string, rows []json.RawMessage) error {
	return nil
}

func (n *noopReferenceCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func (n *noopReferenceCache) Close() error {
	return nil
}

func namespacePrefix(namespace string) string {
	namespace = strings.ToLower(strings.TrimRight(strings.TrimSpace(namespace), "/"))
	if namespace == "" {
		return referenceKeyPrefix + ":default"
	}
	sum := sha1.Sum([]byte(namespace))
	return referenceKeyPrefix + ":" + hex.EncodeToString(sum[:])[:12]
}

func referenceKey(prefix, collection string) string {
	return fmt.Sprintf("%s:%s", prefix, strings.ToLower(strings.TrimSpace(collection)))
}
