// Package cache stores encoded search responses in a pluggable backend and
// coalesces identical concurrent computations.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/gcbaptista/go-fulltext-engine/config"
	"github.com/gcbaptista/go-fulltext-engine/internal/logging"
	"github.com/gcbaptista/go-fulltext-engine/internal/metrics"
)

const keyPrefix = "search:"

// Backend stores raw cache entries.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// DeletePrefix removes every entry whose key starts with prefix.
	DeletePrefix(ctx context.Context, prefix string) (int, error)
	Close() error
}

// Cache is a search result cache. Backend errors are logged and treated as
// misses, so a broken cache never fails a search.
type Cache struct {
	backend Backend
	ttl     time.Duration
	group   singleflight.Group
	logger  *zap.Logger
	metrics *metrics.Metrics
	hits    atomic.Int64
	misses  atomic.Int64
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger used for backend errors.
func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) { c.logger = logging.OrNop(l) }
}

// WithMetrics records hits and misses on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// New creates a cache over backend. A zero ttl keeps entries until evicted.
func New(backend Backend, ttl time.Duration, opts ...Option) *Cache {
	c := &Cache{backend: backend, ttl: ttl, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("component", "search-cache"))
	return c
}

// NewFromConfig builds the cache selected by cfg. It returns nil for the
// "none" backend.
func NewFromConfig(cfg config.CacheConfig, opts ...Option) (*Cache, error) {
	switch cfg.Backend {
	case "", config.CacheBackendNone:
		return nil, nil
	case config.CacheBackendMemory:
		return New(NewMemoryBackend(cfg.Size), cfg.TTL, opts...), nil
	case config.CacheBackendRedis:
		backend, err := NewRedisBackend(cfg.Addr, cfg.Password, cfg.DB)
		if err != nil {
			return nil, err
		}
		return New(backend, cfg.TTL, opts...), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// Key builds a cache key scoped to an index. The remaining parts are hashed.
func Key(indexName string, parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return fmt.Sprintf("%s%s:%x", keyPrefix, indexName, hash[:16])
}

// GetOrCompute returns the cached value for key or computes, stores and
// returns it. Concurrent callers for the same key share one computation. The
// boolean reports a cache hit.
func GetOrCompute[T any](ctx context.Context, c *Cache, key string, compute func() (T, error)) (T, bool, error) {
	var zero T
	if c == nil {
		v, err := compute()
		return v, false, err
	}

	if data, ok := c.get(ctx, key); ok {
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			c.recordHit()
			return v, true, nil
		}
		c.logger.Warn("discarding undecodable cache entry", zap.String("key", key))
	}
	c.recordMiss()

	data, err, _ := c.group.Do(key, func() (interface{}, error) {
		if data, ok := c.get(ctx, key); ok {
			return data, nil
		}
		v, err := compute()
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode cache entry: %w", err)
		}
		if err := c.backend.Set(ctx, key, data, c.ttl); err != nil {
			c.logger.Error("cache set failed", zap.String("key", key), zap.Error(err))
		}
		return data, nil
	})
	if err != nil {
		return zero, false, err
	}

	var v T
	if err := json.Unmarshal(data.([]byte), &v); err != nil {
		return zero, false, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	return v, false, nil
}

// InvalidateIndex drops every entry of one index.
func (c *Cache) InvalidateIndex(ctx context.Context, indexName string) error {
	if c == nil {
		return nil
	}
	deleted, err := c.backend.DeletePrefix(ctx, keyPrefix+indexName+":")
	if err != nil {
		return fmt.Errorf("invalidating cache for index '%s': %w", indexName, err)
	}
	c.logger.Debug("cache invalidated", zap.String("index", indexName), zap.Int("keys_deleted", deleted))
	return nil
}

// Stats returns the hit and miss counts.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Close releases the backend.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.backend.Close()
}

func (c *Cache) get(ctx context.Context, key string) ([]byte, bool) {
	data, ok, err := c.backend.Get(ctx, key)
	if err != nil {
		c.logger.Error("cache get failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return data, ok
}

func (c *Cache) recordHit() {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *Cache) recordMiss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}
