package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrCacheMiss indicates the key was absent from every tier.
var ErrCacheMiss = errors.New("cache miss")

// IsCacheMiss reports whether err is a cache miss.
func IsCacheMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}

// Config configures one TieredCache instance. Namespace partitions
// the keyspace: it names the L2 file and prefixes L3 keys, so two
// differently-namespaced caches never see each other's entries.
type Config struct {
	Namespace  string        `yaml:"namespace" json:"namespace"`
	Dir        string        `yaml:"dir" json:"dir"`
	MaxEntries int           `yaml:"max_entries" json:"max_entries"`
	L1TTL      time.Duration `yaml:"l1_ttl" json:"l1_ttl"`
	L2TTL      time.Duration `yaml:"l2_ttl" json:"l2_ttl"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Namespace:  "default",
		Dir:        ".agentcache",
		MaxEntries: 1000,
		L1TTL:      5 * time.Minute,
		L2TTL:      1 * time.Hour,
	}
}

// Stats are lifetime counters for one TieredCache instance. They are
// monotonically non-decreasing and survive Clear.
type Stats struct {
	L1Hits     uint64 `json:"l1_hits"`
	L1Misses   uint64 `json:"l1_misses"`
	L2Hits     uint64 `json:"l2_hits"`
	L2Misses   uint64 `json:"l2_misses"`
	L3Hits     uint64 `json:"l3_hits"`
	L3Misses   uint64 `json:"l3_misses"`
	Evictions  uint64 `json:"evictions"`
	Promotions uint64 `json:"promotions"`
}

// TieredCache cascades reads through L1 (memory), L2 (disk), and L3
// (remote knowledge backend), promoting hits upward, and writes
// through all tiers synchronously. It is safe for concurrent use.
//
// Construct one instance per namespace at application start and pass
// it to consumers; Initialize must run before the cache serves data.
// Operations on an uninitialized (or destroyed) instance behave as an
// empty cache rather than fault.
type TieredCache[T any] struct {
	id     string
	cfg    Config
	l1     *lruStore[T]
	l2     *diskStore[T]
	l3     RemoteStore[T]
	logger *zap.Logger

	mu          sync.Mutex
	initialized bool
	destroyed   bool

	l1Hits     atomic.Uint64
	l1Misses   atomic.Uint64
	l2Hits     atomic.Uint64
	l2Misses   atomic.Uint64
	l3Hits     atomic.Uint64
	l3Misses   atomic.Uint64
	promotions atomic.Uint64
}

// New creates a TieredCache over the given remote tier. Pass
// NewNoopRemote when no knowledge backend is wired in.
func New[T any](cfg Config, remote RemoteStore[T], logger *zap.Logger) *TieredCache[T] {
	if cfg.Namespace == "" {
		cfg.Namespace = DefaultConfig().Namespace
	}
	if cfg.Dir == "" {
		cfg.Dir = DefaultConfig().Dir
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultConfig().MaxEntries
	}
	if cfg.L1TTL <= 0 {
		cfg.L1TTL = DefaultConfig().L1TTL
	}
	if cfg.L2TTL <= 0 {
		cfg.L2TTL = DefaultConfig().L2TTL
	}
	if remote == nil {
		remote = NewNoopRemote[T]()
	}

	logger = logger.With(
		zap.String("component", "cache"),
		zap.String("namespace", cfg.Namespace),
	)

	return &TieredCache[T]{
		id:     uuid.New().String(),
		cfg:    cfg,
		l1:     newLRUStore[T](cfg.MaxEntries, cfg.L1TTL),
		l2:     newDiskStore[T](cfg.Dir, cfg.Namespace, cfg.L2TTL, logger),
		l3:     remote,
		logger: logger,
	}
}

// Initialize ensures the cache directory exists and primes the L2
// bookkeeping from disk. Idempotent.
func (c *TieredCache[T]) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return nil
	}
	if c.destroyed {
		return fmt.Errorf("cache %s is destroyed", c.cfg.Namespace)
	}

	if err := c.l2.EnsureDir(); err != nil {
		return err
	}

	persisted := c.l2.Load()
	c.initialized = true

	c.logger.Info("tiered cache initialized",
		zap.String("instance", c.id),
		zap.Int("max_entries", c.cfg.MaxEntries),
		zap.Int("persisted_entries", len(persisted)),
	)
	return nil
}

// Get looks key up tier by tier, promoting a hit into the faster
// tiers. A miss at every tier returns ErrCacheMiss, which is a normal
// outcome rather than a failure.
func (c *TieredCache[T]) Get(ctx context.Context, key string) (T, error) {
	var zero T
	if !c.ready() {
		return zero, ErrCacheMiss
	}

	if entry, ok := c.l1.Get(key); ok {
		c.l1Hits.Add(1)
		return entry.Value, nil
	}
	c.l1Misses.Add(1)

	if entry, ok := c.l2.Get(key); ok {
		c.l2Hits.Add(1)
		entry.Metadata.Layers.L1 = true
		c.l1.Set(key, entry)
		c.promotions.Add(1)
		c.logger.Debug("promoted from disk", zap.String("key", key))
		return entry.Value, nil
	}
	c.l2Misses.Add(1)

	if entry, ok := c.l3.Get(ctx, key); ok {
		c.l3Hits.Add(1)
		entry.Metadata.Layers = Layers{L1: true, L2: true, L3: true}
		onDisk := *entry
		c.l1.Set(key, entry)
		c.l2.Set(key, &onDisk)
		c.promotions.Add(1)
		c.logger.Debug("promoted from remote", zap.String("key", key))
		return entry.Value, nil
	}
	c.l3Misses.Add(1)

	return zero, ErrCacheMiss
}

// Set writes value through every tier synchronously. There is no
// rollback: inner tiers are resilience, not transactional consistency,
// and their faults are absorbed at the tier boundary.
func (c *TieredCache[T]) Set(ctx context.Context, key string, value T) {
	if !c.ready() {
		c.logger.Warn("set on unready cache ignored", zap.String("key", key))
		return
	}

	entry := newEntry(key, value, c.cfg.L1TTL, time.Now())
	entry.Metadata.Layers = Layers{L1: true, L2: true}

	// L1 mutates entry metadata on hits, so the outer tiers get
	// their own copies to serialize.
	outer := *entry
	c.l1.Set(key, entry)
	c.l2.Set(key, &outer)
	c.l3.Set(ctx, key, &outer)
}

// Invalidate removes key from every tier. Unknown keys are a no-op.
func (c *TieredCache[T]) Invalidate(ctx context.Context, key string) {
	if !c.ready() {
		return
	}

	c.l1.Delete(key)
	c.l2.Remove(key)
	c.l3.Remove(ctx, key)
}

// Refresh pulls fresh copies of every L2-resident key down from the
// remote tier. It resolves without error when the backend is
// unavailable or stubbed.
func (c *TieredCache[T]) Refresh(ctx context.Context) error {
	if !c.ready() {
		return nil
	}
	if !c.l3.Available(ctx) {
		return nil
	}

	refreshed := 0
	for key := range c.l2.Load() {
		entry, ok := c.l3.Get(ctx, key)
		if !ok {
			continue
		}
		entry.Metadata.Layers = Layers{L1: true, L2: true, L3: true}
		onDisk := *entry
		c.l1.Set(key, entry)
		c.l2.Set(key, &onDisk)
		refreshed++
	}

	if refreshed > 0 {
		c.logger.Info("cache refreshed from remote", zap.Int("entries", refreshed))
	}
	return nil
}

// Clear empties L1 and L2 (and L3, best effort). Statistics are
// lifetime counters and are deliberately not reset.
func (c *TieredCache[T]) Clear(ctx context.Context) {
	if !c.ready() {
		return
	}

	c.l1.Clear()
	c.l2.RemoveAll()
	c.l3.Clear(ctx)
	c.logger.Info("cache cleared")
}

// Stats returns a snapshot of the lifetime counters.
func (c *TieredCache[T]) Stats() Stats {
	return Stats{
		L1Hits:     c.l1Hits.Load(),
		L1Misses:   c.l1Misses.Load(),
		L2Hits:     c.l2Hits.Load(),
		L2Misses:   c.l2Misses.Load(),
		L3Hits:     c.l3Hits.Load(),
		L3Misses:   c.l3Misses.Load(),
		Evictions:  c.l1.Evictions(),
		Promotions: c.promotions.Load(),
	}
}

// Namespace returns the namespace this instance serves.
func (c *TieredCache[T]) Namespace() string {
	return c.cfg.Namespace
}

// Destroy releases the in-memory tier for process teardown. The L2
// file is left on disk so a new instance over the same namespace can
// warm from it. Subsequent operations behave as an empty cache.
func (c *TieredCache[T]) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return
	}
	c.destroyed = true
	c.l1.Clear()
	c.logger.Info("tiered cache destroyed", zap.String("instance", c.id))
}

func (c *TieredCache[T]) ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialized && !c.destroyed
}
