package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/AndrewMichael2020/LogiTrack-OMS/internal/core/domain"
)

type CacheStrategy string

const (
	// CacheStrategyInvalidate drops the snapshot after a write; the next read reloads it.
	CacheStrategyInvalidate CacheStrategy = "invalidate"
	// CacheStrategyRehydrate reloads the snapshot right after a write.
	CacheStrategyRehydrate CacheStrategy = "rehydrate"
)

const (
	DefaultSlidingWindow = 30 * time.Second
	DefaultAbsoluteTTL   = 5 * time.Minute
)

// SnapshotLoader fetches the whole inventory collection.
type SnapshotLoader interface {
	ListInventory(ctx context.Context) ([]domain.InventoryItem, error)
}

type CacheOptions struct {
	// SlidingWindow is how long an entry survives without being read. Zero disables it.
	SlidingWindow time.Duration
	// AbsoluteTTL bounds the lifetime of an entry regardless of reads. Zero disables it.
	AbsoluteTTL time.Duration
	Strategy    CacheStrategy
	Now         func() time.Time
}

type cacheEntry struct {
	items      []domain.InventoryItem
	createdAt  time.Time
	lastAccess time.Time
}

type CacheStats struct {
	Hits          uint64 `json:"hits"`
	Misses        uint64 `json:"misses"`
	Loads         uint64 `json:"loads"`
	Invalidations uint64 `json:"invalidations"`
}

type cacheCounters struct {
	hits          atomic.Uint64
	misses        atomic.Uint64
	loads         atomic.Uint64
	invalidations atomic.Uint64
}

// InventoryCache is a read-through cache holding a single snapshot of the
// inventory collection.
//
// Every Invalidate, Rehydrate or Refresh bumps a generation counter. A load
// installs its result only if the generation it started under is still
// current, so a fetch that raced with a write can never overwrite the
// invalidation that followed the write.
type InventoryCache struct {
	source   SnapshotLoader
	sliding  time.Duration
	absolute time.Duration
	strategy CacheStrategy
	now      func() time.Time

	mu    sync.Mutex
	entry *cacheEntry
	gen   uint64

	group    singleflight.Group
	counters cacheCounters
}

func NewInventoryCache(source SnapshotLoader, opts CacheOptions) *InventoryCache {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Strategy == "" {
		opts.Strategy = CacheStrategyInvalidate
	}
	return &InventoryCache{
		source:   source,
		sliding:  opts.SlidingWindow,
		absolute: opts.AbsoluteTTL,
		strategy: opts.Strategy,
		now:      opts.Now,
	}
}

func (c *InventoryCache) valid(e *cacheEntry, now time.Time) bool {
	if c.absolute > 0 && !now.Before(e.createdAt.Add(c.absolute)) {
		return false
	}
	if c.sliding > 0 && !now.Before(e.lastAccess.Add(c.sliding)) {
		return false
	}
	return true
}

// GetAll returns a copy of the cached snapshot, loading it from the store on a miss.
func (c *InventoryCache) GetAll(ctx context.Context) ([]domain.InventoryItem, error) {
	c.mu.Lock()
	now := c.now()
	if c.entry != nil && c.valid(c.entry, now) {
		c.entry.lastAccess = now
		items := domain.CloneItems(c.entry.items)
		c.mu.Unlock()
		c.counters.hits.Add(1)
		return items, nil
	}
	c.entry = nil
	gen := c.gen
	c.mu.Unlock()
	c.counters.misses.Add(1)

	// Callers that miss under the same generation share one store query.
	v, err, _ := c.group.Do(strconv.FormatUint(gen, 10), func() (any, error) {
		items, err := c.source.ListInventory(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.counters.loads.Add(1)
		c.install(gen, items)
		return items, nil
	})
	if err != nil {
		return nil, fmt.Errorf("load inventory snapshot: %w", err)
	}
	return domain.CloneItems(v.([]domain.InventoryItem)), nil
}

func (c *InventoryCache) install(gen uint64, items []domain.InventoryItem) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != gen {
		return false
	}
	now := c.now()
	c.entry = &cacheEntry{
		items:      domain.CloneItems(items),
		createdAt:  now,
		lastAccess: now,
	}
	return true
}

// Invalidate drops the snapshot. Calling it with nothing cached is a no-op.
func (c *InventoryCache) Invalidate() {
	c.mu.Lock()
	c.gen++
	c.entry = nil
	c.mu.Unlock()
	c.counters.invalidations.Add(1)
}

// Rehydrate installs items as the current snapshot unconditionally.
func (c *InventoryCache) Rehydrate(items []domain.InventoryItem) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	now := c.now()
	c.entry = &cacheEntry{
		items:      domain.CloneItems(items),
		createdAt:  now,
		lastAccess: now,
	}
}

// Refresh invalidates the snapshot and reloads it from the store. The reload
// is discarded when another write invalidates the cache while it runs.
func (c *InventoryCache) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.gen++
	c.entry = nil
	gen := c.gen
	c.mu.Unlock()
	c.counters.invalidations.Add(1)

	items, err := c.source.ListInventory(ctx)
	if err != nil {
		return fmt.Errorf("refresh inventory snapshot: %w", err)
	}
	c.counters.loads.Add(1)
	c.install(gen, items)
	return nil
}

// AfterWrite applies the configured strategy. Call it only once the write is durable.
func (c *InventoryCache) AfterWrite(ctx context.Context) error {
	if c.strategy == CacheStrategyRehydrate {
		return c.Refresh(ctx)
	}
	c.Invalidate()
	return nil
}

func (c *InventoryCache) Stats() CacheStats {
	return CacheStats{
		Hits:          c.counters.hits.Load(),
		Misses:        c.counters.misses.Load(),
		Loads:         c.counters.loads.Load(),
		Invalidations: c.counters.invalidations.Load(),
	}
}
