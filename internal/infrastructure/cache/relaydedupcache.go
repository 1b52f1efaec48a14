package cache

import (
	"sync"
	"time"

	"warden/internal/shared/goroutine"
	"warden/internal/shared/logger"
)

const (
	DefaultDedupTTL               = 5 * time.Minute
	DefaultDedupSweepInterval     = 60 * time.Second
	DefaultDedupEvictionThreshold = 4096
	DefaultDedupMaxSize           = 8192
)

// RelayDedupCache is a bounded, TTL-expiring set of message references
// already handled by the relay. Marking an outbound message here lets the
// opposite direction's handler recognize its own echo and no-op.
//
// Process-local by design: the relay runs single-process and routing state
// does not need to survive restarts.
type RelayDedupCache struct {
	mu      sync.Mutex
	entries map[string]time.Time
	// order holds keys oldest-first for size eviction; it may contain keys
	// already removed from entries, which eviction skips over.
	order []string

	ttl               time.Duration
	sweepInterval     time.Duration
	evictionThreshold int
	maxSize           int

	stop     chan struct{}
	stopOnce sync.Once
	log      logger.Interface
	now      func() time.Time
}

type RelayDedupConfig struct {
	TTL               time.Duration
	SweepInterval     time.Duration
	EvictionThreshold int
	MaxSize           int
}

// NewRelayDedupCache constructs the cache and starts its background sweep.
// Call Shutdown to stop the sweep; the goroutine never outlives its owner.
func NewRelayDedupCache(cfg RelayDedupConfig, log logger.Interface) *RelayDedupCache {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultDedupTTL
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultDedupSweepInterval
	}
	if cfg.EvictionThreshold <= 0 {
		cfg.EvictionThreshold = DefaultDedupEvictionThreshold
	}
	if cfg.MaxSize <= cfg.EvictionThreshold {
		cfg.MaxSize = cfg.EvictionThreshold * 2
	}

	c := &RelayDedupCache{
		entries:           make(map[string]time.Time),
		ttl:               cfg.TTL,
		sweepInterval:     cfg.SweepInterval,
		evictionThreshold: cfg.EvictionThreshold,
		maxSize:           cfg.MaxSize,
		stop:              make(chan struct{}),
		log:               log.Named("relay_dedup_cache"),
		now:               time.Now,
	}

	goroutine.SafeGo(c.log, "relay-dedup-sweep", c.sweepLoop)

	return c
}

// Contains reports whether key is present and not expired. Expired entries
// are lazily deleted on lookup.
func (c *RelayDedupCache) Contains(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	insertedAt, ok := c.entries[key]
	if !ok {
		return false
	}
	if c.now().Sub(insertedAt) > c.ttl {
		delete(c.entries, key)
		return false
	}
	return true
}

// Insert records key. When the hard max is reached the oldest entries are
// force-evicted before insertion; crossing the soft threshold afterwards
// triggers the same eviction pass.
func (c *RelayDedupCache) Insert(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxSize {
		c.evictOldestLocked(c.evictionThreshold / 2)
	}

	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = c.now()

	if len(c.entries) > c.evictionThreshold {
		c.evictOldestLocked(c.evictionThreshold / 2)
	}
}

// Len returns the current number of live entries.
func (c *RelayDedupCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Shutdown stops the background sweep. Safe to call more than once.
func (c *RelayDedupCache) Shutdown() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

// evictOldestLocked removes oldest-by-insertion entries until at most
// target remain. Caller must hold c.mu.
func (c *RelayDedupCache) evictOldestLocked(target int) {
	evicted := 0
	for len(c.entries) > target && len(c.order) > 0 {
		key := c.order[0]
		c.order = c.order[1:]
		if _, ok := c.entries[key]; ok {
			delete(c.entries, key)
			evicted++
		}
	}

	if evicted > 0 {
		c.log.Debugw("evicted dedup entries", "count", evicted, "remaining", len(c.entries))
	}
}

func (c *RelayDedupCache) sweepLoop() {
	ticker := time.NewTicker(c.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.sweepExpired()
		}
	}
}

// sweepExpired removes TTL-expired entries independent of lookups, so
// memory stays bounded even for keys never looked up again.
func (c *RelayDedupCache) sweepExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, insertedAt := range c.entries {
		if now.Sub(insertedAt) > c.ttl {
			delete(c.entries, key)
			removed++
		}
	}

	if removed > 0 {
		// Compact the order slice so it doesn't accumulate dead keys.
		live := c.order[:0]
		for _, key := range c.order {
			if _, ok := c.entries[key]; ok {
				live = append(live, key)
			}
		}
		c.order = live

		c.log.Debugw("swept expired dedup entries", "count", removed, "remaining", len(c.entries))
	}
}
