package scopecache

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/haukened/burp2fs/internal/extract/services/scope"
)

// verdictCache is an LRU-backed implementation of scope.DecisionCache.
// It tracks basic metrics: hits, misses, and evictions.
type verdictCache struct {
	lru       *lru.Cache[string, bool]
	hits      uint64
	misses    uint64
	evictions uint64
}

// disabledCache is a no-op DecisionCache used when size <= 0.
type disabledCache struct{}

// Stats is a snapshot of cache counters.
type Stats struct {
	Size      int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Cache is a scope.DecisionCache that also reports Stats.
type Cache interface {
	scope.DecisionCache
	Stats() Stats
}

// New creates a verdict cache with the given capacity. If size <= 0, a
// disabled cache is returned that always misses and tracks no metrics.
func New(size int) (Cache, error) {
	if size <= 0 {
		return &disabledCache{}, nil
	}
	var vc verdictCache
	cache, err := lru.NewWithEvict(size, func(_ string, _ bool) {
		atomic.AddUint64(&vc.evictions, 1)
	})
	if err != nil {
		return nil, err
	}
	vc.lru = cache
	return &vc, nil
}

// Get looks up a verdict by host.
func (c *verdictCache) Get(host string) (bool, bool) {
	if v, ok := c.lru.Get(host); ok {
		atomic.AddUint64(&c.hits, 1)
		return v, true
	}
	atomic.AddUint64(&c.misses, 1)
	return false, false
}

// Put stores a verdict by host.
func (c *verdictCache) Put(host string, inScope bool) {
	c.lru.Add(host, inScope)
}

// Len returns the number of cached hosts.
func (c *verdictCache) Len() int { return c.lru.Len() }

// Purge clears all entries. Evictions are counted via the eviction callback.
func (c *verdictCache) Purge() { c.lru.Purge() }

// Stats returns cumulative counters and the current size.
func (c *verdictCache) Stats() Stats {
	return Stats{
		Size:      c.lru.Len(),
		Hits:      atomic.LoadUint64(&c.hits),
		Misses:    atomic.LoadUint64(&c.misses),
		Evictions: atomic.LoadUint64(&c.evictions),
	}
}

func (d *disabledCache) Get(string) (bool, bool) { return false, false }
func (d *disabledCache) Put(string, bool)        {}
func (d *disabledCache) Len() int                { return 0 }
func (d *disabledCache) Purge()                  {}
func (d *disabledCache) Stats() Stats            { return Stats{} }

var _ Cache = (*verdictCache)(nil)
var _ Cache = (*disabledCache)(nil)
