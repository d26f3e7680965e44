package catalog

import (
	"strings"
	"sync/atomic"
	"time"

	"github.com/alexanderramin/dermaloop/internal/domain"
	gocache "github.com/patrickmn/go-cache"
)

// SearchCache memoizes search results for a fixed TTL. Expiry is decided by
// the injected clock rather than go-cache's own timers, so tests can move
// time forward.
type SearchCache struct {
	items  *gocache.Cache
	ttl    time.Duration
	now    func() time.Time
	hits   atomic.Int64
	misses atomic.Int64
}

type cacheEntry struct {
	products  []domain.Product
	expiresAt time.Time
}

// NewSearchCache creates a cache. A nil clock uses time.Now.
func NewSearchCache(ttl time.Duration, now func() time.Time) *SearchCache {
	if now == nil {
		now = time.Now
	}
	return &SearchCache{
		items: gocache.New(gocache.NoExpiration, 0),
		ttl:   ttl,
		now:   now,
	}
}

func cacheKey(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}

// Get returns the cached products for query. Expired entries are evicted and
// reported as a miss.
func (c *SearchCache) Get(query string) ([]domain.Product, bool) {
	key := cacheKey(query)
	v, found := c.items.Get(key)
	if found {
		e := v.(cacheEntry)
		if c.now().Before(e.expiresAt) {
			c.hits.Add(1)
			return e.products, true
		}
		c.items.Delete(key)
	}
	c.misses.Add(1)
	return nil, false
}

// Set stores products for query until the TTL elapses.
func (c *SearchCache) Set(query string, products []domain.Product) {
	if c.ttl <= 0 {
		return
	}
	c.items.Set(cacheKey(query), cacheEntry{
		products:  products,
		expiresAt: c.now().Add(c.ttl),
	}, gocache.NoExpiration)
}

// Purge drops every expired entry and returns how many were removed.
func (c *SearchCache) Purge() int {
	now := c.now()
	removed := 0
	for key, item := range c.items.Items() {
		if e, ok := item.Object.(cacheEntry); ok && !now.Before(e.expiresAt) {
			c.items.Delete(key)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired or not.
func (c *SearchCache) Len() int {
	return c.items.ItemCount()
}

// Stats returns the hit and miss counts since creation.
func (c *SearchCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
