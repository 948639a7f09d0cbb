// Package cache provides an optional read-through cache for catalog
// metadata fetches.
package cache

import (
	"container/list"
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coregx/sqladvisor/internal/catalog"
)

const (
	// DefaultCapacity is the default maximum number of cached table entries.
	DefaultCapacity = 512
	// DefaultTTL is the default lifetime of a cached catalog snapshot.
	DefaultTTL = 5 * time.Minute
)

// MetadataCache is a catalog.Provider that caches per-table fetch results
// with TTL expiry and LRU eviction. Entries are keyed by
// (connection, owner, table); one cache must never be shared across target
// databases, so the connection ID is fixed at construction.
type MetadataCache struct {
	provider     catalog.Provider
	connectionID string
	ttl          time.Duration
	capacity     int

	mu      sync.Mutex
	items   map[cacheKey]*list.Element
	lruList *list.List

	// Metrics using atomic for lock-free reads.
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64

	// now is replaceable in tests.
	now func() time.Time
}

type entryKind int

const (
	kindIndexes entryKind = iota
	kindStatistics
)

type cacheKey struct {
	connection string
	owner      string
	table      string
	kind       entryKind
}

type cacheEntry struct {
	key       cacheKey
	indexes   []catalog.IndexMetadata
	stats     []catalog.ColumnStatistics
	expiresAt time.Time
}

// New wraps a provider with a metadata cache for one connection.
// Non-positive ttl or capacity fall back to the defaults.
func New(provider catalog.Provider, connectionID string, ttl time.Duration, capacity int) *MetadataCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MetadataCache{
		provider:     provider,
		connectionID: connectionID,
		ttl:          ttl,
		capacity:     capacity,
		items:        make(map[cacheKey]*list.Element, capacity),
		lruList:      list.New(),
		now:          time.Now,
	}
}

// FetchIndexes implements catalog.Provider, serving cached snapshots per
// table and fetching only the tables that miss.
func (c *MetadataCache) FetchIndexes(ctx context.Context, tables []catalog.TableRef) ([]catalog.IndexMetadata, error) {
	var out []catalog.IndexMetadata
	var missing []catalog.TableRef
	for _, t := range tables {
		if entry, ok := c.get(c.keyFor(t, kindIndexes)); ok {
			out = append(out, entry.indexes...)
			continue
		}
		missing = append(missing, t)
	}

	for _, t := range missing {
		fetched, err := c.provider.FetchIndexes(ctx, []catalog.TableRef{t})
		if err != nil {
			return nil, err
		}
		c.set(&cacheEntry{key: c.keyFor(t, kindIndexes), indexes: fetched})
		out = append(out, fetched...)
	}
	return out, nil
}

// FetchColumnStatistics implements catalog.Provider.
func (c *MetadataCache) FetchColumnStatistics(ctx context.Context, tables []catalog.TableRef) ([]catalog.ColumnStatistics, error) {
	var out []catalog.ColumnStatistics
	var missing []catalog.TableRef
	for _, t := range tables {
		if entry, ok := c.get(c.keyFor(t, kindStatistics)); ok {
			out = append(out, entry.stats...)
			continue
		}
		missing = append(missing, t)
	}

	for _, t := range missing {
		fetched, err := c.provider.FetchColumnStatistics(ctx, []catalog.TableRef{t})
		if err != nil {
			return nil, err
		}
		c.set(&cacheEntry{key: c.keyFor(t, kindStatistics), stats: fetched})
		out = append(out, fetched...)
	}
	return out, nil
}

// Invalidate drops every cached entry.
func (c *MetadataCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[cacheKey]*list.Element, c.capacity)
	c.lruList.Init()
}

// Stats returns cumulative hit, miss, and eviction counts.
func (c *MetadataCache) Stats() (hits, misses, evictions uint64) {
	return c.hits.Load(), c.misses.Load(), c.evictions.Load()
}

func (c *MetadataCache) keyFor(t catalog.TableRef, kind entryKind) cacheKey {
	return cacheKey{
		connection: c.connectionID,
		owner:      strings.ToLower(t.Owner),
		table:      strings.ToLower(t.Name),
		kind:       kind,
	}
}

func (c *MetadataCache) get(key cacheKey) (*cacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, exists := c.items[key]
	if !exists {
		c.misses.Add(1)
		return nil, false
	}
	entry := elem.Value.(*cacheEntry)
	if c.now().After(entry.expiresAt) {
		c.lruList.Remove(elem)
		delete(c.items, key)
		c.misses.Add(1)
		return nil, false
	}

	c.lruList.MoveToFront(elem)
	c.hits.Add(1)
	return entry, true
}

func (c *MetadataCache) set(entry *cacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry.expiresAt = c.now().Add(c.ttl)
	if elem, exists := c.items[entry.key]; exists {
		elem.Value = entry
		c.lruList.MoveToFront(elem)
		return
	}

	elem := c.lruList.PushFront(entry)
	c.items[entry.key] = elem

	if c.lruList.Len() > c.capacity {
		oldest := c.lruList.Back()
		if oldest != nil {
			c.lruList.Remove(oldest)
			delete(c.items, oldest.Value.(*cacheEntry).key)
			c.evictions.Add(1)
		}
	}
}
