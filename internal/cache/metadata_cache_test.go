package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/sqladvisor/internal/catalog"
)

// countingProvider records per-table fetch counts.
type countingProvider struct {
	indexCalls map[string]int
	statCalls  map[string]int
}

func newCountingProvider() *countingProvider {
	return &countingProvider{
		indexCalls: make(map[string]int),
		statCalls:  make(map[string]int),
	}
}

func (p *countingProvider) FetchIndexes(_ context.Context, tables []catalog.TableRef) ([]catalog.IndexMetadata, error) {
	var out []catalog.IndexMetadata
	for _, t := range tables {
		p.indexCalls[t.String()]++
		out = append(out, catalog.IndexMetadata{Name: "idx_" + t.Name, Table: t.Name})
	}
	return out, nil
}

func (p *countingProvider) FetchColumnStatistics(_ context.Context, tables []catalog.TableRef) ([]catalog.ColumnStatistics, error) {
	var out []catalog.ColumnStatistics
	for _, t := range tables {
		p.statCalls[t.String()]++
		out = append(out, catalog.ColumnStatistics{Table: t.Name, Column: "id", DistinctCount: 10})
	}
	return out, nil
}

func TestCacheReadThrough(t *testing.T) {
	provider := newCountingProvider()
	c := New(provider, "conn-1", time.Minute, 10)
	ctx := context.Background()
	emp := []catalog.TableRef{{Name: "emp"}}

	first, err := c.FetchIndexes(ctx, emp)
	require.NoError(t, err)
	second, err := c.FetchIndexes(ctx, emp)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, provider.indexCalls["emp"], "second fetch must be served from cache")

	hits, misses, _ := c.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
}

func TestCacheFetchesOnlyMissingTables(t *testing.T) {
	provider := newCountingProvider()
	c := New(provider, "conn-1", time.Minute, 10)
	ctx := context.Background()

	_, err := c.FetchIndexes(ctx, []catalog.TableRef{{Name: "emp"}})
	require.NoError(t, err)

	out, err := c.FetchIndexes(ctx, []catalog.TableRef{{Name: "emp"}, {Name: "dept"}})
	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Equal(t, 1, provider.indexCalls["emp"])
	assert.Equal(t, 1, provider.indexCalls["dept"])
}

func TestCacheTTLExpiry(t *testing.T) {
	provider := newCountingProvider()
	c := New(provider, "conn-1", time.Minute, 10)

	current := time.Unix(1000, 0)
	c.now = func() time.Time { return current }

	ctx := context.Background()
	emp := []catalog.TableRef{{Name: "emp"}}

	_, err := c.FetchIndexes(ctx, emp)
	require.NoError(t, err)

	current = current.Add(30 * time.Second)
	_, err = c.FetchIndexes(ctx, emp)
	require.NoError(t, err)
	assert.Equal(t, 1, provider.indexCalls["emp"], "entry still fresh at half TTL")

	current = current.Add(time.Minute)
	_, err = c.FetchIndexes(ctx, emp)
	require.NoError(t, err)
	assert.Equal(t, 2, provider.indexCalls["emp"], "expired entry must be refetched")
}

func TestCacheLRUEviction(t *testing.T) {
	provider := newCountingProvider()
	c := New(provider, "conn-1", time.Minute, 2)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		_, err := c.FetchIndexes(ctx, []catalog.TableRef{{Name: name}})
		require.NoError(t, err)
	}

	// "a" was evicted by "c"; refetching it hits the provider again.
	_, err := c.FetchIndexes(ctx, []catalog.TableRef{{Name: "a"}})
	require.NoError(t, err)
	assert.Equal(t, 2, provider.indexCalls["a"])
	assert.Equal(t, 1, provider.indexCalls["b"])

	_, _, evictions := c.Stats()
	assert.GreaterOrEqual(t, evictions, uint64(1))
}

func TestCacheSeparatesIndexAndStatisticsEntries(t *testing.T) {
	provider := newCountingProvider()
	c := New(provider, "conn-1", time.Minute, 10)
	ctx := context.Background()
	emp := []catalog.TableRef{{Name: "emp"}}

	_, err := c.FetchIndexes(ctx, emp)
	require.NoError(t, err)
	_, err = c.FetchColumnStatistics(ctx, emp)
	require.NoError(t, err)

	assert.Equal(t, 1, provider.indexCalls["emp"])
	assert.Equal(t, 1, provider.statCalls["emp"])
}

func TestCacheKeyIncludesOwner(t *testing.T) {
	provider := newCountingProvider()
	c := New(provider, "conn-1", time.Minute, 10)
	ctx := context.Background()

	_, err := c.FetchIndexes(ctx, []catalog.TableRef{{Owner: "hr", Name: "emp"}})
	require.NoError(t, err)
	_, err = c.FetchIndexes(ctx, []catalog.TableRef{{Owner: "sales", Name: "emp"}})
	require.NoError(t, err)

	assert.Equal(t, 1, provider.indexCalls["hr.emp"])
	assert.Equal(t, 1, provider.indexCalls["sales.emp"])
}

func TestCacheInvalidate(t *testing.T) {
	provider := newCountingProvider()
	c := New(provider, "conn-1", time.Minute, 10)
	ctx := context.Background()
	emp := []catalog.TableRef{{Name: "emp"}}

	_, err := c.FetchIndexes(ctx, emp)
	require.NoError(t, err)
	c.Invalidate()
	_, err = c.FetchIndexes(ctx, emp)
	require.NoError(t, err)

	assert.Equal(t, 2, provider.indexCalls["emp"])
}
