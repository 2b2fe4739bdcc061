package cache_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/rohmanhakim/imdb-mcp/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFIFO(t *testing.T) {
	c := cache.NewFIFO[string, string](3)
	require.NotNil(t, c)
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 3, c.Capacity())
}

func TestNewFIFO_NonPositiveCapacityFallsBack(t *testing.T) {
	assert.Equal(t, cache.DefaultCapacity, cache.NewFIFO[string, int](0).Capacity())
	assert.Equal(t, cache.DefaultCapacity, cache.NewFIFO[string, int](-5).Capacity())
}

func TestFIFO_PutAndGet(t *testing.T) {
	c := cache.NewFIFO[string, string](2)
	c.Put("tt1375666", "Inception")

	value, found := c.Get("tt1375666")
	assert.True(t, found)
	assert.Equal(t, "Inception", value)

	value, found = c.Get("tt0000000")
	assert.False(t, found)
	assert.Empty(t, value)
}

func TestFIFO_CapacityPlusOneEvictsEarliest(t *testing.T) {
	const capacity = 100
	c := cache.NewFIFO[string, int](capacity)

	for i := 0; i <= capacity; i++ {
		c.Put(fmt.Sprintf("tt%07d", i), i)
	}

	assert.Equal(t, capacity, c.Len())
	_, found := c.Get("tt0000000")
	assert.False(t, found, "earliest inserted key must be evicted")

	for i := 1; i <= capacity; i++ {
		v, ok := c.Get(fmt.Sprintf("tt%07d", i))
		assert.True(t, ok)
		assert.Equal(t, i, v)
	}
}

func TestFIFO_GetDoesNotRefreshOrder(t *testing.T) {
	c := cache.NewFIFO[string, int](2)
	c.Put("a", 1)
	c.Put("b", 2)

	_, _ = c.Get("a")
	c.Put("c", 3)

	_, found := c.Get("a")
	assert.False(t, found, "reads must not protect an entry from eviction")
	assert.Equal(t, []string{"b", "c"}, c.Keys())
}

func TestFIFO_PutOverwriteKeepsPosition(t *testing.T) {
	c := cache.NewFIFO[string, int](2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("a", 10)

	assert.Equal(t, 2, c.Len())
	v, _ := c.Get("a")
	assert.Equal(t, 10, v)
	assert.Equal(t, []string{"a", "b"}, c.Keys())

	// "a" is still the oldest insertion
	c.Put("c", 3)
	_, found := c.Get("a")
	assert.False(t, found)
	assert.Equal(t, []string{"b", "c"}, c.Keys())
}

func TestFIFO_EvictionCallback(t *testing.T) {
	var evicted []string
	c := cache.NewFIFO[string, int](2, cache.WithEvictionCallback(func(k string, _ int) {
		evicted = append(evicted, k)
	}))

	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("a", 3)
	assert.Empty(t, evicted, "overwrite must not evict")

	c.Put("c", 4)
	c.Put("d", 5)
	assert.Equal(t, []string{"a", "b"}, evicted)
}

func TestFIFO_Clear(t *testing.T) {
	c := cache.NewFIFO[string, int](4)
	c.Put("a", 1)
	c.Put("b", 2)

	c.Clear()

	assert.Equal(t, 0, c.Len())
	_, found := c.Get("a")
	assert.False(t, found)
}

func TestFIFO_ConcurrentAccessStaysBounded(t *testing.T) {
	const capacity = 16
	c := cache.NewFIFO[int, int](capacity)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				c.Put(w*1000+i, i)
				c.Get(w*1000 + i/2)
				assert.LessOrEqual(t, c.Len(), capacity)
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, capacity, c.Len())
	assert.Len(t, c.Keys(), capacity)
}
