package cache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/paywall/pkg/cache"
)

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	c := cache.NewLRU[string, int](2, 0)
	c.Put("a", 1)
	c.Put("b", 2)

	_, ok := c.Get("a")
	assert.True(t, ok)

	c.Put("c", 3)

	_, ok = c.Get("b")
	assert.False(t, ok, "b was least recently used")
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, c.Len())
}

func TestLRU_AddOnlyWhenAbsent(t *testing.T) {
	t.Parallel()

	c := cache.NewLRU[string, string](4, 0)
	assert.True(t, c.Add("evt_1", "first"))
	assert.False(t, c.Add("evt_1", "second"))

	v, _ := c.Get("evt_1")
	assert.Equal(t, "first", v)

	assert.True(t, c.Remove("evt_1"))
	assert.False(t, c.Remove("evt_1"))
	assert.True(t, c.Add("evt_1", "third"))
}

func TestLRU_Expiry(t *testing.T) {
	t.Parallel()

	c := cache.NewLRU[string, struct{}](4, 20*time.Millisecond)
	assert.True(t, c.Add("evt_1", struct{}{}))
	assert.False(t, c.Add("evt_1", struct{}{}))

	assert.Eventually(t, func() bool {
		_, ok := c.Get("evt_1")
		return !ok
	}, time.Second, 5*time.Millisecond)
	assert.True(t, c.Add("evt_1", struct{}{}))
}

func TestLRU_PanicsOnZeroCapacity(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { cache.NewLRU[string, int](0, 0) })
}
