package utils_test

import (
	"testing"
	"time"

	"github.com/auracore/styleforge/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUCacheSetGet(t *testing.T) {
	c := utils.NewLRUCache[string, int](2, time.Minute)

	c.Set("a", 1)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := utils.NewLRUCache[string, int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // touch a, making b the LRU entry
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok, "b should have been evicted")

	_, ok = c.Get("a")
	assert.True(t, ok, "a should still be present")

	_, ok = c.Get("c")
	assert.True(t, ok, "c should be present")
}

func TestLRUCacheExpiry(t *testing.T) {
	c := utils.NewLRUCache[string, int](4, 10*time.Millisecond)

	c.Set("a", 1)
	time.Sleep(30 * time.Millisecond)

	_, ok := c.Get("a")
	assert.False(t, ok)
}
