package utils_test

import (
	"testing"
	"time"

	"github.com/auracore/styleforge/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLMapSetGet(t *testing.T) {
	m := utils.NewTTLMap[string, int](50*time.Millisecond, 10*time.Millisecond)
	defer m.Close()

	m.Set("a", 1)

	v, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestTTLMapExpiry(t *testing.T) {
	m := utils.NewTTLMap[string, int](20*time.Millisecond, 5*time.Millisecond)
	defer m.Close()

	m.Set("a", 1)
	time.Sleep(100 * time.Millisecond)

	_, ok := m.Get("a")
	assert.False(t, ok)
}

func TestTTLMapDelete(t *testing.T) {
	m := utils.NewTTLMap[string, int](time.Second, time.Second)
	defer m.Close()

	m.Set("a", 1)
	m.Delete("a")

	_, ok := m.Get("a")
	assert.False(t, ok)
}
