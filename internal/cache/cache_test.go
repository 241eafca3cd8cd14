package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New[[]byte]().WithClock(func() time.Time { return now })

	c.Set("sg3:0x02", []byte{0x02}, TTLStatus)
	v, ok := c.Get("sg3:0x02")
	require.True(t, ok)
	assert.Equal(t, []byte{0x02}, v)

	now = now.Add(TTLStatus + time.Second)
	_, ok = c.Get("sg3:0x02")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	c.Cleanup()
	assert.Equal(t, 0, c.Len())
}

func TestCacheEntryAge(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New[string]().WithClock(func() time.Time { return now })
	c.Set("k", "v", TTLConfig)

	now = now.Add(3 * time.Second)
	e := c.GetEntry("k")
	require.NotNil(t, e)
	assert.Equal(t, 3*time.Second, e.Age(now))

	c.Delete("k")
	assert.Nil(t, c.GetEntry("k"))
}

func TestPagesSingleton(t *testing.T) {
	assert.Same(t, Pages(), Pages())
}
