package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dokzlo13/ringclock/internal/db"
	"github.com/dokzlo13/ringclock/internal/device"
)

func openCache(t *testing.T, ttl time.Duration) *InfoCache {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return NewInfoCache(database.DB, ttl)
}

func TestInfoCache_PutGet(t *testing.T) {
	c := openCache(t, time.Hour)

	_, ok := c.Get("192.168.1.20")
	assert.False(t, ok)

	want := device.Info{LedCount: 60, MaxSegments: 32, EffectCount: 118}
	require.NoError(t, c.Put("192.168.1.20", want))

	got, ok := c.Get("192.168.1.20")
	require.True(t, ok)
	assert.Equal(t, want, *got)

	// Replace
	want.MaxSegments = 16
	require.NoError(t, c.Put("192.168.1.20", want))
	got, ok = c.Get("192.168.1.20")
	require.True(t, ok)
	assert.Equal(t, 16, got.MaxSegments)
}

func TestInfoCache_Expiry(t *testing.T) {
	c := openCache(t, time.Minute)
	base := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return base }

	require.NoError(t, c.Put("clock.local", device.Info{LedCount: 24}))

	c.now = func() time.Time { return base.Add(59 * time.Second) }
	_, ok := c.Get("clock.local")
	assert.True(t, ok)

	c.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, ok = c.Get("clock.local")
	assert.False(t, ok)
}

func TestInfoCache_Clear(t *testing.T) {
	c := openCache(t, time.Hour)
	require.NoError(t, c.Put("a", device.Info{LedCount: 1}))
	require.NoError(t, c.Put("b", device.Info{LedCount: 2}))

	n, err := c.Clear()
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestInfoCache_ImplementsDeviceCache(t *testing.T) {
	var _ device.InfoCache = openCache(t, time.Hour)
}
