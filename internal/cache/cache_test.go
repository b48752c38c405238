package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobfeed-engine/internal/domain"
)

func TestEmptyCache(t *testing.T) {
	c := New(time.Minute)
	_, ok := c.Get()
	assert.False(t, ok)
	assert.False(t, c.Valid())
}

func TestPutThenGet(t *testing.T) {
	c := New(time.Minute)
	c.Put([]domain.NormalizedJob{{CanonicalID: "a"}, {CanonicalID: "b"}})

	snap, ok := c.Get()
	require.True(t, ok)
	assert.Len(t, snap.Jobs, 2)
	assert.False(t, snap.CapturedAt.IsZero())
	assert.True(t, c.Valid())
}

func TestTTLBoundary(t *testing.T) {
	const ttl = 5 * time.Minute
	t0 := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	c := New(ttl)
	c.now = func() time.Time { return t0 }
	c.Put(nil)

	c.now = func() time.Time { return t0.Add(ttl - time.Millisecond) }
	assert.True(t, c.Valid(), "1ms before expiry must be valid")

	c.now = func() time.Time { return t0.Add(ttl + time.Millisecond) }
	assert.False(t, c.Valid(), "1ms after expiry must be invalid")

	// expired snapshots stay readable; only Valid() changes
	_, ok := c.Get()
	assert.True(t, ok)
}

func TestPutOverwritesWholesale(t *testing.T) {
	c := New(time.Minute)
	c.Put([]domain.NormalizedJob{{CanonicalID: "old"}})
	c.Put([]domain.NormalizedJob{{CanonicalID: "new-1"}, {CanonicalID: "new-2"}})

	snap, _ := c.Get()
	require.Len(t, snap.Jobs, 2)
	assert.Equal(t, "new-1", snap.Jobs[0].CanonicalID)
}
