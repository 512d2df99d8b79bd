package cache

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoGetOr(t *testing.T) {
	m := New(time.Minute)

	calls := 0
	compute := func() any {
		calls++
		return "rankings-v1"
	}

	assert.Equal(t, "rankings-v1", m.GetOr("rankings", compute))
	assert.Equal(t, "rankings-v1", m.GetOr("rankings", compute))
	assert.Equal(t, 1, calls, "second lookup must hit the cache")
}

func TestMemoTTL(t *testing.T) {
	clock := clockwork.NewFakeClock()
	m := NewWithClock(30*time.Second, clock)

	m.GetOr("stats", func() any { return 1 })

	t.Run("live before expiry", func(t *testing.T) {
		clock.Advance(29 * time.Second)
		_, ok := m.Get("stats")
		assert.True(t, ok)
	})

	t.Run("expired at the deadline", func(t *testing.T) {
		clock.Advance(time.Second)
		_, ok := m.Get("stats")
		assert.False(t, ok)
	})

	t.Run("recomputes after expiry", func(t *testing.T) {
		calls := 0
		m.GetOr("stats", func() any { calls++; return 2 })
		assert.Equal(t, 1, calls)
	})
}

func TestMemoNoExpiryWhenTTLDisabled(t *testing.T) {
	clock := clockwork.NewFakeClock()
	m := NewWithClock(0, clock)

	m.GetOr("heatmap", func() any { return "points" })
	clock.Advance(24 * time.Hour)

	v, ok := m.Get("heatmap")
	require.True(t, ok)
	assert.Equal(t, "points", v)
}

func TestMemoInvalidateAll(t *testing.T) {
	m := New(time.Minute)
	m.GetOr("rankings", func() any { return 1 })
	m.GetOr("stats", func() any { return 2 })
	require.Equal(t, 2, m.Len())

	m.InvalidateAll()

	assert.Zero(t, m.Len())
	_, ok := m.Get("rankings")
	assert.False(t, ok)
}

func TestMemoInvalidationDuringCompute(t *testing.T) {
	m := New(time.Minute)

	v := m.GetOr("stats", func() any {
		// A mutation lands while the aggregate is being computed.
		m.InvalidateAll()
		return "pre-mutation"
	})
	assert.Equal(t, "pre-mutation", v, "the computing caller still gets its value")

	_, ok := m.Get("stats")
	assert.False(t, ok, "a result computed before the mutation must not be served")

	assert.Equal(t, "post-mutation", m.GetOr("stats", func() any { return "post-mutation" }))
}

func TestMemoInvalidationDuringConcurrentCompute(t *testing.T) {
	m := New(time.Minute)

	computing := make(chan struct{})
	release := make(chan struct{})
	done := make(chan any)

	go func() {
		done <- m.GetOr("rankings", func() any {
			close(computing)
			<-release
			return "stale"
		})
	}()

	<-computing
	m.InvalidateAll()
	close(release)
	assert.Equal(t, "stale", <-done)

	_, ok := m.Get("rankings")
	assert.False(t, ok, "the in-flight write must be discarded after invalidation")
}

func TestMemoDistinctKeys(t *testing.T) {
	m := New(time.Minute)
	m.GetOr("forecast:Anantapur:3", func() any { return "a" })
	m.GetOr("forecast:Anantapur:5", func() any { return "b" })

	a, _ := m.Get("forecast:Anantapur:3")
	b, _ := m.Get("forecast:Anantapur:5")
	assert.NotEqual(t, a, b)
}
