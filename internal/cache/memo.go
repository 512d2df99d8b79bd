// Package cache provides TTL memoization for expensive aggregate queries
// (district stats, rankings, heatmap). Entries are keyed by a request
// signature and dropped wholesale whenever the underlying collections
// mutate, so no caller can observe a result computed before the mutation.
package cache

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Memo is a thread-safe TTL memoization cache.
type Memo struct {
	ttl   time.Duration
	clock clockwork.Clock

	mu         sync.Mutex
	entries    map[string]entry
	generation uint64
}

type entry struct {
	value     any
	expiresAt time.Time
}

// New creates a Memo with the given entry lifetime. A non-positive ttl
// disables expiry; entries then live until the next invalidation.
func New(ttl time.Duration) *Memo {
	return NewWithClock(ttl, clockwork.NewRealClock())
}

// NewWithClock creates a Memo with an injected time source for tests.
func NewWithClock(ttl time.Duration, clock clockwork.Clock) *Memo {
	return &Memo{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[string]entry),
	}
}

// Get returns the cached value for key, if present and unexpired.
func (m *Memo) Get(key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && !m.clock.Now().Before(e.expiresAt) {
		delete(m.entries, key)
		return nil, false
	}
	return e.value, true
}

// GetOr returns the cached value for key or computes, stores and returns
// it. The compute function runs outside the lock, so a mutation can
// invalidate the cache while a compute is in flight; the write is then
// discarded (generation check in put) and only the caller that started it
// sees the stale value. Concurrent misses on the same key may compute more
// than once, which is safe because compute is pure.
func (m *Memo) GetOr(key string, compute func() any) any {
	if v, ok := m.Get(key); ok {
		return v
	}

	m.mu.Lock()
	gen := m.generation
	m.mu.Unlock()

	v := compute()
	m.put(key, v, gen)
	return v
}

// InvalidateAll synchronously drops every entry and advances the
// generation so in-flight computes cannot re-insert pre-mutation results.
// Called from the store's mutation hook before any subsequent read can run.
func (m *Memo) InvalidateAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]entry)
	m.generation++
}

// Len reports the number of live entries, expired ones included.
func (m *Memo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memo) put(key string, value any, gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// An invalidation ran while the value was being computed; it reflects
	// pre-mutation state and must not be cached.
	if gen != m.generation {
		return
	}

	e := entry{value: value}
	if m.ttl > 0 {
		e.expiresAt = m.clock.Now().Add(m.ttl)
	}
	m.entries[key] = e
}
