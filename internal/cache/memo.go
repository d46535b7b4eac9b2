package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Memo memoizes per-user query results. Keys are "user|query"; a write for a
// user drops every entry under that user's prefix.
//
// Each user has a generation counter bumped by Invalidate. Loads started
// before an invalidation neither populate the cache nor share a flight with
// loads started after it.
type Memo[T any] struct {
	lru   *LRUCache[T]
	group singleflight.Group

	mu  sync.Mutex
	gen map[string]uint64
}

func NewMemo[T any](size int, ttl time.Duration) *Memo[T] {
	return &Memo[T]{
		lru: NewLRUCache[T](size, ttl),
		gen: map[string]uint64{},
	}
}

func memoKey(userID, query string) string {
	return userID + "|" + query
}

func (m *Memo[T]) generation(userID string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gen[userID]
}

// Get returns the cached value for (userID, query) or runs load once, even
// with concurrent callers for the same key.
func (m *Memo[T]) Get(ctx context.Context, userID, query string, load func(context.Context) (T, error)) (T, error) {
	key := memoKey(userID, query)
	if v, ok := m.lru.Get(key); ok {
		return v, nil
	}

	gen := m.generation(userID)
	flight := key + "#" + strconv.FormatUint(gen, 10)
	v, err, _ := m.group.Do(flight, func() (any, error) {
		val, err := load(ctx)
		if err != nil {
			return val, err
		}
		m.mu.Lock()
		if m.gen[userID] == gen {
			m.lru.Set(key, val)
		}
		m.mu.Unlock()
		return val, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	val, _ := v.(T)
	return val, nil
}

// Invalidate drops every memoized entry for userID.
func (m *Memo[T]) Invalidate(userID string) int {
	m.mu.Lock()
	m.gen[userID]++
	m.mu.Unlock()
	return m.lru.DeletePrefix(userID + "|")
}

func (m *Memo[T]) CleanExpired() int { return m.lru.CleanExpired() }

func (m *Memo[T]) Size() int { return m.lru.Size() }
