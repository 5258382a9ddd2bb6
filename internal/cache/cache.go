// Package cache provides a bounded, time-expiring cache for expensive
// retrieval results. Entries are evicted by LRU pressure once capacity is
// exceeded; expired entries are purged lazily on the next lookup that
// touches them.
package cache

import (
	"container/list"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Cache is a fixed-capacity LRU cache whose entries expire after a TTL.
// It is safe for concurrent use.
type Cache[V any] struct {
	mu       sync.Mutex
	entries  map[string]*list.Element
	order    *list.List // front = most recently used
	capacity int
	ttl      time.Duration
	now      func() time.Time
}

type entry[V any] struct {
	key        string
	value      V
	insertedAt time.Time
}

// New creates a cache holding at most capacity entries, each valid for ttl
// after insertion.
func New[V any](capacity int, ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		entries:  make(map[string]*list.Element, capacity),
		order:    list.New(),
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
	}
}

// GetOrCompute returns the live cached value for key, or invokes compute,
// stores its result, and returns it. The lock is held across compute, so
// concurrent callers of the same key perform the computation exactly once.
// A compute error is returned as-is and nothing is stored.
func (c *Cache[V]) GetOrCompute(ctx context.Context, key string, compute func(context.Context) (V, error)) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		ent := el.Value.(*entry[V])
		if c.now().Sub(ent.insertedAt) < c.ttl {
			c.order.MoveToFront(el)
			return ent.value, nil
		}
		c.order.Remove(el)
		delete(c.entries, key)
	}

	value, err := compute(ctx)
	if err != nil {
		var zero V
		return zero, err
	}

	el := c.order.PushFront(&entry[V]{key: key, value: value, insertedAt: c.now()})
	c.entries[key] = el
	if c.order.Len() > c.capacity {
		c.evictLRU()
	}
	return value, nil
}

// evictLRU removes the least-recently-used entry. Untouched entries keep
// their insertion order, so the oldest insertion goes first among ties.
func (c *Cache[V]) evictLRU() {
	el := c.order.Back()
	if el == nil {
		return
	}
	ent := el.Value.(*entry[V])
	c.order.Remove(el)
	delete(c.entries, ent.key)
}

// Len reports the number of stored entries, including expired ones not yet
// lazily purged.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Key derives a deterministic cache key from a query string, an optional
// structured filter, and the requested result count. The query is
// lower-cased and whitespace-normalized so trivially different phrasings of
// the same lookup share an entry.
func Key(query string, filter map[string]string, k int) string {
	var sb strings.Builder
	sb.WriteString(strings.ToLower(strings.Join(strings.Fields(query), " ")))

	if len(filter) > 0 {
		names := make([]string, 0, len(filter))
		for name := range filter {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			sb.WriteByte('|')
			sb.WriteString(name)
			sb.WriteByte('=')
			sb.WriteString(filter[name])
		}
	}
	fmt.Fprintf(&sb, "|k=%d", k)

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}
