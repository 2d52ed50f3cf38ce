package cache

import (
	"strings"
	"sync"
	"time"
)

// Clock returns the current time. Tests substitute a fake.
type Clock func() time.Time

// Store is the minimal cache contract shared by the in-process TTL map and
// the Redis tier.
type Store[V any] interface {
	Get(key string) (V, bool)
	Set(key string, value V)
}

type item[V any] struct {
	value     V
	expiresAt time.Time
}

// TTL is an expiring key/value map. Every entry lives for the same fixed
// duration after its Set. Expired entries read as missing and are dropped
// on access; there is no background sweep.
type TTL[K comparable, V any] struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   Clock
	items map[K]item[V]
}

// NewTTL creates a cache whose entries expire ttl after insertion. A nil
// clock means time.Now.
func NewTTL[K comparable, V any](ttl time.Duration, clock Clock) *TTL[K, V] {
	if clock == nil {
		clock = time.Now
	}
	return &TTL[K, V]{
		ttl:   ttl,
		now:   clock,
		items: make(map[K]item[V]),
	}
}

// Get returns the cached value for key if present and not yet expired.
func (c *TTL[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	if !c.now().Before(it.expiresAt) {
		delete(c.items, key)
		var zero V
		return zero, false
	}
	return it.value, true
}

// Set stores value under key, replacing any previous entry and restarting
// its lifetime.
func (c *TTL[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = item[V]{value: value, expiresAt: c.now().Add(c.ttl)}
}

func (c *TTL[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Len counts stored entries, including expired ones not yet dropped.
func (c *TTL[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *TTL[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]item[V])
}

// Key joins call parameters into a canonical cache key. Empty parts are
// kept so that ("a", "") and ("", "a") stay distinct.
func Key(parts ...string) string {
	return strings.Join(parts, "|")
}
