// Package engine is the bounded, policy-driven cache facade.
//
// A Cache owns a map of entries and one eviction strategy from the policy
// package. Every public method takes the same mutex, so each call is atomic
// with respect to every other call on the same instance.
package engine

import (
	"context"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/jmgilman/go/errors"
	"github.com/tstromberg/evictcache/internal/policy"
	"github.com/tstromberg/evictcache/internal/stats"
)

// Cache is a bounded in-memory cache with a pluggable eviction policy and
// per-entry expiration.
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	entries  map[K]*Entry[K, V]
	strategy policy.Strategy[K]
	counters stats.Counters

	name       string
	capacity   int
	kind       policy.Kind
	defaultTTL time.Duration
	now        func() time.Time
	logger     *slog.Logger

	keyNilable   bool
	valueNilable bool

	sweeper *sweeper
}

// New creates a cache holding at most capacity entries, evicting by kind.
func New[K comparable, V any](capacity int, kind policy.Kind, opts ...Option) (*Cache[K, V], error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if capacity <= 0 {
		return nil, errors.Newf(errors.CodeInvalidInput, "capacity must be positive, got %d", capacity)
	}
	if !kind.Valid() {
		return nil, errors.Newf(errors.CodeInvalidInput, "unknown eviction policy %d", int(kind))
	}
	if o.defaultTTL < 0 {
		return nil, errors.Newf(errors.CodeInvalidInput, "default TTL must not be negative, got %s", o.defaultTTL)
	}
	if o.cleanupInterval < 0 {
		return nil, errors.Newf(errors.CodeInvalidInput, "cleanup interval must not be negative, got %s", o.cleanupInterval)
	}

	// The TTL policy orders by deadline, so every entry needs one.
	ttl := o.defaultTTL
	if kind == policy.TTL && ttl == 0 {
		ttl = policy.DefaultTTL
	}

	strategy, err := policy.New[K](kind, policy.Options{DefaultTTL: ttl, Now: o.now})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidInput, "create eviction strategy")
	}

	c := &Cache[K, V]{
		entries:      make(map[K]*Entry[K, V], capacity),
		strategy:     strategy,
		name:         o.name,
		capacity:     capacity,
		kind:         kind,
		defaultTTL:   ttl,
		now:          o.now,
		logger:       o.logger.With("cache", o.name, "policy", kind.String()),
		keyNilable:   nilable(reflect.TypeFor[K]()),
		valueNilable: nilable(reflect.TypeFor[V]()),
	}

	if o.cleanupInterval > 0 {
		c.sweeper = startSweeper(o.cleanupInterval, c.CleanupExpired, c.logger)
	}

	return c, nil
}

// Get returns the value for key. Expired entries are removed on the way and
// reported as misses. A nil key is reported as absent without touching the
// statistics.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	var zero V
	if c.keyNilable && isNil(key) {
		return zero, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.counters.RecordMiss()
		return zero, false
	}

	now := c.now()
	if e.Expired(now) {
		c.expireLocked(key)
		c.counters.RecordMiss()
		return zero, false
	}

	e.touch(now)
	c.strategy.OnGet(key)
	c.counters.RecordHit()
	return e.Value, true
}

// Put stores value under key with the cache's default TTL.
func (c *Cache[K, V]) Put(key K, value V) error {
	return c.PutWithTTL(key, value, 0)
}

// PutWithTTL stores value under key, expiring it ttl from now. A zero ttl
// applies the cache default. Inserting a new key into a full cache evicts
// one entry first.
func (c *Cache[K, V]) PutWithTTL(key K, value V, ttl time.Duration) error {
	if c.keyNilable && isNil(key) {
		return errors.New(errors.CodeInvalidInput, "cache key must not be nil")
	}
	if c.valueNilable && isNil(value) {
		return errors.New(errors.CodeInvalidInput, "cache value must not be nil")
	}
	if ttl < 0 {
		return errors.Newf(errors.CodeInvalidInput, "ttl must not be negative, got %s", ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = now.Add(ttl)
	}

	if e, ok := c.entries[key]; ok {
		e.Value = value
		e.ExpiresAt = expiresAt
		e.touch(now)
		c.strategy.OnPut(key, expiresAt)
		c.counters.RecordPut()
		return nil
	}

	for len(c.entries) >= c.capacity {
		if !c.evictLocked() {
			break
		}
	}

	c.entries[key] = newEntry(key, value, now, expiresAt)
	c.strategy.OnPut(key, expiresAt)
	c.counters.RecordPut()
	return nil
}

// Delete removes key and reports whether it was present.
func (c *Cache[K, V]) Delete(key K) bool {
	if c.keyNilable && isNil(key) {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		return false
	}
	delete(c.entries, key)
	c.strategy.OnDelete(key)
	c.counters.RecordRemove()
	return true
}

// Clear drops every entry and resets the statistics.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.entries)
	c.strategy.Clear()
	c.counters.Reset()
}

// ContainsKey reports whether key holds a live entry. It expires the entry
// if its deadline has passed but otherwise leaves recency, frequency and
// hit/miss counters alone.
func (c *Cache[K, V]) ContainsKey(key K) bool {
	if c.keyNilable && isNil(key) {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false
	}
	if e.Expired(c.now()) {
		c.expireLocked(key)
		return false
	}
	return true
}

// Peek returns the value for key without expiring it, touching it, or
// counting a lookup. Expired entries are reported as absent.
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	var zero V
	if c.keyNilable && isNil(key) {
		return zero, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.Expired(c.now()) {
		return zero, false
	}
	return e.Value, true
}

// Inspect returns a copy of the entry for key, including its bookkeeping,
// with the same side-effect rules as Peek.
func (c *Cache[K, V]) Inspect(key K) (Entry[K, V], bool) {
	if c.keyNilable && isNil(key) {
		return Entry[K, V]{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.Expired(c.now()) {
		return Entry[K, V]{}, false
	}
	return *e, true
}

// Keys returns a snapshot of the keys currently stored, in no particular
// order. Expired entries not yet removed are included.
func (c *Cache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]K, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	return keys
}

// CleanupExpired removes every entry whose deadline has passed and returns
// how many were removed.
func (c *Cache[K, V]) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for k, e := range c.entries {
		if e.Expired(now) {
			c.expireLocked(k)
			removed++
		}
	}
	if removed > 0 {
		c.logger.Debug("expired entries removed", "removed", removed, "size", len(c.entries))
	}
	return removed
}

// Size returns the number of stored entries, including expired ones that
// have not been observed yet.
func (c *Cache[K, V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Capacity returns the configured maximum size.
func (c *Cache[K, V]) Capacity() int {
	return c.capacity
}

// Policy returns the eviction policy.
func (c *Cache[K, V]) Policy() policy.Kind {
	return c.kind
}

// Name returns the label given by WithName.
func (c *Cache[K, V]) Name() string {
	return c.name
}

// Statistics returns a snapshot of the counters.
func (c *Cache[K, V]) Statistics() stats.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counters.Snapshot()
}

// Close stops the background sweeper, if any. The cache stays usable.
func (c *Cache[K, V]) Close() error {
	if c.sweeper != nil {
		c.sweeper.stop()
	}
	return nil
}

// evictLocked asks the strategy for a victim and removes it. It returns false
// once the strategy has nothing left to offer.
func (c *Cache[K, V]) evictLocked() bool {
	victim, ok := c.strategy.Evict()
	if !ok {
		c.logger.Warn("eviction policy returned no victim; inserting over capacity",
			"size", len(c.entries), "capacity", c.capacity)
		return false
	}
	if _, ok := c.entries[victim]; !ok {
		// The strategy shrank, so retrying still terminates.
		c.logger.Warn("eviction policy returned a key that is not cached",
			"size", len(c.entries), "capacity", c.capacity, "strategy_len", c.strategy.Len())
		return true
	}

	delete(c.entries, victim)
	c.counters.RecordEviction()
	if c.logger.Enabled(context.Background(), slog.LevelDebug) {
		c.logger.Debug("evicted entry", "key", victim, "size", len(c.entries))
	}
	return true
}

func (c *Cache[K, V]) expireLocked(key K) {
	delete(c.entries, key)
	c.strategy.OnDelete(key)
	c.counters.RecordExpiration()
}

func nilable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface,
		reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return true
	default:
		return false
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface,
		reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return rv.IsNil()
	default:
		return false
	}
}
