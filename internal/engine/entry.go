package engine

import "time"

// Entry is a cached value and its bookkeeping. Entries are owned by the
// engine's map; callers only ever see copies.
type Entry[K comparable, V any] struct {
	Key             K
	Value           V
	CreatedAt       time.Time
	LastAccessedAt  time.Time
	AccessFrequency uint64
	ExpiresAt       time.Time // zero means the entry never expires
}

func newEntry[K comparable, V any](key K, value V, now, expiresAt time.Time) *Entry[K, V] {
	return &Entry[K, V]{
		Key:             key,
		Value:           value,
		CreatedAt:       now,
		LastAccessedAt:  now,
		AccessFrequency: 1,
		ExpiresAt:       expiresAt,
	}
}

// HasTTL reports whether the entry carries an expiration deadline.
func (e *Entry[K, V]) HasTTL() bool {
	return !e.ExpiresAt.IsZero()
}

// Expired reports whether the entry's deadline is at or before now.
func (e *Entry[K, V]) Expired(now time.Time) bool {
	return e.HasTTL() && !now.Before(e.ExpiresAt)
}

// TTL returns the time left before expiry, or 0 for entries without a TTL or
// already expired.
func (e *Entry[K, V]) TTL(now time.Time) time.Duration {
	if !e.HasTTL() {
		return 0
	}
	return max(e.ExpiresAt.Sub(now), 0)
}

func (e *Entry[K, V]) touch(now time.Time) {
	e.LastAccessedAt = now
	e.AccessFrequency++
}
