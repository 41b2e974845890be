// Package cache puts the evictcache engine and a set of third-party Go caches
// behind one small interface so the benchmarks can drive them identically.
package cache

import "github.com/tstromberg/evictcache/internal/stats"

// Cache is the string-keyed surface every implementation exposes.
type Cache interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Name() string
	Close()
}

// IntCache is the int-keyed surface, used where string formatting would
// dominate the measurement.
type IntCache interface {
	Get(key int) (int, bool)
	Set(key, value int)
	Name() string
	Close()
}

// Deleter is implemented by caches that support explicit removal.
type Deleter interface {
	Delete(key string)
}

// IntDeleter is the int-keyed Deleter.
type IntDeleter interface {
	Delete(key int)
}

// Statser is implemented by caches that keep their own hit/miss counters.
// Only the engine adapters do.
type Statser interface {
	Stats() stats.Snapshot
}

// Factory creates a cache holding about capacity entries.
type Factory func(capacity int) Cache

// IntFactory creates an int-keyed cache holding about capacity entries.
type IntFactory func(capacity int) IntCache

// SizedFactory creates a cache for byte-budgeted implementations such as
// freecache, which need the expected entry size to pick a memory limit.
type SizedFactory func(capacity, entrySize int) Cache
