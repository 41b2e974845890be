// Package manager hands out named cache instances.
//
// A Registry is an explicit object rather than a process-wide singleton:
// callers that want one shared registry create it once and pass it around.
package manager

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/jmgilman/go/errors"
	"golang.org/x/sync/singleflight"

	"github.com/tstromberg/evictcache/internal/config"
	"github.com/tstromberg/evictcache/internal/engine"
	"github.com/tstromberg/evictcache/internal/policy"
)

// Registry maps names to caches of one key and value type.
type Registry[K comparable, V any] struct {
	mu     sync.RWMutex
	caches map[string]*engine.Cache[K, V]
	group  singleflight.Group
	logger *slog.Logger
}

// New returns an empty registry. A nil logger discards output.
func New[K comparable, V any](logger *slog.Logger) *Registry[K, V] {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry[K, V]{
		caches: make(map[string]*engine.Cache[K, V]),
		logger: logger,
	}
}

// FromConfig returns a registry with every cache in cfg already created.
func FromConfig[K comparable, V any](cfg *config.Config, logger *slog.Logger) (*Registry[K, V], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := New[K, V](logger)
	for _, cs := range cfg.Caches {
		_, err := r.GetOrCreate(cs.Name, cs.Capacity, cs.Policy,
			engine.WithDefaultTTL(cs.DefaultTTL),
			engine.WithCleanupInterval(cs.CleanupInterval))
		if err != nil {
			_ = r.Close()
			return nil, errors.WithContext(err, "cache", cs.Name)
		}
	}
	return r, nil
}

// GetOrCreate returns the cache registered under name, creating it with the
// given capacity, policy and options if it does not exist yet. Later calls
// for an existing name ignore every argument but the name.
func (r *Registry[K, V]) GetOrCreate(name string, capacity int, kind policy.Kind, opts ...engine.Option) (*engine.Cache[K, V], error) {
	if c, ok := r.Get(name); ok {
		return c, nil
	}

	// Concurrent first calls for the same name share one construction.
	v, err, _ := r.group.Do(name, func() (any, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		if c, ok := r.caches[name]; ok {
			return c, nil
		}

		all := append([]engine.Option{engine.WithName(name), engine.WithLogger(r.logger)}, opts...)
		c, err := engine.New[K, V](capacity, kind, all...)
		if err != nil {
			return nil, err
		}
		r.caches[name] = c
		r.logger.Debug("cache created", "cache", name, "policy", kind.String(), "capacity", capacity)
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*engine.Cache[K, V]), nil //nolint:errcheck,revive // group only returns caches
}

// Get returns the cache registered under name.
func (r *Registry[K, V]) Get(name string) (*engine.Cache[K, V], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.caches[name]
	return c, ok
}

// MustGet is like Get but returns a CodeNotFound error for unknown names.
func (r *Registry[K, V]) MustGet(name string) (*engine.Cache[K, V], error) {
	c, ok := r.Get(name)
	if !ok {
		return nil, errors.Newf(errors.CodeNotFound, "no cache named %q", name)
	}
	return c, nil
}

// Names returns the registered names in sorted order.
func (r *Registry[K, V]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.caches))
	for name := range r.caches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered caches.
func (r *Registry[K, V]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.caches)
}

// Remove closes and unregisters the cache under name, reporting whether it
// existed.
func (r *Registry[K, V]) Remove(name string) bool {
	r.mu.Lock()
	c, ok := r.caches[name]
	delete(r.caches, name)
	r.mu.Unlock()

	if !ok {
		return false
	}
	_ = c.Close()
	r.logger.Debug("cache removed", "cache", name)
	return true
}

// Close closes and unregisters every cache.
func (r *Registry[K, V]) Close() error {
	r.mu.Lock()
	caches := r.caches
	r.caches = make(map[string]*engine.Cache[K, V])
	r.mu.Unlock()

	for _, c := range caches {
		_ = c.Close()
	}
	return nil
}
