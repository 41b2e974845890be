package cache

import (
	"github.com/tstromberg/evictcache/internal/engine"
	"github.com/tstromberg/evictcache/internal/policy"
	"github.com/tstromberg/evictcache/internal/stats"
)

// engineName is the registry name of the engine running kind.
func engineName(kind policy.Kind) string {
	return "evict-" + kind.String()
}

type engineCache struct {
	c *engine.Cache[string, string]
}

// NewEngine returns a Factory for the evictcache engine with the given policy.
func NewEngine(kind policy.Kind) Factory {
	return func(capacity int) Cache {
		c, err := engine.New[string, string](capacity, kind, engine.WithName(engineName(kind)))
		if err != nil {
			panic(err) // capacity and kind come from the registry
		}
		return &engineCache{c: c}
	}
}

func (c *engineCache) Get(key string) (string, bool) {
	return c.c.Get(key)
}

func (c *engineCache) Set(key, value string) {
	_ = c.c.Put(key, value) //nolint:errcheck // string keys and values are never nil
}

func (c *engineCache) Delete(key string) {
	c.c.Delete(key)
}

func (c *engineCache) Name() string {
	return engineName(c.c.Policy())
}

func (c *engineCache) Stats() stats.Snapshot {
	return c.c.Statistics()
}

func (c *engineCache) Close() {
	_ = c.c.Close()
}

type engineIntCache struct {
	c *engine.Cache[int, int]
}

// NewEngineInt returns an IntFactory for the engine with the given policy.
func NewEngineInt(kind policy.Kind) IntFactory {
	return func(capacity int) IntCache {
		c, err := engine.New[int, int](capacity, kind, engine.WithName(engineName(kind)))
		if err != nil {
			panic(err)
		}
		return &engineIntCache{c: c}
	}
}

func (c *engineIntCache) Get(key int) (int, bool) {
	return c.c.Get(key)
}

func (c *engineIntCache) Set(key, value int) {
	_ = c.c.Put(key, value) //nolint:errcheck // ints are never nil
}

func (c *engineIntCache) Delete(key int) {
	c.c.Delete(key)
}

func (c *engineIntCache) Name() string {
	return engineName(c.c.Policy())
}

func (c *engineIntCache) Stats() stats.Snapshot {
	return c.c.Statistics()
}

func (c *engineIntCache) Close() {
	_ = c.c.Close()
}
