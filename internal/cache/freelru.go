package cache

import (
	lru "github.com/elastic/go-freelru"
	"github.com/zeebo/xxh3"
)

func hashString(s string) uint32 {
	return uint32(xxh3.HashString(s))
}

func hashInt(i int) uint32 {
	return uint32(xxh3.Hash(intBytes(i)))
}

func intBytes(i int) []byte {
	u := uint64(i) //nolint:gosec // bit pattern only
	return []byte{byte(u), byte(u >> 8), byte(u >> 16), byte(u >> 24),
		byte(u >> 32), byte(u >> 40), byte(u >> 48), byte(u >> 56)}
}

type freeLRUSyncedCache struct {
	c *lru.SyncedLRU[string, string]
}

// NewFreeLRUSynced creates a single-lock freelru cache.
func NewFreeLRUSynced(capacity int) Cache {
	c, _ := lru.NewSynced[string, string](uint32(capacity), hashString) //nolint:errcheck,gosec // capacity always positive
	return &freeLRUSyncedCache{c: c}
}

func (c *freeLRUSyncedCache) Get(key string) (string, bool) { return c.c.Get(key) }
func (c *freeLRUSyncedCache) Set(key, value string)         { c.c.Add(key, value) }
func (c *freeLRUSyncedCache) Delete(key string)             { c.c.Remove(key) }
func (*freeLRUSyncedCache) Name() string                    { return "freelru-sync" }
func (*freeLRUSyncedCache) Close()                          {}

type freeLRUShardedCache struct {
	c *lru.ShardedLRU[string, string]
}

// NewFreeLRUSharded creates a sharded freelru cache.
func NewFreeLRUSharded(capacity int) Cache {
	c, _ := lru.NewSharded[string, string](uint32(capacity), hashString) //nolint:errcheck,gosec // capacity always positive
	return &freeLRUShardedCache{c: c}
}

func (c *freeLRUShardedCache) Get(key string) (string, bool) { return c.c.Get(key) }
func (c *freeLRUShardedCache) Set(key, value string)         { c.c.Add(key, value) }
func (c *freeLRUShardedCache) Delete(key string)             { c.c.Remove(key) }
func (*freeLRUShardedCache) Name() string                    { return "freelru-shard" }
func (*freeLRUShardedCache) Close()                          {}

type freeLRUShardedIntCache struct {
	c *lru.ShardedLRU[int, int]
}

// NewFreeLRUShardedInt creates a sharded freelru cache with int keys.
func NewFreeLRUShardedInt(capacity int) IntCache {
	c, _ := lru.NewSharded[int, int](uint32(capacity), hashInt) //nolint:errcheck,gosec // capacity always positive
	return &freeLRUShardedIntCache{c: c}
}

func (c *freeLRUShardedIntCache) Get(key int) (int, bool) { return c.c.Get(key) }
func (c *freeLRUShardedIntCache) Set(key, value int)      { c.c.Add(key, value) }
func (c *freeLRUShardedIntCache) Delete(key int)          { c.c.Remove(key) }
func (*freeLRUShardedIntCache) Name() string              { return "freelru-shard" }
func (*freeLRUShardedIntCache) Close()                    {}
