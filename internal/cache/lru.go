package cache

import lru "github.com/hashicorp/golang-lru/v2"

// hashicorp/golang-lru: a plain mutex-guarded LRU and its 2Q variant.

type lruCache struct {
	c *lru.Cache[string, string]
}

// NewLRU creates a hashicorp LRU cache.
func NewLRU(capacity int) Cache {
	c, _ := lru.New[string, string](capacity) //nolint:errcheck // capacity always positive
	return &lruCache{c: c}
}

func (c *lruCache) Get(key string) (string, bool) { return c.c.Get(key) }
func (c *lruCache) Set(key, value string)         { c.c.Add(key, value) }
func (c *lruCache) Delete(key string)             { c.c.Remove(key) }
func (*lruCache) Name() string                    { return "lru" }
func (*lruCache) Close()                          {}

type twoQueueCache struct {
	c *lru.TwoQueueCache[string, string]
}

// NewTwoQueue creates a hashicorp 2Q cache, which keeps recent and frequent
// entries in separate queues.
func NewTwoQueue(capacity int) Cache {
	c, _ := lru.New2Q[string, string](capacity) //nolint:errcheck // capacity always positive
	return &twoQueueCache{c: c}
}

func (c *twoQueueCache) Get(key string) (string, bool) { return c.c.Get(key) }
func (c *twoQueueCache) Set(key, value string)         { c.c.Add(key, value) }
func (c *twoQueueCache) Delete(key string)             { c.c.Remove(key) }
func (*twoQueueCache) Name() string                    { return "2q" }
func (*twoQueueCache) Close()                          {}
