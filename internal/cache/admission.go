package cache

import (
	"sync"

	"github.com/dgraph-io/ristretto"
	"github.com/dgryski/go-s4lru"
	"github.com/vmihailenco/go-tinylfu"
)

// These libraries store interface{} values, so reads go through a type
// assertion. Only the adapters write to them.
func asString(v any, ok bool) (string, bool) {
	if !ok {
		return "", false
	}
	s, _ := v.(string) //nolint:errcheck // only strings are stored
	return s, true
}

func asInt(v any, ok bool) (int, bool) {
	if !ok {
		return 0, false
	}
	n, _ := v.(int) //nolint:errcheck // only ints are stored
	return n, true
}

// newRistretto sizes every entry at cost 1 so MaxCost is an entry count.
func newRistretto(capacity int) *ristretto.Cache {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        int64(capacity) * 10,
		MaxCost:            int64(capacity),
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		panic(err) // only fails on a zero-sized config
	}
	return c
}

type ristrettoCache struct{ c *ristretto.Cache }

// NewRistretto creates a ristretto cache.
func NewRistretto(capacity int) Cache { return &ristrettoCache{c: newRistretto(capacity)} }

func (c *ristrettoCache) Get(key string) (string, bool) { return asString(c.c.Get(key)) }
func (c *ristrettoCache) Set(key, value string)         { c.c.Set(key, value, 1) }
func (c *ristrettoCache) Delete(key string)             { c.c.Del(key) }
func (*ristrettoCache) Name() string                    { return "ristretto" }

// Close drains the set buffer first.
func (c *ristrettoCache) Close() {
	c.c.Wait()
	c.c.Close()
}

type ristrettoIntCache struct{ c *ristretto.Cache }

// NewRistrettoInt creates an int-keyed ristretto cache.
func NewRistrettoInt(capacity int) IntCache { return &ristrettoIntCache{c: newRistretto(capacity)} }

func (c *ristrettoIntCache) Get(key int) (int, bool) { return asInt(c.c.Get(key)) }
func (c *ristrettoIntCache) Set(key, value int)      { c.c.Set(key, value, 1) }
func (c *ristrettoIntCache) Delete(key int)          { c.c.Del(key) }
func (*ristrettoIntCache) Name() string              { return "ristretto" }

func (c *ristrettoIntCache) Close() {
	c.c.Wait()
	c.c.Close()
}

type tinyLFUCache struct{ c *tinylfu.SyncT }

// NewTinyLFU creates a TinyLFU cache with ten admission counters per entry.
func NewTinyLFU(capacity int) Cache {
	return &tinyLFUCache{c: tinylfu.NewSync(capacity, capacity*10)}
}

func (c *tinyLFUCache) Get(key string) (string, bool) { return asString(c.c.Get(key)) }
func (c *tinyLFUCache) Set(key, value string)         { c.c.Set(&tinylfu.Item{Key: key, Value: value}) }
func (c *tinyLFUCache) Delete(key string)             { c.c.Del(key) }
func (*tinyLFUCache) Name() string                    { return "tinylfu" }
func (*tinyLFUCache) Close()                          {}

// s4lruCache holds a mutex because go-s4lru has no locking of its own.
type s4lruCache struct {
	mu sync.Mutex
	c  *s4lru.Cache
}

// NewS4LRU creates a four-segment LRU cache.
func NewS4LRU(capacity int) Cache { return &s4lruCache{c: s4lru.New(capacity)} }

func (c *s4lruCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return asString(c.c.Get(key))
}

func (c *s4lruCache) Set(key, value string) {
	c.mu.Lock()
	c.c.Set(key, value)
	c.mu.Unlock()
}

func (*s4lruCache) Name() string { return "s4lru" }
func (*s4lruCache) Close()       {}
