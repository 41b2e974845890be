package cache

import "github.com/coocood/freecache"

// defaultEntrySize is the per-entry byte estimate used when the workload does
// not say: key, value and about 32 bytes of freecache header.
const defaultEntrySize = 200

// minFreecacheBytes is the smallest budget freecache is given.
const minFreecacheBytes = 512 * 1024

type freecacheCache struct {
	c *freecache.Cache
}

// NewFreecache creates a freecache sized with defaultEntrySize.
func NewFreecache(capacity int) Cache {
	return NewFreecacheSized(capacity, defaultEntrySize)
}

// NewFreecacheSized creates a freecache whose byte budget fits about capacity
// entries of entrySize bytes.
func NewFreecacheSized(capacity, entrySize int) Cache {
	return &freecacheCache{c: freecache.NewCache(max(capacity*entrySize, minFreecacheBytes))}
}

func (c *freecacheCache) Get(key string) (string, bool) {
	v, err := c.c.Get([]byte(key))
	if err != nil {
		return "", false
	}
	return string(v), true
}

func (c *freecacheCache) Set(key, value string) {
	_ = c.c.Set([]byte(key), []byte(value), 0) //nolint:errcheck // oversized entries are simply not cached
}

func (c *freecacheCache) Delete(key string) { c.c.Del([]byte(key)) }
func (*freecacheCache) Name() string        { return "freecache" }
func (*freecacheCache) Close()              {}
