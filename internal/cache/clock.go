package cache

import (
	"sync"

	"github.com/Code-Hex/go-generics-cache/policy/clock"
	"github.com/Code-Hex/go-generics-cache/policy/lfu"
)

// Code-Hex/go-generics-cache policies are not goroutine safe, so each
// adapter carries its own mutex.

type clockCache struct {
	mu sync.Mutex
	c  *clock.Cache[string, string]
}

// NewClock creates a CLOCK cache.
func NewClock(capacity int) Cache {
	return &clockCache{c: clock.NewCache[string, string](clock.WithCapacity(capacity))}
}

func (c *clockCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.c.Get(key)
}

func (c *clockCache) Set(key, value string) {
	c.mu.Lock()
	c.c.Set(key, value)
	c.mu.Unlock()
}

func (c *clockCache) Delete(key string) {
	c.mu.Lock()
	c.c.Delete(key)
	c.mu.Unlock()
}

func (*clockCache) Name() string { return "clock" }
func (*clockCache) Close()       {}

// lfuCache is a heap-based LFU, the textbook counterpart to evict-lfu.
type lfuCache struct {
	mu sync.Mutex
	c  *lfu.Cache[string, string]
}

// NewGenericsLFU creates a go-generics-cache LFU cache.
func NewGenericsLFU(capacity int) Cache {
	return &lfuCache{c: lfu.NewCache[string, string](lfu.WithCapacity(capacity))}
}

func (c *lfuCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.c.Get(key)
}

func (c *lfuCache) Set(key, value string) {
	c.mu.Lock()
	c.c.Set(key, value)
	c.mu.Unlock()
}

func (c *lfuCache) Delete(key string) {
	c.mu.Lock()
	c.c.Delete(key)
	c.mu.Unlock()
}

func (*lfuCache) Name() string { return "gg-lfu" }
func (*lfuCache) Close()       {}
