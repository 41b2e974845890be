package cache

import "github.com/maypok86/otter/v2"

type otterCache struct {
	c *otter.Cache[string, string]
}

// NewOtter creates an otter cache bounded by entry count.
func NewOtter(capacity int) Cache {
	return &otterCache{c: otter.Must(&otter.Options[string, string]{MaximumSize: capacity})}
}

func (c *otterCache) Get(key string) (string, bool) { return c.c.GetIfPresent(key) }
func (c *otterCache) Set(key, value string)         { c.c.Set(key, value) }
func (c *otterCache) Delete(key string)             { c.c.Invalidate(key) }
func (*otterCache) Name() string                    { return "otter" }
func (*otterCache) Close()                          {}

type otterIntCache struct {
	c *otter.Cache[int, int]
}

// NewOtterInt creates an otter cache with int keys.
func NewOtterInt(capacity int) IntCache {
	return &otterIntCache{c: otter.Must(&otter.Options[int, int]{MaximumSize: capacity})}
}

func (c *otterIntCache) Get(key int) (int, bool) { return c.c.GetIfPresent(key) }
func (c *otterIntCache) Set(key, value int)      { c.c.Set(key, value) }
func (c *otterIntCache) Delete(key int)          { c.c.Invalidate(key) }
func (*otterIntCache) Name() string              { return "otter" }
func (*otterIntCache) Close()                    {}
