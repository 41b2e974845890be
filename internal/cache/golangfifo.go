package cache

import (
	"github.com/scalalang2/golang-fifo/s3fifo"
	"github.com/scalalang2/golang-fifo/sieve"
)

// scalalang2/golang-fifo: FIFO-derived policies that rival LRU hit rates.

type s3fifoCache struct {
	c *s3fifo.S3FIFO[string, string]
}

// NewS3FIFO creates an S3-FIFO cache without expiry.
func NewS3FIFO(capacity int) Cache {
	return &s3fifoCache{c: s3fifo.New[string, string](capacity, 0)}
}

func (c *s3fifoCache) Get(key string) (string, bool) { return c.c.Get(key) }
func (c *s3fifoCache) Set(key, value string)         { c.c.Set(key, value) }
func (c *s3fifoCache) Delete(key string)             { c.c.Remove(key) }
func (*s3fifoCache) Name() string                    { return "s3-fifo" }
func (*s3fifoCache) Close()                          {}

type sieveCache struct {
	c *sieve.Sieve[string, string]
}

// NewSieve creates a SIEVE cache without expiry.
func NewSieve(capacity int) Cache {
	return &sieveCache{c: sieve.New[string, string](capacity, 0)}
}

func (c *sieveCache) Get(key string) (string, bool) { return c.c.Get(key) }
func (c *sieveCache) Set(key, value string)         { c.c.Set(key, value) }
func (c *sieveCache) Delete(key string)             { c.c.Remove(key) }
func (*sieveCache) Name() string                    { return "sieve" }
func (*sieveCache) Close()                          {}
