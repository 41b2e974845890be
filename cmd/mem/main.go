// Package main measures memory usage for a single cache implementation.
// Run in isolated process for accurate measurements.
package main

import (
	"flag"
	"fmt"
	"runtime"
	"runtime/debug"
	"sort"
	"strconv"
	"time"

	"github.com/Code-Hex/go-generics-cache/policy/clock"
	"github.com/Code-Hex/go-generics-cache/policy/lfu"
	"github.com/Yiling-J/theine-go"
	"github.com/coocood/freecache"
	"github.com/dgraph-io/ristretto"
	"github.com/dgryski/go-s4lru"
	"github.com/elastic/go-freelru"
	lru2 "github.com/hashicorp/golang-lru/v2"
	"github.com/jellydator/ttlcache/v3"
	"github.com/maypok86/otter/v2"
	"github.com/scalalang2/golang-fifo/s3fifo"
	"github.com/scalalang2/golang-fifo/sieve"
	tinylfu "github.com/vmihailenco/go-tinylfu"
	"github.com/zeebo/xxh3"

	"github.com/tstromberg/evictcache/internal/engine"
	"github.com/tstromberg/evictcache/internal/policy"
)

var keepAlive any

// runner fills a cache with capacity values of valSize bytes and returns the
// cache along with the number of items it ended up holding.
type runner func(capacity, valSize int) (any, int)

var runners = map[string]runner{
	"baseline":      runBaseline,
	"evict-lru":     runEngine(policy.LRU),
	"evict-lfu":     runEngine(policy.LFU),
	"evict-fifo":    runEngine(policy.FIFO),
	"evict-ttl":     runEngine(policy.TTL),
	"otter":         runOtter,
	"theine":        runTheine,
	"ttlcache":      runTTLCache,
	"ristretto":     runRistretto,
	"tinylfu":       runTinyLFU,
	"sieve":         runSieve,
	"s3-fifo":       runS3FIFO,
	"freelru-shard": runFreeLRUSharded,
	"freelru-sync":  runFreeLRUSynced,
	"freecache":     runFreecache,
	"2q":            runTwoQueue,
	"s4lru":         runS4LRU,
	"clock":         runClock,
	"gg-lfu":        runGenericsLFU,
	"lru":           runLRU,
}

func main() {
	cacheName := flag.String("cache", "", "cache implementation to benchmark")
	capacity := flag.Int("cap", 32768, "capacity")
	valSize := flag.Int("valSize", 1024, "value size in bytes")
	list := flag.Bool("list", false, "print the known implementations and exit")
	flag.Parse()

	if *list {
		names := make([]string, 0, len(runners))
		for name := range runners {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Println(name)
		}
		return
	}

	run, ok := runners[*cacheName]
	if !ok {
		fmt.Printf(`{"error":%q}`, "unknown cache "+strconv.Quote(*cacheName))
		return
	}

	runtime.GC()
	debug.FreeOSMemory()

	var items int
	keepAlive, items = run(*capacity, *valSize)

	runtime.GC()
	time.Sleep(100 * time.Millisecond)
	runtime.GC()
	debug.FreeOSMemory()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	fmt.Printf(`{"name":%q, "items":%d, "bytes":%d}`, *cacheName, items, mem.Alloc)
}

func key(i int) string { return "key-" + strconv.Itoa(i) }

// fill calls set once per slot with a fresh value.
func fill(capacity, valSize int, set func(k string, v []byte)) {
	for i := range capacity {
		set(key(i), make([]byte, valSize))
	}
}

// countHits counts how many of the filled keys are still retrievable, for
// caches whose admission policy may reject writes.
func countHits(capacity int, get func(k string) bool) int {
	n := 0
	for i := range capacity {
		if get(key(i)) {
			n++
		}
	}
	return n
}

func runBaseline(capacity, valSize int) (any, int) {
	m := make(map[string][]byte, capacity)
	fill(capacity, valSize, func(k string, v []byte) { m[k] = v })
	return m, len(m)
}

func runEngine(kind policy.Kind) runner {
	return func(capacity, valSize int) (any, int) {
		c, err := engine.New[string, []byte](capacity, kind, engine.WithName("mem"))
		if err != nil {
			panic(err)
		}
		fill(capacity, valSize, func(k string, v []byte) {
			if err := c.Put(k, v); err != nil {
				panic(err)
			}
		})
		return c, c.Size()
	}
}

func runOtter(capacity, valSize int) (any, int) {
	c := otter.Must(&otter.Options[string, []byte]{MaximumSize: capacity})
	fill(capacity, valSize, func(k string, v []byte) { c.Set(k, v) })
	return c, c.EstimatedSize()
}

func runTheine(capacity, valSize int) (any, int) {
	c, err := theine.NewBuilder[string, []byte](int64(capacity)).Build()
	if err != nil {
		panic(err)
	}
	fill(capacity, valSize, func(k string, v []byte) { c.Set(k, v, 0) })
	return c, c.Len()
}

func runTTLCache(capacity, valSize int) (any, int) {
	c := ttlcache.New[string, []byte](
		ttlcache.WithCapacity[string, []byte](uint64(capacity)),
		ttlcache.WithTTL[string, []byte](time.Hour),
	)
	fill(capacity, valSize, func(k string, v []byte) { c.Set(k, v, ttlcache.DefaultTTL) })
	return c, c.Len()
}

func runRistretto(capacity, valSize int) (any, int) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        int64(capacity * 10),
		MaxCost:            int64(capacity),
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		panic(err)
	}
	// TinyLFU admission needs repeated reads before it lets keys in.
	for pass := range 3 {
		fill(capacity, valSize, func(k string, v []byte) {
			c.Set(k, v, 1)
			if pass > 0 {
				c.Get(k)
			}
		})
		c.Wait()
	}
	return c, countHits(capacity, func(k string) bool { _, ok := c.Get(k); return ok })
}

func runTinyLFU(capacity, valSize int) (any, int) {
	c := tinylfu.New(capacity, capacity*10)
	fill(capacity, valSize, func(k string, v []byte) { c.Set(&tinylfu.Item{Key: k, Value: v}) })
	return c, countHits(capacity, func(k string) bool { _, ok := c.Get(k); return ok })
}

func runSieve(capacity, valSize int) (any, int) {
	c := sieve.New[string, []byte](capacity, 0)
	fill(capacity, valSize, func(k string, v []byte) { c.Set(k, v) })
	return c, c.Len()
}

func runS3FIFO(capacity, valSize int) (any, int) {
	c := s3fifo.New[string, []byte](capacity, 0)
	fill(capacity, valSize, func(k string, v []byte) { c.Set(k, v) })
	return c, c.Len()
}

func hashString(s string) uint32 {
	return uint32(xxh3.HashString(s))
}

func runFreeLRUSharded(capacity, valSize int) (any, int) {
	c, err := freelru.NewSharded[string, []byte](uint32(capacity), hashString) //nolint:gosec // capacity is small
	if err != nil {
		panic(err)
	}
	fill(capacity, valSize, func(k string, v []byte) { c.Add(k, v) })
	return c, c.Len()
}

func runFreeLRUSynced(capacity, valSize int) (any, int) {
	c, err := freelru.NewSynced[string, []byte](uint32(capacity), hashString) //nolint:gosec // capacity is small
	if err != nil {
		panic(err)
	}
	fill(capacity, valSize, func(k string, v []byte) { c.Add(k, v) })
	return c, c.Len()
}

func runFreecache(capacity, valSize int) (any, int) {
	const overhead = 256
	c := freecache.NewCache(capacity * (valSize + overhead))
	fill(capacity, valSize, func(k string, v []byte) {
		_ = c.Set([]byte(k), v, 0) //nolint:errcheck // oversize entries are skipped
	})
	return c, int(c.EntryCount())
}

func runTwoQueue(capacity, valSize int) (any, int) {
	c, err := lru2.New2Q[string, []byte](capacity)
	if err != nil {
		panic(err)
	}
	fill(capacity, valSize, func(k string, v []byte) { c.Add(k, v) })
	return c, c.Len()
}

func runS4LRU(capacity, valSize int) (any, int) {
	// s4lru splits capacity across four segments.
	c := s4lru.New(capacity * 4)
	fill(capacity, valSize, func(k string, v []byte) { c.Set(k, v) })
	return c, c.Len()
}

func runClock(capacity, valSize int) (any, int) {
	c := clock.NewCache[string, []byte](clock.WithCapacity(capacity))
	fill(capacity, valSize, func(k string, v []byte) { c.Set(k, v) })
	return c, c.Len()
}

func runGenericsLFU(capacity, valSize int) (any, int) {
	c := lfu.NewCache[string, []byte](lfu.WithCapacity(capacity))
	fill(capacity, valSize, func(k string, v []byte) { c.Set(k, v) })
	return c, c.Len()
}

func runLRU(capacity, valSize int) (any, int) {
	c, err := lru2.New[string, []byte](capacity)
	if err != nil {
		panic(err)
	}
	fill(capacity, valSize, func(k string, v []byte) { c.Add(k, v) })
	return c, c.Len()
}
