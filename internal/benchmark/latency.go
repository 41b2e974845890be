package benchmark

import (
	"strconv"
	"testing"

	"github.com/tstromberg/evictcache/internal/cache"
)

// LatencyResult holds single-threaded latency results for a cache.
type LatencyResult struct {
	Name           string
	GetNsOp        float64 // nanoseconds per Get (always a hit)
	SetNsOp        float64 // nanoseconds per Set (overwrites, no eviction)
	SetEvictNsOp   float64 // nanoseconds per Set over a 20x keyspace
	DeleteNsOp     float64 // nanoseconds per Delete and re-Set pair
	GetAllocs      int64
	SetAllocs      int64
	SetEvictAllocs int64
	DeleteAllocs   int64
	HasDelete      bool
}

// AvgNsOp is the figure results are ranked by.
func (r LatencyResult) AvgNsOp() float64 {
	return (r.GetNsOp + r.SetNsOp) / 2
}

const latencyCacheSize = 10_000

// evictSpread is how many times larger than the cache the eviction keyspace is.
const evictSpread = 20

// RunLatency measures single-threaded latency with string keys.
func RunLatency(impls []cache.Impl) []LatencyResult {
	keys := make([]string, latencyCacheSize*evictSpread)
	for i := range keys {
		keys[i] = strconv.Itoa(i)
	}

	results := make([]LatencyResult, 0, len(impls))
	for _, impl := range impls {
		probe := impl.New(latencyCacheSize)
		_, hasDelete := probe.(cache.Deleter)
		probe.Close()

		get := testing.Benchmark(func(b *testing.B) { benchGet(b, impl.New, keys[:latencyCacheSize]) })
		set := testing.Benchmark(func(b *testing.B) { benchSet(b, impl.New, keys[:latencyCacheSize]) })
		evict := testing.Benchmark(func(b *testing.B) { benchSet(b, impl.New, keys) })

		r := LatencyResult{
			Name:           impl.Name,
			GetNsOp:        float64(get.NsPerOp()),
			SetNsOp:        float64(set.NsPerOp()),
			SetEvictNsOp:   float64(evict.NsPerOp()),
			GetAllocs:      get.AllocsPerOp(),
			SetAllocs:      set.AllocsPerOp(),
			SetEvictAllocs: evict.AllocsPerOp(),
			HasDelete:      hasDelete,
		}
		if hasDelete {
			del := testing.Benchmark(func(b *testing.B) { benchDelete(b, impl.New, keys[:latencyCacheSize]) })
			r.DeleteNsOp = float64(del.NsPerOp())
			r.DeleteAllocs = del.AllocsPerOp()
		}
		results = append(results, r)
	}
	return results
}

// RunIntLatency measures single-threaded latency for implementations with an
// int-keyed variant.
func RunIntLatency(impls []cache.Impl) []LatencyResult {
	keys := make([]int, latencyCacheSize*evictSpread)
	for i := range keys {
		keys[i] = i
	}

	impls = cache.WithInt(impls)
	results := make([]LatencyResult, 0, len(impls))
	for _, impl := range impls {
		probe := impl.Int(latencyCacheSize)
		_, hasDelete := probe.(cache.IntDeleter)
		probe.Close()

		get := testing.Benchmark(func(b *testing.B) { benchIntGet(b, impl.Int, keys[:latencyCacheSize]) })
		set := testing.Benchmark(func(b *testing.B) { benchIntSet(b, impl.Int, keys[:latencyCacheSize]) })
		evict := testing.Benchmark(func(b *testing.B) { benchIntSet(b, impl.Int, keys) })

		r := LatencyResult{
			Name:           impl.Name,
			GetNsOp:        float64(get.NsPerOp()),
			SetNsOp:        float64(set.NsPerOp()),
			SetEvictNsOp:   float64(evict.NsPerOp()),
			GetAllocs:      get.AllocsPerOp(),
			SetAllocs:      set.AllocsPerOp(),
			SetEvictAllocs: evict.AllocsPerOp(),
			HasDelete:      hasDelete,
		}
		if hasDelete {
			del := testing.Benchmark(func(b *testing.B) { benchIntDelete(b, impl.Int, keys[:latencyCacheSize]) })
			r.DeleteNsOp = float64(del.NsPerOp())
			r.DeleteAllocs = del.AllocsPerOp()
		}
		results = append(results, r)
	}
	return results
}

func benchGet(b *testing.B, factory cache.Factory, keys []string) {
	c := factory(latencyCacheSize)
	defer c.Close()
	for _, k := range keys {
		c.Set(k, k)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := range b.N {
		c.Get(keys[i%len(keys)])
	}
}

// benchSet writes keys round-robin. With a keyspace larger than the cache
// every Set past the first lap evicts.
func benchSet(b *testing.B, factory cache.Factory, keys []string) {
	c := factory(latencyCacheSize)
	defer c.Close()

	b.ReportAllocs()
	b.ResetTimer()
	for i := range b.N {
		k := keys[i%len(keys)]
		c.Set(k, k)
	}
}

func benchDelete(b *testing.B, factory cache.Factory, keys []string) {
	c := factory(latencyCacheSize)
	defer c.Close()
	d := c.(cache.Deleter) //nolint:errcheck,revive // caller checked
	for _, k := range keys {
		c.Set(k, k)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := range b.N {
		k := keys[i%len(keys)]
		d.Delete(k)
		c.Set(k, k)
	}
}

func benchIntGet(b *testing.B, factory cache.IntFactory, keys []int) {
	c := factory(latencyCacheSize)
	defer c.Close()
	for _, k := range keys {
		c.Set(k, k)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := range b.N {
		c.Get(keys[i%len(keys)])
	}
}

func benchIntSet(b *testing.B, factory cache.IntFactory, keys []int) {
	c := factory(latencyCacheSize)
	defer c.Close()

	b.ReportAllocs()
	b.ResetTimer()
	for i := range b.N {
		k := keys[i%len(keys)]
		c.Set(k, k)
	}
}

func benchIntDelete(b *testing.B, factory cache.IntFactory, keys []int) {
	c := factory(latencyCacheSize)
	defer c.Close()
	d := c.(cache.IntDeleter) //nolint:errcheck,revive // caller checked
	for _, k := range keys {
		c.Set(k, k)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := range b.N {
		k := keys[i%len(keys)]
		d.Delete(k)
		c.Set(k, k)
	}
}
