// Package benchmark implements the hit rate, latency, throughput and memory
// runners used to compare the engine's policies with library caches.
package benchmark

import (
	"fmt"
	"strconv"

	"github.com/tstromberg/evictcache/internal/cache"
	"github.com/tstromberg/evictcache/internal/stats"
	"github.com/tstromberg/evictcache/internal/trace"
	"github.com/tstromberg/evictcache/internal/workload"
)

// HitRateResult holds hit rate results for a single cache.
type HitRateResult struct {
	Name  string
	Rates map[int]float64 // cache size -> hit rate percentage
	// Stats holds the engine's own counters per cache size. Library caches
	// leave it nil.
	Stats map[int]stats.Snapshot `json:",omitempty"`
}

// DefaultCacheSizes are the cache sizes to benchmark.
var DefaultCacheSizes = []int{1_024, 4_096, 16_384, 65_536}

// Entry size estimates (key + value + ~32 bytes overhead) so byte-budgeted
// caches like freecache are sized fairly.
const (
	// Synthetic keys are ints formatted as strings, about 6 bytes.
	SyntheticEntrySize = 45
	// Trace keys vary; this fits keys up to about 60 bytes.
	TraceEntrySize = 160
)

// Workload is a replayable access sequence. A read that misses is followed by
// a fill, the way a read-through cache behaves.
type Workload struct {
	Name        string
	Description string
	Keys        []string
	Writes      []bool // nil means every access is a read
	EntrySize   int
}

// ZipfWorkload builds n Zipf-distributed reads over keySpace keys.
func ZipfWorkload(n, keySpace int, alpha float64, seed uint64) Workload {
	return Workload{
		Name:        "zipf",
		Description: fmt.Sprintf("Zipf synthetic (alpha=%.2f, %d ops, %d keys)", alpha, n, keySpace),
		Keys:        intKeys(workload.GenerateZipfInt(n, keySpace, alpha, seed)),
		EntrySize:   SyntheticEntrySize,
	}
}

// ScanWorkload builds n reads cycling through keySpace keys in order.
func ScanWorkload(n, keySpace int) Workload {
	return Workload{
		Name:        "scan",
		Description: fmt.Sprintf("cyclic scan (%d ops, %d keys)", n, keySpace),
		Keys:        intKeys(workload.GenerateScan(n, keySpace)),
		EntrySize:   SyntheticEntrySize,
	}
}

// TraceWorkload replays a recorded trace. Writes in the trace become Sets.
func TraceWorkload(name string, ops []trace.Op) Workload {
	w := Workload{
		Name:        name,
		Description: fmt.Sprintf("trace %s (%s)", name, trace.Summarize(ops)),
		Keys:        trace.Keys(ops),
		EntrySize:   TraceEntrySize,
	}
	for i, op := range ops {
		if !op.Write {
			continue
		}
		if w.Writes == nil {
			w.Writes = make([]bool, len(ops))
		}
		w.Writes[i] = true
	}
	return w
}

func intKeys(keys []int) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = strconv.Itoa(k)
	}
	return out
}

// RunHitRate replays w against every implementation at every size.
func RunHitRate(impls []cache.Impl, w Workload, sizes []int) []HitRateResult {
	results := make([]HitRateResult, 0, len(impls))
	for _, impl := range impls {
		r := HitRateResult{Name: impl.Name, Rates: make(map[int]float64, len(sizes))}
		for _, size := range sizes {
			rate, snap, ok := replay(impl.NewSized(size, w.EntrySize), w)
			r.Rates[size] = rate
			if ok {
				if r.Stats == nil {
					r.Stats = make(map[int]stats.Snapshot, len(sizes))
				}
				r.Stats[size] = snap
			}
		}
		results = append(results, r)
	}
	return results
}

// replay runs w against c and returns the hit rate over reads, plus the
// cache's own statistics when it keeps any.
func replay(c cache.Cache, w Workload) (float64, stats.Snapshot, bool) {
	defer c.Close()

	var hits, misses uint64
	for i, key := range w.Keys {
		if w.Writes != nil && w.Writes[i] {
			c.Set(key, key)
			continue
		}
		if _, ok := c.Get(key); ok {
			hits++
		} else {
			misses++
			c.Set(key, key)
		}
	}

	var snap stats.Snapshot
	s, ok := c.(cache.Statser)
	if ok {
		snap = s.Stats()
	}
	return stats.HitRate(hits, misses), snap, ok
}
