package benchmark

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tstromberg/evictcache/internal/cache"
	"github.com/tstromberg/evictcache/internal/workload"
)

// ThroughputResult holds multi-threaded throughput results for a cache.
type ThroughputResult struct {
	Name string
	QPS  map[int]float64 // thread count -> QPS
}

// ThroughputMode is a named operation mix.
type ThroughputMode struct {
	Name string
	Mix  workload.Mix
}

// DefaultThreadCounts are the thread counts to benchmark.
var DefaultThreadCounts = []int{1, 8, 16, 32}

// DefaultThroughputModes are the mixes run by default. Caches without Delete
// turn deletes into reads.
var DefaultThroughputModes = []ThroughputMode{
	{Name: "mixed", Mix: workload.Mix{Get: 75, Put: 25}},
	{Name: "read-heavy", Mix: workload.ReadHeavy},
	{Name: "write-only", Mix: workload.Mix{Put: 1}},
}

// ThroughputCacheSize is the capacity every cache is created with.
const ThroughputCacheSize = 10_000

const (
	throughputWorkloadSize = 1_000_000
	throughputAlpha        = 0.99
	benchmarkDuration      = 1 * time.Second
	opsBatchSize           = 1000
)

// RunThroughput benchmarks throughput at each thread count using string keys.
func RunThroughput(ctx context.Context, impls []cache.Impl, mode ThroughputMode, threadCounts []int) ([]ThroughputResult, error) {
	ops := workload.GenerateMixed(throughputWorkloadSize, ThroughputCacheSize, throughputAlpha, mode.Mix, 42)
	keys := make([]string, ThroughputCacheSize)
	for i := range keys {
		keys[i] = strconv.Itoa(i)
	}

	results := make([]ThroughputResult, 0, len(impls))
	for _, impl := range impls {
		qps := make(map[int]float64, len(threadCounts))
		for _, threads := range threadCounts {
			q, err := measureQPS(ctx, impl.New, ops, keys, threads)
			if err != nil {
				return results, err
			}
			qps[threads] = q
		}
		results = append(results, ThroughputResult{Name: impl.Name, QPS: qps})
	}
	return results, nil
}

// RunIntThroughput benchmarks throughput at each thread count for
// implementations with an int-keyed variant.
func RunIntThroughput(ctx context.Context, impls []cache.Impl, mode ThroughputMode, threadCounts []int) ([]ThroughputResult, error) {
	ops := workload.GenerateMixed(throughputWorkloadSize, ThroughputCacheSize, throughputAlpha, mode.Mix, 42)

	impls = cache.WithInt(impls)
	results := make([]ThroughputResult, 0, len(impls))
	for _, impl := range impls {
		qps := make(map[int]float64, len(threadCounts))
		for _, threads := range threadCounts {
			q, err := measureIntQPS(ctx, impl.Int, ops, threads)
			if err != nil {
				return results, err
			}
			qps[threads] = q
		}
		results = append(results, ThroughputResult{Name: impl.Name, QPS: qps})
	}
	return results, nil
}

// runWorkers runs worker on threads goroutines until benchmarkDuration
// passes or ctx is cancelled, and returns operations per second. Each worker
// reports progress in batches so the shared counter stays cold.
func runWorkers(ctx context.Context, threads int, worker func(start int) int) (float64, error) {
	timed, cancel := context.WithTimeout(ctx, benchmarkDuration)
	defer cancel()

	var ops atomic.Int64
	g, gctx := errgroup.WithContext(timed)
	begin := time.Now()
	for t := range threads {
		g.Go(func() error {
			// Stagger workers so they do not walk the same keys in lockstep.
			i := t * (throughputWorkloadSize / max(threads, 1))
			for gctx.Err() == nil {
				i = worker(i)
				ops.Add(opsBatchSize)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	// The timer ending the run is expected; the caller cancelling is not.
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return float64(ops.Load()) / time.Since(begin).Seconds(), nil
}

func measureQPS(ctx context.Context, factory cache.Factory, ops []workload.Op, keys []string, threads int) (float64, error) {
	c := factory(ThroughputCacheSize)
	defer c.Close()
	for _, k := range keys {
		c.Set(k, k)
	}
	d, canDelete := c.(cache.Deleter)

	return runWorkers(ctx, threads, func(i int) int {
		for range opsBatchSize {
			op := ops[i%len(ops)]
			key := keys[op.Key%len(keys)]
			switch {
			case op.Kind == workload.OpPut:
				c.Set(key, key)
			case op.Kind == workload.OpDelete && canDelete:
				d.Delete(key)
			default:
				c.Get(key)
			}
			i++
		}
		return i
	})
}

func measureIntQPS(ctx context.Context, factory cache.IntFactory, ops []workload.Op, threads int) (float64, error) {
	c := factory(ThroughputCacheSize)
	defer c.Close()
	for i := range ThroughputCacheSize {
		c.Set(i, i)
	}
	d, canDelete := c.(cache.IntDeleter)

	return runWorkers(ctx, threads, func(i int) int {
		for range opsBatchSize {
			op := ops[i%len(ops)]
			switch {
			case op.Kind == workload.OpPut:
				c.Set(op.Key, op.Key)
			case op.Kind == workload.OpDelete && canDelete:
				d.Delete(op.Key)
			default:
				c.Get(op.Key)
			}
			i++
		}
		return i
	})
}
