package benchmark

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tstromberg/evictcache/internal/cache"
	"github.com/tstromberg/evictcache/internal/trace"
	"github.com/tstromberg/evictcache/internal/workload"
)

func selectImpls(t *testing.T, names ...string) []cache.Impl {
	t.Helper()
	impls, err := cache.Select(names)
	require.NoError(t, err)
	return impls
}

func TestRunHitRate_Zipf(t *testing.T) {
	impls := selectImpls(t, "evict-lru", "evict-lfu", "lru")
	w := ZipfWorkload(20_000, 2_000, 0.99, 7)
	sizes := []int{64, 512}

	results := RunHitRate(impls, w, sizes)
	require.Len(t, results, 3)

	for _, r := range results {
		assert.Greater(t, r.Rates[512], r.Rates[64], "%s: a larger cache should hit more", r.Name)
		assert.Greater(t, r.Rates[64], 0.0, r.Name)
	}

	// Only the engine keeps its own statistics, and they agree with the
	// replay's own count.
	for _, r := range results[:2] {
		require.NotNil(t, r.Stats, r.Name)
		s := r.Stats[512]
		assert.Equal(t, uint64(len(w.Keys)), s.Lookups(), r.Name)
		assert.InDelta(t, r.Rates[512], s.HitRate, 0.0001, r.Name)
	}
	assert.Nil(t, results[2].Stats)
}

// A cyclic scan one larger than the cache never hits under LRU or FIFO.
func TestRunHitRate_ScanDefeatsRecency(t *testing.T) {
	impls := selectImpls(t, "evict-lru", "evict-fifo")
	results := RunHitRate(impls, ScanWorkload(10_000, 101), []int{100})
	for _, r := range results {
		assert.Zero(t, r.Rates[100], r.Name)
	}
}

func TestRunHitRate_TraceWrites(t *testing.T) {
	ops := []trace.Op{
		{Key: "a", Write: true},
		{Key: "a"},
		{Key: "b"},
		{Key: "b"},
	}
	w := TraceWorkload("tiny", ops)
	assert.Equal(t, []bool{true, false, false, false}, w.Writes)
	assert.Contains(t, w.Description, "4 ops, 2 unique keys, 1 writes")

	results := RunHitRate(selectImpls(t, "evict-lru"), w, []int{10})
	// Reads: a hit, b miss, b hit.
	assert.InDelta(t, 66.666, results[0].Rates[10], 0.01)
	assert.Equal(t, uint64(2), results[0].Stats[10].Puts)
}

func TestRunLatency(t *testing.T) {
	if testing.Short() {
		t.Skip("latency benchmarks take a few seconds")
	}
	results := RunLatency(selectImpls(t, "evict-lru", "s4lru"))
	require.Len(t, results, 2)

	assert.True(t, results[0].HasDelete)
	assert.Positive(t, results[0].GetNsOp)
	assert.Positive(t, results[0].SetEvictNsOp)
	assert.Positive(t, results[0].DeleteNsOp)

	assert.False(t, results[1].HasDelete)
	assert.Zero(t, results[1].DeleteNsOp)

	ints := RunIntLatency(selectImpls(t, "evict-fifo", "s4lru"))
	require.Len(t, ints, 1, "s4lru has no int variant")
	assert.Equal(t, "evict-fifo", ints[0].Name)
}

func TestRunThroughput(t *testing.T) {
	if testing.Short() {
		t.Skip("throughput runs last a second per thread count")
	}
	mode := ThroughputMode{Name: "read-heavy", Mix: workload.ReadHeavy}
	results, err := RunThroughput(context.Background(), selectImpls(t, "evict-lfu"), mode, []int{2})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Positive(t, results[0].QPS[2])

	ints, err := RunIntThroughput(context.Background(), selectImpls(t, "evict-ttl"), mode, []int{1})
	require.NoError(t, err)
	require.Len(t, ints, 1)
	assert.Positive(t, ints[0].QPS[1])
}

func TestRunThroughput_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := RunThroughput(ctx, selectImpls(t, "evict-lru"), DefaultThroughputModes[0], []int{1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseMemOutput(t *testing.T) {
	res, err := parseMemOutput("otter", []byte(`{"name":"otter", "items":10, "bytes":4096}`))
	require.NoError(t, err)
	assert.Equal(t, MemoryResult{Name: "otter", Items: 10, Bytes: 4096}, res)

	_, err = parseMemOutput("nope", []byte(`{"error":"unknown cache"}`))
	assert.ErrorContains(t, err, "unknown cache")

	_, err = parseMemOutput("garbled", []byte(`not json`))
	assert.Error(t, err)

	assert.Equal(t, int64(100), perItemOverhead(
		MemoryResult{Items: 10, Bytes: 2000},
		MemoryResult{Bytes: 1000},
	))
	assert.Zero(t, perItemOverhead(MemoryResult{}, MemoryResult{Bytes: 1000}))
}
