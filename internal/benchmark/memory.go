package benchmark

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/tstromberg/evictcache/internal/cache"
)

// MemoryResult holds memory usage results for a cache.
type MemoryResult struct {
	Name          string `json:"name"`
	Items         int    `json:"items"`
	Bytes         uint64 `json:"bytes"`
	BytesPerItem  int64  `json:"bytesPerItem"`
	BaselineBytes uint64 `json:"baselineBytes"`
}

type memOutput struct {
	Name  string `json:"name"`
	Error string `json:"error,omitempty"`
	Items int    `json:"items"`
	Bytes uint64 `json:"bytes"`
}

// DefaultMemoryCapacity is the cache size for memory benchmarks.
const DefaultMemoryCapacity = 32768

// DefaultValueSize is the value size in bytes.
const DefaultValueSize = 1024

// baselineName is the plain map every cache is measured against.
const baselineName = "baseline"

// RunMemory measures each implementation in its own process so one cache's
// garbage cannot inflate another's numbers. Results are sorted by bytes.
func RunMemory(ctx context.Context, impls []cache.Impl, capacity, valSize int, logger *slog.Logger) ([]MemoryResult, error) {
	dir, err := os.MkdirTemp("", "evictcache-mem")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir) //nolint:errcheck // best-effort cleanup

	binPath := filepath.Join(dir, "mem-benchmark")
	buildCmd := exec.CommandContext(ctx, "go", "build", "-o", binPath, "./cmd/mem")
	if out, err := buildCmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("build mem benchmark: %w\n%s", err, out)
	}

	baseline, err := runMemBenchmark(ctx, binPath, baselineName, capacity, valSize)
	if err != nil {
		return nil, fmt.Errorf("baseline benchmark: %w", err)
	}

	results := make([]MemoryResult, 0, len(impls))
	for _, impl := range impls {
		res, err := runMemBenchmark(ctx, binPath, impl.Name, capacity, valSize)
		if err != nil {
			if ctx.Err() != nil {
				return results, ctx.Err()
			}
			logger.Warn("memory benchmark failed", "cache", impl.Name, "error", err)
			continue
		}
		res.BaselineBytes = baseline.Bytes
		res.BytesPerItem = perItemOverhead(res, baseline)
		results = append(results, res)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Bytes < results[j].Bytes
	})
	return results, nil
}

// perItemOverhead is how many bytes per item the cache uses beyond a plain map
// holding the same data.
func perItemOverhead(res, baseline MemoryResult) int64 {
	if res.Items == 0 {
		return 0
	}
	diff := int64(res.Bytes) - int64(baseline.Bytes) //nolint:gosec // heap sizes fit in int64
	return diff / int64(res.Items)
}

func runMemBenchmark(ctx context.Context, binPath, cacheName string, capacity, valSize int) (MemoryResult, error) {
	cmd := exec.CommandContext(ctx, binPath, //nolint:gosec // binary built above
		"-cache", cacheName,
		"-cap", strconv.Itoa(capacity),
		"-valSize", strconv.Itoa(valSize),
	)

	out, err := cmd.Output()
	if err != nil {
		return MemoryResult{}, fmt.Errorf("run %s: %w", cacheName, err)
	}
	return parseMemOutput(cacheName, out)
}

func parseMemOutput(cacheName string, out []byte) (MemoryResult, error) {
	var res memOutput
	if err := json.Unmarshal(out, &res); err != nil {
		return MemoryResult{}, fmt.Errorf("parse output for %s: %w\n%s", cacheName, err, out)
	}
	if res.Error != "" {
		return MemoryResult{}, fmt.Errorf("%s: %s", cacheName, res.Error)
	}
	return MemoryResult{Name: res.Name, Items: res.Items, Bytes: res.Bytes}, nil
}
