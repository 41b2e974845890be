package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tstromberg/evictcache/internal/benchmark"
	"github.com/tstromberg/evictcache/internal/config"
	"github.com/tstromberg/evictcache/internal/manager"
	"github.com/tstromberg/evictcache/internal/output"
	"github.com/tstromberg/evictcache/internal/policy"
	"github.com/tstromberg/evictcache/internal/stats"
	"github.com/tstromberg/evictcache/internal/trace"
	"github.com/tstromberg/evictcache/internal/workload"
)

const lineWidth = 80

// syntheticSeed keeps synthetic workloads identical across runs.
const syntheticSeed = 42

func run(ctx context.Context, s *settings, logger *slog.Logger) (output.Results, error) {
	printHeader(s)

	var results output.Results
	var err error

	if s.suites["hitrate"] {
		if results.HitRate, err = runHitRateSuite(s, logger); err != nil {
			return results, err
		}
	}
	if s.suites["latency"] {
		results.Latency = runLatencySuite(s)
	}
	if s.suites["throughput"] {
		if results.Throughput, err = runThroughputSuite(ctx, s); err != nil {
			return results, err
		}
	}
	if s.suites["memory"] {
		results.Memory = runMemorySuite(ctx, s, logger)
	}
	if s.suites["registry"] {
		if err := runRegistrySuite(s, logger); err != nil {
			return results, err
		}
	}

	results.Rankings, results.MedalTable = output.ComputeRankings(results)
	printOverallRanking(results.Rankings)
	return results, nil
}

func printHeader(s *settings) {
	fmt.Println("evictcache")
	fmt.Println()

	var suitesRun []string
	for _, name := range validSuites {
		if s.suites[name] {
			suitesRun = append(suitesRun, name)
		}
	}
	labels := make([]string, len(s.sizes))
	for i, size := range s.sizes {
		labels[i] = fmt.Sprintf("%dK", size/1024)
	}

	fmt.Printf("  caches: %d\n", len(s.impls))
	fmt.Printf("  suites: %s\n", strings.Join(suitesRun, ", "))
	fmt.Printf("  sizes:  %s\n", strings.Join(labels, ", "))
	fmt.Println()
}

func printSuite(name, description string) {
	header := fmt.Sprintf("%s: %s ", name, description)
	padding := max(lineWidth-len(header), 0)
	fmt.Printf("%s%s\n\n", header, strings.Repeat("─", padding))
}

func printTest(name, description string) {
	fmt.Printf("  [%s] %s\n\n", name, description)
}

func runHitRateSuite(s *settings, logger *slog.Logger) (*output.HitRateData, error) {
	printSuite("hitrate", "cache efficiency")

	workloads := []benchmark.Workload{
		benchmark.ZipfWorkload(s.ops, s.keySpace, s.alpha, syntheticSeed),
		benchmark.ScanWorkload(s.ops/4, s.sizes[len(s.sizes)-1]+s.sizes[len(s.sizes)-1]/4),
	}
	for _, path := range s.traces {
		ops, err := trace.Load(path, s.traceOpts)
		if err != nil {
			return nil, err
		}
		logger.Info("trace loaded", "path", path, "summary", trace.Summarize(ops).String())
		workloads = append(workloads, benchmark.TraceWorkload(filepath.Base(path), ops))
	}

	data := &output.HitRateData{Sizes: s.sizes}
	for _, w := range workloads {
		printTest(w.Name, w.Description)
		results := benchmark.RunHitRate(s.impls, w, s.sizes)
		if err := output.HitRateTable(os.Stdout, "  ", results, s.sizes); err != nil {
			return nil, err
		}
		data.Workloads = append(data.Workloads, output.HitRateWorkload{
			Name:        w.Name,
			Description: w.Description,
			Results:     results,
		})
	}
	return data, nil
}

func runLatencySuite(s *settings) *output.LatencyData {
	printSuite("latency", "single-threaded (ns/op)")

	data := &output.LatencyData{}

	printTest("string", "string key Get/Set/Delete operations")
	data.Results = benchmark.RunLatency(s.impls)
	_ = output.LatencyTable(os.Stdout, "  ", data.Results) //nolint:errcheck // stdout

	printTest("int", "int key Get/Set/Delete operations")
	data.IntResults = benchmark.RunIntLatency(s.impls)
	_ = output.LatencyTable(os.Stdout, "  ", data.IntResults) //nolint:errcheck // stdout

	return data
}

func runThroughputSuite(ctx context.Context, s *settings) (*output.ThroughputData, error) {
	printSuite("throughput", "multi-threaded (QPS)")

	data := &output.ThroughputData{Threads: s.threads}
	cacheSize := benchmark.ThroughputCacheSize / 1000
	for _, mode := range benchmark.DefaultThroughputModes {
		m := mode.Mix
		printTest(mode.Name, fmt.Sprintf("get/put/delete %d/%d/%d, Zipf, %dK cache", m.Get, m.Put, m.Delete, cacheSize))

		results, err := benchmark.RunThroughput(ctx, s.impls, mode, s.threads)
		if err != nil {
			return data, err
		}
		_ = output.ThroughputTable(os.Stdout, "  ", results, s.threads) //nolint:errcheck // stdout

		printTest(mode.Name+"-int", "same mix with int keys")
		intResults, err := benchmark.RunIntThroughput(ctx, s.impls, mode, s.threads)
		if err != nil {
			return data, err
		}
		_ = output.ThroughputTable(os.Stdout, "  ", intResults, s.threads) //nolint:errcheck // stdout

		data.Modes = append(data.Modes, output.ThroughputModeData{
			Name:       mode.Name,
			Results:    results,
			IntResults: intResults,
		})
	}
	return data, nil
}

func runMemorySuite(ctx context.Context, s *settings, logger *slog.Logger) *output.MemoryData {
	capacity := benchmark.DefaultMemoryCapacity
	valSize := benchmark.DefaultValueSize

	printSuite("memory", "overhead per item (isolated processes)")
	printTest("memory", fmt.Sprintf("%d items, %d byte values", capacity, valSize))

	results, err := benchmark.RunMemory(ctx, s.impls, capacity, valSize, logger)
	if err != nil {
		logger.Error("memory benchmark", "error", err)
		return nil
	}
	_ = output.MemoryTable(os.Stdout, "  ", results) //nolint:errcheck // stdout
	return &output.MemoryData{Results: results, Capacity: capacity, ValSize: valSize}
}

// registryConfig is used when -config is not given: one cache per policy.
func registryConfig() *config.Config {
	cfg := &config.Config{}
	for _, kind := range policy.Kinds {
		spec := config.CacheSpec{Name: kind.String(), Capacity: 4096, Policy: kind}
		if kind == policy.TTL {
			spec.DefaultTTL = time.Minute
			spec.CleanupInterval = 10 * time.Second
		}
		cfg.Caches = append(cfg.Caches, spec)
	}
	return cfg
}

// runRegistrySuite builds the named caches through the registry, replays a
// read-heavy mixed workload against each, and prints the caches' own
// statistics.
func runRegistrySuite(s *settings, logger *slog.Logger) error {
	printSuite("registry", "named engine caches")

	cfg := registryConfig()
	if s.config != "" {
		var err error
		if cfg, err = config.Load(s.config); err != nil {
			return err
		}
	}

	reg, err := manager.FromConfig[string, string](cfg, logger)
	if err != nil {
		return err
	}
	defer reg.Close() //nolint:errcheck // sweepers only

	ops := workload.GenerateMixed(s.ops, s.keySpace, s.alpha, workload.ReadHeavy, syntheticSeed)
	keys := make([]string, s.keySpace)
	for i := range keys {
		keys[i] = fmt.Sprintf("key-%d", i)
	}

	printTest("read-heavy", fmt.Sprintf("get/put/delete %d/%d/%d over %d keys", workload.ReadHeavy.Get, workload.ReadHeavy.Put, workload.ReadHeavy.Delete, s.keySpace))
	fmt.Println("  | Cache         | Policy | Capacity |  Size | Statistics")
	fmt.Println("  |---------------|--------|----------|-------|-----------")
	for _, name := range reg.Names() {
		c, err := reg.MustGet(name)
		if err != nil {
			return err
		}
		snap := replayMixed(c, ops, keys)
		expired := c.CleanupExpired()
		fmt.Printf("  | %-13s | %-6s | %8d | %5d | %s\n", name, c.Policy(), c.Capacity(), c.Size(), snap)
		if expired > 0 {
			fmt.Printf("  |               |        |          |       | %d expired at end of run\n", expired)
		}
	}
	fmt.Println()
	return nil
}

// mixedCache is the subset of the engine the registry replay drives.
type mixedCache interface {
	Get(key string) (string, bool)
	Put(key, value string) error
	Delete(key string) bool
	Statistics() stats.Snapshot
}

// replayMixed runs ops against c the way a read-through cache is used: a
// read that misses is filled.
func replayMixed(c mixedCache, ops []workload.Op, keys []string) stats.Snapshot {
	for _, op := range ops {
		key := keys[op.Key%len(keys)]
		switch op.Kind {
		case workload.OpGet:
			if _, ok := c.Get(key); !ok {
				_ = c.Put(key, key) //nolint:errcheck // strings are never nil
			}
		case workload.OpPut:
			_ = c.Put(key, key) //nolint:errcheck // strings are never nil
		case workload.OpDelete:
			c.Delete(key)
		}
	}
	return c.Statistics()
}

func printOverallRanking(rankings []output.Ranking) {
	if len(rankings) == 0 {
		return
	}

	printSuite("summary", "ranked voting across all tests")
	for i := 0; i < len(rankings) && i < 3; i++ {
		r := rankings[i]
		fmt.Printf("  #%d  %s (%.0f points)\n", r.Rank, r.Name, r.Score)
	}
	fmt.Println()
}
