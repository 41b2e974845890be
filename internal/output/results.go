// Package output provides result formatting and export.
package output

import "github.com/tstromberg/evictcache/internal/benchmark"

// Results holds all benchmark results for report output.
type Results struct {
	Timestamp   string
	HitRate     *HitRateData
	Latency     *LatencyData
	Throughput  *ThroughputData
	Memory      *MemoryData
	Rankings    []Ranking
	MedalTable  *MedalTable
	MachineInfo MachineInfo
}

// MachineInfo holds information about the benchmark environment.
type MachineInfo struct {
	OS          string
	Arch        string
	NumCPU      int
	GoVersion   string
	CommandLine string
}

// Ranking represents an overall ranking entry.
type Ranking struct {
	Rank   int
	Name   string
	Score  float64
	Gold   int
	Silver int
	Bronze int
}

// BenchmarkMedal holds a single benchmark's top three placements. Ties put
// several names in one slot and leave the following slots empty.
type BenchmarkMedal struct {
	Name   string
	Gold   []string
	Silver []string
	Bronze []string
}

// CategoryMedals holds medals for a benchmark category with its winner.
type CategoryMedals struct {
	Name       string
	Benchmarks []BenchmarkMedal
	Rankings   []Ranking
}

// MedalTable holds all benchmark medals organized by category.
type MedalTable struct {
	Categories []CategoryMedals
}

// HitRateData holds hit rate results, one set per workload.
type HitRateData struct {
	Sizes     []int
	Workloads []HitRateWorkload
}

// HitRateWorkload is one replayed workload and its results.
type HitRateWorkload struct {
	Name        string
	Description string
	Results     []benchmark.HitRateResult
}

// LatencyData holds latency benchmark data.
type LatencyData struct {
	Results    []benchmark.LatencyResult
	IntResults []benchmark.LatencyResult
}

// ThroughputData holds throughput results, one set per operation mix.
type ThroughputData struct {
	Threads []int
	Modes   []ThroughputModeData
}

// ThroughputModeData is one operation mix and its results.
type ThroughputModeData struct {
	Name       string
	Results    []benchmark.ThroughputResult
	IntResults []benchmark.ThroughputResult
}

// MemoryData holds memory benchmark data.
type MemoryData struct {
	Results  []benchmark.MemoryResult
	Capacity int
	ValSize  int
}
