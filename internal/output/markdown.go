package output

import (
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/tstromberg/evictcache/internal/benchmark"
)

// printer remembers the first write error so table code can stay linear.
type printer struct {
	w      io.Writer
	indent string
	err    error
}

func (p *printer) f(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

// row starts a line with the printer's indent.
func (p *printer) row(format string, args ...any) {
	p.f(p.indent+format, args...)
}

// WriteMarkdown writes benchmark results to a Markdown file.
func WriteMarkdown(filename string, results Results, commandLine string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create %s: %w", filename, err)
	}
	results.MachineInfo.CommandLine = commandLine
	if err := RenderMarkdown(f, results); err != nil {
		f.Close() //nolint:errcheck,gosec // already failing
		return err
	}
	return f.Close()
}

// RenderMarkdown renders the full report.
func RenderMarkdown(w io.Writer, results Results) error {
	p := &printer{w: w}
	mi := results.MachineInfo

	p.f("# evictcache Results\n\n")
	p.f("```\n")
	p.f("Command: %s\n", mi.CommandLine)
	p.f("Environment: %s/%s, %d CPUs, %s\n", mi.OS, mi.Arch, mi.NumCPU, mi.GoVersion)
	p.f("```\n\n")

	if hr := results.HitRate; hr != nil {
		p.f("## Hit Rate Benchmarks\n\n")
		for _, wl := range hr.Workloads {
			p.f("### %s\n\n%s\n\n", wl.Name, wl.Description)
			writeHitRate(p, wl.Results, hr.Sizes)
		}
		if hasEngineStats(hr) {
			p.f("## Engine Statistics\n\n")
			for _, wl := range hr.Workloads {
				p.f("### %s\n\n", wl.Name)
				writeEngineStats(p, wl.Results, hr.Sizes)
			}
		}
	}

	if lat := results.Latency; lat != nil {
		p.f("## Latency Benchmarks\n\n")
		if len(lat.Results) > 0 {
			p.f("### String Keys\n\n")
			writeLatency(p, lat.Results)
		}
		if len(lat.IntResults) > 0 {
			p.f("### Int Keys\n\n")
			writeLatency(p, lat.IntResults)
		}
	}

	if tp := results.Throughput; tp != nil {
		p.f("## Throughput Benchmarks\n\n")
		for _, m := range tp.Modes {
			if len(m.Results) > 0 {
				p.f("### %s\n\n", m.Name)
				writeThroughput(p, m.Results, tp.Threads)
			}
			if len(m.IntResults) > 0 {
				p.f("### %s (int keys)\n\n", m.Name)
				writeThroughput(p, m.IntResults, tp.Threads)
			}
		}
	}

	if mem := results.Memory; mem != nil && len(mem.Results) > 0 {
		p.f("## Memory Benchmarks\n\n")
		p.f("%s items of %s each.\n\n", humanize.Comma(int64(mem.Capacity)), humanize.IBytes(uint64(mem.ValSize))) //nolint:gosec // sizes are positive
		writeMemory(p, mem.Results)
	}

	if len(results.Rankings) > 0 {
		p.f("## Overall Rankings\n\n")
		writeRankings(p, results.Rankings)
	}
	return p.err
}

// HitRateTable prints a hit rate table, best average first.
func HitRateTable(w io.Writer, indent string, data []benchmark.HitRateResult, sizes []int) error {
	p := &printer{w: w, indent: indent}
	writeHitRate(p, data, sizes)
	return p.err
}

// EngineStatsTable prints the engine's own counters at each size.
func EngineStatsTable(w io.Writer, indent string, data []benchmark.HitRateResult, sizes []int) error {
	p := &printer{w: w, indent: indent}
	writeEngineStats(p, data, sizes)
	return p.err
}

// LatencyTable prints a latency table, fastest first.
func LatencyTable(w io.Writer, indent string, data []benchmark.LatencyResult) error {
	p := &printer{w: w, indent: indent}
	writeLatency(p, data)
	return p.err
}

// ThroughputTable prints a throughput table, fastest first.
func ThroughputTable(w io.Writer, indent string, data []benchmark.ThroughputResult, threads []int) error {
	p := &printer{w: w, indent: indent}
	writeThroughput(p, data, threads)
	return p.err
}

// MemoryTable prints a memory table in the order given.
func MemoryTable(w io.Writer, indent string, data []benchmark.MemoryResult) error {
	p := &printer{w: w, indent: indent}
	writeMemory(p, data)
	return p.err
}

// RankingTable prints the overall ranking.
func RankingTable(w io.Writer, indent string, rankings []Ranking) error {
	p := &printer{w: w, indent: indent}
	writeRankings(p, rankings)
	return p.err
}

func sizeLabel(size int) string {
	if size >= 1024 && size%1024 == 0 {
		return fmt.Sprintf("%dK", size/1024)
	}
	return fmt.Sprintf("%d", size)
}

// winnerLine prints the winners and how far ahead of the runner-up they are.
// lowerIsBetter flips the sign of the comparison.
func winnerLine(p *printer, entries []WinnerEntry, unit string, lowerIsBetter bool) {
	if len(entries) < 2 {
		p.f("\n")
		return
	}
	winners, runnerUp := FormatWinners(entries)
	if runnerUp == nil {
		p.f("\n%stie: %s\n\n", p.indent, strings.Join(winners, ", "))
		return
	}
	best := entries[0].Score
	var pct float64
	if lowerIsBetter {
		pct = (runnerUp.Score - best) / best * 100
	} else {
		pct = (best - runnerUp.Score) / runnerUp.Score * 100
	}
	p.f("\n%swinner: %s (%s, +%.1f%% vs %s)\n\n", p.indent, strings.Join(winners, ", "), unit, pct, runnerUp.Name)
}

func writeHitRate(p *printer, data []benchmark.HitRateResult, sizes []int) {
	if len(data) == 0 {
		return
	}
	p.row("| Cache         |")
	for _, size := range sizes {
		p.f(" %6s |", sizeLabel(size))
	}
	p.f("    Avg |\n")
	p.row("|---------------|%s--------|\n", strings.Repeat("--------|", len(sizes)))

	sorted := slices.Clone(data)
	sort.SliceStable(sorted, func(i, j int) bool {
		return AvgHitRate(sorted[i], sizes) > AvgHitRate(sorted[j], sizes)
	})

	entries := make([]WinnerEntry, len(sorted))
	for i, r := range sorted {
		avg := AvgHitRate(r, sizes)
		entries[i] = WinnerEntry{Name: r.Name, Score: avg}
		p.row("| %-13s |", r.Name)
		for _, size := range sizes {
			p.f(" %5.2f%% |", r.Rates[size])
		}
		p.f(" %5.2f%% |\n", avg)
	}
	winnerLine(p, entries, fmt.Sprintf("%.2f%% avg", entries[0].Score), false)
}

func hasEngineStats(hr *HitRateData) bool {
	for _, wl := range hr.Workloads {
		for _, r := range wl.Results {
			if r.Stats != nil {
				return true
			}
		}
	}
	return false
}

func writeEngineStats(p *printer, data []benchmark.HitRateResult, sizes []int) {
	p.row("| Cache         |   Size |        Hits |      Misses |   Evictions | Expirations |        Puts | Removes |\n")
	p.row("|---------------|--------|-------------|-------------|-------------|-------------|-------------|---------|\n")
	for _, r := range data {
		if r.Stats == nil {
			continue
		}
		for _, size := range sizes {
			s := r.Stats[size]
			p.row("| %-13s | %6s | %11s | %11s | %11s | %11s | %11s | %7s |\n",
				r.Name, sizeLabel(size), count(s.Hits), count(s.Misses), count(s.Evictions),
				count(s.Expirations), count(s.Puts), count(s.Removes))
		}
	}
	p.f("\n")
}

func count(n uint64) string {
	return humanize.Comma(int64(n)) //nolint:gosec // counters stay far below MaxInt64
}

func writeLatency(p *printer, data []benchmark.LatencyResult) {
	if len(data) == 0 {
		return
	}
	p.row("| Cache         | Get ns | Get alloc | Set ns | Set alloc | SetEvict ns | SetEvict alloc | Delete ns | Avg ns |\n")
	p.row("|---------------|--------|-----------|--------|-----------|-------------|----------------|-----------|--------|\n")

	sorted := slices.Clone(data)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].AvgNsOp() < sorted[j].AvgNsOp()
	})

	entries := make([]WinnerEntry, len(sorted))
	for i, r := range sorted {
		entries[i] = WinnerEntry{Name: r.Name, Score: r.AvgNsOp()}
		del := "-"
		if r.HasDelete {
			del = fmt.Sprintf("%.0f", r.DeleteNsOp)
		}
		p.row("| %-13s | %6.0f | %9d | %6.0f | %9d | %11.0f | %14d | %9s | %6.0f |\n",
			r.Name, r.GetNsOp, r.GetAllocs, r.SetNsOp, r.SetAllocs, r.SetEvictNsOp, r.SetEvictAllocs, del, r.AvgNsOp())
	}
	winnerLine(p, entries, fmt.Sprintf("%.0f ns avg", entries[0].Score), true)
}

func qps(f float64) string {
	if f >= 1_000_000 {
		return fmt.Sprintf("%.2fM", f/1_000_000)
	}
	return fmt.Sprintf("%.0fK", f/1_000)
}

func writeThroughput(p *printer, data []benchmark.ThroughputResult, threads []int) {
	if len(data) == 0 {
		return
	}
	p.row("| Cache         |")
	for _, t := range threads {
		p.f(" %8s |", fmt.Sprintf("%dT", t))
	}
	p.f("      Avg |\n")
	p.row("|---------------|%s----------|\n", strings.Repeat("----------|", len(threads)))

	sorted := slices.Clone(data)
	sort.SliceStable(sorted, func(i, j int) bool {
		return avgQPS(sorted[i]) > avgQPS(sorted[j])
	})

	entries := make([]WinnerEntry, len(sorted))
	for i, r := range sorted {
		entries[i] = WinnerEntry{Name: r.Name, Score: avgQPS(r)}
		p.row("| %-13s |", r.Name)
		for _, t := range threads {
			p.f(" %8s |", qps(r.QPS[t]))
		}
		p.f(" %8s |\n", qps(avgQPS(r)))
	}
	winnerLine(p, entries, qps(entries[0].Score)+" QPS avg", false)
}

func writeMemory(p *printer, data []benchmark.MemoryResult) {
	if len(data) == 0 {
		return
	}
	p.row("| Cache         | Items Stored |     Memory | Overhead (bytes/item) |\n")
	p.row("|---------------|--------------|------------|-----------------------|\n")

	entries := make([]WinnerEntry, len(data))
	for i, r := range data {
		entries[i] = WinnerEntry{Name: r.Name, Score: float64(r.Bytes)}
		p.row("| %-13s | %12d | %10s | %21d |\n", r.Name, r.Items, humanize.IBytes(r.Bytes), r.BytesPerItem)
	}
	winnerLine(p, entries, humanize.IBytes(data[0].Bytes), true)
}

func writeRankings(p *printer, rankings []Ranking) {
	p.row("| Rank | Cache         | Score | Gold | Silver | Bronze |\n")
	p.row("|------|---------------|-------|------|--------|--------|\n")
	for _, r := range rankings {
		p.row("| %4d | %-13s | %5.0f | %4d | %6d | %6d |\n", r.Rank, r.Name, r.Score, r.Gold, r.Silver, r.Bronze)
	}
	p.f("\n")
}
