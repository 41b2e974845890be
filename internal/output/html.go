package output

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"slices"
	"sort"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/tstromberg/evictcache/internal/benchmark"
)

//go:embed template.html
var templateFS embed.FS

var htmlTemplate = template.Must(template.New("template.html").Funcs(templateFuncs).ParseFS(templateFS, "template.html"))

// WriteHTML writes benchmark results to an HTML file.
func WriteHTML(filename string, results Results, commandLine string) error {
	results.MachineInfo.CommandLine = commandLine

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create %s: %w", filename, err)
	}
	if err := RenderHTML(f, results); err != nil {
		f.Close() //nolint:errcheck,gosec // already failing
		return err
	}
	return f.Close()
}

// RenderHTML renders the report as a standalone HTML page.
func RenderHTML(w io.Writer, results Results) error {
	if results.Timestamp == "" {
		results.Timestamp = time.Now().Format("2006-01-02 15:04:05 MST")
	}
	if err := htmlTemplate.Execute(w, results); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

var templateFuncs = template.FuncMap{
	"sizeLabel":  sizeLabel,
	"avgHitRate": AvgHitRate,
	"avgQPS":     avgQPS,
	"qps":        qps,
	"pct":        func(f float64) string { return fmt.Sprintf("%.2f", f) },
	"ns":         func(f float64) string { return fmt.Sprintf("%.1f", f) },
	"bytes":      humanize.IBytes,
	"sortByHitRate": func(data []benchmark.HitRateResult, sizes []int) []benchmark.HitRateResult {
		sorted := slices.Clone(data)
		sort.SliceStable(sorted, func(i, j int) bool {
			return AvgHitRate(sorted[i], sizes) > AvgHitRate(sorted[j], sizes)
		})
		return sorted
	},
	"sortByLatency": func(data []benchmark.LatencyResult) []benchmark.LatencyResult {
		sorted := slices.Clone(data)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].AvgNsOp() < sorted[j].AvgNsOp()
		})
		return sorted
	},
	"sortByThroughput": func(data []benchmark.ThroughputResult) []benchmark.ThroughputResult {
		sorted := slices.Clone(data)
		sort.SliceStable(sorted, func(i, j int) bool {
			return avgQPS(sorted[i]) > avgQPS(sorted[j])
		})
		return sorted
	},
	"rate": func(r benchmark.HitRateResult, size int) float64 { return r.Rates[size] },
	"tqps": func(r benchmark.ThroughputResult, threads int) float64 { return r.QPS[threads] },
	// keyed labels string and int key results; templates range maps in key order.
	"keyed": func(str, ints []benchmark.ThroughputResult) map[string][]benchmark.ThroughputResult {
		return map[string][]benchmark.ThroughputResult{"": str, "int": ints}
	},
	// allocColor shades allocation counts from white (none) to dark red.
	"allocColor": func(n int64) template.CSS {
		switch {
		case n == 0:
			return "background:#fff;color:#333"
		case n == 1:
			return "background:#fff3cd;color:#333"
		case n == 2:
			return "background:#ffcc80;color:#333"
		case n <= 4:
			return "background:#ef5350;color:#fff"
		default:
			return "background:#8b0000;color:#fff"
		}
	},
}
