// evictcache benchmarks the evictcache engine's eviction policies against
// popular Go cache libraries.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/jmgilman/go/errors"

	"github.com/tstromberg/evictcache/internal/benchmark"
	"github.com/tstromberg/evictcache/internal/cache"
	"github.com/tstromberg/evictcache/internal/output"
	"github.com/tstromberg/evictcache/internal/trace"
)

// validSuites lists all available benchmark suites in run order.
var validSuites = []string{"hitrate", "latency", "throughput", "memory", "registry"}

// settings is everything the suites need from the command line.
type settings struct {
	suites    map[string]bool
	impls     []cache.Impl
	sizes     []int
	threads   []int
	traces    []string
	traceOpts trace.Options
	ops       int
	keySpace  int
	alpha     float64
	config    string
}

func main() {
	showHelp := flag.Bool("help", false, "Show help message")
	suites := flag.String("suites", "all", "Comma-separated suites: "+strings.Join(validSuites, ","))
	caches := flag.String("caches", "", "Comma-separated caches to benchmark (default: all)")
	sizes := flag.String("sizes", "", "Comma-separated cache sizes in K (default: 1,4,16,64)")
	threads := flag.String("threads", "", "Comma-separated thread counts for throughput (default: 1,8,16,32)")
	traces := flag.String("trace", "", "Comma-separated trace files to replay in the hitrate suite (plain or zstd)")
	keyCol := flag.Int("trace-key-col", 0, "Zero-based CSV column holding the key")
	opCol := flag.Int("trace-op-col", -1, "Zero-based CSV column holding GET/SET, or -1 for read-only traces")
	header := flag.Bool("trace-header", false, "Skip the first line of each trace")
	limit := flag.Int("trace-limit", 0, "Read at most this many operations per trace (0: all)")
	ops := flag.Int("ops", 2_000_000, "Operations in the synthetic workloads")
	keySpace := flag.Int("keyspace", 100_000, "Distinct keys in the synthetic workloads")
	alpha := flag.Float64("alpha", 0.8, "Zipf skew of the synthetic workloads")
	configPath := flag.String("config", "", "YAML file of named caches for the registry suite")
	htmlOut := flag.String("html", "", "Output results to HTML file (e.g., results.html)")
	outDir := flag.String("outdir", "", "Output directory for evictcache_results.{html,md,json}")
	openHTML := flag.Bool("open", false, "Open HTML report in web browser after generation")
	verbose := flag.Bool("v", false, "Log engine events at debug level")
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	s, err := parseSettings(*suites, *caches, *sizes, *threads, *traces)
	if err != nil {
		logger.Error("invalid arguments", "error", err)
		os.Exit(2)
	}
	s.traceOpts = trace.Options{KeyColumn: *keyCol, OpColumn: *opCol, SkipHeader: *header, Limit: *limit}
	s.ops, s.keySpace, s.alpha = *ops, *keySpace, *alpha
	s.config = *configPath

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := run(ctx, s, logger)
	if err != nil {
		logger.Error("benchmark failed", "error", err)
		os.Exit(1)
	}

	commandLine := "evictcache " + strings.Join(os.Args[1:], " ")
	results.MachineInfo = output.MachineInfo{
		OS:          runtime.GOOS,
		Arch:        runtime.GOARCH,
		NumCPU:      runtime.NumCPU(),
		GoVersion:   runtime.Version(),
		CommandLine: commandLine,
	}

	htmlPath, err := writeReports(results, commandLine, *outDir, *htmlOut)
	if err != nil {
		logger.Error("write report", "error", err)
		os.Exit(1)
	}
	if *openHTML && htmlPath != "" {
		if err := openBrowser(htmlPath); err != nil {
			logger.Warn("could not open browser", "error", err)
		}
	}
}

// parseSettings validates the list-valued flags.
func parseSettings(suites, caches, sizes, threads, traces string) (*settings, error) {
	s := &settings{suites: make(map[string]bool)}

	if suites == "" || suites == "all" {
		for _, name := range validSuites {
			s.suites[name] = true
		}
	} else {
		valid := make(map[string]bool, len(validSuites))
		for _, name := range validSuites {
			valid[name] = true
		}
		for _, name := range splitList(suites) {
			name = strings.ToLower(name)
			if !valid[name] {
				return nil, errors.Newf(errors.CodeInvalidInput, "unknown suite %q (valid: %s)", name, strings.Join(validSuites, ", "))
			}
			s.suites[name] = true
		}
	}

	impls, err := cache.Select(splitList(caches))
	if err != nil {
		return nil, err
	}
	s.impls = impls

	s.sizes = benchmark.DefaultCacheSizes
	if sizes != "" {
		if s.sizes, err = parseIntList(sizes, 1024); err != nil {
			return nil, errors.WithContext(err, "flag", "sizes")
		}
	}
	s.threads = benchmark.DefaultThreadCounts
	if threads != "" {
		if s.threads, err = parseIntList(threads, 1); err != nil {
			return nil, errors.WithContext(err, "flag", "threads")
		}
	}
	s.traces = splitList(traces)
	return s, nil
}

func splitList(input string) []string {
	var out []string
	for item := range strings.SplitSeq(input, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// parseIntList parses a comma-separated list of positive integers, scaling
// each by multiplier.
func parseIntList(input string, multiplier int) ([]int, error) {
	var result []int
	for _, item := range splitList(input) {
		n, err := strconv.Atoi(item)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidInput, "parse "+strconv.Quote(item))
		}
		if n <= 0 {
			return nil, errors.Newf(errors.CodeInvalidInput, "%d is not positive", n)
		}
		result = append(result, n*multiplier)
	}
	if len(result) == 0 {
		return nil, errors.New(errors.CodeInvalidInput, "empty list")
	}
	return result, nil
}

// writeReports writes the HTML report, plus Markdown and JSON when outDir is
// set, and returns the HTML path.
func writeReports(results output.Results, commandLine, outDir, htmlOut string) (string, error) {
	var htmlPath, mdPath, jsonPath string
	switch {
	case outDir != "":
		if err := os.MkdirAll(outDir, 0o755); err != nil { //nolint:gosec // report directory
			return "", fmt.Errorf("create output directory: %w", err)
		}
		htmlPath = filepath.Join(outDir, "evictcache_results.html")
		mdPath = filepath.Join(outDir, "evictcache_results.md")
		jsonPath = filepath.Join(outDir, "evictcache_results.json")
	case htmlOut != "":
		htmlPath = htmlOut
	default:
		htmlPath = filepath.Join(os.TempDir(), "evictcache_results.html")
	}

	if err := output.WriteHTML(htmlPath, results, commandLine); err != nil {
		return "", err
	}
	fmt.Printf("Results: %s\n", htmlPath)

	if mdPath != "" {
		if err := output.WriteMarkdown(mdPath, results, commandLine); err != nil {
			return "", err
		}
		fmt.Printf("         %s\n", mdPath)
	}
	if jsonPath != "" {
		if err := output.WriteJSON(jsonPath, results, commandLine); err != nil {
			return "", err
		}
		fmt.Printf("         %s\n", jsonPath)
	}
	return htmlPath, nil
}

func printUsage() {
	fmt.Println("evictcache - Compare eviction policies and Go cache implementations")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  evictcache                          Run all suites (default)")
	fmt.Println("  evictcache -suites hitrate          Run only hit rate benchmarks")
	fmt.Println("  evictcache -suites registry -config caches.yaml")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Suites:")
	fmt.Println("  hitrate     Zipf, scan and trace replay at each cache size")
	fmt.Println("  latency     Single-threaded Get/Set/Delete latency (ns/op)")
	fmt.Println("  throughput  Multi-threaded QPS for several operation mixes")
	fmt.Println("  memory      Per-item memory overhead (isolated processes)")
	fmt.Println("  registry    Named engine caches from -config, with their statistics")
	fmt.Println()
	fmt.Println("Available caches:")
	for _, name := range cache.Names() {
		fmt.Printf("  - %s\n", name)
	}
}

// openBrowser opens the specified path in the default web browser.
func openBrowser(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path) //nolint:noctx // fire-and-forget
	case "linux":
		cmd = exec.Command("xdg-open", path) //nolint:noctx // fire-and-forget
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", path) //nolint:noctx // fire-and-forget
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return cmd.Start()
}
