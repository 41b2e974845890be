package output

import (
	"math"
	"sort"

	"github.com/tstromberg/evictcache/internal/benchmark"
)

// Points awarded by placement: 1st=10, 2nd=7, 3rd=5, 4th=4, 5th=3, 6th=2, 7th=1.
var placementPoints = []float64{10, 7, 5, 4, 3, 2, 1}

const (
	categoryHitRate    = "Hit Rate"
	categoryLatency    = "Latency"
	categoryThroughput = "Throughput"
	categoryMemory     = "Memory"
)

// rankedEntry holds a name and score for tie detection.
type rankedEntry struct {
	name  string
	score float64
}

// Round3 rounds to 3 decimal places for tie detection.
func Round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

// WinnerEntry represents a ranked entry for winner display.
type WinnerEntry struct {
	Name  string
	Score float64
}

// FormatWinners returns winner names and the first runner-up for comparison.
// If multiple entries tie for first, all are returned as winners.
// Returns (winners, runnerUp) where runnerUp is nil if everyone ties or only one entry.
func FormatWinners(entries []WinnerEntry) (winners []string, runnerUp *WinnerEntry) {
	if len(entries) == 0 {
		return nil, nil
	}

	// Find all entries tied for first
	bestScore := Round3(entries[0].Score)
	for _, e := range entries {
		if Round3(e.Score) != bestScore {
			runnerUp = &WinnerEntry{Name: e.Name, Score: e.Score}
			break
		}
		winners = append(winners, e.Name)
	}

	return winners, runnerUp
}

// ComputeRankings calculates overall rankings from benchmark results.
//
//nolint:gocognit,revive // tie handling and per-category tables
func ComputeRankings(results Results) ([]Ranking, *MedalTable) {
	scores := make(map[string]float64)
	medals := make(map[string][3]int) // [gold, silver, bronze]

	categoryMedals := make(map[string]map[string][3]int)
	categoryBenchmarks := make(map[string][]BenchmarkMedal)

	award := func(category, name string, pos int) {
		m := medals[name]
		m[pos]++
		medals[name] = m

		if categoryMedals[category] == nil {
			categoryMedals[category] = make(map[string][3]int)
		}
		cm := categoryMedals[category][name]
		cm[pos]++
		categoryMedals[category][name] = cm
	}

	// assignPoints walks entries best first. Entries equal to three decimal
	// places share a placement, and the placements they occupy are skipped.
	assignPoints := func(category, benchName string, entries []rankedEntry) {
		if len(entries) == 0 {
			return
		}
		bm := BenchmarkMedal{Name: benchName}
		for pos, i := 0, 0; i < len(entries); {
			var tied []string
			base := Round3(entries[i].score)
			for ; i < len(entries) && Round3(entries[i].score) == base; i++ {
				tied = append(tied, entries[i].name)
			}

			for _, n := range tied {
				if pos < len(placementPoints) {
					scores[n] += placementPoints[pos]
				}
				if pos < 3 {
					award(category, n, pos)
				}
			}

			switch pos {
			case 0:
				bm.Gold = tied
			case 1:
				bm.Silver = tied
			case 2:
				bm.Bronze = tied
			}
			pos += len(tied)
		}
		categoryBenchmarks[category] = append(categoryBenchmarks[category], bm)
	}

	// Hit rate: average across sizes, higher is better.
	if results.HitRate != nil {
		sizes := results.HitRate.Sizes
		for _, w := range results.HitRate.Workloads {
			entries := rankBy(w.Results, true, func(r benchmark.HitRateResult) (string, float64) {
				return r.Name, AvgHitRate(r, sizes)
			})
			assignPoints(categoryHitRate, w.Name, entries)
		}
	}

	// Latency: mean of Get and Set, lower is better.
	if results.Latency != nil {
		latency := func(r benchmark.LatencyResult) (string, float64) { return r.Name, r.AvgNsOp() }
		assignPoints(categoryLatency, "String Keys", rankBy(results.Latency.Results, false, latency))
		assignPoints(categoryLatency, "Int Keys", rankBy(results.Latency.IntResults, false, latency))
	}

	// Throughput: average across thread counts, higher is better.
	if results.Throughput != nil {
		qps := func(r benchmark.ThroughputResult) (string, float64) { return r.Name, avgQPS(r) }
		for _, m := range results.Throughput.Modes {
			assignPoints(categoryThroughput, m.Name, rankBy(m.Results, true, qps))
			assignPoints(categoryThroughput, m.Name+" (int)", rankBy(m.IntResults, true, qps))
		}
	}

	// Memory: total bytes, lower is better.
	if results.Memory != nil {
		entries := rankBy(results.Memory.Results, false, func(r benchmark.MemoryResult) (string, float64) {
			return r.Name, float64(r.Bytes)
		})
		assignPoints(categoryMemory, "Overhead", entries)
	}

	if len(scores) == 0 {
		return nil, nil
	}

	// Sort caches by score, then by medals as tiebreaker
	type cacheRank struct {
		name   string
		score  float64
		gold   int
		silver int
		bronze int
	}
	var ranks []cacheRank
	for name, score := range scores {
		m := medals[name]
		ranks = append(ranks, cacheRank{name, score, m[0], m[1], m[2]})
	}
	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].score != ranks[j].score {
			return ranks[i].score > ranks[j].score
		}
		if ranks[i].gold != ranks[j].gold {
			return ranks[i].gold > ranks[j].gold
		}
		if ranks[i].silver != ranks[j].silver {
			return ranks[i].silver > ranks[j].silver
		}
		return ranks[i].bronze > ranks[j].bronze
	})

	var result []Ranking
	for i, r := range ranks {
		result = append(result, Ranking{
			Rank:   i + 1,
			Name:   r.name,
			Score:  r.score,
			Gold:   r.gold,
			Silver: r.silver,
			Bronze: r.bronze,
		})
	}

	// Build category medal table
	catOrder := []string{categoryHitRate, categoryLatency, categoryThroughput, categoryMemory}
	var categories []CategoryMedals
	for _, cat := range catOrder {
		bm := categoryBenchmarks[cat]
		if len(bm) == 0 {
			continue
		}

		cm := categoryMedals[cat]
		catRanks := make([]cacheRank, 0, len(cm))
		for name, m := range cm {
			catRanks = append(catRanks, cacheRank{
				name:   name,
				gold:   m[0],
				silver: m[1],
				bronze: m[2],
			})
		}
		sort.Slice(catRanks, func(i, j int) bool {
			if catRanks[i].gold != catRanks[j].gold {
				return catRanks[i].gold > catRanks[j].gold
			}
			if catRanks[i].silver != catRanks[j].silver {
				return catRanks[i].silver > catRanks[j].silver
			}
			return catRanks[i].bronze > catRanks[j].bronze
		})

		out := make([]Ranking, len(catRanks))
		for i, r := range catRanks {
			out[i] = Ranking{
				Rank:   i + 1,
				Name:   r.name,
				Gold:   r.gold,
				Silver: r.silver,
				Bronze: r.bronze,
			}
		}

		categories = append(categories, CategoryMedals{
			Name:       cat,
			Benchmarks: bm,
			Rankings:   out,
		})
	}

	return result, &MedalTable{Categories: categories}
}

// AvgHitRate computes the average hit rate across all cache sizes.
func AvgHitRate(r benchmark.HitRateResult, sizes []int) float64 {
	if len(sizes) == 0 {
		return 0
	}
	var sum float64
	for _, size := range sizes {
		sum += r.Rates[size]
	}
	return sum / float64(len(sizes))
}

// rankBy scores every result and orders the entries best first.
func rankBy[T any](data []T, higherIsBetter bool, score func(T) (string, float64)) []rankedEntry {
	entries := make([]rankedEntry, len(data))
	for i, r := range data {
		name, s := score(r)
		entries[i] = rankedEntry{name: name, score: s}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if higherIsBetter {
			return entries[i].score > entries[j].score
		}
		return entries[i].score < entries[j].score
	})
	return entries
}

func avgQPS(r benchmark.ThroughputResult) float64 {
	if len(r.QPS) == 0 {
		return 0
	}
	var sum float64
	for _, qps := range r.QPS {
		sum += qps
	}
	return sum / float64(len(r.QPS))
}
