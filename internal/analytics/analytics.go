// Package analytics summarises recorded stage results: how long each stage
// takes, how often it fails, and which finding codes come up most.
package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"
)

// Sample is one recorded stage result.
type Sample struct {
	Stage      string
	Status     int
	Skipped    bool
	Fallback   bool
	Findings   map[string]int
	DurationMs int64
}

// Source loads recorded stage results for a project. An empty root means
// every project; a zero since means all time.
type Source interface {
	StageSamples(ctx context.Context, root string, since time.Time) ([]Sample, error)
}

// StageDuration holds duration stats for a stage.
type StageDuration struct {
	Stage string  `json:"stage"`
	Count int     `json:"count"`
	Avg   float64 `json:"avg_ms"`
	P50   float64 `json:"p50_ms"`
	P95   float64 `json:"p95_ms"`
}

// StageFailureRate holds how often a stage ended non-zero.
type StageFailureRate struct {
	Stage    string  `json:"stage"`
	Total    int     `json:"total"`
	Failed   float64 `json:"failed_pct"`
	Skipped  float64 `json:"skipped_pct"`
	Fallback float64 `json:"fallback_pct"`
}

// CodeCount is the total count of one finding code.
type CodeCount struct {
	Code  string `json:"code"`
	Count int    `json:"count"`
}

// Summary bundles every view over one set of samples.
type Summary struct {
	Samples   int                `json:"samples"`
	Durations []StageDuration    `json:"durations"`
	Failures  []StageFailureRate `json:"failures"`
	TopCodes  []CodeCount        `json:"top_codes"`
}

// Query loads samples from src and summarises them, keeping the topN most
// frequent finding codes.
func Query(ctx context.Context, src Source, root string, since time.Time, topN int) (*Summary, error) {
	samples, err := src.StageSamples(ctx, root, since)
	if err != nil {
		return nil, fmt.Errorf("load stage samples: %w", err)
	}
	return &Summary{
		Samples:   len(samples),
		Durations: StageDurations(samples),
		Failures:  FailureRates(samples),
		TopCodes:  TopCodes(samples, topN),
	}, nil
}

// StageDurations returns average and percentile durations per stage.
// Skipped stages did no work and are left out.
func StageDurations(samples []Sample) []StageDuration {
	byStage := make(map[string][]float64)
	for _, s := range samples {
		if s.Skipped {
			continue
		}
		byStage[s.Stage] = append(byStage[s.Stage], float64(s.DurationMs))
	}

	var results []StageDuration
	for stage, durations := range byStage {
		sort.Float64s(durations)
		results = append(results, StageDuration{
			Stage: stage,
			Count: len(durations),
			Avg:   avg(durations),
			P50:   percentile(durations, 50),
			P95:   percentile(durations, 95),
		})
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Stage < results[j].Stage
	})
	return results
}

// FailureRates returns per-stage failure, skip and fallback percentages.
// All percentages use the stage's total sample count as denominator.
func FailureRates(samples []Sample) []StageFailureRate {
	type counts struct {
		total, failed, skipped, fallback int
	}
	byStage := make(map[string]*counts)
	for _, s := range samples {
		c, ok := byStage[s.Stage]
		if !ok {
			c = &counts{}
			byStage[s.Stage] = c
		}
		c.total++
		switch {
		case s.Skipped:
			c.skipped++
		case s.Status != 0:
			c.failed++
		}
		if s.Fallback {
			c.fallback++
		}
	}

	var results []StageFailureRate
	for stage, c := range byStage {
		results = append(results, StageFailureRate{
			Stage:    stage,
			Total:    c.total,
			Failed:   pct(c.failed, c.total),
			Skipped:  pct(c.skipped, c.total),
			Fallback: pct(c.fallback, c.total),
		})
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Stage < results[j].Stage
	})
	return results
}

// TopCodes returns the n most frequent finding codes across all samples,
// most frequent first. Ties sort by code. n <= 0 returns every code.
func TopCodes(samples []Sample, n int) []CodeCount {
	totals := make(map[string]int)
	for _, s := range samples {
		for code, count := range s.Findings {
			totals[code] += count
		}
	}

	results := make([]CodeCount, 0, len(totals))
	for code, count := range totals {
		results = append(results, CodeCount{Code: code, Count: count})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Count != results[j].Count {
			return results[i].Count > results[j].Count
		}
		return results[i].Code < results[j].Code
	})
	if n > 0 && len(results) > n {
		results = results[:n]
	}
	return results
}

// --- helpers ---

func avg(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return math.Round(sum/float64(len(values))*10) / 10
}

func percentile(sorted []float64, p int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := float64(p) / 100.0 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper || upper >= len(sorted) {
		return math.Round(sorted[lower]*10) / 10
	}
	weight := rank - float64(lower)
	return math.Round((sorted[lower]*(1-weight)+sorted[upper]*weight)*10) / 10
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(n)/float64(total)*1000) / 10
}
