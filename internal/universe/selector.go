package universe

import (
	"math"
	"sort"
	"time"
)

// BondMonth is one row of the monthly bond-return/liquidity table. Missing
// warehouse values arrive as NaN and are excluded from the medians.
type BondMonth struct {
	CUSIP  string
	Month  time.Time
	Volume float64
	Gap    float64 // days between consecutive reports
	Spread float64 // credit spread, NaN when unavailable
}

// Criteria are the liquidity thresholds a bond must clear to enter the
// universe.
type Criteria struct {
	MinActiveMonths int
	MaxMedianGap    float64
	MinSpreadMonths int
}

// DefaultCriteria mirrors the reference screen: at least 12 active months,
// median reporting gap of at most 10 days, at least 6 months with a valid
// credit spread.
func DefaultCriteria() Criteria {
	return Criteria{
		MinActiveMonths: 12,
		MaxMedianGap:    10,
		MinSpreadMonths: 6,
	}
}

// BondStats are the per-cusip liquidity statistics the screen operates on.
type BondStats struct {
	CUSIP        string
	ActiveMonths int
	TotalMonths  int
	MedianVolume float64
	MedianGap    float64
	SpreadMonths int
}

// Qualifies applies the liquidity thresholds. A NaN median gap (no gap
// observations at all) fails the comparison and excludes the bond, which
// matches the warehouse's NULL semantics.
func (s BondStats) Qualifies(c Criteria) bool {
	return s.ActiveMonths >= c.MinActiveMonths &&
		s.MedianVolume > 0 &&
		s.MedianGap <= c.MaxMedianGap &&
		s.SpreadMonths >= c.MinSpreadMonths
}

// Stats folds monthly rows into per-cusip statistics, ordered by CUSIP.
func Stats(rows []BondMonth) []BondStats {
	volumes := make(map[string][]float64)
	gaps := make(map[string][]float64)
	actives := make(map[string]int)
	totals := make(map[string]int)
	spreads := make(map[string]int)
	for _, r := range rows {
		totals[r.CUSIP]++
		if r.Volume > 0 {
			actives[r.CUSIP]++
		}
		if !math.IsNaN(r.Volume) {
			volumes[r.CUSIP] = append(volumes[r.CUSIP], r.Volume)
		}
		if !math.IsNaN(r.Gap) {
			gaps[r.CUSIP] = append(gaps[r.CUSIP], r.Gap)
		}
		if !math.IsNaN(r.Spread) {
			spreads[r.CUSIP]++
		}
	}

	out := make([]BondStats, 0, len(totals))
	for cusip, total := range totals {
		out = append(out, BondStats{
			CUSIP:        cusip,
			ActiveMonths: actives[cusip],
			TotalMonths:  total,
			MedianVolume: Median(volumes[cusip]),
			MedianGap:    Median(gaps[cusip]),
			SpreadMonths: spreads[cusip],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CUSIP < out[j].CUSIP })
	return out
}

// Select returns up to n CUSIPs passing the screen, ranked by descending
// median volume with ascending CUSIP as the deterministic tie-break. Fewer
// than n qualifiers returns all of them, never padded.
func Select(rows []BondMonth, c Criteria, n int) []string {
	stats := Stats(rows)
	qualified := stats[:0]
	for _, s := range stats {
		if s.Qualifies(c) {
			qualified = append(qualified, s)
		}
	}
	sort.SliceStable(qualified, func(i, j int) bool {
		if qualified[i].MedianVolume != qualified[j].MedianVolume {
			return qualified[i].MedianVolume > qualified[j].MedianVolume
		}
		return qualified[i].CUSIP < qualified[j].CUSIP
	})
	if n > 0 && len(qualified) > n {
		qualified = qualified[:n]
	}
	cusips := make([]string, len(qualified))
	for i, s := range qualified {
		cusips[i] = s.CUSIP
	}
	return cusips
}

// Median computes the interpolated 50th percentile (PERCENTILE_CONT
// semantics): the mean of the two middle observations for even counts.
// Empty input yields NaN.
func Median(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
