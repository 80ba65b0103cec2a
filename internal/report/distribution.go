package report

import (
	"math"
	"sort"

	"github.com/bondlab/bondspread/internal/microstructure"
)

// Describe holds the descriptive statistics of the weekly spread
// distribution, mirroring the usual count/mean/std/quartile summary.
type Describe struct {
	Count int
	Mean  float64
	Std   float64
	Min   float64
	P25   float64
	P50   float64
	P75   float64
	Max   float64
}

// HistogramBin is one fixed-width bin of the spread distribution.
type HistogramBin struct {
	Low   float64
	High  float64
	Count int
}

// DefaultHistogramBins matches the reference plot's resolution.
const DefaultHistogramBins = 300

// SpreadValues extracts the weekly average spreads.
func SpreadValues(weekly []microstructure.WeeklySpread) []float64 {
	out := make([]float64, len(weekly))
	for i, w := range weekly {
		out[i] = w.AvgSpreadBps
	}
	return out
}

// DescribeValues computes the summary statistics. Empty input yields a
// zero Count with NaN moments.
func DescribeValues(values []float64) Describe {
	d := Describe{Count: len(values)}
	if len(values) == 0 {
		d.Mean, d.Std, d.Min, d.P25, d.P50, d.P75, d.Max =
			math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN()
		return d
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	d.Mean = sum / float64(len(sorted))

	if len(sorted) > 1 {
		ss := 0.0
		for _, v := range sorted {
			ss += (v - d.Mean) * (v - d.Mean)
		}
		d.Std = math.Sqrt(ss / float64(len(sorted)-1))
	} else {
		d.Std = math.NaN()
	}

	d.Min = sorted[0]
	d.Max = sorted[len(sorted)-1]
	d.P25 = quantile(sorted, 0.25)
	d.P50 = quantile(sorted, 0.50)
	d.P75 = quantile(sorted, 0.75)
	return d
}

// Histogram buckets values into n fixed-width bins over [min, max]. The
// top edge is inclusive so the maximum lands in the last bin.
func Histogram(values []float64, n int) []HistogramBin {
	if len(values) == 0 || n <= 0 {
		return nil
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo == hi {
		return []HistogramBin{{Low: lo, High: hi, Count: len(values)}}
	}

	width := (hi - lo) / float64(n)
	bins := make([]HistogramBin, n)
	for i := range bins {
		bins[i].Low = lo + float64(i)*width
		bins[i].High = lo + float64(i+1)*width
	}
	bins[n-1].High = hi
	for _, v := range values {
		idx := int((v - lo) / width)
		if idx >= n {
			idx = n - 1
		}
		bins[idx].Count++
	}
	return bins
}

// WeeksAtMinimum counts weekly rows whose spread equals the distribution
// minimum, a diagnostic for weeks pinned at zero effective spread. The
// share is of all weekly rows.
func WeeksAtMinimum(weekly []microstructure.WeeklySpread) (int, float64) {
	if len(weekly) == 0 {
		return 0, 0
	}
	min := weekly[0].AvgSpreadBps
	for _, w := range weekly[1:] {
		if w.AvgSpreadBps < min {
			min = w.AvgSpreadBps
		}
	}
	count := 0
	for _, w := range weekly {
		if w.AvgSpreadBps == min {
			count++
		}
	}
	return count, float64(count) / float64(len(weekly))
}

// quantile interpolates linearly between order statistics; sorted must be
// ascending and non-empty.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
