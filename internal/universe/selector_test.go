package universe

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// months emits n consecutive monthly rows for one bond with constant
// volume, gap and spread.
func months(cusip string, n int, volume, gap, spread float64) []BondMonth {
	start := time.Date(2014, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]BondMonth, n)
	for i := range rows {
		rows[i] = BondMonth{
			CUSIP:  cusip,
			Month:  start.AddDate(0, i, 0),
			Volume: volume,
			Gap:    gap,
			Spread: spread,
		}
	}
	return rows
}

func TestMedian(t *testing.T) {
	assert.InDelta(t, 3, Median([]float64{1, 3, 5}), 1e-9)
	assert.InDelta(t, 2.5, Median([]float64{1, 2, 3, 4}), 1e-9)
	assert.InDelta(t, 7, Median([]float64{7}), 1e-9)
	assert.True(t, math.IsNaN(Median(nil)))
}

func TestQualifies(t *testing.T) {
	c := DefaultCriteria()
	base := BondStats{
		CUSIP:        "X1",
		ActiveMonths: 24,
		TotalMonths:  24,
		MedianVolume: 1_000_000,
		MedianGap:    3,
		SpreadMonths: 20,
	}
	assert.True(t, base.Qualifies(c))

	few := base
	few.ActiveMonths = 11
	assert.False(t, few.Qualifies(c))

	sparse := base
	sparse.MedianGap = 10.5
	assert.False(t, sparse.Qualifies(c))

	noGaps := base
	noGaps.MedianGap = math.NaN()
	assert.False(t, noGaps.Qualifies(c))

	noSpreads := base
	noSpreads.SpreadMonths = 5
	assert.False(t, noSpreads.Qualifies(c))

	zeroVolume := base
	zeroVolume.MedianVolume = 0
	assert.False(t, zeroVolume.Qualifies(c))
}

func TestStatsSkipsMissingObservations(t *testing.T) {
	rows := []BondMonth{
		{CUSIP: "X1", Volume: 100, Gap: 2, Spread: 1.5},
		{CUSIP: "X1", Volume: math.NaN(), Gap: math.NaN(), Spread: math.NaN()},
		{CUSIP: "X1", Volume: 300, Gap: 4, Spread: 2.0},
	}

	stats := Stats(rows)

	require.Len(t, stats, 1)
	s := stats[0]
	assert.Equal(t, 3, s.TotalMonths)
	assert.Equal(t, 2, s.ActiveMonths)
	assert.InDelta(t, 200, s.MedianVolume, 1e-9)
	assert.InDelta(t, 3, s.MedianGap, 1e-9)
	assert.Equal(t, 2, s.SpreadMonths)
}

func TestSelectExcludesInactiveDespiteVolume(t *testing.T) {
	// The highest-volume bond reports only 11 active months and must not
	// crowd out qualifying bonds.
	rows := months("HEAVY", 11, 10_000_000, 1, 2)
	rows = append(rows, months("STEADY1", 24, 500_000, 2, 2)...)
	rows = append(rows, months("STEADY2", 24, 800_000, 2, 2)...)

	got := Select(rows, DefaultCriteria(), 2)

	assert.Equal(t, []string{"STEADY2", "STEADY1"}, got)
}

func TestSelectFewerQualifiersThanRequested(t *testing.T) {
	rows := months("ONLY", 24, 500_000, 2, 2)
	got := Select(rows, DefaultCriteria(), 500)
	assert.Equal(t, []string{"ONLY"}, got)
}

func TestSelectTieBreaksByCUSIP(t *testing.T) {
	rows := months("BBB", 24, 500_000, 2, 2)
	rows = append(rows, months("AAA", 24, 500_000, 2, 2)...)

	got := Select(rows, DefaultCriteria(), 2)

	assert.Equal(t, []string{"AAA", "BBB"}, got)
}

func TestSelectRanksByMedianVolume(t *testing.T) {
	rows := months("LOW", 24, 100_000, 2, 2)
	rows = append(rows, months("HIGH", 24, 900_000, 2, 2)...)
	rows = append(rows, months("MID", 24, 400_000, 2, 2)...)

	got := Select(rows, DefaultCriteria(), 3)

	assert.Equal(t, []string{"HIGH", "MID", "LOW"}, got)
}
