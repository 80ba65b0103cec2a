package microstructure

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkPair(cusip string, ts time.Time, bps float64) SpreadPair {
	return SpreadPair{
		CUSIP:     cusip,
		ExecDate:  time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC),
		Timestamp: ts,
		Midprice:  100,
		SpreadBps: bps,
	}
}

func TestAggregateDailyMeansPerBondDay(t *testing.T) {
	monday := time.Date(2015, 3, 2, 10, 0, 0, 0, time.UTC)
	pairs := []SpreadPair{
		mkPair("X1", monday, 40),
		mkPair("X1", monday.Add(2*time.Hour), 60),
		mkPair("X2", monday, 10),
		mkPair("X1", monday.AddDate(0, 0, 1), 30),
	}

	daily := AggregateDaily(pairs)

	require.Len(t, daily, 3)
	assert.Equal(t, "X1", daily[0].CUSIP)
	assert.InDelta(t, 50, daily[0].AvgSpreadBps, 1e-9)
	assert.Equal(t, "X2", daily[1].CUSIP)
	assert.InDelta(t, 10, daily[1].AvgSpreadBps, 1e-9)
	assert.Equal(t, time.Date(2015, 3, 3, 0, 0, 0, 0, time.UTC), daily[2].ExecDate)
	assert.InDelta(t, 30, daily[2].AvgSpreadBps, 1e-9)
}

func TestWeekStartNormalizesToMonday(t *testing.T) {
	tests := []struct {
		day  time.Time
		want time.Time
	}{
		{time.Date(2015, 3, 2, 0, 0, 0, 0, time.UTC), time.Date(2015, 3, 2, 0, 0, 0, 0, time.UTC)},  // Monday
		{time.Date(2015, 3, 4, 15, 30, 0, 0, time.UTC), time.Date(2015, 3, 2, 0, 0, 0, 0, time.UTC)}, // Wednesday
		{time.Date(2015, 3, 8, 0, 0, 0, 0, time.UTC), time.Date(2015, 3, 2, 0, 0, 0, 0, time.UTC)},  // Sunday
		{time.Date(2015, 3, 9, 0, 0, 0, 0, time.UTC), time.Date(2015, 3, 9, 0, 0, 0, 0, time.UTC)},  // next Monday
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, WeekStart(tc.day), tc.day.Format("2006-01-02"))
	}
}

func TestAggregateWeeklyMeansDailyMeans(t *testing.T) {
	// Weekly mean averages the daily means, not the raw pairs: a day with
	// many pairs weighs the same as a day with one.
	mon := time.Date(2015, 3, 2, 10, 0, 0, 0, time.UTC)
	tue := mon.AddDate(0, 0, 1)
	pairs := []SpreadPair{
		mkPair("X1", mon, 40),
		mkPair("X1", mon.Add(time.Hour), 60),
		mkPair("X1", tue, 10),
	}

	daily := AggregateDaily(pairs)
	weekly := AggregateWeekly(daily, pairs)

	require.Len(t, weekly, 1)
	w := weekly[0]
	assert.Equal(t, "X1", w.CUSIP)
	assert.Equal(t, time.Date(2015, 3, 2, 0, 0, 0, 0, time.UTC), w.WeekStart)
	assert.InDelta(t, 30, w.AvgSpreadBps, 1e-9) // mean(50, 10)
	assert.Equal(t, 3, w.PairCount)
}

func TestAggregateWeeklySplitsAcrossWeeks(t *testing.T) {
	fri := time.Date(2015, 3, 6, 10, 0, 0, 0, time.UTC)
	nextMon := time.Date(2015, 3, 9, 10, 0, 0, 0, time.UTC)
	pairs := []SpreadPair{
		mkPair("X1", fri, 20),
		mkPair("X1", nextMon, 40),
	}

	weekly := AggregateWeekly(AggregateDaily(pairs), pairs)

	require.Len(t, weekly, 2)
	assert.Equal(t, time.Date(2015, 3, 2, 0, 0, 0, 0, time.UTC), weekly[0].WeekStart)
	assert.Equal(t, 1, weekly[0].PairCount)
	assert.Equal(t, time.Date(2015, 3, 9, 0, 0, 0, 0, time.UTC), weekly[1].WeekStart)
	assert.Equal(t, 1, weekly[1].PairCount)
}

func TestAggregateWeeklySortedByWeekThenCUSIP(t *testing.T) {
	mon := time.Date(2015, 3, 2, 10, 0, 0, 0, time.UTC)
	pairs := []SpreadPair{
		mkPair("X2", mon, 20),
		mkPair("X1", mon, 40),
		mkPair("X1", mon.AddDate(0, 0, 7), 30),
	}

	weekly := AggregateWeekly(AggregateDaily(pairs), pairs)

	require.Len(t, weekly, 3)
	assert.Equal(t, "X1", weekly[0].CUSIP)
	assert.Equal(t, "X2", weekly[1].CUSIP)
	assert.True(t, weekly[1].WeekStart.Before(weekly[2].WeekStart))
}

func TestAggregateEmptyInputs(t *testing.T) {
	assert.Empty(t, AggregateDaily(nil))
	assert.Empty(t, AggregateWeekly(nil, nil))
}
