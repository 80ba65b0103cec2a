package microstructure

import (
	"sort"
	"time"
)

type bondDay struct {
	cusip string
	day   int64
}

type bondWeek struct {
	cusip string
	week  int64
}

// AggregateDaily averages spread_bps per (cusip, date). Bond-days without
// pairs are simply absent; nothing is zero-filled at this level. Output is
// sorted by (date, cusip), the daily CSV contract.
func AggregateDaily(pairs []SpreadPair) []DailySpread {
	sums := make(map[bondDay]float64)
	counts := make(map[bondDay]int)
	dates := make(map[bondDay]time.Time)
	for _, p := range pairs {
		k := bondDay{cusip: p.CUSIP, day: midnightUnix(p.ExecDate)}
		sums[k] += p.SpreadBps
		counts[k]++
		if _, ok := dates[k]; !ok {
			dates[k] = midnight(p.ExecDate)
		}
	}

	out := make([]DailySpread, 0, len(sums))
	for k, sum := range sums {
		out = append(out, DailySpread{
			CUSIP:        k.cusip,
			ExecDate:     dates[k],
			AvgSpreadBps: sum / float64(counts[k]),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ExecDate.Equal(out[j].ExecDate) {
			return out[i].ExecDate.Before(out[j].ExecDate)
		}
		return out[i].CUSIP < out[j].CUSIP
	})
	return out
}

// WeekStart normalizes a date to the Monday of its week, at UTC midnight.
func WeekStart(t time.Time) time.Time {
	day := midnight(t)
	offset := (int(day.Weekday()) + 6) % 7 // Monday -> 0 ... Sunday -> 6
	return day.AddDate(0, 0, -offset)
}

// AggregateWeekly averages daily spreads per (cusip, week-start) and
// left-joins pair counts computed from the pair table itself, filling
// absent counts with zero. Output is sorted by (week_start, cusip), the
// weekly CSV contract.
func AggregateWeekly(daily []DailySpread, pairs []SpreadPair) []WeeklySpread {
	sums := make(map[bondWeek]float64)
	counts := make(map[bondWeek]int)
	weeks := make(map[bondWeek]time.Time)
	for _, d := range daily {
		ws := WeekStart(d.ExecDate)
		k := bondWeek{cusip: d.CUSIP, week: ws.Unix()}
		sums[k] += d.AvgSpreadBps
		counts[k]++
		weeks[k] = ws
	}

	pairCounts := make(map[bondWeek]int)
	for _, p := range pairs {
		ws := WeekStart(p.Timestamp)
		pairCounts[bondWeek{cusip: p.CUSIP, week: ws.Unix()}]++
	}

	out := make([]WeeklySpread, 0, len(sums))
	for k, sum := range sums {
		out = append(out, WeeklySpread{
			CUSIP:        k.cusip,
			WeekStart:    weeks[k],
			AvgSpreadBps: sum / float64(counts[k]),
			PairCount:    pairCounts[k],
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].WeekStart.Equal(out[j].WeekStart) {
			return out[i].WeekStart.Before(out[j].WeekStart)
		}
		return out[i].CUSIP < out[j].CUSIP
	})
	return out
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
