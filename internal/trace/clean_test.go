package trace

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkReport(cusip, day, clock string, seq int64, price, volume float64, side string) TradeRecord {
	d, err := time.Parse("2006-01-02", day)
	if err != nil {
		panic(err)
	}
	tm, err := ParseClock(clock)
	if err != nil {
		panic(err)
	}
	return TradeRecord{
		CUSIP:       cusip,
		ExecDate:    d,
		ExecTime:    tm,
		SeqNum:      seq,
		Price:       price,
		Volume:      volume,
		Side:        side,
		BuyCapacity: "P",
		Status:      StatusTrade,
		AsOf:        "A",
		SubProduct:  "CORP",
		Contra:      "D",
	}
}

func calendarFor(days ...string) Calendar {
	cal := Calendar{}
	for _, day := range days {
		d, err := time.Parse("2006-01-02", day)
		if err != nil {
			panic(err)
		}
		cal.Add(d)
	}
	return cal
}

func TestCandidates(t *testing.T) {
	records := []TradeRecord{
		mkReport("X1", "2015-03-02", "10:00:00", 1, 101.5, 50000, SideBuy),
		mkReport("X1", "2015-03-02", "10:01:00", 2, 0, 50000, SideBuy),
		mkReport("X1", "2015-03-02", "10:02:00", 3, 101.5, 0, SideBuy),
		mkReport("X1", "2015-03-02", "10:03:00", 4, 101.5, math.NaN(), SideBuy),
	}

	got := Candidates(records)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].SeqNum)
}

func TestIsErrorReport(t *testing.T) {
	base := mkReport("X1", "2015-03-02", "10:00:00", 1, 100, 1000, SideBuy)

	for _, status := range []string{StatusCancel, StatusWithdraw, StatusReversal, StatusCorrection, StatusCorrected} {
		r := base
		r.Status = status
		assert.True(t, IsErrorReport(r), "status %s", status)
	}

	asof := base
	asof.AsOf = "R"
	assert.True(t, IsErrorReport(asof))

	assert.False(t, IsErrorReport(base))
}

func TestStrictMatchRemovesOriginalAndErrorReport(t *testing.T) {
	original := mkReport("X1", "2015-03-02", "10:00:00", 100, 101.5, 50000, SideBuy)
	cancel := original
	cancel.Status = StatusCancel
	unrelated := mkReport("X1", "2015-03-02", "14:00:00", 200, 99.25, 25000, SideSell)

	cal := calendarFor("2015-03-02")
	clean, stats := Clean([]TradeRecord{original, cancel, unrelated}, cal, DefaultFilters())

	require.Len(t, clean, 1)
	assert.Equal(t, int64(200), clean[0].SeqNum)
	assert.Equal(t, 1, stats.ErrorReports)
	assert.Equal(t, 1, stats.StrictMatches)
	assert.Equal(t, 0, stats.FallbackMatches)
}

func TestStrictMatchRequiresExactSequence(t *testing.T) {
	// A cancel with a different sequence number and no reversal status
	// matches nothing; only the cancel itself is dropped.
	original := mkReport("X1", "2015-03-02", "10:00:00", 100, 101.5, 50000, SideBuy)
	cancel := original
	cancel.SeqNum = 999
	cancel.Status = StatusCancel

	cal := calendarFor("2015-03-02")
	clean, stats := Clean([]TradeRecord{original, cancel}, cal, DefaultFilters())

	require.Len(t, clean, 1)
	assert.Equal(t, int64(100), clean[0].SeqNum)
	assert.Equal(t, 0, stats.StrictMatches)
	assert.Equal(t, 0, stats.FallbackMatches)
}

func TestFallbackReversalRemovesEarliestMatch(t *testing.T) {
	// Reversal with an unmatched sequence number removes exactly one
	// original per (cusip, date, price, volume, side, contra) group, the
	// earliest by execution time then sequence number.
	later := mkReport("X1", "2015-03-02", "11:00:00", 1, 101.5, 50000, SideBuy)
	earlySeq5 := mkReport("X1", "2015-03-02", "09:00:00", 5, 101.5, 50000, SideBuy)
	earlySeq3 := mkReport("X1", "2015-03-02", "09:00:00", 3, 101.5, 50000, SideBuy)
	reversal := mkReport("X1", "2015-03-02", "15:30:00", 999, 101.5, 50000, SideBuy)
	reversal.Status = StatusReversal

	cal := calendarFor("2015-03-02")
	clean, stats := Clean([]TradeRecord{later, earlySeq5, earlySeq3, reversal}, cal, DefaultFilters())

	require.Len(t, clean, 2)
	assert.Equal(t, int64(5), clean[0].SeqNum)
	assert.Equal(t, int64(1), clean[1].SeqNum)
	assert.Equal(t, 1, stats.FallbackMatches)
}

func TestFallbackOnlyForReversalStatus(t *testing.T) {
	original := mkReport("X1", "2015-03-02", "09:00:00", 1, 101.5, 50000, SideBuy)
	cancel := mkReport("X1", "2015-03-02", "15:30:00", 999, 101.5, 50000, SideBuy)
	cancel.Status = StatusCancel

	cal := calendarFor("2015-03-02")
	clean, stats := Clean([]TradeRecord{original, cancel}, cal, DefaultFilters())

	require.Len(t, clean, 1)
	assert.Equal(t, int64(1), clean[0].SeqNum)
	assert.Equal(t, 0, stats.FallbackMatches)
}

func TestCleanNoSurvivorSharesErrorKey(t *testing.T) {
	records := []TradeRecord{
		mkReport("X1", "2015-03-02", "10:00:00", 1, 101.5, 50000, SideBuy),
		mkReport("X1", "2015-03-02", "10:00:00", 2, 101.5, 50000, SideSell),
		mkReport("X2", "2015-03-02", "11:00:00", 3, 99.0, 10000, SideBuy),
		mkReport("X2", "2015-03-02", "11:30:00", 4, 99.0, 10000, SideBuy),
	}
	cancel := records[0]
	cancel.Status = StatusCancel
	reversal := records[2]
	reversal.SeqNum = 500
	reversal.ExecTime, _ = ParseClock("16:00:00")
	reversal.Status = StatusReversal
	records = append(records, cancel, reversal)

	cal := calendarFor("2015-03-02")
	clean, _ := Clean(records, cal, DefaultFilters())

	errKeys := make(map[reportKey]struct{})
	for _, r := range ErrorReports(records) {
		errKeys[keyOf(r)] = struct{}{}
	}
	for _, r := range clean {
		_, shared := errKeys[keyOf(r)]
		assert.False(t, shared, "survivor seq %d shares an error-report key", r.SeqNum)
	}
}

func TestCleanHoursWindowInclusive(t *testing.T) {
	cal := calendarFor("2015-03-02")
	records := []TradeRecord{
		mkReport("X1", "2015-03-02", "07:59:59", 1, 100, 1000, SideBuy),
		mkReport("X1", "2015-03-02", "08:00:00", 2, 100, 1000, SideBuy),
		mkReport("X1", "2015-03-02", "17:15:00", 3, 100, 1000, SideBuy),
		mkReport("X1", "2015-03-02", "17:15:01", 4, 100, 1000, SideBuy),
	}

	clean, stats := Clean(records, cal, DefaultFilters())

	require.Len(t, clean, 2)
	assert.Equal(t, int64(2), clean[0].SeqNum)
	assert.Equal(t, int64(3), clean[1].SeqNum)
	assert.Equal(t, 4, stats.AfterRemoval)
	assert.Equal(t, 2, stats.AfterHours)
}

func TestCleanSequentialFilters(t *testing.T) {
	cal := calendarFor("2015-03-02")

	cheap := mkReport("X1", "2015-03-02", "10:00:00", 1, 9.99, 1000, SideBuy)
	floorPrice := mkReport("X1", "2015-03-02", "10:01:00", 2, 10, 1000, SideBuy)
	wrongProduct := mkReport("X1", "2015-03-02", "10:02:00", 3, 100, 1000, SideBuy)
	wrongProduct.SubProduct = "AGCY"
	whenIssued := mkReport("X1", "2015-03-02", "10:03:00", 4, 100, 1000, SideBuy)
	whenIssued.SaleCondition = "W"
	interdealer := mkReport("X1", "2015-03-02", "10:04:00", 5, 100, 1000, SideBuy)
	interdealer.BuyCapacity = ""
	disagree := mkReport("X1", "2015-03-02", "10:05:00", 6, 100, 1000, SideBuy)
	disagree.BuyCapacity = "P"
	disagree.SellCapacity = "A"
	agency := mkReport("X1", "2015-03-02", "10:06:00", 7, 100, 1000, SideBuy)
	agency.BuyCapacity = CapacityAgency

	clean, stats := Clean(
		[]TradeRecord{cheap, floorPrice, wrongProduct, whenIssued, interdealer, disagree, agency},
		cal, DefaultFilters())

	require.Len(t, clean, 1)
	assert.Equal(t, int64(2), clean[0].SeqNum)
	assert.Equal(t, 7, stats.AfterHours)
	assert.Equal(t, 6, stats.AfterPrice)
	assert.Equal(t, 5, stats.AfterSubProduct)
	assert.Equal(t, 4, stats.AfterSaleCond)
	assert.Equal(t, 3, stats.AfterD2C)
	assert.Equal(t, 2, stats.AfterCapacity)
	assert.Equal(t, 1, stats.AfterAgency)
}

func TestCleanCalendarAndWeekend(t *testing.T) {
	// 2015-03-02 is a Monday, 2015-03-07 a Saturday.
	cal := calendarFor("2015-03-02", "2015-03-07")
	records := []TradeRecord{
		mkReport("X1", "2015-03-02", "10:00:00", 1, 100, 1000, SideBuy),
		mkReport("X1", "2015-03-03", "10:00:00", 2, 100, 1000, SideBuy), // not in calendar
		mkReport("X1", "2015-03-07", "10:00:00", 3, 100, 1000, SideBuy), // Saturday, even if listed
	}

	clean, stats := Clean(records, cal, DefaultFilters())

	require.Len(t, clean, 1)
	assert.Equal(t, int64(1), clean[0].SeqNum)
	assert.Equal(t, 3, stats.AfterAgency)
	assert.Equal(t, 1, stats.AfterCalendar)
}

func TestCleanCollapsesCapacity(t *testing.T) {
	cal := calendarFor("2015-03-02")
	buyOnly := mkReport("X1", "2015-03-02", "10:00:00", 1, 100, 1000, SideBuy)
	sellOnly := mkReport("X1", "2015-03-02", "10:01:00", 2, 100, 2000, SideSell)
	sellOnly.BuyCapacity = ""
	sellOnly.SellCapacity = "P"

	clean, _ := Clean([]TradeRecord{buyOnly, sellOnly}, cal, DefaultFilters())

	require.Len(t, clean, 2)
	assert.Equal(t, "P", clean[0].Capacity)
	assert.Equal(t, "P", clean[1].Capacity)
}

func TestCleanSortsOutput(t *testing.T) {
	cal := calendarFor("2015-03-02", "2015-03-03")
	records := []TradeRecord{
		mkReport("X2", "2015-03-02", "10:00:00", 9, 100, 1000, SideBuy),
		mkReport("X1", "2015-03-03", "09:00:00", 2, 100, 1000, SideBuy),
		mkReport("X1", "2015-03-02", "15:00:00", 7, 100, 2000, SideSell),
		mkReport("X1", "2015-03-02", "15:00:00", 4, 100, 3000, SideSell),
	}

	clean, _ := Clean(records, cal, DefaultFilters())

	require.Len(t, clean, 4)
	assert.Equal(t, int64(4), clean[0].SeqNum)
	assert.Equal(t, int64(7), clean[1].SeqNum)
	assert.Equal(t, int64(2), clean[2].SeqNum)
	assert.Equal(t, "X2", clean[3].CUSIP)
}
