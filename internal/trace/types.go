package trace

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Report side codes as they appear in trace_enhanced.
const (
	SideBuy  = "B"
	SideSell = "S"
)

// Report status codes. StatusTrade marks a normal report; everything in
// errorStatuses is a cancel/withdraw/reversal/correction variant.
const (
	StatusTrade      = "T"
	StatusCancel     = "C"
	StatusWithdraw   = "W"
	StatusReversal   = "R"
	StatusCorrection = "X"
	StatusCorrected  = "Y"
)

// CapacityAgency is the agency trading-capacity code; only principal
// capacity trades survive cleaning.
const CapacityAgency = "A"

// TradeRecord is one reported trade event from the trade-report table.
// Records are immutable once extracted; cleaning produces new slices.
type TradeRecord struct {
	CUSIP         string
	ExecDate      time.Time     // UTC midnight of the execution date
	ExecTime      time.Duration // offset from midnight
	SeqNum        int64         // message sequence number, same-timestamp tie-breaker
	Price         float64
	Volume        float64 // NaN marks an unparseable volume
	Side          string
	BuyCapacity   string // empty when the report carried no buy-side capacity
	SellCapacity  string
	Capacity      string // collapsed first-non-empty(buy, sell), set by cleaning
	Status        string
	AsOf          string
	SaleCondition string
	SubProduct    string
	Contra        string // counterparty market-participant identifier
}

// Timestamp combines the execution date and time.
func (t TradeRecord) Timestamp() time.Time {
	return t.ExecDate.Add(t.ExecTime)
}

// Calendar is the set of valid trading dates, keyed by UTC-midnight unix
// seconds.
type Calendar map[int64]struct{}

// Add marks a date as a trading day.
func (c Calendar) Add(day time.Time) {
	c[dayKey(day)] = struct{}{}
}

// Contains reports whether the given execution date is a trading day.
func (c Calendar) Contains(day time.Time) bool {
	_, ok := c[dayKey(day)]
	return ok
}

func dayKey(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix()
}

// SortTrades orders records by (cusip, date, time, sequence number)
// ascending. Every windowed pass downstream depends on this ordering.
func SortTrades(records []TradeRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.CUSIP != b.CUSIP {
			return a.CUSIP < b.CUSIP
		}
		if !a.ExecDate.Equal(b.ExecDate) {
			return a.ExecDate.Before(b.ExecDate)
		}
		if a.ExecTime != b.ExecTime {
			return a.ExecTime < b.ExecTime
		}
		return a.SeqNum < b.SeqNum
	})
}

// ParseClock parses an HH:MM:SS wall-clock string into an offset from
// midnight. Fractional seconds are truncated.
func ParseClock(s string) (time.Duration, error) {
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", s, err)
	}
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second, nil
}

// FormatClock renders an offset from midnight as HH:MM:SS.
func FormatClock(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
