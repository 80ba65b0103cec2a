package trace

import (
	"time"
)

// reportKey is the full report identity: the 7-tuple the warehouse uses to
// link error reports to originals, plus the message sequence number.
type reportKey struct {
	cusip  string
	day    int64
	tm     time.Duration
	price  float64
	volume float64
	side   string
	contra string
	seq    int64
}

// matchKey drops time and sequence number; the fallback reversal pass
// matches on it when a reversal carries no usable sequence linkage.
type matchKey struct {
	cusip  string
	day    int64
	price  float64
	volume float64
	side   string
	contra string
}

func keyOf(r TradeRecord) reportKey {
	return reportKey{
		cusip:  r.CUSIP,
		day:    dayKey(r.ExecDate),
		tm:     r.ExecTime,
		price:  r.Price,
		volume: r.Volume,
		side:   r.Side,
		contra: r.Contra,
		seq:    r.SeqNum,
	}
}

func fallbackKeyOf(r TradeRecord) matchKey {
	return matchKey{
		cusip:  r.CUSIP,
		day:    dayKey(r.ExecDate),
		price:  r.Price,
		volume: r.Volume,
		side:   r.Side,
		contra: r.Contra,
	}
}

// IsErrorReport reports whether a record is a cancel/withdraw/reversal/
// correction report or an as-of same-day reversal.
func IsErrorReport(r TradeRecord) bool {
	switch r.Status {
	case StatusCancel, StatusWithdraw, StatusReversal, StatusCorrection, StatusCorrected:
		return true
	}
	return r.AsOf == "R"
}

// Filters holds the sequential trade filters applied after de-duplication.
type Filters struct {
	MarketOpen          time.Duration
	MarketClose         time.Duration
	MinPrice            float64
	SubProduct          string
	DisallowedSaleConds map[string]struct{}
}

// DefaultFilters returns the market-microstructure filter set used by the
// reference sample: 08:00-17:15 window, price floor 10, corporate bonds,
// sale conditions W/L/T/S/P excluded.
func DefaultFilters() Filters {
	return Filters{
		MarketOpen:  8 * time.Hour,
		MarketClose: 17*time.Hour + 15*time.Minute,
		MinPrice:    10,
		SubProduct:  "CORP",
		DisallowedSaleConds: map[string]struct{}{
			"W": {}, "L": {}, "T": {}, "S": {}, "P": {},
		},
	}
}

// CleanStats counts rows surviving each cleaning step, for run logging.
type CleanStats struct {
	Candidates      int
	ErrorReports    int
	StrictMatches   int
	FallbackMatches int
	AfterRemoval    int
	AfterHours      int
	AfterPrice      int
	AfterSubProduct int
	AfterSaleCond   int
	AfterD2C        int
	AfterCapacity   int
	AfterAgency     int
	AfterCalendar   int
}

// Candidates keeps reports with a positive price and positive volume.
// NaN volumes fail the comparison and drop out here, which is the intended
// missing-value behavior.
func Candidates(records []TradeRecord) []TradeRecord {
	out := make([]TradeRecord, 0, len(records))
	for _, r := range records {
		if r.Price > 0 && r.Volume > 0 {
			out = append(out, r)
		}
	}
	return out
}

// ErrorReports returns the subset of candidates classified as error
// reports.
func ErrorReports(records []TradeRecord) []TradeRecord {
	var out []TradeRecord
	for _, r := range records {
		if IsErrorReport(r) {
			out = append(out, r)
		}
	}
	return out
}

// StrictMatchKeys returns the keys of normal-status trades that share the
// full report key with some error report. These are originals the error
// reports refer to with exact sequence linkage.
func StrictMatchKeys(records, errorReports []TradeRecord) map[reportKey]struct{} {
	errKeys := make(map[reportKey]struct{}, len(errorReports))
	for _, e := range errorReports {
		errKeys[keyOf(e)] = struct{}{}
	}
	matched := make(map[reportKey]struct{})
	for _, r := range records {
		if r.Status != StatusTrade {
			continue
		}
		k := keyOf(r)
		if _, ok := errKeys[k]; ok {
			matched[k] = struct{}{}
		}
	}
	return matched
}

// FallbackMatchKeys handles reversals that carry no matching sequence
// number: for every reversal-status error report, the earliest normal
// trade sharing (cusip, date, price, volume, side, contra) is removed.
// Exactly one original is selected per group, tie-broken by ascending
// execution time then sequence number.
func FallbackMatchKeys(records, errorReports []TradeRecord) map[reportKey]struct{} {
	reversed := make(map[matchKey]struct{})
	for _, e := range errorReports {
		if e.Status == StatusReversal {
			reversed[fallbackKeyOf(e)] = struct{}{}
		}
	}
	if len(reversed) == 0 {
		return map[reportKey]struct{}{}
	}

	earliest := make(map[matchKey]TradeRecord)
	for _, r := range records {
		if r.Status != StatusTrade {
			continue
		}
		mk := fallbackKeyOf(r)
		if _, ok := reversed[mk]; !ok {
			continue
		}
		cur, ok := earliest[mk]
		if !ok || r.ExecTime < cur.ExecTime ||
			(r.ExecTime == cur.ExecTime && r.SeqNum < cur.SeqNum) {
			earliest[mk] = r
		}
	}

	matched := make(map[reportKey]struct{}, len(earliest))
	for _, r := range earliest {
		matched[keyOf(r)] = struct{}{}
	}
	return matched
}

// RemovalSet unions error-report keys with both matching passes.
func RemovalSet(records, errorReports []TradeRecord) map[reportKey]struct{} {
	removal := make(map[reportKey]struct{}, len(errorReports))
	for _, e := range errorReports {
		removal[keyOf(e)] = struct{}{}
	}
	for k := range StrictMatchKeys(records, errorReports) {
		removal[k] = struct{}{}
	}
	for k := range FallbackMatchKeys(records, errorReports) {
		removal[k] = struct{}{}
	}
	return removal
}

// Clean runs the full de-duplication and filter chain over raw trade
// reports and returns the surviving records sorted by (cusip, date, time,
// sequence number) with the capacity column collapsed.
func Clean(records []TradeRecord, cal Calendar, f Filters) ([]TradeRecord, CleanStats) {
	var stats CleanStats

	candidates := Candidates(records)
	stats.Candidates = len(candidates)

	errorReports := ErrorReports(candidates)
	stats.ErrorReports = len(errorReports)
	stats.StrictMatches = len(StrictMatchKeys(candidates, errorReports))
	stats.FallbackMatches = len(FallbackMatchKeys(candidates, errorReports))

	removal := RemovalSet(candidates, errorReports)
	clean := candidates[:0:0]
	for _, r := range candidates {
		if r.Status != StatusTrade {
			continue
		}
		if _, drop := removal[keyOf(r)]; drop {
			continue
		}
		clean = append(clean, r)
	}
	stats.AfterRemoval = len(clean)

	clean = filterInPlace(clean, func(r TradeRecord) bool {
		return r.ExecTime >= f.MarketOpen && r.ExecTime <= f.MarketClose
	})
	stats.AfterHours = len(clean)

	clean = filterInPlace(clean, func(r TradeRecord) bool {
		return r.Price >= f.MinPrice
	})
	stats.AfterPrice = len(clean)

	clean = filterInPlace(clean, func(r TradeRecord) bool {
		return r.SubProduct == f.SubProduct
	})
	stats.AfterSubProduct = len(clean)

	clean = filterInPlace(clean, func(r TradeRecord) bool {
		_, bad := f.DisallowedSaleConds[r.SaleCondition]
		return !bad
	})
	stats.AfterSaleCond = len(clean)

	// Dealer-to-customer reports carry at least one capacity code.
	clean = filterInPlace(clean, func(r TradeRecord) bool {
		return r.BuyCapacity != "" || r.SellCapacity != ""
	})
	stats.AfterD2C = len(clean)

	// Disagreeing buy/sell capacity reporting is unreliable.
	clean = filterInPlace(clean, func(r TradeRecord) bool {
		if r.BuyCapacity != "" && r.SellCapacity != "" {
			return r.BuyCapacity == r.SellCapacity
		}
		return true
	})
	stats.AfterCapacity = len(clean)

	clean = filterInPlace(clean, func(r TradeRecord) bool {
		return resolveCapacity(r) != CapacityAgency
	})
	stats.AfterAgency = len(clean)

	clean = filterInPlace(clean, func(r TradeRecord) bool {
		wd := r.ExecDate.Weekday()
		if wd == time.Saturday || wd == time.Sunday {
			return false
		}
		return cal.Contains(r.ExecDate)
	})
	stats.AfterCalendar = len(clean)

	for i := range clean {
		clean[i].Capacity = resolveCapacity(clean[i])
	}
	SortTrades(clean)
	return clean, stats
}

func resolveCapacity(r TradeRecord) string {
	if r.BuyCapacity != "" {
		return r.BuyCapacity
	}
	return r.SellCapacity
}

func filterInPlace(records []TradeRecord, keep func(TradeRecord) bool) []TradeRecord {
	out := records[:0]
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// SortedCopy returns a (cusip, date, time, seq)-sorted copy without
// touching the input.
func SortedCopy(records []TradeRecord) []TradeRecord {
	cp := make([]TradeRecord, len(records))
	copy(cp, records)
	SortTrades(cp)
	return cp
}
