package microstructure

import (
	"github.com/bondlab/bondspread/internal/trace"
)

// Riskless-principal detection. A dealer passing a trade through books two
// offsetting reports of the same size on the same bond-day; those legs
// must not enter the effective-spread sample.
//
// Trades are grouped by (cusip, date, volume) and scanned in the global
// (cusip, date, time, seq) order. A trade is flagged when the row directly
// before or after it in that order belongs to the same group, both sides
// are buy/sell, and the sides differ. A second pass then clears any flag
// whose predecessor row was also flagged within the same group, so a
// buy-sell-buy run loses only its leading leg. The second pass evaluates
// against a snapshot of the first pass's flags; sequential evaluation
// would unwind entire alternating runs. This interior-repeat suppression
// is a heuristic: for runs of four or more alternating legs it still
// removes only the first, which is pinned in tests as documented behavior
// rather than asserted as correct.

type groupKey struct {
	cusip  string
	day    int64
	volume float64
}

// FlagRPT returns the riskless-principal flags for a stream of clean
// trades. The input must already be sorted by (cusip, date, time, seq);
// RemoveRPT enforces that.
func FlagRPT(records []trace.TradeRecord) []bool {
	n := len(records)
	groups := make([]int, n)
	seen := make(map[groupKey]int, n)
	for i, r := range records {
		k := groupKey{cusip: r.CUSIP, day: midnightUnix(r.ExecDate), volume: r.Volume}
		id, ok := seen[k]
		if !ok {
			id = len(seen)
			seen[k] = id
		}
		groups[i] = id
	}

	flags := make([]bool, n)
	for i := range records {
		if !isBuySell(records[i].Side) {
			continue
		}
		if i+1 < n && groups[i] == groups[i+1] &&
			isBuySell(records[i+1].Side) && records[i].Side != records[i+1].Side {
			flags[i] = true
		}
		if i > 0 && groups[i] == groups[i-1] &&
			isBuySell(records[i-1].Side) && records[i].Side != records[i-1].Side {
			flags[i] = true
		}
	}

	snapshot := make([]bool, n)
	copy(snapshot, flags)
	for i := 1; i < n; i++ {
		if snapshot[i] && snapshot[i-1] && groups[i] == groups[i-1] {
			flags[i] = false
		}
	}
	return flags
}

// RemoveRPT drops flagged riskless-principal legs and returns the
// surviving trades in (cusip, date, time, seq) order along with the
// number of removed legs.
func RemoveRPT(records []trace.TradeRecord) ([]trace.TradeRecord, int) {
	sorted := trace.SortedCopy(records)
	flags := FlagRPT(sorted)

	out := make([]trace.TradeRecord, 0, len(sorted))
	flagged := 0
	for i, r := range sorted {
		if flags[i] {
			flagged++
			continue
		}
		out = append(out, r)
	}
	return out, flagged
}

// AssignSigns maps surviving trades to signed trades: sell +1, buy -1,
// anything else 0. Zero signs never form pairs.
func AssignSigns(records []trace.TradeRecord) []SignedTrade {
	out := make([]SignedTrade, len(records))
	for i, r := range records {
		out[i] = SignedTrade{TradeRecord: r, Sign: signOf(r.Side)}
	}
	return out
}

func signOf(side string) int8 {
	switch side {
	case trace.SideSell:
		return 1
	case trace.SideBuy:
		return -1
	default:
		return 0
	}
}

func isBuySell(side string) bool {
	return side == trace.SideBuy || side == trace.SideSell
}
