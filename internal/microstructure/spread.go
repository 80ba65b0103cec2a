package microstructure

import (
	"math"
	"sort"
	"time"
)

// MatchPairs compares every trade with its immediate same-bond predecessor
// under (cusip, timestamp, seq) order and emits a pair when the signs are
// exactly opposite and the gap lies in (0, window]. Matching is pure
// adjacency: a trade can close one pair with its predecessor and still be
// the predecessor of the next comparison.
func MatchPairs(trades []SignedTrade, window time.Duration) []SpreadPair {
	sorted := make([]SignedTrade, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.CUSIP != b.CUSIP {
			return a.CUSIP < b.CUSIP
		}
		ta, tb := a.Timestamp(), b.Timestamp()
		if !ta.Equal(tb) {
			return ta.Before(tb)
		}
		return a.SeqNum < b.SeqNum
	})

	var pairs []SpreadPair
	for i := 1; i < len(sorted); i++ {
		cur, prev := sorted[i], sorted[i-1]
		if cur.CUSIP != prev.CUSIP {
			continue
		}
		if int(cur.Sign)*int(prev.Sign) != -1 {
			continue
		}
		gap := cur.Timestamp().Sub(prev.Timestamp())
		if gap <= 0 || gap > window {
			continue
		}
		mid := (cur.Price + prev.Price) / 2
		pairs = append(pairs, SpreadPair{
			CUSIP:     cur.CUSIP,
			ExecDate:  cur.ExecDate,
			Timestamp: cur.Timestamp(),
			Midprice:  mid,
			SpreadBps: 10000 * math.Abs(cur.Price-prev.Price) / mid,
		})
	}
	return pairs
}

func midnightUnix(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix()
}
