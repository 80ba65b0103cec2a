package microstructure

import (
	"time"

	"github.com/bondlab/bondspread/internal/trace"
)

// SignedTrade is a clean trade annotated with a direction sign after
// riskless-principal legs are removed: sell +1, buy -1, anything else 0.
type SignedTrade struct {
	trace.TradeRecord
	Sign int8
}

// SpreadPair is two temporally adjacent opposite-signed trades of the same
// bond with a time gap in (0, 5] minutes. Date and Timestamp come from the
// later leg.
type SpreadPair struct {
	CUSIP     string
	ExecDate  time.Time
	Timestamp time.Time
	Midprice  float64
	SpreadBps float64
}

// DailySpread is the mean spread in basis points across one bond-day's
// pairs.
type DailySpread struct {
	CUSIP        string
	ExecDate     time.Time
	AvgSpreadBps float64
}

// WeeklySpread is the mean of a bond-week's daily spreads plus the number
// of valid pairs whose timestamp falls in that week.
type WeeklySpread struct {
	CUSIP        string
	WeekStart    time.Time
	AvgSpreadBps float64
	PairCount    int
}

// DefaultPairWindow is the maximum gap between the two legs of a spread
// pair.
const DefaultPairWindow = 5 * time.Minute
