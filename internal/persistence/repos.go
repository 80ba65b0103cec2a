package persistence

import (
	"context"
	"time"

	"github.com/bondlab/bondspread/internal/trace"
	"github.com/bondlab/bondspread/internal/universe"
)

// BondReturnsRepo reads the monthly bond-return/liquidity table.
type BondReturnsRepo interface {
	// MonthlyLiquidity returns one row per (cusip, month) in [start, end].
	MonthlyLiquidity(ctx context.Context, start, end time.Time) ([]universe.BondMonth, error)
}

// TradeReportsRepo reads the trade-report table.
type TradeReportsRepo interface {
	// Reports returns candidate trade reports for the given CUSIPs in
	// [start, end]: non-null price, positive volume, warehouse order
	// (cusip, date, time, seq). limit caps the result set; limit <= 0
	// means unbounded.
	Reports(ctx context.Context, start, end time.Time, cusips []string, limit int) ([]trace.TradeRecord, error)
}

// CalendarRepo reads the trading-calendar reference table.
type CalendarRepo interface {
	TradingDays(ctx context.Context, start, end time.Time) (trace.Calendar, error)
}

// Repository bundles the warehouse accessors a pipeline run needs.
type Repository struct {
	BondReturns  BondReturnsRepo
	TradeReports TradeReportsRepo
	Calendar     CalendarRepo
}
