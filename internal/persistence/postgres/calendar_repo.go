package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/bondlab/bondspread/internal/persistence"
	"github.com/bondlab/bondspread/internal/trace"
)

// calendarRepo implements CalendarRepo against the daily stock-index
// table, whose date column doubles as the exchange trading calendar.
type calendarRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewCalendarRepo creates the trading-calendar repository.
func NewCalendarRepo(db *sqlx.DB, timeout time.Duration) persistence.CalendarRepo {
	return &calendarRepo{db: db, timeout: timeout}
}

func (r *calendarRepo) TradingDays(ctx context.Context, start, end time.Time) (trace.Calendar, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT DISTINCT date::date AS date
		FROM crsp.dsi
		WHERE date BETWEEN $1 AND $2`

	rows, err := r.db.QueryxContext(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("query trading days: %w", err)
	}
	defer rows.Close()

	cal := trace.Calendar{}
	for rows.Next() {
		var day time.Time
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("scan trading day: %w", err)
		}
		cal.Add(day)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trading days: %w", err)
	}
	return cal, nil
}
