package postgres

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/bondlab/bondspread/internal/persistence"
	"github.com/bondlab/bondspread/internal/universe"
)

// bondReturnsRepo implements BondReturnsRepo against the WRDS monthly
// bond-return table.
type bondReturnsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewBondReturnsRepo creates the monthly liquidity repository.
func NewBondReturnsRepo(db *sqlx.DB, timeout time.Duration) persistence.BondReturnsRepo {
	return &bondReturnsRepo{db: db, timeout: timeout}
}

func (r *bondReturnsRepo) MonthlyLiquidity(ctx context.Context, start, end time.Time) ([]universe.BondMonth, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT cusip, date, t_volume, gap, t_spread
		FROM wrdsapps_bondret.bondret
		WHERE date BETWEEN $1 AND $2`

	rows, err := r.db.QueryxContext(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("query monthly liquidity: %w", err)
	}
	defer rows.Close()

	var out []universe.BondMonth
	for rows.Next() {
		var row struct {
			CUSIP  string    `db:"cusip"`
			Month  time.Time `db:"date"`
			Volume *float64  `db:"t_volume"`
			Gap    *float64  `db:"gap"`
			Spread *float64  `db:"t_spread"`
		}
		if err := rows.StructScan(&row); err != nil {
			return nil, fmt.Errorf("scan monthly liquidity row: %w", err)
		}
		out = append(out, universe.BondMonth{
			CUSIP:  row.CUSIP,
			Month:  row.Month,
			Volume: deref(row.Volume),
			Gap:    deref(row.Gap),
			Spread: deref(row.Spread),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate monthly liquidity rows: %w", err)
	}
	return out, nil
}

func deref(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
