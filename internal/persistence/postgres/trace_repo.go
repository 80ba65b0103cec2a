package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/bondlab/bondspread/internal/persistence"
	"github.com/bondlab/bondspread/internal/trace"
)

// traceRepo implements TradeReportsRepo against the enhanced trade-report
// table.
type traceRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewTradeReportsRepo creates the trade-report repository.
func NewTradeReportsRepo(db *sqlx.DB, timeout time.Duration) persistence.TradeReportsRepo {
	return &traceRepo{db: db, timeout: timeout}
}

func (r *traceRepo) Reports(ctx context.Context, start, end time.Time, cusips []string, limit int) ([]trace.TradeRecord, error) {
	if len(cusips) == 0 {
		return nil, fmt.Errorf("empty cusip set")
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT cusip_id, trd_exctn_dt, trd_exctn_tm::text AS trd_exctn_tm,
		       msg_seq_nb::bigint AS msg_seq_nb, rptd_pr, entrd_vol_qt,
		       rpt_side_cd, buy_cpcty_cd, sell_cpcty_cd, trc_st, asof_cd,
		       sale_cndtn_cd, sub_prdct, cntra_mp_id
		FROM trace.trace_enhanced
		WHERE trd_exctn_dt BETWEEN $1 AND $2
		  AND cusip_id = ANY($3)
		  AND rptd_pr IS NOT NULL
		  AND entrd_vol_qt > 0
		ORDER BY cusip_id, trd_exctn_dt, trd_exctn_tm, msg_seq_nb`
	args := []interface{}{start, end, pq.Array(cusips)}
	if limit > 0 {
		query += "\n\t\tLIMIT $4"
		args = append(args, limit)
	}

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query trade reports: %w", err)
	}
	defer rows.Close()

	var out []trace.TradeRecord
	for rows.Next() {
		rec, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade report rows: %w", err)
	}
	return out, nil
}

func scanReport(rows *sqlx.Rows) (trace.TradeRecord, error) {
	var row struct {
		CUSIP    string          `db:"cusip_id"`
		ExecDate time.Time       `db:"trd_exctn_dt"`
		ExecTime string          `db:"trd_exctn_tm"`
		SeqNum   sql.NullInt64   `db:"msg_seq_nb"`
		Price    float64         `db:"rptd_pr"`
		Volume   sql.NullFloat64 `db:"entrd_vol_qt"`
		Side     sql.NullString  `db:"rpt_side_cd"`
		BuyCap   sql.NullString  `db:"buy_cpcty_cd"`
		SellCap  sql.NullString  `db:"sell_cpcty_cd"`
		Status   sql.NullString  `db:"trc_st"`
		AsOf     sql.NullString  `db:"asof_cd"`
		SaleCond sql.NullString  `db:"sale_cndtn_cd"`
		SubPrd   sql.NullString  `db:"sub_prdct"`
		Contra   sql.NullString  `db:"cntra_mp_id"`
	}
	if err := rows.StructScan(&row); err != nil {
		return trace.TradeRecord{}, fmt.Errorf("scan trade report row: %w", err)
	}

	tm, err := trace.ParseClock(row.ExecTime)
	if err != nil {
		return trace.TradeRecord{}, fmt.Errorf("trade report %s: %w", row.CUSIP, err)
	}

	volume := math.NaN()
	if row.Volume.Valid {
		volume = row.Volume.Float64
	}

	return trace.TradeRecord{
		CUSIP:         row.CUSIP,
		ExecDate:      midnightUTC(row.ExecDate),
		ExecTime:      tm,
		SeqNum:        row.SeqNum.Int64,
		Price:         row.Price,
		Volume:        volume,
		Side:          row.Side.String,
		BuyCapacity:   row.BuyCap.String,
		SellCapacity:  row.SellCap.String,
		Status:        row.Status.String,
		AsOf:          row.AsOf.String,
		SaleCondition: row.SaleCond.String,
		SubProduct:    row.SubPrd.String,
		Contra:        row.Contra.String,
	}, nil
}

func midnightUTC(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
