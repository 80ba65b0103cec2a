package artifacts

import (
	"math"
	"strconv"
	"time"

	"github.com/bondlab/bondspread/internal/microstructure"
	"github.com/bondlab/bondspread/internal/trace"
)

const dateLayout = "2006-01-02"

// Clean-trade CSV columns, in warehouse naming. This order is the output
// contract; readers depend on it.
var cleanTradeHeader = []string{
	"cusip_id", "trd_exctn_dt", "trd_exctn_tm", "msg_seq_nb",
	"rptd_pr", "entrd_vol_qt", "rpt_side_cd", "capacity",
	"trc_st", "sale_cndtn_cd", "sub_prdct", "cntra_mp_id",
}

// WriteUniverse writes the selected CUSIPs, one per row.
func WriteUniverse(path string, cusips []string) error {
	rows := make([][]string, len(cusips))
	for i, c := range cusips {
		rows[i] = []string{c}
	}
	return writeCSVAtomic(path, []string{"cusip"}, rows)
}

// WriteCleanTrades writes the cleaned trade table.
func WriteCleanTrades(path string, records []trace.TradeRecord) error {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{
			r.CUSIP,
			r.ExecDate.Format(dateLayout),
			trace.FormatClock(r.ExecTime),
			strconv.FormatInt(r.SeqNum, 10),
			formatFloat(r.Price),
			formatFloat(r.Volume),
			r.Side,
			r.Capacity,
			r.Status,
			r.SaleCondition,
			r.SubProduct,
			r.Contra,
		}
	}
	return writeCSVAtomic(path, cleanTradeHeader, rows)
}

// WriteDailySpreads writes the daily spread table.
func WriteDailySpreads(path string, daily []microstructure.DailySpread) error {
	rows := make([][]string, len(daily))
	for i, d := range daily {
		rows[i] = []string{
			d.CUSIP,
			d.ExecDate.Format(dateLayout),
			formatFloat(d.AvgSpreadBps),
		}
	}
	return writeCSVAtomic(path, []string{"cusip_id", "trd_exctn_dt", "avg_spread_bps"}, rows)
}

// WriteWeeklySpreads writes the weekly spread table.
func WriteWeeklySpreads(path string, weekly []microstructure.WeeklySpread) error {
	rows := make([][]string, len(weekly))
	for i, w := range weekly {
		rows[i] = []string{
			w.CUSIP,
			w.WeekStart.Format(dateLayout),
			formatFloat(w.AvgSpreadBps),
			strconv.Itoa(w.PairCount),
		}
	}
	return writeCSVAtomic(path, []string{"cusip_id", "week_start", "weekly_avg_spread_bps", "n_pairs"}, rows)
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}
