package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// RunMetrics collects per-run counters and exports them as a Prometheus
// textfile at the end of the run (textfile-collector pattern; a one-shot
// batch job has no listener to scrape).
type RunMetrics struct {
	registry *prometheus.Registry

	UniverseBonds prometheus.Gauge
	TradesFetched prometheus.Counter
	TradesRemoved *prometheus.CounterVec
	RPTFlagged    prometheus.Counter
	PairsMatched  prometheus.Counter
	DailyRows     prometheus.Gauge
	WeeklyRows    prometheus.Gauge
	StageSeconds  *prometheus.GaugeVec
}

// Removal reasons for the trades_removed counter.
const (
	ReasonErrorReport = "error_report"
	ReasonFilter      = "filter"
	ReasonRPT         = "rpt"
)

// New builds a registry with all run metrics, labeled by run id.
func New(runID string) *RunMetrics {
	constLabels := prometheus.Labels{"run_id": runID}
	m := &RunMetrics{
		registry: prometheus.NewRegistry(),
		UniverseBonds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "bondspread_universe_bonds",
			Help:        "Number of CUSIPs selected into the liquid universe.",
			ConstLabels: constLabels,
		}),
		TradesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "bondspread_trades_fetched_total",
			Help:        "Raw trade reports fetched from the warehouse.",
			ConstLabels: constLabels,
		}),
		TradesRemoved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "bondspread_trades_removed_total",
			Help:        "Trade reports removed during cleaning, by reason.",
			ConstLabels: constLabels,
		}, []string{"reason"}),
		RPTFlagged: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "bondspread_rpt_flagged_total",
			Help:        "Trades flagged as riskless-principal legs.",
			ConstLabels: constLabels,
		}),
		PairsMatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "bondspread_spread_pairs_total",
			Help:        "Valid opposite-side pairs matched within the window.",
			ConstLabels: constLabels,
		}),
		DailyRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "bondspread_daily_rows",
			Help:        "Rows in the daily spread table.",
			ConstLabels: constLabels,
		}),
		WeeklyRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "bondspread_weekly_rows",
			Help:        "Rows in the weekly spread table.",
			ConstLabels: constLabels,
		}),
		StageSeconds: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "bondspread_stage_duration_seconds",
			Help:        "Wall-clock duration of each pipeline stage.",
			ConstLabels: constLabels,
		}, []string{"stage"}),
	}

	m.registry.MustRegister(
		m.UniverseBonds, m.TradesFetched, m.TradesRemoved, m.RPTFlagged,
		m.PairsMatched, m.DailyRows, m.WeeklyRows, m.StageSeconds,
	)
	return m
}

// WriteTextfile dumps the registry in text exposition format.
func (m *RunMetrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Registry exposes the underlying registry for tests.
func (m *RunMetrics) Registry() *prometheus.Registry {
	return m.registry
}
