package application

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/bondlab/bondspread/internal/artifacts"
	stagelog "github.com/bondlab/bondspread/internal/log"
	"github.com/bondlab/bondspread/internal/metrics"
	"github.com/bondlab/bondspread/internal/microstructure"
	"github.com/bondlab/bondspread/internal/report"
	"github.com/bondlab/bondspread/internal/trace"
)

// Spreads removes riskless-principal legs, matches opposite-side pairs,
// aggregates daily and weekly spreads, and writes the spread artifacts
// plus the distribution summary. Empty input degrades to empty outputs.
func (p *Pipeline) Spreads(clean []trace.TradeRecord) error {
	stage := stagelog.StartStage("spreads")

	survivors, flagged := microstructure.RemoveRPT(clean)
	if len(clean) > 0 {
		log.Info().
			Int("flagged", flagged).
			Float64("share", float64(flagged)/float64(len(clean))).
			Msg("riskless-principal legs removed")
	}
	p.metrics.RPTFlagged.Add(float64(flagged))
	p.metrics.TradesRemoved.WithLabelValues(metrics.ReasonRPT).Add(float64(flagged))

	signed := microstructure.AssignSigns(survivors)
	pairs := microstructure.MatchPairs(signed, microstructure.DefaultPairWindow)
	if len(survivors) > 0 {
		log.Info().
			Int("pairs", len(pairs)).
			Float64("share", float64(len(pairs))/float64(len(survivors))).
			Msg("opposite-side pairs matched")
	}
	p.metrics.PairsMatched.Add(float64(len(pairs)))

	daily := microstructure.AggregateDaily(pairs)
	p.metrics.DailyRows.Set(float64(len(daily)))
	if err := p.writeDaily(daily); err != nil {
		stage.Fail(err)
		return err
	}

	weekly := microstructure.AggregateWeekly(daily, pairs)
	p.metrics.WeeklyRows.Set(float64(len(weekly)))
	if err := p.writeWeekly(weekly); err != nil {
		stage.Fail(err)
		return err
	}

	if err := p.writeDistribution(weekly); err != nil {
		stage.Fail(err)
		return err
	}

	elapsed := stage.Done(len(weekly))
	p.metrics.StageSeconds.WithLabelValues("spreads").Set(elapsed.Seconds())
	return nil
}

func (p *Pipeline) writeDaily(daily []microstructure.DailySpread) error {
	path := p.cfg.OutputPath(p.cfg.Output.DailyCSV)
	if path == "" {
		return nil
	}
	if err := artifacts.WriteDailySpreads(path, daily); err != nil {
		return fmt.Errorf("write daily spreads artifact: %w", err)
	}
	return nil
}

func (p *Pipeline) writeWeekly(weekly []microstructure.WeeklySpread) error {
	path := p.cfg.OutputPath(p.cfg.Output.WeeklyCSV)
	if path == "" {
		return nil
	}
	if err := artifacts.WriteWeeklySpreads(path, weekly); err != nil {
		return fmt.Errorf("write weekly spreads artifact: %w", err)
	}
	return nil
}

// writeDistribution logs the describe summary and the weeks-at-minimum
// diagnostic, and exports the histogram bins and optional workbook.
func (p *Pipeline) writeDistribution(weekly []microstructure.WeeklySpread) error {
	values := report.SpreadValues(weekly)
	desc := report.DescribeValues(values)
	bins := report.Histogram(values, report.DefaultHistogramBins)

	if desc.Count > 0 {
		atMin, share := report.WeeksAtMinimum(weekly)
		log.Info().
			Int("count", desc.Count).
			Float64("mean", desc.Mean).
			Float64("std", desc.Std).
			Float64("min", desc.Min).
			Float64("p50", desc.P50).
			Float64("max", desc.Max).
			Int("weeks_at_min", atMin).
			Float64("weeks_at_min_share", share).
			Msg("weekly spread distribution")
	}

	if path := p.cfg.OutputPath(p.cfg.Output.HistogramCSV); path != "" {
		if err := report.WriteHistogramCSV(path, bins); err != nil {
			return err
		}
	}
	if path := p.cfg.OutputPath(p.cfg.Output.Workbook); path != "" {
		if err := report.WriteWorkbook(path, weekly, desc, bins); err != nil {
			return err
		}
	}
	return nil
}
