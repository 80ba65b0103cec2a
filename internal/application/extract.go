package application

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/bondlab/bondspread/internal/artifacts"
	stagelog "github.com/bondlab/bondspread/internal/log"
	"github.com/bondlab/bondspread/internal/metrics"
	"github.com/bondlab/bondspread/internal/trace"
)

// Extract fetches trade reports for the universe in rate-limited CUSIP
// batches, runs the cleaning chain and writes the clean-trade artifact.
// An empty universe produces an empty clean table without touching the
// warehouse.
func (p *Pipeline) Extract(ctx context.Context, cusips []string) ([]trace.TradeRecord, error) {
	stage := stagelog.StartStage("extract")

	if len(cusips) == 0 {
		log.Warn().Msg("empty universe, skipping extraction")
		if err := p.writeCleanTrades(nil); err != nil {
			stage.Fail(err)
			return nil, err
		}
		stage.Done(0)
		return nil, nil
	}

	start, end := p.cfg.Dates()

	cal, err := p.repos.Calendar.TradingDays(ctx, start, end)
	if err != nil {
		stage.Fail(err)
		return nil, fmt.Errorf("load trading calendar: %w", err)
	}

	raw, err := p.fetchReports(ctx, cusips, stage)
	if err != nil {
		stage.Fail(err)
		return nil, err
	}
	p.metrics.TradesFetched.Add(float64(len(raw)))

	filters, err := p.cfg.TradeFilters()
	if err != nil {
		stage.Fail(err)
		return nil, err
	}

	clean, stats := trace.Clean(raw, cal, filters)
	logCleanStats(stats, len(clean))
	p.metrics.TradesRemoved.WithLabelValues(metrics.ReasonErrorReport).
		Add(float64(stats.Candidates - stats.AfterRemoval))
	p.metrics.TradesRemoved.WithLabelValues(metrics.ReasonFilter).
		Add(float64(stats.AfterRemoval - stats.AfterCalendar))

	if err := p.writeCleanTrades(clean); err != nil {
		stage.Fail(err)
		return nil, err
	}

	elapsed := stage.Done(len(clean))
	p.metrics.StageSeconds.WithLabelValues("extract").Set(elapsed.Seconds())
	return clean, nil
}

// fetchReports issues one warehouse query per CUSIP batch, throttled by
// the run limiter. A single failed query aborts the stage; there is no
// retry.
func (p *Pipeline) fetchReports(ctx context.Context, cusips []string, stage *stagelog.Stage) ([]trace.TradeRecord, error) {
	batchSize := p.cfg.Extract.BatchSize
	rowCap := p.cfg.Extract.RowCap
	start, end := p.cfg.Dates()

	var all []trace.TradeRecord
	for offset := 0; offset < len(cusips); offset += batchSize {
		if rowCap > 0 && len(all) >= rowCap {
			log.Warn().Int("row_cap", rowCap).Msg("row cap reached, truncating extraction")
			break
		}

		if err := p.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		hi := offset + batchSize
		if hi > len(cusips) {
			hi = len(cusips)
		}

		limit := 0
		if rowCap > 0 {
			limit = rowCap - len(all)
		}
		batch, err := p.repos.TradeReports.Reports(ctx, start, end, cusips[offset:hi], limit)
		if err != nil {
			return nil, fmt.Errorf("fetch trade reports [%d:%d]: %w", offset, hi, err)
		}
		all = append(all, batch...)
		stage.Progress(hi, len(cusips))
	}
	return all, nil
}

func (p *Pipeline) writeCleanTrades(clean []trace.TradeRecord) error {
	path := p.cfg.OutputPath(p.cfg.Output.CleanCSV)
	if path == "" {
		return nil
	}
	if err := artifacts.WriteCleanTrades(path, clean); err != nil {
		return fmt.Errorf("write clean trades artifact: %w", err)
	}
	return nil
}

func logCleanStats(stats trace.CleanStats, final int) {
	log.Info().
		Int("candidates", stats.Candidates).
		Int("error_reports", stats.ErrorReports).
		Int("strict_matches", stats.StrictMatches).
		Int("fallback_matches", stats.FallbackMatches).
		Int("after_removal", stats.AfterRemoval).
		Int("after_hours", stats.AfterHours).
		Int("after_price", stats.AfterPrice).
		Int("after_subproduct", stats.AfterSubProduct).
		Int("after_sale_cond", stats.AfterSaleCond).
		Int("after_d2c", stats.AfterD2C).
		Int("after_capacity", stats.AfterCapacity).
		Int("after_agency", stats.AfterAgency).
		Int("after_calendar", stats.AfterCalendar).
		Int("clean", final).
		Msg("trade cleaning summary")
}
