package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/bondlab/bondspread/internal/artifacts"
	"github.com/bondlab/bondspread/internal/cache"
	"github.com/bondlab/bondspread/internal/config"
	stagelog "github.com/bondlab/bondspread/internal/log"
	"github.com/bondlab/bondspread/internal/metrics"
	"github.com/bondlab/bondspread/internal/persistence"
	"github.com/bondlab/bondspread/internal/universe"
)

// Pipeline runs the three batch stages in order: universe selection,
// trade extraction/cleaning, spread aggregation. Stages fully materialize
// their output before the next starts; the warehouse handle and optional
// cache are injected, never global.
type Pipeline struct {
	cfg     *config.Config
	repos   *persistence.Repository
	cache   *cache.UniverseCache // nil when disabled
	metrics *metrics.RunMetrics
	limiter *rate.Limiter
	runID   string
}

// New assembles a pipeline for one run.
func New(cfg *config.Config, repos *persistence.Repository, uc *cache.UniverseCache) *Pipeline {
	runID := uuid.NewString()
	qps := cfg.Extract.QueriesPerSec
	if qps <= 0 {
		qps = 1
	}
	return &Pipeline{
		cfg:     cfg,
		repos:   repos,
		cache:   uc,
		metrics: metrics.New(runID),
		limiter: rate.NewLimiter(rate.Limit(qps), 1),
		runID:   runID,
	}
}

// RunID identifies this run in logs, metrics and artifacts.
func (p *Pipeline) RunID() string {
	return p.runID
}

// Metrics exposes the run metrics, mainly for tests.
func (p *Pipeline) Metrics() *metrics.RunMetrics {
	return p.metrics
}

// Run executes the full pipeline. An empty universe degrades to empty
// artifacts rather than an error; warehouse failures abort the run.
func (p *Pipeline) Run(ctx context.Context) error {
	log.Info().
		Str("run_id", p.runID).
		Str("start", p.cfg.Run.StartDate).
		Str("end", p.cfg.Run.EndDate).
		Int("num_bonds", p.cfg.Run.NumBonds).
		Msg("pipeline run starting")

	cusips, err := p.SelectUniverse(ctx)
	if err != nil {
		return err
	}

	clean, err := p.Extract(ctx, cusips)
	if err != nil {
		return err
	}

	if err := p.Spreads(clean); err != nil {
		return err
	}

	if path := p.cfg.OutputPath(p.cfg.Output.MetricsFile); path != "" {
		if err := p.metrics.WriteTextfile(path); err != nil {
			return err
		}
	}

	log.Info().Str("run_id", p.runID).Msg("pipeline run complete")
	return nil
}

// SelectUniverse picks the top-N most liquid CUSIPs for the run window,
// consulting the cache first when one is configured, and writes the
// universe artifact.
func (p *Pipeline) SelectUniverse(ctx context.Context) ([]string, error) {
	stage := stagelog.StartStage("universe")
	start, end := p.cfg.Dates()
	n := p.cfg.Run.NumBonds

	if p.cache != nil {
		cusips, hit, err := p.cache.Get(ctx, start, end, n)
		if err != nil {
			log.Warn().Err(err).Msg("universe cache read failed, falling back to warehouse")
		} else if hit {
			log.Info().Int("bonds", len(cusips)).Msg("universe served from cache")
			p.finishUniverse(stage, cusips)
			return cusips, nil
		}
	}

	rows, err := p.repos.BondReturns.MonthlyLiquidity(ctx, start, end)
	if err != nil {
		stage.Fail(err)
		return nil, fmt.Errorf("select universe: %w", err)
	}

	cusips := universe.Select(rows, p.cfg.Criteria(), n)
	if len(cusips) < n {
		log.Warn().
			Int("qualified", len(cusips)).
			Int("requested", n).
			Msg("fewer bonds qualified than requested")
	}

	if p.cache != nil {
		if err := p.cache.Put(ctx, start, end, n, cusips); err != nil {
			log.Warn().Err(err).Msg("universe cache write failed")
		}
	}

	if err := p.writeUniverse(cusips); err != nil {
		stage.Fail(err)
		return nil, err
	}
	p.finishUniverse(stage, cusips)
	return cusips, nil
}

func (p *Pipeline) finishUniverse(stage *stagelog.Stage, cusips []string) {
	p.metrics.UniverseBonds.Set(float64(len(cusips)))
	elapsed := stage.Done(len(cusips))
	p.metrics.StageSeconds.WithLabelValues("universe").Set(elapsed.Seconds())
}

func (p *Pipeline) writeUniverse(cusips []string) error {
	path := p.cfg.OutputPath(p.cfg.Output.UniverseCSV)
	if path == "" {
		return nil
	}
	if err := artifacts.WriteUniverse(path, cusips); err != nil {
		return fmt.Errorf("write universe artifact: %w", err)
	}
	return nil
}
