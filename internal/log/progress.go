package log

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Stage provides structured started/finished logging for one pipeline
// stage, replacing the reference scripts' banner prints.
type Stage struct {
	name   string
	start  time.Time
	logger zerolog.Logger
}

// StartStage logs the beginning of a stage and starts its timer.
func StartStage(name string) *Stage {
	s := &Stage{
		name:   name,
		start:  time.Now(),
		logger: log.With().Str("stage", name).Logger(),
	}
	s.logger.Info().Msg("stage started")
	return s
}

// Done logs completion with the row count the stage produced and returns
// the elapsed duration.
func (s *Stage) Done(rows int) time.Duration {
	elapsed := time.Since(s.start)
	s.logger.Info().
		Int("rows", rows).
		Dur("elapsed", elapsed).
		Msg("stage finished")
	return elapsed
}

// Progress logs an intermediate count, e.g. after each extraction batch.
func (s *Stage) Progress(done, total int) {
	s.logger.Debug().
		Int("done", done).
		Int("total", total).
		Msg("stage progress")
}

// Fail logs the stage error before it propagates.
func (s *Stage) Fail(err error) {
	s.logger.Error().
		Err(err).
		Dur("elapsed", time.Since(s.start)).
		Msg("stage failed")
}
