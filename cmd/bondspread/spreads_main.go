package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/bondlab/bondspread/internal/application"
	"github.com/bondlab/bondspread/internal/artifacts"
)

// runSpreads aggregates spreads from a previously written clean-trade
// CSV. The stage never touches the warehouse.
func runSpreads(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	tradesPath, _ := cmd.Flags().GetString("trades")
	if tradesPath == "" {
		tradesPath = cfg.OutputPath(cfg.Output.CleanCSV)
	}
	clean, err := artifacts.ReadCleanTrades(tradesPath)
	if err != nil {
		return err
	}
	log.Info().Int("rows", len(clean)).Str("trades", tradesPath).Msg("clean trades loaded")

	pipeline := application.New(cfg, nil, nil)
	if err := pipeline.Spreads(clean); err != nil {
		return err
	}

	if path := cfg.OutputPath(cfg.Output.MetricsFile); path != "" {
		if err := pipeline.Metrics().WriteTextfile(path); err != nil {
			return err
		}
	}
	log.Info().
		Str("artifact", cfg.OutputPath(cfg.Output.WeeklyCSV)).
		Msg("weekly spreads written")
	return nil
}
