package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/bondlab/bondspread/internal/application"
	"github.com/bondlab/bondspread/internal/artifacts"
)

// runExtract fetches and cleans trade reports for a previously written
// universe CSV.
func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	universePath, _ := cmd.Flags().GetString("universe")
	if universePath == "" {
		universePath = cfg.OutputPath(cfg.Output.UniverseCSV)
	}
	cusips, err := artifacts.ReadUniverse(universePath)
	if err != nil {
		return err
	}
	log.Info().Int("bonds", len(cusips)).Str("universe", universePath).Msg("universe loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	manager, err := openWarehouse(cfg)
	if err != nil {
		return err
	}
	defer manager.Close()

	pipeline := application.New(cfg, manager.Repository(), nil)
	clean, err := pipeline.Extract(ctx, cusips)
	if err != nil {
		return err
	}
	log.Info().
		Int("rows", len(clean)).
		Str("artifact", cfg.OutputPath(cfg.Output.CleanCSV)).
		Msg("clean trades written")
	return nil
}
