package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/bondlab/bondspread/internal/application"
)

// runUniverse runs only the universe stage and writes the universe CSV
// for a later extract invocation.
func runUniverse(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	manager, err := openWarehouse(cfg)
	if err != nil {
		return err
	}
	defer manager.Close()

	uc := openCache(cfg)
	if uc != nil {
		defer uc.Close()
	}

	pipeline := application.New(cfg, manager.Repository(), uc)
	cusips, err := pipeline.SelectUniverse(ctx)
	if err != nil {
		return err
	}
	log.Info().
		Int("bonds", len(cusips)).
		Str("artifact", cfg.OutputPath(cfg.Output.UniverseCSV)).
		Msg("universe written")
	return nil
}
