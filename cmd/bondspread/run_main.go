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

// runPipeline executes all three stages against the warehouse.
func runPipeline(cmd *cobra.Command, args []string) error {
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
	log.Info().Str("run_id", pipeline.RunID()).Msg("starting full run")
	return pipeline.Run(ctx)
}
