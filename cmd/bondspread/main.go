package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/bondlab/bondspread/internal/cache"
	"github.com/bondlab/bondspread/internal/config"
	"github.com/bondlab/bondspread/internal/infrastructure/db"
)

const (
	appName = "bondspread"
	version = "v1.2.0"
)

func main() {
	// Credentials conventionally live in .env; absence is fine.
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "TRACE corporate-bond effective-spread research pipeline",
		Version: version,
		Long: `bondspread extracts corporate-bond trade reports from a WRDS-style
research warehouse, cleans them with market-microstructure rules and
derives weekly effective-spread statistics per bond.

Stages run batch-sequential: universe selection, trade extraction and
cleaning, spread pair matching and aggregation. 'run' executes all
three; the stage subcommands hand off through CSV artifacts.`,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to YAML run configuration")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline",
		Long:  "Select the liquid universe, extract and clean trades, aggregate weekly spreads",
		RunE:  runPipeline,
	}

	universeCmd := &cobra.Command{
		Use:   "universe",
		Short: "Select the liquid bond universe",
		Long:  "Rank bonds by liquidity over the run window and write the universe CSV",
		RunE:  runUniverse,
	}

	extractCmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract and clean trade reports",
		Long:  "Fetch trade reports for a universe CSV, de-duplicate and filter, write the clean-trade CSV",
		RunE:  runExtract,
	}
	extractCmd.Flags().String("universe", "", "Universe CSV to extract for (defaults to the configured artifact)")

	spreadsCmd := &cobra.Command{
		Use:   "spreads",
		Short: "Compute daily and weekly effective spreads",
		Long:  "Remove riskless-principal legs, match opposite-side pairs and aggregate spreads from a clean-trade CSV",
		RunE:  runSpreads,
	}
	spreadsCmd.Flags().String("trades", "", "Clean-trade CSV to aggregate (defaults to the configured artifact)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(universeCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(spreadsCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("run failed")
	}
}

// loadConfig reads the YAML config, applies env overrides and finishes
// logger setup (debug level, optional rotating file log).
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if cfg.Log.File != "" {
		fileWriter := &lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAge:     cfg.Log.MaxAgeDays,
		}
		var console io.Writer = os.Stderr
		if term.IsTerminal(int(os.Stderr.Fd())) {
			console = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
		}
		log.Logger = log.Output(zerolog.MultiLevelWriter(console, fileWriter))
	}

	return cfg, nil
}

// openWarehouse connects to the research warehouse; failure is fatal to
// the run, per the pipeline's no-retry model.
func openWarehouse(cfg *config.Config) (*db.Manager, error) {
	manager, err := db.NewManager(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect warehouse: %w", err)
	}
	return manager, nil
}

// openCache connects the optional universe cache; a failed connection
// only disables caching.
func openCache(cfg *config.Config) *cache.UniverseCache {
	if !cfg.Cache.Enabled {
		return nil
	}
	uc, err := cache.New(cfg.Cache)
	if err != nil {
		log.Warn().Err(err).Msg("universe cache unavailable, continuing without")
		return nil
	}
	return uc
}
