package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/bondlab/bondspread/internal/cache"
	"github.com/bondlab/bondspread/internal/infrastructure/db"
	"github.com/bondlab/bondspread/internal/trace"
	"github.com/bondlab/bondspread/internal/universe"
)

const dateLayout = "2006-01-02"

// Config is the full run configuration: YAML file first, then environment
// overrides with the BONDSPREAD prefix (credentials normally arrive that
// way, loaded from .env by the CLI).
type Config struct {
	Run      RunConfig      `yaml:"run"`
	Database db.Config      `yaml:"database"`
	Cache    cache.Config   `yaml:"cache"`
	Extract  ExtractConfig  `yaml:"extract"`
	Universe UniverseConfig `yaml:"universe"`
	Filters  FiltersConfig  `yaml:"filters"`
	Output   OutputConfig   `yaml:"output"`
	Log      LogConfig      `yaml:"log"`
}

// RunConfig holds the batch parameters the reference scripts kept as
// constants.
type RunConfig struct {
	StartDate string `yaml:"start_date"`
	EndDate   string `yaml:"end_date"`
	NumBonds  int    `yaml:"num_bonds"`
}

// UniverseConfig holds the liquidity screen thresholds.
type UniverseConfig struct {
	MinActiveMonths int     `yaml:"min_active_months"`
	MaxMedianGap    float64 `yaml:"max_median_gap"`
	MinSpreadMonths int     `yaml:"min_spread_months"`
}

// ExtractConfig controls the batched trade-report fetch.
type ExtractConfig struct {
	BatchSize     int     `yaml:"batch_size"`      // CUSIPs per warehouse query
	QueriesPerSec float64 `yaml:"queries_per_sec"` // warehouse courtesy limit
	RowCap        int     `yaml:"row_cap"`         // total report cap, 0 = unbounded
}

// FiltersConfig holds the sequential trade filters.
type FiltersConfig struct {
	MarketOpen          string   `yaml:"market_open"`
	MarketClose         string   `yaml:"market_close"`
	MinPrice            float64  `yaml:"min_price"`
	SubProduct          string   `yaml:"sub_product"`
	DisallowedSaleConds []string `yaml:"disallowed_sale_conditions"`
}

// OutputConfig names the run artifacts. Workbook is optional.
type OutputConfig struct {
	Dir          string `yaml:"dir"`
	UniverseCSV  string `yaml:"universe_csv"`
	CleanCSV     string `yaml:"clean_csv"`
	DailyCSV     string `yaml:"daily_csv"`
	WeeklyCSV    string `yaml:"weekly_csv"`
	HistogramCSV string `yaml:"histogram_csv"`
	MetricsFile  string `yaml:"metrics_file"`
	Workbook     string `yaml:"workbook"`
}

// LogConfig configures the optional rotating run log next to console
// output.
type LogConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Default returns the reference run parameters.
func Default() *Config {
	return &Config{
		Run: RunConfig{
			StartDate: "2014-01-01",
			EndDate:   "2016-12-31",
			NumBonds:  500,
		},
		Database: db.DefaultConfig(),
		Cache:    cache.DefaultConfig(),
		Extract: ExtractConfig{
			BatchSize:     100,
			QueriesPerSec: 2,
			RowCap:        8_000_000,
		},
		Universe: UniverseConfig{
			MinActiveMonths: 12,
			MaxMedianGap:    10,
			MinSpreadMonths: 6,
		},
		Filters: FiltersConfig{
			MarketOpen:          "08:00:00",
			MarketClose:         "17:15:00",
			MinPrice:            10,
			SubProduct:          "CORP",
			DisallowedSaleConds: []string{"W", "L", "T", "S", "P"},
		},
		Output: OutputConfig{
			Dir:          "out",
			UniverseCSV:  "universe.csv",
			CleanCSV:     "processed_bond_trades.csv",
			DailyCSV:     "daily_spread.csv",
			WeeklyCSV:    "weekly_spread.csv",
			HistogramCSV: "weekly_spread_hist.csv",
			MetricsFile:  "run_metrics.prom",
		},
		Log: LogConfig{
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 30,
		},
	}
}

// Load reads YAML from path (optional; empty path keeps defaults), applies
// BONDSPREAD_* environment overrides and validates.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := envconfig.Process("bondspread", cfg); err != nil {
		return nil, fmt.Errorf("apply env overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the run window and counts.
func (c *Config) Validate() error {
	start, err := time.Parse(dateLayout, c.Run.StartDate)
	if err != nil {
		return fmt.Errorf("invalid start_date %q: %w", c.Run.StartDate, err)
	}
	end, err := time.Parse(dateLayout, c.Run.EndDate)
	if err != nil {
		return fmt.Errorf("invalid end_date %q: %w", c.Run.EndDate, err)
	}
	if end.Before(start) {
		return fmt.Errorf("end_date %s precedes start_date %s", c.Run.EndDate, c.Run.StartDate)
	}
	if c.Run.NumBonds <= 0 {
		return fmt.Errorf("num_bonds must be positive, got %d", c.Run.NumBonds)
	}
	if c.Extract.BatchSize <= 0 {
		return fmt.Errorf("extract.batch_size must be positive, got %d", c.Extract.BatchSize)
	}
	return nil
}

// Dates returns the parsed run window. Validate must have passed.
func (c *Config) Dates() (time.Time, time.Time) {
	start, _ := time.Parse(dateLayout, c.Run.StartDate)
	end, _ := time.Parse(dateLayout, c.Run.EndDate)
	return start, end
}

// TradeFilters converts the filter section into the cleaning filter set.
func (c *Config) TradeFilters() (trace.Filters, error) {
	open, err := trace.ParseClock(c.Filters.MarketOpen)
	if err != nil {
		return trace.Filters{}, fmt.Errorf("filters.market_open: %w", err)
	}
	closeAt, err := trace.ParseClock(c.Filters.MarketClose)
	if err != nil {
		return trace.Filters{}, fmt.Errorf("filters.market_close: %w", err)
	}
	conds := make(map[string]struct{}, len(c.Filters.DisallowedSaleConds))
	for _, s := range c.Filters.DisallowedSaleConds {
		conds[s] = struct{}{}
	}
	return trace.Filters{
		MarketOpen:          open,
		MarketClose:         closeAt,
		MinPrice:            c.Filters.MinPrice,
		SubProduct:          c.Filters.SubProduct,
		DisallowedSaleConds: conds,
	}, nil
}

// Criteria converts the universe section into the liquidity screen.
func (c *Config) Criteria() universe.Criteria {
	return universe.Criteria{
		MinActiveMonths: c.Universe.MinActiveMonths,
		MaxMedianGap:    c.Universe.MaxMedianGap,
		MinSpreadMonths: c.Universe.MinSpreadMonths,
	}
}

// OutputPath joins an artifact name onto the output directory.
func (c *Config) OutputPath(name string) string {
	if name == "" {
		return ""
	}
	return c.Output.Dir + string(os.PathSeparator) + name
}
