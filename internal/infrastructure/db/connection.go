package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/bondlab/bondspread/internal/persistence"
	"github.com/bondlab/bondspread/internal/persistence/postgres"
)

// Config holds warehouse connection configuration. Unlike a service, the
// pipeline cannot run without its warehouse, so there is no enabled flag.
type Config struct {
	DSN             string        `yaml:"dsn" envconfig:"WRDS_DSN"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	QueryTimeout    time.Duration `yaml:"query_timeout"`
}

// DefaultConfig returns pool defaults sized for a single batch run.
func DefaultConfig() Config {
	return Config{
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: 30 * time.Minute,
		QueryTimeout:    5 * time.Minute,
	}
}

// Manager owns the warehouse connection and the repository set built on
// it. It is injected into each stage; no package-level handle exists.
type Manager struct {
	db     *sqlx.DB
	config Config
	repos  *persistence.Repository
}

// NewManager opens the warehouse connection, verifies it with a ping and
// wires the repositories. Connection failure is fatal to the run.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("warehouse DSN is required")
	}

	conn, err := sqlx.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open warehouse: %w", err)
	}

	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping warehouse: %w", err)
	}

	return &Manager{
		db:     conn,
		config: cfg,
		repos: &persistence.Repository{
			BondReturns:  postgres.NewBondReturnsRepo(conn, cfg.QueryTimeout),
			TradeReports: postgres.NewTradeReportsRepo(conn, cfg.QueryTimeout),
			Calendar:     postgres.NewCalendarRepo(conn, cfg.QueryTimeout),
		},
	}, nil
}

// Repository returns the warehouse repositories.
func (m *Manager) Repository() *persistence.Repository {
	return m.repos
}

// DB exposes the underlying connection.
func (m *Manager) DB() *sqlx.DB {
	return m.db
}

// Ping tests connectivity.
func (m *Manager) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

// Close releases the connection pool.
func (m *Manager) Close() error {
	if m.db == nil {
		return nil
	}
	return m.db.Close()
}
