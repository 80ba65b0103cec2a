package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// UniverseCache is an optional read-through cache for the selected bond
// universe. Re-running the pipeline over the same window skips the
// expensive monthly-liquidity scan. Disabled runs simply pass a nil cache.
type UniverseCache struct {
	client *redis.Client
	ttl    time.Duration
}

// Config holds cache settings. Disabled by default; the pipeline works
// without Redis.
type Config struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password string        `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// DefaultConfig returns a disabled cache pointing at a local Redis.
func DefaultConfig() Config {
	return Config{
		Addr: "localhost:6379",
		TTL:  24 * time.Hour,
	}
}

// New connects to Redis and verifies the connection.
func New(cfg Config) (*UniverseCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &UniverseCache{client: client, ttl: cfg.TTL}, nil
}

// NewWithClient wraps an existing client; used by tests.
func NewWithClient(client *redis.Client, ttl time.Duration) *UniverseCache {
	return &UniverseCache{client: client, ttl: ttl}
}

// Key derives the cache key for a universe selection.
func Key(start, end time.Time, n int) string {
	return fmt.Sprintf("bondspread:universe:%s:%s:%d",
		start.Format("2006-01-02"), end.Format("2006-01-02"), n)
}

// Get returns the cached CUSIP list for a selection, with a hit flag.
func (c *UniverseCache) Get(ctx context.Context, start, end time.Time, n int) ([]string, bool, error) {
	val, err := c.client.Get(ctx, Key(start, end, n)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var cusips []string
	if err := json.Unmarshal([]byte(val), &cusips); err != nil {
		return nil, false, fmt.Errorf("decode cached universe: %w", err)
	}
	return cusips, true, nil
}

// Put stores the CUSIP list for a selection.
func (c *UniverseCache) Put(ctx context.Context, start, end time.Time, n int, cusips []string) error {
	data, err := json.Marshal(cusips)
	if err != nil {
		return fmt.Errorf("encode universe: %w", err)
	}
	if err := c.client.Set(ctx, Key(start, end, n), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close releases the Redis client.
func (c *UniverseCache) Close() error {
	return c.client.Close()
}
