package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	// Input files
	GameLedgerPath  string   `envconfig:"GAME_LEDGER_PATH" required:"true"`
	PredictionPaths []string `envconfig:"PREDICTION_PATHS" default:""`
	TeamSeedPath    string   `envconfig:"TEAM_SEED_PATH" required:"true"`

	// Database
	DatabaseHost     string `envconfig:"DATABASE_HOST" default:"localhost"`
	DatabasePort     int    `envconfig:"DATABASE_PORT" default:"5432"`
	DatabaseName     string `envconfig:"DATABASE_NAME" default:"ncaab_analytics"`
	DatabaseUser     string `envconfig:"DATABASE_USER" default:"ncaab_user"`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD" required:"true"`
	DatabaseSSLMode  string `envconfig:"DATABASE_SSL_MODE" default:"disable"`

	// Redis
	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// Application
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Rating engine
	RatingIterations int     `envconfig:"RATING_ITERATIONS" default:"15"`
	RatingTolerance  float64 `envconfig:"RATING_TOLERANCE" default:"0"`

	// Drift engine
	DriftWindow      int     `envconfig:"DRIFT_WINDOW" default:"25"`
	AnomalyThreshold float64 `envconfig:"ANOMALY_THRESHOLD" default:"0.25"`
	AnomalyMinGames  int     `envconfig:"ANOMALY_MIN_GAMES" default:"15"`

	// Scheduler
	EnableScheduler    bool          `envconfig:"ENABLE_SCHEDULER" default:"true"`
	InitialRunEnabled  bool          `envconfig:"INITIAL_RUN_ENABLED" default:"true"`
	NightlyRefreshCron string        `envconfig:"NIGHTLY_REFRESH_CRON" default:"0 2 * * *"`
	LedgerPollInterval time.Duration `envconfig:"LEDGER_POLL_INTERVAL" default:"15m"`

	// Caching TTL (in seconds)
	CacheTTLAliases int `envconfig:"CACHE_TTL_ALIASES" default:"86400"` // 24 hours
	CacheTTLRatings int `envconfig:"CACHE_TTL_RATINGS" default:"3600"`  // 1 hour

	// Monitoring
	EnableMetrics bool `envconfig:"ENABLE_METRICS" default:"true"`
	MetricsPort   int  `envconfig:"METRICS_PORT" default:"9090"`
}

// Load loads configuration from environment variables
// It first attempts to load from .env file if in development mode
func Load() (*Config, error) {
	// Try to load .env file (ignore error if doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.GameLedgerPath == "" {
		return fmt.Errorf("GAME_LEDGER_PATH is required")
	}

	if c.TeamSeedPath == "" {
		return fmt.Errorf("TEAM_SEED_PATH is required")
	}

	if c.DatabasePassword == "" {
		return fmt.Errorf("DATABASE_PASSWORD is required")
	}

	if c.RatingIterations < 1 {
		return fmt.Errorf("RATING_ITERATIONS must be at least 1")
	}

	if c.DriftWindow < 1 {
		return fmt.Errorf("DRIFT_WINDOW must be at least 1")
	}

	if c.AnomalyThreshold < 0 || c.AnomalyThreshold > 1 {
		return fmt.Errorf("ANOMALY_THRESHOLD must be between 0 and 1")
	}

	return nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DatabaseHost,
		c.DatabasePort,
		c.DatabaseUser,
		c.DatabasePassword,
		c.DatabaseName,
		c.DatabaseSSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// MustLoad loads configuration or panics on error
// Use this in main() where we want to fail fast
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
