package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// Database owns the pgx connection pool and hands out one repository
// per analytics table.
type Database struct {
	Pool *pgxpool.Pool

	Teams       *TeamRepository
	Games       *GameRepository
	Predictions *PredictionRepository
	Ratings     *RatingRepository
	Features    *FeatureRepository
	Drift       *DriftRepository
}

// Config holds the PostgreSQL connection settings
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
}

func (c Config) dsn() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

// NewDatabase connects the pool, verifies it with a ping and wires up
// the repositories.
func NewDatabase(ctx context.Context, cfg Config) (*Database, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	// Peak concurrency is the compute fan-out: one writer per season
	// plus the feature and drift rebuilds.
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 15 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().
		Str("host", cfg.Host).
		Str("database", cfg.Database).
		Int32("max_conns", poolConfig.MaxConns).
		Msg("Connected to analytics store")

	db := &Database{Pool: pool}

	db.Teams = &TeamRepository{db: db}
	db.Games = &GameRepository{db: db}
	db.Predictions = &PredictionRepository{db: db}
	db.Ratings = &RatingRepository{db: db}
	db.Features = &FeatureRepository{db: db}
	db.Drift = &DriftRepository{db: db}

	return db, nil
}

// Close releases the connection pool
func (db *Database) Close() {
	if db.Pool != nil {
		db.Pool.Close()
		log.Info().Msg("Analytics store pool closed")
	}
}

// Health pings the database with a short deadline
func (db *Database) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.Pool.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	return nil
}

// PoolStats reports current connection pool usage
func (db *Database) PoolStats() map[string]interface{} {
	stat := db.Pool.Stat()
	return map[string]interface{}{
		"total_conns":    stat.TotalConns(),
		"acquired_conns": stat.AcquiredConns(),
		"idle_conns":     stat.IdleConns(),
		"max_conns":      stat.MaxConns(),
	}
}
