package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/jgamblin/NCAA-Prediction-sub001/internal/metrics"
	"github.com/jgamblin/NCAA-Prediction-sub001/internal/models"
)

// Redis keys and channels
const (
	aliasMapKey    = "ncaab:alias_map"
	ratingsKeyFmt  = "ncaab:ratings:%d"
	matchupsKeyFmt = "ncaab:matchups:%d"
	anomalyChannel = "ncaab:anomalies"
)

// Config holds Redis connection settings
type Config struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// RedisCache caches the resolver alias map and the latest rating snapshots,
// and publishes anomaly flags for downstream consumers. Every method is
// safe to skip entirely; the worker runs without Redis when it is down.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to Redis and verifies the connection
func NewRedisCache(cfg Config) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// SetAliasMap caches the resolver's alias -> team id map
func (c *RedisCache) SetAliasMap(ctx context.Context, aliases map[string]int, ttl time.Duration) error {
	start := time.Now()

	data, err := json.Marshal(aliases)
	if err != nil {
		return fmt.Errorf("failed to marshal alias map: %w", err)
	}

	if err := c.client.Set(ctx, aliasMapKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache alias map: %w", err)
	}

	metrics.RecordCacheOperation("set_alias_map", time.Since(start).Seconds())
	return nil
}

// GetAliasMap returns the cached alias map, or nil on a miss
func (c *RedisCache) GetAliasMap(ctx context.Context) (map[string]int, error) {
	start := time.Now()

	data, err := c.client.Get(ctx, aliasMapKey).Bytes()
	if err == redis.Nil {
		metrics.RecordCacheMiss()
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read alias map: %w", err)
	}

	var aliases map[string]int
	if err := json.Unmarshal(data, &aliases); err != nil {
		return nil, fmt.Errorf("failed to unmarshal alias map: %w", err)
	}

	metrics.RecordCacheHit()
	metrics.RecordCacheOperation("get_alias_map", time.Since(start).Seconds())
	return aliases, nil
}

// SetRatings caches a season's rating snapshot
func (c *RedisCache) SetRatings(ctx context.Context, season int, ratings []*models.TeamRating, ttl time.Duration) error {
	start := time.Now()

	data, err := json.Marshal(ratings)
	if err != nil {
		return fmt.Errorf("failed to marshal ratings: %w", err)
	}

	key := fmt.Sprintf(ratingsKeyFmt, season)
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache ratings: %w", err)
	}

	metrics.RecordCacheOperation("set_ratings", time.Since(start).Seconds())
	return nil
}

// GetRatings returns a season's cached rating snapshot, or nil on a miss
func (c *RedisCache) GetRatings(ctx context.Context, season int) ([]*models.TeamRating, error) {
	start := time.Now()

	data, err := c.client.Get(ctx, fmt.Sprintf(ratingsKeyFmt, season)).Bytes()
	if err == redis.Nil {
		metrics.RecordCacheMiss()
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ratings: %w", err)
	}

	var ratings []*models.TeamRating
	if err := json.Unmarshal(data, &ratings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ratings: %w", err)
	}

	metrics.RecordCacheHit()
	metrics.RecordCacheOperation("get_ratings", time.Since(start).Seconds())
	return ratings, nil
}

// SetMatchups caches a season's scheduled-game projections
func (c *RedisCache) SetMatchups(ctx context.Context, season int, matchups []*models.MatchupPrediction, ttl time.Duration) error {
	start := time.Now()

	data, err := json.Marshal(matchups)
	if err != nil {
		return fmt.Errorf("failed to marshal matchups: %w", err)
	}

	key := fmt.Sprintf(matchupsKeyFmt, season)
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache matchups: %w", err)
	}

	metrics.RecordCacheOperation("set_matchups", time.Since(start).Seconds())
	return nil
}

// GetMatchups returns a season's cached projections, or nil on a miss
func (c *RedisCache) GetMatchups(ctx context.Context, season int) ([]*models.MatchupPrediction, error) {
	start := time.Now()

	data, err := c.client.Get(ctx, fmt.Sprintf(matchupsKeyFmt, season)).Bytes()
	if err == redis.Nil {
		metrics.RecordCacheMiss()
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read matchups: %w", err)
	}

	var matchups []*models.MatchupPrediction
	if err := json.Unmarshal(data, &matchups); err != nil {
		return nil, fmt.Errorf("failed to unmarshal matchups: %w", err)
	}

	metrics.RecordCacheHit()
	metrics.RecordCacheOperation("get_matchups", time.Since(start).Seconds())
	return matchups, nil
}

// PublishAnomalies pushes the latest anomaly flags to subscribers. A
// publish with no listeners is not an error.
func (c *RedisCache) PublishAnomalies(ctx context.Context, anomalies []*models.AnomalyRecord) error {
	if len(anomalies) == 0 {
		return nil
	}

	data, err := json.Marshal(anomalies)
	if err != nil {
		return fmt.Errorf("failed to marshal anomalies: %w", err)
	}

	if err := c.client.Publish(ctx, anomalyChannel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish anomalies: %w", err)
	}

	log.Debug().Int("count", len(anomalies)).Msg("Published anomaly flags")
	return nil
}
