// Command manualrun executes one full analytics pass from the ledger
// files and prints the resulting rating table. It validates connectivity
// first and exits non-zero on any failure, so it is safe to wire into
// deploy checks and cron jobs.
package main

import (
	"context"
	"math"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/jgamblin/NCAA-Prediction-sub001/internal/cache"
	"github.com/jgamblin/NCAA-Prediction-sub001/internal/config"
	"github.com/jgamblin/NCAA-Prediction-sub001/internal/pipeline"
	"github.com/jgamblin/NCAA-Prediction-sub001/internal/repository"
)

func main() {
	ctx := context.Background()
	cfg := config.MustLoad()

	db, err := repository.NewDatabase(ctx, repository.Config{
		Host:     cfg.DatabaseHost,
		Port:     strconv.Itoa(cfg.DatabasePort),
		User:     cfg.DatabaseUser,
		Password: cfg.DatabasePassword,
		Database: cfg.DatabaseName,
		SSLMode:  cfg.DatabaseSSLMode,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// 1. Validate database connectivity
	log.Info().Msg("Validating service health...")
	if err := db.Health(ctx); err != nil {
		log.Fatal().Err(err).Msg("Database health check failed")
	}

	// 2. Redis is optional for a one-shot run
	redisCache, err := cache.NewRedisCache(cache.Config{
		Host:     cfg.RedisHost,
		Port:     strconv.Itoa(cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable - running without cache")
		redisCache = nil
	} else {
		defer redisCache.Close()
	}

	// 3. Run the full pipeline once
	pipe := pipeline.New(cfg, db, redisCache)
	if err := pipe.Run(ctx, pipeline.TriggerManual); err != nil {
		log.Fatal().Err(err).Msg("Pipeline run failed")
	}

	// 4. Report what the store now holds
	seasons, err := db.Games.ListSeasons(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list seasons")
	}

	for _, season := range seasons {
		ratings, err := db.Ratings.GetBySeason(ctx, season)
		if err != nil {
			log.Fatal().Err(err).Int("season", season).Msg("Failed to read ratings")
		}

		top := ratings
		if len(top) > 25 {
			top = top[:25]
		}
		for _, rating := range top {
			log.Info().
				Int("season", season).
				Int("rank", rating.Rank).
				Int("team_id", rating.TeamID).
				Float64("net", rating.NetRating).
				Float64("adj_o", rating.AdjOffense).
				Float64("adj_d", rating.AdjDefense).
				Float64("sos", rating.SOSRating).
				Str("record", rating.Record()).
				Msg("Rating")
		}

		matchups, err := db.Ratings.GetMatchupsBySeason(ctx, season)
		if err != nil {
			log.Fatal().Err(err).Int("season", season).Msg("Failed to read matchup projections")
		}
		if len(matchups) > 0 {
			// Lead with the widest projected margin left on the schedule
			best := matchups[0]
			for _, m := range matchups {
				if math.Abs(m.ProjectedMargin) > math.Abs(best.ProjectedMargin) {
					best = m
				}
			}
			log.Info().
				Int("season", season).
				Int("scheduled", len(matchups)).
				Int("game_id", best.GameID).
				Float64("margin", best.ProjectedMargin).
				Float64("home_win_prob", best.HomeWinProb).
				Msg("Upcoming projections")
		}

		features, err := db.Features.CountBySeason(ctx, season)
		if err != nil {
			log.Fatal().Err(err).Int("season", season).Msg("Failed to count feature rows")
		}
		log.Info().Int("season", season).Int("feature_rows", features).Msg("Feature store")
	}

	anomalies, err := db.Drift.ListAnomalies(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list anomalies")
	}
	for _, a := range anomalies {
		log.Warn().
			Int("season", a.Season).
			Int("team_id", a.TeamID).
			Float64("delta", a.AccuracyDelta).
			Msg("Accuracy anomaly")
	}

	lastUpdate, err := db.Games.LastUpdatedAt(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read store watermark")
	}

	log.Info().
		Int("seasons", len(seasons)).
		Int("anomalies", len(anomalies)).
		Time("store_updated", lastUpdate).
		Msg("Manual run complete.")
}
