package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jgamblin/NCAA-Prediction-sub001/internal/models"
	"github.com/jgamblin/NCAA-Prediction-sub001/internal/repository"
)

// logStartupSummary reports the top of the latest rating table and any
// open anomaly flags after the initial run, so a glance at the worker
// log shows whether the store came up with sane numbers.
func logStartupSummary(ctx context.Context, db *repository.Database) error {
	seasons, err := db.Games.ListSeasons(ctx)
	if err != nil {
		return err
	}
	if len(seasons) == 0 {
		log.Info().Msg("Store is empty, no summary to report")
		return nil
	}

	latest := seasons[len(seasons)-1]
	if current := models.SeasonForDate(time.Now()); latest < current {
		log.Warn().
			Int("latest_season", latest).
			Int("current_season", current).
			Msg("Ledger has no games for the current season yet")
	}

	ratings, err := db.Ratings.GetBySeason(ctx, latest)
	if err != nil {
		return err
	}

	top := ratings
	if len(top) > 10 {
		top = top[:10]
	}
	for _, rating := range top {
		log.Info().
			Int("season", latest).
			Int("rank", rating.Rank).
			Int("team_id", rating.TeamID).
			Float64("net", rating.NetRating).
			Float64("sos", rating.SOSRating).
			Str("record", rating.Record()).
			Msg("Rating leader")
	}

	anomalies, err := db.Drift.ListAnomalies(ctx)
	if err != nil {
		return err
	}
	if len(anomalies) == 0 {
		log.Info().Msg("No accuracy anomalies flagged")
		return nil
	}

	for _, a := range anomalies {
		log.Warn().
			Int("season", a.Season).
			Int("team_id", a.TeamID).
			Int("games_seen", a.GamesSeen).
			Float64("cum_accuracy", a.CumAccuracy).
			Float64("rolling_accuracy", a.RollingAccuracy).
			Float64("delta", a.AccuracyDelta).
			Msg("Accuracy anomaly flagged")
	}

	return nil
}
