// Package pipeline orchestrates a full analytics run: ingest the ledger
// files, then recompute ratings, rolling features and drift metrics from
// what the store now holds. Every run recomputes from scratch, so the
// outputs only depend on the ledger contents, never on run history.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/jgamblin/NCAA-Prediction-sub001/internal/cache"
	"github.com/jgamblin/NCAA-Prediction-sub001/internal/config"
	"github.com/jgamblin/NCAA-Prediction-sub001/internal/engine"
	"github.com/jgamblin/NCAA-Prediction-sub001/internal/identity"
	"github.com/jgamblin/NCAA-Prediction-sub001/internal/ledger"
	"github.com/jgamblin/NCAA-Prediction-sub001/internal/metrics"
	"github.com/jgamblin/NCAA-Prediction-sub001/internal/models"
	"github.com/jgamblin/NCAA-Prediction-sub001/internal/repository"
)

// Run triggers
const (
	TriggerInitial = "initial"
	TriggerNightly = "nightly"
	TriggerPoll    = "poll"
	TriggerManual  = "manual"
)

// Pipeline wires the ledger loaders, the resolver, the engines and the
// store together. One Pipeline serves all runs; it holds no per-run state.
type Pipeline struct {
	cfg   *config.Config
	db    *repository.Database
	cache *cache.RedisCache // nil when Redis is unavailable

	rating  *engine.RatingEngine
	feature *engine.FeatureEngine
	drift   *engine.DriftEngine
}

// New creates a pipeline with engines tuned from config
func New(cfg *config.Config, db *repository.Database, redisCache *cache.RedisCache) *Pipeline {
	rating := engine.NewRatingEngine(cfg.RatingIterations)
	rating.Tolerance = cfg.RatingTolerance

	drift := engine.NewDriftEngine()
	drift.Window = cfg.DriftWindow
	drift.Threshold = cfg.AnomalyThreshold
	drift.MinGames = cfg.AnomalyMinGames

	return &Pipeline{
		cfg:     cfg,
		db:      db,
		cache:   redisCache,
		rating:  rating,
		feature: engine.NewFeatureEngine(),
		drift:   drift,
	}
}

// Run executes one full pipeline pass. Poll runs skip the team seed and
// ride the cached alias map; all other triggers re-seed first.
func (p *Pipeline) Run(ctx context.Context, trigger string) error {
	runID := uuid.New().String()
	logger := log.With().Str("run_id", runID).Str("trigger", trigger).Logger()
	start := time.Now()

	logger.Info().Msg("Pipeline run starting")

	if err := p.ingest(ctx, logger, trigger); err != nil {
		metrics.RecordPipelineRun(trigger, "error", time.Since(start).Seconds())
		metrics.RecordError("pipeline", "ingest")
		return fmt.Errorf("pipeline ingest failed: %w", err)
	}

	if err := p.compute(ctx, logger); err != nil {
		metrics.RecordPipelineRun(trigger, "error", time.Since(start).Seconds())
		metrics.RecordError("pipeline", "compute")
		return fmt.Errorf("pipeline compute failed: %w", err)
	}

	p.updateStoreStats(ctx)

	metrics.RecordPipelineRun(trigger, "success", time.Since(start).Seconds())
	logger.Info().
		Dur("duration", time.Since(start)).
		Msg("Pipeline run complete")

	return nil
}

// ingest loads the ledger files into the store
func (p *Pipeline) ingest(ctx context.Context, logger zerolog.Logger, trigger string) error {
	if trigger != TriggerPoll {
		if err := p.syncTeamSeed(ctx, logger); err != nil {
			return err
		}
	}

	resolver, err := p.buildResolver(ctx)
	if err != nil {
		return err
	}

	if err := p.ingestGames(ctx, logger, resolver); err != nil {
		return err
	}

	return p.ingestPredictions(ctx, logger)
}

// syncTeamSeed upserts canonical teams and their ledger aliases, then
// refreshes the cached alias map so poll runs resolve against it.
func (p *Pipeline) syncTeamSeed(ctx context.Context, logger zerolog.Logger) error {
	seeds, err := ledger.LoadTeamSeed(p.cfg.TeamSeedPath)
	if err != nil {
		return fmt.Errorf("failed to load team seed: %w", err)
	}

	for _, seed := range seeds {
		team := seed.ToTeam()
		if err := p.db.Teams.Upsert(ctx, team); err != nil {
			return err
		}
		for _, alias := range seed.Aliases {
			if err := p.db.Teams.UpsertAlias(ctx, team.ID, alias); err != nil {
				return err
			}
		}
	}

	metrics.TeamsIngested.Add(float64(len(seeds)))
	logger.Info().Int("teams", len(seeds)).Msg("Team seed synced")

	if p.cache != nil {
		aliases, err := p.db.Teams.LoadAliasMap(ctx)
		if err != nil {
			return err
		}
		ttl := time.Duration(p.cfg.CacheTTLAliases) * time.Second
		if err := p.cache.SetAliasMap(ctx, aliases, ttl); err != nil {
			log.Warn().Err(err).Msg("Failed to refresh alias cache - continuing")
		}
	}

	return nil
}

// buildResolver constructs the name resolver, preferring the cached
// alias map and falling back to the store.
func (p *Pipeline) buildResolver(ctx context.Context) (*identity.AliasResolver, error) {
	if p.cache != nil {
		aliases, err := p.cache.GetAliasMap(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Alias cache read failed - falling back to database")
		} else if aliases != nil {
			return identity.NewAliasResolver(aliases), nil
		}
	}

	aliases, err := p.db.Teams.LoadAliasMap(ctx)
	if err != nil {
		return nil, err
	}

	if p.cache != nil {
		ttl := time.Duration(p.cfg.CacheTTLAliases) * time.Second
		if err := p.cache.SetAliasMap(ctx, aliases, ttl); err != nil {
			log.Warn().Err(err).Msg("Failed to backfill alias cache - continuing")
		}
	}

	return identity.NewAliasResolver(aliases), nil
}

// ingestGames loads the game ledger and upserts every row. An unresolved
// team name aborts the run: silently skipping rows would corrupt every
// downstream computation.
func (p *Pipeline) ingestGames(ctx context.Context, logger zerolog.Logger, resolver *identity.AliasResolver) error {
	start := time.Now()

	inputs, err := ledger.LoadGames(p.cfg.GameLedgerPath)
	if err != nil {
		metrics.RecordLedgerLoad("games", "error", 0, time.Since(start).Seconds())
		return err
	}
	metrics.RecordLedgerLoad("games", "success", len(inputs), time.Since(start).Seconds())

	for _, input := range inputs {
		homeID, err := resolver.Resolve(input.HomeTeam)
		if err != nil {
			metrics.UnresolvedTeamNames.Inc()
			return fmt.Errorf("game %d: %w", input.GameID, err)
		}
		awayID, err := resolver.Resolve(input.AwayTeam)
		if err != nil {
			metrics.UnresolvedTeamNames.Inc()
			return fmt.Errorf("game %d: %w", input.GameID, err)
		}

		if err := p.db.Games.Upsert(ctx, input.ToGame(homeID, awayID)); err != nil {
			return err
		}
	}

	metrics.GamesIngested.Add(float64(len(inputs)))
	logger.Info().Int("games", len(inputs)).Msg("Game ledger ingested")
	return nil
}

// ingestPredictions loads the forecast ledgers. Missing prediction files
// are a configuration choice, not an error: the drift engine simply has
// nothing to evaluate.
func (p *Pipeline) ingestPredictions(ctx context.Context, logger zerolog.Logger) error {
	if len(p.cfg.PredictionPaths) == 0 {
		logger.Info().Msg("No prediction ledgers configured - skipping forecast ingest")
		return nil
	}

	start := time.Now()

	inputs, err := ledger.LoadPredictions(p.cfg.PredictionPaths...)
	if err != nil {
		metrics.RecordLedgerLoad("predictions", "error", 0, time.Since(start).Seconds())
		return err
	}
	metrics.RecordLedgerLoad("predictions", "success", len(inputs), time.Since(start).Seconds())

	for _, input := range inputs {
		if err := p.db.Predictions.Insert(ctx, input.ToPredictionRecord()); err != nil {
			return err
		}
	}

	metrics.PredictionsIngested.Add(float64(len(inputs)))
	logger.Info().Int("records", len(inputs)).Msg("Prediction ledgers ingested")
	return nil
}

// computeResults accumulates output counts across the engine goroutines
type computeResults struct {
	mu          sync.Mutex
	ratedTeams  int
	featureRows int
	driftRows   int
	anomalies   int
}

// compute recomputes every engine output from the store. Per-season
// rating runs, the feature rebuild and the drift evaluation are
// independent, so they fan out on an errgroup.
func (p *Pipeline) compute(ctx context.Context, logger zerolog.Logger) error {
	seasons, err := p.db.Games.ListSeasons(ctx)
	if err != nil {
		return err
	}
	if len(seasons) == 0 {
		logger.Warn().Msg("No games in store - nothing to compute")
		return nil
	}

	finalGames, err := p.db.Games.GetFinalGames(ctx)
	if err != nil {
		return err
	}

	records, err := p.db.Predictions.ListAll(ctx)
	if err != nil {
		return err
	}

	results := &computeResults{}
	g, gctx := errgroup.WithContext(ctx)

	for _, season := range seasons {
		season := season
		g.Go(func() error {
			return p.computeRatings(gctx, season, results)
		})
	}

	g.Go(func() error {
		return p.computeFeatures(gctx, finalGames, results)
	})

	g.Go(func() error {
		return p.computeDrift(gctx, finalGames, records, results)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	metrics.UpdateEngineOutputStats(results.ratedTeams, results.featureRows, results.driftRows, results.anomalies)
	logger.Info().
		Ints("seasons", seasons).
		Int("rated_teams", results.ratedTeams).
		Int("feature_rows", results.featureRows).
		Int("drift_rows", results.driftRows).
		Int("anomalies", results.anomalies).
		Msg("Engines complete")

	return nil
}

// computeRatings runs the power rating engine for one season and stores
// the snapshot plus matchup projections for the remaining schedule
func (p *Pipeline) computeRatings(ctx context.Context, season int, results *computeResults) error {
	start := time.Now()

	games, err := p.db.Games.GetBySeason(ctx, season)
	if err != nil {
		metrics.RecordEngineRun("ratings", "error", time.Since(start).Seconds())
		return err
	}

	ratings := p.rating.Calculate(games)
	if len(ratings) == 0 {
		metrics.RecordEngineRun("ratings", "success", time.Since(start).Seconds())
		return nil
	}

	if err := p.db.Ratings.UpsertSnapshot(ctx, ratings); err != nil {
		metrics.RecordEngineRun("ratings", "error", time.Since(start).Seconds())
		return err
	}

	if err := p.projectMatchups(ctx, season, ratings); err != nil {
		metrics.RecordEngineRun("ratings", "error", time.Since(start).Seconds())
		return err
	}

	if p.cache != nil {
		ttl := time.Duration(p.cfg.CacheTTLRatings) * time.Second
		if err := p.cache.SetRatings(ctx, season, ratings, ttl); err != nil {
			log.Warn().Err(err).Int("season", season).Msg("Failed to cache ratings - continuing")
		}
	}

	results.mu.Lock()
	results.ratedTeams += len(ratings)
	results.mu.Unlock()

	metrics.RecordEngineRun("ratings", "success", time.Since(start).Seconds())
	log.Debug().
		Int("season", season).
		Int("teams", len(ratings)).
		Dur("duration", time.Since(start)).
		Msg("Season ratings computed")

	return nil
}

// projectMatchups stores margin and win probability projections for
// every scheduled game in the season
func (p *Pipeline) projectMatchups(ctx context.Context, season int, ratings []*models.TeamRating) error {
	scheduled, err := p.db.Games.GetScheduledBySeason(ctx, season)
	if err != nil {
		return err
	}
	if len(scheduled) == 0 {
		return nil
	}

	byTeam := make(map[int]*models.TeamRating, len(ratings))
	for _, rating := range ratings {
		byTeam[rating.TeamID] = rating
	}

	var matchups []*models.MatchupPrediction
	for _, game := range scheduled {
		home, away := byTeam[game.HomeTeamID], byTeam[game.AwayTeamID]
		if home == nil || away == nil {
			log.Warn().Int("game_id", game.GameID).Msg("Scheduled game references unrated team - skipping projection")
			continue
		}

		margin, prob := p.rating.PredictMatchup(home, away, game.NeutralSite)
		matchups = append(matchups, &models.MatchupPrediction{
			GameID:          game.GameID,
			Season:          season,
			HomeTeamID:      game.HomeTeamID,
			AwayTeamID:      game.AwayTeamID,
			ProjectedMargin: margin,
			HomeWinProb:     prob,
			NeutralSite:     game.NeutralSite,
		})
	}

	if err := p.db.Ratings.UpsertMatchups(ctx, matchups); err != nil {
		return err
	}

	if p.cache != nil && len(matchups) > 0 {
		ttl := time.Duration(p.cfg.CacheTTLRatings) * time.Second
		if err := p.cache.SetMatchups(ctx, season, matchups, ttl); err != nil {
			log.Warn().Err(err).Int("season", season).Msg("Failed to cache matchups - continuing")
		}
	}

	return nil
}

// computeFeatures rebuilds the point-in-time rolling feature store
func (p *Pipeline) computeFeatures(ctx context.Context, finalGames []*models.Game, results *computeResults) error {
	start := time.Now()

	rows := p.feature.BuildFeatureStore(finalGames)
	if err := p.db.Features.UpsertBatch(ctx, rows); err != nil {
		metrics.RecordEngineRun("features", "error", time.Since(start).Seconds())
		return err
	}

	results.mu.Lock()
	results.featureRows += len(rows)
	results.mu.Unlock()

	metrics.RecordEngineRun("features", "success", time.Since(start).Seconds())
	log.Debug().
		Int("rows", len(rows)).
		Dur("duration", time.Since(start)).
		Msg("Rolling features rebuilt")

	return nil
}

// computeDrift recomputes accuracy drift metrics, refreshes the anomaly
// flags and publishes them for downstream consumers
func (p *Pipeline) computeDrift(ctx context.Context, finalGames []*models.Game, records []*models.PredictionRecord, results *computeResults) error {
	start := time.Now()

	rows := p.drift.ComputeMetrics(finalGames, records)
	if err := p.db.Drift.UpsertMetrics(ctx, rows); err != nil {
		metrics.RecordEngineRun("drift", "error", time.Since(start).Seconds())
		return err
	}

	anomalies := p.drift.DetectAnomalies(rows)
	if err := p.db.Drift.ReplaceAnomalies(ctx, anomalies); err != nil {
		metrics.RecordEngineRun("drift", "error", time.Since(start).Seconds())
		return err
	}

	if p.cache != nil && len(anomalies) > 0 {
		if err := p.cache.PublishAnomalies(ctx, anomalies); err != nil {
			log.Warn().Err(err).Msg("Failed to publish anomalies - continuing")
		}
	}

	results.mu.Lock()
	results.driftRows += len(rows)
	results.anomalies += len(anomalies)
	results.mu.Unlock()

	metrics.RecordEngineRun("drift", "success", time.Since(start).Seconds())
	log.Debug().
		Int("rows", len(rows)).
		Int("anomalies", len(anomalies)).
		Dur("duration", time.Since(start)).
		Msg("Drift metrics recomputed")

	return nil
}

// updateStoreStats refreshes the store size gauges after a run
func (p *Pipeline) updateStoreStats(ctx context.Context) {
	teams, err := p.db.Teams.Count(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to count teams for metrics")
		return
	}
	games, err := p.db.Games.Count(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to count games for metrics")
		return
	}
	predictions, err := p.db.Predictions.Count(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to count predictions for metrics")
		return
	}

	metrics.UpdateStoreStats(int64(teams), int64(games), int64(predictions))
}
