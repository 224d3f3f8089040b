package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/jgamblin/NCAA-Prediction-sub001/internal/models"
)

// GameRepository handles game database operations
type GameRepository struct {
	db *Database
}

// Upsert inserts or updates a game, keyed by the ledger game_id
func (r *GameRepository) Upsert(ctx context.Context, game *models.Game) error {
	query := `
		INSERT INTO games (
			game_id, season, home_team_id, away_team_id,
			home_team_raw, away_team_raw, game_date, status,
			neutral_site, home_score, away_score
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (game_id) DO UPDATE SET
			season = EXCLUDED.season,
			home_team_id = EXCLUDED.home_team_id,
			away_team_id = EXCLUDED.away_team_id,
			home_team_raw = EXCLUDED.home_team_raw,
			away_team_raw = EXCLUDED.away_team_raw,
			game_date = EXCLUDED.game_date,
			status = EXCLUDED.status,
			neutral_site = EXCLUDED.neutral_site,
			home_score = EXCLUDED.home_score,
			away_score = EXCLUDED.away_score,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := r.db.Pool.QueryRow(
		ctx, query,
		game.GameID, game.Season, game.HomeTeamID, game.AwayTeamID,
		game.HomeTeamRaw, game.AwayTeamRaw, game.GameDate, game.Status,
		game.NeutralSite, game.HomeScore, game.AwayScore,
	).Scan(&game.ID, &game.CreatedAt, &game.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert game: %w", err)
	}

	return nil
}

// GetByGameID retrieves a game by its ledger game_id
func (r *GameRepository) GetByGameID(ctx context.Context, gameID int) (*models.Game, error) {
	query := `
		SELECT id, game_id, season, home_team_id, away_team_id,
		       home_team_raw, away_team_raw, game_date, status,
		       neutral_site, home_score, away_score, created_at, updated_at
		FROM games
		WHERE game_id = $1
	`

	var game models.Game
	err := r.db.Pool.QueryRow(ctx, query, gameID).Scan(
		&game.ID, &game.GameID, &game.Season, &game.HomeTeamID, &game.AwayTeamID,
		&game.HomeTeamRaw, &game.AwayTeamRaw, &game.GameDate, &game.Status,
		&game.NeutralSite, &game.HomeScore, &game.AwayScore, &game.CreatedAt, &game.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("game not found: game_id=%d", gameID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return &game, nil
}

// GetBySeason retrieves every game in a season, ordered by the
// deterministic (date, game_id) key the engines expect
func (r *GameRepository) GetBySeason(ctx context.Context, season int) ([]*models.Game, error) {
	query := `
		SELECT id, game_id, season, home_team_id, away_team_id,
		       home_team_raw, away_team_raw, game_date, status,
		       neutral_site, home_score, away_score, created_at, updated_at
		FROM games
		WHERE season = $1
		ORDER BY game_date, game_id
	`

	rows, err := r.db.Pool.Query(ctx, query, season)
	if err != nil {
		return nil, fmt.Errorf("failed to get games by season: %w", err)
	}
	defer rows.Close()

	return scanGames(rows)
}

// GetFinalGames retrieves all completed games across seasons
func (r *GameRepository) GetFinalGames(ctx context.Context) ([]*models.Game, error) {
	query := `
		SELECT id, game_id, season, home_team_id, away_team_id,
		       home_team_raw, away_team_raw, game_date, status,
		       neutral_site, home_score, away_score, created_at, updated_at
		FROM games
		WHERE status = 'Final'
		ORDER BY season, game_date, game_id
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get final games: %w", err)
	}
	defer rows.Close()

	games, err := scanGames(rows)
	if err != nil {
		return nil, err
	}

	log.Debug().Int("count", len(games)).Msg("Retrieved final games")
	return games, nil
}

// GetScheduledBySeason retrieves upcoming games for matchup projections
func (r *GameRepository) GetScheduledBySeason(ctx context.Context, season int) ([]*models.Game, error) {
	query := `
		SELECT id, game_id, season, home_team_id, away_team_id,
		       home_team_raw, away_team_raw, game_date, status,
		       neutral_site, home_score, away_score, created_at, updated_at
		FROM games
		WHERE season = $1 AND status = 'Scheduled'
		ORDER BY game_date, game_id
	`

	rows, err := r.db.Pool.Query(ctx, query, season)
	if err != nil {
		return nil, fmt.Errorf("failed to get scheduled games: %w", err)
	}
	defer rows.Close()

	return scanGames(rows)
}

// ListSeasons returns the distinct seasons present in the games table
func (r *GameRepository) ListSeasons(ctx context.Context) ([]int, error) {
	query := `SELECT DISTINCT season FROM games ORDER BY season`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list seasons: %w", err)
	}
	defer rows.Close()

	var seasons []int
	for rows.Next() {
		var season int
		if err := rows.Scan(&season); err != nil {
			return nil, fmt.Errorf("failed to scan season: %w", err)
		}
		seasons = append(seasons, season)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating seasons: %w", err)
	}

	return seasons, nil
}

// LastUpdatedAt returns the most recent updated_at across all games.
// The scheduler uses this to decide whether a poll cycle found new results.
func (r *GameRepository) LastUpdatedAt(ctx context.Context) (time.Time, error) {
	query := `SELECT COALESCE(MAX(updated_at), 'epoch'::timestamptz) FROM games`

	var last time.Time
	err := r.db.Pool.QueryRow(ctx, query).Scan(&last)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get last game update: %w", err)
	}

	return last, nil
}

// Count returns the total number of games
func (r *GameRepository) Count(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM games`

	var count int
	err := r.db.Pool.QueryRow(ctx, query).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count games: %w", err)
	}

	return count, nil
}

func scanGames(rows pgx.Rows) ([]*models.Game, error) {
	var games []*models.Game
	for rows.Next() {
		var game models.Game
		err := rows.Scan(
			&game.ID, &game.GameID, &game.Season, &game.HomeTeamID, &game.AwayTeamID,
			&game.HomeTeamRaw, &game.AwayTeamRaw, &game.GameDate, &game.Status,
			&game.NeutralSite, &game.HomeScore, &game.AwayScore, &game.CreatedAt, &game.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, &game)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating games: %w", err)
	}

	return games, nil
}
