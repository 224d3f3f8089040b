package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/jgamblin/NCAA-Prediction-sub001/internal/models"
)

// RatingRepository handles power rating and matchup projection storage
type RatingRepository struct {
	db *Database
}

// UpsertSnapshot replaces a season's rating table in one transaction so
// readers never observe a half-written iteration result.
func (r *RatingRepository) UpsertSnapshot(ctx context.Context, ratings []*models.TeamRating) error {
	if len(ratings) == 0 {
		return nil
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin rating snapshot: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO team_ratings (
			season, team_id, raw_offense, raw_defense, adj_offense, adj_defense,
			net_rating, sos_rating, games_played, wins, losses, rank
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (season, team_id) DO UPDATE SET
			raw_offense = EXCLUDED.raw_offense,
			raw_defense = EXCLUDED.raw_defense,
			adj_offense = EXCLUDED.adj_offense,
			adj_defense = EXCLUDED.adj_defense,
			net_rating = EXCLUDED.net_rating,
			sos_rating = EXCLUDED.sos_rating,
			games_played = EXCLUDED.games_played,
			wins = EXCLUDED.wins,
			losses = EXCLUDED.losses,
			rank = EXCLUDED.rank,
			updated_at = NOW()
	`

	for _, rating := range ratings {
		_, err := tx.Exec(
			ctx, query,
			rating.Season, rating.TeamID, rating.RawOffense, rating.RawDefense,
			rating.AdjOffense, rating.AdjDefense, rating.NetRating, rating.SOSRating,
			rating.GamesPlayed, rating.Wins, rating.Losses, rating.Rank,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert rating: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit rating snapshot: %w", err)
	}

	log.Debug().
		Int("season", ratings[0].Season).
		Int("teams", len(ratings)).
		Msg("Rating snapshot stored")

	return nil
}

// GetBySeason retrieves a season's ratings ordered by rank
func (r *RatingRepository) GetBySeason(ctx context.Context, season int) ([]*models.TeamRating, error) {
	query := `
		SELECT id, season, team_id, raw_offense, raw_defense, adj_offense, adj_defense,
		       net_rating, sos_rating, games_played, wins, losses, rank, updated_at
		FROM team_ratings
		WHERE season = $1
		ORDER BY rank, team_id
	`

	rows, err := r.db.Pool.Query(ctx, query, season)
	if err != nil {
		return nil, fmt.Errorf("failed to get ratings by season: %w", err)
	}
	defer rows.Close()

	var ratings []*models.TeamRating
	for rows.Next() {
		var rating models.TeamRating
		err := rows.Scan(
			&rating.ID, &rating.Season, &rating.TeamID, &rating.RawOffense, &rating.RawDefense,
			&rating.AdjOffense, &rating.AdjDefense, &rating.NetRating, &rating.SOSRating,
			&rating.GamesPlayed, &rating.Wins, &rating.Losses, &rating.Rank, &rating.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, &rating)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ratings: %w", err)
	}

	return ratings, nil
}

// GetByTeamAndSeason retrieves one team's rating row
func (r *RatingRepository) GetByTeamAndSeason(ctx context.Context, teamID, season int) (*models.TeamRating, error) {
	query := `
		SELECT id, season, team_id, raw_offense, raw_defense, adj_offense, adj_defense,
		       net_rating, sos_rating, games_played, wins, losses, rank, updated_at
		FROM team_ratings
		WHERE team_id = $1 AND season = $2
	`

	var rating models.TeamRating
	err := r.db.Pool.QueryRow(ctx, query, teamID, season).Scan(
		&rating.ID, &rating.Season, &rating.TeamID, &rating.RawOffense, &rating.RawDefense,
		&rating.AdjOffense, &rating.AdjDefense, &rating.NetRating, &rating.SOSRating,
		&rating.GamesPlayed, &rating.Wins, &rating.Losses, &rating.Rank, &rating.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("rating not found: team_id=%d, season=%d", teamID, season)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rating: %w", err)
	}

	return &rating, nil
}

// UpsertMatchups stores projected margins and win probabilities for
// scheduled games
func (r *RatingRepository) UpsertMatchups(ctx context.Context, matchups []*models.MatchupPrediction) error {
	if len(matchups) == 0 {
		return nil
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin matchup upsert: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO matchup_predictions (
			game_id, season, home_team_id, away_team_id,
			projected_margin, home_win_prob, neutral_site
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (game_id) DO UPDATE SET
			season = EXCLUDED.season,
			home_team_id = EXCLUDED.home_team_id,
			away_team_id = EXCLUDED.away_team_id,
			projected_margin = EXCLUDED.projected_margin,
			home_win_prob = EXCLUDED.home_win_prob,
			neutral_site = EXCLUDED.neutral_site,
			updated_at = NOW()
	`

	for _, m := range matchups {
		_, err := tx.Exec(
			ctx, query,
			m.GameID, m.Season, m.HomeTeamID, m.AwayTeamID,
			m.ProjectedMargin, m.HomeWinProb, m.NeutralSite,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert matchup: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit matchup upsert: %w", err)
	}

	log.Debug().Int("count", len(matchups)).Msg("Matchup projections stored")
	return nil
}

// GetMatchupsBySeason retrieves stored matchup projections
func (r *RatingRepository) GetMatchupsBySeason(ctx context.Context, season int) ([]*models.MatchupPrediction, error) {
	query := `
		SELECT game_id, season, home_team_id, away_team_id,
		       projected_margin, home_win_prob, neutral_site, updated_at
		FROM matchup_predictions
		WHERE season = $1
		ORDER BY game_id
	`

	rows, err := r.db.Pool.Query(ctx, query, season)
	if err != nil {
		return nil, fmt.Errorf("failed to get matchups: %w", err)
	}
	defer rows.Close()

	var matchups []*models.MatchupPrediction
	for rows.Next() {
		var m models.MatchupPrediction
		err := rows.Scan(
			&m.GameID, &m.Season, &m.HomeTeamID, &m.AwayTeamID,
			&m.ProjectedMargin, &m.HomeWinProb, &m.NeutralSite, &m.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan matchup: %w", err)
		}
		matchups = append(matchups, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating matchups: %w", err)
	}

	return matchups, nil
}
