package repository

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/jgamblin/NCAA-Prediction-sub001/internal/models"
)

// FeatureRepository handles rolling feature row storage
type FeatureRepository struct {
	db *Database
}

// UpsertBatch stores feature rows in one transaction, keyed by
// (team_id, season, game_id). Rebuilds overwrite rows in place so a
// longer ledger only ever extends or re-fills the same keys.
func (r *FeatureRepository) UpsertBatch(ctx context.Context, features []*models.FeatureRow) error {
	if len(features) == 0 {
		return nil
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin feature batch: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO team_game_features (
			team_id, season, game_id, game_date, is_home, games_prior,
			rolling_win_pct_5, rolling_win_pct_10,
			rolling_point_diff_avg_5, rolling_point_diff_avg_10,
			win_pct_last5_vs_last10, point_diff_last5_vs_last10,
			recent_strength_index_5
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (team_id, season, game_id) DO UPDATE SET
			game_date = EXCLUDED.game_date,
			is_home = EXCLUDED.is_home,
			games_prior = EXCLUDED.games_prior,
			rolling_win_pct_5 = EXCLUDED.rolling_win_pct_5,
			rolling_win_pct_10 = EXCLUDED.rolling_win_pct_10,
			rolling_point_diff_avg_5 = EXCLUDED.rolling_point_diff_avg_5,
			rolling_point_diff_avg_10 = EXCLUDED.rolling_point_diff_avg_10,
			win_pct_last5_vs_last10 = EXCLUDED.win_pct_last5_vs_last10,
			point_diff_last5_vs_last10 = EXCLUDED.point_diff_last5_vs_last10,
			recent_strength_index_5 = EXCLUDED.recent_strength_index_5,
			updated_at = NOW()
	`

	for _, f := range features {
		_, err := tx.Exec(
			ctx, query,
			f.TeamID, f.Season, f.GameID, f.GameDate, f.IsHome, f.GamesPrior,
			f.RollingWinPct5, f.RollingWinPct10,
			f.RollingPointDiffAvg5, f.RollingPointDiffAvg10,
			f.WinPctLast5Vs10, f.PointDiffLast5Vs10,
			f.RecentStrengthIndex5,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert feature row: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit feature batch: %w", err)
	}

	log.Debug().Int("count", len(features)).Msg("Feature rows stored")
	return nil
}

// GetByTeamAndSeason retrieves one team's feature rows in schedule order
func (r *FeatureRepository) GetByTeamAndSeason(ctx context.Context, teamID, season int) ([]*models.FeatureRow, error) {
	query := `
		SELECT id, team_id, season, game_id, game_date, is_home, games_prior,
		       rolling_win_pct_5, rolling_win_pct_10,
		       rolling_point_diff_avg_5, rolling_point_diff_avg_10,
		       win_pct_last5_vs_last10, point_diff_last5_vs_last10,
		       recent_strength_index_5, created_at, updated_at
		FROM team_game_features
		WHERE team_id = $1 AND season = $2
		ORDER BY game_date, game_id
	`

	rows, err := r.db.Pool.Query(ctx, query, teamID, season)
	if err != nil {
		return nil, fmt.Errorf("failed to get feature rows: %w", err)
	}
	defer rows.Close()

	var features []*models.FeatureRow
	for rows.Next() {
		var f models.FeatureRow
		err := rows.Scan(
			&f.ID, &f.TeamID, &f.Season, &f.GameID, &f.GameDate, &f.IsHome, &f.GamesPrior,
			&f.RollingWinPct5, &f.RollingWinPct10,
			&f.RollingPointDiffAvg5, &f.RollingPointDiffAvg10,
			&f.WinPctLast5Vs10, &f.PointDiffLast5Vs10,
			&f.RecentStrengthIndex5, &f.CreatedAt, &f.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feature row: %w", err)
		}
		features = append(features, &f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feature rows: %w", err)
	}

	return features, nil
}

// CountBySeason returns the number of stored feature rows for a season
func (r *FeatureRepository) CountBySeason(ctx context.Context, season int) (int, error) {
	query := `SELECT COUNT(*) FROM team_game_features WHERE season = $1`

	var count int
	err := r.db.Pool.QueryRow(ctx, query, season).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count feature rows: %w", err)
	}

	return count, nil
}
