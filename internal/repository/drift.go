package repository

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/jgamblin/NCAA-Prediction-sub001/internal/models"
)

// DriftRepository handles accuracy drift metric and anomaly storage
type DriftRepository struct {
	db *Database
}

// UpsertMetrics stores drift metric rows in one transaction, keyed by
// (scope_key, game_id). Recomputes over the same ledger overwrite the
// same keys with identical values.
func (r *DriftRepository) UpsertMetrics(ctx context.Context, metrics []*models.DriftMetricRow) error {
	if len(metrics) == 0 {
		return nil
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin drift batch: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO drift_metrics (
			scope_key, scope_type, season, team_id, game_id, game_date, games_seen,
			cum_accuracy, cum_log_loss, cum_brier,
			rolling_accuracy, rolling_log_loss, rolling_brier,
			expected_wins, actual_wins, computed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (scope_key, game_id) DO UPDATE SET
			games_seen = EXCLUDED.games_seen,
			game_date = EXCLUDED.game_date,
			cum_accuracy = EXCLUDED.cum_accuracy,
			cum_log_loss = EXCLUDED.cum_log_loss,
			cum_brier = EXCLUDED.cum_brier,
			rolling_accuracy = EXCLUDED.rolling_accuracy,
			rolling_log_loss = EXCLUDED.rolling_log_loss,
			rolling_brier = EXCLUDED.rolling_brier,
			expected_wins = EXCLUDED.expected_wins,
			actual_wins = EXCLUDED.actual_wins,
			computed_at = EXCLUDED.computed_at
	`

	for _, m := range metrics {
		_, err := tx.Exec(
			ctx, query,
			m.ScopeKey(), m.ScopeType, m.Season, m.TeamID, m.GameID, m.GameDate, m.GamesSeen,
			m.CumAccuracy, m.CumLogLoss, m.CumBrier,
			m.RollingAccuracy, m.RollingLogLoss, m.RollingBrier,
			m.ExpectedWins, m.ActualWins, m.ComputedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert drift metric: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit drift batch: %w", err)
	}

	log.Debug().Int("count", len(metrics)).Msg("Drift metrics stored")
	return nil
}

// GetMetricsByScope retrieves one scope's metric series in evaluation order
func (r *DriftRepository) GetMetricsByScope(ctx context.Context, scopeKey string) ([]*models.DriftMetricRow, error) {
	query := `
		SELECT id, scope_type, season, team_id, game_id, game_date, games_seen,
		       cum_accuracy, cum_log_loss, cum_brier,
		       rolling_accuracy, rolling_log_loss, rolling_brier,
		       expected_wins, actual_wins, computed_at
		FROM drift_metrics
		WHERE scope_key = $1
		ORDER BY games_seen
	`

	rows, err := r.db.Pool.Query(ctx, query, scopeKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get drift metrics: %w", err)
	}
	defer rows.Close()

	var metrics []*models.DriftMetricRow
	for rows.Next() {
		var m models.DriftMetricRow
		err := rows.Scan(
			&m.ID, &m.ScopeType, &m.Season, &m.TeamID, &m.GameID, &m.GameDate, &m.GamesSeen,
			&m.CumAccuracy, &m.CumLogLoss, &m.CumBrier,
			&m.RollingAccuracy, &m.RollingLogLoss, &m.RollingBrier,
			&m.ExpectedWins, &m.ActualWins, &m.ComputedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan drift metric: %w", err)
		}
		metrics = append(metrics, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating drift metrics: %w", err)
	}

	return metrics, nil
}

// ReplaceAnomalies swaps the anomaly table for the latest detection
// result. A team that recovered must drop out, so this is a full
// replace, not an upsert.
func (r *DriftRepository) ReplaceAnomalies(ctx context.Context, anomalies []*models.AnomalyRecord) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin anomaly replace: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM drift_anomalies`); err != nil {
		return fmt.Errorf("failed to clear anomalies: %w", err)
	}

	query := `
		INSERT INTO drift_anomalies (
			season, team_id, games_seen, cum_accuracy, rolling_accuracy,
			accuracy_delta, flagged_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, a := range anomalies {
		_, err := tx.Exec(
			ctx, query,
			a.Season, a.TeamID, a.GamesSeen, a.CumAccuracy, a.RollingAccuracy,
			a.AccuracyDelta, a.FlaggedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert anomaly: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit anomaly replace: %w", err)
	}

	log.Debug().Int("count", len(anomalies)).Msg("Anomaly flags replaced")
	return nil
}

// ListAnomalies retrieves the current anomaly flags
func (r *DriftRepository) ListAnomalies(ctx context.Context) ([]*models.AnomalyRecord, error) {
	query := `
		SELECT id, season, team_id, games_seen, cum_accuracy, rolling_accuracy,
		       accuracy_delta, flagged_at
		FROM drift_anomalies
		ORDER BY season, team_id
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list anomalies: %w", err)
	}
	defer rows.Close()

	var anomalies []*models.AnomalyRecord
	for rows.Next() {
		var a models.AnomalyRecord
		err := rows.Scan(
			&a.ID, &a.Season, &a.TeamID, &a.GamesSeen, &a.CumAccuracy, &a.RollingAccuracy,
			&a.AccuracyDelta, &a.FlaggedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan anomaly: %w", err)
		}
		anomalies = append(anomalies, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating anomalies: %w", err)
	}

	return anomalies, nil
}
