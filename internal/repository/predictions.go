package repository

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/jgamblin/NCAA-Prediction-sub001/internal/models"
)

// PredictionRepository handles forecast record database operations.
// The table is append-only: superseded records are never updated or
// deleted, the drift engine picks a winner per game at read time.
type PredictionRepository struct {
	db *Database
}

// Insert stores a forecast record. Re-ingesting the same ledger file is
// a no-op because (game_id, source, prediction_time) is unique.
func (r *PredictionRepository) Insert(ctx context.Context, pred *models.PredictionRecord) error {
	query := `
		INSERT INTO prediction_records (
			game_id, home_win_probability, source, prediction_time, metadata
		) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (game_id, source, prediction_time) DO NOTHING
	`

	_, err := r.db.Pool.Exec(
		ctx, query,
		pred.GameID, pred.HomeWinProbability, pred.Source, pred.PredictionTime, pred.Metadata,
	)

	if err != nil {
		return fmt.Errorf("failed to insert prediction record: %w", err)
	}

	return nil
}

// ListAll retrieves every forecast record in ingest order. InputOrder is
// assigned from the row position so the dedup tiebreak is stable across
// reads.
func (r *PredictionRepository) ListAll(ctx context.Context) ([]*models.PredictionRecord, error) {
	query := `
		SELECT id, game_id, home_win_probability, source, prediction_time, metadata, created_at
		FROM prediction_records
		ORDER BY id
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list prediction records: %w", err)
	}
	defer rows.Close()

	var records []*models.PredictionRecord
	for rows.Next() {
		var rec models.PredictionRecord
		err := rows.Scan(
			&rec.ID, &rec.GameID, &rec.HomeWinProbability, &rec.Source,
			&rec.PredictionTime, &rec.Metadata, &rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prediction record: %w", err)
		}
		rec.InputOrder = len(records)
		records = append(records, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prediction records: %w", err)
	}

	log.Debug().Int("count", len(records)).Msg("Retrieved prediction records")
	return records, nil
}

// CountBySource returns record counts keyed by provenance source
func (r *PredictionRepository) CountBySource(ctx context.Context) (map[string]int, error) {
	query := `SELECT source, COUNT(*) FROM prediction_records GROUP BY source`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count prediction records: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			return nil, fmt.Errorf("failed to scan source count: %w", err)
		}
		counts[source] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating source counts: %w", err)
	}

	return counts, nil
}

// Count returns the total number of forecast records
func (r *PredictionRepository) Count(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM prediction_records`

	var count int
	err := r.db.Pool.QueryRow(ctx, query).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count prediction records: %w", err)
	}

	return count, nil
}
