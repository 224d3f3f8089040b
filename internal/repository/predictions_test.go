package repository

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgamblin/NCAA-Prediction-sub001/internal/models"
)

func TestPredictionRepository_InsertIdempotent(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	home := &models.Team{Name: "Purdue"}
	away := &models.Team{Name: "Indiana"}
	require.NoError(t, db.Teams.Upsert(ctx, home))
	require.NoError(t, db.Teams.Upsert(ctx, away))

	game := &models.Game{
		GameID:      910001,
		Season:      2025,
		HomeTeamID:  home.ID,
		AwayTeamID:  away.ID,
		HomeTeamRaw: "Purdue",
		AwayTeamRaw: "Indiana",
		GameDate:    time.Date(2025, 1, 18, 0, 0, 0, 0, time.UTC),
		Status:      "Final",
		HomeScore:   sql.NullInt32{Int32: 70, Valid: true},
		AwayScore:   sql.NullInt32{Int32: 65, Valid: true},
	}
	require.NoError(t, db.Games.Upsert(ctx, game))

	before, err := db.Predictions.Count(ctx)
	require.NoError(t, err)

	rec := &models.PredictionRecord{
		GameID:             910001,
		HomeWinProbability: 0.64,
		Source:             models.SourceLive,
		PredictionTime:     time.Date(2025, 1, 17, 18, 0, 0, 0, time.UTC),
	}

	// Same ledger row ingested twice
	require.NoError(t, db.Predictions.Insert(ctx, rec))
	require.NoError(t, db.Predictions.Insert(ctx, rec))

	after, err := db.Predictions.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, before+1, after, "Duplicate ingest should not add rows")
}

func TestPredictionRepository_ListAllAssignsInputOrder(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	home := &models.Team{Name: "Arizona"}
	away := &models.Team{Name: "UCLA"}
	require.NoError(t, db.Teams.Upsert(ctx, home))
	require.NoError(t, db.Teams.Upsert(ctx, away))

	game := &models.Game{
		GameID:      910002,
		Season:      2025,
		HomeTeamID:  home.ID,
		AwayTeamID:  away.ID,
		HomeTeamRaw: "Arizona",
		AwayTeamRaw: "UCLA",
		GameDate:    time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC),
		Status:      "Final",
		HomeScore:   sql.NullInt32{Int32: 82, Valid: true},
		AwayScore:   sql.NullInt32{Int32: 79, Valid: true},
	}
	require.NoError(t, db.Games.Upsert(ctx, game))

	when := time.Date(2025, 1, 19, 12, 0, 0, 0, time.UTC)
	for i, source := range []string{models.SourceReconstructed, models.SourceBackfillInitial, models.SourceLive} {
		rec := &models.PredictionRecord{
			GameID:             910002,
			HomeWinProbability: 0.5 + float64(i)*0.1,
			Source:             source,
			PredictionTime:     when,
		}
		require.NoError(t, db.Predictions.Insert(ctx, rec))
	}

	records, err := db.Predictions.ListAll(ctx)
	require.NoError(t, err, "Should list records")

	// InputOrder follows read order, dense from zero
	for i, rec := range records {
		assert.Equal(t, i, rec.InputOrder, "InputOrder should follow row order")
	}

	counts, err := db.Predictions.CountBySource(ctx)
	require.NoError(t, err, "Should count by source")
	assert.GreaterOrEqual(t, counts[models.SourceLive], 1, "Live records should be counted")
}
