package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgamblin/NCAA-Prediction-sub001/internal/models"
)

func insertFinalGame(t *testing.T, ctx context.Context, db *Database, gameID int, home, away *models.Team, day time.Time) {
	t.Helper()

	game := &models.Game{
		GameID:      gameID,
		Season:      2025,
		HomeTeamID:  home.ID,
		AwayTeamID:  away.ID,
		HomeTeamRaw: home.Name,
		AwayTeamRaw: away.Name,
		GameDate:    day,
		Status:      "Final",
		HomeScore:   sql.NullInt32{Int32: 75, Valid: true},
		AwayScore:   sql.NullInt32{Int32: 70, Valid: true},
	}
	require.NoError(t, db.Games.Upsert(ctx, game))
}

func TestFeatureRepository_UpsertBatch(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	home := &models.Team{Name: "Wisconsin"}
	away := &models.Team{Name: "Illinois"}
	require.NoError(t, db.Teams.Upsert(ctx, home))
	require.NoError(t, db.Teams.Upsert(ctx, away))

	first := time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)
	second := first.AddDate(0, 0, 3)
	insertFinalGame(t, ctx, db, 940001, home, away, first)
	insertFinalGame(t, ctx, db, 940002, home, away, second)

	rows := []*models.FeatureRow{
		{
			TeamID: home.ID, Season: 2025, GameID: 940001,
			GameDate: first, IsHome: true, GamesPrior: 0,
			// Opening game: every rolling column stays null
		},
		{
			TeamID: home.ID, Season: 2025, GameID: 940002,
			GameDate: second, IsHome: true, GamesPrior: 6,
			RollingWinPct5:       sql.NullFloat64{Float64: 0.8, Valid: true},
			RollingPointDiffAvg5: sql.NullFloat64{Float64: 6.4, Valid: true},
			RecentStrengthIndex5: sql.NullFloat64{Float64: 5.12, Valid: true},
		},
	}
	require.NoError(t, db.Features.UpsertBatch(ctx, rows), "Should store feature rows")

	stored, err := db.Features.GetByTeamAndSeason(ctx, home.ID, 2025)
	require.NoError(t, err, "Should read feature rows")
	require.Len(t, stored, 2, "One row per game")

	// Schedule order, nulls intact
	assert.Equal(t, 940001, stored[0].GameID)
	assert.Equal(t, 0, stored[0].GamesPrior)
	assert.False(t, stored[0].RollingWinPct5.Valid, "Opening game has no prior window")
	assert.False(t, stored[0].RecentStrengthIndex5.Valid)

	assert.Equal(t, 6, stored[1].GamesPrior)
	require.True(t, stored[1].RollingWinPct5.Valid)
	assert.InDelta(t, 0.8, stored[1].RollingWinPct5.Float64, 1e-9)
	assert.False(t, stored[1].RollingWinPct10.Valid, "Long window still unfilled")

	// A rebuild over a longer ledger rewrites the same keys in place
	rows[1].RollingWinPct5 = sql.NullFloat64{Float64: 0.6, Valid: true}
	require.NoError(t, db.Features.UpsertBatch(ctx, rows), "Should overwrite feature rows")

	stored, err = db.Features.GetByTeamAndSeason(ctx, home.ID, 2025)
	require.NoError(t, err)
	require.Len(t, stored, 2, "Rebuild should not duplicate rows")
	assert.InDelta(t, 0.6, stored[1].RollingWinPct5.Float64, 1e-9)

	count, err := db.Features.CountBySeason(ctx, 2025)
	require.NoError(t, err, "Should count season rows")
	assert.GreaterOrEqual(t, count, 2)
}

func TestFeatureRepository_EmptyBatch(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	// A season with no completed games produces no rows and no error
	assert.NoError(t, db.Features.UpsertBatch(ctx, nil))
}
