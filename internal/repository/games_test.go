package repository

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgamblin/NCAA-Prediction-sub001/internal/models"
)

func TestGameRepository_Upsert(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	home := &models.Team{Name: "Duke"}
	away := &models.Team{Name: "North Carolina"}
	require.NoError(t, db.Teams.Upsert(ctx, home))
	require.NoError(t, db.Teams.Upsert(ctx, away))

	game := &models.Game{
		GameID:      900001,
		Season:      2025,
		HomeTeamID:  home.ID,
		AwayTeamID:  away.ID,
		HomeTeamRaw: "Duke",
		AwayTeamRaw: "North Carolina",
		GameDate:    time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		Status:      "Scheduled",
		HomeScore:   sql.NullInt32{Valid: false},
		AwayScore:   sql.NullInt32{Valid: false},
	}

	// Insert as scheduled
	err := db.Games.Upsert(ctx, game)
	require.NoError(t, err, "Should insert scheduled game")

	retrieved, err := db.Games.GetByGameID(ctx, 900001)
	require.NoError(t, err, "Should retrieve game")
	assert.Equal(t, "Scheduled", retrieved.Status)
	assert.False(t, retrieved.HomeScore.Valid, "Scheduled game has no score")

	// Scores arrive on a later poll cycle
	game.Status = "Final"
	game.HomeScore = sql.NullInt32{Int32: 78, Valid: true}
	game.AwayScore = sql.NullInt32{Int32: 74, Valid: true}

	err = db.Games.Upsert(ctx, game)
	require.NoError(t, err, "Should update game with final score")

	updated, err := db.Games.GetByGameID(ctx, 900001)
	require.NoError(t, err)
	assert.Equal(t, "Final", updated.Status)
	assert.Equal(t, int32(78), updated.HomeScore.Int32)
	assert.True(t, updated.IsFinal(), "Game should report final")
	assert.True(t, updated.HomeWon(), "Home side won this one")
}

func TestGameRepository_GetBySeasonOrdering(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	home := &models.Team{Name: "Gonzaga"}
	away := &models.Team{Name: "Baylor"}
	require.NoError(t, db.Teams.Upsert(ctx, home))
	require.NoError(t, db.Teams.Upsert(ctx, away))

	base := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	// Insert out of order on purpose
	for _, g := range []struct {
		gameID int
		day    int
	}{
		{900103, 5},
		{900101, 0},
		{900102, 0},
	} {
		game := &models.Game{
			GameID:      g.gameID,
			Season:      2025,
			HomeTeamID:  home.ID,
			AwayTeamID:  away.ID,
			HomeTeamRaw: "Gonzaga",
			AwayTeamRaw: "Baylor",
			GameDate:    base.AddDate(0, 0, g.day),
			Status:      "Final",
			HomeScore:   sql.NullInt32{Int32: 80, Valid: true},
			AwayScore:   sql.NullInt32{Int32: 75, Valid: true},
		}
		require.NoError(t, db.Games.Upsert(ctx, game))
	}

	games, err := db.Games.GetBySeason(ctx, 2025)
	require.NoError(t, err, "Should list season games")

	// Same date orders by game_id
	var ids []int
	for _, g := range games {
		if g.GameID >= 900101 && g.GameID <= 900103 {
			ids = append(ids, g.GameID)
		}
	}
	assert.Equal(t, []int{900101, 900102, 900103}, ids, "Should order by date then game_id")
}

func TestGameRepository_ListSeasons(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	home := &models.Team{Name: "Kansas"}
	away := &models.Team{Name: "Kentucky"}
	require.NoError(t, db.Teams.Upsert(ctx, home))
	require.NoError(t, db.Teams.Upsert(ctx, away))

	for i, season := range []int{2024, 2025} {
		game := &models.Game{
			GameID:      900200 + i,
			Season:      season,
			HomeTeamID:  home.ID,
			AwayTeamID:  away.ID,
			HomeTeamRaw: "Kansas",
			AwayTeamRaw: "Kentucky",
			GameDate:    time.Date(season-1, 11, 20, 0, 0, 0, 0, time.UTC),
			Status:      "Scheduled",
		}
		require.NoError(t, db.Games.Upsert(ctx, game))
	}

	seasons, err := db.Games.ListSeasons(ctx)
	require.NoError(t, err, "Should list seasons")
	assert.Contains(t, seasons, 2024)
	assert.Contains(t, seasons, 2025)
	assert.True(t, sortedAscending(seasons), "Seasons should be ordered")
}

func TestGameRepository_LastUpdatedAt(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	before, err := db.Games.LastUpdatedAt(ctx)
	require.NoError(t, err, "Should read watermark on empty or populated table")

	home := &models.Team{Name: "Villanova"}
	away := &models.Team{Name: "Creighton"}
	require.NoError(t, db.Teams.Upsert(ctx, home))
	require.NoError(t, db.Teams.Upsert(ctx, away))

	game := &models.Game{
		GameID:      900300,
		Season:      2025,
		HomeTeamID:  home.ID,
		AwayTeamID:  away.ID,
		HomeTeamRaw: "Villanova",
		AwayTeamRaw: "Creighton",
		GameDate:    time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
		Status:      "Scheduled",
	}
	require.NoError(t, db.Games.Upsert(ctx, game))

	after, err := db.Games.LastUpdatedAt(ctx)
	require.NoError(t, err, "Should read watermark after write")
	assert.False(t, after.IsZero(), "Watermark should be set once games exist")
	assert.False(t, after.Before(before), "Watermark should move forward")
}

func sortedAscending(values []int) bool {
	for i := 1; i < len(values); i++ {
		if values[i] < values[i-1] {
			return false
		}
	}
	return true
}
