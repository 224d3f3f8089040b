package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgamblin/NCAA-Prediction-sub001/internal/models"
)

func TestRatingRepository_UpsertSnapshot(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	a := &models.Team{Name: "Houston"}
	b := &models.Team{Name: "Auburn"}
	require.NoError(t, db.Teams.Upsert(ctx, a))
	require.NoError(t, db.Teams.Upsert(ctx, b))

	season := 2025
	snapshot := []*models.TeamRating{
		{
			Season: season, TeamID: a.ID,
			RawOffense: 118.2, RawDefense: 94.1,
			AdjOffense: 121.5, AdjDefense: 92.8,
			NetRating: 28.7, SOSRating: 6.1,
			GamesPlayed: 20, Wins: 18, Losses: 2, Rank: 1,
		},
		{
			Season: season, TeamID: b.ID,
			RawOffense: 112.4, RawDefense: 97.9,
			AdjOffense: 114.0, AdjDefense: 96.5,
			NetRating: 17.5, SOSRating: 4.8,
			GamesPlayed: 20, Wins: 16, Losses: 4, Rank: 2,
		},
	}

	require.NoError(t, db.Ratings.UpsertSnapshot(ctx, snapshot), "Should store snapshot")

	ratings, err := db.Ratings.GetBySeason(ctx, season)
	require.NoError(t, err, "Should read season ratings")
	require.GreaterOrEqual(t, len(ratings), 2)
	assert.Equal(t, a.ID, ratings[0].TeamID, "Rank 1 should come first")

	// Recompute shifts the numbers, same keys
	snapshot[0].NetRating = 29.4
	snapshot[0].Wins = 19
	snapshot[0].GamesPlayed = 21
	require.NoError(t, db.Ratings.UpsertSnapshot(ctx, snapshot), "Should overwrite snapshot")

	updated, err := db.Ratings.GetByTeamAndSeason(ctx, a.ID, season)
	require.NoError(t, err, "Should read single rating")
	assert.InDelta(t, 29.4, updated.NetRating, 1e-9, "Net rating should be updated in place")
	assert.Equal(t, 19, updated.Wins)
}

func TestRatingRepository_Matchups(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	home := &models.Team{Name: "Tennessee"}
	away := &models.Team{Name: "Florida"}
	require.NoError(t, db.Teams.Upsert(ctx, home))
	require.NoError(t, db.Teams.Upsert(ctx, away))

	game := &models.Game{
		GameID:      920001,
		Season:      2025,
		HomeTeamID:  home.ID,
		AwayTeamID:  away.ID,
		HomeTeamRaw: "Tennessee",
		AwayTeamRaw: "Florida",
		GameDate:    time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC),
		Status:      "Scheduled",
	}
	require.NoError(t, db.Games.Upsert(ctx, game))

	matchups := []*models.MatchupPrediction{
		{
			GameID:          920001,
			Season:          2025,
			HomeTeamID:      home.ID,
			AwayTeamID:      away.ID,
			ProjectedMargin: 5.8,
			HomeWinProb:     0.70,
		},
	}
	require.NoError(t, db.Ratings.UpsertMatchups(ctx, matchups), "Should store matchups")

	stored, err := db.Ratings.GetMatchupsBySeason(ctx, 2025)
	require.NoError(t, err, "Should read matchups")

	var found *models.MatchupPrediction
	for _, m := range stored {
		if m.GameID == 920001 {
			found = m
		}
	}
	require.NotNil(t, found, "Stored matchup should round-trip")
	assert.InDelta(t, 5.8, found.ProjectedMargin, 1e-9)
	assert.InDelta(t, 0.70, found.HomeWinProb, 1e-9)
}
