package repository

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgamblin/NCAA-Prediction-sub001/internal/models"
)

func TestTeamRepository_Upsert(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	team := &models.Team{
		Name:       "Michigan State",
		Conference: sql.NullString{String: "Big Ten", Valid: true},
	}

	// Insert new team
	err := db.Teams.Upsert(ctx, team)
	require.NoError(t, err, "Should successfully insert team")
	assert.Greater(t, team.ID, 0, "Should assign a database id")

	// Verify team was created
	retrieved, err := db.Teams.GetByName(ctx, "Michigan State")
	require.NoError(t, err, "Should retrieve inserted team")
	assert.Equal(t, team.ID, retrieved.ID, "IDs should match")
	assert.Equal(t, "Big Ten", retrieved.Conference.String, "Conference should match")

	// Update existing team
	team.Conference = sql.NullString{String: "B1G", Valid: true}
	err = db.Teams.Upsert(ctx, team)
	require.NoError(t, err, "Should successfully update team")

	// Verify update kept the same id
	updated, err := db.Teams.GetByName(ctx, "Michigan State")
	require.NoError(t, err, "Should retrieve updated team")
	assert.Equal(t, team.ID, updated.ID, "Upsert should not create a second row")
}

func TestTeamRepository_AliasMap(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	team := &models.Team{Name: "Saint Mary's"}
	err := db.Teams.Upsert(ctx, team)
	require.NoError(t, err, "Should insert team")

	// Point two ledger spellings at the same team
	require.NoError(t, db.Teams.UpsertAlias(ctx, team.ID, "Saint Mary's"))
	require.NoError(t, db.Teams.UpsertAlias(ctx, team.ID, "St. Mary's (CA)"))

	aliases, err := db.Teams.LoadAliasMap(ctx)
	require.NoError(t, err, "Should load alias map")
	assert.Equal(t, team.ID, aliases["Saint Mary's"], "Canonical spelling should resolve")
	assert.Equal(t, team.ID, aliases["St. Mary's (CA)"], "Alternate spelling should resolve")

	// Re-pointing an alias replaces the mapping instead of failing
	other := &models.Team{Name: "Mount St. Mary's"}
	require.NoError(t, db.Teams.Upsert(ctx, other))
	require.NoError(t, db.Teams.UpsertAlias(ctx, other.ID, "St. Mary's (CA)"))

	aliases, err = db.Teams.LoadAliasMap(ctx)
	require.NoError(t, err, "Should reload alias map")
	assert.Equal(t, other.ID, aliases["St. Mary's (CA)"], "Alias should follow the correction")
}

func TestTeamRepository_GetNotFound(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	// Try to get non-existent team
	_, err := db.Teams.GetByName(ctx, "No Such School")
	assert.Error(t, err, "Should return error for non-existent team")
}
