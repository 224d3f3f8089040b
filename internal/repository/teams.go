package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/jgamblin/NCAA-Prediction-sub001/internal/models"
)

// TeamRepository handles team and alias database operations
type TeamRepository struct {
	db *Database
}

// Upsert inserts or updates a team, keyed by its canonical name
func (r *TeamRepository) Upsert(ctx context.Context, team *models.Team) error {
	query := `
		INSERT INTO teams (name, conference)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET
			conference = EXCLUDED.conference,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := r.db.Pool.QueryRow(
		ctx, query,
		team.Name, team.Conference,
	).Scan(&team.ID, &team.CreatedAt, &team.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert team: %w", err)
	}

	return nil
}

// UpsertAlias maps a ledger spelling to a team id. Re-pointing an alias
// at a different team is allowed so seed corrections take effect.
func (r *TeamRepository) UpsertAlias(ctx context.Context, teamID int, alias string) error {
	query := `
		INSERT INTO team_aliases (team_id, alias)
		VALUES ($1, $2)
		ON CONFLICT (alias) DO UPDATE SET
			team_id = EXCLUDED.team_id
	`

	_, err := r.db.Pool.Exec(ctx, query, teamID, alias)
	if err != nil {
		return fmt.Errorf("failed to upsert alias: %w", err)
	}

	return nil
}

// GetByID retrieves a team by its database ID
func (r *TeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	query := `
		SELECT id, name, conference, created_at, updated_at
		FROM teams
		WHERE id = $1
	`

	var team models.Team
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&team.ID, &team.Name, &team.Conference,
		&team.CreatedAt, &team.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("team not found: id=%d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}

	return &team, nil
}

// GetByName retrieves a team by its canonical name
func (r *TeamRepository) GetByName(ctx context.Context, name string) (*models.Team, error) {
	query := `
		SELECT id, name, conference, created_at, updated_at
		FROM teams
		WHERE name = $1
	`

	var team models.Team
	err := r.db.Pool.QueryRow(ctx, query, name).Scan(
		&team.ID, &team.Name, &team.Conference,
		&team.CreatedAt, &team.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("team not found: name=%s", name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}

	return &team, nil
}

// List retrieves all teams
func (r *TeamRepository) List(ctx context.Context) ([]*models.Team, error) {
	query := `
		SELECT id, name, conference, created_at, updated_at
		FROM teams
		ORDER BY name
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	var teams []*models.Team
	for rows.Next() {
		var team models.Team
		err := rows.Scan(
			&team.ID, &team.Name, &team.Conference,
			&team.CreatedAt, &team.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, &team)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating teams: %w", err)
	}

	return teams, nil
}

// LoadAliasMap returns every known alias mapped to its team id. The
// resolver is built from this map at the start of each pipeline run.
func (r *TeamRepository) LoadAliasMap(ctx context.Context) (map[string]int, error) {
	query := `SELECT alias, team_id FROM team_aliases`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load alias map: %w", err)
	}
	defer rows.Close()

	aliases := make(map[string]int)
	for rows.Next() {
		var alias string
		var teamID int
		if err := rows.Scan(&alias, &teamID); err != nil {
			return nil, fmt.Errorf("failed to scan alias: %w", err)
		}
		aliases[alias] = teamID
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating aliases: %w", err)
	}

	log.Debug().Int("count", len(aliases)).Msg("Loaded alias map")
	return aliases, nil
}

// Delete deletes a team
func (r *TeamRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM teams WHERE id = $1`

	result, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("team not found: id=%d", id)
	}

	log.Debug().Int("id", id).Msg("Team deleted")
	return nil
}

// Count returns the total number of teams
func (r *TeamRepository) Count(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM teams`

	var count int
	err := r.db.Pool.QueryRow(ctx, query).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count teams: %w", err)
	}

	return count, nil
}
