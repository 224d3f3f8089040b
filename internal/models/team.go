package models

import (
	"database/sql"
	"time"
)

// Team represents a college basketball team under its canonical name
type Team struct {
	ID         int            `db:"id"`
	Name       string         `db:"name"`
	Conference sql.NullString `db:"conference"`
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at"`
}

// TeamAlias maps one source spelling of a team name to its canonical team.
// The ledger files spell names inconsistently ("UNC", "North Carolina",
// "N. Carolina"); aliases are how the resolver folds them together.
type TeamAlias struct {
	ID        int       `db:"id"`
	TeamID    int       `db:"team_id"`
	Alias     string    `db:"alias"`
	CreatedAt time.Time `db:"created_at"`
}

// TeamSeedInput is one parsed row of the team seed file: a canonical name
// plus every known alias for it.
type TeamSeedInput struct {
	Name       string
	Conference string
	Aliases    []string
}

// ToTeam converts a seed row to a Team model
func (ti *TeamSeedInput) ToTeam() *Team {
	team := &Team{
		Name: ti.Name,
	}

	if ti.Conference != "" {
		team.Conference = sql.NullString{String: ti.Conference, Valid: true}
	}

	return team
}
