package models

import (
	"database/sql"
	"time"
)

// Game represents a college basketball game from the results ledger
type Game struct {
	ID     int `db:"id"`
	GameID int `db:"game_id"`
	Season int `db:"season"`

	HomeTeamID  int    `db:"home_team_id"`
	AwayTeamID  int    `db:"away_team_id"`
	HomeTeamRaw string `db:"home_team_raw"`
	AwayTeamRaw string `db:"away_team_raw"`

	GameDate    time.Time `db:"game_date"`
	Status      string    `db:"status"`
	NeutralSite bool      `db:"neutral_site"`

	// Scores (null until reported)
	HomeScore sql.NullInt32 `db:"home_score"`
	AwayScore sql.NullInt32 `db:"away_score"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// GameInput is one parsed row of the game ledger file.
// Team names are raw strings; canonical ids are assigned by the identity resolver.
type GameInput struct {
	GameID    int
	Season    int
	GameDate  time.Time
	HomeTeam  string
	AwayTeam  string
	HomeScore *int
	AwayScore *int
	Status    string
	Neutral   bool
}

// ToGame converts a ledger row to a Game once both team ids are resolved
func (gi *GameInput) ToGame(homeTeamID, awayTeamID int) *Game {
	game := &Game{
		GameID:      gi.GameID,
		Season:      gi.Season,
		HomeTeamID:  homeTeamID,
		AwayTeamID:  awayTeamID,
		HomeTeamRaw: gi.HomeTeam,
		AwayTeamRaw: gi.AwayTeam,
		GameDate:    gi.GameDate,
		Status:      gi.Status,
		NeutralSite: gi.Neutral,
	}

	if gi.HomeScore != nil {
		game.HomeScore = sql.NullInt32{Int32: int32(*gi.HomeScore), Valid: true}
	}
	if gi.AwayScore != nil {
		game.AwayScore = sql.NullInt32{Int32: int32(*gi.AwayScore), Valid: true}
	}

	return game
}

// IsScheduled returns true if the game has not started
func (g *Game) IsScheduled() bool {
	return g.Status == "Scheduled"
}

// IsFinal returns true if the game is completed
func (g *Game) IsFinal() bool {
	return g.Status == "Final"
}

// HasScores returns true if both scores are present
func (g *Game) HasScores() bool {
	return g.HomeScore.Valid && g.AwayScore.Valid
}

// HomeWon reports whether the home team won. Only meaningful for Final
// games with scores.
func (g *Game) HomeWon() bool {
	return g.HasScores() && g.HomeScore.Int32 > g.AwayScore.Int32
}

// Before reports whether g comes strictly earlier than o in the
// chronological order (season, date, game_id). Every as-of computation in
// the engines relies on this single ordering.
func (g *Game) Before(o *Game) bool {
	if g.Season != o.Season {
		return g.Season < o.Season
	}
	if !g.GameDate.Equal(o.GameDate) {
		return g.GameDate.Before(o.GameDate)
	}
	return g.GameID < o.GameID
}

// TeamGameRow is a single team's perspective of one completed game.
// Each Final game expands into two of these; they are derived on demand and
// never persisted on their own.
type TeamGameRow struct {
	TeamID     int
	OpponentID int
	Season     int
	GameID     int
	GameDate   time.Time
	IsHome     bool
	Won        bool
	PointDiff  int
}

// Before reports whether r comes strictly earlier than o within one team's
// ordered game list (season, date, game_id).
func (r *TeamGameRow) Before(o *TeamGameRow) bool {
	if r.Season != o.Season {
		return r.Season < o.Season
	}
	if !r.GameDate.Equal(o.GameDate) {
		return r.GameDate.Before(o.GameDate)
	}
	return r.GameID < o.GameID
}

// SeasonForDate returns the season label for a calendar date. Seasons are
// named by their spring year: November 2025 tip-off through the 2026
// tournament is season 2026, and anything from May onward counts toward the
// upcoming season.
func SeasonForDate(t time.Time) int {
	if t.Month() >= time.May {
		return t.Year() + 1
	}
	return t.Year()
}
