package models

import (
	"fmt"
	"time"
)

// TeamRating is one team's opponent-adjusted power rating for a season.
// Offense and defense are points per 100 possessions; net is their
// difference, and rank 1 belongs to the highest net.
type TeamRating struct {
	ID     int `db:"id"`
	Season int `db:"season"`
	TeamID int `db:"team_id"`

	RawOffense float64 `db:"raw_offense"`
	RawDefense float64 `db:"raw_defense"`
	AdjOffense float64 `db:"adj_offense"`
	AdjDefense float64 `db:"adj_defense"`
	NetRating  float64 `db:"net_rating"`
	SOSRating  float64 `db:"sos_rating"`

	GamesPlayed int `db:"games_played"`
	Wins        int `db:"wins"`
	Losses      int `db:"losses"`
	Rank        int `db:"rank"`

	UpdatedAt time.Time `db:"updated_at"`
}

// HasGames reports whether the rating is backed by any completed games.
// Teams that appear in the ledger but never finished a game carry the
// baseline rating and a zero record.
func (r *TeamRating) HasGames() bool {
	return r.GamesPlayed > 0
}

// Record formats the win-loss record, e.g. "18-2"
func (r *TeamRating) Record() string {
	return fmt.Sprintf("%d-%d", r.Wins, r.Losses)
}

// MatchupPrediction is the engine's forecast for a single game: the
// expected home margin and the probability the home team wins.
type MatchupPrediction struct {
	GameID     int `db:"game_id"`
	Season     int `db:"season"`
	HomeTeamID int `db:"home_team_id"`
	AwayTeamID int `db:"away_team_id"`

	ProjectedMargin float64 `db:"projected_margin"`
	HomeWinProb     float64 `db:"home_win_prob"`
	NeutralSite     bool    `db:"neutral_site"`

	UpdatedAt time.Time `db:"updated_at"`
}
