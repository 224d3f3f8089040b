package models

import (
	"database/sql"
	"fmt"
	"time"
)

// Drift metric scopes, from coarsest to finest
const (
	ScopeGlobal     = "global"
	ScopeSeason     = "season"
	ScopeSeasonTeam = "season_team"
)

// DriftMetricRow is one point in a forecast-accuracy time series: the
// cumulative and rolling metrics for a scope as of one game. Rows are
// append-only and deduplicated by (scope key, game id).
type DriftMetricRow struct {
	ID        int    `db:"id"`
	ScopeType string `db:"scope_type"`

	// Season and TeamID narrow the scope; both null for global rows,
	// TeamID null for season rows.
	Season sql.NullInt32 `db:"season"`
	TeamID sql.NullInt32 `db:"team_id"`

	GameID    int       `db:"game_id"`
	GameDate  time.Time `db:"game_date"`
	GamesSeen int       `db:"games_seen"`

	CumAccuracy float64 `db:"cum_accuracy"`
	CumLogLoss  float64 `db:"cum_log_loss"`
	CumBrier    float64 `db:"cum_brier"`

	// Rolling metrics are null until games_seen reaches the window
	RollingAccuracy sql.NullFloat64 `db:"rolling_accuracy"`
	RollingLogLoss  sql.NullFloat64 `db:"rolling_log_loss"`
	RollingBrier    sql.NullFloat64 `db:"rolling_brier"`

	ExpectedWins float64 `db:"expected_wins"`
	ActualWins   int     `db:"actual_wins"`

	ComputedAt time.Time `db:"computed_at"`
}

// ScopeKey returns the string that identifies this row's scope, used as the
// dedup key alongside the game id.
func (d *DriftMetricRow) ScopeKey() string {
	switch d.ScopeType {
	case ScopeSeason:
		return fmt.Sprintf("season:%d", d.Season.Int32)
	case ScopeSeasonTeam:
		return fmt.Sprintf("season:%d:team:%d", d.Season.Int32, d.TeamID.Int32)
	default:
		return ScopeGlobal
	}
}

// AnomalyRecord flags a (season, team) whose recent forecast accuracy has
// diverged sharply from its long-run accuracy. Recomputed each run as a
// snapshot of the latest per-team drift row.
type AnomalyRecord struct {
	ID     int `db:"id"`
	Season int `db:"season"`
	TeamID int `db:"team_id"`

	GamesSeen       int     `db:"games_seen"`
	CumAccuracy     float64 `db:"cum_accuracy"`
	RollingAccuracy float64 `db:"rolling_accuracy"`
	AccuracyDelta   float64 `db:"accuracy_delta"`

	FlaggedAt time.Time `db:"flagged_at"`
}
