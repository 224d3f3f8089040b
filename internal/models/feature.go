package models

import (
	"database/sql"
	"time"
)

// FeatureRow holds the leakage-free rolling features for one team entering
// one game. Every value is computed from strictly earlier games; windowed
// fields stay null until the team has a full window of prior games.
type FeatureRow struct {
	ID     int `db:"id"`
	TeamID int `db:"team_id"`
	Season int `db:"season"`
	GameID int `db:"game_id"`

	GameDate   time.Time `db:"game_date"`
	IsHome     bool      `db:"is_home"`
	GamesPrior int       `db:"games_prior"`

	RollingWinPct5        sql.NullFloat64 `db:"rolling_win_pct_5"`
	RollingWinPct10       sql.NullFloat64 `db:"rolling_win_pct_10"`
	RollingPointDiffAvg5  sql.NullFloat64 `db:"rolling_point_diff_avg_5"`
	RollingPointDiffAvg10 sql.NullFloat64 `db:"rolling_point_diff_avg_10"`

	// Derived comparisons, null whenever either source window is null
	WinPctLast5Vs10      sql.NullFloat64 `db:"win_pct_last5_vs_last10"`
	PointDiffLast5Vs10   sql.NullFloat64 `db:"point_diff_last5_vs_last10"`
	RecentStrengthIndex5 sql.NullFloat64 `db:"recent_strength_index_5"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Complete reports whether every windowed feature is populated, meaning the
// team had at least ten prior games in the season.
func (f *FeatureRow) Complete() bool {
	return f.RollingWinPct5.Valid && f.RollingWinPct10.Valid &&
		f.RollingPointDiffAvg5.Valid && f.RollingPointDiffAvg10.Valid
}
