package engine

import (
	"database/sql"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/jgamblin/NCAA-Prediction-sub001/internal/models"
)

// Default trailing windows for rolling form features
const (
	DefaultShortWindow = 5
	DefaultLongWindow  = 10
)

// FeatureEngine derives per-team rolling features where every value is
// computed from games strictly before the row's own game. Windows never
// cross a season boundary.
type FeatureEngine struct {
	ShortWindow int
	LongWindow  int
}

// NewFeatureEngine returns an engine with the standard 5 and 10 game windows
func NewFeatureEngine() *FeatureEngine {
	return &FeatureEngine{
		ShortWindow: DefaultShortWindow,
		LongWindow:  DefaultLongWindow,
	}
}

// ExpandToTeamRows turns each completed game into two team-perspective
// rows. Games that are not Final or are missing a score produce nothing.
func ExpandToTeamRows(games []*models.Game) []models.TeamGameRow {
	rows := make([]models.TeamGameRow, 0, 2*len(games))

	for _, g := range games {
		if !g.IsFinal() || !g.HasScores() {
			continue
		}
		home, away := int(g.HomeScore.Int32), int(g.AwayScore.Int32)

		rows = append(rows, models.TeamGameRow{
			TeamID:     g.HomeTeamID,
			OpponentID: g.AwayTeamID,
			Season:     g.Season,
			GameID:     g.GameID,
			GameDate:   g.GameDate,
			IsHome:     true,
			Won:        home > away,
			PointDiff:  home - away,
		}, models.TeamGameRow{
			TeamID:     g.AwayTeamID,
			OpponentID: g.HomeTeamID,
			Season:     g.Season,
			GameID:     g.GameID,
			GameDate:   g.GameDate,
			IsHome:     false,
			Won:        away > home,
			PointDiff:  away - home,
		})
	}

	return rows
}

// AddRollingFeatures computes one FeatureRow per team row. Output is sorted
// by (season, team, date, game_id); input order does not matter.
func (e *FeatureEngine) AddRollingFeatures(rows []models.TeamGameRow) []*models.FeatureRow {
	sorted := make([]models.TeamGameRow, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := &sorted[i], &sorted[j]
		if a.Season != b.Season {
			return a.Season < b.Season
		}
		if a.TeamID != b.TeamID {
			return a.TeamID < b.TeamID
		}
		return a.Before(b)
	})

	features := make([]*models.FeatureRow, 0, len(sorted))

	for start := 0; start < len(sorted); {
		end := start
		for end < len(sorted) &&
			sorted[end].Season == sorted[start].Season &&
			sorted[end].TeamID == sorted[start].TeamID {
			end++
		}
		features = append(features, e.teamSeasonFeatures(sorted[start:end])...)
		start = end
	}

	return features
}

// teamSeasonFeatures computes the feature rows for one team's ordered games
// within a single season.
func (e *FeatureEngine) teamSeasonFeatures(list []models.TeamGameRow) []*models.FeatureRow {
	wins := make([]float64, len(list))
	diffs := make([]float64, len(list))
	for i, r := range list {
		if r.Won {
			wins[i] = 1
		}
		diffs[i] = float64(r.PointDiff)
	}

	winShort := priorOnly(e.ShortWindow, wins)
	winLong := priorOnly(e.LongWindow, wins)
	diffShort := priorOnly(e.ShortWindow, diffs)
	diffLong := priorOnly(e.LongWindow, diffs)

	rows := make([]*models.FeatureRow, len(list))
	for i, r := range list {
		f := &models.FeatureRow{
			TeamID:     r.TeamID,
			Season:     r.Season,
			GameID:     r.GameID,
			GameDate:   r.GameDate,
			IsHome:     r.IsHome,
			GamesPrior: i,

			RollingWinPct5:        winShort[i],
			RollingWinPct10:       winLong[i],
			RollingPointDiffAvg5:  diffShort[i],
			RollingPointDiffAvg10: diffLong[i],
		}

		f.WinPctLast5Vs10 = nullSub(winShort[i], winLong[i])
		f.PointDiffLast5Vs10 = nullSub(diffShort[i], diffLong[i])
		f.RecentStrengthIndex5 = nullMul(winShort[i], diffShort[i])

		rows[i] = f
	}

	return rows
}

// BuildFeatureStore is the full expand-sort-roll pipeline. Because each
// row's value depends only on strictly earlier games for the same team and
// season, re-running on a superset of games reproduces every previously
// derivable row unchanged and only adds new ones.
func (e *FeatureEngine) BuildFeatureStore(games []*models.Game) []*models.FeatureRow {
	return e.AddRollingFeatures(ExpandToTeamRows(games))
}

// priorOnly computes each position's trailing-window mean over strictly
// earlier values: position i sees series[i-window:i] and nothing else.
// Positions with fewer than window prior values are null. Every rolling
// feature goes through this one function; it is what keeps a row's own game
// out of its own features.
func priorOnly(window int, series []float64) []sql.NullFloat64 {
	out := make([]sql.NullFloat64, len(series))
	for i := range series {
		if i >= window {
			out[i] = sql.NullFloat64{
				Float64: stat.Mean(series[i-window:i], nil),
				Valid:   true,
			}
		}
	}
	return out
}

func nullSub(a, b sql.NullFloat64) sql.NullFloat64 {
	if !a.Valid || !b.Valid {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: a.Float64 - b.Float64, Valid: true}
}

func nullMul(a, b sql.NullFloat64) sql.NullFloat64 {
	if !a.Valid || !b.Valid {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: a.Float64 * b.Float64, Valid: true}
}
