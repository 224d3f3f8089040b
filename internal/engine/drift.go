package engine

import (
	"database/sql"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"

	"github.com/jgamblin/NCAA-Prediction-sub001/internal/metrics"
	"github.com/jgamblin/NCAA-Prediction-sub001/internal/models"
)

// Drift engine defaults
const (
	DefaultDriftWindow      = 25
	DefaultAnomalyThreshold = 0.25
	DefaultAnomalyMinGames  = 15
)

// Probabilities are clamped away from 0 and 1 before taking logs so a
// single overconfident miss cannot blow up the log-loss.
const probClamp = 1e-4

// DriftEngine tracks forecast accuracy cumulatively and over a sliding
// window at global, per-season, and per-season-per-team scope, and flags
// teams whose recent accuracy has diverged from their long-run accuracy.
type DriftEngine struct {
	Window    int
	Threshold float64
	MinGames  int
}

// NewDriftEngine returns an engine with the standard window and thresholds
func NewDriftEngine() *DriftEngine {
	return &DriftEngine{
		Window:    DefaultDriftWindow,
		Threshold: DefaultAnomalyThreshold,
		MinGames:  DefaultAnomalyMinGames,
	}
}

// DedupPredictions reduces the archive to exactly one record per game id.
// The winner is chosen by an explicit comparator (source priority, then
// prediction time, then batch position) so the result does not depend on
// input order or any sort's stability. Records tied on both priority and
// time are ambiguous; the earliest batch position wins and the collision is
// logged.
func DedupPredictions(records []*models.PredictionRecord) map[int]*models.PredictionRecord {
	selected := make(map[int]*models.PredictionRecord)

	for _, rec := range records {
		current, ok := selected[rec.GameID]
		if !ok {
			selected[rec.GameID] = rec
			continue
		}

		if models.SourcePriority(rec.Source) == models.SourcePriority(current.Source) &&
			rec.PredictionTime.Equal(current.PredictionTime) {
			metrics.AmbiguousPredictions.Inc()
			log.Warn().
				Int("game_id", rec.GameID).
				Str("source", rec.Source).
				Time("prediction_time", rec.PredictionTime).
				Msg("Ambiguous predictions share priority and timestamp, keeping earliest batch position")
		}

		if rec.Supersedes(current) {
			selected[rec.GameID] = rec
		}
	}

	return selected
}

// observation is one scored game joined to its selected prediction, from a
// fixed perspective: prob is the predicted win probability for that
// perspective's team and label is 1 when that team won.
type observation struct {
	gameID   int
	gameDate time.Time
	prob     float64
	label    float64
}

// scopeSeries accumulates one scope's chronological observations and emits
// a DriftMetricRow per step.
type scopeSeries struct {
	scopeType string
	season    sql.NullInt32
	teamID    sql.NullInt32

	window int

	correct []float64
	losses  []float64
	briers  []float64

	correctSum float64
	lossSum    float64
	brierSum   float64
	probSum    float64
	labelSum   float64

	rows []*models.DriftMetricRow
}

func (s *scopeSeries) observe(obs observation, now time.Time) {
	hit := 0.0
	if (obs.prob >= 0.5) == (obs.label == 1) {
		hit = 1
	}

	p := math.Min(math.Max(obs.prob, probClamp), 1-probClamp)
	loss := -(obs.label*math.Log(p) + (1-obs.label)*math.Log(1-p))
	brier := (obs.prob - obs.label) * (obs.prob - obs.label)

	s.correct = append(s.correct, hit)
	s.losses = append(s.losses, loss)
	s.briers = append(s.briers, brier)

	s.correctSum += hit
	s.lossSum += loss
	s.brierSum += brier
	s.probSum += obs.prob
	s.labelSum += obs.label

	k := len(s.correct)
	row := &models.DriftMetricRow{
		ScopeType:    s.scopeType,
		Season:       s.season,
		TeamID:       s.teamID,
		GameID:       obs.gameID,
		GameDate:     obs.gameDate,
		GamesSeen:    k,
		CumAccuracy:  s.correctSum / float64(k),
		CumLogLoss:   s.lossSum / float64(k),
		CumBrier:     s.brierSum / float64(k),
		ExpectedWins: s.probSum,
		ActualWins:   int(s.labelSum),
		ComputedAt:   now,
	}

	if k >= s.window {
		row.RollingAccuracy = sql.NullFloat64{Float64: stat.Mean(s.correct[k-s.window:k], nil), Valid: true}
		row.RollingLogLoss = sql.NullFloat64{Float64: stat.Mean(s.losses[k-s.window:k], nil), Valid: true}
		row.RollingBrier = sql.NullFloat64{Float64: stat.Mean(s.briers[k-s.window:k], nil), Valid: true}
	}

	s.rows = append(s.rows, row)
}

// ComputeMetrics joins Final games to their deduplicated predictions and
// walks the join in chronological order, emitting one metric row per scope
// per game seen. Games without a Final score or without any prediction are
// skipped entirely.
func (e *DriftEngine) ComputeMetrics(games []*models.Game, records []*models.PredictionRecord) []*models.DriftMetricRow {
	selected := DedupPredictions(records)

	scored := make([]*models.Game, 0, len(games))
	for _, g := range games {
		if !g.IsFinal() || !g.HasScores() {
			continue
		}
		if _, ok := selected[g.GameID]; !ok {
			continue
		}
		scored = append(scored, g)
	}
	sort.Slice(scored, func(i, j int) bool { return scored[i].Before(scored[j]) })

	now := time.Now().UTC()
	global := &scopeSeries{scopeType: models.ScopeGlobal, window: e.Window}
	seasons := make(map[int]*scopeSeries)
	teams := make(map[[2]int]*scopeSeries)

	// Deterministic emission order for the map-held scopes
	var seasonOrder []int
	var teamOrder [][2]int

	for _, g := range scored {
		pred := selected[g.GameID]

		label := 0.0
		if g.HomeWon() {
			label = 1
		}
		homeObs := observation{
			gameID:   g.GameID,
			gameDate: g.GameDate,
			prob:     pred.HomeWinProbability,
			label:    label,
		}

		global.observe(homeObs, now)

		ss, ok := seasons[g.Season]
		if !ok {
			ss = &scopeSeries{
				scopeType: models.ScopeSeason,
				season:    sql.NullInt32{Int32: int32(g.Season), Valid: true},
				window:    e.Window,
			}
			seasons[g.Season] = ss
			seasonOrder = append(seasonOrder, g.Season)
		}
		ss.observe(homeObs, now)

		// Team scope melts the game into both perspectives, flipping the
		// probability and label for the away side.
		awayObs := homeObs
		awayObs.prob = 1 - homeObs.prob
		awayObs.label = 1 - homeObs.label

		for _, side := range []struct {
			teamID int
			obs    observation
		}{
			{g.HomeTeamID, homeObs},
			{g.AwayTeamID, awayObs},
		} {
			key := [2]int{g.Season, side.teamID}
			ts, ok := teams[key]
			if !ok {
				ts = &scopeSeries{
					scopeType: models.ScopeSeasonTeam,
					season:    sql.NullInt32{Int32: int32(g.Season), Valid: true},
					teamID:    sql.NullInt32{Int32: int32(side.teamID), Valid: true},
					window:    e.Window,
				}
				teams[key] = ts
				teamOrder = append(teamOrder, key)
			}
			ts.observe(side.obs, now)
		}
	}

	rows := make([]*models.DriftMetricRow, 0, len(global.rows)*4)
	rows = append(rows, global.rows...)
	for _, season := range seasonOrder {
		rows = append(rows, seasons[season].rows...)
	}
	for _, key := range teamOrder {
		rows = append(rows, teams[key].rows...)
	}

	return rows
}

// DetectAnomalies reduces the team-scope rows to the latest row per
// (season, team) and flags those whose rolling accuracy sits at least
// Threshold away from cumulative accuracy after MinGames games. Output is
// sorted by season, then team.
func (e *DriftEngine) DetectAnomalies(rows []*models.DriftMetricRow) []*models.AnomalyRecord {
	latest := make(map[[2]int]*models.DriftMetricRow)

	for _, row := range rows {
		if row.ScopeType != models.ScopeSeasonTeam {
			continue
		}
		key := [2]int{int(row.Season.Int32), int(row.TeamID.Int32)}
		if current, ok := latest[key]; !ok || row.GamesSeen > current.GamesSeen {
			latest[key] = row
		}
	}

	now := time.Now().UTC()
	var anomalies []*models.AnomalyRecord

	for key, row := range latest {
		if row.GamesSeen < e.MinGames || !row.RollingAccuracy.Valid {
			continue
		}
		delta := math.Abs(row.RollingAccuracy.Float64 - row.CumAccuracy)
		if delta < e.Threshold {
			continue
		}
		anomalies = append(anomalies, &models.AnomalyRecord{
			Season:          key[0],
			TeamID:          key[1],
			GamesSeen:       row.GamesSeen,
			CumAccuracy:     row.CumAccuracy,
			RollingAccuracy: row.RollingAccuracy.Float64,
			AccuracyDelta:   delta,
			FlaggedAt:       now,
		})
	}

	sort.Slice(anomalies, func(i, j int) bool {
		if anomalies[i].Season != anomalies[j].Season {
			return anomalies[i].Season < anomalies[j].Season
		}
		return anomalies[i].TeamID < anomalies[j].TeamID
	})

	return anomalies
}
