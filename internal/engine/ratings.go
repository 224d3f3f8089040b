// Package engine implements the three batch engines at the core of the
// analytics pipeline: opponent-adjusted power ratings, point-in-time rolling
// features, and forecast drift monitoring. Every engine reads a finite
// snapshot of games and computes deterministically; no computation for a
// game may see games that occur later in (season, date, game_id) order.
package engine

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/jgamblin/NCAA-Prediction-sub001/internal/models"
)

const (
	// League-average efficiency, the baseline every rating regresses to
	leagueAvgEfficiency = 100.0

	// Possessions are estimated from combined scoring, not counted
	possessionFactor = 0.96

	// Home court is worth a fixed margin on a non-neutral floor
	homeCourtMargin = 3.5

	// Steepness of the margin-to-win-probability logistic
	logisticScale = 0.15

	// DefaultIterations is the fixed adjustment pass count
	DefaultIterations = 15
)

// RatingEngine computes opponent-adjusted efficiency ratings from a snapshot
// of completed games.
type RatingEngine struct {
	// Iterations is the number of adjustment passes. The loop always runs
	// this exact count unless Tolerance is set.
	Iterations int

	// Tolerance, when positive, stops iterating early once the largest
	// per-team rating change falls below it. Zero keeps the fixed count.
	Tolerance float64
}

// NewRatingEngine returns an engine with the standard pass count
func NewRatingEngine(iterations int) *RatingEngine {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return &RatingEngine{Iterations: iterations}
}

// ratingGame is one team's offensive and defensive showing in a single
// game, in points per 100 estimated possessions.
type ratingGame struct {
	opponent int
	rawOff   float64
	rawDef   float64
}

// Calculate produces one rating row per team appearing anywhere in games.
// Games with a missing score are dropped from computation but still
// contribute their teams to the output universe; such teams carry the
// league-average default. The result is sorted by rank, then team id.
func (e *RatingEngine) Calculate(games []*models.Game) []*models.TeamRating {
	season := 0
	teams := make(map[int]bool)
	playable := make([]*models.Game, 0, len(games))

	for _, g := range games {
		teams[g.HomeTeamID] = true
		teams[g.AwayTeamID] = true
		if g.Season > season {
			season = g.Season
		}
		if g.IsFinal() && g.HasScores() {
			playable = append(playable, g)
		}
	}

	sort.Slice(playable, func(i, j int) bool { return playable[i].Before(playable[j]) })

	// Expand each playable game into both teams' ordered game lists
	teamGames := make(map[int][]ratingGame)
	wins := make(map[int]int)
	losses := make(map[int]int)

	for _, g := range playable {
		home, away := int(g.HomeScore.Int32), int(g.AwayScore.Int32)
		teamGames[g.HomeTeamID] = append(teamGames[g.HomeTeamID], perspectiveEff(home, away, g.AwayTeamID))
		teamGames[g.AwayTeamID] = append(teamGames[g.AwayTeamID], perspectiveEff(away, home, g.HomeTeamID))

		if home > away {
			wins[g.HomeTeamID]++
			losses[g.AwayTeamID]++
		} else {
			wins[g.AwayTeamID]++
			losses[g.HomeTeamID]++
		}
	}

	rawOff, rawDef := rawEfficiencies(playable)

	// Adjusted ratings start at raw and are refined by scaling each game
	// against the opponent's rating from the previous pass. All teams
	// update simultaneously per pass.
	adjOff := make(map[int]float64, len(teamGames))
	adjDef := make(map[int]float64, len(teamGames))
	for team := range teamGames {
		adjOff[team] = rawOff[team]
		adjDef[team] = rawDef[team]
	}

	for it := 0; it < e.Iterations; it++ {
		nextOff := make(map[int]float64, len(teamGames))
		nextDef := make(map[int]float64, len(teamGames))

		for team, list := range teamGames {
			offContribs := make([]float64, len(list))
			defContribs := make([]float64, len(list))
			weights := gameWeights(len(list))

			for i, rg := range list {
				offContribs[i] = rg.rawOff * (leagueAvgEfficiency / positiveOr(adjDef[rg.opponent], leagueAvgEfficiency))
				defContribs[i] = rg.rawDef * (leagueAvgEfficiency / positiveOr(adjOff[rg.opponent], leagueAvgEfficiency))
			}

			nextOff[team] = stat.Mean(offContribs, weights)
			nextDef[team] = stat.Mean(defContribs, weights)
		}

		delta := 0.0
		if e.Tolerance > 0 {
			for team := range teamGames {
				delta = math.Max(delta, math.Abs(nextOff[team]-adjOff[team]))
				delta = math.Max(delta, math.Abs(nextDef[team]-adjDef[team]))
			}
		}

		adjOff, adjDef = nextOff, nextDef

		if e.Tolerance > 0 && delta < e.Tolerance {
			break
		}
	}

	nets := make(map[int]float64, len(teams))
	for team := range teams {
		if _, ok := teamGames[team]; ok {
			nets[team] = adjOff[team] - adjDef[team]
		} else {
			nets[team] = 0
		}
	}

	now := time.Now().UTC()
	ratings := make([]*models.TeamRating, 0, len(teams))

	for team := range teams {
		r := &models.TeamRating{
			Season:      season,
			TeamID:      team,
			RawOffense:  leagueAvgEfficiency,
			RawDefense:  leagueAvgEfficiency,
			AdjOffense:  leagueAvgEfficiency,
			AdjDefense:  leagueAvgEfficiency,
			NetRating:   nets[team],
			GamesPlayed: len(teamGames[team]),
			Wins:        wins[team],
			Losses:      losses[team],
			UpdatedAt:   now,
		}

		if list, ok := teamGames[team]; ok {
			r.RawOffense = rawOff[team]
			r.RawDefense = rawDef[team]
			r.AdjOffense = adjOff[team]
			r.AdjDefense = adjDef[team]

			// Strength of schedule: plain mean of final opponent nets,
			// counting repeat opponents once per meeting. Computed after
			// the ratings settle, never inside the iteration.
			oppNets := make([]float64, len(list))
			for i, rg := range list {
				oppNets[i] = nets[rg.opponent]
			}
			r.SOSRating = stat.Mean(oppNets, nil)
		}

		ratings = append(ratings, r)
	}

	// Competition ranking: rank 1 is the highest net, equal nets share a
	// rank, and the next distinct net skips past the tie block.
	for _, r := range ratings {
		rank := 1
		for _, other := range ratings {
			if other.NetRating > r.NetRating {
				rank++
			}
		}
		r.Rank = rank
	}

	sort.Slice(ratings, func(i, j int) bool {
		if ratings[i].Rank != ratings[j].Rank {
			return ratings[i].Rank < ratings[j].Rank
		}
		return ratings[i].TeamID < ratings[j].TeamID
	})

	return ratings
}

// perspectiveEff computes one side's raw per-game efficiencies. A game with
// no scoring at all has no estimable possessions and falls back to the
// league average for both sides.
func perspectiveEff(scored, allowed, opponent int) ratingGame {
	poss := estimatePossessions(scored, allowed)
	rg := ratingGame{opponent: opponent, rawOff: leagueAvgEfficiency, rawDef: leagueAvgEfficiency}
	if poss > 0 {
		rg.rawOff = float64(scored) / poss * 100
		rg.rawDef = float64(allowed) / poss * 100
	}
	return rg
}

func estimatePossessions(scored, allowed int) float64 {
	return float64(scored+allowed) / 2 * possessionFactor
}

// rawEfficiencies computes season-to-date raw ratings from score and
// possession totals rather than averaging per-game values.
func rawEfficiencies(playable []*models.Game) (map[int]float64, map[int]float64) {
	scored := make(map[int]float64)
	allowed := make(map[int]float64)
	poss := make(map[int]float64)

	add := func(team, pf, pa int) {
		scored[team] += float64(pf)
		allowed[team] += float64(pa)
		poss[team] += estimatePossessions(pf, pa)
	}

	for _, g := range playable {
		home, away := int(g.HomeScore.Int32), int(g.AwayScore.Int32)
		add(g.HomeTeamID, home, away)
		add(g.AwayTeamID, away, home)
	}

	rawOff := make(map[int]float64, len(poss))
	rawDef := make(map[int]float64, len(poss))
	for team, p := range poss {
		rawOff[team] = leagueAvgEfficiency
		rawDef[team] = leagueAvgEfficiency
		if p > 0 {
			rawOff[team] = scored[team] / p * 100
			rawDef[team] = allowed[team] / p * 100
		}
	}

	return rawOff, rawDef
}

// gameWeights returns the recency weights for an n-game list: the oldest
// game counts half as much as a hypothetical next game, scaling linearly up
// the list.
func gameWeights(n int) []float64 {
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = 0.5 + 0.5*(float64(i)/float64(n))
	}
	return weights
}

// positiveOr guards the opponent-scaling denominator
func positiveOr(v, fallback float64) float64 {
	if v <= 0 {
		return fallback
	}
	return v
}

// PredictMatchup projects a single game from two rating rows: the expected
// home margin and the logistic win probability. Missing teams should be
// passed as default ratings, not nil.
func (e *RatingEngine) PredictMatchup(home, away *models.TeamRating, neutral bool) (margin, homeWinProb float64) {
	margin = home.NetRating - away.NetRating
	if !neutral {
		margin += homeCourtMargin
	}
	homeWinProb = 1 / (1 + math.Exp(-logisticScale*margin))
	return margin, homeWinProb
}
