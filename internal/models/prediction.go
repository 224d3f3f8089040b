package models

import (
	"encoding/json"
	"time"
)

// Prediction source labels, ordered by trustworthiness. A probability logged
// at game time beats one backfilled later, which beats one reconstructed
// from model reruns.
const (
	SourceLive            = "live"
	SourceBackfillInitial = "backfill_initial"
	SourceReconstructed   = "reconstructed"
)

// PredictionRecord is one forecast of a game outcome from the prediction
// archive: the model's pre-game probability that the home team wins.
type PredictionRecord struct {
	ID     int `db:"id"`
	GameID int `db:"game_id"`

	HomeWinProbability float64   `db:"home_win_probability"`
	Source             string    `db:"source"`
	PredictionTime     time.Time `db:"prediction_time"`

	// Passthrough metadata from the archive file (JSONB)
	Metadata json.RawMessage `db:"metadata"`

	// InputOrder is the record's position in its batch, used as the last
	// tie-break when deduplicating.
	InputOrder int `db:"input_order"`

	CreatedAt time.Time `db:"created_at"`
}

// SourcePriority ranks prediction sources for dedup. Unrecognized sources
// rank below every known one.
func SourcePriority(source string) int {
	switch source {
	case SourceLive:
		return 3
	case SourceBackfillInitial:
		return 2
	case SourceReconstructed:
		return 1
	default:
		return 0
	}
}

// Supersedes reports whether p wins a dedup tie-break against other for the
// same game: higher source priority first, then the later prediction time,
// then the earlier batch position.
func (p *PredictionRecord) Supersedes(other *PredictionRecord) bool {
	if sp, so := SourcePriority(p.Source), SourcePriority(other.Source); sp != so {
		return sp > so
	}
	if !p.PredictionTime.Equal(other.PredictionTime) {
		return p.PredictionTime.After(other.PredictionTime)
	}
	return p.InputOrder < other.InputOrder
}

// PredictionInput is one parsed row of the prediction archive file
type PredictionInput struct {
	GameID             int
	HomeWinProbability float64
	Source             string
	PredictionTime     time.Time
	Metadata           map[string]string
	InputOrder         int
}

// ToPredictionRecord converts an archive row to a PredictionRecord model
func (pi *PredictionInput) ToPredictionRecord() *PredictionRecord {
	rec := &PredictionRecord{
		GameID:             pi.GameID,
		HomeWinProbability: pi.HomeWinProbability,
		Source:             pi.Source,
		PredictionTime:     pi.PredictionTime,
		InputOrder:         pi.InputOrder,
	}

	if len(pi.Metadata) > 0 {
		if jsonData, err := json.Marshal(pi.Metadata); err == nil {
			rec.Metadata = jsonData
		}
	}

	return rec
}
