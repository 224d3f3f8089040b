package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPredictions(t *testing.T) {
	path := writeTestFile(t, "preds.csv",
		"game_id,home_win_probability,source,prediction_timestamp,model_version,notes\n"+
			"101,0.64,live,2024-11-08T14:00:00Z,v12,opening line\n"+
			"102,0.31,backfill_initial,2024-11-09,v12,\n")

	preds, err := LoadPredictions(path)
	require.NoError(t, err)
	require.Len(t, preds, 2)

	p := preds[0]
	assert.Equal(t, 101, p.GameID)
	assert.InDelta(t, 0.64, p.HomeWinProbability, 1e-9)
	assert.Equal(t, "live", p.Source)
	assert.Equal(t, time.Date(2024, 11, 8, 14, 0, 0, 0, time.UTC), p.PredictionTime)
	assert.Equal(t, 0, p.InputOrder)

	// Extra columns pass through; empty cells are dropped
	assert.Equal(t, map[string]string{"model_version": "v12", "notes": "opening line"}, p.Metadata)
	assert.Equal(t, map[string]string{"model_version": "v12"}, preds[1].Metadata)
	assert.Equal(t, 1, preds[1].InputOrder)
}

func TestLoadPredictionsMultipleFiles(t *testing.T) {
	first := writeTestFile(t, "a.csv",
		"game_id,home_win_probability,source,prediction_timestamp\n"+
			"1,0.5,live,2024-11-08\n")
	second := writeTestFile(t, "b.csv",
		"game_id,home_win_probability,source,prediction_timestamp\n"+
			"2,0.7,reconstructed,2024-11-09\n"+
			"3,0.2,live,2024-11-09\n")

	preds, err := LoadPredictions(first, second)
	require.NoError(t, err)
	require.Len(t, preds, 3)

	// InputOrder runs across the whole batch
	assert.Equal(t, 0, preds[0].InputOrder)
	assert.Equal(t, 1, preds[1].InputOrder)
	assert.Equal(t, 2, preds[2].InputOrder)
	assert.Equal(t, 3, preds[2].GameID)
}

func TestLoadPredictionsInvalidProbability(t *testing.T) {
	path := writeTestFile(t, "preds.csv",
		"game_id,home_win_probability,source,prediction_timestamp\n"+
			"1,1.7,live,2024-11-08\n")

	_, err := LoadPredictions(path)
	require.Error(t, err)

	var malformed *MalformedInputError
	require.True(t, errors.As(err, &malformed))
	assert.Contains(t, malformed.Reason, "home_win_probability")
}

func TestLoadPredictionsMissingColumn(t *testing.T) {
	path := writeTestFile(t, "preds.csv",
		"game_id,home_win_probability,prediction_timestamp\n"+
			"1,0.5,2024-11-08\n")

	_, err := LoadPredictions(path)
	require.Error(t, err)

	var malformed *MalformedInputError
	require.True(t, errors.As(err, &malformed))
	assert.Contains(t, malformed.Reason, "source")
}
