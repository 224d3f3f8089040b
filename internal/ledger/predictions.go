package ledger

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/jgamblin/NCAA-Prediction-sub001/internal/models"
)

var predictionColumns = []string{
	"game_id", "home_win_probability", "source", "prediction_timestamp",
}

// LoadPredictions reads one or more prediction archive files and
// concatenates their rows. Columns beyond the required four pass through as
// metadata untouched. InputOrder records each row's position across the
// whole batch; the drift engine uses it as the final dedup tie-break.
func LoadPredictions(paths ...string) ([]models.PredictionInput, error) {
	var preds []models.PredictionInput

	for _, path := range paths {
		colIdx, rows, err := readTable(path)
		if err != nil {
			return nil, err
		}

		if err := requireColumns(path, colIdx, predictionColumns); err != nil {
			return nil, err
		}

		extras := metadataColumns(colIdx)

		for n, row := range rows {
			pi := models.PredictionInput{
				Source:     getCol(row, colIdx, "source"),
				InputOrder: len(preds),
			}

			pi.GameID, err = strconv.Atoi(getCol(row, colIdx, "game_id"))
			if err != nil {
				return nil, rowError(path, n, "game_id", err)
			}

			pi.HomeWinProbability, err = strconv.ParseFloat(getCol(row, colIdx, "home_win_probability"), 64)
			if err != nil {
				return nil, rowError(path, n, "home_win_probability", err)
			}
			if pi.HomeWinProbability < 0 || pi.HomeWinProbability > 1 {
				return nil, rowError(path, n, "home_win_probability",
					fmt.Errorf("probability %v outside [0, 1]", pi.HomeWinProbability))
			}

			pi.PredictionTime, err = parseDate(getCol(row, colIdx, "prediction_timestamp"))
			if err != nil {
				return nil, rowError(path, n, "prediction_timestamp", err)
			}

			if len(extras) > 0 {
				pi.Metadata = make(map[string]string, len(extras))
				for _, name := range extras {
					if v := getCol(row, colIdx, name); v != "" {
						pi.Metadata[name] = v
					}
				}
			}

			preds = append(preds, pi)
		}
	}

	return preds, nil
}

// metadataColumns returns the passthrough column names in header order
func metadataColumns(colIdx map[string]int) []string {
	required := make(map[string]bool, len(predictionColumns))
	for _, name := range predictionColumns {
		required[name] = true
	}

	extras := make([]string, 0, len(colIdx))
	for name := range colIdx {
		if !required[name] && name != "" {
			extras = append(extras, name)
		}
	}

	// Map iteration order is random; sort by header position for stable
	// metadata output.
	sort.Slice(extras, func(i, j int) bool { return colIdx[extras[i]] < colIdx[extras[j]] })

	return extras
}
