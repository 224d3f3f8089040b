package ledger

import (
	"fmt"
	"strconv"

	"github.com/jgamblin/NCAA-Prediction-sub001/internal/models"
)

// Game ledger statuses accepted on input
const (
	StatusFinal     = "Final"
	StatusScheduled = "Scheduled"
)

var gameColumns = []string{
	"game_id", "season", "home_team", "away_team",
	"home_score", "away_score", "game_status", "is_neutral",
}

// LoadGames reads the game results ledger. The date column may be named
// either "date" or "game_day" depending on the ledger's vintage. Scores may
// be empty (games not yet played, or finals the scraper missed); everything
// else must parse.
func LoadGames(path string) ([]models.GameInput, error) {
	colIdx, rows, err := readTable(path)
	if err != nil {
		return nil, err
	}

	if err := requireColumns(path, colIdx, gameColumns); err != nil {
		return nil, err
	}

	dateCol := "date"
	if _, ok := colIdx[dateCol]; !ok {
		dateCol = "game_day"
		if _, ok := colIdx[dateCol]; !ok {
			return nil, &MalformedInputError{File: path, Reason: "missing column: date (or game_day)"}
		}
	}

	games := make([]models.GameInput, 0, len(rows))
	for n, row := range rows {
		gi := models.GameInput{
			HomeTeam: getCol(row, colIdx, "home_team"),
			AwayTeam: getCol(row, colIdx, "away_team"),
			Status:   getCol(row, colIdx, "game_status"),
		}

		gi.GameID, err = strconv.Atoi(getCol(row, colIdx, "game_id"))
		if err != nil {
			return nil, rowError(path, n, "game_id", err)
		}

		gi.Season, err = strconv.Atoi(getCol(row, colIdx, "season"))
		if err != nil {
			return nil, rowError(path, n, "season", err)
		}

		gi.GameDate, err = parseDate(getCol(row, colIdx, dateCol))
		if err != nil {
			return nil, rowError(path, n, dateCol, err)
		}

		if gi.Status != StatusFinal && gi.Status != StatusScheduled {
			return nil, rowError(path, n, "game_status", fmt.Errorf("unknown status %q", gi.Status))
		}

		if gi.HomeTeam == "" || gi.AwayTeam == "" {
			return nil, rowError(path, n, "home_team/away_team", fmt.Errorf("empty team name"))
		}

		gi.HomeScore, err = parseScore(getCol(row, colIdx, "home_score"))
		if err != nil {
			return nil, rowError(path, n, "home_score", err)
		}

		gi.AwayScore, err = parseScore(getCol(row, colIdx, "away_score"))
		if err != nil {
			return nil, rowError(path, n, "away_score", err)
		}

		if raw := getCol(row, colIdx, "is_neutral"); raw != "" {
			gi.Neutral, err = strconv.ParseBool(raw)
			if err != nil {
				return nil, rowError(path, n, "is_neutral", err)
			}
		}

		games = append(games, gi)
	}

	return games, nil
}

// parseScore parses a score cell. Empty means not reported, which the
// engines treat as a null score.
func parseScore(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func rowError(path string, row int, column string, err error) error {
	return &MalformedInputError{
		File:   path,
		Reason: fmt.Sprintf("row %d column %s: %v", row+2, column, err),
	}
}
