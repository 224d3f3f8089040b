package ledger

import (
	"fmt"
	"strings"

	"github.com/jgamblin/NCAA-Prediction-sub001/internal/models"
)

// LoadTeamSeed reads the team seed file: one row per canonical team with a
// pipe-separated list of known aliases. The canonical name always counts as
// an alias of itself. A "conference" column is optional.
func LoadTeamSeed(path string) ([]models.TeamSeedInput, error) {
	colIdx, rows, err := readTable(path)
	if err != nil {
		return nil, err
	}

	if err := requireColumns(path, colIdx, []string{"name"}); err != nil {
		return nil, err
	}

	teams := make([]models.TeamSeedInput, 0, len(rows))
	seen := make(map[string]bool, len(rows))

	for n, row := range rows {
		ti := models.TeamSeedInput{
			Name:       getCol(row, colIdx, "name"),
			Conference: getCol(row, colIdx, "conference"),
		}

		if ti.Name == "" {
			return nil, rowError(path, n, "name", fmt.Errorf("empty team name"))
		}
		if seen[ti.Name] {
			return nil, rowError(path, n, "name", fmt.Errorf("duplicate team %q", ti.Name))
		}
		seen[ti.Name] = true

		ti.Aliases = append(ti.Aliases, ti.Name)
		for _, alias := range strings.Split(getCol(row, colIdx, "aliases"), "|") {
			alias = strings.TrimSpace(alias)
			if alias != "" && alias != ti.Name {
				ti.Aliases = append(ti.Aliases, alias)
			}
		}

		teams = append(teams, ti)
	}

	return teams, nil
}
