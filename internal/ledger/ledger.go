// Package ledger reads the delimited input files the engines run on: the
// game results ledger, the prediction archive, and the team seed. Loaders
// fail fast on structural problems (missing columns, unparseable values)
// and leave sparse-data handling to the engines.
package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// MalformedInputError means an input file is structurally unusable: a
// required column is absent or a value cannot be parsed. Partial
// computation is never attempted on top of one.
type MalformedInputError struct {
	File   string
	Reason string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed input %s: %s", e.File, e.Reason)
}

// Date layouts accepted across ledger files, tried in order
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01/02/2006",
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// readTable opens a delimited file and returns its header index and rows.
// The header index maps trimmed column names to positions.
func readTable(path string) (map[string]int, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, &MalformedInputError{File: path, Reason: fmt.Sprintf("read header: %v", err)}
	}

	colIdx := make(map[string]int)
	for i, h := range header {
		colIdx[strings.TrimSpace(h)] = i
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, &MalformedInputError{File: path, Reason: fmt.Sprintf("read row: %v", err)}
		}
		rows = append(rows, row)
	}

	return colIdx, rows, nil
}

// requireColumns verifies every required column is present in the header
func requireColumns(path string, colIdx map[string]int, required []string) error {
	for _, name := range required {
		if _, ok := colIdx[name]; !ok {
			return &MalformedInputError{File: path, Reason: fmt.Sprintf("missing column: %s", name)}
		}
	}
	return nil
}

func getCol(row []string, idx map[string]int, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
