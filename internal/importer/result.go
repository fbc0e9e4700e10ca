package importer

import (
	"fmt"
	"strconv"
	"strings"
)

// previewLimit caps the planned-action sample in a result. It is a sampling
// affordance, not a complete log.
const previewLimit = 20

// ImportStats are the row classification counts of one run. Dry-run and
// commit runs compute identical stats against the same pre-state.
type ImportStats struct {
	TotalRows int `json:"totalRows"`
	ToCreate  int `json:"toCreate"`
	ToUpdate  int `json:"toUpdate"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
}

// ImportResult is the summary returned by both pipelines: counts, ordered
// row-level error messages tagged with their 1-based source row, and a
// bounded preview of planned actions.
type ImportResult struct {
	Stats   ImportStats `json:"stats"`
	Errors  []string    `json:"errors"`
	Preview []string    `json:"preview"`
}

func newImportResult(totalRows int) *ImportResult {
	return &ImportResult{
		Stats:   ImportStats{TotalRows: totalRows},
		Errors:  []string{},
		Preview: []string{},
	}
}

func (r *ImportResult) addRowError(rowNum int, format string, args ...interface{}) {
	r.Stats.Errors++
	r.Errors = append(r.Errors, fmt.Sprintf("Row %d: %s", rowNum, fmt.Sprintf(format, args...)))
}

func (r *ImportResult) addPreview(format string, args ...interface{}) {
	if len(r.Preview) < previewLimit {
		r.Preview = append(r.Preview, fmt.Sprintf(format, args...))
	}
}

// nanSentinels are cell values spreadsheet tooling writes for missing data.
var nanSentinels = map[string]bool{
	"nan":  true,
	"none": true,
	"null": true,
	"n/a":  true,
	"#n/a": true,
}

// cleanCell trims a raw cell and normalizes missing-data sentinels to the
// empty string.
func cleanCell(raw string) string {
	value := strings.TrimSpace(raw)
	if nanSentinels[strings.ToLower(value)] {
		return ""
	}
	return value
}

// cell returns the idx-th column of a possibly ragged row.
func cell(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

// parseFloatSafe parses a numeric cell, tolerating a comma decimal
// separator. Unparseable values become 0 rather than failing the row.
func parseFloatSafe(raw string) float64 {
	value := cleanCell(raw)
	if value == "" {
		return 0
	}
	value = strings.TrimPrefix(value, "$")
	value = strings.TrimSpace(value)
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	if f, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", "."), 64); err == nil {
		return f
	}
	return 0
}

// parseIntSafe parses an integer cell; unparseable values become 0.
func parseIntSafe(raw string) int {
	return int(parseFloatSafe(raw))
}

// normalizeDiscount maps back-office discount notation to a fraction: values
// greater than 1 are percentages (10 -> 0.10), values at or below 1 pass
// through unchanged.
func normalizeDiscount(raw string) float64 {
	value := parseFloatSafe(raw)
	if value > 1 {
		return value / 100
	}
	return value
}

// isBlankRow reports whether every cell of a row cleans to empty.
func isBlankRow(row []string) bool {
	for _, c := range row {
		if cleanCell(c) != "" {
			return false
		}
	}
	return true
}
