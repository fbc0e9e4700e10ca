package importer

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanCell(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
	}{
		{"  value  ", "value"},
		{"NaN", ""},
		{"nan", ""},
		{"None", ""},
		{"NULL", ""},
		{"#N/A", ""},
		{"n/a", ""},
		{"0", "0"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, cleanCell(tt.raw), "cleanCell(%q)", tt.raw)
	}
}

func TestParseFloatSafe(t *testing.T) {
	tests := []struct {
		raw      string
		expected float64
	}{
		{"10", 10},
		{"10.5", 10.5},
		{"10,5", 10.5},
		{"$ 1500.25", 1500.25},
		{"$1500.25", 1500.25},
		{"", 0},
		{"NaN", 0},
		{"consultar", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, parseFloatSafe(tt.raw), "parseFloatSafe(%q)", tt.raw)
	}
}

func TestParseIntSafe(t *testing.T) {
	assert.Equal(t, 12, parseIntSafe("12"))
	assert.Equal(t, 12, parseIntSafe("12.0"))
	assert.Equal(t, 0, parseIntSafe("many"))
}

func TestNormalizeDiscount(t *testing.T) {
	tests := []struct {
		raw      string
		expected float64
	}{
		{"10", 0.10},
		{"25", 0.25},
		{"0.05", 0.05},
		{"1", 1},
		{"0", 0},
		{"", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, normalizeDiscount(tt.raw), "normalizeDiscount(%q)", tt.raw)
	}
}

func TestCellRaggedRows(t *testing.T) {
	row := []string{"a", "b"}
	assert.Equal(t, "b", cell(row, 1))
	assert.Equal(t, "", cell(row, 5))
}

func TestIsBlankRow(t *testing.T) {
	assert.True(t, isBlankRow([]string{"", "  ", "NaN"}))
	assert.False(t, isBlankRow([]string{"", "x"}))
	assert.True(t, isBlankRow(nil))
}

func TestPreviewCapped(t *testing.T) {
	result := newImportResult(100)
	for i := 0; i < previewLimit+10; i++ {
		result.addPreview("Create item %d", i)
	}
	assert.Len(t, result.Preview, previewLimit)
}

func TestAddRowErrorFormat(t *testing.T) {
	result := newImportResult(3)
	result.addRowError(7, "duplicate SKU %q", "X-1")
	require.Len(t, result.Errors, 1)
	assert.Equal(t, `Row 7: duplicate SKU "X-1"`, result.Errors[0])
	assert.Equal(t, 1, result.Stats.Errors)
}

func TestStatsJSONKeys(t *testing.T) {
	data, err := json.Marshal(ImportStats{TotalRows: 5, ToCreate: 2, ToUpdate: 1, Skipped: 1, Errors: 1})
	require.NoError(t, err)
	expected := fmt.Sprintf(`{"totalRows":%d,"toCreate":%d,"toUpdate":%d,"skipped":%d,"errors":%d}`, 5, 2, 1, 1, 1)
	assert.JSONEq(t, expected, string(data))
}
