package dataset

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"gong-export-go/internal/types"
)

func TestWriteCallIndex(t *testing.T) {
	calls := []types.ProcessedCall{
		{ID: "c1", Title: "Discovery", Date: "Mar 5, 2025", DurationFormatted: "5m 0s", InternalCount: 1, ExternalCount: 2,
			Trackers: []types.ProcessedTracker{{Name: "Pricing"}, {Name: "Competitors"}}, Selected: true},
		{ID: "c2", Title: "Standup"},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCallIndex(&buf, calls))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Calls")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, indexHeader, rows[0])
	assert.Equal(t, "c1", rows[1][0])
	assert.Equal(t, "Discovery", rows[1][2])
	assert.Equal(t, "2", rows[1][8])
	assert.Equal(t, "Pricing, Competitors", rows[1][9])
	assert.Equal(t, "x", rows[1][11])
	assert.Equal(t, "c2", rows[2][0])
}

func TestRoundTripSelection(t *testing.T) {
	calls := []types.ProcessedCall{{ID: "c1", Selected: true}, {ID: "c2"}, {ID: "c3", Selected: true}}
	var buf bytes.Buffer
	require.NoError(t, WriteCallIndex(&buf, calls))

	path := filepath.Join(t.TempDir(), "index.xlsx")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	ids, err := LoadSelection(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c3"}, ids)
}

func TestReadSelectionHandEdited(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"Title", "ID", "Export?"},
		{"one", "c1", "YES"},
		{"two", "c2", ""},
		{"three", "c3", "1"},
		{"dup", "c1", "x"},
		{"short", "c4"},
		{"blank id", " ", "x"},
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)

	ids, err := ReadSelection(&buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c3"}, ids)
}

func TestReadSelectionMissingColumns(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow(f.GetSheetName(0), "A1", &[]any{"Title", "Date"}))
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)

	_, err = ReadSelection(&buf)
	assert.ErrorContains(t, err, "no call id column")
}

func TestLoadSelectionMissingFile(t *testing.T) {
	_, err := LoadSelection(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)
}
