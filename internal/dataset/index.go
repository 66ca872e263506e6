// Package dataset writes processed calls to an .xlsx index and reads a
// hand-edited index back as a call selection.
package dataset

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"gong-export-go/internal/types"
)

const sheetName = "Calls"

var indexHeader = []string{
	"Call ID", "Date", "Title", "Duration", "Account", "Industry",
	"Direction", "Internal Speakers", "External Speakers", "Trackers", "URL", "Selected",
}

// WriteCallIndex writes one row per call. The Selected column is "x" for
// calls already marked selected and left blank otherwise.
func WriteCallIndex(w io.Writer, calls []types.ProcessedCall) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(sheetName, "A1", &indexHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, c := range calls {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		selected := ""
		if c.Selected {
			selected = "x"
		}
		row := []any{
			c.ID, c.Date, c.Title, c.DurationFormatted, c.AccountName, c.AccountIndustry,
			c.Direction, c.InternalCount, c.ExternalCount, trackerNames(c.Trackers), c.URL, selected,
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := f.SetPanes(sheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func trackerNames(trackers []types.ProcessedTracker) string {
	names := make([]string, 0, len(trackers))
	for _, t := range trackers {
		names = append(names, t.Name)
	}
	return strings.Join(names, ", ")
}
