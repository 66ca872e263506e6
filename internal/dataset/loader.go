package dataset

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// LoadSelection opens an index written by WriteCallIndex (or any sheet with
// an id column and a selected column) and returns the selected call ids.
func LoadSelection(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	return readSelection(f)
}

// ReadSelection is LoadSelection over an already open stream.
func ReadSelection(r io.Reader) ([]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open reader: %w", err)
	}
	defer f.Close()
	return readSelection(f)
}

func readSelection(f *excelize.File) ([]string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no header row")
	}

	idIdx, selIdx := -1, -1
	for i, h := range rows[0] {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case idIdx == -1 && (l == "call id" || l == "callid" || l == "id"):
			idIdx = i
		case selIdx == -1 && (strings.Contains(l, "select") || strings.Contains(l, "export")):
			selIdx = i
		}
	}
	if idIdx == -1 {
		return nil, fmt.Errorf("no call id column")
	}
	if selIdx == -1 {
		return nil, fmt.Errorf("no selected column")
	}

	var ids []string
	seen := map[string]bool{}
	for _, r := range rows[1:] {
		if idIdx >= len(r) || selIdx >= len(r) {
			continue
		}
		id := strings.TrimSpace(r[idIdx])
		if id == "" || seen[id] || !truthy(r[selIdx]) {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "x", "yes", "y", "true", "1":
		return true
	}
	return false
}
