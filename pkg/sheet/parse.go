package sheet

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rollups-terminal/rollupsx/pkg/rollup"
)

// Column positions in the tracking sheet.
const (
	colName       = 0
	colExplorer   = 1
	colProjectID  = 2
	colProvider   = 4
	colLaunchDate = 8
	colVertical   = 9
	colFramework  = 10
	colDA         = 11
	colLayer      = 12
	colSettlement = 13
)

// launchDateLayouts are tried in order.
var launchDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"1/2/2006",
	"01/02/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
}

// ParseLaunchDate parses a launch-date cell. The zero time is returned for blank or
// unrecognized cells.
func ParseLaunchDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range launchDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// ParseRow maps one grid row onto a SourceRow. Missing trailing cells read as empty.
func ParseRow(row []string) rollup.SourceRow {
	layer := rollup.ParseLayerKind(cell(row, colLayer))
	src := rollup.SourceRow{
		Name:             cell(row, colName),
		ExplorerBaseURL:  cell(row, colExplorer),
		TVLProjectID:     cell(row, colProjectID),
		Provider:         cell(row, colProvider),
		LaunchDateRaw:    cell(row, colLaunchDate),
		Vertical:         cell(row, colVertical),
		Framework:        cell(row, colFramework),
		DataAvailability: cell(row, colDA),
		Layer:            layer,
	}
	src.LaunchDate = ParseLaunchDate(src.LaunchDateRaw)
	if layer == rollup.LayerL3 {
		src.Settlement = cell(row, colSettlement)
	}
	return src
}

// ParseRows converts the sheet grid into source rows. Rows without a name are dropped and a
// repeated name keeps its first row, so names are unique within the result.
func ParseRows(grid [][]string, logger *zap.Logger) []rollup.SourceRow {
	if logger == nil {
		logger = zap.NewNop()
	}
	out := make([]rollup.SourceRow, 0, len(grid))
	seen := make(map[string]int, len(grid))
	for i, raw := range grid {
		src := ParseRow(raw)
		if src.Name == "" {
			continue
		}
		if first, dup := seen[src.Name]; dup {
			logger.Warn("duplicate chain name in sheet, keeping first",
				zap.String("name", src.Name),
				zap.Int("firstRow", first),
				zap.Int("row", i))
			continue
		}
		seen[src.Name] = i
		if src.LaunchDateRaw != "" && !src.HasLaunchDate() {
			logger.Debug("unrecognized launch date", zap.String("name", src.Name), zap.String("value", src.LaunchDateRaw))
		}
		out = append(out, src)
	}
	return out
}
