package tabular

import (
	"strings"
	"time"

	"github.com/mesh-intelligence/tabledesk/pkg/types"
)

// DateLayouts are tried in order; the first that parses wins. Day and month
// take one or two digits. Day-first layouts come before month-first so that
// 03/04/2024 reads as 3 April.
var DateLayouts = []string{
	"2/1/2006",
	"2006-1-2",
	"1/2/2006",
	"2-1-2006",
}

// absentTokens are cell texts that mean "no value" in exported sheets.
var absentTokens = map[string]bool{
	"":     true,
	"nan":  true,
	"none": true,
	"nat":  true,
	"null": true,
}

// IsAbsent reports whether s is one of the placeholders spreadsheets and
// dataframe exports use for a missing value.
func IsAbsent(s string) bool {
	return absentTokens[strings.ToLower(strings.TrimSpace(s))]
}

// ParseDate converts s to a date value. Placeholders yield Empty; text that
// matches no layout yields an invalid Empty that remembers s.
func ParseDate(s string) types.Value {
	if IsAbsent(s) {
		return types.Empty()
	}
	trimmed := strings.TrimSpace(s)
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return types.Date(t)
		}
	}
	return types.Invalid(s)
}

// ParseCell converts a single cell. Dates pass through and text is parsed.
func ParseCell(v types.Value) types.Value {
	switch v.Kind() {
	case types.KindDate:
		return v
	case types.KindText:
		return ParseDate(v.String())
	default:
		return types.Empty()
	}
}

// ParseDateColumns returns a copy of t in which every cell of the named
// columns is a date or empty. Columns not present in t are ignored. The
// second result counts cells that held text but did not parse.
func ParseDateColumns(t *types.Table, cols []string) (*types.Table, int) {
	out := t.Clone()
	malformed := 0
	for _, col := range cols {
		i := out.Index(col)
		if i < 0 {
			continue
		}
		for _, row := range out.Rows {
			if i >= len(row) {
				continue
			}
			row[i] = ParseCell(row[i])
			if _, bad := row[i].Malformed(); bad {
				malformed++
			}
		}
	}
	return out, malformed
}

// FormatDate renders a cell the way the desk displays dates: dd/mm/yyyy for
// dates, empty for absent values, and the text itself otherwise.
func FormatDate(v types.Value) string {
	return v.String()
}
