package tabular

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/mesh-intelligence/tabledesk/pkg/types"
)

// ColumnOptions tunes NormalizeColumns.
type ColumnOptions struct {
	// StripDiacritics folds accented letters to ASCII so that "HẠN_CHÓT"
	// and "HAN_CHOT" name the same column.
	StripDiacritics bool
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// CleanHeader applies the header rules to one name: non-breaking spaces
// become spaces, the name is trimmed, runs of spaces collapse to one, and
// letters are upper-cased.
func CleanHeader(name string, opts ColumnOptions) string {
	s := strings.ReplaceAll(name, " ", " ")
	s = strings.Join(strings.Fields(s), " ")
	s = strings.ToUpper(s)
	if opts.StripDiacritics && s != "" {
		s = strings.NewReplacer("Đ", "D", "đ", "D").Replace(s)
		if folded, _, err := transform.String(stripMarks, s); err == nil {
			s = folded
		}
	}
	return s
}

// NormalizeColumns returns a copy of t with clean headers. Columns whose
// header is empty after cleaning are dropped, as is every later column that
// repeats an earlier header. The relative order of the survivors and their
// cells is preserved.
func NormalizeColumns(t *types.Table, opts ColumnOptions) *types.Table {
	out := &types.Table{Name: t.Name, Revision: t.Revision}
	seen := make(map[string]bool, len(t.Columns))
	var keep []int
	for i, c := range t.Columns {
		name := CleanHeader(c, opts)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		keep = append(keep, i)
		out.Columns = append(out.Columns, name)
	}
	out.Rows = make([]types.Row, len(t.Rows))
	for r, row := range t.Rows {
		nr := make(types.Row, len(keep))
		for j, i := range keep {
			if i < len(row) {
				nr[j] = row[i]
			}
		}
		out.Rows[r] = nr
	}
	return out
}
