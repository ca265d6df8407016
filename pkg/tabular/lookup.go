package tabular

import (
	"strings"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/tabledesk/pkg/types"
)

// DefaultLookupSeparator joins the described columns of a resolved row.
const DefaultLookupSeparator = " – "

// NotFound selects what Lookup returns for an identifier that matches no
// row.
type NotFound int

const (
	// NotFoundRaw returns the identifier unchanged.
	NotFoundRaw NotFound = iota
	// NotFoundEmpty returns the empty string.
	NotFoundEmpty
)

// ParseNotFound maps a configuration value to a policy. Anything other than
// "empty" selects NotFoundRaw.
func ParseNotFound(s string) NotFound {
	if strings.EqualFold(strings.TrimSpace(s), "empty") {
		return NotFoundEmpty
	}
	return NotFoundRaw
}

// String returns the configuration spelling of the policy.
func (n NotFound) String() string {
	if n == NotFoundEmpty {
		return "empty"
	}
	return "raw"
}

// Resolver turns identifiers into descriptions drawn from a reference
// table. The zero Resolver uses DefaultLookupSeparator and NotFoundRaw.
type Resolver struct {
	Separator string
	NotFound  NotFound
	IncludeID bool // lead the description with the identifier
	Logger    *zap.Logger
}

func (r Resolver) sep() string {
	if r.Separator == "" {
		return DefaultLookupSeparator
	}
	return r.Separator
}

func (r Resolver) log() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

// Lookup describes the first row of t whose idCol equals id. Requested
// columns that t lacks are skipped; dates are shown as dd/mm/yyyy. An empty
// id yields the empty string without a lookup.
func (r Resolver) Lookup(id string, t *types.Table, idCol string, cols []string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	if row := findRow(t, idCol, id); row >= 0 {
		parts := make([]string, 0, len(cols)+1)
		if r.IncludeID {
			parts = append(parts, id)
		}
		for _, c := range cols {
			if !t.Has(c) {
				continue
			}
			parts = append(parts, t.Cell(row, c).String())
		}
		return strings.Join(parts, r.sep())
	}
	r.log().Debug("unresolved reference",
		zap.String("id", id),
		zap.String("sheet", tableName(t)),
		zap.String("column", idCol))
	if r.NotFound == NotFoundEmpty {
		return ""
	}
	return id
}

// LookupLink is Lookup against the sheet named by l.
func (r Resolver) LookupLink(id string, l types.Link, sheets map[string]*types.Table) string {
	return r.Lookup(id, sheets[l.Sheet], l.IDColumn, l.Columns)
}

func findRow(t *types.Table, idCol, id string) int {
	i := t.Index(idCol)
	if i < 0 {
		return -1
	}
	for r, row := range t.Rows {
		if i < len(row) && strings.TrimSpace(row[i].String()) == id {
			return r
		}
	}
	return -1
}

func tableName(t *types.Table) string {
	if t == nil {
		return ""
	}
	return t.Name
}
