package tabular

import (
	"sort"
	"strings"

	"github.com/mesh-intelligence/tabledesk/pkg/types"
)

// DefaultDisplaySeparator joins descriptive columns in option strings.
const DefaultDisplaySeparator = " | "

// DisplayOptions tunes BuildDisplayList.
type DisplayOptions struct {
	Separator string // defaults to DefaultDisplaySeparator
	Prefix    string // sentinel option kept first; omitted when empty
	OmitEmpty bool   // drop empty segments instead of keeping their position
	IncludeID bool   // lead each option with the row identifier
}

// DisplayList is a sorted set of human-readable options and the identifier
// each one selects.
type DisplayList struct {
	Options []string
	IDs     map[string]string
	prefix  string
}

// BuildDisplayList renders one option per row of t that has a non-empty
// identifier in idCol. Rows sharing the same option string collapse to one
// option that maps to the first such row. A missing identifier column
// yields a list holding only the prefix.
func BuildDisplayList(t *types.Table, idCol string, cols []string, opts DisplayOptions) DisplayList {
	sep := opts.Separator
	if sep == "" {
		sep = DefaultDisplaySeparator
	}
	dl := DisplayList{IDs: map[string]string{}, prefix: opts.Prefix}
	var options []string
	if t.Has(idCol) {
		for r := range t.Rows {
			id := strings.TrimSpace(t.Cell(r, idCol).String())
			if id == "" {
				continue
			}
			parts := make([]string, 0, len(cols)+1)
			if opts.IncludeID {
				parts = append(parts, id)
			}
			for _, c := range cols {
				s := t.Cell(r, c).String()
				if s == "" && opts.OmitEmpty {
					continue
				}
				parts = append(parts, s)
			}
			label := strings.Join(parts, sep)
			if _, dup := dl.IDs[label]; dup {
				continue
			}
			dl.IDs[label] = id
			options = append(options, label)
		}
	}
	sort.Strings(options)
	if opts.Prefix != "" {
		options = append([]string{opts.Prefix}, options...)
	}
	dl.Options = options
	return dl
}

// Resolve returns the identifier selected by option. The prefix sentinel and
// unknown options resolve to false.
func (d DisplayList) Resolve(option string) (string, bool) {
	if option == "" || (d.prefix != "" && option == d.prefix) {
		return "", false
	}
	id, ok := d.IDs[option]
	return id, ok
}

// Prefix returns the sentinel option, if any.
func (d DisplayList) Prefix() string { return d.prefix }

// UniqueValues returns the distinct non-empty display values of col in
// sorted order, led by prefix when it is not empty.
func UniqueValues(t *types.Table, col string, prefix string) []string {
	var out []string
	if prefix != "" {
		out = append(out, prefix)
	}
	seen := map[string]bool{}
	var vals []string
	for _, v := range t.Column(col) {
		s := v.String()
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		vals = append(vals, s)
	}
	sort.Strings(vals)
	return append(out, vals...)
}
