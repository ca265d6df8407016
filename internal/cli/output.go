package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tabledesk/pkg/tabular"
	"github.com/mesh-intelligence/tabledesk/pkg/types"
)

// emit writes v as indented JSON in --json mode, otherwise calls human.
func (a *app) emit(cmd *cobra.Command, v any, human func(w io.Writer) error) error {
	w := cmd.OutOrStdout()
	if a.flags.jsonMode {
		return printJSON(w, v)
	}
	return human(w)
}

func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// tableRows renders t as display strings keyed by column for JSON output.
func tableRows(t *types.Table, cols []string) []map[string]string {
	out := make([]map[string]string, 0, t.Len())
	for r := range t.Rows {
		row := make(map[string]string, len(cols))
		for _, c := range cols {
			row[c] = t.Cell(r, c).String()
		}
		out = append(out, row)
	}
	return out
}

// printTable writes the chosen columns of t as aligned text.
func printTable(w io.Writer, t *types.Table, cols []string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(cols, "\t"))
	for r := range t.Rows {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = oneLine(t.Cell(r, c).String())
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// showTable prints t in the active output mode.
func (a *app) showTable(cmd *cobra.Command, t *types.Table, cols []string) error {
	if len(cols) == 0 {
		cols = t.Columns
	}
	return a.emit(cmd, tableRows(t, cols), func(w io.Writer) error {
		return printTable(w, t, cols)
	})
}

// parseAssignments parses key=value arguments.
func parseAssignments(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, usagef("invalid assignment %q (expected COLUMN=value)", arg)
		}
		out[strings.TrimSpace(key)] = value
	}
	return out, nil
}

// filterRows keeps the rows of t whose cells display as the given values.
func filterRows(t *types.Table, where map[string]string) *types.Table {
	if len(where) == 0 {
		return t
	}
	out := types.NewTable(t.Name, t.Columns...)
	out.Revision = t.Revision
	for r := range t.Rows {
		keep := true
		for col, want := range where {
			if t.Cell(r, col).String() != want {
				keep = false
				break
			}
		}
		if keep {
			out.Rows = append(out.Rows, t.Rows[r])
		}
	}
	return out
}

// parseDateFlag accepts any of the desk's date layouts. Empty means unset.
func parseDateFlag(name, s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	v := tabular.ParseDate(s)
	d, ok := v.Time()
	if !ok {
		return time.Time{}, usagef("--%s: %q is not a date (use dd/mm/yyyy)", name, s)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
