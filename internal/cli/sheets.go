// Sheet commands list, show and describe raw worksheet contents.
package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/tabledesk/pkg/backend"
	"github.com/mesh-intelligence/tabledesk/pkg/tabular"
	"github.com/mesh-intelligence/tabledesk/pkg/types"
)

type sheetSummary struct {
	Name    string `json:"name"`
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
}

func newSheetsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sheets",
		Short: "List sheets with their row counts",
		Args:  checkArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			names, err := store.Sheets(ctx)
			if err != nil {
				return fmt.Errorf("list sheets: %w", err)
			}
			out := make([]sheetSummary, 0, len(names))
			for _, name := range names {
				t, err := store.Read(ctx, name)
				if err != nil {
					return fmt.Errorf("read %s: %w", name, err)
				}
				out = append(out, sheetSummary{Name: name, Rows: t.Len(), Columns: len(t.Columns)})
			}
			return a.emit(cmd, out, func(w io.Writer) error {
				for _, s := range out {
					fmt.Fprintf(w, "%-20s %5d rows  %3d columns\n", s.Name, s.Rows, s.Columns)
				}
				return nil
			})
		},
	}
}

type showFlags struct {
	resolve bool
	watch   bool
	columns string
}

func newShowCmd(a *app) *cobra.Command {
	var f showFlags
	cmd := &cobra.Command{
		Use:   "show <sheet> [COLUMN=value...]",
		Short: "Print a prepared sheet",
		Long: `Show reads a sheet, normalizes its header, parses date columns and prints
the rows. Filters are COLUMN=value pairs matched against the displayed
cell and ANDed together.

With --resolve, reference columns are replaced by the description of the
row they point at. With --watch, the sheet is printed again every time
another process changes it (jsonl and xlsx backends).

Example:
  desk show 1_NHAN_SU
  desk show 7_CONG_VIEC NGUOI_NHAN=NS001 --resolve
  desk show 7_CONG_VIEC --watch --columns ID_CONG_VIEC,TEN_VIEC,HAN_CHOT`,
		Args: checkArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := types.ValidateSheetName(name); err != nil {
				return usage(err)
			}
			where, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}
			render := func() error {
				t, err := a.prepared(cmd, name, f.resolve)
				if err != nil {
					return err
				}
				return a.showTable(cmd, filterRows(t, where), splitList(f.columns))
			}
			if err := render(); err != nil {
				return err
			}
			if !f.watch {
				return nil
			}

			ctx := cmd.Context()
			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			return backend.Watch(ctx, store, func(sheet string) {
				if sheet != name {
					return
				}
				if !a.flags.jsonMode {
					fmt.Fprintf(cmd.OutOrStdout(), "\n-- %s changed at %s --\n", name, time.Now().Format("15:04:05"))
				}
				if err := render(); err != nil {
					a.log().Error("re-render failed", zap.String("sheet", name), zap.Error(err))
				}
			})
		},
	}
	cmd.Flags().BoolVar(&f.resolve, "resolve", false, "replace references with descriptions")
	cmd.Flags().BoolVar(&f.watch, "watch", false, "print again whenever the sheet changes")
	cmd.Flags().StringVar(&f.columns, "columns", "", "comma-separated columns to print")
	return cmd
}

// prepared reads and prepares one sheet. Task sheets also get the derived
// status column.
func (a *app) prepared(cmd *cobra.Command, name string, resolve bool) (*types.Table, error) {
	schema := types.DefaultSchema()
	if !resolve {
		raw, err := a.readSheet(cmd, name)
		if err != nil {
			return nil, err
		}
		return a.annotate(name, tabular.Prepare(raw, schema, a.prepareOptions())), nil
	}

	ctx := cmd.Context()
	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	load := schema
	load.Sheets = append(append([]string(nil), schema.Sheets...), name)
	sheets, err := tabular.LoadAll(ctx, store, dedupe(load), a.prepareOptions())
	if err != nil {
		return nil, err
	}
	t := tabular.Sheet(sheets, name)
	if len(t.Columns) == 0 {
		return nil, usagef("sheet %q does not exist or is empty", name)
	}
	t = a.resolver().ResolveLinks(t, schema.LinksFor(name), sheets)
	return a.annotate(name, t), nil
}

func (a *app) annotate(name string, t *types.Table) *types.Table {
	if name != types.SheetTasks {
		return t
	}
	return tabular.NewDeriver().Annotate(t)
}

func dedupe(s types.Schema) types.Schema {
	seen := make(map[string]bool, len(s.Sheets))
	sheets := s.Sheets[:0:0]
	for _, name := range s.Sheets {
		if !seen[name] {
			seen[name] = true
			sheets = append(sheets, name)
		}
	}
	s.Sheets = sheets
	return s
}

type optionsFlags struct {
	prefix    string
	separator string
	omitEmpty bool
	includeID bool
}

type optionsResult struct {
	Options []string          `json:"options"`
	IDs     map[string]string `json:"ids"`
}

func newOptionsCmd(a *app) *cobra.Command {
	var f optionsFlags
	cmd := &cobra.Command{
		Use:   "options <sheet> <id-column> <column>...",
		Short: "Print the selection list built from a reference sheet",
		Long: `Options renders one option per row of the sheet by joining the given
columns, sorted, and shows which identifier each option selects.

Example:
  desk options 1_NHAN_SU ID_NHAN_SU HO_TEN CHUC_VU
  desk options 4_DU_AN ID_DU_AN TEN_DU_AN --prefix "Tất cả"`,
		Args: checkArgs(cobra.MinimumNArgs(3)),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.prepared(cmd, args[0], false)
			if err != nil {
				return err
			}
			dl := tabular.BuildDisplayList(t, args[1], args[2:], tabular.DisplayOptions{
				Separator: f.separator,
				Prefix:    f.prefix,
				OmitEmpty: f.omitEmpty,
				IncludeID: f.includeID,
			})
			res := optionsResult{Options: dl.Options, IDs: dl.IDs}
			return a.emit(cmd, res, func(w io.Writer) error {
				for _, opt := range dl.Options {
					id, _ := dl.Resolve(opt)
					fmt.Fprintf(w, "%s\t%s\n", id, opt)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.prefix, "prefix", "", "sentinel option listed first")
	cmd.Flags().StringVar(&f.separator, "separator", "", "segment separator (default \" | \")")
	cmd.Flags().BoolVar(&f.omitEmpty, "omit-empty", false, "drop empty segments")
	cmd.Flags().BoolVar(&f.includeID, "include-id", false, "lead each option with its identifier")
	return cmd
}

func newLookupCmd(a *app) *cobra.Command {
	var includeID bool
	cmd := &cobra.Command{
		Use:   "lookup <sheet> <id-column> <id> [column...]",
		Short: "Describe one row of a reference sheet",
		Long: `Lookup finds the first row whose identifier column equals id and joins
the given columns (default: every other column). A missing id prints the
id itself or nothing, depending on lookup.not_found.

Example:
  desk lookup 1_NHAN_SU ID_NHAN_SU NS001 HO_TEN CHUC_VU`,
		Args: checkArgs(cobra.MinimumNArgs(3)),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.prepared(cmd, args[0], false)
			if err != nil {
				return err
			}
			idCol, id := args[1], args[2]
			cols := args[3:]
			if len(cols) == 0 {
				for _, c := range t.Columns {
					if c != idCol {
						cols = append(cols, c)
					}
				}
			}
			r := a.resolver()
			r.IncludeID = includeID
			desc := r.Lookup(id, t, idCol, cols)
			return a.emit(cmd, map[string]string{"id": id, "description": desc}, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, strings.TrimSpace(desc))
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&includeID, "include-id", false, "lead the description with the id")
	return cmd
}
