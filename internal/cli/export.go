// Export command copies every sheet into an Excel workbook.
package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/tabledesk/internal/xlsxstore"
)

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file.xlsx>",
		Short: "Copy every sheet into an Excel workbook",
		Long: `Export writes each sheet of the active backend to a workbook, replacing
sheets of the same name that the workbook already has. Other sheets in the
workbook are kept.

Example:
  desk export office.xlsx
  desk export --backend jsonl snapshot.xlsx`,
		Args: checkArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if !strings.EqualFold(filepath.Ext(path), ".xlsx") {
				return usagef("export target %q must end in .xlsx", path)
			}
			ctx := cmd.Context()
			src, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			if x, ok := src.(*xlsxstore.Store); ok && samePath(x.Path(), path) {
				return usagef("export target %q is the active workbook", path)
			}
			dst, err := xlsxstore.Open(path, a.log())
			if err != nil {
				return err
			}
			defer dst.Close()

			names, err := src.Sheets(ctx)
			if err != nil {
				return fmt.Errorf("list sheets: %w", err)
			}
			for _, name := range names {
				t, err := src.Read(ctx, name)
				if err != nil {
					return fmt.Errorf("read %s: %w", name, err)
				}
				if err := dst.Write(ctx, name, t); err != nil {
					return fmt.Errorf("export %s: %w", name, err)
				}
				a.log().Debug("sheet exported", zap.String("sheet", name), zap.Int("rows", t.Len()))
			}
			if err := dst.Close(); err != nil {
				return err
			}
			return a.emit(cmd, map[string]any{"path": path, "sheets": names}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "exported %d sheet(s) to %s\n", len(names), path)
				return err
			})
		},
	}
}

func samePath(a, b string) bool {
	pa, errA := filepath.Abs(a)
	pb, errB := filepath.Abs(b)
	return errA == nil && errB == nil && pa == pb
}
