// Import command merges JSON records into a sheet.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tabledesk/internal/importer"
	"github.com/mesh-intelligence/tabledesk/pkg/types"
)

func newImportJSONCmd(a *app) *cobra.Command {
	var sheet string
	cmd := &cobra.Command{
		Use:   "import-json <file|glob|->",
		Short: "Append JSON records to a sheet",
		Long: `Import-json reads a JSON array of objects (or a single object) and appends
the records to a sheet. Columns the sheet does not have yet are added after
the existing ones. The argument is a file, a glob such as exports/**/*.json
(every match is decoded before anything is written), or - for stdin.

Example:
  desk import-json reply.json
  desk import-json 'exports/**/*.json' --sheet 7_CONG_VIEC
  cat reply.json | desk import-json -`,
		Args: checkArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := types.ValidateSheetName(sheet); err != nil {
				return usage(err)
			}
			ctx := cmd.Context()
			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			im := &importer.Importer{Store: store, Logger: a.log()}

			var n int
			if args[0] == "-" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				n, err = im.ImportJSON(ctx, sheet, data)
				if err != nil {
					return err
				}
			} else {
				n, err = im.ImportFiles(ctx, sheet, args[0])
				if err != nil {
					return err
				}
			}
			return a.emit(cmd, map[string]any{"sheet": sheet, "imported": n}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "imported %d record(s) into %s\n", n, sheet)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", types.SheetImportedAI, "target sheet")
	return cmd
}
