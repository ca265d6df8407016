// Package cli implements the desk command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tabledesk/internal/assistant"
	"github.com/mesh-intelligence/tabledesk/internal/importer"
	"github.com/mesh-intelligence/tabledesk/internal/tasks"
	"github.com/mesh-intelligence/tabledesk/pkg/backend"
	"github.com/mesh-intelligence/tabledesk/pkg/tabular"
	"github.com/mesh-intelligence/tabledesk/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Version is the desk release, set at build time.
var Version = "0.1.0"

const modulePath = "github.com/mesh-intelligence/tabledesk"

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	backend   string
	user      bool
	jsonMode  bool
	verbose   bool
}

// userError marks failures caused by the invocation rather than the system.
type userError struct{ err error }

func (e userError) Error() string { return e.err.Error() }
func (e userError) Unwrap() error { return e.err }

// usage wraps err as a user error.
func usage(err error) error {
	if err == nil {
		return nil
	}
	return userError{err}
}

func usagef(format string, args ...any) error {
	return userError{fmt.Errorf(format, args...)}
}

// checkArgs reports positional argument mistakes as user errors.
func checkArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return usage(fn(cmd, args))
	}
}

// userErrors are sentinels that always mean bad input.
var userErrors = []error{
	types.ErrInvalidName,
	types.ErrBackendEmpty,
	types.ErrBackendUnknown,
	types.ErrDSNEmpty,
	types.ErrSheetNotFound,
	types.ErrStaleRevision,
	tasks.ErrMissingField,
	tasks.ErrTaskNotFound,
	assistant.ErrMalformedReply,
	assistant.ErrEmptyMessage,
	assistant.ErrNoAPIKey,
	importer.ErrNoMatch,
	tabular.ErrNotRecords,
	backend.ErrDataDirEmpty,
	backend.ErrNotWatchable,
}

// ExitCode maps an error returned by the root command to a process exit
// code.
func ExitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ue userError
	if errors.As(err, &ue) {
		return exitUserError
	}
	for _, sentinel := range userErrors {
		if errors.Is(err, sentinel) {
			return exitUserError
		}
	}
	return exitSysError
}

// NewRootCmd creates the top-level "desk" command with global flags and all
// subcommands registered.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{})
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "desk",
		Short: "A task desk kept in spreadsheet-shaped sheets",
		Long: "desk manages people, units, projects, packages, contracts, documents and\n" +
			"tasks stored as sheets in SQLite, Postgres, JSONL files or an Excel workbook.",
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown()
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error { return usage(err) })

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: $(CWD)/.tabledesk)")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: $(CWD)/.tabledesk-db)")
	pf.StringVar(&a.flags.backend, "backend", "", "storage backend: sqlite, postgres, jsonl, xlsx or memory")
	pf.BoolVar(&a.flags.user, "user", false, "use the per-user config and data directories")
	pf.BoolVar(&a.flags.jsonMode, "json", false, "output as JSON")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newSheetsCmd(a),
		newShowCmd(a),
		newOptionsCmd(a),
		newLookupCmd(a),
		newTasksCmd(a),
		newDiscussCmd(a),
		newImportJSONCmd(a),
		newExportCmd(a),
		newExtractCmd(a),
		newRememberCmd(a),
		newMemoriesCmd(a),
		newAskCmd(a),
		newHistoryCmd(a),
	)
	return root
}

// Run executes the root command with args and returns the exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	if err != nil && strings.HasPrefix(err.Error(), "unknown command") {
		err = usage(err)
	}
	if cerr := a.teardown(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(stderr, "desk:", err)
	}
	return ExitCode(err)
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the desk version",
		Annotations: map[string]string{skipSetup: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "desk v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
