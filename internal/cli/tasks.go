// Task commands create, list, update and report on the task sheet.
package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tabledesk/internal/tasks"
	"github.com/mesh-intelligence/tabledesk/pkg/tabular"
	"github.com/mesh-intelligence/tabledesk/pkg/types"
)

// taskListColumns is what task listings print unless --columns is given.
var taskListColumns = []string{
	tasks.ColumnID, tasks.ColumnName, tasks.ColumnAssignee,
	tasks.ColumnAssigned, tasks.ColumnDeadline, tabular.ColumnDerived,
}

func newTasksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Work with the task sheet",
	}
	cmd.AddCommand(
		newTasksListCmd(a),
		newTasksAddCmd(a),
		newTasksReportCmd(a),
		newTasksDoneCmd(a),
		newTasksSetCmd(a),
	)
	return cmd
}

// presentColumns keeps the wanted columns that t has, in order.
func presentColumns(t *types.Table, want []string) []string {
	var out []string
	for _, c := range want {
		if t.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

func newTasksListCmd(a *app) *cobra.Command {
	var columns string
	cmd := &cobra.Command{
		Use:   "list [COLUMN=value...]",
		Short: "List tasks with their derived status",
		Long: `List prints every task with the derived status column ` + tabular.ColumnDerived + `
(Done, Overdue or In-progress). Filters are COLUMN=value pairs.

Example:
  desk tasks list
  desk tasks list NGUOI_NHAN=NS001
  desk tasks list ` + tabular.ColumnDerived + `=Overdue`,
		RunE: func(cmd *cobra.Command, args []string) error {
			where, err := parseAssignments(args)
			if err != nil {
				return err
			}
			svc, err := a.tasks(cmd.Context())
			if err != nil {
				return err
			}
			t, err := svc.List(cmd.Context())
			if err != nil {
				return err
			}
			cols := splitList(columns)
			if len(cols) == 0 {
				cols = presentColumns(t, taskListColumns)
			}
			return a.showTable(cmd, filterRows(t, where), cols)
		},
	}
	cmd.Flags().StringVar(&columns, "columns", "", "comma-separated columns to print")
	return cmd
}

type taskAddFlags struct {
	in        tasks.NewTask
	assigned  string
	deadline  string
	completed string
}

func newTasksAddCmd(a *app) *cobra.Command {
	var f taskAddFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a task",
		Long: `Add appends a task with the next CV identifier. The assigned date defaults
to today and the deadline to seven days later. Reference flags take row
identifiers; their descriptions are filled in automatically.

Example:
  desk tasks add --name "Kiểm tra hồ sơ" --assignee NS002 --project DA001
  desk tasks add --name "Báo cáo tuần" --assignee NS001 --deadline 15/03/2025`,
		Args: checkArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := f.in
			var err error
			if in.Assigned, err = parseDateFlag("assigned", f.assigned); err != nil {
				return err
			}
			if in.Deadline, err = parseDateFlag("deadline", f.deadline); err != nil {
				return err
			}
			if in.Completed, err = parseDateFlag("completed", f.completed); err != nil {
				return err
			}
			if err := in.Validate(); err != nil {
				return usage(err)
			}
			svc, err := a.tasks(cmd.Context())
			if err != nil {
				return err
			}
			id, err := svc.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			return a.emit(cmd, map[string]string{"id": id}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "created %s\n", id)
				return err
			})
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.in.Name, "name", "", "task name (required)")
	fl.StringVar(&f.in.Assignee, "assignee", "", "assignee person id (required)")
	fl.StringVar(&f.in.Assigner, "assigner", "", "assigner person id")
	fl.StringVar(&f.in.Content, "content", "", "task content")
	fl.StringVar(&f.in.Kind, "kind", "", "task kind")
	fl.StringVar(&f.in.Source, "source", "", "where the task came from")
	fl.StringVar(&f.in.Collaborators, "collaborators", "", "collaborating person ids")
	fl.StringVar(&f.in.Status, "status", "", "overall status")
	fl.StringVar(&f.in.StatusDetail, "status-detail", "", "detailed status")
	fl.StringVar(&f.in.Document, "document", "", "document id")
	fl.StringVar(&f.in.Contract, "contract", "", "contract id")
	fl.StringVar(&f.in.Project, "project", "", "project id")
	fl.StringVar(&f.in.Package, "package", "", "bid package id")
	fl.StringVar(&f.in.Unit, "unit", "", "unit id")
	fl.StringVar(&f.in.Blockers, "blockers", "", "blockers")
	fl.StringVar(&f.in.Proposal, "proposal", "", "proposal")
	fl.StringVar(&f.in.Note, "note", "", "note")
	fl.StringVar(&f.assigned, "assigned", "", "assigned date (default today)")
	fl.StringVar(&f.deadline, "deadline", "", "deadline (default assigned + 7 days)")
	fl.StringVar(&f.completed, "completed", "", "completion date")
	return cmd
}

type reportFlags struct {
	from, to string
	filter   tasks.Filter
	mail     bool
}

type reportResult struct {
	Tasks      []map[string]string `json:"tasks"`
	Recipients []string            `json:"recipients,omitempty"`
	Mailto     string              `json:"mailto,omitempty"`
}

func newTasksReportCmd(a *app) *cobra.Command {
	var f reportFlags
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Filter tasks for a report and build the mail link",
		Long: `Report lists the tasks assigned within --from/--to (inclusive) that match
the status, project, package and contract filters. "` + tasks.AllSentinel + `" or an
empty value disables a filter. With --mail, a mailto: link addressed to
the ` + tasks.ReportEmailColumn + ` recipients of the settings sheet is printed.

Example:
  desk tasks report --from 01/03/2025 --to 31/03/2025 --project DA001
  desk tasks report --status "Đang thực hiện" --mail`,
		Args: checkArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ff := f.filter
			var err error
			if ff.From, err = parseDateFlag("from", f.from); err != nil {
				return err
			}
			if ff.To, err = parseDateFlag("to", f.to); err != nil {
				return err
			}
			if !ff.From.IsZero() && !ff.To.IsZero() && ff.To.Before(ff.From) {
				return usagef("--to %s is before --from %s", f.to, f.from)
			}
			svc, err := a.tasks(cmd.Context())
			if err != nil {
				return err
			}
			t, err := svc.Report(cmd.Context(), ff)
			if err != nil {
				return err
			}
			cols := presentColumns(t, taskListColumns)
			res := reportResult{Tasks: tableRows(t, cols)}
			if f.mail {
				settings, err := a.settingsSheet(cmd)
				if err != nil {
					return err
				}
				res.Recipients = tasks.Recipients(settings)
				res.Mailto = tasks.MailtoLink(res.Recipients, t)
			}
			return a.emit(cmd, res, func(w io.Writer) error {
				if err := printTable(w, t, cols); err != nil {
					return err
				}
				fmt.Fprintf(w, "\n%d task(s)\n", t.Len())
				if f.mail {
					if len(res.Recipients) == 0 {
						fmt.Fprintf(w, "no %s recipients in %s\n", tasks.ReportEmailColumn, types.SheetSettings)
					}
					fmt.Fprintln(w, res.Mailto)
				}
				return nil
			})
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.from, "from", "", "first assigned date")
	fl.StringVar(&f.to, "to", "", "last assigned date")
	fl.StringVar(&f.filter.Status, "status", "", "overall status")
	fl.StringVar(&f.filter.Project, "project", "", "project id")
	fl.StringVar(&f.filter.Package, "package", "", "bid package id")
	fl.StringVar(&f.filter.Contract, "contract", "", "contract id")
	fl.BoolVar(&f.mail, "mail", false, "print a mailto: link for the report")
	return cmd
}

// settingsSheet returns the normalized settings sheet, or an empty table
// when it does not exist.
func (a *app) settingsSheet(cmd *cobra.Command) (*types.Table, error) {
	store, err := a.openStore(cmd.Context())
	if err != nil {
		return nil, err
	}
	t, err := store.Read(cmd.Context(), types.SheetSettings)
	if errors.Is(err, types.ErrSheetNotFound) {
		return types.NewTable(types.SheetSettings), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", types.SheetSettings, err)
	}
	return tabular.NormalizeColumns(t, a.settings.ColumnOptions()), nil
}

func newTasksDoneCmd(a *app) *cobra.Command {
	var on string
	cmd := &cobra.Command{
		Use:   "done <task-id>",
		Short: "Mark a task completed",
		Args:  checkArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDateFlag("on", on)
			if err != nil {
				return err
			}
			svc, err := a.tasks(cmd.Context())
			if err != nil {
				return err
			}
			if err := svc.Complete(cmd.Context(), args[0], day); err != nil {
				return err
			}
			return a.emit(cmd, map[string]string{"id": args[0], "status": "done"}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s completed\n", args[0])
				return err
			})
		},
	}
	cmd.Flags().StringVar(&on, "on", "", "completion date (default today)")
	return cmd
}

func newTasksSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <task-id> COLUMN=value...",
		Short: "Set cells of a task",
		Long: `Set updates the given columns of one task. Date columns accept any of the
usual date formats. The write is refused when the sheet changed since it
was read (sqlite, postgres, xlsx).

Example:
  desk tasks set CV003 HAN_CHOT=20/03/2025 VUONG_MAC="Chờ phê duyệt"`,
		Args: checkArgs(cobra.MinimumNArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			assignments, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}
			changes := make(types.Record, len(assignments))
			for col, v := range assignments {
				changes[col] = types.Text(v)
			}
			svc, err := a.tasks(cmd.Context())
			if err != nil {
				return err
			}
			if err := svc.Update(cmd.Context(), args[0], changes); err != nil {
				return err
			}
			return a.emit(cmd, map[string]any{"id": args[0], "updated": changes.Keys()}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s updated (%d fields)\n", args[0], len(changes))
				return err
			})
		},
	}
}
