// Assistant commands extract tasks and memories from free text, answer
// questions and browse the logs they leave behind.
package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tabledesk/internal/assistant"
	"github.com/mesh-intelligence/tabledesk/pkg/types"
)

// messageArg joins the positional words, or reads stdin for "-".
func messageArg(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	return strings.Join(args, " "), nil
}

func recordsTable(name string, fields []string, recs []types.Record) *types.Table {
	t := types.NewTable(name, fields...)
	for _, rec := range recs {
		t.AppendRecord(rec)
	}
	return t
}

// archive returns an assistant that only reads logs and needs no model.
func (a *app) archive(cmd *cobra.Command) (*assistant.Assistant, error) {
	store, err := a.openStore(cmd.Context())
	if err != nil {
		return nil, err
	}
	return assistant.New(nil, store, assistant.Options{Logger: a.log()}), nil
}

func newExtractCmd(a *app) *cobra.Command {
	var save bool
	cmd := &cobra.Command{
		Use:   "extract <message...|->",
		Short: "Propose tasks described in a message",
		Long: `Extract sends the message, together with a listing of the reference
sheets, to the model and prints the tasks it proposes. Nothing is written
unless --save is given; saved tasks get fresh CV identifiers and the
in-progress status.

Example:
  desk extract "Anh Nam kiểm tra hồ sơ gói thầu GT001 trước thứ Sáu"
  desk extract --save - < email.txt`,
		Args: checkArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := messageArg(cmd, args)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			svc, err := a.tasks(ctx)
			if err != nil {
				return err
			}
			sheets, err := svc.Load(ctx)
			if err != nil {
				return err
			}
			as, err := a.assistant(ctx)
			if err != nil {
				return err
			}
			recs, err := as.ExtractTasks(ctx, msg, sheets)
			if err != nil {
				return err
			}
			var ids []string
			if save {
				if ids, err = svc.SaveExtracted(ctx, recs); err != nil {
					return err
				}
			}
			t := recordsTable(types.SheetTasks, assistant.TaskFields, recs)
			res := map[string]any{"tasks": tableRows(t, t.Columns), "saved": ids}
			return a.emit(cmd, res, func(w io.Writer) error {
				if err := printTable(w, t, t.Columns); err != nil {
					return err
				}
				if save {
					fmt.Fprintf(w, "\nsaved %s\n", strings.Join(ids, ", "))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "append the proposed tasks to the task sheet")
	return cmd
}

func newRememberCmd(a *app) *cobra.Command {
	var save bool
	cmd := &cobra.Command{
		Use:   "remember <message...|->",
		Short: "Extract notes and reminders from a message",
		Long: `Remember asks the model for the notes, events and reminders in a message
and prints them. With --save they are appended to the ` + types.SheetMemory + ` sheet.

Example:
  desk remember --save "Họp giao ban 8h sáng thứ Hai hằng tuần"`,
		Args: checkArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := messageArg(cmd, args)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			svc, err := a.tasks(ctx)
			if err != nil {
				return err
			}
			sheets, err := svc.Load(ctx)
			if err != nil {
				return err
			}
			as, err := a.assistant(ctx)
			if err != nil {
				return err
			}
			recs, err := as.ExtractMemories(ctx, msg, sheets)
			if err != nil {
				return err
			}
			if save {
				if err := as.SaveMemories(ctx, recs); err != nil {
					return err
				}
			}
			t := recordsTable(types.SheetMemory, assistant.MemoryFields, recs)
			return a.emit(cmd, tableRows(t, t.Columns), func(w io.Writer) error {
				if err := printTable(w, t, t.Columns); err != nil {
					return err
				}
				if save {
					fmt.Fprintf(w, "\nsaved %d item(s) to %s\n", len(recs), types.SheetMemory)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "append the items to the memory sheet")
	return cmd
}

func newMemoriesCmd(a *app) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "memories",
		Short: "List saved notes and reminders",
		Args:  checkArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			as, err := a.archive(cmd)
			if err != nil {
				return err
			}
			t, err := as.Memories(cmd.Context(), kind)
			if err != nil {
				return err
			}
			return a.showTable(cmd, t, presentColumns(t, []string{"LOAI", "THOI_GIAN", "NOI_DUNG", "LAP_LAI", "TRANG_THAI"}))
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "only items of this LOAI")
	return cmd
}

func newAskCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question...|->",
		Short: "Ask the model a question and log the exchange",
		Args:  checkArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := messageArg(cmd, args)
			if err != nil {
				return err
			}
			as, err := a.assistant(cmd.Context())
			if err != nil {
				return err
			}
			ex, err := as.Ask(cmd.Context(), q)
			if err != nil {
				return err
			}
			return a.emit(cmd, ex, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, strings.TrimSpace(ex.Answer))
				return err
			})
		},
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print logged questions and answers, newest first",
		Args:  checkArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return usagef("-n must not be negative")
			}
			as, err := a.archive(cmd)
			if err != nil {
				return err
			}
			hist, err := as.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if hist == nil {
				hist = []assistant.Exchange{}
			}
			return a.emit(cmd, hist, func(w io.Writer) error {
				for _, ex := range hist {
					fmt.Fprintf(w, "%s  %s\nQ: %s\nA: %s\n\n", ex.ID, ex.AskedAt, ex.Question, strings.TrimSpace(ex.Answer))
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of exchanges (0 for all)")
	return cmd
}
