// Discussion commands post to and print a task's message thread.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tabledesk/internal/tasks"
)

func newDiscussCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discuss",
		Short: "Read and post task discussion messages",
	}
	cmd.AddCommand(newDiscussPostCmd(a), newDiscussShowCmd(a))
	return cmd
}

func newDiscussPostCmd(a *app) *cobra.Command {
	var sender, attachment string
	cmd := &cobra.Command{
		Use:   "post <task-id> <message>",
		Short: "Post a message to a task",
		Example: `  desk discuss post CV001 "Đã gửi hồ sơ" --from NS002
  desk discuss post CV001 "Biên bản đính kèm" --from NS002 --attach bien-ban.pdf`,
		Args: checkArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.tasks(cmd.Context())
			if err != nil {
				return err
			}
			m, err := svc.Post(cmd.Context(), tasks.Message{
				TaskID:     args[0],
				Sender:     sender,
				Text:       args[1],
				Attachment: attachment,
			})
			if err != nil {
				return err
			}
			return a.emit(cmd, m, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "posted to %s at %s\n", m.TaskID, m.PostedAt)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&sender, "from", "", "sender person id (required)")
	cmd.Flags().StringVar(&attachment, "attach", "", "attachment name or link")
	return cmd
}

func newDiscussShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <task-id>",
		Short: "Print a task's discussion thread",
		Args:  checkArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.tasks(cmd.Context())
			if err != nil {
				return err
			}
			thread, err := svc.Thread(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if thread == nil {
				thread = []tasks.Message{}
			}
			return a.emit(cmd, thread, func(w io.Writer) error {
				if len(thread) == 0 {
					_, err := fmt.Fprintf(w, "no messages for %s\n", args[0])
					return err
				}
				for _, m := range thread {
					name := m.SenderName
					if name == "" {
						name = m.Sender
					}
					fmt.Fprintf(w, "[%s] %s: %s\n", m.PostedAt, name, m.Text)
					if m.Attachment != "" {
						fmt.Fprintf(w, "    attachment: %s\n", m.Attachment)
					}
				}
				return nil
			})
		},
	}
}
