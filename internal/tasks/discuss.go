package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/tabledesk/pkg/tabular"
	"github.com/mesh-intelligence/tabledesk/pkg/types"
)

// Discussion sheet columns.
const (
	ColumnSender     = "NGUOI_GUI"
	ColumnMessage    = "NOI_DUNG"
	ColumnPostedAt   = "THOI_GIAN"
	ColumnAttachment = "FILE_DINH_KEM"
)

// TimestampLayout stamps discussion messages and chat logs.
const TimestampLayout = "02/01/2006 15:04"

// Message is one entry of a task's discussion thread.
type Message struct {
	TaskID     string `json:"task_id"`
	Sender     string `json:"sender"`
	SenderName string `json:"sender_name,omitempty"`
	Text       string `json:"text"`
	PostedAt   string `json:"posted_at"`
	Attachment string `json:"attachment,omitempty"`
}

var senderLink = types.Link{Sheet: types.SheetPeople, IDColumn: "ID_NHAN_SU", Columns: []string{"HO_TEN", "CHUC_VU"}}

// Post adds a message to the thread of task taskID.
func (s *Service) Post(ctx context.Context, m Message) (Message, error) {
	if strings.TrimSpace(m.Text) == "" {
		return Message{}, fmt.Errorf("%w: %s", ErrMissingField, ColumnMessage)
	}
	if strings.TrimSpace(m.Sender) == "" {
		return Message{}, fmt.Errorf("%w: %s", ErrMissingField, ColumnSender)
	}
	t, err := s.store.Read(ctx, types.SheetTasks)
	if err != nil && !errors.Is(err, types.ErrSheetNotFound) {
		return Message{}, fmt.Errorf("reading %s: %w", types.SheetTasks, err)
	}
	if t == nil || findTask(tabular.NormalizeColumns(t, s.prepare.Columns), m.TaskID) < 0 {
		return Message{}, fmt.Errorf("%w: %s", ErrTaskNotFound, m.TaskID)
	}

	m.PostedAt = s.now().Format(TimestampLayout)
	rec := types.Record{
		ColumnID:         types.Text(m.TaskID),
		ColumnSender:     types.Text(m.Sender),
		ColumnMessage:    types.Text(m.Text),
		ColumnPostedAt:   types.Text(m.PostedAt),
		ColumnAttachment: types.Text(m.Attachment),
	}
	if _, err := s.store.Read(ctx, types.SheetDiscussion); errors.Is(err, types.ErrSheetNotFound) {
		header := types.DefaultHeaders()[types.SheetDiscussion]
		if err := s.store.Write(ctx, types.SheetDiscussion, types.NewTable(types.SheetDiscussion, header...)); err != nil {
			return Message{}, fmt.Errorf("creating %s: %w", types.SheetDiscussion, err)
		}
	} else if err != nil {
		return Message{}, fmt.Errorf("reading %s: %w", types.SheetDiscussion, err)
	}
	if err := s.store.Append(ctx, types.SheetDiscussion, rec); err != nil {
		return Message{}, fmt.Errorf("appending to %s: %w", types.SheetDiscussion, err)
	}
	s.logger.Debug("message posted", zap.String("task", m.TaskID), zap.String("sender", m.Sender))
	return m, nil
}

// Thread returns the messages of task taskID in sheet order, each with the
// sender described from the people sheet.
func (s *Service) Thread(ctx context.Context, taskID string) ([]Message, error) {
	raw, err := s.store.Read(ctx, types.SheetDiscussion)
	if errors.Is(err, types.ErrSheetNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", types.SheetDiscussion, err)
	}
	t := tabular.Prepare(raw, s.schema, s.prepare)

	people, err := s.store.Read(ctx, types.SheetPeople)
	switch {
	case errors.Is(err, types.ErrSheetNotFound):
		people = types.NewTable(types.SheetPeople)
	case err != nil:
		return nil, fmt.Errorf("reading %s: %w", types.SheetPeople, err)
	}
	sheets := map[string]*types.Table{types.SheetPeople: tabular.Prepare(people, s.schema, s.prepare)}

	var out []Message
	for r := range t.Rows {
		rec := t.Record(r)
		if rec.Get(ColumnID).String() != taskID {
			continue
		}
		sender := rec.Get(ColumnSender).String()
		out = append(out, Message{
			TaskID:     taskID,
			Sender:     sender,
			SenderName: s.resolver.LookupLink(sender, senderLink, sheets),
			Text:       rec.Get(ColumnMessage).String(),
			PostedAt:   rec.Get(ColumnPostedAt).String(),
			Attachment: rec.Get(ColumnAttachment).String(),
		})
	}
	return out, nil
}
