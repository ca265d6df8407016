package tasks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tabledesk/pkg/types"
)

func TestPostAndThread(t *testing.T) {
	ctx := context.Background()
	store, svc := seeded(t)
	id, err := svc.Create(ctx, NewTask{Name: "Khảo sát", Assignee: "NS002"})
	require.NoError(t, err)
	other, err := svc.Create(ctx, NewTask{Name: "Báo cáo", Assignee: "NS001"})
	require.NoError(t, err)

	posted, err := svc.Post(ctx, Message{TaskID: id, Sender: "NS001", Text: "Anh kiểm tra giúp bản vẽ"})
	require.NoError(t, err)
	assert.Equal(t, "10/03/2025 09:30", posted.PostedAt)
	_, err = svc.Post(ctx, Message{TaskID: other, Sender: "NS002", Text: "Đã gửi"})
	require.NoError(t, err)
	_, err = svc.Post(ctx, Message{TaskID: id, Sender: "NS999", Text: "Đã nhận", Attachment: "ban_ve.pdf"})
	require.NoError(t, err)

	thread, err := svc.Thread(ctx, id)
	require.NoError(t, err)
	require.Len(t, thread, 2)
	assert.Equal(t, "Nguyễn Văn A – Trưởng phòng", thread[0].SenderName)
	assert.Equal(t, "Anh kiểm tra giúp bản vẽ", thread[0].Text)
	assert.Equal(t, "NS999", thread[1].SenderName, "unknown sender stays raw")
	assert.Equal(t, "ban_ve.pdf", thread[1].Attachment)

	sheet, err := store.Read(ctx, types.SheetDiscussion)
	require.NoError(t, err)
	assert.Equal(t, types.DefaultHeaders()[types.SheetDiscussion], sheet.Columns)
}

func TestPostRejects(t *testing.T) {
	ctx := context.Background()
	_, svc := seeded(t)
	_, err := svc.Post(ctx, Message{TaskID: "CV001", Sender: "NS001", Text: "x"})
	assert.ErrorIs(t, err, ErrTaskNotFound)
	_, err = svc.Post(ctx, Message{TaskID: "CV001", Sender: "NS001"})
	assert.ErrorIs(t, err, ErrMissingField)
	_, err = svc.Post(ctx, Message{TaskID: "CV001", Text: "x"})
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestThreadEmpty(t *testing.T) {
	_, svc := seeded(t)
	thread, err := svc.Thread(context.Background(), "CV001")
	require.NoError(t, err)
	assert.Empty(t, thread)
}
