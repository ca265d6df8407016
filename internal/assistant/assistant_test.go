package assistant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tabledesk/internal/memstore"
	"github.com/mesh-intelligence/tabledesk/pkg/types"
)

type fakeModel struct {
	replies []string
	err     error
	prompts []string
}

func (m *fakeModel) Generate(_ context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	if len(m.replies) == 0 {
		return "", errors.New("no reply scripted")
	}
	r := m.replies[0]
	m.replies = m.replies[1:]
	return r, nil
}

var fixedNow = time.Date(2025, time.March, 10, 14, 5, 0, 0, time.UTC)

func newAssistant(m Model) (*Assistant, *memstore.Store) {
	store := memstore.New()
	return New(m, store, Options{Now: func() time.Time { return fixedNow }}), store
}

func referenceSheets() map[string]*types.Table {
	return map[string]*types.Table{
		types.SheetPeople: types.FromStrings(types.SheetPeople, [][]string{
			{"ID_NHAN_SU", "HO_TEN", "CHUC_VU"},
			{"NS001", "Nguyễn Văn A", "Trưởng phòng"},
		}),
		types.SheetProjects: types.FromStrings(types.SheetProjects, [][]string{
			{"ID_DU_AN", "TEN_DU_AN"},
			{"DA001", "Cầu Bến Lức"},
		}),
	}
}

func TestExtractTasks(t *testing.T) {
	m := &fakeModel{replies: []string{"```json\n[{\"TEN_VIEC\": \"Khảo sát\", \"NGUOI_NHAN\": \"NS001\", \"IDDA_CV\": \"DA001\"}]\n```"}}
	a, _ := newAssistant(m)

	recs, err := a.ExtractTasks(context.Background(), "Giao anh A khảo sát cầu Bến Lức", referenceSheets())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Khảo sát", recs[0].Get("TEN_VIEC").String())
	assert.Equal(t, "DA001", recs[0].Get("IDDA_CV").String())
	assert.Contains(t, recs[0], "GHI_CHU_GEMINI")
	assert.True(t, recs[0].Get("HAN_CHOT").IsEmpty())

	require.Len(t, m.prompts, 1)
	assert.Contains(t, m.prompts[0], "- NS001: Nguyễn Văn A (Trưởng phòng)")
	assert.Contains(t, m.prompts[0], "\"\"\"Giao anh A khảo sát cầu Bến Lức\"\"\"")
	assert.Contains(t, m.prompts[0], "  - HAN_CHOT (dd/mm/yyyy)")
}

func TestExtractTasksFailures(t *testing.T) {
	ctx := context.Background()

	a, _ := newAssistant(&fakeModel{})
	_, err := a.ExtractTasks(ctx, "  ", nil)
	assert.ErrorIs(t, err, ErrEmptyMessage)

	a, _ = newAssistant(&fakeModel{replies: []string{"Tôi không hiểu yêu cầu."}})
	_, err = a.ExtractTasks(ctx, "x", nil)
	assert.ErrorIs(t, err, ErrMalformedReply)

	boom := errors.New("quota exceeded")
	a, _ = newAssistant(&fakeModel{err: boom})
	_, err = a.ExtractTasks(ctx, "x", nil)
	assert.ErrorIs(t, err, boom)
}

func TestExtractAndSaveMemories(t *testing.T) {
	ctx := context.Background()
	m := &fakeModel{replies: []string{`[{"LOAI": "HOP", "TOM_TAT": "Họp giao ban", "NGAY_TAO": "01/01/2020"}, {"LOAI": "NHAC_VIEC", "LAP_LAI": "weekly"}]`}}
	a, store := newAssistant(m)

	recs, err := a.ExtractMemories(ctx, "Họp giao ban sáng thứ hai", referenceSheets())
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "10/03/2025", recs[0].Get("NGAY_TAO").String(), "creation date is always today")
	assert.Contains(t, m.prompts[0], "NHAC_VIEC")

	require.NoError(t, a.SaveMemories(ctx, recs))
	got, err := store.Read(ctx, types.SheetMemory)
	require.NoError(t, err)
	assert.Equal(t, MemoryFields, got.Columns)
	assert.Equal(t, 2, got.Len())

	meetings, err := a.Memories(ctx, "HOP")
	require.NoError(t, err)
	require.Equal(t, 1, meetings.Len())
	assert.Equal(t, "Họp giao ban", meetings.Cell(0, "TOM_TAT").String())

	all, err := a.Memories(ctx, "Tất cả")
	require.NoError(t, err)
	assert.Equal(t, 2, all.Len())
}

func TestMemoriesEmpty(t *testing.T) {
	a, _ := newAssistant(&fakeModel{})
	got, err := a.Memories(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
	assert.Equal(t, MemoryFields, got.Columns)
}

func TestAskLogsExchange(t *testing.T) {
	ctx := context.Background()
	a, store := newAssistant(&fakeModel{replies: []string{"Câu trả lời 1", "Câu trả lời 2"}})

	first, err := a.Ask(ctx, "Hạn nộp hồ sơ là khi nào?")
	require.NoError(t, err)
	assert.Equal(t, "CHAT001", first.ID)
	assert.Equal(t, "10/03/2025 14:05", first.AskedAt)

	second, err := a.Ask(ctx, "Còn gì khác?")
	require.NoError(t, err)
	assert.Equal(t, "CHAT002", second.ID)

	got, err := store.Read(ctx, types.SheetChat)
	require.NoError(t, err)
	assert.Equal(t, []string{"ID_CHAT", "THOI_GIAN", "CAU_HOI", "CAU_TRA_LOI"}, got.Columns)
	assert.Equal(t, "Câu trả lời 1", got.Cell(0, "CAU_TRA_LOI").String())

	history, err := a.History(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "CHAT002", history[0].ID)
}

func TestAskFailureLogsNothing(t *testing.T) {
	ctx := context.Background()
	a, store := newAssistant(&fakeModel{err: errors.New("offline")})
	_, err := a.Ask(ctx, "?")
	require.Error(t, err)
	_, err = store.Read(ctx, types.SheetChat)
	assert.ErrorIs(t, err, types.ErrSheetNotFound)

	history, err := a.History(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}
