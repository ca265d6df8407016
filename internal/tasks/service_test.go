package tasks

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tabledesk/internal/memstore"
	"github.com/mesh-intelligence/tabledesk/pkg/tabular"
	"github.com/mesh-intelligence/tabledesk/pkg/types"
)

var fixedNow = time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC)

func seeded(t *testing.T) (*memstore.Store, *Service) {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()
	require.NoError(t, store.Write(ctx, types.SheetPeople, types.FromStrings(types.SheetPeople, [][]string{
		{"ID_NHAN_SU", "HO_TEN", "CHUC_VU", "DIEN_THOAI"},
		{"NS001", "Nguyễn Văn A", "Trưởng phòng", "0901"},
		{"NS002", "Trần Thị B", "Chuyên viên", "0902"},
	})))
	require.NoError(t, store.Write(ctx, types.SheetProjects, types.FromStrings(types.SheetProjects, [][]string{
		{"ID_DU_AN", "TEN_DU_AN", "MO_TA", "NGAY_BD"},
		{"DA001", "Cầu Bến Lức", "Cầu vượt", "01/02/2024"},
	})))
	svc := New(store, Options{Now: func() time.Time { return fixedNow }})
	return store, svc
}

func TestNewTaskValidate(t *testing.T) {
	assert.ErrorIs(t, NewTask{Assignee: "NS001"}.Validate(), ErrMissingField)
	assert.ErrorIs(t, NewTask{Name: "Lập dự toán"}.Validate(), ErrMissingField)
	assert.NoError(t, NewTask{Name: "Lập dự toán", Assignee: "NS001"}.Validate())
}

func TestNewTaskRecordDefaults(t *testing.T) {
	rec := NewTask{Name: " Lập dự toán ", Assignee: "NS001"}.Record(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "Lập dự toán", rec.Get(ColumnName).String())
	assert.Equal(t, "10/03/2025", rec.Get(ColumnAssigned).String())
	assert.Equal(t, "17/03/2025", rec.Get(ColumnDeadline).String())
	assert.True(t, rec.Get(ColumnCompleted).IsEmpty())
}

func TestCreateAllocatesAndDescribes(t *testing.T) {
	ctx := context.Background()
	store, svc := seeded(t)

	id, err := svc.Create(ctx, NewTask{Name: "Khảo sát hiện trường", Assigner: "NS001", Assignee: "NS002", Project: "DA001", Unit: "DV404"})
	require.NoError(t, err)
	assert.Equal(t, "CV001", id)

	id, err = svc.Create(ctx, NewTask{Name: "Lập báo cáo", Assignee: "NS001"})
	require.NoError(t, err)
	assert.Equal(t, "CV002", id)

	got, err := store.Read(ctx, types.SheetTasks)
	require.NoError(t, err)
	assert.Equal(t, types.TaskColumns, got.Columns)
	require.Equal(t, 2, got.Len())
	assert.Equal(t, "CV001", got.Cell(0, ColumnID).String())
	assert.Equal(t, "Trần Thị B – Chuyên viên – 0902", got.Cell(0, "TEN_NGUOI_NHAN_MO_TA").String())
	assert.Equal(t, "Cầu Bến Lức – Cầu vượt – 01/02/2024", got.Cell(0, "TEN_DU_AN_MO_TA").String())
	assert.Equal(t, "DV404", got.Cell(0, "TEN_DON_VI_MO_TA").String(), "unknown ids stay raw")
	assert.Equal(t, "2025-03-10", got.Cell(0, ColumnAssigned).String())
}

func TestCreateRejectsMissingAssignee(t *testing.T) {
	store, svc := seeded(t)
	_, err := svc.Create(context.Background(), NewTask{Name: "x"})
	assert.ErrorIs(t, err, ErrMissingField)
	_, err = store.Read(context.Background(), types.SheetTasks)
	assert.ErrorIs(t, err, types.ErrSheetNotFound)
}

func TestListDerivesStatus(t *testing.T) {
	ctx := context.Background()
	store, svc := seeded(t)
	require.NoError(t, store.Write(ctx, types.SheetTasks, types.FromStrings(types.SheetTasks, [][]string{
		{"ID_CONG_VIEC", "TEN_VIEC", "TRANG_THAI_TONG", "HAN_CHOT", "NGAY_THUC_TE_XONG"},
		{"CV001", "late", "Đang thực hiện", "01/03/2025", ""},
		{"CV002", "on time", "", "20/03/2025", ""},
		{"CV003", "finished", "Hoàn thành", "01/01/2025", ""},
		{"CV004", "delivered", "", "01/01/2025", "05/01/2025"},
	})))

	got, err := svc.List(ctx)
	require.NoError(t, err)
	var statuses []string
	for _, v := range got.Column(tabular.ColumnDerived) {
		statuses = append(statuses, v.String())
	}
	assert.Equal(t, []string{"Overdue", "In-progress", "Done", "Done"}, statuses)
}

func TestSaveExtracted(t *testing.T) {
	ctx := context.Background()
	store, svc := seeded(t)
	ids, err := svc.SaveExtracted(ctx, []types.Record{
		{"TEN_VIEC": types.Text("Gửi hồ sơ"), "NGUOI_NHAN": types.Text("NS001"), "HAN_CHOT": types.Text("15/03/2025"), "ID_CONG_VIEC": types.Text("CV999")},
		{"TEN_VIEC": types.Text("Họp giao ban"), "HAN_CHOT": types.Text("sắp tới")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"CV001", "CV002"}, ids)

	got, err := store.Read(ctx, types.SheetTasks)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, got.Cell(0, ColumnStatus).String())
	assert.Equal(t, "2025-03-15", got.Cell(0, ColumnDeadline).String())
	assert.Equal(t, "sắp tới", got.Cell(1, ColumnDeadline).String(), "unparsable text is kept")
	assert.Equal(t, "Nguyễn Văn A – Trưởng phòng – 0901", got.Cell(0, "TEN_NGUOI_NHAN_MO_TA").String())
}

func TestUpdateAndComplete(t *testing.T) {
	ctx := context.Background()
	store, svc := seeded(t)
	id, err := svc.Create(ctx, NewTask{Name: "Thẩm tra", Assignee: "NS001"})
	require.NoError(t, err)

	require.NoError(t, svc.Update(ctx, id, types.Record{ColumnBlockers: types.Text("Thiếu hồ sơ"), ColumnDeadline: types.Text("31/03/2025")}))
	require.NoError(t, svc.Complete(ctx, id, time.Time{}))

	got, err := store.Read(ctx, types.SheetTasks)
	require.NoError(t, err)
	assert.Equal(t, "Thiếu hồ sơ", got.Cell(0, ColumnBlockers).String())
	assert.Equal(t, "2025-03-31", got.Cell(0, ColumnDeadline).String())
	assert.Equal(t, "Hoàn thành", got.Cell(0, ColumnStatus).String())
	assert.Equal(t, "2025-03-10", got.Cell(0, ColumnCompleted).String())

	assert.ErrorIs(t, svc.Update(ctx, "CV404", types.Record{}), ErrTaskNotFound)
}

func TestUpdateKeepsUnparsableDates(t *testing.T) {
	ctx := context.Background()
	store, svc := seeded(t)
	require.NoError(t, store.Write(ctx, types.SheetTasks, types.FromStrings(types.SheetTasks, [][]string{
		{ColumnID, ColumnName, ColumnDeadline},
		{"CV001", "Khảo sát", "cuối quý"},
		{"CV002", "Thẩm tra", "5/3/2025"},
	})))

	require.NoError(t, svc.Complete(ctx, "CV002", time.Time{}))

	got, err := store.Read(ctx, types.SheetTasks)
	require.NoError(t, err)
	assert.Equal(t, "cuối quý", got.Cell(0, ColumnDeadline).String())
	assert.Equal(t, "2025-03-05", got.Cell(1, ColumnDeadline).String())
}

func TestUpdateMissingSheet(t *testing.T) {
	_, svc := seeded(t)
	assert.ErrorIs(t, svc.Update(context.Background(), "CV001", types.Record{}), ErrTaskNotFound)
}

func TestDescribeResolvesReferences(t *testing.T) {
	ctx := context.Background()
	_, svc := seeded(t)
	_, err := svc.Create(ctx, NewTask{Name: "Khảo sát", Assignee: "NS002", Project: "DA001"})
	require.NoError(t, err)

	sheets, err := svc.Load(ctx)
	require.NoError(t, err)
	got := svc.Describe(tabular.Sheet(sheets, types.SheetTasks), sheets)
	assert.Equal(t, "NS002", got.Cell(0, ColumnAssignee).String(), "task columns keep ids")
	assert.True(t, strings.HasPrefix(got.Cell(0, "TEN_NGUOI_NHAN_MO_TA").String(), "Trần Thị B"))
}
