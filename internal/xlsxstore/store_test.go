package xlsxstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mesh-intelligence/tabledesk/internal/storetest"
	"github.com/mesh-intelligence/tabledesk/pkg/types"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) types.Store {
		s, err := Open(filepath.Join(t.TempDir(), DefaultWorkbook), nil)
		require.NoError(t, err)
		return s
	})
}

func TestPersistsAcrossOpens(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "desk.xlsx")

	s, err := Open(path, nil)
	require.NoError(t, err)
	tbl := types.FromStrings(types.SheetPeople, [][]string{{"ID", "HO_TEN"}, {"NS001", "Nguyễn Văn A"}})
	require.NoError(t, s.Write(ctx, types.SheetPeople, tbl))
	require.NoError(t, s.Append(ctx, types.SheetPeople, types.Record{"ID": types.Text("NS002"), "HO_TEN": types.Text("Trần Thị B")}))
	require.NoError(t, s.Close())

	s, err = Open(path, nil)
	require.NoError(t, err)
	defer s.Close()
	names, err := s.Sheets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{types.SheetPeople}, names)

	got, err := s.Read(ctx, types.SheetPeople)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"ID", "HO_TEN"}, {"NS001", "Nguyễn Văn A"}, {"NS002", "Trần Thị B"}}, got.Strings())
}

func TestNewWorkbookDropsDefaultSheet(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "desk.xlsx")
	s, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Write(ctx, "A", types.NewTable("A", "X")))
	require.NoError(t, s.Close())

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"A"}, f.GetSheetList())
}

func TestReadsForeignWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.xlsx")
	f := excelize.NewFile()
	_, err := f.NewSheet(types.SheetTasks)
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow(types.SheetTasks, "A1", &[]interface{}{"ID_CONG_VIEC", "TEN_VIEC", "HAN_CHOT"}))
	require.NoError(t, f.SetSheetRow(types.SheetTasks, "A2", &[]interface{}{"CV001", "Khảo sát", "15/01/2025"}))
	require.NoError(t, f.SetSheetRow(types.SheetTasks, "A4", &[]interface{}{"CV002"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	s, err := Open(path, nil)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Read(context.Background(), types.SheetTasks)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"ID_CONG_VIEC", "TEN_VIEC", "HAN_CHOT"},
		{"CV001", "Khảo sát", "15/01/2025"},
		{"", "", ""},
		{"CV002", "", ""},
	}, got.Strings())
}

func TestReadsTypedDates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typed.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"ID_CONG_VIEC", "HAN_CHOT", "NGAY_GIAO", "SO_LUONG"}))
	require.NoError(t, f.SetCellValue(sheet, "A2", "CV001"))
	require.NoError(t, f.SetCellValue(sheet, "B2", time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC)))
	dayFirst := "dd/mm/yyyy"
	style, err := f.NewStyle(&excelize.Style{CustomNumFmt: &dayFirst})
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue(sheet, "C2", 45658))
	require.NoError(t, f.SetCellStyle(sheet, "C2", "C2", style))
	require.NoError(t, f.SetCellValue(sheet, "D2", 12))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	s, err := Open(path, nil)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Read(context.Background(), sheet)
	require.NoError(t, err)
	assert.Equal(t, "2024-12-31", got.Cell(0, "HAN_CHOT").String())
	assert.Equal(t, "2025-01-01", got.Cell(0, "NGAY_GIAO").String())
	assert.Equal(t, "12", got.Cell(0, "SO_LUONG").String())
}

func TestIsDateFormatCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"dd/mm/yyyy", true},
		{"yyyy-mm-dd hh:mm", true},
		{"[$-42A]d mmmm yyyy", true},
		{"h:mm:ss", false},
		{"0.00", false},
		{`#,##0 "days"`, false},
		{`\d0`, false},
		{"[Red]0", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isDateFormatCode(tt.code), tt.code)
	}
}

func TestOpenRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.xlsx")
	require.NoError(t, writeFile(path, "not a zip"))
	_, err := Open(path, nil)
	assert.Error(t, err)
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
