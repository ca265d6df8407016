// Package storetest runs the behavior every Store backend must share. Each
// backend's tests call Run with a factory that opens a fresh, empty store.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tabledesk/pkg/tabular"
	"github.com/mesh-intelligence/tabledesk/pkg/types"
)

// Factory opens an empty store. The store is closed by the suite.
type Factory func(t *testing.T) types.Store

// Run executes the shared store suite.
func Run(t *testing.T, open Factory) {
	t.Run("ReadMissing", func(t *testing.T) { testReadMissing(t, open) })
	t.Run("WriteRead", func(t *testing.T) { testWriteRead(t, open) })
	t.Run("RoundTripPrepared", func(t *testing.T) { testRoundTripPrepared(t, open) })
	t.Run("Overwrite", func(t *testing.T) { testOverwrite(t, open) })
	t.Run("AppendAligns", func(t *testing.T) { testAppendAligns(t, open) })
	t.Run("AppendCreates", func(t *testing.T) { testAppendCreates(t, open) })
	t.Run("Sheets", func(t *testing.T) { testSheets(t, open) })
	t.Run("InvalidName", func(t *testing.T) { testInvalidName(t, open) })
	t.Run("Closed", func(t *testing.T) { testClosed(t, open) })
	t.Run("WriteIf", func(t *testing.T) { testWriteIf(t, open) })
}

func taskTable() *types.Table {
	return types.FromStrings(types.SheetTasks, [][]string{
		{"ID_CONG_VIEC", "TEN_VIEC", "HAN_CHOT", "NGUOI_NHAN"},
		{"CV001", "Lập hồ sơ mời thầu", "31/12/2024", "NS001"},
		{"CV002", "Thẩm định giá", "", "NS002"},
		{"CV003", "Ký hợp đồng", "2025-01-15", ""},
	})
}

func withStore(t *testing.T, open Factory) (context.Context, types.Store) {
	t.Helper()
	s := open(t)
	t.Cleanup(func() { _ = s.Close() })
	return context.Background(), s
}

func testReadMissing(t *testing.T, open Factory) {
	ctx, s := withStore(t, open)
	_, err := s.Read(ctx, "nope")
	assert.ErrorIs(t, err, types.ErrSheetNotFound)
}

func testWriteRead(t *testing.T, open Factory) {
	ctx, s := withStore(t, open)
	in := taskTable()
	require.NoError(t, s.Write(ctx, in.Name, in))

	got, err := s.Read(ctx, in.Name)
	require.NoError(t, err)
	assert.Equal(t, in.Name, got.Name)
	assert.NotEmpty(t, got.Revision)
	if diff := cmp.Diff(in.Strings(), got.Strings()); diff != "" {
		t.Errorf("read back mismatch (-want +got):\n%s", diff)
	}
}

func testRoundTripPrepared(t *testing.T, open Factory) {
	ctx, s := withStore(t, open)
	schema := types.DefaultSchema()
	in := tabular.Prepare(taskTable(), schema, tabular.PrepareOptions{})
	require.NoError(t, s.Write(ctx, in.Name, in))

	raw, err := s.Read(ctx, in.Name)
	require.NoError(t, err)
	got := tabular.Prepare(raw, schema, tabular.PrepareOptions{})
	if diff := cmp.Diff(in.Rows, got.Rows); diff != "" {
		t.Errorf("prepared round trip mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, in.Columns, got.Columns)
}

func testOverwrite(t *testing.T, open Factory) {
	ctx, s := withStore(t, open)
	require.NoError(t, s.Write(ctx, "S", taskTable()))
	smaller := types.FromStrings("S", [][]string{{"A"}, {"1"}})
	require.NoError(t, s.Write(ctx, "S", smaller))

	got, err := s.Read(ctx, "S")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"A"}, {"1"}}, got.Strings())
}

func testAppendAligns(t *testing.T, open Factory) {
	ctx, s := withStore(t, open)
	require.NoError(t, s.Write(ctx, "S", types.NewTable("S", "ID", "NAME", "NOTE")))
	require.NoError(t, s.Append(ctx, "S", types.Record{
		"NAME":    types.Text("x"),
		"ID":      types.Text("CV001"),
		"UNKNOWN": types.Text("dropped"),
	}))
	require.NoError(t, s.Append(ctx, "S", types.Record{"ID": types.Text("CV002")}))

	got, err := s.Read(ctx, "S")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"ID", "NAME", "NOTE"},
		{"CV001", "x", ""},
		{"CV002", "", ""},
	}, got.Strings())
}

func testAppendCreates(t *testing.T, open Factory) {
	ctx, s := withStore(t, open)
	require.NoError(t, s.Append(ctx, "NEW", types.Record{"B": types.Text("2"), "A": types.Text("1")}))
	got, err := s.Read(ctx, "NEW")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"A", "B"}, {"1", "2"}}, got.Strings())
}

func testSheets(t *testing.T, open Factory) {
	ctx, s := withStore(t, open)
	require.NoError(t, s.Write(ctx, types.SheetPeople, types.NewTable(types.SheetPeople, "ID_NHAN_SU")))
	require.NoError(t, s.Write(ctx, types.SheetTasks, taskTable()))
	names, err := s.Sheets(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{types.SheetPeople, types.SheetTasks}, names)
}

func testInvalidName(t *testing.T, open Factory) {
	ctx, s := withStore(t, open)
	err := s.Write(ctx, "../escape", taskTable())
	assert.ErrorIs(t, err, types.ErrInvalidName)
}

func testClosed(t *testing.T, open Factory) {
	s := open(t)
	ctx := context.Background()
	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "close is idempotent")
	_, err := s.Read(ctx, "S")
	assert.ErrorIs(t, err, types.ErrStoreClosed)
	assert.ErrorIs(t, s.Write(ctx, "S", taskTable()), types.ErrStoreClosed)
	_, err = s.Sheets(ctx)
	assert.ErrorIs(t, err, types.ErrStoreClosed)
}

func testWriteIf(t *testing.T, open Factory) {
	ctx, s := withStore(t, open)
	cw, ok := s.(types.ConditionalWriter)
	if !ok {
		t.Skip("store does not track revisions")
	}
	require.NoError(t, cw.WriteIf(ctx, "S", taskTable(), ""), "empty revision creates")

	first, err := s.Read(ctx, "S")
	require.NoError(t, err)
	second, err := s.Read(ctx, "S")
	require.NoError(t, err)
	require.Equal(t, first.Revision, second.Revision)

	first.Set(0, "TEN_VIEC", types.Text("edited"))
	require.NoError(t, cw.WriteIf(ctx, "S", first, first.Revision))

	err = cw.WriteIf(ctx, "S", second, second.Revision)
	assert.True(t, errors.Is(err, types.ErrStaleRevision), "stale copy rejected, got %v", err)

	got, err := s.Read(ctx, "S")
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Cell(0, "TEN_VIEC").String())
}
