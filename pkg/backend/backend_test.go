package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tabledesk/pkg/types"
)

func TestOpenEachFileBackend(t *testing.T) {
	for _, name := range []string{types.BackendMemory, types.BackendSQLite, types.BackendJSONL, types.BackendXLSX} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s, err := Open(ctx, types.Config{Backend: name, DataDir: t.TempDir()}, nil)
			require.NoError(t, err)
			defer s.Close()

			require.NoError(t, s.Append(ctx, types.SheetPeople, types.Record{
				"ID_NHAN_SU": types.Text("NS001"),
				"HO_TEN":     types.Text("Nguyễn Văn A"),
			}))
			got, err := s.Read(ctx, types.SheetPeople)
			require.NoError(t, err)
			assert.Equal(t, "Nguyễn Văn A", got.Cell(0, "HO_TEN").String())
		})
	}
}

func TestOpenValidates(t *testing.T) {
	ctx := context.Background()
	_, err := Open(ctx, types.Config{}, nil)
	assert.ErrorIs(t, err, types.ErrBackendEmpty)

	_, err = Open(ctx, types.Config{Backend: "csv"}, nil)
	assert.ErrorIs(t, err, types.ErrBackendUnknown)

	_, err = Open(ctx, types.Config{Backend: types.BackendPostgres}, nil)
	assert.ErrorIs(t, err, types.ErrDSNEmpty)

	for _, name := range []string{types.BackendSQLite, types.BackendJSONL, types.BackendXLSX} {
		_, err = Open(ctx, types.Config{Backend: name}, nil)
		assert.ErrorIs(t, err, ErrDataDirEmpty, name)
	}
}

func TestWorkbookPath(t *testing.T) {
	got, err := WorkbookPath(types.Config{DataDir: "/srv/desk"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/srv/desk", "tabledesk.xlsx"), got)

	got, err = WorkbookPath(types.Config{DataDir: "/srv/desk", Workbook: "/data/shared.xlsx"})
	require.NoError(t, err)
	assert.Equal(t, "/data/shared.xlsx", got)
}

func TestXLSXUsesConfiguredWorkbook(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "shared.xlsx")
	s, err := Open(ctx, types.Config{Backend: types.BackendXLSX, Workbook: path}, nil)
	require.NoError(t, err)
	require.NoError(t, s.Write(ctx, "A", types.NewTable("A", "X")))
	require.NoError(t, s.Close())

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestWatchUnsupported(t *testing.T) {
	s, err := Open(context.Background(), types.Config{Backend: types.BackendMemory}, nil)
	require.NoError(t, err)
	defer s.Close()
	assert.ErrorIs(t, Watch(context.Background(), s, func(string) {}), ErrNotWatchable)
}

func TestWatchJSONL(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	dir := t.TempDir()
	s, err := Open(ctx, types.Config{Backend: types.BackendJSONL, DataDir: dir}, nil)
	require.NoError(t, err)
	defer s.Close()

	changed := make(chan string, 8)
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, s, func(sheet string) { changed <- sheet }) }()

	// The watcher may not be registered yet; keep writing until it reports.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(dir, "S.jsonl"), []byte("[\"A\"]\n"), 0o644)
		select {
		case sheet := <-changed:
			return sheet == "S"
		default:
			return false
		}
	}, 5*time.Second, 200*time.Millisecond)

	cancel()
	<-done
}
