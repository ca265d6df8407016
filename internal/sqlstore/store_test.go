package sqlstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tabledesk/internal/storetest"
	"github.com/mesh-intelligence/tabledesk/pkg/types"
)

func openSQLite(t *testing.T, dir string) *Store {
	t.Helper()
	s, err := OpenSQLite(context.Background(), dir, nil)
	require.NoError(t, err)
	return s
}

func TestSQLiteStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) types.Store { return openSQLite(t, t.TempDir()) })
}

// TestPostgresStore runs against a live server named by
// TABLEDESK_TEST_POSTGRES_URL. Each subtest starts from empty tables.
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("TABLEDESK_TEST_POSTGRES_URL")
	if dsn == "" {
		t.Skip("TABLEDESK_TEST_POSTGRES_URL not set")
	}
	storetest.Run(t, func(t *testing.T) types.Store {
		ctx := context.Background()
		s, err := OpenPostgres(ctx, dsn, nil)
		require.NoError(t, err)
		_, err = s.db.ExecContext(ctx, `TRUNCATE desk_sheets, desk_rows`)
		require.NoError(t, err)
		return s
	})
}

func TestSQLitePersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s := openSQLite(t, dir)
	require.NoError(t, s.Write(ctx, "S", types.FromStrings("S", [][]string{{"ID"}, {"CV001"}})))
	require.NoError(t, s.Close())

	_, err := os.Stat(filepath.Join(dir, DBFile))
	require.NoError(t, err)

	s = openSQLite(t, dir)
	defer s.Close()
	got, err := s.Read(ctx, "S")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"ID"}, {"CV001"}}, got.Strings())
	assert.Equal(t, SQLite, s.Dialect())
}

func TestRevisionChangesOnAppend(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t, t.TempDir())
	defer s.Close()

	require.NoError(t, s.Write(ctx, "S", types.NewTable("S", "ID")))
	before, err := s.Read(ctx, "S")
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, "S", types.Record{"ID": types.Text("CV001")}))

	err = s.WriteIf(ctx, "S", before, before.Revision)
	assert.ErrorIs(t, err, types.ErrStaleRevision, "append invalidates earlier reads")
}

func TestReadSkipsMalformedRows(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t, t.TempDir())
	defer s.Close()

	require.NoError(t, s.Write(ctx, "S", types.FromStrings("S", [][]string{{"ID"}, {"1"}})))
	_, err := s.db.ExecContext(ctx, `INSERT INTO desk_rows (sheet, ord, cells) VALUES ('S', 5, 'garbage')`)
	require.NoError(t, err)

	got, err := s.Read(ctx, "S")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Len())
}

func TestRebind(t *testing.T) {
	q := `SELECT a FROM t WHERE x = ? AND y = ?`
	assert.Equal(t, q, SQLite.rebind(q))
	assert.Equal(t, `SELECT a FROM t WHERE x = $1 AND y = $2`, Postgres.rebind(q))
}

func TestOpenPostgresUnreachable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := OpenPostgres(ctx, "postgres://nobody@127.0.0.1:1/none?connect_timeout=1", nil)
	assert.Error(t, err)
}

