package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tabledesk/internal/memstore"
	"github.com/mesh-intelligence/tabledesk/pkg/tabular"
	"github.com/mesh-intelligence/tabledesk/pkg/types"
)

func TestImportJSON(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	require.NoError(t, store.Write(ctx, types.SheetImportedAI, types.FromStrings(types.SheetImportedAI, [][]string{
		{"TEN", "NGAY"},
		{"cũ", "01/01/2025"},
	})))
	im := &Importer{Store: store}

	n, err := im.ImportJSON(ctx, types.SheetImportedAI, []byte(`[{"TEN": "mới", "SO": 2}, {"GHI_CHU": null, "TEN": "khác"}]`))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := store.Read(ctx, types.SheetImportedAI)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"TEN", "NGAY", "GHI_CHU", "SO"},
		{"cũ", "01/01/2025", "", ""},
		{"mới", "", "", "2"},
		{"khác", "", "", ""},
	}, got.Strings())
}

func TestImportJSONSingleObjectCreatesSheet(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	im := &Importer{Store: store}

	n, err := im.ImportJSON(ctx, "NEW", []byte(`{"B": "2", "A": "1"}`))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	got, err := store.Read(ctx, "NEW")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"A", "B"}, {"1", "2"}}, got.Strings())
}

func TestImportJSONMalformed(t *testing.T) {
	im := &Importer{Store: memstore.New()}
	_, err := im.ImportJSON(context.Background(), "S", []byte(`[{"A": 1`))
	assert.ErrorIs(t, err, tabular.ErrNotRecords)
	_, err = im.ImportJSON(context.Background(), "S", []byte(`42`))
	assert.ErrorIs(t, err, tabular.ErrNotRecords)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestImportFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.json"), `{"ID": "2"}`)
	writeFile(t, filepath.Join(dir, "2025", "03", "a.json"), `[{"ID": "1"}]`)
	writeFile(t, filepath.Join(dir, "notes.txt"), `not json`)

	store := memstore.New()
	im := &Importer{Store: store}
	n, err := im.ImportFiles(ctx, "S", filepath.Join(dir, "**", "*.json"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := store.Read(ctx, "S")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"ID"}, {"1"}, {"2"}}, got.Strings())
}

func TestImportFilesAllOrNothing(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.json"), `[{"ID": "1"}]`)
	writeFile(t, filepath.Join(dir, "b.json"), `oops`)

	store := memstore.New()
	im := &Importer{Store: store}
	_, err := im.ImportFiles(ctx, "S", filepath.Join(dir, "*.json"))
	assert.ErrorIs(t, err, tabular.ErrNotRecords)
	_, err = store.Read(ctx, "S")
	assert.ErrorIs(t, err, types.ErrSheetNotFound)
}

func TestImportFilesNoMatch(t *testing.T) {
	im := &Importer{Store: memstore.New()}
	_, err := im.ImportFiles(context.Background(), "S", filepath.Join(t.TempDir(), "*.json"))
	assert.ErrorIs(t, err, ErrNoMatch)
}
