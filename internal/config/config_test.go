package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tabledesk/pkg/tabular"
	"github.com/mesh-intelligence/tabledesk/pkg/types"
)

func TestLoadWritesDefaultFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cfg")
	v, err := Load(dir)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, FileName))
	require.NoError(t, err)

	s, err := Decode(v)
	require.NoError(t, err)
	assert.Equal(t, types.BackendSQLite, s.Backend)
	assert.Equal(t, "raw", s.Lookup.NotFound)
	assert.Equal(t, DefaultModel, s.Assistant.Model)
	assert.False(t, s.Columns.StripDiacritics)
	assert.Equal(t, DefaultLogLevel, s.Log.Level)
}

func TestLoadKeepsExistingFile(t *testing.T) {
	dir := t.TempDir()
	content := "backend: jsonl\ndata_dir: /srv/desk\nlookup:\n  not_found: empty\ncolumns:\n  strip_diacritics: true\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644))

	v, err := Load(dir)
	require.NoError(t, err)
	s, err := Decode(v)
	require.NoError(t, err)

	assert.Equal(t, types.BackendJSONL, s.Backend)
	assert.Equal(t, "/srv/desk", s.DataDir)
	assert.Equal(t, tabular.NotFoundEmpty, s.Resolver().NotFound)
	assert.True(t, s.ColumnOptions().StripDiacritics)
	assert.Equal(t, DefaultModel, s.Assistant.Model, "unset keys keep defaults")

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TABLEDESK_BACKEND", "postgres")
	t.Setenv("TABLEDESK_DSN", "postgres://localhost/desk")
	t.Setenv("TABLEDESK_ASSISTANT_API_KEY", "secret")
	t.Setenv("TABLEDESK_LOOKUP_NOT_FOUND", "empty")

	v, err := Load(t.TempDir())
	require.NoError(t, err)
	s, err := Decode(v)
	require.NoError(t, err)

	assert.Equal(t, types.BackendPostgres, s.Backend)
	assert.Equal(t, "postgres://localhost/desk", s.DSN)
	assert.Equal(t, "secret", s.Assistant.APIKey)
	assert.Equal(t, "empty", s.Lookup.NotFound)
	require.NoError(t, s.Store().Validate())
}

func TestLoadRejectsBadYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("backend: [unclosed\n"), 0o644))
	_, err := Load(dir)
	assert.Error(t, err)
}

func TestWriteOmitsAPIKey(t *testing.T) {
	dir := t.TempDir()
	var s Settings
	s.Backend = types.BackendXLSX
	s.Workbook = "/srv/desk.xlsx"
	s.Lookup.NotFound = "raw"
	s.Assistant.Model = DefaultModel
	s.Assistant.APIKey = "secret"
	require.NoError(t, Write(dir, s))

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")

	v, err := Load(dir)
	require.NoError(t, err)
	got, err := Decode(v)
	require.NoError(t, err)
	assert.Equal(t, types.BackendXLSX, got.Backend)
	assert.Equal(t, "/srv/desk.xlsx", got.Workbook)
}
