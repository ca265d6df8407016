package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func jsonlMapper(path string) (string, bool) {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, ".jsonl") {
		return "", false
	}
	return strings.TrimSuffix(base, ".jsonl"), true
}

func TestRunReportsChangedSheets(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	changed := make(chan string, 10)
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, dir, jsonlMapper, func(s string) { changed <- s }, Options{Debounce: 20 * time.Millisecond})
	}()

	// give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "7_CONG_VIEC.jsonl"), []byte("[]\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0o644))

	select {
	case s := <-changed:
		assert.Equal(t, "7_CONG_VIEC", s)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestRunMissingDir(t *testing.T) {
	err := Run(context.Background(), filepath.Join(t.TempDir(), "nope"), jsonlMapper, func(string) {}, Options{})
	assert.Error(t, err)
}
