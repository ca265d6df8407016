// Package jsonlstore keeps each sheet as a JSONL file in a data directory.
// The first line of a file is the header; every following line is one row.
// Files are plain text so they diff and merge cleanly under version control.
package jsonlstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/tabledesk/internal/watch"
	"github.com/mesh-intelligence/tabledesk/pkg/types"
)

// Ext is the file extension of sheet files.
const Ext = ".jsonl"

// Store is a directory of sheet files.
type Store struct {
	mu     sync.RWMutex
	dir    string
	closed bool
	logger *zap.Logger
}

var _ types.Store = (*Store)(nil)

// Open returns a store rooted at dir, creating the directory if needed.
func Open(dir string, logger *zap.Logger) (*Store, error) {
	if dir == "" {
		return nil, errors.New("jsonl store needs a data directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Dir returns the data directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+Ext)
}

// SheetFor maps a file path back to its sheet name.
func SheetFor(path string) (string, bool) {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || !strings.HasSuffix(base, Ext) {
		return "", false
	}
	return strings.TrimSuffix(base, Ext), true
}

// Sheets implements types.Store.
func (s *Store) Sheets(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, types.ErrStoreClosed
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", s.dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if name, ok := SheetFor(e.Name()); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Read implements types.Store. The revision is the file's modification
// stamp; it is informational and not used for conditional writes.
func (s *Store) Read(_ context.Context, name string) (*types.Table, error) {
	if err := types.ValidateSheetName(name); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, types.ErrStoreClosed
	}
	path := s.path(name)
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, types.ErrSheetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}
	t := types.FromStrings(name, lines)
	t.Revision = strconv.FormatInt(info.ModTime().UnixNano(), 36)
	return t, nil
}

// Write implements types.Store.
func (s *Store) Write(_ context.Context, name string, t *types.Table) error {
	if err := types.ValidateSheetName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrStoreClosed
	}
	if err := writeLines(s.path(name), t.Strings()); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	s.logger.Debug("sheet written", zap.String("sheet", name), zap.Int("rows", t.Len()))
	return nil
}

// Append implements types.Store. The row is added with one O_APPEND write;
// a new file starts with the record's sorted keys as header.
func (s *Store) Append(_ context.Context, name string, rec types.Record) error {
	if err := types.ValidateSheetName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrStoreClosed
	}
	path := s.path(name)
	header, err := readHeader(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if header == nil {
		header = rec.Keys()
		if err := writeLines(path, [][]string{header, types.AlignStrings(header, rec)}); err != nil {
			return fmt.Errorf("creating %s: %w", name, err)
		}
		return nil
	}
	return appendLines(path, types.AlignStrings(header, rec))
}

// Close implements types.Store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Watch calls onChange with the name of each sheet whose file changes until
// ctx is done.
func (s *Store) Watch(ctx context.Context, onChange func(sheet string)) error {
	return watch.Run(ctx, s.dir, SheetFor, onChange, watch.Options{Logger: s.logger})
}
