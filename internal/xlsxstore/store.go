// Package xlsxstore keeps sheets as worksheets of one .xlsx workbook, so the
// desk can work directly on a spreadsheet exported from or shared with
// office tools.
package xlsxstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/tabledesk/internal/watch"
	"github.com/mesh-intelligence/tabledesk/pkg/types"
)

// DefaultWorkbook is the file name used when the configuration names none.
const DefaultWorkbook = "tabledesk.xlsx"

// scratchSheet is used while a worksheet is being recreated.
const scratchSheet = "~tabledesk"

// Store is a workbook file held open in memory and saved after every change.
type Store struct {
	mu          sync.Mutex
	path        string
	f           *excelize.File
	placeholder string            // default sheet of a new workbook, hidden until replaced
	revisions   map[string]string // per-process revision tokens
	closed      bool
	logger      *zap.Logger
}

var (
	_ types.Store             = (*Store)(nil)
	_ types.ConditionalWriter = (*Store)(nil)
)

// Open loads the workbook at path, or starts a new one that is created on
// the first write.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{path: path, revisions: map[string]string{}, logger: logger}
	f, err := excelize.OpenFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		f = excelize.NewFile()
		s.placeholder = f.GetSheetName(0)
	case err != nil:
		return nil, fmt.Errorf("open excel: %w", err)
	}
	s.f = f
	return s, nil
}

// Path returns the workbook file.
func (s *Store) Path() string { return s.path }

func (s *Store) has(name string) bool {
	if name == s.placeholder {
		return false
	}
	idx, err := s.f.GetSheetIndex(name)
	return err == nil && idx >= 0
}

// Sheets implements types.Store.
func (s *Store) Sheets(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, types.ErrStoreClosed
	}
	var names []string
	for _, name := range s.f.GetSheetList() {
		if name == s.placeholder || name == scratchSheet {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Read implements types.Store.
func (s *Store) Read(_ context.Context, name string) (*types.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, types.ErrStoreClosed
	}
	if !s.has(name) {
		return nil, types.ErrSheetNotFound
	}
	rows, err := s.rows(name)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	t := types.FromStrings(name, rows)
	t.Revision = s.revision(name)
	return t, nil
}

func (s *Store) revision(name string) string {
	rev, ok := s.revisions[name]
	if !ok {
		rev = newRevision()
		s.revisions[name] = rev
	}
	return rev
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
	return s.replace(name, t)
}

// WriteIf implements types.ConditionalWriter. Revisions live in memory, so
// they only guard writers sharing this Store.
func (s *Store) WriteIf(_ context.Context, name string, t *types.Table, revision string) error {
	if err := types.ValidateSheetName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrStoreClosed
	}
	current := ""
	if s.has(name) {
		current = s.revision(name)
	}
	if current != revision {
		return types.ErrStaleRevision
	}
	return s.replace(name, t)
}

func (s *Store) replace(name string, t *types.Table) error {
	if s.has(name) {
		if _, err := s.f.NewSheet(scratchSheet); err != nil {
			return fmt.Errorf("recreating %s: %w", name, err)
		}
		if err := s.f.DeleteSheet(name); err != nil {
			return fmt.Errorf("recreating %s: %w", name, err)
		}
	}
	if _, err := s.f.NewSheet(name); err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}
	if err := s.dropHelpers(); err != nil {
		return err
	}
	for i, cells := range t.Strings() {
		if err := s.setRow(name, i+1, cells); err != nil {
			return err
		}
	}
	s.revisions[name] = newRevision()
	return s.save()
}

// dropHelpers removes the scratch and placeholder sheets once a real sheet
// exists.
func (s *Store) dropHelpers() error {
	for _, helper := range []string{scratchSheet, s.placeholder} {
		if helper == "" {
			continue
		}
		if idx, err := s.f.GetSheetIndex(helper); err != nil || idx < 0 {
			continue
		}
		if err := s.f.DeleteSheet(helper); err != nil {
			return fmt.Errorf("removing %s: %w", helper, err)
		}
	}
	s.placeholder = ""
	return nil
}

func (s *Store) setRow(sheet string, row int, cells []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	vals := make([]interface{}, len(cells))
	for i, c := range cells {
		vals[i] = c
	}
	if err := s.f.SetSheetRow(sheet, cell, &vals); err != nil {
		return fmt.Errorf("writing %s row %d: %w", sheet, row, err)
	}
	return nil
}

// Append implements types.Store.
func (s *Store) Append(_ context.Context, name string, rec types.Record) error {
	if err := types.ValidateSheetName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrStoreClosed
	}
	if !s.has(name) {
		header := rec.Keys()
		return s.replace(name, types.FromStrings(name, [][]string{header, types.AlignStrings(header, rec)}))
	}
	rows, err := s.f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	if len(rows) == 0 {
		header := rec.Keys()
		return s.replace(name, types.FromStrings(name, [][]string{header, types.AlignStrings(header, rec)}))
	}
	if err := s.setRow(name, len(rows)+1, types.AlignStrings(rows[0], rec)); err != nil {
		return err
	}
	s.revisions[name] = newRevision()
	return s.save()
}

// save writes the workbook to a temp file and renames it into place.
func (s *Store) save() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".xlsx-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := s.f.WriteTo(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing workbook: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	s.logger.Debug("workbook saved", zap.String("path", s.path))
	return nil
}

// Close implements types.Store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.f.Close()
}

// Watch calls onChange for every sheet in the workbook when the file changes
// on disk, until ctx is done. The in-memory copy is reloaded first.
func (s *Store) Watch(ctx context.Context, onChange func(sheet string)) error {
	base := filepath.Base(s.path)
	mapper := func(path string) (string, bool) {
		return base, filepath.Base(path) == base
	}
	return watch.Run(ctx, filepath.Dir(s.path), mapper, func(string) {
		if err := s.reload(); err != nil {
			s.logger.Error("reloading workbook", zap.Error(err))
			return
		}
		names, err := s.Sheets(ctx)
		if err != nil {
			return
		}
		for _, name := range names {
			onChange(name)
		}
	}, watch.Options{Logger: s.logger})
}

func (s *Store) reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrStoreClosed
	}
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return fmt.Errorf("open excel: %w", err)
	}
	_ = s.f.Close()
	s.f = f
	s.placeholder = ""
	s.revisions = map[string]string{}
	return nil
}

func newRevision() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
