// Package memstore implements an in-process Store. Sheets are kept in their
// storage string form so that reads behave like every persistent backend.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/tabledesk/pkg/types"
)

type sheet struct {
	values   [][]string // header first
	revision string
}

// Store is a mutex-guarded map of sheets.
type Store struct {
	mu     sync.RWMutex
	closed bool
	sheets map[string]*sheet
}

// New returns an empty store.
func New() *Store {
	return &Store{sheets: make(map[string]*sheet)}
}

var (
	_ types.Store             = (*Store)(nil)
	_ types.ConditionalWriter = (*Store)(nil)
)

// Sheets implements types.Store.
func (s *Store) Sheets(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, types.ErrStoreClosed
	}
	names := make([]string, 0, len(s.sheets))
	for name := range s.sheets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Read implements types.Store.
func (s *Store) Read(_ context.Context, name string) (*types.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, types.ErrStoreClosed
	}
	sh, ok := s.sheets[name]
	if !ok {
		return nil, types.ErrSheetNotFound
	}
	t := types.FromStrings(name, sh.values)
	t.Revision = sh.revision
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
	s.sheets[name] = &sheet{values: t.Strings(), revision: newRevision()}
	return nil
}

// WriteIf implements types.ConditionalWriter.
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
	if sh, ok := s.sheets[name]; ok {
		current = sh.revision
	}
	if current != revision {
		return types.ErrStaleRevision
	}
	s.sheets[name] = &sheet{values: t.Strings(), revision: newRevision()}
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
	sh, ok := s.sheets[name]
	if !ok || len(sh.values) == 0 {
		sh = &sheet{values: [][]string{rec.Keys()}}
		s.sheets[name] = sh
	}
	sh.values = append(sh.values, types.AlignStrings(sh.values[0], rec))
	sh.revision = newRevision()
	return nil
}

// Close implements types.Store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func newRevision() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
