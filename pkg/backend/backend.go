// Package backend opens the Store selected by a Config. It is the public
// factory for every storage backend while their implementations stay
// internal.
//
// Example:
//
//	store, err := backend.Open(ctx, types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".tabledesk-db",
//	}, logger)
//	defer store.Close()
package backend

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/tabledesk/internal/jsonlstore"
	"github.com/mesh-intelligence/tabledesk/internal/memstore"
	"github.com/mesh-intelligence/tabledesk/internal/sqlstore"
	"github.com/mesh-intelligence/tabledesk/internal/xlsxstore"
	"github.com/mesh-intelligence/tabledesk/pkg/types"
)

// ErrNotWatchable is returned by Watch for backends that do not live in
// local files.
var ErrNotWatchable = errors.New("backend does not support watching")

// ErrDataDirEmpty is returned when a file backend has no data directory.
var ErrDataDirEmpty = errors.New("data_dir must not be empty")

// Watcher is implemented by stores that can report external changes.
type Watcher interface {
	Watch(ctx context.Context, onChange func(sheet string)) error
}

// Open validates cfg and opens its backend.
func Open(ctx context.Context, cfg types.Config, logger *zap.Logger) (types.Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("backend", cfg.Backend))

	var (
		store types.Store
		err   error
	)
	switch cfg.Backend {
	case types.BackendMemory:
		store = memstore.New()
	case types.BackendPostgres:
		store, err = sqlstore.OpenPostgres(ctx, cfg.DSN, logger)
	case types.BackendSQLite:
		if cfg.DataDir == "" {
			return nil, ErrDataDirEmpty
		}
		store, err = sqlstore.OpenSQLite(ctx, cfg.DataDir, logger)
	case types.BackendJSONL:
		if cfg.DataDir == "" {
			return nil, ErrDataDirEmpty
		}
		store, err = jsonlstore.Open(cfg.DataDir, logger)
	case types.BackendXLSX:
		path, perr := WorkbookPath(cfg)
		if perr != nil {
			return nil, perr
		}
		store, err = xlsxstore.Open(path, logger)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}
	logger.Debug("store opened")
	return store, nil
}

// WorkbookPath returns the workbook used by the xlsx backend: the configured
// file, or tabledesk.xlsx in the data directory.
func WorkbookPath(cfg types.Config) (string, error) {
	if cfg.Workbook != "" {
		return filepath.Abs(cfg.Workbook)
	}
	if cfg.DataDir == "" {
		return "", ErrDataDirEmpty
	}
	return filepath.Join(cfg.DataDir, xlsxstore.DefaultWorkbook), nil
}

// Watch runs onChange for externally changed sheets until ctx is done.
// It returns ErrNotWatchable when store cannot report changes.
func Watch(ctx context.Context, store types.Store, onChange func(sheet string)) error {
	w, ok := store.(Watcher)
	if !ok {
		return ErrNotWatchable
	}
	return w.Watch(ctx, onChange)
}
