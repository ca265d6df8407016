// Package sqlstore keeps sheets in a SQL database. SQLite (pure Go, one file
// in the data directory) and PostgreSQL share the same schema and queries.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/tabledesk/pkg/types"
)

// DBFile is the SQLite database file name inside the data directory.
const DBFile = "tabledesk.db"

// Store implements types.Store and types.ConditionalWriter over database/sql.
type Store struct {
	mu      sync.RWMutex
	closed  bool
	db      *sql.DB
	dialect Dialect
	logger  *zap.Logger
}

var (
	_ types.Store             = (*Store)(nil)
	_ types.ConditionalWriter = (*Store)(nil)
)

// OpenSQLite opens (creating if needed) the database in dataDir.
func OpenSQLite(ctx context.Context, dataDir string, logger *zap.Logger) (*Store, error) {
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	db, err := sql.Open(SQLite.driver(), filepath.Join(dataDir, DBFile))
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// one writer at a time; SQLite serializes anyway and this avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)
	return open(ctx, db, SQLite, logger)
}

// OpenPostgres connects to the database at dsn.
func OpenPostgres(ctx context.Context, dsn string, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open(Postgres.driver(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxIdleConns(4)
	db.SetMaxOpenConns(8)
	return open(ctx, db, Postgres, logger)
}

func open(ctx context.Context, db *sql.DB, d Dialect, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}
	return &Store{db: db, dialect: d, logger: logger}, nil
}

// Dialect reports which database the store talks to.
func (s *Store) Dialect() Dialect { return s.dialect }

func (s *Store) q(query string) string { return s.dialect.rebind(query) }

// Sheets implements types.Store.
func (s *Store) Sheets(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, types.ErrStoreClosed
	}
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM desk_sheets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing sheets: %w", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning sheet name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Read implements types.Store.
func (s *Store) Read(ctx context.Context, name string) (*types.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, types.ErrStoreClosed
	}

	var headerJSON, revision string
	err := s.db.QueryRowContext(ctx, s.q(`SELECT header, revision FROM desk_sheets WHERE name = ?`), name).
		Scan(&headerJSON, &revision)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrSheetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	var header []string
	if err := json.Unmarshal([]byte(headerJSON), &header); err != nil {
		return nil, fmt.Errorf("decoding %s header: %w", name, err)
	}
	values := [][]string{header}

	rows, err := s.db.QueryContext(ctx, s.q(`SELECT cells FROM desk_rows WHERE sheet = ? ORDER BY ord`), name)
	if err != nil {
		return nil, fmt.Errorf("reading %s rows: %w", name, err)
	}
	defer rows.Close()
	for rows.Next() {
		var cellsJSON string
		if err := rows.Scan(&cellsJSON); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", name, err)
		}
		var cells []string
		if err := json.Unmarshal([]byte(cellsJSON), &cells); err != nil {
			s.logger.Debug("skipping malformed row", zap.String("sheet", name), zap.Error(err))
			continue
		}
		values = append(values, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading %s rows: %w", name, err)
	}

	t := types.FromStrings(name, values)
	t.Revision = revision
	return t, nil
}

// Write implements types.Store.
func (s *Store) Write(ctx context.Context, name string, t *types.Table) error {
	return s.write(ctx, name, t, nil)
}

// WriteIf implements types.ConditionalWriter. An empty revision matches a
// sheet that does not exist yet.
func (s *Store) WriteIf(ctx context.Context, name string, t *types.Table, revision string) error {
	return s.write(ctx, name, t, &revision)
}

func (s *Store) write(ctx context.Context, name string, t *types.Table, expect *string) error {
	if err := types.ValidateSheetName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrStoreClosed
	}

	values := t.Strings()
	header, err := json.Marshal(values[0])
	if err != nil {
		return fmt.Errorf("encoding header: %w", err)
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		rev := newRevision()
		now := time.Now().UTC().Format(time.RFC3339)
		if expect != nil {
			if err := s.claim(ctx, tx, name, string(header), *expect, rev, now); err != nil {
				return err
			}
		} else if _, err := tx.ExecContext(ctx, s.q(`INSERT INTO desk_sheets (name, header, revision, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT (name) DO UPDATE SET header = excluded.header, revision = excluded.revision, updated_at = excluded.updated_at`),
			name, string(header), rev, now); err != nil {
			return fmt.Errorf("saving %s: %w", name, err)
		}

		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM desk_rows WHERE sheet = ?`), name); err != nil {
			return fmt.Errorf("clearing %s: %w", name, err)
		}
		stmt, err := tx.PrepareContext(ctx, s.q(`INSERT INTO desk_rows (sheet, ord, cells) VALUES (?, ?, ?)`))
		if err != nil {
			return fmt.Errorf("preparing insert: %w", err)
		}
		defer stmt.Close()
		for i, cells := range values[1:] {
			data, err := json.Marshal(cells)
			if err != nil {
				return fmt.Errorf("encoding row: %w", err)
			}
			if _, err := stmt.ExecContext(ctx, name, i, string(data)); err != nil {
				return fmt.Errorf("inserting %s row %d: %w", name, i, err)
			}
		}
		s.logger.Debug("sheet written", zap.String("sheet", name), zap.Int("rows", len(values)-1))
		return nil
	})
}

// claim moves the sheet from revision expect to rev, or fails with
// ErrStaleRevision when another writer got there first.
func (s *Store) claim(ctx context.Context, tx *sql.Tx, name, header, expect, rev, now string) error {
	var res sql.Result
	var err error
	if expect == "" {
		res, err = tx.ExecContext(ctx, s.q(`INSERT INTO desk_sheets (name, header, revision, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT (name) DO NOTHING`), name, header, rev, now)
	} else {
		res, err = tx.ExecContext(ctx, s.q(`UPDATE desk_sheets SET header = ?, revision = ?, updated_at = ? WHERE name = ? AND revision = ?`),
			header, rev, now, name, expect)
	}
	if err != nil {
		return fmt.Errorf("saving %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("saving %s: %w", name, err)
	}
	if n == 0 {
		return types.ErrStaleRevision
	}
	return nil
}

// Append implements types.Store.
func (s *Store) Append(ctx context.Context, name string, rec types.Record) error {
	if err := types.ValidateSheetName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrStoreClosed
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		rev := newRevision()
		now := time.Now().UTC().Format(time.RFC3339)

		var header []string
		var headerJSON string
		err := tx.QueryRowContext(ctx, s.q(`SELECT header FROM desk_sheets WHERE name = ?`), name).Scan(&headerJSON)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			header = rec.Keys()
			data, err := json.Marshal(header)
			if err != nil {
				return fmt.Errorf("encoding header: %w", err)
			}
			if _, err := tx.ExecContext(ctx, s.q(`INSERT INTO desk_sheets (name, header, revision, updated_at) VALUES (?, ?, ?, ?)`),
				name, string(data), rev, now); err != nil {
				return fmt.Errorf("creating %s: %w", name, err)
			}
		case err != nil:
			return fmt.Errorf("reading %s header: %w", name, err)
		default:
			if err := json.Unmarshal([]byte(headerJSON), &header); err != nil {
				return fmt.Errorf("decoding %s header: %w", name, err)
			}
			if _, err := tx.ExecContext(ctx, s.q(`UPDATE desk_sheets SET revision = ?, updated_at = ? WHERE name = ?`),
				rev, now, name); err != nil {
				return fmt.Errorf("updating %s: %w", name, err)
			}
		}

		var next int
		if err := tx.QueryRowContext(ctx, s.q(`SELECT COALESCE(MAX(ord), -1) + 1 FROM desk_rows WHERE sheet = ?`), name).
			Scan(&next); err != nil {
			return fmt.Errorf("reading %s size: %w", name, err)
		}
		data, err := json.Marshal(types.AlignStrings(header, rec))
		if err != nil {
			return fmt.Errorf("encoding row: %w", err)
		}
		if _, err := tx.ExecContext(ctx, s.q(`INSERT INTO desk_rows (sheet, ord, cells) VALUES (?, ?, ?)`),
			name, next, string(data)); err != nil {
			return fmt.Errorf("appending to %s: %w", name, err)
		}
		return nil
	})
}

// Close implements types.Store. Close is idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// newRevision returns a UUID v7, falling back to v4 if v7 generation fails.
func newRevision() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
