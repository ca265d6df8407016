package types

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Store provides whole-sheet access to a workbook. Every call is a blocking
// round trip to the backend; implementations guard their own state but do
// not coordinate writers across processes.
type Store interface {
	// Sheets lists the sheet names in the workbook.
	Sheets(ctx context.Context) ([]string, error)

	// Read returns the sheet with its first row as header and every data
	// cell as text. Short rows are padded with empty cells.
	// Returns ErrSheetNotFound if the sheet does not exist.
	Read(ctx context.Context, name string) (*Table, error)

	// Write replaces the sheet contents (header and all rows), creating the
	// sheet when it does not exist. Last write wins.
	Write(ctx context.Context, name string, t *Table) error

	// Append adds one row aligned to the sheet's existing header. Fields
	// without a matching column are dropped. When the sheet does not exist
	// it is created with the record's sorted keys as header.
	Append(ctx context.Context, name string, rec Record) error

	// Close releases backend resources. After Close, calls return
	// ErrStoreClosed. Close is idempotent.
	Close() error
}

// ConditionalWriter is implemented by stores that track sheet revisions.
// WriteIf replaces the sheet only if its revision still equals revision,
// otherwise it returns ErrStaleRevision.
type ConditionalWriter interface {
	WriteIf(ctx context.Context, name string, t *Table, revision string) error
}

// Store errors.
var (
	ErrSheetNotFound = errors.New("sheet not found")
	ErrStaleRevision = errors.New("sheet changed since it was read")
	ErrStoreClosed   = errors.New("store is closed")
	ErrInvalidName   = errors.New("invalid sheet name")
)

// maxSheetNameLen matches the spreadsheet limit so every backend accepts the
// same names.
const maxSheetNameLen = 31

// ValidateSheetName rejects names that cannot be used by every backend:
// empty names, names longer than 31 characters, and names containing path
// separators or spreadsheet-reserved characters.
func ValidateSheetName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidName
	}
	if len([]rune(name)) > maxSheetNameLen {
		return fmt.Errorf("%w: %q is longer than %d characters", ErrInvalidName, name, maxSheetNameLen)
	}
	if strings.ContainsAny(name, `/\?*[]:`) || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
