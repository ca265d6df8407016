// Package types defines the worksheet data model (Value, Table, Record), the
// Store interface implemented by every backend, the workbook Schema, backend
// Config, and the standard sentinel errors shared across tabledesk.
package types
