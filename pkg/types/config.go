package types

import (
	"errors"
	"fmt"
)

// Config holds backend selection and parameters for opening a Store.
type Config struct {
	Backend  string `json:"backend" yaml:"backend" mapstructure:"backend"`
	DataDir  string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
	DSN      string `json:"dsn,omitempty" yaml:"dsn,omitempty" mapstructure:"dsn"`
	Workbook string `json:"workbook,omitempty" yaml:"workbook,omitempty" mapstructure:"workbook"`
}

// Supported backend names.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendJSONL    = "jsonl"
	BackendXLSX     = "xlsx"
	BackendMemory   = "memory"
)

// Config validation errors.
var (
	ErrBackendEmpty   = errors.New("backend must not be empty")
	ErrBackendUnknown = errors.New("unknown backend")
	ErrDSNEmpty       = errors.New("dsn must not be empty")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite:   true,
	BackendPostgres: true,
	BackendJSONL:    true,
	BackendXLSX:     true,
	BackendMemory:   true,
}

// Backends returns the accepted backend names.
func Backends() []string {
	return []string{BackendSQLite, BackendPostgres, BackendJSONL, BackendXLSX, BackendMemory}
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return fmt.Errorf("%w: %q", ErrBackendUnknown, c.Backend)
	}
	if c.Backend == BackendPostgres && c.DSN == "" {
		return ErrDSNEmpty
	}
	return nil
}
