// Package paths resolves configuration and data directory locations.
//
// By default both live next to the working directory (.tabledesk and
// .tabledesk-db) so a desk travels with its project. The user scope places
// them in the platform's per-user locations instead.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the per-user directories.
const AppName = "tabledesk"

// CWD-relative directory names.
const (
	DefaultConfigDirName = ".tabledesk"
	DefaultDataDirName   = ".tabledesk-db"
)

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "TABLEDESK_CONFIG_DIR"
	EnvDataDir   = "TABLEDESK_DATA_DIR"
)

// Scope selects where default directories are placed.
type Scope int

const (
	// ScopeProject places defaults under the working directory.
	ScopeProject Scope = iota
	// ScopeUser places defaults in the platform's per-user directories.
	ScopeUser
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
	getwd         func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
	getwd:         os.Getwd,
}

// UserConfigDir returns the platform-specific per-user configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/tabledesk (fallback ~/.config/tabledesk)
// macOS:   ~/Library/Application Support/tabledesk
// Windows: %APPDATA%/tabledesk
func UserConfigDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, AppName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", AppName), nil
	default:
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppName), nil
	}
}

// UserDataDir returns the platform-specific per-user data directory.
//
// Linux:   $XDG_DATA_HOME/tabledesk (fallback ~/.local/share/tabledesk)
// macOS and Windows: same as UserConfigDir.
func UserDataDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, AppName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share", AppName), nil
	default:
		return UserConfigDir()
	}
}

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > TABLEDESK_CONFIG_DIR env > scope default.
func ResolveConfigDir(flag string, scope Scope) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	if scope == ScopeUser {
		return UserConfigDir()
	}
	cwd, err := platformDir.getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultConfigDirName), nil
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > configYAMLValue > TABLEDESK_DATA_DIR env > scope default.
func ResolveDataDir(flag, configYAMLValue string, scope Scope) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configYAMLValue != "" {
		return filepath.Abs(configYAMLValue)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	if scope == ScopeUser {
		return UserDataDir()
	}
	cwd, err := platformDir.getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}
