// Package paths resolves the XDG-style directories dtt reads and writes.
//
// Settings and aliases live under the config root, history and logs under
// the state root. Every location can be moved with the matching XDG_*_HOME
// variable as long as it is absolute.
package paths

import (
	"errors"
	"os"
	"path/filepath"
)

const appName = "dtt"

// base is one of the per-user directory trees.
type base struct {
	xdgEnv string
	// osDefault is consulted when the XDG variable is unset. It may be nil.
	osDefault func() (string, error)
	// homeRelative is the last resort, joined to $HOME.
	homeRelative string
}

var (
	configBase = base{xdgEnv: "XDG_CONFIG_HOME", osDefault: os.UserConfigDir, homeRelative: ".config"}
	stateBase  = base{xdgEnv: "XDG_STATE_HOME", homeRelative: filepath.Join(".local", "state")}
	cacheBase  = base{xdgEnv: "XDG_CACHE_HOME", osDefault: os.UserCacheDir, homeRelative: ".cache"}
)

var errNoHome = errors.New("resolve user home directory")

func (b base) root() (string, error) {
	if dir := os.Getenv(b.xdgEnv); filepath.IsAbs(dir) {
		return filepath.Join(dir, appName), nil
	}

	var osErr error

	if b.osDefault != nil {
		dir, err := b.osDefault()
		if err == nil && dir != "" {
			return filepath.Join(dir, appName), nil
		}

		osErr = err
	}

	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, b.homeRelative, appName), nil
	}

	if osErr != nil {
		return "", osErr
	}

	return "", errNoHome
}

func (b base) join(elem ...string) (string, error) {
	root, err := b.root()
	if err != nil {
		return "", err
	}

	return filepath.Join(append([]string{root}, elem...)...), nil
}

// ConfigRoot returns the directory holding config.yaml and aliases.yaml.
func ConfigRoot() (string, error) { return configBase.root() }

// StateRoot returns the directory holding history and logs.
func StateRoot() (string, error) { return stateBase.root() }

// CacheRoot returns the per-user cache directory.
func CacheRoot() (string, error) { return cacheBase.root() }

// ConfigFile returns the viper configuration file path.
func ConfigFile() (string, error) { return configBase.join("config.yaml") }

// AliasesFile returns the persisted alias table path.
func AliasesFile() (string, error) { return configBase.join("aliases.yaml") }

// HistoryFile returns the command history file path.
func HistoryFile() (string, error) { return stateBase.join("history") }

// LogsDir returns the default log directory.
func LogsDir() (string, error) { return stateBase.join("logs") }

// DefaultLogFile returns the log file used when neither --log-file nor
// stderr logging is configured.
func DefaultLogFile() (string, error) { return stateBase.join("logs", "dtt.log") }
