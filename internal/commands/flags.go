package commands

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/colonyops/qp/internal/core/config"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	Root       string
	Theme      string

	// ConfigFiles lists the config files merged in the Before hook.
	ConfigFiles []string
}

// DefaultConfigPath returns the default global config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "qp", config.FileName)
}

// DefaultLogFile returns the default log file path using the system's state directory.
// On macOS: ~/Library/Logs/qp/qp.log
// On Linux: $XDG_STATE_HOME/qp/qp.log (defaults to ~/.local/state/qp/qp.log)
func DefaultLogFile() string {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome != "" {
		return filepath.Join(stateHome, "qp", "qp.log")
	}

	home, _ := os.UserHomeDir()

	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Logs", "qp", "qp.log")
	}

	return filepath.Join(home, ".local", "state", "qp", "qp.log")
}
