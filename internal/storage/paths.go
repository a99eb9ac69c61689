package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// AppName names the per-user configuration directory.
const AppName = "FocusFlow"

const (
	stateFileName    = "state.json"
	historyFileName  = "history.db"
	settingsFileName = "settings.yaml"
	logFileName      = "focusflow.log"
)

// Paths lists every file the application keeps on disk.
type Paths struct {
	Dir      string
	State    string
	History  string
	Settings string
	Log      string
}

// PathsIn lays the application files out in dir.
func PathsIn(dir string) Paths {
	return Paths{
		Dir:      dir,
		State:    filepath.Join(dir, stateFileName),
		History:  filepath.Join(dir, historyFileName),
		Settings: filepath.Join(dir, settingsFileName),
		Log:      filepath.Join(dir, logFileName),
	}
}

// ResolvePaths returns the files under override, or under the user config
// directory when override is empty.
func ResolvePaths(override string) (Paths, error) {
	if override != "" {
		return PathsIn(override), nil
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		return Paths{}, fmt.Errorf("resolve user config dir: %w", err)
	}
	return PathsIn(filepath.Join(configDir, AppName)), nil
}

// Ensure creates the directory holding the files.
func (paths Paths) Ensure() error {
	if err := os.MkdirAll(paths.Dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return nil
}
