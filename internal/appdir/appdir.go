// Package appdir resolves the per-application writable directories used
// for persistent config, staged run files, logs, and the browser profile.
package appdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const appName = "engage"

// Dirs holds the resolved application directories.
type Dirs struct {
	// Data is the root app-data directory (config, token, history).
	Data string
	// Staging holds transient per-run config files.
	Staging string
	// Logs holds automation log files handed to the subprocess.
	Logs string
	// ChromeProfile is the persistent browser profile directory.
	ChromeProfile string
}

// Resolve determines the application directories without creating them.
// The root defaults to the platform config dir (e.g. ~/.config/engage,
// %AppData%\engage) and can be overridden for tests.
func Resolve(override string) (*Dirs, error) {
	root := override
	if root == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolving user config dir: %w", err)
		}
		root = filepath.Join(base, appName)
	}

	return &Dirs{
		Data:          root,
		Staging:       filepath.Join(os.TempDir(), appName+"-staging"),
		Logs:          filepath.Join(root, "logs"),
		ChromeProfile: filepath.Join(root, "chrome-profile"),
	}, nil
}

// Ensure creates the directories that must exist before a run.
func (d *Dirs) Ensure() error {
	for _, dir := range []string{d.Data, d.Staging, d.Logs, d.ChromeProfile} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}
