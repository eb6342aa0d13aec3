// Package staging writes per-run config files for the automation
// subprocess and manages the durable "remembered" configuration.
package staging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hugo-lorenzo-mato/engage/internal/appdir"
	"github.com/hugo-lorenzo-mato/engage/internal/core"
	"github.com/hugo-lorenzo-mato/engage/internal/logging"
)

// PersistentConfigFile is the fixed filename of the remembered config
// inside the app data directory.
const PersistentConfigFile = "config.json"

// Stager stages run configs to disk and owns the persistent config file.
type Stager struct {
	dirs   *appdir.Dirs
	logger *logging.Logger
	now    func() time.Time
}

// NewStager creates a stager rooted at the given application directories.
func NewStager(dirs *appdir.Dirs, logger *logging.Logger) *Stager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Stager{
		dirs:   dirs,
		logger: logger,
		now:    time.Now,
	}
}

// Stage writes the run config, plus the injected log-file path and
// browser-profile directory, to a per-run timestamp-named JSON file.
// The returned path is handed to the subprocess via --config. A staging
// failure aborts the run.
func (s *Stager) Stage(cfg core.RunConfig) (string, error) {
	if err := s.dirs.Ensure(); err != nil {
		return "", core.ErrStageFailed("could not create application directories").WithCause(err)
	}

	ts := s.now()
	staged := core.StagedConfig{
		RunConfig:         cfg,
		LogFilePath:       filepath.Join(s.dirs.Logs, fmt.Sprintf("automation-%s.log", ts.Format("20060102"))),
		ChromeProfilePath: s.dirs.ChromeProfile,
	}

	data, err := json.MarshalIndent(staged, "", "  ")
	if err != nil {
		return "", core.ErrStageFailed("could not encode run config").WithCause(err)
	}

	path := filepath.Join(s.dirs.Staging, fmt.Sprintf("run-config-%s.json", ts.Format("20060102-150405.000")))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", core.ErrStageFailed("could not write staged config file").WithCause(err)
	}

	s.logger.Debug("staged run config", "path", path)
	return path, nil
}

// Cleanup deletes a staged config file. Deletion errors are logged and
// swallowed: teardown must never fail because of a leftover temp file.
func (s *Stager) Cleanup(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("could not remove staged config", "path", path, "error", err)
		return
	}
	s.logger.Debug("removed staged config", "path", path)
}

// SavePersistent writes the durable config subset atomically under the
// fixed filename, overwriting any previous version.
func (s *Stager) SavePersistent(cfg *core.PersistentConfig) error {
	if err := os.MkdirAll(s.dirs.Data, 0o750); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling persistent config: %w", err)
	}

	path := filepath.Join(s.dirs.Data, PersistentConfigFile)
	if err := atomicWriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing persistent config: %w", err)
	}
	return nil
}

// LoadPersistent reads the remembered config. A missing file is the
// expected first-run state and returns (nil, nil).
func (s *Stager) LoadPersistent() (*core.PersistentConfig, error) {
	path := filepath.Join(s.dirs.Data, PersistentConfigFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading persistent config: %w", err)
	}

	var cfg core.PersistentConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing persistent config: %w", err)
	}
	return &cfg, nil
}

// PersistentPath returns the absolute path of the persistent config file.
func (s *Stager) PersistentPath() string {
	return filepath.Join(s.dirs.Data, PersistentConfigFile)
}
