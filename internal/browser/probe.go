// Package browser checks whether the Chrome binary the automation
// script depends on is installed. The check is purely advisory: it has
// no side effects and never returns an error.
package browser

import (
	"context"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/hugo-lorenzo-mato/engage/internal/logging"
)

// lookupTimeout caps the `which` subprocess on platforms without
// well-known install paths. A wedged lookup resolves to false rather
// than hanging the admission pipeline.
const lookupTimeout = 2 * time.Second

var windowsPaths = []string{
	`C:\Program Files\Google\Chrome\Application\chrome.exe`,
	`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
}

var darwinPaths = []string{
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
}

var linuxBinaries = []string{"google-chrome", "google-chrome-stable"}

// Probe detects a usable Chrome installation.
type Probe struct {
	logger *logging.Logger

	// Overridable for tests.
	goos     string
	statPath func(string) bool
	timeout  time.Duration
}

// NewProbe creates a probe for the current platform.
func NewProbe(logger *logging.Logger) *Probe {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Probe{
		logger: logger,
		goos:   runtime.GOOS,
		statPath: func(path string) bool {
			_, err := os.Stat(path)
			return err == nil
		},
		timeout: lookupTimeout,
	}
}

// Available reports whether Chrome is installed. All failure paths
// resolve false; the caller treats false as a BROWSER_NOT_FOUND gate.
func (p *Probe) Available(ctx context.Context) bool {
	switch p.goos {
	case "windows":
		return p.anyPathExists(windowsPaths)
	case "darwin":
		return p.anyPathExists(darwinPaths)
	default:
		return p.lookupAny(ctx, linuxBinaries)
	}
}

func (p *Probe) anyPathExists(paths []string) bool {
	for _, path := range paths {
		if p.statPath(path) {
			return true
		}
	}
	p.logger.Debug("no chrome install found", "paths", paths)
	return false
}

// lookupAny resolves binary names via `which`, bounded by the probe
// timeout. Exit code zero means found.
func (p *Probe) lookupAny(ctx context.Context, names []string) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	for _, name := range names {
		cmd := exec.CommandContext(ctx, "which", name)
		if err := cmd.Run(); err == nil {
			return true
		}
		if ctx.Err() != nil {
			p.logger.Warn("browser lookup timed out")
			return false
		}
	}
	p.logger.Debug("no chrome binary on PATH", "names", names)
	return false
}
