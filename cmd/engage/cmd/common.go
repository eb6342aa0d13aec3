package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/hugo-lorenzo-mato/engage/internal/appdir"
	"github.com/hugo-lorenzo-mato/engage/internal/automation"
	"github.com/hugo-lorenzo-mato/engage/internal/browser"
	"github.com/hugo-lorenzo-mato/engage/internal/core"
	"github.com/hugo-lorenzo-mato/engage/internal/entitlement"
	"github.com/hugo-lorenzo-mato/engage/internal/events"
	"github.com/hugo-lorenzo-mato/engage/internal/history"
	"github.com/hugo-lorenzo-mato/engage/internal/logging"
	"github.com/hugo-lorenzo-mato/engage/internal/staging"
	"github.com/hugo-lorenzo-mato/engage/internal/supervisor"
)

// app bundles everything a command needs after wiring.
type app struct {
	dirs    *appdir.Dirs
	logger  *logging.Logger
	bus     *events.Bus
	stager  *staging.Stager
	tokens  *entitlement.FileTokenStore
	manager *automation.Manager
	history *history.Store
}

func newLogger() *logging.Logger {
	return logging.New(logging.Config{
		Level:  viper.GetString("log.level"),
		Format: viper.GetString("log.format"),
		Output: os.Stderr,
	})
}

// buildApp wires the full automation pipeline from flags and config.
func buildApp() (*app, error) {
	logger := newLogger()

	dirs, err := appdir.Resolve(viper.GetString("data_dir"))
	if err != nil {
		return nil, fmt.Errorf("resolving app directories: %w", err)
	}
	if err := dirs.Ensure(); err != nil {
		return nil, fmt.Errorf("creating app directories: %w", err)
	}

	bus := events.NewBus(256)
	stager := staging.NewStager(dirs, logger)
	tokens := entitlement.NewFileTokenStore(dirs.Data)
	gate := entitlement.NewGate(viper.GetString("api_url"), tokens, logger)
	probe := browser.NewProbe(logger)
	sup := supervisor.New(logger, bus)

	hist, err := history.NewStore(filepath.Join(dirs.Data, "history.db"))
	if err != nil {
		return nil, fmt.Errorf("opening run history: %w", err)
	}

	manager := automation.NewManager(gate, probe, stager, sup, launchSpec(), logger,
		automation.WithBus(bus),
		automation.WithHistory(hist),
	)

	return &app{
		dirs:    dirs,
		logger:  logger,
		bus:     bus,
		stager:  stager,
		tokens:  tokens,
		manager: manager,
		history: hist,
	}, nil
}

// Close releases the app's resources.
func (a *app) Close() {
	if a.history != nil {
		_ = a.history.Close()
	}
	a.bus.Close()
}

// launchSpec builds the runtime invocation from flags. Script mode
// searches for the automation script relative to the working directory.
func launchSpec() supervisor.LaunchSpec {
	mode := core.RunMode(viper.GetString("mode"))

	appRoot, err := os.Getwd()
	if err != nil {
		appRoot = "."
	}

	return supervisor.LaunchSpec{
		Mode:          mode,
		ResourcesRoot: viper.GetString("resources"),
		AppRoot:       appRoot,
	}
}
