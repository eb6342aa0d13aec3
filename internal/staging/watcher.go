package staging

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hugo-lorenzo-mato/engage/internal/events"
	"github.com/hugo-lorenzo-mato/engage/internal/logging"
)

// Watcher publishes a config-changed event whenever the persistent
// config file is rewritten on disk, so an open UI can refresh its
// prepopulated form.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	bus      *events.Bus
	logger   *logging.Logger
	debounce time.Duration
}

// NewWatcher creates a watcher for the stager's persistent config file.
func NewWatcher(stager *Stager, bus *events.Bus, logger *logging.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Watcher{
		path:     stager.PersistentPath(),
		watcher:  fsWatcher,
		bus:      bus,
		logger:   logger,
		debounce: 100 * time.Millisecond,
	}, nil
}

// Start begins watching. The parent directory is watched rather than
// the file itself: atomic saves replace the file by rename, which
// would break a direct file watch.
func (w *Watcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	go w.run(ctx)
	return nil
}

// Stop closes the underlying watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

func (w *Watcher) run(ctx context.Context) {
	var pending time.Time
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				pending = time.Now()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "error", err)

		case <-ticker.C:
			if pending.IsZero() || time.Since(pending) < w.debounce {
				continue
			}
			pending = time.Time{}
			w.logger.Debug("persistent config changed", "path", w.path)
			w.bus.Publish(events.NewConfigChangedEvent(w.path))
		}
	}
}
