package staging

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hugo-lorenzo-mato/engage/internal/core"
	"github.com/hugo-lorenzo-mato/engage/internal/events"
	"github.com/hugo-lorenzo-mato/engage/internal/logging"
)

func TestWatcherPublishesConfigChanged(t *testing.T) {
	stager := newTestStager(t)
	if err := stager.dirs.Ensure(); err != nil {
		t.Fatalf("ensure dirs: %v", err)
	}

	bus := events.NewBus(16)
	defer bus.Close()
	ch := bus.Subscribe(events.TypeConfigChanged)

	w, err := NewWatcher(stager, bus, logging.NewNop())
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	cfg := core.RunConfig{
		Credentials: core.Credentials{Email: "user@example.com", Password: "pw"},
		Remember:    true,
	}
	if err := stager.SavePersistent(cfg.Persistent(true)); err != nil {
		t.Fatalf("SavePersistent: %v", err)
	}

	select {
	case ev := <-ch:
		if ev.EventType() != events.TypeConfigChanged {
			t.Errorf("type = %q", ev.EventType())
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no config changed event")
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	stager := newTestStager(t)
	if err := stager.dirs.Ensure(); err != nil {
		t.Fatalf("ensure dirs: %v", err)
	}

	bus := events.NewBus(16)
	defer bus.Close()
	ch := bus.Subscribe(events.TypeConfigChanged)

	w, err := NewWatcher(stager, bus, logging.NewNop())
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	sibling := filepath.Join(stager.dirs.Data, "notes.txt")
	if err := os.WriteFile(sibling, []byte("unrelated"), 0o600); err != nil {
		t.Fatalf("write sibling: %v", err)
	}

	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %q", ev.EventType())
	case <-time.After(500 * time.Millisecond):
	}
}
