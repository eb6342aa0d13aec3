package browser

import (
	"context"
	"testing"
	"time"

	"github.com/hugo-lorenzo-mato/engage/internal/logging"
)

func TestAvailableWindowsPathHit(t *testing.T) {
	p := NewProbe(logging.NewNop())
	p.goos = "windows"
	p.statPath = func(path string) bool {
		return path == windowsPaths[0]
	}

	if !p.Available(context.Background()) {
		t.Error("expected available when an install path exists")
	}
}

func TestAvailableWindowsPathMiss(t *testing.T) {
	p := NewProbe(logging.NewNop())
	p.goos = "windows"
	p.statPath = func(string) bool { return false }

	if p.Available(context.Background()) {
		t.Error("expected unavailable with no install paths")
	}
}

func TestAvailableDarwinUsesAppBundle(t *testing.T) {
	var checked []string
	p := NewProbe(logging.NewNop())
	p.goos = "darwin"
	p.statPath = func(path string) bool {
		checked = append(checked, path)
		return false
	}

	p.Available(context.Background())

	if len(checked) != len(darwinPaths) {
		t.Errorf("expected %d stat checks, got %v", len(darwinPaths), checked)
	}
}

func TestAvailableLinuxLookup(t *testing.T) {
	p := NewProbe(logging.NewNop())
	p.goos = "linux"

	// Whatever this host has, the probe must settle quickly and not panic.
	done := make(chan bool, 1)
	go func() {
		done <- p.Available(context.Background())
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("probe did not resolve within its own timeout")
	}
}

func TestAvailableLinuxCancelledContext(t *testing.T) {
	p := NewProbe(logging.NewNop())
	p.goos = "linux"

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if p.Available(ctx) {
		t.Error("cancelled context must resolve false, not hang or error")
	}
}

func TestProbeNeverPanicsWithNilLogger(t *testing.T) {
	p := NewProbe(nil)
	p.goos = "windows"
	p.statPath = func(string) bool { return false }
	_ = p.Available(context.Background())
}
