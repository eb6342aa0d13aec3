//go:build !windows

package supervisor

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hugo-lorenzo-mato/engage/internal/core"
	"github.com/hugo-lorenzo-mato/engage/internal/events"
	"github.com/hugo-lorenzo-mato/engage/internal/logging"
)

func asDomainError(err error, target **core.DomainError) bool {
	return errors.As(err, target)
}

// writeScript drops a fake automation script into the dev-mode search
// path and returns a LaunchSpec resolving to it via /bin/sh.
func writeScript(t *testing.T, body string) LaunchSpec {
	t.Helper()
	appRoot := t.TempDir()
	scriptDir := filepath.Join(appRoot, "scripts")
	if err := os.MkdirAll(scriptDir, 0o755); err != nil {
		t.Fatalf("setup: %v", err)
	}
	script := filepath.Join(scriptDir, "automation.py")
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatalf("setup: %v", err)
	}
	return LaunchSpec{
		ConfigPath:  filepath.Join(appRoot, "cfg.json"),
		Mode:        core.RunModeScript,
		AppRoot:     appRoot,
		Interpreter: "/bin/sh",
	}
}

func TestLaunchSuccess(t *testing.T) {
	s := New(logging.NewNop(), nil)
	spec := writeScript(t, "#!/bin/sh\necho plain output\nexit 0\n")

	p, err := s.Launch("run-1", spec)
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}

	outcome := s.Wait(p)
	if !outcome.Success {
		t.Fatalf("expected success, got %+v", outcome)
	}
	if outcome.ExitCode != 0 {
		t.Errorf("exit code = %d", outcome.ExitCode)
	}
	if !strings.Contains(outcome.Output, "plain output") {
		t.Errorf("output not captured: %q", outcome.Output)
	}
	if outcome.UsedBundledRuntime {
		t.Error("script mode should not report bundled runtime")
	}
	if outcome.ScriptPath == "" {
		t.Error("expected script path on dev-mode outcome")
	}
}

func TestLaunchMappedExitCode(t *testing.T) {
	s := New(logging.NewNop(), nil)
	spec := writeScript(t, "#!/bin/sh\nexit 3\n")

	p, err := s.Launch("run-1", spec)
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}

	outcome := s.Wait(p)
	if outcome.Success {
		t.Fatal("expected failure")
	}
	if outcome.ExitCode != 3 {
		t.Errorf("exit code = %d", outcome.ExitCode)
	}
	if outcome.Message != exitMessages[3] {
		t.Errorf("message = %q, want table entry", outcome.Message)
	}
}

func TestLaunchUnmappedExitCodeFallsBack(t *testing.T) {
	s := New(logging.NewNop(), nil)
	spec := writeScript(t, "#!/bin/sh\nexit 77\n")

	p, err := s.Launch("run-1", spec)
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}

	outcome := s.Wait(p)
	if outcome.Success {
		t.Fatal("expected failure")
	}
	if outcome.Message != fallbackExitMessage {
		t.Errorf("message = %q, want fallback", outcome.Message)
	}
}

func TestMarkerLinesForwardedAsProgress(t *testing.T) {
	bus := events.NewBus(10)
	defer bus.Close()
	ch := bus.Subscribe(events.TypeRunProgress)

	s := New(logging.NewNop(), bus)
	spec := writeScript(t, `#!/bin/sh
echo "[APP_OUT] commented on post 1"
echo "internal debug line"
echo "[APP_OUT]   "
echo "[APP_OUT] commented on post 2"
exit 0
`)

	p, err := s.Launch("run-1", spec)
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	outcome := s.Wait(p)

	var lines []string
	timeout := time.After(2 * time.Second)
	for len(lines) < 2 {
		select {
		case ev := <-ch:
			lines = append(lines, ev.(events.RunProgressEvent).Line)
		case <-timeout:
			t.Fatalf("expected 2 progress events, got %v", lines)
		}
	}

	if lines[0] != "commented on post 1" || lines[1] != "commented on post 2" {
		t.Errorf("unexpected progress lines %v", lines)
	}
	select {
	case ev := <-ch:
		t.Errorf("unexpected extra event %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}

	// Non-marker output is still captured in the outcome.
	if !strings.Contains(outcome.Stdout, "internal debug line") {
		t.Errorf("stdout capture incomplete: %q", outcome.Stdout)
	}
}

func TestStderrHintsAttachedOnFailure(t *testing.T) {
	s := New(logging.NewNop(), nil)
	spec := writeScript(t, `#!/bin/sh
echo "Traceback (most recent call last):" >&2
echo "  PermissionError: [Errno 13] Permission denied" >&2
exit 1
`)

	p, err := s.Launch("run-1", spec)
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}

	outcome := s.Wait(p)
	if outcome.Success {
		t.Fatal("expected failure")
	}
	want := map[string]bool{"python-traceback": true, "permission-denied": true}
	for _, hint := range outcome.Hints {
		delete(want, hint)
	}
	if len(want) != 0 {
		t.Errorf("missing hints %v in %v", want, outcome.Hints)
	}
	// Hints never decide the outcome: the message still comes from the table.
	if outcome.Message != exitMessages[1] {
		t.Errorf("message = %q", outcome.Message)
	}
}

func TestLaunchScriptNotFound(t *testing.T) {
	s := New(logging.NewNop(), nil)
	appRoot := t.TempDir()

	_, err := s.Launch("run-1", LaunchSpec{
		ConfigPath: "cfg.json",
		Mode:       core.RunModeScript,
		AppRoot:    appRoot,
	})
	if !core.IsCode(err, core.CodeScriptNotFound) {
		t.Fatalf("expected SCRIPT_NOT_FOUND, got %v", err)
	}

	var domErr *core.DomainError
	if !asDomainError(err, &domErr) {
		t.Fatal("expected DomainError")
	}
	candidates, _ := domErr.Details["candidates"].([]string)
	if len(candidates) != 3 {
		t.Errorf("expected full candidate list, got %v", candidates)
	}
}

func TestLaunchBundledRuntimeMissing(t *testing.T) {
	s := New(logging.NewNop(), nil)

	_, err := s.Launch("run-1", LaunchSpec{
		ConfigPath:    "cfg.json",
		Mode:          core.RunModeBundled,
		ResourcesRoot: t.TempDir(),
	})
	if !core.IsCode(err, core.CodeRuntimeMissing) {
		t.Fatalf("expected RUNTIME_MISSING, got %v", err)
	}
}

func TestLaunchBundledExecutable(t *testing.T) {
	s := New(logging.NewNop(), nil)
	resources := t.TempDir()

	platform, arch := platformKey()
	dir := filepath.Join(resources, "python-executables", platform+"-"+arch)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("setup: %v", err)
	}
	exe := filepath.Join(dir, "automation")
	if err := os.WriteFile(exe, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("setup: %v", err)
	}

	p, err := s.Launch("run-1", LaunchSpec{
		ConfigPath:    "cfg.json",
		Mode:          core.RunModeBundled,
		ResourcesRoot: resources,
	})
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}

	outcome := s.Wait(p)
	if !outcome.Success {
		t.Fatalf("expected success, got %+v", outcome)
	}
	if !outcome.UsedBundledRuntime {
		t.Error("expected bundled runtime flag")
	}
}

func TestLaunchSpawnError(t *testing.T) {
	s := New(logging.NewNop(), nil)
	resources := t.TempDir()

	platform, arch := platformKey()
	dir := filepath.Join(resources, "python-executables", platform+"-"+arch)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("setup: %v", err)
	}
	// Present but not executable: spawn fails with a permission error.
	exe := filepath.Join(dir, "automation")
	if err := os.WriteFile(exe, []byte("not a binary"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	_, err := s.Launch("run-1", LaunchSpec{
		ConfigPath:    "cfg.json",
		Mode:          core.RunModeBundled,
		ResourcesRoot: resources,
	})
	if !core.IsCode(err, core.CodeSpawnFailed) {
		t.Fatalf("expected SPAWN_FAILED, got %v", err)
	}

	var domErr *core.DomainError
	if !asDomainError(err, &domErr) {
		t.Fatal("expected DomainError")
	}
	if domErr.Details["platform"] == "" || domErr.Details["arch"] == "" {
		t.Errorf("expected platform/arch tags, got %v", domErr.Details)
	}
}

func TestCancelTerminatesProcess(t *testing.T) {
	s := New(logging.NewNop(), nil)
	spec := writeScript(t, "#!/bin/sh\nsleep 30\n")

	p, err := s.Launch("run-1", spec)
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}

	done := make(chan core.ProcessOutcome, 1)
	go func() { done <- s.Wait(p) }()

	time.Sleep(100 * time.Millisecond)
	if err := s.Cancel(p); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	select {
	case outcome := <-done:
		if outcome.Success {
			t.Error("cancelled run must not be a success")
		}
		if outcome.Message != stoppedMessage {
			t.Errorf("message = %q", outcome.Message)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Wait did not settle after Cancel")
	}

	// Idempotent: cancelling again, or a nil process, is a no-op.
	if err := s.Cancel(p); err != nil {
		t.Errorf("second Cancel: %v", err)
	}
	if err := s.Cancel(nil); err != nil {
		t.Errorf("Cancel(nil): %v", err)
	}
}

func TestWaitIsIdempotent(t *testing.T) {
	s := New(logging.NewNop(), nil)
	spec := writeScript(t, "#!/bin/sh\nexit 0\n")

	p, err := s.Launch("run-1", spec)
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}

	first := s.Wait(p)
	second := s.Wait(p)
	if first.Success != second.Success || first.ExitCode != second.ExitCode {
		t.Error("repeated Wait must return the same outcome")
	}
}
