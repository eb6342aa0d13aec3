// Package supervisor owns the full lifecycle of one external automation
// process: invocation selection, launch, output streaming, termination
// classification, and cancellation.
package supervisor

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/hugo-lorenzo-mato/engage/internal/core"
	"github.com/hugo-lorenzo-mato/engage/internal/events"
	"github.com/hugo-lorenzo-mato/engage/internal/logging"
)

// markerTag prefixes the stdout lines the script intends for the UI.
// Everything else on stdout is captured but not surfaced live.
const markerTag = "[APP_OUT]"

// Supervisor launches and monitors automation processes.
type Supervisor struct {
	logger *logging.Logger
	bus    *events.Bus
}

// New creates a supervisor. The bus may be nil when no UI is attached.
func New(logger *logging.Logger, bus *events.Bus) *Supervisor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Supervisor{logger: logger, bus: bus}
}

// Process is a handle to one running automation invocation.
type Process struct {
	runID      string
	cmd        *exec.Cmd
	mode       core.RunMode
	scriptPath string

	stdout bytes.Buffer
	stderr bytes.Buffer
	wg     sync.WaitGroup

	waitOnce  sync.Once
	outcome   core.ProcessOutcome
	cancelled bool
	cancelMu  sync.Mutex
}

// PID returns the OS process ID.
func (p *Process) PID() int {
	if p.cmd == nil || p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// Launch resolves the invocation for spec, starts the process, and
// begins streaming its output. Resolution and spawn failures are
// returned as domain errors; once Launch returns a Process the caller
// must call Wait to collect the outcome.
func (s *Supervisor) Launch(runID string, spec LaunchSpec) (*Process, error) {
	inv, err := resolveInvocation(spec)
	if err != nil {
		return nil, err
	}
	platform, arch := platformKey()

	// #nosec G204 -- invocation path and args are resolved from packaged
	// resources and the staged config path, not user input
	cmd := exec.Command(inv.path, inv.args...)
	cmd.Env = os.Environ()
	cmd.Env = append(cmd.Env, "ENGAGE_MANAGED=true")
	for k, v := range spec.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	configureProcAttr(cmd)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, core.ErrSpawnFailed(err, platform, arch)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		_ = stdoutPipe.Close()
		return nil, core.ErrSpawnFailed(err, platform, arch)
	}

	s.logger.Info("launching automation process",
		"run_id", runID,
		"mode", inv.mode,
		"path", inv.path,
	)

	if err := cmd.Start(); err != nil {
		_ = stdoutPipe.Close()
		_ = stderrPipe.Close()
		return nil, core.ErrSpawnFailed(err, platform, arch)
	}

	p := &Process{
		runID:      runID,
		cmd:        cmd,
		mode:       inv.mode,
		scriptPath: inv.scriptPath,
	}

	p.wg.Add(2)
	go func() {
		defer p.wg.Done()
		s.streamStdout(stdoutPipe, p)
	}()
	go func() {
		defer p.wg.Done()
		s.captureStderr(stderrPipe, p)
	}()

	s.logger.Info("automation process started", "run_id", runID, "pid", p.PID())
	return p, nil
}

// Wait blocks until the process exits and returns its classified
// outcome. Safe to call more than once; later calls return the same
// outcome.
func (s *Supervisor) Wait(p *Process) core.ProcessOutcome {
	p.waitOnce.Do(func() {
		err := p.cmd.Wait()
		p.wg.Wait()
		p.outcome = s.classify(p, err)

		s.logger.Info("automation process exited",
			"run_id", p.runID,
			"exit_code", p.outcome.ExitCode,
			"success", p.outcome.Success,
		)
	})
	return p.outcome
}

// Cancel terminates the process. Platform-dispatched: taskkill tree on
// Windows, a process-group signal on POSIX. Idempotent: a nil, already
// cancelled, or already exited process is a no-op success.
func (s *Supervisor) Cancel(p *Process) error {
	if p == nil || p.cmd == nil || p.cmd.Process == nil {
		return nil
	}

	p.cancelMu.Lock()
	if p.cancelled {
		p.cancelMu.Unlock()
		return nil
	}
	p.cancelled = true
	p.cancelMu.Unlock()

	s.logger.Info("terminating automation process", "run_id", p.runID, "pid", p.PID())
	if err := terminate(p.cmd); err != nil {
		// The process may have exited between the check and the kill.
		s.logger.Debug("terminate returned error", "error", err)
	}
	return nil
}

func (p *Process) wasCancelled() bool {
	p.cancelMu.Lock()
	defer p.cancelMu.Unlock()
	return p.cancelled
}

// streamStdout scans stdout line by line. Marker-tagged lines with a
// non-empty payload are forwarded as progress events; all output is
// captured for the final outcome.
func (s *Supervisor) streamStdout(pipe io.ReadCloser, p *Process) {
	scanner := bufio.NewScanner(pipe)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		p.stdout.WriteString(line)
		p.stdout.WriteString("\n")

		if !strings.HasPrefix(line, markerTag) {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, markerTag))
		if payload == "" {
			continue
		}
		s.logger.Info("automation progress", "run_id", p.runID, "line", payload)
		if s.bus != nil {
			s.bus.Publish(events.NewRunProgressEvent(p.runID, payload))
		}
	}
	// Scanner errors are ignored: the pipe closes abruptly on kill.
}

func (s *Supervisor) captureStderr(pipe io.ReadCloser, p *Process) {
	scanner := bufio.NewScanner(pipe)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		p.stderr.WriteString(scanner.Text())
		p.stderr.WriteString("\n")
	}
}

// classify builds the ProcessOutcome from the wait error. Exit code is
// the authoritative signal; stderr signatures are attached as hints.
func (s *Supervisor) classify(p *Process, waitErr error) core.ProcessOutcome {
	outcome := core.ProcessOutcome{
		Stdout:             p.stdout.String(),
		Stderr:             p.stderr.String(),
		UsedBundledRuntime: p.mode == core.RunModeBundled,
		ScriptPath:         p.scriptPath,
	}

	if waitErr == nil {
		outcome.Success = true
		outcome.Output = outcome.Stdout
		return outcome
	}

	outcome.Hints = stderrHints(outcome.Stderr)

	if exitErr, ok := waitErr.(*exec.ExitError); ok {
		outcome.ExitCode = exitErr.ExitCode()
	} else {
		outcome.ExitCode = -1
	}

	if p.wasCancelled() {
		outcome.Stopped = true
		outcome.Message = stoppedMessage
	} else {
		outcome.Message = exitMessage(outcome.ExitCode)
	}
	return outcome
}
