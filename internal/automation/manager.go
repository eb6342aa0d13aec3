// Package automation exposes the single public-facing contract the UI
// layer consumes: run, stop, status, and persistent-config access. It
// orchestrates the gate -> probe -> stage -> launch -> supervise ->
// cleanup pipeline and recovers from stale state left by a crashed run.
package automation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/hugo-lorenzo-mato/engage/internal/core"
	"github.com/hugo-lorenzo-mato/engage/internal/entitlement"
	"github.com/hugo-lorenzo-mato/engage/internal/events"
	"github.com/hugo-lorenzo-mato/engage/internal/logging"
	"github.com/hugo-lorenzo-mato/engage/internal/supervisor"
)

// EntitlementGate is the admission-control collaborator.
type EntitlementGate interface {
	Check(ctx context.Context) (*entitlement.User, error)
}

// BrowserProbe reports whether the required browser is installed.
type BrowserProbe interface {
	Available(ctx context.Context) bool
}

// ConfigStager stages run configs and owns the persistent config.
type ConfigStager interface {
	Stage(cfg core.RunConfig) (string, error)
	Cleanup(path string)
	SavePersistent(cfg *core.PersistentConfig) error
	LoadPersistent() (*core.PersistentConfig, error)
}

// Recorder persists finished runs for the history view. Optional.
type Recorder interface {
	Record(ctx context.Context, result core.RunResult) error
}

// Manager is the automation lifecycle manager.
type Manager struct {
	state   *runState
	gate    EntitlementGate
	probe   BrowserProbe
	stager  ConfigStager
	sup     *supervisor.Supervisor
	launch  supervisor.LaunchSpec
	history Recorder
	bus     *events.Bus
	logger  *logging.Logger

	// pidAlive is injectable for stale-state tests.
	pidAlive func(int) bool

	lastMu     sync.Mutex
	lastResult *core.RunResult
}

// Option configures the manager.
type Option func(*Manager)

// WithHistory attaches a run-history recorder.
func WithHistory(r Recorder) Option {
	return func(m *Manager) { m.history = r }
}

// WithBus attaches the event bus for UI notifications.
func WithBus(bus *events.Bus) Option {
	return func(m *Manager) { m.bus = bus }
}

// WithPidCheck overrides process liveness detection.
func WithPidCheck(alive func(int) bool) Option {
	return func(m *Manager) { m.pidAlive = alive }
}

// NewManager wires the automation pipeline. The launch spec carries the
// invocation mode and resource roots; its ConfigPath is filled per run.
func NewManager(gate EntitlementGate, probe BrowserProbe, stager ConfigStager, sup *supervisor.Supervisor, launch supervisor.LaunchSpec, logger *logging.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Manager{
		state:    &runState{},
		gate:     gate,
		probe:    probe,
		stager:   stager,
		sup:      sup,
		launch:   launch,
		logger:   logger,
		pidAlive: pidExists,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func pidExists(pid int) bool {
	exists, err := process.PidExists(int32(pid))
	if err != nil {
		// When the process table cannot be read, assume the process is
		// alive: wrongly reporting dead would let a second run start.
		return true
	}
	return exists
}

// launched carries everything the completion phase needs.
type launched struct {
	runID      string
	proc       *supervisor.Process
	stagedPath string
	startedAt  time.Time
	mode       core.RunMode
}

// Run executes one automation run end to end and blocks until the
// subprocess terminates.
func (m *Manager) Run(ctx context.Context, cfg core.RunConfig) (*core.RunResult, error) {
	l, err := m.admitAndLaunch(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return m.finish(l)
}

// Start begins a run and returns as soon as the subprocess is launched.
// Admission errors are returned synchronously; the outcome is delivered
// through the event bus, the history store, and LastResult.
func (m *Manager) Start(ctx context.Context, cfg core.RunConfig) (core.RunStatus, error) {
	l, err := m.admitAndLaunch(ctx, cfg)
	if err != nil {
		return core.RunStatus{}, err
	}
	go func() {
		if _, err := m.finish(l); err != nil {
			m.logger.WithRun(l.runID).Warn("run finished with error", "error", err)
		}
	}()
	return m.state.snapshot(), nil
}

// admitAndLaunch runs every gate in order and spawns the subprocess.
// Admission failures return before any file or process resource is
// created; a launch failure cleans up its staged config.
func (m *Manager) admitAndLaunch(ctx context.Context, cfg core.RunConfig) (*launched, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger := m.logger.WithRun(runID)

	if err := m.state.acquire(runID, m.pidAlive); err != nil {
		return nil, err
	}

	abort := func(err error) (*launched, error) {
		m.state.release()
		logger.Warn("run rejected", "code", core.GetCode(err))
		return nil, err
	}

	if _, err := m.gate.Check(ctx); err != nil {
		return abort(err)
	}
	if !m.probe.Available(ctx) {
		return abort(core.ErrBrowserNotFound())
	}

	if cfg.Remember {
		// Best effort: a failed save never blocks the run.
		if err := m.stager.SavePersistent(cfg.Persistent(true)); err != nil {
			logger.Warn("could not save persistent config", "error", err)
		}
	}

	stagedPath, err := m.stager.Stage(cfg)
	if err != nil {
		return abort(err)
	}

	spec := m.launch
	spec.ConfigPath = stagedPath
	startedAt := time.Now()

	proc, err := m.sup.Launch(runID, spec)
	if err != nil {
		m.stager.Cleanup(stagedPath)
		return abort(err)
	}
	m.state.attach(proc)
	m.publish(events.NewRunStartedEvent(runID, proc.PID(), string(spec.Mode)))

	return &launched{
		runID:      runID,
		proc:       proc,
		stagedPath: stagedPath,
		startedAt:  startedAt,
		mode:       spec.Mode,
	}, nil
}

// finish waits for the subprocess and performs the unconditional
// teardown: slot release, staged config removal, history, events.
func (m *Manager) finish(l *launched) (*core.RunResult, error) {
	outcome := m.sup.Wait(l.proc)
	m.state.release()
	m.stager.Cleanup(l.stagedPath)

	result := &core.RunResult{
		RunID:      l.runID,
		Mode:       l.mode,
		StartedAt:  l.startedAt,
		FinishedAt: time.Now(),
		Outcome:    outcome,
	}
	m.setLastResult(result)
	m.record(result)

	switch {
	case outcome.Success:
		m.publish(events.NewRunCompletedEvent(l.runID))
		return result, nil
	case outcome.Stopped:
		// Stop already published the stopped event; a user stop is not
		// a failure.
		return result, nil
	default:
		m.publish(events.NewRunFailedEvent(l.runID, core.CodeRunFailed, outcome.Message, outcome.ExitCode))
		return result, core.ErrRunFailed(outcome.ExitCode, outcome.Message)
	}
}

// Stop cancels the active run. Stopping when idle is a success, never
// an error. The slot itself is released by the run's own teardown once
// the killed process has been reaped.
func (m *Manager) Stop(_ context.Context) (bool, error) {
	proc, runID := m.state.current()
	if proc == nil {
		return true, nil
	}

	if err := m.sup.Cancel(proc); err != nil {
		return false, err
	}
	m.publish(events.NewRunStoppedEvent(runID))
	return true, nil
}

// Status returns the current run state snapshot.
func (m *Manager) Status() core.RunStatus {
	return m.state.snapshot()
}

// LastResult returns the most recently finished run, or nil.
func (m *Manager) LastResult() *core.RunResult {
	m.lastMu.Lock()
	defer m.lastMu.Unlock()
	return m.lastResult
}

func (m *Manager) setLastResult(result *core.RunResult) {
	m.lastMu.Lock()
	defer m.lastMu.Unlock()
	m.lastResult = result
}

// LoadPersistentConfig is a pass-through to the staging layer.
func (m *Manager) LoadPersistentConfig() (*core.PersistentConfig, error) {
	return m.stager.LoadPersistent()
}

func (m *Manager) publish(event events.Event) {
	if m.bus != nil {
		m.bus.Publish(event)
	}
}

func (m *Manager) record(result *core.RunResult) {
	if m.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.history.Record(ctx, *result); err != nil {
		m.logger.Warn("could not record run history", "error", err)
	}
}
