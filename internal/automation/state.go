package automation

import (
	"sync"
	"time"

	"github.com/hugo-lorenzo-mato/engage/internal/core"
	"github.com/hugo-lorenzo-mato/engage/internal/supervisor"
)

// runState is the process-wide run bookkeeping singleton. At most one
// run holds the slot at a time; the mutex makes the admission check and
// the transition atomic for concurrent callers.
type runState struct {
	mu        sync.Mutex
	running   bool
	runID     string
	pid       int
	proc      *supervisor.Process
	startedAt time.Time
}

// acquire claims the run slot. When the slot is held but the recorded
// process is no longer alive, the stale state is silently reset and the
// new run proceeds (self-heal after a crashed run); otherwise a held
// slot rejects with ALREADY_RUNNING.
func (s *runState) acquire(runID string, alive func(int) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		if s.pid > 0 && !alive(s.pid) {
			s.resetLocked()
		} else {
			return core.ErrAlreadyRunning()
		}
	}

	s.running = true
	s.runID = runID
	s.pid = 0
	s.proc = nil
	s.startedAt = time.Now()
	return nil
}

// attach records the launched process for the slot holder.
func (s *runState) attach(proc *supervisor.Process) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proc = proc
	s.pid = proc.PID()
}

// release returns the slot to idle. Idempotent.
func (s *runState) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *runState) resetLocked() {
	s.running = false
	s.runID = ""
	s.pid = 0
	s.proc = nil
	s.startedAt = time.Time{}
}

// current returns the active process handle and run ID, if any.
func (s *runState) current() (*supervisor.Process, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.proc, s.runID
}

// snapshot returns the externally visible status.
func (s *runState) snapshot() core.RunStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.RunStatus{
		Running:   s.running,
		RunID:     s.runID,
		PID:       s.pid,
		StartedAt: s.startedAt,
	}
}
