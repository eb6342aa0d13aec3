package core

import "time"

// RunMode identifies how the automation process was invoked.
type RunMode string

const (
	// RunModeBundled uses the self-contained executable shipped with the app.
	RunModeBundled RunMode = "bundled"
	// RunModeScript uses a system interpreter plus a checked-out script.
	RunModeScript RunMode = "script"
)

// Phase is the supervisor's lifecycle state for a single invocation.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseLaunching Phase = "launching"
	PhaseRunning   Phase = "running"
	PhaseSucceeded Phase = "succeeded"
	PhaseFailed    Phase = "failed"
)

// ProcessOutcome is the tagged result of a finished subprocess invocation.
// Exactly one is constructed per run, when the process terminates or
// fails to start.
type ProcessOutcome struct {
	Success  bool   `json:"success"`
	ExitCode int    `json:"exit_code"`
	Output   string `json:"output,omitempty"`
	Stdout   string `json:"stdout,omitempty"`
	Stderr   string `json:"stderr,omitempty"`

	// Message is the human-readable classification: the exit-code table
	// entry on failure, empty on success.
	Message string `json:"message,omitempty"`

	// Hints carries best-effort stderr signature matches (traceback,
	// permission, timeout). Diagnostic only, never used to classify.
	Hints []string `json:"hints,omitempty"`

	// Stopped marks a termination requested by the user rather than a
	// subprocess failure.
	Stopped bool `json:"stopped,omitempty"`

	UsedBundledRuntime bool   `json:"used_bundled_runtime"`
	ScriptPath         string `json:"script_path,omitempty"`
}

// RunResult wraps a ProcessOutcome with run identity and timing.
type RunResult struct {
	RunID      string         `json:"run_id"`
	Mode       RunMode        `json:"mode"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Outcome    ProcessOutcome `json:"outcome"`
}

// RunStatus is the externally visible snapshot of the run state singleton.
type RunStatus struct {
	Running   bool      `json:"running"`
	RunID     string    `json:"run_id,omitempty"`
	PID       int       `json:"pid,omitempty"`
	StartedAt time.Time `json:"started_at,omitempty"`
}
