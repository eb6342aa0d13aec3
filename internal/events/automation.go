package events

// Event type constants for automation events.
const (
	TypeRunStarted    = "run_started"
	TypeRunProgress   = "run_progress"
	TypeRunCompleted  = "run_completed"
	TypeRunFailed     = "run_failed"
	TypeRunStopped    = "run_stopped"
	TypeConfigChanged = "config_changed"
)

// RunStartedEvent signals that the automation subprocess has launched.
type RunStartedEvent struct {
	BaseEvent
	PID  int    `json:"pid"`
	Mode string `json:"mode"`
}

// NewRunStartedEvent creates a run started event.
func NewRunStartedEvent(runID string, pid int, mode string) RunStartedEvent {
	return RunStartedEvent{
		BaseEvent: NewBaseEvent(TypeRunStarted, runID),
		PID:       pid,
		Mode:      mode,
	}
}

// RunProgressEvent carries one marker-tagged stdout line from the
// subprocess, forwarded verbatim for UI display.
type RunProgressEvent struct {
	BaseEvent
	Line string `json:"line"`
}

// NewRunProgressEvent creates a progress event.
func NewRunProgressEvent(runID, line string) RunProgressEvent {
	return RunProgressEvent{
		BaseEvent: NewBaseEvent(TypeRunProgress, runID),
		Line:      line,
	}
}

// RunCompletedEvent signals a successful run.
type RunCompletedEvent struct {
	BaseEvent
}

// NewRunCompletedEvent creates a run completed event.
func NewRunCompletedEvent(runID string) RunCompletedEvent {
	return RunCompletedEvent{BaseEvent: NewBaseEvent(TypeRunCompleted, runID)}
}

// RunFailedEvent signals a failed run with its classified message.
type RunFailedEvent struct {
	BaseEvent
	Code     string `json:"code"`
	Message  string `json:"message"`
	ExitCode int    `json:"exit_code,omitempty"`
}

// NewRunFailedEvent creates a run failed event.
func NewRunFailedEvent(runID, code, message string, exitCode int) RunFailedEvent {
	return RunFailedEvent{
		BaseEvent: NewBaseEvent(TypeRunFailed, runID),
		Code:      code,
		Message:   message,
		ExitCode:  exitCode,
	}
}

// RunStoppedEvent signals a user-initiated stop.
type RunStoppedEvent struct {
	BaseEvent
}

// NewRunStoppedEvent creates a run stopped event.
func NewRunStoppedEvent(runID string) RunStoppedEvent {
	return RunStoppedEvent{BaseEvent: NewBaseEvent(TypeRunStopped, runID)}
}

// ConfigChangedEvent signals that the persistent config file changed on
// disk, so the UI can refresh its prepopulated form.
type ConfigChangedEvent struct {
	BaseEvent
	Path string `json:"path"`
}

// NewConfigChangedEvent creates a config changed event.
func NewConfigChangedEvent(path string) ConfigChangedEvent {
	return ConfigChangedEvent{
		BaseEvent: NewBaseEvent(TypeConfigChanged, ""),
		Path:      path,
	}
}
