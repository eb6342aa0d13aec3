package supervisor

import "strings"

// fallbackExitMessage is returned for exit codes missing from the table.
const fallbackExitMessage = "an unknown error occurred"

// stoppedMessage classifies a run torn down by an explicit cancel.
const stoppedMessage = "automation stopped by user"

// exitMessages maps the automation script's documented exit codes to
// user-facing messages. The table is the authoritative failure signal;
// stderr contents are only attached as diagnostic hints.
var exitMessages = map[int]string{
	1:   "the automation encountered an unexpected error",
	2:   "the run configuration was rejected by the automation script",
	3:   "LinkedIn login failed, check your credentials",
	4:   "the browser session could not be started",
	5:   "LinkedIn presented a verification challenge that requires manual login",
	6:   "the daily comment limit was reached",
	130: "the automation was interrupted",
}

// exitMessage looks up the message for an exit code.
func exitMessage(code int) string {
	if msg, ok := exitMessages[code]; ok {
		return msg
	}
	return fallbackExitMessage
}

// stderrHints scans captured stderr for known failure signatures. This
// is the superseded heuristic kept as a best-effort diagnostic: hints
// are attached to failures for display but never decide the outcome.
func stderrHints(stderr string) []string {
	lower := strings.ToLower(stderr)
	var hints []string
	if strings.Contains(stderr, "Traceback (most recent call last)") {
		hints = append(hints, "python-traceback")
	}
	if strings.Contains(lower, "permission denied") || strings.Contains(stderr, "PermissionError") {
		hints = append(hints, "permission-denied")
	}
	if strings.Contains(lower, "timed out") || strings.Contains(stderr, "TimeoutException") {
		hints = append(hints, "timeout")
	}
	return hints
}
