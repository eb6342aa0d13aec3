package core

import (
	"strings"
	"time"
)

// Credentials holds the LinkedIn login used by the automation script.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Limits caps how many comments the automation may post.
type Limits struct {
	DailyComments    int `json:"daily_comment_limit"`
	SessionComments  int `json:"session_comment_limit"`
	CommentsPerCycle int `json:"comments_per_cycle"`
}

// Timing controls pacing between automation actions. Values are
// passed through to the script as plain seconds/minutes.
type Timing struct {
	PauseBetweenComments int `json:"pause_between_comments_sec"`
	CycleSleepMinutes    int `json:"cycle_sleep_minutes"`
	PageLoadWait         int `json:"page_load_wait_sec"`
}

// RunConfig is the full set of parameters for one automation run.
// It is immutable once staged; the staged copy on disk is owned by
// the run that created it and deleted when that run terminates.
type RunConfig struct {
	Credentials  Credentials `json:"credentials"`
	Bio          string      `json:"user_bio"`
	JobKeywords  []string    `json:"job_keywords"`
	CalendlyLink string      `json:"calendly_link,omitempty"`
	Limits       Limits      `json:"limits"`
	Timing       Timing      `json:"timing"`

	// Remember requests best-effort persistence of the durable subset
	// so the UI can prepopulate the form on the next launch.
	Remember bool `json:"remember"`
}

// Validate checks the fields the automation script cannot run without.
func (c *RunConfig) Validate() error {
	if strings.TrimSpace(c.Credentials.Email) == "" {
		return ErrValidation(CodeInvalidConfig, "email is required")
	}
	if c.Credentials.Password == "" {
		return ErrValidation(CodeInvalidConfig, "password is required")
	}
	if c.Limits.DailyComments < 0 || c.Limits.SessionComments < 0 || c.Limits.CommentsPerCycle < 0 {
		return ErrValidation(CodeInvalidConfig, "comment limits must not be negative")
	}
	if c.Timing.PauseBetweenComments < 0 || c.Timing.CycleSleepMinutes < 0 || c.Timing.PageLoadWait < 0 {
		return ErrValidation(CodeInvalidConfig, "timing values must not be negative")
	}
	return nil
}

// StagedConfig is the on-disk shape handed to the external script via
// --config <path>. It is the RunConfig plus the two writable directories
// the staging layer injects.
type StagedConfig struct {
	RunConfig
	LogFilePath       string `json:"log_file_path"`
	ChromeProfilePath string `json:"chrome_profile_path"`
}

// PersistentConfig is the durable subset of RunConfig written to the
// app data directory when Remember is set. It is read at UI startup to
// prepopulate the form and is never auto-deleted.
type PersistentConfig struct {
	Credentials  *Credentials `json:"credentials,omitempty"`
	Bio          string       `json:"user_bio"`
	JobKeywords  []string     `json:"job_keywords"`
	CalendlyLink string       `json:"calendly_link,omitempty"`
	Limits       Limits       `json:"limits"`
	Timing       Timing       `json:"timing"`
	Remember     bool         `json:"remember"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Persistent derives the durable subset from a run config.
// Credentials are only retained when the caller asked to be remembered.
func (c *RunConfig) Persistent(includeCredentials bool) *PersistentConfig {
	p := &PersistentConfig{
		Bio:          c.Bio,
		JobKeywords:  c.JobKeywords,
		CalendlyLink: c.CalendlyLink,
		Limits:       c.Limits,
		Timing:       c.Timing,
		Remember:     c.Remember,
		UpdatedAt:    time.Now(),
	}
	if includeCredentials {
		creds := c.Credentials
		p.Credentials = &creds
	}
	return p
}
