package core

import (
	"encoding/json"
	"testing"
)

func validConfig() RunConfig {
	return RunConfig{
		Credentials: Credentials{Email: "a@b.com", Password: "x"},
		Bio:         "Backend engineer",
		JobKeywords: []string{"golang", "backend"},
		Limits:      Limits{DailyComments: 50, SessionComments: 20, CommentsPerCycle: 5},
		Timing:      Timing{PauseBetweenComments: 30, CycleSleepMinutes: 15, PageLoadWait: 5},
	}
}

func TestRunConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RunConfig)
		wantErr bool
	}{
		{"valid", func(*RunConfig) {}, false},
		{"missing email", func(c *RunConfig) { c.Credentials.Email = " " }, true},
		{"missing password", func(c *RunConfig) { c.Credentials.Password = "" }, true},
		{"negative limit", func(c *RunConfig) { c.Limits.DailyComments = -1 }, true},
		{"negative timing", func(c *RunConfig) { c.Timing.CycleSleepMinutes = -5 }, true},
		{"zero limits ok", func(c *RunConfig) { c.Limits = Limits{} }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && GetCode(err) != CodeInvalidConfig {
				t.Errorf("expected %s, got %s", CodeInvalidConfig, GetCode(err))
			}
		})
	}
}

func TestStagedConfigJSONContract(t *testing.T) {
	staged := StagedConfig{
		RunConfig:         validConfig(),
		LogFilePath:       "/data/logs/run.log",
		ChromeProfilePath: "/data/chrome-profile",
	}

	data, err := json.Marshal(staged)
	if err != nil {
		t.Fatalf("marshaling staged config: %v", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshaling: %v", err)
	}

	// The external script depends on these exact keys.
	for _, key := range []string{"credentials", "limits", "timing", "log_file_path", "chrome_profile_path"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("staged config missing required key %q", key)
		}
	}
}

func TestPersistentSubset(t *testing.T) {
	cfg := validConfig()
	cfg.Remember = true

	p := cfg.Persistent(false)
	if p.Credentials != nil {
		t.Error("credentials must be omitted unless explicitly included")
	}
	if p.Bio != cfg.Bio || p.Limits != cfg.Limits {
		t.Error("durable fields should carry over")
	}
	if p.UpdatedAt.IsZero() {
		t.Error("expected UpdatedAt to be set")
	}

	withCreds := cfg.Persistent(true)
	if withCreds.Credentials == nil || withCreds.Credentials.Email != "a@b.com" {
		t.Error("expected credentials to be retained when requested")
	}
}
