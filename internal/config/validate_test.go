package config

import (
	"strings"
	"testing"
)

func validConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		ProjectDir:     t.TempDir(),
		TestCmd:        "cargo test",
		QuietPeriodStr: "750ms",
		GracePeriodStr: "5s",
		NotifyBackend:  "auto",
		MetricsPort:    "9090",
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	if err := Validate(validConfig(t)); err != nil {
		t.Errorf("valid config should not return error, got: %v", err)
	}
}

func TestValidate_MissingProjectDir(t *testing.T) {
	cfg := validConfig(t)
	cfg.ProjectDir = "/nonexistent/project/path"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error for missing project dir")
	}
	if !strings.Contains(err.Error(), "PROJECT_DIR") {
		t.Errorf("error should mention PROJECT_DIR: %q", err.Error())
	}
}

func TestValidate_EmptyTestCommand(t *testing.T) {
	cfg := validConfig(t)
	cfg.TestCmd = "   "

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error for blank test command")
	}
	if !strings.Contains(err.Error(), "TEST_CMD") {
		t.Errorf("error should mention TEST_CMD: %q", err.Error())
	}
}

func TestValidate_InvalidDurations(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr string
	}{
		{"non-parseable", "soon", "invalid duration"},
		{"negative", "-1s", "must be positive"},
		{"zero", "0s", "must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			cfg.QuietPeriodStr = tt.value

			err := Validate(cfg)
			if err == nil {
				t.Fatalf("expected error for quiet_period=%q", tt.value)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidate_UnknownBackend(t *testing.T) {
	cfg := validConfig(t)
	cfg.NotifyBackend = "growl"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if !strings.Contains(err.Error(), "NOTIFY_BACKEND") {
		t.Errorf("error should mention NOTIFY_BACKEND: %q", err.Error())
	}
}

func TestValidate_BadPatterns(t *testing.T) {
	cfg := validConfig(t)
	cfg.IgnorePatterns = []string{"[unclosed"}
	cfg.SummaryPatterns = []string{"("}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected errors for malformed patterns")
	}
	msg := err.Error()
	if !strings.Contains(msg, "IGNORE_PATTERNS") {
		t.Errorf("error should mention IGNORE_PATTERNS: %q", msg)
	}
	if !strings.Contains(msg, "patterns.summary") {
		t.Errorf("error should mention patterns.summary: %q", msg)
	}
}

func TestValidate_CollectsMultipleErrors(t *testing.T) {
	cfg := validConfig(t)
	cfg.TestCmd = ""
	cfg.GracePeriodStr = "whenever"
	cfg.MetricsPort = "http"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected errors")
	}
	if !strings.Contains(err.Error(), "validation errors:") {
		t.Errorf("multiple failures should aggregate, got %q", err.Error())
	}
}
