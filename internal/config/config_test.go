package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv blanks every variable Load reads so tests start from defaults.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PROJECT_DIR", "TEST_CMD", "IGNORE_PATTERNS", "QUIET_PERIOD",
		"GRACE_PERIOD", "INITIAL_RUN", "NOTIFY_BACKEND",
		"EVENTBUS_BUFFER_SIZE", "METRICS_ENABLED", "METRICS_PATH", "METRICS_PORT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("PROJECT_DIR", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.TestCmd != "cargo test" {
		t.Errorf("TestCmd = %q, want 'cargo test'", cfg.TestCmd)
	}
	if cfg.QuietPeriod != 750*time.Millisecond {
		t.Errorf("QuietPeriod = %v, want 750ms", cfg.QuietPeriod)
	}
	if cfg.GracePeriod != 5*time.Second {
		t.Errorf("GracePeriod = %v, want 5s", cfg.GracePeriod)
	}
	if !cfg.InitialRun {
		t.Error("InitialRun should default to true")
	}
	if cfg.NotifyBackend != "auto" {
		t.Errorf("NotifyBackend = %q, want auto", cfg.NotifyBackend)
	}
	if cfg.EventBusBufferSize != 256 {
		t.Errorf("EventBusBufferSize = %d, want 256", cfg.EventBusBufferSize)
	}
	if cfg.MetricsEnabled {
		t.Error("metrics should be disabled by default")
	}
	if cfg.MetricsPort != "9090" {
		t.Errorf("MetricsPort = %q, want 9090", cfg.MetricsPort)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PROJECT_DIR", t.TempDir())
	t.Setenv("TEST_CMD", "go test ./...")
	t.Setenv("QUIET_PERIOD", "2s")
	t.Setenv("INITIAL_RUN", "false")
	t.Setenv("IGNORE_PATTERNS", "*.log, generated,")
	t.Setenv("EVENTBUS_BUFFER_SIZE", "32")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got := cfg.Command(); len(got) != 3 || got[0] != "go" || got[2] != "./..." {
		t.Errorf("Command() = %v", got)
	}
	if cfg.QuietPeriod != 2*time.Second {
		t.Errorf("QuietPeriod = %v, want 2s", cfg.QuietPeriod)
	}
	if cfg.InitialRun {
		t.Error("INITIAL_RUN=false should disable the initial run")
	}
	want := []string{"*.log", "generated"}
	if len(cfg.IgnorePatterns) != len(want) {
		t.Fatalf("IgnorePatterns = %v, want %v", cfg.IgnorePatterns, want)
	}
	for i := range want {
		if cfg.IgnorePatterns[i] != want[i] {
			t.Errorf("IgnorePatterns[%d] = %q, want %q", i, cfg.IgnorePatterns[i], want[i])
		}
	}
	if cfg.EventBusBufferSize != 32 {
		t.Errorf("EventBusBufferSize = %d, want 32", cfg.EventBusBufferSize)
	}
}

func writeProjectFile(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644); err != nil {
		t.Fatalf("write project file: %v", err)
	}
}

func TestLoad_ProjectFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("PROJECT_DIR", dir)
	writeProjectFile(t, dir, `
test_command = "cargo test --workspace"
quiet_period = "1s"
initial_run = false
ignore = ["fixtures"]

[patterns]
summary = ['\d+ scenarios? passed']
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.TestCmd != "cargo test --workspace" {
		t.Errorf("TestCmd = %q", cfg.TestCmd)
	}
	if cfg.QuietPeriod != time.Second {
		t.Errorf("QuietPeriod = %v, want 1s", cfg.QuietPeriod)
	}
	if cfg.InitialRun {
		t.Error("file initial_run=false should apply")
	}
	if len(cfg.IgnorePatterns) != 1 || cfg.IgnorePatterns[0] != "fixtures" {
		t.Errorf("IgnorePatterns = %v", cfg.IgnorePatterns)
	}
	if len(cfg.SummaryPatterns) != 1 {
		t.Errorf("SummaryPatterns = %v", cfg.SummaryPatterns)
	}
}

func TestLoad_EnvBeatsProjectFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("PROJECT_DIR", dir)
	t.Setenv("TEST_CMD", "make check")
	t.Setenv("INITIAL_RUN", "true")
	writeProjectFile(t, dir, `
test_command = "cargo test"
initial_run = false
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.TestCmd != "make check" {
		t.Errorf("TestCmd = %q, env should win over the file", cfg.TestCmd)
	}
	if !cfg.InitialRun {
		t.Error("INITIAL_RUN=true should win over the file")
	}
}

func TestLoad_MalformedProjectFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("PROJECT_DIR", dir)
	writeProjectFile(t, dir, "test_command = [not toml")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed project file")
	}
}
