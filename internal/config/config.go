package config

import (
	"encoding/json"
	"log"
	"os"
	"strings"
	"time"
)

// Config holds all configuration for cargo-testify.
// Values are layered: environment variables override the optional per-project
// file, which overrides the built-in defaults.
type Config struct {
	ProjectDir string `json:"project_dir"`
	TestCmd    string `json:"test_cmd"`

	IgnorePatterns []string `json:"ignore_patterns,omitempty"`

	QuietPeriod    time.Duration `json:"-"`
	QuietPeriodStr string        `json:"quiet_period"`

	GracePeriod    time.Duration `json:"-"`
	GracePeriodStr string        `json:"grace_period"`

	InitialRun    bool   `json:"initial_run"`
	NotifyBackend string `json:"notify_backend"`

	EventBusBufferSize int `json:"eventbus_buffer_size"`

	MetricsEnabled bool   `json:"metrics_enabled"`
	MetricsPath    string `json:"metrics_path"`
	MetricsPort    string `json:"metrics_port"`

	// Classifier pattern sets; empty means the built-in defaults.
	SummaryPatterns []string `json:"summary_patterns,omitempty"`
	ErrorPatterns   []string `json:"error_patterns,omitempty"`
}

// Load reads configuration from the environment and the optional project
// file. The returned error is non-nil only when the project file exists but
// cannot be parsed; validation is handled separately by Validate().
func Load() (Config, error) {
	cfg := Config{
		ProjectDir:     os.Getenv("PROJECT_DIR"),
		TestCmd:        os.Getenv("TEST_CMD"),
		QuietPeriodStr: os.Getenv("QUIET_PERIOD"),
		GracePeriodStr: os.Getenv("GRACE_PERIOD"),
		NotifyBackend:  os.Getenv("NOTIFY_BACKEND"),
		MetricsEnabled: os.Getenv("METRICS_ENABLED") == "true",
		MetricsPath:    os.Getenv("METRICS_PATH"),
		MetricsPort:    os.Getenv("METRICS_PORT"),
	}

	cfg.IgnorePatterns = splitList(os.Getenv("IGNORE_PATTERNS"))

	initialRunEnv := os.Getenv("INITIAL_RUN")

	if bufStr := os.Getenv("EVENTBUS_BUFFER_SIZE"); bufStr != "" {
		if n, err := parseInt(bufStr); err == nil && n > 0 {
			cfg.EventBusBufferSize = n
		} else {
			log.Printf("config: invalid EVENTBUS_BUFFER_SIZE %q (must be a positive integer), using default 256", bufStr)
		}
	}

	if cfg.ProjectDir == "" {
		cfg.ProjectDir = "."
	}

	cfg, fileInitialRun, err := mergeProjectFile(cfg)
	if err != nil {
		return cfg, err
	}

	// INITIAL_RUN resolves env > file > default true.
	switch {
	case initialRunEnv != "":
		cfg.InitialRun = initialRunEnv != "false"
	case fileInitialRun != nil:
		cfg.InitialRun = *fileInitialRun
	default:
		cfg.InitialRun = true
	}

	if cfg.TestCmd == "" {
		cfg.TestCmd = "cargo test"
	}
	if cfg.QuietPeriodStr == "" {
		cfg.QuietPeriodStr = "750ms"
	}
	if cfg.GracePeriodStr == "" {
		cfg.GracePeriodStr = "5s"
	}
	if cfg.NotifyBackend == "" {
		cfg.NotifyBackend = "auto"
	}
	if cfg.EventBusBufferSize == 0 {
		cfg.EventBusBufferSize = 256
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}
	if cfg.MetricsPort == "" {
		cfg.MetricsPort = "9090"
	}

	// Parse durations; validation is handled separately by Validate().
	if d, err := time.ParseDuration(cfg.QuietPeriodStr); err == nil {
		cfg.QuietPeriod = d
	}
	if d, err := time.ParseDuration(cfg.GracePeriodStr); err == nil {
		cfg.GracePeriod = d
	}

	return cfg, nil
}

// Command returns the test command split into argv form.
func (c Config) Command() []string {
	return strings.Fields(c.TestCmd)
}

// JSON returns the effective configuration for the `config` subcommand.
func (c Config) JSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// splitList splits a comma-separated list, trimming blanks.
func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

// parseInt parses a string as a non-negative integer.
func parseInt(s string) (int, error) {
	if s == "" {
		return 0, os.ErrInvalid
	}
	var n int
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, os.ErrInvalid
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}
