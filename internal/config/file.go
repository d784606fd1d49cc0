package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the optional per-project configuration file, looked up in the
// project directory.
const FileName = "cargo-testify.toml"

// fileConfig mirrors the TOML file structure.
type fileConfig struct {
	TestCommand   string   `toml:"test_command"`
	QuietPeriod   string   `toml:"quiet_period"`
	GracePeriod   string   `toml:"grace_period"`
	InitialRun    *bool    `toml:"initial_run"`
	NotifyBackend string   `toml:"notify_backend"`
	Ignore        []string `toml:"ignore"`

	Patterns struct {
		Summary []string `toml:"summary"`
		Error   []string `toml:"error"`
	} `toml:"patterns"`
}

// mergeProjectFile layers the project file under any values already set from
// the environment. A missing file is not an error. Ignore patterns from the
// file and the environment are additive.
func mergeProjectFile(cfg Config) (Config, *bool, error) {
	path := filepath.Join(cfg.ProjectDir, FileName)

	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil, nil
		}
		return cfg, nil, fmt.Errorf("read %s: %w", path, err)
	}

	if cfg.TestCmd == "" {
		cfg.TestCmd = fc.TestCommand
	}
	if cfg.QuietPeriodStr == "" {
		cfg.QuietPeriodStr = fc.QuietPeriod
	}
	if cfg.GracePeriodStr == "" {
		cfg.GracePeriodStr = fc.GracePeriod
	}
	if cfg.NotifyBackend == "" {
		cfg.NotifyBackend = fc.NotifyBackend
	}
	cfg.IgnorePatterns = append(cfg.IgnorePatterns, fc.Ignore...)
	cfg.SummaryPatterns = append(cfg.SummaryPatterns, fc.Patterns.Summary...)
	cfg.ErrorPatterns = append(cfg.ErrorPatterns, fc.Patterns.Error...)

	return cfg, fc.InitialRun, nil
}
