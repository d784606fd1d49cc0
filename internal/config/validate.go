package config

import (
	"fmt"
	"os"
	"path"
	"regexp"
	"time"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	msg := fmt.Sprintf("%d validation errors:", len(e))
	for _, err := range e {
		msg += "\n  - " + err.Error()
	}
	return msg
}

var knownBackends = map[string]bool{
	"auto":        true,
	"notify-send": true,
	"osascript":   true,
	"powershell":  true,
	"console":     true,
}

// Validate checks the configuration for errors.
// Returns nil if valid, or ValidationErrors if invalid.
func Validate(cfg Config) error {
	var errs ValidationErrors

	if info, err := os.Stat(cfg.ProjectDir); err != nil {
		errs = append(errs, ValidationError{
			Field:   "PROJECT_DIR",
			Message: fmt.Sprintf("not accessible: %v", err),
		})
	} else if !info.IsDir() {
		errs = append(errs, ValidationError{
			Field:   "PROJECT_DIR",
			Message: fmt.Sprintf("%s is not a directory", cfg.ProjectDir),
		})
	}

	if len(cfg.Command()) == 0 {
		errs = append(errs, ValidationError{
			Field:   "TEST_CMD",
			Message: "required",
		})
	}

	errs = append(errs, validateDuration("QUIET_PERIOD", cfg.QuietPeriodStr)...)
	errs = append(errs, validateDuration("GRACE_PERIOD", cfg.GracePeriodStr)...)

	if cfg.NotifyBackend != "" && !knownBackends[cfg.NotifyBackend] {
		errs = append(errs, ValidationError{
			Field:   "NOTIFY_BACKEND",
			Message: fmt.Sprintf("must be one of auto, notify-send, osascript, powershell, console; got %q", cfg.NotifyBackend),
		})
	}

	for _, p := range cfg.IgnorePatterns {
		if _, err := path.Match(p, "probe"); err != nil {
			errs = append(errs, ValidationError{
				Field:   "IGNORE_PATTERNS",
				Message: fmt.Sprintf("malformed pattern %q", p),
			})
		}
	}

	for _, p := range cfg.SummaryPatterns {
		if _, err := regexp.Compile(p); err != nil {
			errs = append(errs, ValidationError{
				Field:   "patterns.summary",
				Message: fmt.Sprintf("invalid regexp %q: %v", p, err),
			})
		}
	}
	for _, p := range cfg.ErrorPatterns {
		if _, err := regexp.Compile(p); err != nil {
			errs = append(errs, ValidationError{
				Field:   "patterns.error",
				Message: fmt.Sprintf("invalid regexp %q: %v", p, err),
			})
		}
	}

	if _, err := parseInt(cfg.MetricsPort); err != nil {
		errs = append(errs, ValidationError{
			Field:   "METRICS_PORT",
			Message: fmt.Sprintf("must be a port number, got %q", cfg.MetricsPort),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateDuration(field, value string) ValidationErrors {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return ValidationErrors{{
			Field:   field,
			Message: fmt.Sprintf("invalid duration: %v", err),
		}}
	}
	if d <= 0 {
		return ValidationErrors{{
			Field:   field,
			Message: "must be positive",
		}}
	}
	return nil
}
