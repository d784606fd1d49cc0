// Package report classifies finished test runs into semantic outcomes.
package report

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/allenbenz/cargo-testify/internal/domain"
)

// DefaultSummaryPatterns match a test runner's own result line in stdout or
// stderr. The first match becomes the outcome summary. The set is ordinary
// configuration data: extending it never touches the state machine.
func DefaultSummaryPatterns() []string {
	return []string{
		// cargo test
		`\d+ passed.*filtered out`,
		// go test
		`(?m)^(?:ok|FAIL)\s+\S+.*$`,
		// generic "N tests failed" / "N failed" style lines
		`\d+ (?:tests? )?(?:failed|passed)`,
	}
}

// DefaultErrorPatterns match toolchain diagnostics (compile errors and the
// like) in stderr, for runs that produced no test result at all.
func DefaultErrorPatterns() []string {
	return []string{
		`(?m)^error(?:\[\w+\])?:.*$`,
		`(?m)^.+:\d+:\d+: .*$`,
	}
}

// Classifier maps a run's exit status and captured output to a RunOutcome.
// Cancelled runs are never classified; the coordinator discards them before
// this point.
type Classifier struct {
	summary []*regexp.Regexp
	errline []*regexp.Regexp
}

// New compiles the given pattern sets. Empty slices fall back to the defaults.
func New(summaryPatterns, errorPatterns []string) (*Classifier, error) {
	if len(summaryPatterns) == 0 {
		summaryPatterns = DefaultSummaryPatterns()
	}
	if len(errorPatterns) == 0 {
		errorPatterns = DefaultErrorPatterns()
	}

	c := &Classifier{}
	for _, p := range summaryPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("summary pattern %q: %w", p, err)
		}
		c.summary = append(c.summary, re)
	}
	for _, p := range errorPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("error pattern %q: %w", p, err)
		}
		c.errline = append(c.errline, re)
	}
	return c, nil
}

// Classify maps a completed run to its outcome.
//
// Exit 0 is Passed. A nonzero exit with a recognized result line is Failed
// with that line as summary. A signal kill, or a nonzero exit whose only
// recognized output is a toolchain diagnostic, is Errored. A nonzero exit
// with no recognized output at all is Failed with a generic summary.
func (c *Classifier) Classify(result domain.RunResult) domain.RunOutcome {
	if result.Signalled {
		return domain.RunOutcome{
			Kind:    domain.OutcomeErrored,
			Summary: fmt.Sprintf("test command terminated by signal %s", result.Signal),
		}
	}

	summary := c.findSummary(result.Stdout)
	if summary == "" {
		summary = c.findSummary(result.Stderr)
	}

	if result.ExitCode == 0 {
		if summary == "" {
			summary = "all tests passed"
		}
		return domain.RunOutcome{Kind: domain.OutcomePassed, Summary: summary}
	}

	if summary != "" {
		return domain.RunOutcome{Kind: domain.OutcomeFailed, Summary: summary}
	}

	if errline := c.findErrorLine(result.Stderr); errline != "" {
		return domain.RunOutcome{Kind: domain.OutcomeErrored, Summary: errline}
	}

	return domain.RunOutcome{
		Kind:    domain.OutcomeFailed,
		Summary: fmt.Sprintf("tests failed (exit code %d)", result.ExitCode),
	}
}

func (c *Classifier) findSummary(output string) string {
	for _, re := range c.summary {
		if m := re.FindString(output); m != "" {
			return strings.TrimSpace(m)
		}
	}
	return ""
}

func (c *Classifier) findErrorLine(output string) string {
	for _, re := range c.errline {
		if m := re.FindString(output); m != "" {
			return strings.TrimSpace(m)
		}
	}
	return ""
}
