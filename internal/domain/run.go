package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunState is the coordinator's view of the single in-flight test run.
type RunState string

const (
	// StateIdle: no run is active.
	StateIdle RunState = "idle"
	// StateRunning: exactly one external test process is active.
	StateRunning RunState = "running"
	// StateRunningRestartPending: a run is active but has been superseded by a
	// newer trigger; its outcome will be discarded and a fresh run started.
	StateRunningRestartPending RunState = "running_restart_pending"
	// StateStopped: terminal, reached only via shutdown.
	StateStopped RunState = "stopped"
)

// RunResult is the raw completion record of one test-command execution.
type RunResult struct {
	RunID uuid.UUID

	ExitCode  int
	Signalled bool   // terminated by a signal instead of exiting
	Signal    string // signal name when Signalled

	Stdout string
	Stderr string

	StartedAt time.Time
	Duration  time.Duration
}

type OutcomeKind string

const (
	OutcomePassed  OutcomeKind = "passed"
	OutcomeFailed  OutcomeKind = "failed"
	OutcomeErrored OutcomeKind = "errored"
)

// RunOutcome is the classified result of a run that was not superseded.
// Immutable once constructed; consumed exactly once by the notifier.
type RunOutcome struct {
	Kind    OutcomeKind
	Summary string
}
