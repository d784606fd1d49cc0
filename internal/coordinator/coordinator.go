// Package coordinator owns the run state machine: it decides when test runs
// start, which ones are superseded, and which outcomes reach the notifier.
package coordinator

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/allenbenz/cargo-testify/internal/domain"
)

// Handle is the ownership token for one in-flight test process.
type Handle interface {
	ID() uuid.UUID
	Wait() domain.RunResult
	Terminate(grace time.Duration)
}

// Runner spawns the external test command.
type Runner interface {
	Start(ctx context.Context) (Handle, error)
}

// Classifier maps a raw run result to a semantic outcome.
type Classifier interface {
	Classify(result domain.RunResult) domain.RunOutcome
}

// Notifier receives the outcome of every run that was not superseded.
type Notifier interface {
	Notify(ctx context.Context, outcome domain.RunOutcome)
}

// MetricsSink records coordinator metrics. All methods must be non-blocking.
type MetricsSink interface {
	RunStarted()
	RunCompleted(outcome string, duration time.Duration)
	RunSuperseded()
}

type Config struct {
	// GracePeriod bounds how long a cancelled run may take to exit before it
	// is force-killed.
	GracePeriod time.Duration
	// InitialRun starts one run immediately, before any trigger arrives.
	InitialRun bool
}

// Coordinator is the single writer of RunState. All transitions happen inside
// Run's select loop; no other goroutine touches state or handle.
type Coordinator struct {
	config     Config
	runner     Runner
	classifier Classifier
	notifier   Notifier
	metrics    MetricsSink // optional, nil = disabled

	state  domain.RunState
	handle Handle

	// completions carries finished run results back into the loop. Capacity
	// one is enough: at most one run is ever in flight.
	completions chan domain.RunResult
}

func New(config Config, runner Runner, classifier Classifier, notifier Notifier) *Coordinator {
	return &Coordinator{
		config:      config,
		runner:      runner,
		classifier:  classifier,
		notifier:    notifier,
		state:       domain.StateIdle,
		completions: make(chan domain.RunResult, 1),
	}
}

// WithMetrics attaches a metrics sink to the coordinator.
func (c *Coordinator) WithMetrics(sink MetricsSink) *Coordinator {
	c.metrics = sink
	return c
}

// Run processes triggers until the context is cancelled, then terminates any
// active run within the grace period. Triggers arriving after cancellation
// are dropped, never turned into pending restarts.
func (c *Coordinator) Run(ctx context.Context, triggers <-chan struct{}) {
	log.Printf("coordinator: started (grace=%s, initial_run=%v)", c.config.GracePeriod, c.config.InitialRun)

	if c.config.InitialRun {
		c.startRun(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return
		case <-triggers:
			c.onTrigger(ctx)
		case result := <-c.completions:
			c.onCompleted(ctx, result)
		}
	}
}

// onTrigger applies the Trigger transitions. While a run is active the flag
// is idempotent: any number of triggers collapse into one pending restart.
func (c *Coordinator) onTrigger(ctx context.Context) {
	switch c.state {
	case domain.StateIdle:
		c.startRun(ctx)

	case domain.StateRunning:
		log.Printf("coordinator: new trigger supersedes run %s, cancelling", c.handle.ID())
		c.state = domain.StateRunningRestartPending
		// Terminate blocks up to the grace period; keep the loop responsive.
		go c.handle.Terminate(c.config.GracePeriod)

	case domain.StateRunningRestartPending:
		// Restart already owed; nothing to record.
	}
}

// onCompleted applies the run-completed transitions.
func (c *Coordinator) onCompleted(ctx context.Context, result domain.RunResult) {
	switch c.state {
	case domain.StateRunningRestartPending:
		// The finished run no longer reflects the source tree. Discard its
		// outcome without classification and run again for the latest state.
		log.Printf("coordinator: run %s superseded, outcome discarded", result.RunID)
		if c.metrics != nil {
			c.metrics.RunSuperseded()
		}
		c.handle = nil
		c.startRun(ctx)

	default:
		c.handle = nil
		c.state = domain.StateIdle
		outcome := c.classifier.Classify(result)
		log.Printf("coordinator: run %s completed in %s: %s (%s)",
			result.RunID, result.Duration.Round(time.Millisecond), outcome.Kind, outcome.Summary)
		if c.metrics != nil {
			c.metrics.RunCompleted(string(outcome.Kind), result.Duration)
		}
		c.notifier.Notify(ctx, outcome)
	}
}

// startRun spawns a run and transitions to Running. A launch failure is a
// normal completion with an Errored outcome, so the machine never wedges.
func (c *Coordinator) startRun(ctx context.Context) {
	handle, err := c.runner.Start(ctx)
	if err != nil {
		log.Printf("coordinator: failed to start test command: %v", err)
		outcome := domain.RunOutcome{
			Kind:    domain.OutcomeErrored,
			Summary: fmt.Sprintf("could not start test command: %v", err),
		}
		c.state = domain.StateIdle
		if c.metrics != nil {
			c.metrics.RunCompleted(string(outcome.Kind), 0)
		}
		c.notifier.Notify(ctx, outcome)
		return
	}

	c.handle = handle
	c.state = domain.StateRunning
	if c.metrics != nil {
		c.metrics.RunStarted()
	}
	log.Printf("coordinator: run %s started", handle.ID())

	go func() {
		c.completions <- handle.Wait()
	}()
}

// shutdown terminates any active run and moves to the terminal state. The
// wait is bounded by the grace period plus the force-kill.
func (c *Coordinator) shutdown() {
	if c.handle != nil {
		log.Printf("coordinator: shutdown requested, terminating run %s", c.handle.ID())
		c.handle.Terminate(c.config.GracePeriod)
		// Reap the completion so the waiter goroutine can finish.
		select {
		case <-c.completions:
		default:
		}
		c.handle = nil
	}
	c.state = domain.StateStopped
	log.Println("coordinator: stopped")
}
