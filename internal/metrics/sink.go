package metrics

import "time"

// Sink defines the interface for recording metrics.
// All methods are fire-and-forget: implementations MUST NOT block or propagate errors.
// If the metrics backend is unavailable, implementations log warnings and continue.
type Sink interface {
	// Watch pipeline metrics
	ChangeObserved(relevant bool)
	TriggerEmitted()
	TriggerCoalesced()

	// Coordinator metrics
	RunStarted()
	RunCompleted(outcome string, duration time.Duration)
	RunSuperseded()

	// EventBus metrics
	BufferSizeUpdate(size int)
	BufferCapacitySet(capacity int)
	EmitError()

	// Notifier metrics
	NotificationSent(backend string)
	NotificationError()
}

// Outcome constants for the RunCompleted metric. They mirror the
// domain.OutcomeKind values, keeping label cardinality at three.
const (
	OutcomePassed  = "passed"
	OutcomeFailed  = "failed"
	OutcomeErrored = "errored"
)
