// Package notify turns run outcomes into desktop notifications.
package notify

import (
	"context"
	"log"

	"github.com/allenbenz/cargo-testify/internal/domain"
)

// Sender delivers one notification payload. Implementations are
// fire-and-forget from the loop's point of view: an error is logged by the
// Notifier and never propagated.
type Sender interface {
	Name() string
	Send(ctx context.Context, payload domain.NotificationPayload) error
}

// MetricsSink records notification delivery metrics.
type MetricsSink interface {
	NotificationSent(backend string)
	NotificationError()
}

// Notifier adapts outcomes to payloads and hands them to a single sender.
type Notifier struct {
	sender  Sender
	metrics MetricsSink // optional, nil = disabled
}

func New(sender Sender) *Notifier {
	return &Notifier{sender: sender}
}

// WithMetrics attaches a metrics sink to the notifier.
func (n *Notifier) WithMetrics(sink MetricsSink) *Notifier {
	n.metrics = sink
	return n
}

// Notify delivers exactly one notification for the outcome. Delivery failures
// are logged only; the watch loop must keep going regardless.
func (n *Notifier) Notify(ctx context.Context, outcome domain.RunOutcome) {
	payload := BuildPayload(outcome)

	if err := n.sender.Send(ctx, payload); err != nil {
		log.Printf("notify: delivery via %s failed: %v", n.sender.Name(), err)
		if n.metrics != nil {
			n.metrics.NotificationError()
		}
		return
	}
	if n.metrics != nil {
		n.metrics.NotificationSent(n.sender.Name())
	}
}

// BuildPayload maps an outcome to a notification payload. Passed is low
// urgency; Failed and Errored demand attention.
func BuildPayload(outcome domain.RunOutcome) domain.NotificationPayload {
	switch outcome.Kind {
	case domain.OutcomePassed:
		return domain.NotificationPayload{
			Title:   "Tests passed",
			Body:    outcome.Summary,
			Urgency: domain.UrgencyLow,
		}
	case domain.OutcomeFailed:
		return domain.NotificationPayload{
			Title:   "Tests failed",
			Body:    outcome.Summary,
			Urgency: domain.UrgencyCritical,
		}
	default:
		return domain.NotificationPayload{
			Title:   "Test run errored",
			Body:    outcome.Summary,
			Urgency: domain.UrgencyCritical,
		}
	}
}
