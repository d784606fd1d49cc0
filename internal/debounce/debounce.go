// Package debounce coalesces bursts of relevant changes into single triggers.
package debounce

import (
	"context"
	"log"
	"time"

	"github.com/allenbenz/cargo-testify/internal/domain"
)

// MetricsSink records debouncer metrics. All methods must be non-blocking.
type MetricsSink interface {
	TriggerEmitted()
	TriggerCoalesced()
}

type Config struct {
	QuietPeriod time.Duration
}

// Debouncer maintains a single pending-deadline timer. Every relevant change
// pushes the deadline to now+quiet; when the deadline elapses with no further
// changes, one trigger fires. If changes keep arriving forever, no trigger
// fires until they stop — the tool waits until the developer pauses.
type Debouncer struct {
	config   Config
	triggers chan struct{}
	metrics  MetricsSink // optional, nil = disabled
}

func New(config Config) *Debouncer {
	return &Debouncer{
		config:   config,
		triggers: make(chan struct{}, 1),
	}
}

// WithMetrics attaches a metrics sink to the debouncer.
func (d *Debouncer) WithMetrics(sink MetricsSink) *Debouncer {
	d.metrics = sink
	return d
}

// Triggers returns the channel trigger signals are delivered on. The channel
// has capacity one: a trigger that fires while another is still pending is
// absorbed, never queued.
func (d *Debouncer) Triggers() <-chan struct{} {
	return d.triggers
}

// Run consumes relevant change events until the context is cancelled.
func (d *Debouncer) Run(ctx context.Context, events <-chan domain.ChangeEvent) {
	log.Printf("debounce: started (quiet=%s)", d.config.QuietPeriod)

	var timer *time.Timer
	var deadline <-chan time.Time

	stopTimer := func() {
		if timer == nil {
			return
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			stopTimer()
			log.Println("debounce: stopped")
			return

		case ev, ok := <-events:
			if !ok {
				stopTimer()
				log.Println("debounce: event channel closed, stopping")
				return
			}
			_ = ev
			if timer == nil {
				timer = time.NewTimer(d.config.QuietPeriod)
			} else {
				stopTimer()
				timer.Reset(d.config.QuietPeriod)
			}
			deadline = timer.C

		case <-deadline:
			deadline = nil
			timer = nil
			d.emit()
		}
	}
}

func (d *Debouncer) emit() {
	select {
	case d.triggers <- struct{}{}:
		if d.metrics != nil {
			d.metrics.TriggerEmitted()
		}
		log.Println("debounce: quiet period elapsed, trigger emitted")
	default:
		// A trigger is already pending; this quiet period folds into it.
		if d.metrics != nil {
			d.metrics.TriggerCoalesced()
		}
		log.Println("debounce: trigger already pending, coalesced")
	}
}
