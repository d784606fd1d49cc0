// Package channel provides the in-memory event bus between the watcher and
// the debouncer.
package channel

import (
	"context"
	"errors"
	"time"

	"github.com/allenbenz/cargo-testify/internal/domain"
)

// ErrBufferFull is returned when an emit cannot complete within the
// configured timeout because the buffer is saturated.
var ErrBufferFull = errors.New("event bus buffer full")

// MetricsSink records event bus metrics.
type MetricsSink interface {
	BufferSizeUpdate(size int)
	BufferCapacitySet(capacity int)
	EmitError()
}

type Option func(*EventBus)

// WithMetrics attaches a metrics sink to the bus.
func WithMetrics(sink MetricsSink) Option {
	return func(b *EventBus) {
		b.metrics = sink
	}
}

// WithEmitTimeout bounds how long Emit blocks when the buffer is full.
// Zero means Emit blocks until the consumer catches up or the context ends.
func WithEmitTimeout(d time.Duration) Option {
	return func(b *EventBus) {
		b.emitTimeout = d
	}
}

type EventBus struct {
	ch          chan domain.ChangeEvent
	metrics     MetricsSink // optional, nil = disabled
	emitTimeout time.Duration
}

func NewEventBus(buffer int, opts ...Option) *EventBus {
	b := &EventBus{
		ch: make(chan domain.ChangeEvent, buffer),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.metrics != nil {
		b.metrics.BufferCapacitySet(buffer)
	}
	return b
}

// Emit places an event on the bus. The filesystem source is bursty, so a
// full buffer with a configured timeout yields ErrBufferFull instead of
// stalling the watcher.
func (b *EventBus) Emit(ctx context.Context, event domain.ChangeEvent) error {
	select {
	case b.ch <- event:
		b.updateSize()
		return nil
	default:
	}

	if b.emitTimeout > 0 {
		timer := time.NewTimer(b.emitTimeout)
		defer timer.Stop()
		select {
		case b.ch <- event:
			b.updateSize()
			return nil
		case <-timer.C:
			if b.metrics != nil {
				b.metrics.EmitError()
			}
			return ErrBufferFull
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	select {
	case b.ch <- event:
		b.updateSize()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Channel exposes the consumer side of the bus.
func (b *EventBus) Channel() <-chan domain.ChangeEvent {
	return b.ch
}

func (b *EventBus) updateSize() {
	if b.metrics != nil {
		b.metrics.BufferSizeUpdate(len(b.ch))
	}
}
