package metrics

import "time"

// NoopSink is a no-op implementation of Sink.
// Used when metrics are disabled to avoid nil checks.
type NoopSink struct{}

// NewNoopSink returns a no-op metrics sink.
func NewNoopSink() *NoopSink {
	return &NoopSink{}
}

func (n *NoopSink) ChangeObserved(relevant bool)                        {}
func (n *NoopSink) TriggerEmitted()                                     {}
func (n *NoopSink) TriggerCoalesced()                                   {}
func (n *NoopSink) RunStarted()                                         {}
func (n *NoopSink) RunCompleted(outcome string, duration time.Duration) {}
func (n *NoopSink) RunSuperseded()                                      {}
func (n *NoopSink) BufferSizeUpdate(size int)                           {}
func (n *NoopSink) BufferCapacitySet(capacity int)                      {}
func (n *NoopSink) EmitError()                                          {}
func (n *NoopSink) NotificationSent(backend string)                     {}
func (n *NoopSink) NotificationError()                                  {}
