package metrics

import (
	"testing"
	"time"
)

// Compile-time checks that both sinks satisfy the interface.
var (
	_ Sink = (*NoopSink)(nil)
	_ Sink = (*PrometheusSink)(nil)
)

func TestNoopSink_AllMethodsAreSafe(t *testing.T) {
	sink := NewNoopSink()

	sink.ChangeObserved(true)
	sink.ChangeObserved(false)
	sink.TriggerEmitted()
	sink.TriggerCoalesced()
	sink.RunStarted()
	sink.RunCompleted(OutcomePassed, time.Second)
	sink.RunSuperseded()
	sink.BufferSizeUpdate(1)
	sink.BufferCapacitySet(10)
	sink.EmitError()
	sink.NotificationSent("console")
	sink.NotificationError()
}
