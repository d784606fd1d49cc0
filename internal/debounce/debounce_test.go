package debounce

import (
	"context"
	"testing"
	"time"

	"github.com/allenbenz/cargo-testify/internal/domain"
)

const quiet = 30 * time.Millisecond

func newTestDebouncer() (*Debouncer, chan domain.ChangeEvent) {
	d := New(Config{QuietPeriod: quiet})
	events := make(chan domain.ChangeEvent, 16)
	return d, events
}

func sendChange(events chan domain.ChangeEvent, path string) {
	events <- domain.ChangeEvent{Path: path, ObservedAt: time.Now()}
}

func expectTrigger(t *testing.T, triggers <-chan struct{}, within time.Duration) {
	t.Helper()
	select {
	case <-triggers:
	case <-time.After(within):
		t.Fatal("timeout waiting for trigger")
	}
}

func expectNoTrigger(t *testing.T, triggers <-chan struct{}, within time.Duration) {
	t.Helper()
	select {
	case <-triggers:
		t.Fatal("unexpected trigger")
	case <-time.After(within):
	}
}

func TestRun_BurstCoalescesToOneTrigger(t *testing.T) {
	d, events := newTestDebouncer()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx, events)

	for i := 0; i < 10; i++ {
		sendChange(events, "src/lib.rs")
	}

	expectTrigger(t, d.Triggers(), 10*quiet)
	expectNoTrigger(t, d.Triggers(), 3*quiet)
}

func TestRun_EventsWithinQuietPeriodResetDeadline(t *testing.T) {
	d, events := newTestDebouncer()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx, events)

	// Keep the tree "unsettled" for several quiet periods.
	for i := 0; i < 5; i++ {
		sendChange(events, "src/main.rs")
		time.Sleep(quiet / 3)
	}
	// No trigger may fire while changes keep arriving faster than the quiet
	// period; exactly one fires once they stop.
	expectTrigger(t, d.Triggers(), 10*quiet)
	expectNoTrigger(t, d.Triggers(), 3*quiet)
}

func TestRun_SeparateQuietPeriodsYieldSeparateTriggers(t *testing.T) {
	d, events := newTestDebouncer()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx, events)

	sendChange(events, "src/a.rs")
	expectTrigger(t, d.Triggers(), 10*quiet)

	sendChange(events, "src/b.rs")
	expectTrigger(t, d.Triggers(), 10*quiet)
}

func TestRun_PendingTriggerAbsorbsNewOnes(t *testing.T) {
	d, events := newTestDebouncer()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx, events)

	// Nobody reads the trigger channel yet: the first trigger stays pending
	// and later quiet periods must fold into it.
	sendChange(events, "src/a.rs")
	time.Sleep(3 * quiet)
	sendChange(events, "src/b.rs")
	time.Sleep(3 * quiet)

	expectTrigger(t, d.Triggers(), quiet)
	expectNoTrigger(t, d.Triggers(), 3*quiet)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	d, events := newTestDebouncer()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		d.Run(ctx, events)
		close(done)
	}()

	sendChange(events, "src/a.rs")
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("debouncer did not stop after cancel")
	}
}

// countingSink records emitted vs coalesced triggers.
type countingSink struct {
	emitted   int
	coalesced int
}

func (s *countingSink) TriggerEmitted()   { s.emitted++ }
func (s *countingSink) TriggerCoalesced() { s.coalesced++ }

func TestEmit_Metrics(t *testing.T) {
	sink := &countingSink{}
	d := New(Config{QuietPeriod: quiet}).WithMetrics(sink)

	d.emit()
	d.emit() // channel full, coalesces

	if sink.emitted != 1 {
		t.Errorf("emitted = %d, want 1", sink.emitted)
	}
	if sink.coalesced != 1 {
		t.Errorf("coalesced = %d, want 1", sink.coalesced)
	}
}
