package testutil

import (
	"testing"
	"time"
)

func TestTestContext_HasDeadline(t *testing.T) {
	ctx := TestContext(t)
	if _, ok := ctx.Deadline(); !ok {
		t.Error("TestContext should carry a deadline")
	}
}

func TestEventually_PassesOnceConditionHolds(t *testing.T) {
	start := time.Now()
	Eventually(t, time.Second, func() bool {
		return time.Since(start) > 20*time.Millisecond
	}, "time did not advance")
}
