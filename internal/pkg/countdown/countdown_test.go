//go:build unit

package countdown_test

import (
	"sync/atomic"
	"testing"
	"time"

	"eventix-client/internal/pkg/clock"
	"eventix-client/internal/pkg/countdown"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestExpiryFiresExactlyOnce(t *testing.T) {
	base := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	clk := clock.NewMockClock(base)

	var fired atomic.Int32
	timer := countdown.New(clk, time.Millisecond, func() { fired.Add(1) })
	timer.Start(base.Add(30 * time.Second))

	// No callback while time stands still before the expiry.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())

	clk.Add(31 * time.Second)
	waitFor(t, func() bool { return fired.Load() == 1 }, "expiry callback never fired")

	// The loop has exited; nothing fires again.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
	assert.True(t, timer.Expired())
}

func TestPastExpiryFiresImmediately(t *testing.T) {
	base := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	clk := clock.NewMockClock(base)

	var fired atomic.Int32
	timer := countdown.New(clk, time.Millisecond, func() { fired.Add(1) })
	timer.Start(base.Add(-time.Second))

	waitFor(t, func() bool { return fired.Load() == 1 }, "past expiry did not fire")
}

func TestStopSuppressesCallback(t *testing.T) {
	base := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	clk := clock.NewMockClock(base)

	var fired atomic.Int32
	timer := countdown.New(clk, time.Millisecond, func() { fired.Add(1) })
	timer.Start(base.Add(10 * time.Second))
	timer.Stop()

	clk.Add(time.Minute)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
	assert.False(t, timer.Expired())

	timer.Stop() // idempotent
}

func TestRestartReplacesCountdown(t *testing.T) {
	base := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	clk := clock.NewMockClock(base)

	var fired atomic.Int32
	timer := countdown.New(clk, time.Millisecond, func() { fired.Add(1) })
	timer.Start(base.Add(5 * time.Second))
	timer.Start(base.Add(60 * time.Second))

	// Past the first deadline but not the second: the replaced loop must
	// not fire.
	clk.Add(10 * time.Second)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
	assert.Equal(t, 50, timer.Remaining())

	clk.Add(51 * time.Second)
	waitFor(t, func() bool { return fired.Load() == 1 }, "second countdown never fired")
}

func TestRemainingClampsAtZero(t *testing.T) {
	base := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	clk := clock.NewMockClock(base)

	timer := countdown.New(clk, time.Hour, nil)
	require.Equal(t, 0, timer.Remaining(), "zero before Start")

	timer.Start(base.Add(90 * time.Second))
	assert.Equal(t, 90, timer.Remaining())

	clk.Add(2 * time.Minute)
	assert.Equal(t, 0, timer.Remaining())
	timer.Stop()
}

func TestTickObserverSeesRemainder(t *testing.T) {
	base := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	clk := clock.NewMockClock(base)

	var last atomic.Int32
	timer := countdown.New(clk, time.Millisecond, nil)
	timer.OnTick(func(remaining int) { last.Store(int32(remaining)) })
	timer.Start(base.Add(120 * time.Second))

	waitFor(t, func() bool { return last.Load() == 120 }, "observer never saw initial remainder")

	clk.Add(45 * time.Second)
	waitFor(t, func() bool { return last.Load() == 75 }, "observer never saw updated remainder")
	timer.Stop()
}
