// Package countdown tracks the remaining lifetime of a server-issued seat
// lock. Remaining time is always recomputed from the absolute expiry
// timestamp, never from a locally recorded duration, so a slow lock round
// trip cannot skew the countdown.
package countdown

import (
	"sync"
	"time"

	"eventix-client/internal/pkg/clock"
)

// Timer ticks once per interval and reports whole seconds remaining until an
// absolute expiry instant. The expiry callback fires exactly once, off the
// caller's goroutine, and the reported remainder never goes below zero.
type Timer struct {
	clock    clock.Clock
	interval time.Duration

	onTick    func(remaining int)
	onExpired func()

	mu        sync.Mutex
	expiresAt time.Time
	cancel    chan struct{}
	running   bool
	expired   bool
}

func New(clk clock.Clock, interval time.Duration, onExpired func()) *Timer {
	if interval <= 0 {
		interval = time.Second
	}
	return &Timer{
		clock:     clk,
		interval:  interval,
		onExpired: onExpired,
	}
}

// OnTick registers an observer for each recomputed remainder. Must be called
// before Start.
func (t *Timer) OnTick(fn func(remaining int)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onTick = fn
}

// Start begins ticking toward expiresAt, replacing any previous countdown.
// An expiresAt already in the past expires immediately without ticking.
func (t *Timer) Start(expiresAt time.Time) {
	t.mu.Lock()
	if t.running {
		close(t.cancel)
	}
	t.expiresAt = expiresAt
	t.expired = false
	t.running = true
	cancel := make(chan struct{})
	t.cancel = cancel
	onTick := t.onTick
	t.mu.Unlock()

	go t.loop(expiresAt, cancel, onTick)
}

func (t *Timer) loop(expiresAt time.Time, cancel chan struct{}, onTick func(int)) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		remaining := remainingSeconds(t.clock.Now(), expiresAt)
		if onTick != nil {
			onTick(remaining)
		}
		if remaining <= 0 {
			if t.markExpired(cancel) && t.onExpired != nil {
				t.onExpired()
			}
			return
		}

		select {
		case <-cancel:
			return
		case <-ticker.C:
		}
	}
}

// markExpired reports whether this loop still owns the countdown; a Stop or a
// replacement Start in between suppresses the callback.
func (t *Timer) markExpired(cancel chan struct{}) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != cancel || t.expired || !t.running {
		return false
	}
	t.expired = true
	t.running = false
	return true
}

// Stop cancels ticking. Safe to call repeatedly or before Start.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		close(t.cancel)
		t.running = false
	}
}

// Remaining reports the current whole seconds left, clamped at zero.
func (t *Timer) Remaining() int {
	t.mu.Lock()
	expiresAt := t.expiresAt
	t.mu.Unlock()
	if expiresAt.IsZero() {
		return 0
	}
	return remainingSeconds(t.clock.Now(), expiresAt)
}

func (t *Timer) Expired() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.expired
}

func remainingSeconds(now, expiresAt time.Time) int {
	remaining := int(expiresAt.Sub(now) / time.Second)
	if remaining < 0 {
		return 0
	}
	return remaining
}
