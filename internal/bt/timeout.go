package bt

import (
	"sync"
	"sync/atomic"
	"time"
)

// CancelFunc cancels a scheduled callback. It reports whether the
// callback was stopped before firing.
type CancelFunc func() bool

// Scheduler is the external scheduled-callback service time-bounded
// decorators depend on. The default implementation is the process
// timer; tests substitute a manual one.
type Scheduler interface {
	After(d time.Duration, fn func()) CancelFunc
}

// timerScheduler backs Scheduler with time.AfterFunc.
type timerScheduler struct{}

func (timerScheduler) After(d time.Duration, fn func()) CancelFunc {
	t := time.AfterFunc(d, fn)
	return t.Stop
}

// DefaultScheduler returns the process-timer backed scheduler.
func DefaultScheduler() Scheduler { return timerScheduler{} }

// TimeoutGuard coordinates a timeout decorator's deadline callback with
// the independent halting of its child. The deadline fires on the
// scheduler's goroutine and races the halt; the childHalted flag is the
// atomically-observed arbiter. A callback that loses the race no-ops.
type TimeoutGuard struct {
	sched Scheduler

	mu          sync.Mutex
	cancel      CancelFunc
	childHalted atomic.Bool
}

// NewTimeoutGuard returns a guard using the given scheduler.
func NewTimeoutGuard(sched Scheduler) *TimeoutGuard {
	return &TimeoutGuard{sched: sched}
}

// Arm schedules expire to run after d. Re-arming replaces the previous
// deadline and clears the halted flag for the next run.
func (g *TimeoutGuard) Arm(d time.Duration, expire func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		g.cancel()
	}
	g.childHalted.Store(false)
	g.cancel = g.sched.After(d, func() {
		if g.childHalted.Load() {
			return
		}
		expire()
	})
}

// Disarm records that the child was halted before the deadline and
// cancels the pending callback. A callback already in flight observes
// the flag and does nothing.
func (g *TimeoutGuard) Disarm() {
	g.childHalted.Store(true)
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
}
