package game

import (
	"time"

	"github.com/coder/quartz"
)

// DefaultActionTimeout is how long a player has to hit or stand
const DefaultActionTimeout = 60 * time.Second

// TimeoutGuard schedules one forfeit per arm cycle. Re-arming stops the
// previous timer. A callback that was already running when the timer was
// stopped still fires with its old generation; the receiver must compare it
// against the live one.
type TimeoutGuard struct {
	clock quartz.Clock
	after time.Duration
	fire  func(generation uint64)
	timer *quartz.Timer
}

// NewTimeoutGuard returns a disarmed guard that calls fire after the given delay
func NewTimeoutGuard(clock quartz.Clock, after time.Duration, fire func(generation uint64)) *TimeoutGuard {
	return &TimeoutGuard{
		clock: clock,
		after: after,
		fire:  fire,
	}
}

// Arm cancels any pending timer and schedules a new one stamped with
// generation. It returns the deadline.
func (g *TimeoutGuard) Arm(generation uint64) time.Time {
	g.Cancel()
	g.timer = g.clock.AfterFunc(g.after, func() {
		g.fire(generation)
	}, "timeout", "arm")
	return g.clock.Now("timeout", "deadline").Add(g.after)
}

// Cancel stops the pending timer. It reports whether a timer was stopped
// before firing.
func (g *TimeoutGuard) Cancel() bool {
	if g.timer == nil {
		return false
	}
	stopped := g.timer.Stop("timeout", "cancel")
	g.timer = nil
	return stopped
}

// Armed reports whether a timer is pending
func (g *TimeoutGuard) Armed() bool {
	return g.timer != nil
}
