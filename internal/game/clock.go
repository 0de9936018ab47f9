package game

import (
	"time"

	"github.com/hailam/tilechess/internal/board"
)

// DefaultTimeControl is the time each side starts with.
const DefaultTimeControl = 10 * time.Minute

// Clock is a two-sided countdown clock. Only the running side's time
// drains. A Clock created with no time is disabled and never expires.
type Clock struct {
	remaining [2]time.Duration
	running   board.Color
	since     time.Time
	enabled   bool

	now func() time.Time
}

// NewClock gives both sides initial time. now defaults to time.Now.
func NewClock(initial time.Duration, now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{
		remaining: [2]time.Duration{initial, initial},
		running:   board.NoColor,
		enabled:   initial > 0,
		now:       now,
	}
}

// Enabled reports whether the clock limits the game.
func (c *Clock) Enabled() bool {
	return c.enabled
}

// Start runs side's time, stopping the other side first.
func (c *Clock) Start(side board.Color) {
	c.Stop()
	c.running = side
	c.since = c.now()
}

// Stop charges the running side and halts the clock.
func (c *Clock) Stop() {
	if c.running == board.NoColor {
		return
	}
	c.remaining[c.running] -= c.now().Sub(c.since)
	c.running = board.NoColor
}

// Remaining returns side's time left at this instant, never negative.
func (c *Clock) Remaining(side board.Color) time.Duration {
	if side > board.Black {
		return 0
	}
	r := c.remaining[side]
	if side == c.running {
		r -= c.now().Sub(c.since)
	}
	if r < 0 {
		r = 0
	}
	return r
}

// Expired reports whether side has run out of time.
func (c *Clock) Expired(side board.Color) bool {
	return c.enabled && c.Remaining(side) <= 0
}

// Set overrides both sides' remaining time, e.g. when restoring a game.
func (c *Clock) Set(white, black time.Duration) {
	c.remaining = [2]time.Duration{white, black}
	if c.running != board.NoColor {
		c.since = c.now()
	}
}
