// Package clock converts elapsed monotonic time into musical beat positions.
package clock

import (
	"time"
)

// Beats returns the continuous beat position reached after elapsed at tempo BPM.
// An integral result lands exactly on a beat.
func Beats(elapsed time.Duration, tempo float64) float64 {
	ms := float64(elapsed) / float64(time.Millisecond)
	return ms / 1000 * tempo / 60
}

// BeatDuration returns the length of one beat at tempo BPM
func BeatDuration(tempo float64) time.Duration {
	if tempo <= 0 {
		return 0
	}
	return time.Duration(float64(time.Minute) / tempo)
}

// BeatTime returns the elapsed time at which beat n starts
func BeatTime(n int64, tempo float64) time.Duration {
	if tempo <= 0 {
		return 0
	}
	return time.Duration(float64(n) * float64(time.Minute) / tempo)
}

// Clock measures elapsed time since Start from the monotonic clock reading,
// so wall clock adjustments never move playback.
type Clock struct {
	start time.Time
	now   func() time.Time
}

// New creates a clock that starts now
func New() *Clock {
	return NewWithSource(time.Now)
}

// NewWithSource creates a clock reading time from now (used by tests)
func NewWithSource(now func() time.Time) *Clock {
	return &Clock{start: now(), now: now}
}

// Start returns the instant the clock started
func (c *Clock) Start() time.Time {
	return c.start
}

// Elapsed returns the time since start, never negative
func (c *Clock) Elapsed() time.Duration {
	d := c.now().Sub(c.start)
	if d < 0 {
		return 0
	}
	return d
}

// Beats returns the current beat position at tempo BPM
func (c *Clock) Beats(tempo float64) float64 {
	return Beats(c.Elapsed(), tempo)
}
