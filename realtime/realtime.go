// Package realtime requests a real-time scheduling class for the calling
// OS thread. Callers must hold the thread with runtime.LockOSThread for as
// long as the returned Handle is in use.
package realtime

import (
	"time"

	"github.com/pkg/errors"
)

// Common errors.
var (
	ErrPromotionFailed = errors.New("real-time promotion failed")
	ErrUnsupported     = errors.New("real-time promotion unsupported on this platform")
	ErrReleaseFailed   = errors.New("restoring scheduling attributes failed")
)

// Policy decides what happens when promotion fails.
type Policy string

const (
	FailFast Policy = "fail-fast" // abort startup
	Degrade  Policy = "degrade"   // keep running with normal scheduling
)

// ParsePolicy parses a config value. The empty string means FailFast.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", FailFast:
		return FailFast, nil
	case Degrade:
		return Degrade, nil
	}
	return "", errors.Errorf("unknown real-time policy %q (want %q or %q)", s, FailFast, Degrade)
}

// Priority bounds for SCHED_RR on Linux
const (
	MinPriority = 1
	MaxPriority = 99
)

// Params are tuning hints for the OS scheduler. No audio is processed;
// BufferFrames/SampleRate only describe the expected wakeup quantum.
type Params struct {
	BufferFrames int
	SampleRate   int
	Priority     int // MinPriority-MaxPriority
}

// DefaultParams matches a 512 frame buffer at 44.1kHz
func DefaultParams() Params {
	return Params{BufferFrames: 512, SampleRate: 44100, Priority: 10}
}

// Quantum returns the duration of one buffer
func (p Params) Quantum() time.Duration {
	if p.SampleRate <= 0 {
		return 0
	}
	return time.Duration(int64(p.BufferFrames) * int64(time.Second) / int64(p.SampleRate))
}

func (p Params) validate() error {
	if p.BufferFrames <= 0 || p.SampleRate <= 0 {
		return errors.Errorf("buffer %d frames @ %d Hz", p.BufferFrames, p.SampleRate)
	}
	if p.Priority < MinPriority || p.Priority > MaxPriority {
		return errors.Errorf("priority %d out of range %d..%d", p.Priority, MinPriority, MaxPriority)
	}
	return nil
}

// Handle is held for as long as the thread runs with real-time priority.
// Exiting a locked goroutine without unlocking ends the thread, which
// drops the class as well.
type Handle struct {
	params  Params
	tid     int
	restore func() error
}

// Params returns the hints the handle was promoted with
func (h *Handle) Params() Params {
	return h.params
}

// ThreadID returns the promoted OS thread id
func (h *Handle) ThreadID() int {
	return h.tid
}

// Release restores the scheduling policy and priority the thread had before
// promotion. It must be called from the promoted thread. Failures wrap
// ErrReleaseFailed.
func (h *Handle) Release() error {
	if h == nil || h.restore == nil {
		return nil
	}
	restore := h.restore
	h.restore = nil
	if err := restore(); err != nil {
		return errors.Wrapf(ErrReleaseFailed, "thread %d: %v", h.tid, err)
	}
	return nil
}

// Promote asks the OS to run the calling thread in a real-time class.
// Every failure wraps ErrPromotionFailed.
func Promote(p Params) (*Handle, error) {
	if err := p.validate(); err != nil {
		return nil, errors.Wrap(ErrPromotionFailed, err.Error())
	}
	h, err := promote(p)
	if err != nil {
		return nil, errors.Wrapf(ErrPromotionFailed, "%v", err)
	}
	return h, nil
}
