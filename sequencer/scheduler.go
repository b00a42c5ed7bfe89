package sequencer

import (
	"context"
	"math"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"go-euclid/clock"
	"go-euclid/debug"
	"go-euclid/pattern"
	"go-euclid/realtime"
	"go-euclid/trigger"
)

// DefaultTick is the polling interval of the scheduling loop
const DefaultTick = 10 * time.Millisecond

// Common errors.
var (
	ErrTickTooCoarse = errors.New("tick interval not shorter than one beat")
	ErrInvalidTempo  = errors.New("tempo must be positive")
)

// Emitter sends one trigger carrying the event counter
type Emitter interface {
	Emit(counter int) error
}

// Beat describes one detected beat crossing
type Beat struct {
	Number   int64         // floor of the beat position
	Position float64       // beat position when the crossing was seen
	Step     int           // Number mod pattern length
	Gate     bool          // step is active
	Counter  int           // counter sent with the trigger, -1 on rests
	Elapsed  time.Duration // time since start when the crossing was seen
}

// Config configures a Scheduler
type Config struct {
	Tempo float64       // BPM, fixed for the scheduler lifetime
	Tick  time.Duration // default 10ms

	// FireOnStart makes beat 0 a crossing so step 0 fires on the first tick.
	// Without it step 0 first fires when the pattern wraps.
	FireOnStart bool

	Policy   realtime.Policy
	RealTime realtime.Params

	// Clock defaults to a clock started by New
	Clock *clock.Clock

	// OnBeat is called on the scheduler thread for every beat, gate or not
	OnBeat func(Beat)
}

// Stats are counters readable from any goroutine
type Stats struct {
	Beats    uint64 // beat crossings detected
	Triggers uint64 // gates dispatched
	Failed   uint64 // emitter errors other than drops
	Dropped  uint64 // datagrams dropped at the write deadline
}

// Scheduler turns elapsed time into edge-detected beats and dispatches a
// trigger for every active step. All state except the stats counters is
// owned by the goroutine calling Step or Run.
type Scheduler struct {
	pattern  pattern.Pattern
	emitters []Emitter
	tempo    float64
	tick     time.Duration
	policy   realtime.Policy
	rt       realtime.Params
	clock    *clock.Clock
	onBeat   func(Beat)
	promote  func(realtime.Params) (*realtime.Handle, error)

	prev    int64 // last observed beat number
	counter int   // next trigger payload

	beats    atomic.Uint64
	triggers atomic.Uint64
	failed   atomic.Uint64
	dropped  atomic.Uint64
}

// New creates a scheduler for p. Emitters are called in order for every gate.
func New(p pattern.Pattern, emitters []Emitter, cfg Config) (*Scheduler, error) {
	if p.Len() == 0 {
		return nil, errors.Wrap(pattern.ErrInvalid, "empty pattern")
	}
	if cfg.Tempo <= 0 || math.IsNaN(cfg.Tempo) || math.IsInf(cfg.Tempo, 0) {
		return nil, errors.Wrapf(ErrInvalidTempo, "got %v", cfg.Tempo)
	}
	if cfg.Tick <= 0 {
		cfg.Tick = DefaultTick
	}
	if beat := clock.BeatDuration(cfg.Tempo); cfg.Tick >= beat {
		return nil, errors.Wrapf(ErrTickTooCoarse, "tick %v, beat %v at %v BPM", cfg.Tick, beat, cfg.Tempo)
	}
	if cfg.Policy == "" {
		cfg.Policy = realtime.FailFast
	}
	if cfg.RealTime == (realtime.Params{}) {
		cfg.RealTime = realtime.DefaultParams()
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}

	s := &Scheduler{
		pattern:  p,
		emitters: emitters,
		tempo:    cfg.Tempo,
		tick:     cfg.Tick,
		policy:   cfg.Policy,
		rt:       cfg.RealTime,
		clock:    cfg.Clock,
		onBeat:   cfg.OnBeat,
		promote:  realtime.Promote,
	}
	if cfg.FireOnStart {
		s.prev = -1
	}
	return s, nil
}

// Tick returns the polling interval
func (s *Scheduler) Tick() time.Duration {
	return s.tick
}

// Stats returns a snapshot of the counters
func (s *Scheduler) Stats() Stats {
	return Stats{
		Beats:    s.beats.Load(),
		Triggers: s.triggers.Load(),
		Failed:   s.failed.Load(),
		Dropped:  s.dropped.Load(),
	}
}

// Step runs one tick at elapsed time. It reports the beat when a new
// integer beat was crossed; repeated calls inside one beat do nothing.
func (s *Scheduler) Step(elapsed time.Duration) (Beat, bool) {
	pos := clock.Beats(elapsed, s.tempo)
	current := int64(math.Floor(pos))
	if current == s.prev {
		return Beat{}, false
	}

	step := int(current % int64(s.pattern.Len()))
	b := Beat{
		Number:   current,
		Position: pos,
		Step:     step,
		Gate:     s.pattern.Active(step),
		Counter:  -1,
		Elapsed:  elapsed,
	}
	s.beats.Add(1)

	if b.Gate {
		b.Counter = s.counter
		s.dispatch(b)
		s.counter++
	}
	s.prev = current

	if s.onBeat != nil {
		s.onBeat(b)
	}
	return b, true
}

// dispatch hands the trigger to every emitter. Failures are logged and
// counted; playback never stops for them.
func (s *Scheduler) dispatch(b Beat) {
	s.triggers.Add(1)
	for _, e := range s.emitters {
		err := e.Emit(b.Counter)
		switch {
		case err == nil:
			debug.Log("dispatch", "beat=%d step=%d counter=%d", b.Number, b.Step, b.Counter)
		case errors.Is(err, trigger.ErrDropped):
			s.dropped.Add(1)
			debug.Log("emit", "dropped counter=%d: %v", b.Counter, err)
		default:
			s.failed.Add(1)
			debug.Log("emit", "failed counter=%d: %v", b.Counter, err)
		}
	}
}

// Run requests real-time priority for its OS thread and then steps the
// clock every tick until ctx is done. A promotion failure ends Run with
// the error under FailFast; under Degrade the loop runs without it.
func (s *Scheduler) Run(ctx context.Context) error {
	runtime.LockOSThread()

	h, err := s.promote(s.rt)
	switch {
	case err == nil:
		rt := h.Params()
		debug.Log("rt", "promoted thread %d priority %d (%d frames @ %d Hz, quantum %v)",
			h.ThreadID(), rt.Priority, rt.BufferFrames, rt.SampleRate, rt.Quantum())
		defer release(h)
	case s.policy == realtime.Degrade:
		debug.Log("rt", "continuing without real-time priority: %v", err)
		defer runtime.UnlockOSThread()
	default:
		runtime.UnlockOSThread()
		return errors.Wrap(err, "promoting sequencer thread")
	}

	return s.loop(ctx)
}

func (s *Scheduler) loop(ctx context.Context) error {
	timer := time.NewTimer(s.tick)
	defer timer.Stop()

	for {
		s.Step(s.clock.Elapsed())

		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
			timer.Reset(s.tick)
		}
	}
}

// release drops the real-time class before handing the thread back to the
// runtime. If that fails the thread stays locked and exits with the goroutine.
func release(h *realtime.Handle) {
	if err := h.Release(); err != nil {
		debug.Log("rt", "keeping thread locked: %v", err)
		return
	}
	runtime.UnlockOSThread()
}
