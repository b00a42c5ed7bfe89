package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"go-euclid/clock"
	"go-euclid/config"
	"go-euclid/debug"
	"go-euclid/midi"
	"go-euclid/pattern"
	"go-euclid/realtime"
	"go-euclid/sequencer"
	"go-euclid/theme"
	"go-euclid/trigger"
)

// driverTick is how often the driver goroutine wakes up
const driverTick = 100 * time.Millisecond

func newPlayCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Run the sequencer until interrupted",
		Long: `Run the sequencer until interrupted.

A trigger is sent to the destination for every active step. The scheduler
runs on its own OS thread and asks for real-time priority first; with
--policy degrade it keeps going when that is refused.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd, opts)
		},
	}
}

func runPlay(cmd *cobra.Command, opts *options) error {
	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}
	th, err := opts.theme(cmd, cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := newPlayer(cfg, th, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer p.Close()

	return p.Run(ctx)
}

// player wires the pattern, emitters and scheduler together for one run
type player struct {
	cfg      *config.Config
	pattern  pattern.Pattern
	clock    *clock.Clock
	osc      *trigger.Emitter
	mirror   *midi.Mirror
	sched    *sequencer.Scheduler
	theme    *theme.Theme
	out      io.Writer
	logEvery int
}

func newPlayer(cfg *config.Config, th *theme.Theme, out io.Writer) (*player, error) {
	pat, err := pattern.Generate(cfg.Length, cfg.Pulses)
	if err != nil {
		return nil, err
	}
	policy, err := realtime.ParsePolicy(cfg.RealTime.Policy)
	if err != nil {
		return nil, err
	}

	p := &player{
		cfg:      cfg,
		pattern:  pat,
		theme:    th,
		out:      out,
		logEvery: 50,
	}

	conn, err := trigger.Bind(cfg.OSC.BindHost, cfg.OSC.BasePort)
	if err != nil {
		return nil, err
	}
	dest, err := trigger.Destination(cfg.OSC.DestHost, cfg.OSC.DestPort)
	if err != nil {
		conn.Close()
		return nil, err
	}
	p.osc = trigger.NewEmitter(conn, dest, cfg.OSC.Address, cfg.OSC.SendTimeout)
	debug.Log("startup", "bound %s, sending %s to %s", p.osc.LocalAddr(), cfg.OSC.Address, dest)

	emitters := []sequencer.Emitter{p.osc}
	if cfg.MIDI.Port != "" {
		gate := midi.NewGate(cfg.MIDI.Channel, cfg.MIDI.Note, cfg.MIDI.Velocity)
		p.mirror, err = midi.OpenMirror(cfg.MIDI.Port, gate)
		if err != nil {
			p.Close()
			return nil, err
		}
		debug.Log("midi", "mirroring triggers to %s", p.mirror.Name())
		emitters = append(emitters, p.mirror)
	}

	p.clock = clock.New()
	p.sched, err = sequencer.New(pat, emitters, sequencer.Config{
		Tempo:       cfg.Tempo,
		Tick:        cfg.Tick,
		FireOnStart: cfg.FireOnStart,
		Policy:      policy,
		RealTime: realtime.Params{
			BufferFrames: cfg.RealTime.BufferFrames,
			SampleRate:   cfg.RealTime.SampleRate,
			Priority:     cfg.RealTime.Priority,
		},
		Clock:  p.clock,
		OnBeat: p.onBeat,
	})
	if err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

func (p *player) onBeat(b sequencer.Beat) {
	debug.Log("beat", "beat=%d step=%d gate=%v pos=%.3f", b.Number, b.Step, b.Gate, b.Position)
	if p.cfg.UI.Quiet {
		return
	}
	fmt.Fprintln(p.out, p.theme.RenderBeat(p.pattern, b))
}

// Run starts the scheduler and the driver and waits for both.
// Cancelling ctx is the only way the driver talks to the scheduler.
func (p *player) Run(ctx context.Context) error {
	fmt.Fprintln(p.out, p.theme.RenderHeader(fmt.Sprintf("%d steps, %d pulses @ %g BPM -> %s",
		p.pattern.Len(), p.pattern.Pulses(), p.cfg.Tempo, p.osc.Name())))
	fmt.Fprintln(p.out, p.theme.RenderPattern(p.pattern))

	debug.Log("startup", "clock started at %s", p.clock.Start().Format("15:04:05.000"))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return errors.Wrap(p.sched.Run(ctx), "running scheduler")
	})
	g.Go(func() error {
		return p.drive(ctx)
	})
	err := g.Wait()

	st := p.sched.Stats()
	debug.Log("driver", "stopped: beats=%d triggers=%d failed=%d dropped=%d", st.Beats, st.Triggers, st.Failed, st.Dropped)
	if st.Failed+st.Dropped > 0 && !p.cfg.UI.Quiet {
		fmt.Fprintln(p.out, p.theme.RenderWarning(fmt.Sprintf("%d trigger(s) failed, %d dropped", st.Failed, st.Dropped)))
	}
	return err
}

// drive idles until ctx is done, logging scheduler stats now and then
func (p *player) drive(ctx context.Context) error {
	ticker := time.NewTicker(driverTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			st := p.sched.Stats()
			debug.LogEvery(p.logEvery, "driver", "beats=%d triggers=%d failed=%d dropped=%d",
				st.Beats, st.Triggers, st.Failed, st.Dropped)
		}
	}
}

func (p *player) Close() error {
	var first error
	if p.mirror != nil {
		if err := p.mirror.Close(); err != nil {
			first = err
		}
	}
	if p.osc != nil {
		if err := p.osc.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
