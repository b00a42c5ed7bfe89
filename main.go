package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"go-euclid/config"
	"go-euclid/debug"
	"go-euclid/realtime"
	"go-euclid/theme"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// options holds the persistent flags shared by every command
type options struct {
	configPath string
	debug      bool
	debugFile  string

	tempo       float64
	length      int
	pulses      int
	tick        string
	fireOnStart bool
	address     string
	destHost    string
	destPort    int
	basePort    int
	policy      string
	midiPort    string
	palette     string
	quiet       bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "go-euclid",
		Short: "Euclidean step sequencer sending OSC triggers",
		Long: `go-euclid spreads pulses evenly over a fixed number of steps and sends
one OSC message per active step, in time with a fixed tempo.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setupDebug(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd, opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default ~/.config/go-euclid/config.yaml)")
	flags.BoolVar(&opts.debug, "debug", false, "write debug log to stderr")
	flags.StringVar(&opts.debugFile, "debug-file", "", "write debug log to file")
	flags.Float64VarP(&opts.tempo, "tempo", "t", 0, "tempo in BPM")
	flags.IntVarP(&opts.length, "length", "l", 0, "number of steps")
	flags.IntVarP(&opts.pulses, "pulses", "p", 0, "number of active steps")
	flags.StringVar(&opts.tick, "tick", "", "scheduler tick interval (e.g. 10ms)")
	flags.BoolVar(&opts.fireOnStart, "fire-on-start", false, "fire step 0 on the first tick")
	flags.StringVar(&opts.address, "address", "", "OSC address of triggers")
	flags.StringVar(&opts.destHost, "dest-host", "", "destination host")
	flags.IntVar(&opts.destPort, "dest-port", 0, "destination port")
	flags.IntVar(&opts.basePort, "base-port", 0, "first local port to try binding")
	flags.StringVar(&opts.policy, "policy", "", "real-time promotion failure policy (fail-fast|degrade)")
	flags.StringVar(&opts.midiPort, "midi-port", "", "mirror triggers as notes on this MIDI output")
	flags.StringVar(&opts.palette, "palette", "", "GIMP .gpl palette for console output")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "do not print a line per beat")

	root.AddCommand(
		newPlayCmd(opts),
		newListenCmd(opts),
		newPatternCmd(opts),
		newPortsCmd(),
	)
	return root
}

func (o *options) setupDebug(cmd *cobra.Command) error {
	switch {
	case o.debugFile != "":
		if err := debug.Enable(o.debugFile); err != nil {
			return errors.Wrap(err, "enabling debug log")
		}
	case o.debug:
		debug.SetOutput(cmd.ErrOrStderr())
	}
	debug.Log("startup", "go-euclid %s", cmd.CommandPath())
	return nil
}

// loadConfig reads the config file and applies flags set on the command line
func (o *options) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFile(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, errors.Wrap(err, "loading config")
	}

	if err := o.apply(cmd, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (o *options) apply(cmd *cobra.Command, cfg *config.Config) error {
	changed := func(name string) bool {
		f := cmd.Flag(name)
		return f != nil && f.Changed
	}

	if changed("tempo") {
		cfg.Tempo = o.tempo
	}
	if changed("length") {
		cfg.Length = o.length
	}
	if changed("pulses") {
		cfg.Pulses = o.pulses
	}
	if changed("tick") {
		d, err := time.ParseDuration(o.tick)
		if err != nil {
			return errors.Wrap(err, "parsing --tick")
		}
		cfg.Tick = d
	}
	if changed("fire-on-start") {
		cfg.FireOnStart = o.fireOnStart
	}
	if changed("address") {
		cfg.OSC.Address = o.address
	}
	if changed("dest-host") {
		cfg.OSC.DestHost = o.destHost
	}
	if changed("dest-port") {
		cfg.OSC.DestPort = o.destPort
	}
	if changed("base-port") {
		cfg.OSC.BasePort = o.basePort
	}
	if changed("policy") {
		if _, err := realtime.ParsePolicy(o.policy); err != nil {
			return err
		}
		cfg.RealTime.Policy = o.policy
	}
	if changed("midi-port") {
		cfg.MIDI.Port = o.midiPort
	}
	if changed("palette") {
		cfg.UI.Palette = o.palette
	}
	if changed("quiet") {
		cfg.UI.Quiet = o.quiet
	}
	return nil
}

func (o *options) theme(cmd *cobra.Command, cfg *config.Config) (*theme.Theme, error) {
	path := cfg.UI.Palette
	if path != "" && !filepath.IsAbs(path) {
		if dir, err := config.ConfigDir(); err == nil {
			if _, err := os.Stat(path); os.IsNotExist(err) {
				path = filepath.Join(dir, path)
			}
		}
	}
	palette, err := theme.LoadOrDefault(path)
	if err != nil {
		return nil, errors.Wrap(err, "loading palette")
	}
	return theme.New(palette, cmd.OutOrStdout()), nil
}
