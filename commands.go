package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"go-euclid/midi"
	"go-euclid/pattern"
)

func newPatternCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "pattern",
		Short: "Print the generated pattern and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			th, err := opts.theme(cmd, cfg)
			if err != nil {
				return err
			}
			p, err := pattern.Generate(cfg.Length, cfg.Pulses)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, th.RenderHeader(fmt.Sprintf("%d steps, %d pulses", p.Len(), p.Pulses())))
			fmt.Fprintln(out, p.String())
			fmt.Fprintln(out, th.RenderPattern(p))
			return nil
		},
	}
}

func newPortsCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "ports",
		Short: "List MIDI output ports usable with --midi-port",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := midi.ListPorts(timeout)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(names) == 0 {
				fmt.Fprintln(out, "no MIDI output ports")
				return nil
			}
			for i, name := range names {
				fmt.Fprintf(out, "  %d: %s\n", i, name)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 3*time.Second, "give up listing ports after this long")
	return cmd
}
