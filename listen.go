package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/pkg/errors"
	"github.com/scgolang/osc"
	"github.com/spf13/cobra"

	"go-euclid/debug"
	"go-euclid/trigger"
)

func newListenCmd(opts *options) *cobra.Command {
	var (
		host string
		port int
	)
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Print triggers received on a UDP port",
		Long: `Print triggers received on a UDP port.

Runs the receiving end of the trigger protocol, one line per message,
so a running sequencer can be checked without a synth.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("port") {
				port = cfg.OSC.DestPort
			}
			if !cmd.Flags().Changed("host") {
				host = cfg.OSC.DestHost
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return listen(ctx, cmd.OutOrStdout(), host, port, cfg.OSC.Address)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "listen host (default destination host)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (default destination port)")
	return cmd
}

// listen serves trigger messages on host:port until ctx is done
func listen(ctx context.Context, w io.Writer, host string, port int, address string) error {
	laddr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return errors.Wrap(err, "resolving listen address")
	}
	conn, err := osc.ListenUDPContext(ctx, "udp", laddr)
	if err != nil {
		return errors.Wrapf(err, "listening on %s", laddr)
	}
	defer conn.Close()

	fmt.Fprintf(w, "listening for %s on %s\n", address, conn.LocalAddr())
	return serveTriggers(ctx, conn, w, address)
}

func serveTriggers(ctx context.Context, conn *osc.UDPConn, w io.Writer, address string) error {
	err := conn.Serve(1, osc.PatternMatching{
		address: osc.Method(func(m osc.Message) error {
			counter, err := trigger.Counter(m)
			if err != nil {
				debug.Log("listen", "ignoring %s from %s: %v", m.Address, m.Sender, err)
				return nil
			}
			fmt.Fprintf(w, "%s %d\n", m.Address, counter)
			return nil
		}),
	})
	if ctx.Err() != nil {
		return nil
	}
	return errors.Wrap(err, "serving triggers")
}
