// Package trigger sends step triggers as OSC messages over UDP.
//
// Delivery is fire-and-forget: one datagram per trigger, no
// acknowledgment and no retry. A send that cannot be handed to the
// kernel before the write deadline is reported as ErrDropped.
package trigger

import (
	"net"
	"time"

	"github.com/pkg/errors"
	"github.com/scgolang/osc"
)

// Common errors.
var (
	ErrBindExhausted = errors.New("no free local port")
	ErrEncoding      = errors.New("trigger encoding failed")
	ErrDropped       = errors.New("trigger datagram dropped")
)

// Emitter sends trigger messages from a bound local connection to a fixed destination.
type Emitter struct {
	conn    *osc.UDPConn
	dest    net.Addr
	address string
	timeout time.Duration
}

// NewEmitter creates an emitter that owns conn.
// A zero timeout leaves sends unbounded.
func NewEmitter(conn *osc.UDPConn, dest net.Addr, address string, timeout time.Duration) *Emitter {
	if address == "" {
		address = DefaultAddress
	}
	return &Emitter{
		conn:    conn,
		dest:    dest,
		address: address,
		timeout: timeout,
	}
}

// Emit sends the trigger for counter
func (e *Emitter) Emit(counter int) error {
	msg, err := Message(e.address, counter)
	if err != nil {
		return err
	}
	if e.timeout > 0 {
		if err := e.conn.SetWriteDeadline(time.Now().Add(e.timeout)); err != nil {
			return errors.Wrap(err, "setting write deadline")
		}
	}
	if err := e.conn.SendTo(e.dest, msg); err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return errors.Wrapf(ErrDropped, "trigger %d: %v", counter, err)
		}
		return errors.Wrapf(err, "sending trigger %d to %s", counter, e.dest)
	}
	return nil
}

// Name identifies the emitter in logs
func (e *Emitter) Name() string {
	return "osc " + e.dest.String()
}

// LocalAddr returns the bound local address
func (e *Emitter) LocalAddr() net.Addr {
	return e.conn.LocalAddr()
}

// Close closes the underlying connection
func (e *Emitter) Close() error {
	return e.conn.Close()
}
