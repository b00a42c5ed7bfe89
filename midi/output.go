package midi

import (
	"time"

	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// ErrPortTimeout is returned when the MIDI backend does not answer in time
var ErrPortTimeout = errors.New("timed out listing MIDI ports")

// ListPorts returns the names of all MIDI output ports.
// Port enumeration can hang (CoreMIDI), so it gives up after timeout.
func ListPorts(timeout time.Duration) ([]string, error) {
	ch := make(chan []drivers.Out, 1)
	go func() {
		ch <- gomidi.GetOutPorts()
	}()

	select {
	case outs := <-ch:
		names := make([]string, len(outs))
		for i, out := range outs {
			names[i] = out.String()
		}
		return names, nil
	case <-time.After(timeout):
		return nil, ErrPortTimeout
	}
}

// OpenSender opens the first output port whose name contains portName
func OpenSender(portName string) (func(gomidi.Message) error, error) {
	out, err := gomidi.FindOutPort(portName)
	if err != nil {
		return nil, errors.Wrapf(err, "finding MIDI port %q", portName)
	}
	send, err := gomidi.SendTo(out)
	if err != nil {
		return nil, errors.Wrapf(err, "opening MIDI port %q", portName)
	}
	return send, nil
}

// Mirror sends every trigger as a short note on a MIDI port
type Mirror struct {
	port string
	gate Gate
	send func(gomidi.Message) error
}

// NewMirror creates a mirror on an already opened sender
func NewMirror(port string, send func(gomidi.Message) error, gate Gate) *Mirror {
	return &Mirror{port: port, gate: gate, send: send}
}

// OpenMirror opens portName and mirrors triggers as gate
func OpenMirror(portName string, gate Gate) (*Mirror, error) {
	send, err := OpenSender(portName)
	if err != nil {
		return nil, err
	}
	return NewMirror(portName, send, gate), nil
}

// Emit sends note on immediately followed by note off
func (m *Mirror) Emit(counter int) error {
	for _, msg := range m.gate.Messages() {
		if err := m.send(msg); err != nil {
			return errors.Wrapf(err, "sending trigger %d to MIDI port %q", counter, m.port)
		}
	}
	return nil
}

// Name identifies the mirror in logs
func (m *Mirror) Name() string {
	return "midi " + m.port
}

// Close releases the MIDI driver
func (m *Mirror) Close() error {
	gomidi.CloseDriver()
	return nil
}
