package trigger

import (
	"math"
	"strings"

	"github.com/pkg/errors"
	"github.com/scgolang/osc"
)

// DefaultAddress is the OSC address of trigger messages
const DefaultAddress = "/prefix/note"

// Message builds the trigger message carrying counter as its only argument.
// Failures wrap ErrEncoding.
func Message(address string, counter int) (osc.Message, error) {
	if !strings.HasPrefix(address, "/") {
		return osc.Message{}, errors.Wrapf(ErrEncoding, "address %q must start with /", address)
	}
	if err := osc.ValidateAddress(address); err != nil {
		return osc.Message{}, errors.Wrapf(ErrEncoding, "address %q: %v", address, err)
	}
	if int64(counter) < math.MinInt32 || int64(counter) > math.MaxInt32 {
		return osc.Message{}, errors.Wrapf(ErrEncoding, "counter %d overflows int32", counter)
	}
	return osc.Message{
		Address: address,
		Arguments: osc.Arguments{
			osc.Int(counter),
		},
	}, nil
}

// Counter reads the counter back out of a trigger message
func Counter(m osc.Message) (int32, error) {
	if expected, got := 1, len(m.Arguments); expected != got {
		return 0, errors.Errorf("expected %d argument(s), got %d", expected, got)
	}
	n, err := m.Arguments[0].ReadInt32()
	if err != nil {
		return 0, errors.Wrap(err, "reading int argument")
	}
	return n, nil
}
