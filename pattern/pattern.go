package pattern

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalid is returned when a pattern cannot be generated from its parameters
var ErrInvalid = errors.New("invalid pattern parameters")

// Pattern is a fixed-length sequence of gate steps.
// The zero value is an empty pattern; use Generate or New.
type Pattern struct {
	steps  []bool
	pulses int
}

// New creates a pattern from explicit steps (the slice is copied)
func New(steps []bool) Pattern {
	p := Pattern{steps: make([]bool, len(steps))}
	copy(p.steps, steps)
	for _, s := range p.steps {
		if s {
			p.pulses++
		}
	}
	return p
}

// Generate distributes pulses as evenly as possible over length steps
func Generate(length, pulses int) (Pattern, error) {
	if length <= 0 {
		return Pattern{}, errors.Wrapf(ErrInvalid, "length %d must be positive", length)
	}
	if pulses < 0 || pulses > length {
		return Pattern{}, errors.Wrapf(ErrInvalid, "pulses %d out of range 0..%d", pulses, length)
	}
	return Pattern{steps: bjorklund(length, pulses), pulses: pulses}, nil
}

// Len returns the number of steps
func (p Pattern) Len() int {
	return len(p.steps)
}

// Pulses returns the number of active steps
func (p Pattern) Pulses() int {
	return p.pulses
}

// Active reports whether step i is a gate. Out of range indices are never active.
func (p Pattern) Active(i int) bool {
	if i < 0 || i >= len(p.steps) {
		return false
	}
	return p.steps[i]
}

// Steps returns a copy of the steps
func (p Pattern) Steps() []bool {
	out := make([]bool, len(p.steps))
	copy(out, p.steps)
	return out
}

// String renders the pattern as x (gate) and . (rest)
func (p Pattern) String() string {
	var b strings.Builder
	for _, s := range p.steps {
		if s {
			b.WriteByte('x')
		} else {
			b.WriteByte('.')
		}
	}
	return b.String()
}

// bjorklund pairs gate groups with rest groups until at most one
// remainder group is left, then flattens the groups in order.
func bjorklund(length, pulses int) []bool {
	steps := make([]bool, 0, length)
	if pulses == 0 {
		return append(steps, make([]bool, length)...)
	}

	heads := make([][]bool, pulses)
	for i := range heads {
		heads[i] = []bool{true}
	}
	tails := make([][]bool, length-pulses)
	for i := range tails {
		tails[i] = []bool{false}
	}

	for len(tails) > 1 {
		n := min(len(heads), len(tails))
		paired := make([][]bool, n)
		for i := 0; i < n; i++ {
			paired[i] = append(append([]bool{}, heads[i]...), tails[i]...)
		}
		if len(heads) > n {
			tails = heads[n:]
		} else {
			tails = tails[n:]
		}
		heads = paired
	}

	for _, g := range heads {
		steps = append(steps, g...)
	}
	for _, g := range tails {
		steps = append(steps, g...)
	}
	return steps
}
