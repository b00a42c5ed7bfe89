package midi

import (
	gomidi "gitlab.com/gomidi/midi/v2"
)

// Gate is the note a trigger is mirrored as
type Gate struct {
	Channel  uint8 // 0-15 on the wire
	Note     uint8
	Velocity uint8
}

// NewGate builds a gate from a 1-16 channel number
func NewGate(channel, note, velocity int) Gate {
	return Gate{
		Channel:  uint8(channel-1) & 0x0f,
		Note:     uint8(note) & 0x7f,
		Velocity: uint8(velocity) & 0x7f,
	}
}

// Messages returns the note on / note off pair for one trigger
func (g Gate) Messages() []gomidi.Message {
	return []gomidi.Message{
		gomidi.NoteOn(g.Channel, g.Note, g.Velocity),
		gomidi.NoteOff(g.Channel, g.Note),
	}
}
