package midi

import (
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/testdrv"
)

func TestNewGate(t *testing.T) {
	g := NewGate(10, 36, 100)
	if g.Channel != 9 || g.Note != 36 || g.Velocity != 100 {
		t.Fatalf("unexpected gate %+v", g)
	}
	msgs := g.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected note on and note off, got %d messages", len(msgs))
	}
	var ch, key, vel uint8
	if !msgs[0].GetNoteOn(&ch, &key, &vel) || ch != 9 || key != 36 || vel != 100 {
		t.Fatalf("first message %v is not the note on", msgs[0])
	}
	if !msgs[1].GetNoteOff(&ch, &key, nil) || ch != 9 || key != 36 {
		t.Fatalf("second message %v is not the note off", msgs[1])
	}
}

func TestMirrorEmit(t *testing.T) {
	var sent []gomidi.Message
	m := NewMirror("test", func(msg gomidi.Message) error {
		sent = append(sent, msg)
		return nil
	}, NewGate(1, 60, 90))

	for i := 0; i < 3; i++ {
		if err := m.Emit(i); err != nil {
			t.Fatalf("Emit(%d): %v", i, err)
		}
	}
	if len(sent) != 6 {
		t.Fatalf("sent %d messages, want 6", len(sent))
	}
}

func TestMirrorEmitError(t *testing.T) {
	boom := errors.New("port gone")
	m := NewMirror("test", func(gomidi.Message) error { return boom }, NewGate(1, 60, 90))
	if err := m.Emit(3); errors.Cause(err) != boom {
		t.Fatalf("Emit err = %v, want wrapped port error", err)
	}
}

func TestListPortsTestDriver(t *testing.T) {
	names, err := ListPorts(3 * time.Second)
	if err != nil {
		t.Fatalf("ListPorts: %v", err)
	}
	found := false
	for _, n := range names {
		if n == "testdrv-out" {
			found = true
		}
	}
	if !found {
		t.Fatalf("testdrv-out not listed in %v", names)
	}
}

func TestOpenMirrorLoopback(t *testing.T) {
	in, err := gomidi.FindInPort("testdrv-in")
	if err != nil {
		t.Fatalf("FindInPort: %v", err)
	}

	var (
		mu   sync.Mutex
		recv []gomidi.Message
	)
	stop, err := gomidi.ListenTo(in, func(msg gomidi.Message, _ int32) {
		mu.Lock()
		recv = append(recv, msg)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("ListenTo: %v", err)
	}
	defer stop()

	m, err := OpenMirror("testdrv-out", NewGate(2, 38, 127))
	if err != nil {
		t.Fatalf("OpenMirror: %v", err)
	}
	if err := m.Emit(0); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := len(recv)
		mu.Unlock()
		if n >= 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("received %d messages, want 2", n)
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	var ch, key uint8
	if !recv[0].GetNoteOn(&ch, &key, nil) || ch != 1 || key != 38 {
		t.Fatalf("unexpected first message %v", recv[0])
	}
}

func TestOpenMirrorMissingPort(t *testing.T) {
	if _, err := OpenMirror("no such port", NewGate(1, 60, 100)); err == nil {
		t.Fatal("expected error for unknown port")
	}
}
