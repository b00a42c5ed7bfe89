package main

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"go-euclid/midi"
	"go-euclid/trigger"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	var err error
	switch os.Args[1] {
	case "list":
		err = listPorts()
	case "gate":
		err = sendGate(os.Args[2:])
	case "note":
		err = sendNote(os.Args[2:])
	default:
		usage()
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Trigger Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list                      - List all MIDI output ports")
	fmt.Println("  gate [host:port] [count]  - Send one OSC trigger (default 127.0.0.1:8000 0)")
	fmt.Println("  note <port> [note]        - Send one note on a MIDI output port")
}

func listPorts() error {
	fmt.Println("=== MIDI Output Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	names, err := midi.ListPorts(3 * time.Second)
	if err != nil {
		fmt.Println("\nTIMEOUT! CoreMIDI is hung.")
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
		return err
	}
	for i, name := range names {
		fmt.Printf("  %d: %s\n", i, name)
	}
	return nil
}

func sendGate(args []string) error {
	dest := "127.0.0.1:8000"
	counter := 0
	if len(args) > 0 {
		dest = args[0]
	}
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}
		counter = n
	}

	host, portStr, err := net.SplitHostPort(dest)
	if err != nil {
		return err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return err
	}
	addr, err := trigger.Destination(host, port)
	if err != nil {
		return err
	}

	conn, err := trigger.Bind("127.0.0.1", 8000)
	if err != nil {
		return err
	}
	e := trigger.NewEmitter(conn, addr, trigger.DefaultAddress, 0)
	defer e.Close()

	fmt.Printf("Sending %s %d from %s to %s\n", trigger.DefaultAddress, counter, e.LocalAddr(), addr)
	return e.Emit(counter)
}

func sendNote(args []string) error {
	if len(args) < 1 {
		usage()
		return nil
	}
	note := 60
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}
		note = n
	}

	m, err := midi.OpenMirror(args[0], midi.NewGate(1, note, 100))
	if err != nil {
		return err
	}
	defer m.Close()

	fmt.Printf("Sending note %d to %s\n", note, m.Name())
	return m.Emit(0)
}
