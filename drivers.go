package main

// rtmididrv registers the system MIDI backend; packages only see the driver
// the binary links in.
import _ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
