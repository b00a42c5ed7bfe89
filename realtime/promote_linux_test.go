//go:build linux

package realtime

import (
	"testing"

	"golang.org/x/sys/unix"
)

func TestRestoreAttrKeepsResetOnFork(t *testing.T) {
	prev := &unix.SchedAttr{
		Size:   unix.SizeofSchedAttr,
		Policy: unix.SCHED_NORMAL,
		Nice:   5,
	}

	back := restoreAttr(prev)
	if back.Flags&unix.SCHED_FLAG_RESET_ON_FORK == 0 {
		t.Fatalf("restore flags %#x drop reset-on-fork", back.Flags)
	}
	if back.Policy != unix.SCHED_NORMAL || back.Nice != 5 || back.Priority != 0 {
		t.Fatalf("restore attr %+v does not match previous policy", back)
	}
	if prev.Flags != 0 {
		t.Fatal("previous attributes were modified")
	}
}
