//go:build linux

package realtime

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// promotedFlags are set on promotion and must survive the restore:
// unprivileged threads may not clear reset-on-fork once it is set.
const promotedFlags = unix.SCHED_FLAG_RESET_ON_FORK

func promote(p Params) (*Handle, error) {
	tid := unix.Gettid()

	prev, err := unix.SchedGetAttr(tid, 0)
	if err != nil {
		return nil, errors.Wrap(err, "sched_getattr")
	}

	attr := &unix.SchedAttr{
		Policy:   unix.SCHED_RR,
		Flags:    promotedFlags,
		Priority: uint32(p.Priority),
	}
	if err := unix.SchedSetAttr(tid, attr, 0); err != nil {
		if errors.Is(err, unix.EPERM) {
			var lim unix.Rlimit
			if unix.Getrlimit(unix.RLIMIT_RTPRIO, &lim) == nil {
				return nil, errors.Wrapf(err, "sched_setattr SCHED_RR priority %d (RLIMIT_RTPRIO %d)", p.Priority, lim.Cur)
			}
		}
		return nil, errors.Wrapf(err, "sched_setattr SCHED_RR priority %d", p.Priority)
	}

	back := restoreAttr(prev)
	return &Handle{
		params: p,
		tid:    tid,
		restore: func() error {
			return unix.SchedSetAttr(tid, back, 0)
		},
	}, nil
}

// restoreAttr returns the attributes to write back on release: the
// previous policy and priority with the promotion flags kept.
func restoreAttr(prev *unix.SchedAttr) *unix.SchedAttr {
	back := *prev
	back.Flags |= promotedFlags
	return &back
}
