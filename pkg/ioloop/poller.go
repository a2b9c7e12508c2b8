package ioloop

import "time"

// readiness is the set of directions a descriptor became ready for.
type readiness struct {
	fd       int
	readable bool
	writable bool
}

// poller is the level-triggered readiness primitive the Loop drives
// (spec.md §4.C: "one readiness primitive (level-triggered)"). poller_linux.go
// backs this with epoll, the way the teacher's pkg/wal/mmap.go reaches for
// golang.org/x/sys/unix syscall wrappers directly instead of a third-party
// abstraction; poller_other.go is a portable fallback for non-Linux
// development builds.
type poller interface {
	// add registers fd for read readiness, and for write readiness too
	// when wantWrite is true.
	add(fd int, wantWrite bool) error
	// modify updates fd's registered interest set.
	modify(fd int, wantWrite bool) error
	// remove deregisters fd. Safe to call even if fd was never added.
	remove(fd int)
	// wait blocks up to timeout for at least one ready descriptor,
	// returning the set that became ready. A zero-length, nil-error
	// result means the wait timed out with nothing ready.
	wait(timeout time.Duration) ([]readiness, error)
	// close releases the underlying OS resource.
	close() error
}
