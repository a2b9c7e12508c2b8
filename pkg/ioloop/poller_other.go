//go:build !linux

package ioloop

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// selectPoller is a portable fallback for non-Linux development builds.
// It does not give the constant-time behavior epoll gives on Linux, but
// it preserves the same level-triggered readiness contract so ioloop.go
// never has to know which platform it's running on.
type selectPoller struct {
	mu    sync.Mutex
	write map[int]bool
}

func newPoller() (poller, error) {
	return &selectPoller{write: make(map[int]bool)}, nil
}

func (p *selectPoller) add(fd int, wantWrite bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.write[fd] = wantWrite
	return nil
}

func (p *selectPoller) modify(fd int, wantWrite bool) error {
	return p.add(fd, wantWrite)
}

func (p *selectPoller) remove(fd int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.write, fd)
}

func (p *selectPoller) wait(timeout time.Duration) ([]readiness, error) {
	p.mu.Lock()
	fds := make([]int, 0, len(p.write))
	wantWrite := make(map[int]bool, len(p.write))
	for fd, ww := range p.write {
		fds = append(fds, fd)
		wantWrite[fd] = ww
	}
	p.mu.Unlock()

	if len(fds) == 0 {
		time.Sleep(timeout)
		return nil, nil
	}

	var rset, wset unix.FdSet
	maxfd := 0
	for _, fd := range fds {
		fdSet(&rset, fd)
		if wantWrite[fd] {
			fdSet(&wset, fd)
		}
		if fd > maxfd {
			maxfd = fd
		}
	}

	tv := unix.NsecToTimeval(int64(timeout))
	n, err := unix.Select(maxfd+1, &rset, &wset, nil, &tv)
	if err == unix.EINTR {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ioloop: select: %w", err)
	}
	if n == 0 {
		return nil, nil
	}

	out := make([]readiness, 0, n)
	for _, fd := range fds {
		r := fdIsSet(&rset, fd)
		w := wantWrite[fd] && fdIsSet(&wset, fd)
		if r || w {
			out = append(out, readiness{fd: fd, readable: r, writable: w})
		}
	}
	return out, nil
}

func (p *selectPoller) close() error {
	return nil
}

func fdSet(set *unix.FdSet, fd int) {
	set.Bits[fd/64] |= 1 << (uint(fd) % 64)
}

func fdIsSet(set *unix.FdSet, fd int) bool {
	return set.Bits[fd/64]&(1<<(uint(fd)%64)) != 0
}
