// Copyright 2026 Enzo Blain
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

//go:build linux

package cadentis

import "golang.org/x/sys/unix"

// epollPoller implements sysPoller using epoll. Registrations are
// level-triggered; one-shot semantics come from the reactor disarming an
// interest as soon as it fires, so edge-triggered spurious-wake handling is
// never needed.
type epollPoller struct {
	armed    map[int]Interest
	eventBuf [128]unix.EpollEvent
	epfd     int
	closed   bool
}

func newSysPoller() (sysPoller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &epollPoller{
		epfd:  epfd,
		armed: make(map[int]Interest),
	}, nil
}

func (p *epollPoller) arm(fd int, interest Interest) error {
	if p.closed {
		return ErrPollerClosed
	}
	old := p.armed[fd]
	mask := old | interest
	if mask == old {
		return nil
	}
	ev := &unix.EpollEvent{
		Events: interestToEpoll(mask),
		Fd:     int32(fd),
	}
	op := unix.EPOLL_CTL_MOD
	if old == 0 {
		op = unix.EPOLL_CTL_ADD
	}
	if err := unix.EpollCtl(p.epfd, op, fd, ev); err != nil {
		return err
	}
	p.armed[fd] = mask
	return nil
}

func (p *epollPoller) disarm(fd int, interest Interest) error {
	if p.closed {
		return ErrPollerClosed
	}
	old, ok := p.armed[fd]
	if !ok || old&interest == 0 {
		return nil
	}
	mask := old &^ interest
	if mask == 0 {
		delete(p.armed, fd)
		return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
	}
	ev := &unix.EpollEvent{
		Events: interestToEpoll(mask),
		Fd:     int32(fd),
	}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, ev); err != nil {
		return err
	}
	p.armed[fd] = mask
	return nil
}

func (p *epollPoller) wait(timeoutMs int) ([]ioEvent, error) {
	if p.closed {
		return nil, ErrPollerClosed
	}
	n, err := unix.EpollWait(p.epfd, p.eventBuf[:], timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	events := make([]ioEvent, 0, n)
	for i := 0; i < n; i++ {
		raw := p.eventBuf[i]
		ev := ioEvent{fd: int(raw.Fd)}
		if raw.Events&unix.EPOLLIN != 0 {
			ev.ready |= InterestRead
		}
		if raw.Events&unix.EPOLLOUT != 0 {
			ev.ready |= InterestWrite
		}
		if raw.Events&(unix.EPOLLHUP|unix.EPOLLRDHUP) != 0 {
			ev.hup = true
		}
		if raw.Events&unix.EPOLLERR != 0 {
			ev.fail = true
		}
		events = append(events, ev)
	}
	return events, nil
}

func (p *epollPoller) close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	return unix.Close(p.epfd)
}

// interestToEpoll converts an interest mask to epoll event flags.
func interestToEpoll(interest Interest) uint32 {
	var events uint32
	if interest&InterestRead != 0 {
		events |= unix.EPOLLIN
	}
	if interest&InterestWrite != 0 {
		events |= unix.EPOLLOUT
	}
	return events
}
