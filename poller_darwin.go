// Copyright 2026 Enzo Blain
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

//go:build darwin

package cadentis

import "golang.org/x/sys/unix"

// kqueuePoller implements sysPoller using kqueue. Read and write interests
// map to separate EVFILT_READ/EVFILT_WRITE registrations; one-shot
// semantics come from the reactor disarming an interest as soon as it
// fires.
type kqueuePoller struct {
	armed    map[int]Interest
	eventBuf [128]unix.Kevent_t
	kq       int
	closed   bool
}

func newSysPoller() (sysPoller, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, err
	}
	unix.CloseOnExec(kq)
	return &kqueuePoller{
		kq:    kq,
		armed: make(map[int]Interest),
	}, nil
}

func (p *kqueuePoller) arm(fd int, interest Interest) error {
	if p.closed {
		return ErrPollerClosed
	}
	old := p.armed[fd]
	add := interest &^ old
	if add == 0 {
		return nil
	}
	changes := make([]unix.Kevent_t, 0, 2)
	if add&InterestRead != 0 {
		changes = append(changes, unix.Kevent_t{
			Ident:  uint64(fd),
			Filter: unix.EVFILT_READ,
			Flags:  unix.EV_ADD | unix.EV_ENABLE,
		})
	}
	if add&InterestWrite != 0 {
		changes = append(changes, unix.Kevent_t{
			Ident:  uint64(fd),
			Filter: unix.EVFILT_WRITE,
			Flags:  unix.EV_ADD | unix.EV_ENABLE,
		})
	}
	if _, err := unix.Kevent(p.kq, changes, nil, nil); err != nil {
		return err
	}
	p.armed[fd] = old | interest
	return nil
}

func (p *kqueuePoller) disarm(fd int, interest Interest) error {
	if p.closed {
		return ErrPollerClosed
	}
	old, ok := p.armed[fd]
	if !ok {
		return nil
	}
	remove := interest & old
	if remove == 0 {
		return nil
	}
	changes := make([]unix.Kevent_t, 0, 2)
	if remove&InterestRead != 0 {
		changes = append(changes, unix.Kevent_t{
			Ident:  uint64(fd),
			Filter: unix.EVFILT_READ,
			Flags:  unix.EV_DELETE,
		})
	}
	if remove&InterestWrite != 0 {
		changes = append(changes, unix.Kevent_t{
			Ident:  uint64(fd),
			Filter: unix.EVFILT_WRITE,
			Flags:  unix.EV_DELETE,
		})
	}
	// ENOENT here means the kernel already dropped the filter (e.g. the
	// descriptor was closed); the bookkeeping below still applies.
	if _, err := unix.Kevent(p.kq, changes, nil, nil); err != nil && err != unix.ENOENT && err != unix.EBADF {
		return err
	}
	mask := old &^ interest
	if mask == 0 {
		delete(p.armed, fd)
	} else {
		p.armed[fd] = mask
	}
	return nil
}

func (p *kqueuePoller) wait(timeoutMs int) ([]ioEvent, error) {
	if p.closed {
		return nil, ErrPollerClosed
	}
	var ts *unix.Timespec
	if timeoutMs >= 0 {
		t := unix.NsecToTimespec(int64(timeoutMs) * 1e6)
		ts = &t
	}
	n, err := unix.Kevent(p.kq, nil, p.eventBuf[:], ts)
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
		ev := ioEvent{fd: int(raw.Ident)}
		switch raw.Filter {
		case unix.EVFILT_READ:
			ev.ready = InterestRead
		case unix.EVFILT_WRITE:
			ev.ready = InterestWrite
		default:
			continue
		}
		if raw.Flags&unix.EV_EOF != 0 {
			ev.hup = true
		}
		if raw.Flags&unix.EV_ERROR != 0 {
			ev.fail = true
		}
		events = append(events, ev)
	}
	return events, nil
}

func (p *kqueuePoller) close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	return unix.Close(p.kq)
}
