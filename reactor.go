// Copyright 2026 Enzo Blain
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package cadentis

// Interest is the kind of readiness a registration waits for.
type Interest uint8

const (
	// InterestRead waits for the descriptor to become readable.
	InterestRead Interest = 1 << iota
	// InterestWrite waits for the descriptor to become writable.
	InterestWrite
)

// String returns a human-readable representation of the interest mask.
func (i Interest) String() string {
	switch i {
	case InterestRead:
		return "read"
	case InterestWrite:
		return "write"
	case InterestRead | InterestWrite:
		return "read|write"
	default:
		return "none"
	}
}

// ioKey identifies one registration slot: at most one waker may be
// outstanding per (descriptor, interest) pair at any time.
type ioKey struct {
	fd       int
	interest Interest
}

// reactor maps armed (descriptor, interest) pairs to the wakers of the
// tasks suspended on them, on top of the platform poller.
//
// Delivery is one-shot: a readiness event fires its waker exactly once and
// removes the registration, so the owning I/O primitive re-registers on
// every retry. This replaces implicit kernel-level edge semantics with an
// explicit, testable re-registration contract.
type reactor struct {
	rt     *Runtime
	poller sysPoller
	table  map[ioKey]*Waker
}

func newReactor(rt *Runtime, p sysPoller) *reactor {
	return &reactor{
		rt:     rt,
		poller: p,
		table:  make(map[ioKey]*Waker),
	}
}

// register arms fd for interest and binds the registration to w. A pair
// that is already registered, or a poller failure, is reported
// synchronously to the caller, never via suspension.
func (r *reactor) register(fd int, interest Interest, w *Waker) error {
	key := ioKey{fd: fd, interest: interest}
	if _, ok := r.table[key]; ok {
		return &RegistrationError{FD: fd, Interest: interest, Cause: ErrInterestBusy}
	}
	if err := r.poller.arm(fd, interest); err != nil {
		return &RegistrationError{FD: fd, Interest: interest, Cause: err}
	}
	r.table[key] = w
	w.task.regs = append(w.task.regs, key)
	r.rt.log.Trace().
		Int("fd", fd).
		Str("interest", interest.String()).
		Uint64("task", w.task.id).
		Log("interest registered")
	return nil
}

// deregister removes the registration for (fd, interest), if any.
func (r *reactor) deregister(fd int, interest Interest) {
	key := ioKey{fd: fd, interest: interest}
	w, ok := r.table[key]
	if !ok {
		return
	}
	delete(r.table, key)
	_ = r.poller.disarm(fd, interest)
	w.task.forgetReg(key)
}

// deregisterFD tears down every registration for a descriptor, waking the
// owning tasks so their next retry observes the descriptor's state instead
// of suspending forever.
func (r *reactor) deregisterFD(fd int) {
	for _, interest := range [...]Interest{InterestRead, InterestWrite} {
		key := ioKey{fd: fd, interest: interest}
		if w, ok := r.table[key]; ok {
			delete(r.table, key)
			_ = r.poller.disarm(fd, interest)
			w.task.forgetReg(key)
			w.Wake()
		}
	}
}

// poll waits for readiness up to timeoutMs (< 0 blocks indefinitely, 0
// polls non-blocking) and fires the wakers of every ready registration.
// Returns the number of wakers fired.
func (r *reactor) poll(timeoutMs int) (int, error) {
	events, err := r.poller.wait(timeoutMs)
	if err != nil {
		return 0, err
	}
	fired := 0
	for _, ev := range events {
		fired += r.dispatch(ev)
	}
	return fired, nil
}

// dispatch fires and removes the registrations a single event satisfies.
// An error or hangup condition fires both interests for the descriptor.
func (r *reactor) dispatch(ev ioEvent) int {
	mask := ev.ready
	if ev.hup || ev.fail {
		mask = InterestRead | InterestWrite
	}
	fired := 0
	for _, interest := range [...]Interest{InterestRead, InterestWrite} {
		if mask&interest == 0 {
			continue
		}
		key := ioKey{fd: ev.fd, interest: interest}
		w, ok := r.table[key]
		if !ok {
			continue
		}
		delete(r.table, key)
		_ = r.poller.disarm(ev.fd, interest)
		w.task.forgetReg(key)
		w.Wake()
		fired++
	}
	return fired
}

// pending returns the number of outstanding registrations.
func (r *reactor) pending() int {
	return len(r.table)
}

func (r *reactor) close() error {
	return r.poller.close()
}
