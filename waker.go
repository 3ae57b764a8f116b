// Copyright 2026 Enzo Blain
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package cadentis

// Waker is a handle bound to exactly one task. Invoking it marks the task
// eligible to run again.
//
// A Waker is not safe for use from other goroutines; the runtime is
// strictly single-threaded and wakes originate from reactor dispatch or
// timer expiry on the loop goroutine.
type Waker struct {
	task *task
}

// Wake enqueues the bound task into the ready queue.
//
// Wake is idempotent: multiple fires before the task's next poll collapse
// into a single ready-queue entry via the task's queued flag. A wake
// delivered for a completed or cancelled task is stale and ignored.
func (w *Waker) Wake() {
	t := w.task
	if t.state.terminal() {
		return
	}
	if t.queued {
		return
	}
	t.queued = true
	if t.state != StateRunning {
		t.state = StateScheduled
	}
	t.rt.ready.push(t)
	if m := t.rt.metrics; m != nil {
		m.Wakes++
	}
}

// Context carries the state a future needs while being polled: the runtime
// handle, for reaching the reactor and timer heap, and the waker of the task
// being advanced. It is resolved once at BlockOn entry and threaded through
// every poll, confining the runtime to the loop goroutine by construction.
type Context struct {
	rt   *Runtime
	task *task
}

// Waker returns the waker of the task currently being polled.
func (cx *Context) Waker() *Waker {
	return cx.task.waker
}

// Runtime returns the runtime driving the current poll, so nested Spawn and
// suspension calls can reach the active ready queue, reactor, and timer heap
// without explicit threading.
func (cx *Context) Runtime() *Runtime {
	return cx.rt
}

// registerIO arms a one-shot readiness registration for the current task.
//
// If the pair is already registered to this task's waker the registration is
// still armed from an earlier retry and the call is a no-op, preserving the
// at-most-one-registration invariant. A pair held by a different task is a
// genuine conflict and fails synchronously.
func (cx *Context) registerIO(fd int, interest Interest) error {
	r := cx.rt.reactor
	if r == nil {
		return ErrIODisabled
	}
	key := ioKey{fd: fd, interest: interest}
	if w, ok := r.table[key]; ok {
		if w == cx.task.waker {
			return nil
		}
		return &RegistrationError{FD: fd, Interest: interest, Cause: ErrInterestBusy}
	}
	return r.register(fd, interest, cx.task.waker)
}
