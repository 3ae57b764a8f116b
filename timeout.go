// Copyright 2026 Enzo Blain
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package cadentis

import "time"

// TimeoutFuture races an inner computation against a deadline. Whichever
// resolves first wins and the loser is torn down: if the computation wins
// its timer entry is cancelled; if the timer wins the computation is dropped
// and every wake source it arranged is deregistered. Sources the host task
// holds on behalf of other futures are untouched.
type TimeoutFuture[T any] struct {
	inner       Future[T]
	entry       *timerEntry
	innerTimers []*timerEntry
	innerRegs   []ioKey
	d           time.Duration
}

// Timeout wraps f with a deadline of d from the first poll. The result
// distinguishes completion from expiry: a timed-out future resolves with
// ErrTimedOut.
func Timeout[T any](d time.Duration, f Future[T]) *TimeoutFuture[T] {
	return &TimeoutFuture[T]{inner: f, d: d}
}

// Poll implements Future.
func (t *TimeoutFuture[T]) Poll(cx *Context) (T, error, bool) {
	var zero T
	if t.entry != nil && t.entry.fired {
		// Deadline elapsed first. Drop the loser: the inner computation is
		// never polled again, and its registrations and timer entries must
		// not wake this task later.
		t.dropInner(cx)
		return zero, ErrTimedOut, true
	}
	if t.inner == nil {
		return zero, ErrTimedOut, true
	}
	v, err, done := t.pollInner(cx)
	if done {
		if t.entry != nil {
			t.entry.cancel()
		}
		return v, err, true
	}
	if t.entry == nil {
		rt := cx.Runtime()
		t.entry = rt.timers.schedule(rt.now().Add(t.d), cx.Waker())
		if m := rt.metrics; m != nil {
			m.TimersScheduled++
		}
	}
	return zero, nil, false
}

// pollInner advances the inner computation and records the wake sources it
// arranged during the poll, so expiry can tear down exactly those. During a
// poll the task's source slices only grow (removal happens in loop dispatch,
// never mid-poll), so the tail past the pre-poll length is the inner's.
func (t *TimeoutFuture[T]) pollInner(cx *Context) (T, error, bool) {
	timersBefore := len(cx.task.timers)
	regsBefore := len(cx.task.regs)
	v, err, done := t.inner.Poll(cx)
	t.innerTimers = append(t.innerTimers, cx.task.timers[timersBefore:]...)
	t.innerRegs = append(t.innerRegs, cx.task.regs[regsBefore:]...)
	return v, err, done
}

// dropInner tears down the losing computation's wake sources, and only
// those; a sibling future polled by the same task keeps its entries and
// registrations.
func (t *TimeoutFuture[T]) dropInner(cx *Context) {
	t.inner = nil
	rt := cx.Runtime()
	for _, e := range t.innerTimers {
		e.cancel()
		cx.task.forgetTimer(e)
	}
	t.innerTimers = nil
	if rt.reactor != nil {
		for _, key := range t.innerRegs {
			// The key may have fired and been re-claimed since it was
			// recorded; only tear down a registration this task still owns.
			if w, ok := rt.reactor.table[key]; ok && w.task == cx.task {
				rt.reactor.deregister(key.fd, key.interest)
			}
		}
	}
	t.innerRegs = nil
}
