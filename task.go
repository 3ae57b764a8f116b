// Copyright 2026 Enzo Blain
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package cadentis

// task is a unit of scheduling: the boxed resumable computation plus the
// bookkeeping of its wake sources. The concrete result type is erased here;
// it lives in the Handle the step closure captures.
type task struct {
	rt     *Runtime
	step   func(cx *Context) bool // polls the computation once; true when resolved
	waker  *Waker
	regs   []ioKey       // outstanding reactor registrations
	timers []*timerEntry // outstanding timer entries
	id     uint64
	state  TaskState
	queued bool // already present in the ready queue
}

// poll advances the task's computation by one step and applies the
// resulting state transition.
func (t *task) poll() {
	if t.state.terminal() || t.step == nil {
		return
	}
	t.state = StateRunning
	cx := &Context{rt: t.rt, task: t}
	done := t.step(cx)
	if m := t.rt.metrics; m != nil {
		m.TaskPolls++
	}
	switch {
	case done:
		t.state = StateCompleted
		t.step = nil
		// Leftover sources (e.g. a combinator branch that lost a race)
		// must not fire into a finished task.
		t.rt.dropWakeSources(t)
		if m := t.rt.metrics; m != nil {
			m.TasksCompleted++
		}
	case t.queued:
		// Woken during its own poll, e.g. by Yield.
		t.state = StateScheduled
	default:
		t.state = StateSuspended
	}
}

// forgetReg removes a consumed registration from the task's bookkeeping.
func (t *task) forgetReg(key ioKey) {
	for i, k := range t.regs {
		if k == key {
			t.regs = append(t.regs[:i], t.regs[i+1:]...)
			return
		}
	}
}

// forgetTimer removes a fired timer entry from the task's bookkeeping.
func (t *task) forgetTimer(e *timerEntry) {
	for i, entry := range t.timers {
		if entry == e {
			t.timers = append(t.timers[:i], t.timers[i+1:]...)
			return
		}
	}
}

// Handle is the awaitable side of a spawned task. It is itself a Future,
// resolving to the background task's eventual result, or to ErrCancelled if
// the task was cancelled first, so both fire-and-forget and await-the-result
// are supported from the same primitive.
type Handle[T any] struct {
	task    *task
	err     error
	waiters []*Waker
	value   T
	done    bool
}

// Poll implements Future. A pending poll records the calling task's waker;
// completion of the background task is the wake source.
func (h *Handle[T]) Poll(cx *Context) (T, error, bool) {
	if h.done {
		return h.value, h.err, true
	}
	w := cx.Waker()
	for _, existing := range h.waiters {
		if existing == w {
			var zero T
			return zero, nil, false
		}
	}
	h.waiters = append(h.waiters, w)
	var zero T
	return zero, nil, false
}

// Done reports whether the background task has resolved or been cancelled.
func (h *Handle[T]) Done() bool {
	return h.done
}

// Result returns the outcome. It is only meaningful once Done reports true.
func (h *Handle[T]) Result() (T, error) {
	return h.value, h.err
}

// State returns the current lifecycle state of the background task.
func (h *Handle[T]) State() TaskState {
	return h.task.state
}

// Cancel tears the background task down before completion. Its outstanding
// reactor registrations and timer entries are deregistered immediately, any
// later wake for it is ignored, and awaiters of the handle observe
// ErrCancelled. Cancelling a resolved task is a no-op.
func (h *Handle[T]) Cancel() {
	if h.done {
		return
	}
	t := h.task
	t.state = StateCancelled
	t.step = nil
	t.rt.dropWakeSources(t)
	h.err = ErrCancelled
	h.done = true
	h.wakeWaiters()
	if m := t.rt.metrics; m != nil {
		m.TasksCancelled++
	}
	t.rt.log.Debug().
		Uint64("task", t.id).
		Log("task cancelled")
}

func (h *Handle[T]) complete(value T, err error) {
	h.value = value
	h.err = err
	h.done = true
	h.wakeWaiters()
}

func (h *Handle[T]) wakeWaiters() {
	waiters := h.waiters
	h.waiters = nil
	for _, w := range waiters {
		w.Wake()
	}
}

// Spawn schedules f as a background task on rt and returns its handle.
//
// Inside a poll, reach the runtime via Context.Runtime. Spawn must be called
// from the loop goroutine; cross-goroutine submission is not supported.
func Spawn[T any](rt *Runtime, f Future[T]) *Handle[T] {
	t := rt.newTask()
	h := &Handle[T]{task: t}
	t.step = func(cx *Context) (done bool) {
		defer func() {
			if r := recover(); r != nil {
				rt.log.Err().
					Uint64("task", t.id).
					Err(&PanicError{Value: r}).
					Log("task panicked")
				h.complete(h.value, &PanicError{Value: r})
				done = true
			}
		}()
		v, err, d := f.Poll(cx)
		if !d {
			return false
		}
		h.complete(v, err)
		return true
	}
	if m := rt.metrics; m != nil {
		m.TasksSpawned++
	}
	rt.log.Trace().
		Uint64("task", t.id).
		Log("task spawned")
	t.waker.Wake()
	return h
}

// JoinAllFuture awaits a set of handles of the same result type.
type JoinAllFuture[T any] struct {
	handles []*Handle[T]
}

// JoinAll returns a future that resolves once every handle has resolved,
// yielding the results in input order. Individual task errors (including
// cancellations) are joined into the future's error; they are never
// silently dropped.
func JoinAll[T any](handles ...*Handle[T]) *JoinAllFuture[T] {
	return &JoinAllFuture[T]{handles: handles}
}

// Poll implements Future.
func (j *JoinAllFuture[T]) Poll(cx *Context) ([]T, error, bool) {
	for _, h := range j.handles {
		if !h.done {
			// Pending handles record our waker; each is a wake source and
			// the last one to resolve completes the join.
			_, _, _ = h.Poll(cx)
		}
	}
	for _, h := range j.handles {
		if !h.done {
			return nil, nil, false
		}
	}
	values := make([]T, len(j.handles))
	var errs []error
	for i, h := range j.handles {
		v, err := h.Result()
		values[i] = v
		if err != nil {
			errs = append(errs, err)
		}
	}
	return values, joinErrors(errs), true
}
