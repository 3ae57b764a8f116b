// Copyright 2026 Enzo Blain
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package cadentis

import (
	"math"
	"time"

	"github.com/joeycumines/logiface"
)

// Runtime is a single-threaded task executor. All tasks spawned on it run
// interleaved on the goroutine that calls BlockOn; nothing in the runtime
// is safe for concurrent use from other goroutines.
//
// The zero Runtime is not usable; construct with New.
type Runtime struct {
	log        *logiface.Logger[logiface.Event]
	ready      *readyQueue
	timers     *timerDriver
	reactor    *reactor // nil unless I/O was enabled
	metrics    *Metrics // nil unless metrics were enabled
	tickNow    time.Time
	nextTaskID uint64
	fsEnabled  bool
	running    bool
}

// New constructs a Runtime. I/O and filesystem support are opt-in; without
// WithIO the runtime carries no OS poller and suspending I/O operations
// fail with ErrIODisabled.
func New(opts ...Option) (*Runtime, error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	rt := &Runtime{
		log:       cfg.logger,
		ready:     newReadyQueue(),
		timers:    &timerDriver{},
		fsEnabled: cfg.enableFS,
	}
	if cfg.metricsEnabled {
		rt.metrics = &Metrics{}
	}
	if cfg.enableIO {
		p, err := newSysPoller()
		if err != nil {
			return nil, err
		}
		rt.reactor = newReactor(rt, p)
	}
	rt.log.Debug().
		Bool("io", cfg.enableIO).
		Bool("fs", cfg.enableFS).
		Log("runtime created")
	return rt, nil
}

// Close releases the runtime's OS resources. Pending tasks are abandoned;
// Close does not run or cancel them.
func (rt *Runtime) Close() error {
	if rt.reactor == nil {
		return nil
	}
	return rt.reactor.close()
}

// newTask allocates a task with its waker bound.
func (rt *Runtime) newTask() *task {
	rt.nextTaskID++
	t := &task{
		rt:    rt,
		id:    rt.nextTaskID,
		state: StateCreated,
	}
	t.waker = &Waker{task: t}
	return t
}

// now returns the loop's cached notion of the current time. It is refreshed
// once per tick so every task polled in the same iteration observes an
// identical timestamp; outside BlockOn it falls back to the wall clock.
func (rt *Runtime) now() time.Time {
	if rt.tickNow.IsZero() {
		return time.Now()
	}
	return rt.tickNow
}

// dropWakeSources tears down every outstanding wake source of t: its timer
// entries are cancelled and its reactor registrations removed. Called on
// completion and cancellation so nothing fires into a terminal task, and on
// timeout expiry so a losing computation cannot keep the loop awake.
func (rt *Runtime) dropWakeSources(t *task) {
	for _, e := range t.timers {
		e.cancel()
	}
	t.timers = nil
	regs := t.regs
	t.regs = nil
	if rt.reactor != nil {
		for _, key := range regs {
			rt.reactor.deregister(key.fd, key.interest)
		}
	}
}

// BlockOn drives f to completion on the calling goroutine, running any
// other spawned tasks interleaved, and returns its result.
//
// Each loop iteration fires due timers, drains the tasks that were ready at
// the start of the pass in FIFO order, then parks: on the OS poller when
// registrations are outstanding, bounded by the nearest timer deadline, or
// on a plain sleep until that deadline when none are. A computation that
// resolves on its first poll therefore returns without a single poller
// call. If f is pending while no timer and no registration exists anywhere,
// no wake can ever arrive and BlockOn fails with ErrStalled.
//
// BlockOn must not be nested; a call from inside a poll returns
// ErrReentrantBlockOn.
func BlockOn[T any](rt *Runtime, f Future[T]) (T, error) {
	var zero T
	if rt.running {
		return zero, ErrReentrantBlockOn
	}
	rt.running = true
	defer func() {
		rt.running = false
		rt.tickNow = time.Time{}
	}()

	root := Spawn(rt, f)
	for {
		rt.tickNow = time.Now()
		if m := rt.metrics; m != nil {
			m.Ticks++
		}

		fired := rt.timers.fire(rt.tickNow)
		if m := rt.metrics; m != nil {
			m.TimersFired += uint64(fired)
		}

		// Drain only the tasks ready at the start of this pass; tasks they
		// wake run next tick, keeping wake order fair.
		for n := rt.ready.len(); n > 0; n-- {
			t, ok := rt.ready.pop()
			if !ok {
				break
			}
			t.queued = false
			if t.state.terminal() {
				continue
			}
			t.poll()
		}

		if root.done {
			return root.value, root.err
		}
		if rt.ready.len() > 0 {
			continue
		}
		if err := rt.park(); err != nil {
			return zero, err
		}
	}
}

// park suspends the loop until the next wake source can fire. Reports
// ErrStalled when no source exists.
func (rt *Runtime) park() error {
	deadline, hasTimer := rt.timers.next()

	if rt.reactor == nil || rt.reactor.pending() == 0 {
		if !hasTimer {
			return ErrStalled
		}
		if d := deadline.Sub(time.Now()); d > 0 {
			time.Sleep(d)
		}
		return nil
	}

	timeoutMs := -1
	if hasTimer {
		timeoutMs = pollTimeout(deadline.Sub(time.Now()))
	}
	if m := rt.metrics; m != nil {
		m.ReactorPolls++
	}
	fired, err := rt.reactor.poll(timeoutMs)
	if err != nil {
		return err
	}
	rt.log.Trace().
		Int("fired", fired).
		Log("reactor poll returned")
	return nil
}

// pollTimeout converts a duration until the nearest deadline into a poller
// timeout in milliseconds. A deadline already due polls non-blocking, and a
// sub-millisecond remainder rounds up so the poller cannot return before
// the deadline and spin. The result is clamped to a 32-bit C int, the
// kernel's epoll_wait timeout type; a farther deadline just wakes early and
// parks again.
func pollTimeout(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	ms := d.Milliseconds()
	if d%time.Millisecond != 0 {
		ms++
	}
	if ms > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(ms)
}
