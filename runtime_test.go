package cadentis

import (
	"errors"
	"testing"
	"time"
)

// fakePoller counts wait calls and returns canned events, so scheduling
// properties can be asserted without touching the OS.
type fakePoller struct {
	waits  int
	events []ioEvent
}

func (p *fakePoller) arm(fd int, interest Interest) error    { return nil }
func (p *fakePoller) disarm(fd int, interest Interest) error { return nil }
func (p *fakePoller) close() error                           { return nil }

func (p *fakePoller) wait(timeoutMs int) ([]ioEvent, error) {
	p.waits++
	ev := p.events
	p.events = nil
	return ev, nil
}

// installFakePoller replaces the runtime's OS poller, releasing the real one.
func installFakePoller(rt *Runtime) *fakePoller {
	fp := &fakePoller{}
	_ = rt.reactor.poller.close()
	rt.reactor.poller = fp
	return fp
}

func newTestRuntime(t *testing.T, opts ...Option) *Runtime {
	t.Helper()
	rt, err := New(opts...)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	return rt
}

func TestBlockOnImmediate(t *testing.T) {
	rt := newTestRuntime(t)

	v, err := BlockOn(rt, Ready(42))
	if err != nil {
		t.Fatalf("BlockOn failed: %v", err)
	}
	if v != 42 {
		t.Errorf("got %d, want 42", v)
	}
}

func TestBlockOnImmediateNeverPolls(t *testing.T) {
	rt := newTestRuntime(t, WithIO(true))

	fp := installFakePoller(rt)

	if _, err := BlockOn(rt, Ready("done")); err != nil {
		t.Fatalf("BlockOn failed: %v", err)
	}
	if fp.waits != 0 {
		t.Errorf("immediate completion performed %d poller waits, want 0", fp.waits)
	}
}

func TestBlockOnPropagatesError(t *testing.T) {
	rt := newTestRuntime(t)

	want := errors.New("boom")
	_, err := BlockOn(rt, Fail[int](want))
	if !errors.Is(err, want) {
		t.Errorf("got %v, want %v", err, want)
	}
}

func TestBlockOnStalledWithoutWakeSource(t *testing.T) {
	rt := newTestRuntime(t)

	// Pending forever without arranging a wake source.
	stuck := FutureFunc[int](func(cx *Context) (int, error, bool) {
		return 0, nil, false
	})
	_, err := BlockOn(rt, stuck)
	if !errors.Is(err, ErrStalled) {
		t.Errorf("got %v, want ErrStalled", err)
	}
}

func TestBlockOnReentrant(t *testing.T) {
	rt := newTestRuntime(t)

	inner := FutureFunc[int](func(cx *Context) (int, error, bool) {
		_, err := BlockOn(cx.Runtime(), Ready(1))
		return 0, err, true
	})
	_, err := BlockOn(rt, inner)
	if !errors.Is(err, ErrReentrantBlockOn) {
		t.Errorf("got %v, want ErrReentrantBlockOn", err)
	}
}

func TestSpawnAndAwait(t *testing.T) {
	rt := newTestRuntime(t)

	var h *Handle[int]
	root := FutureFunc[int](func(cx *Context) (int, error, bool) {
		if h == nil {
			h = Spawn(cx.Runtime(), Ready(7))
		}
		return h.Poll(cx)
	})
	v, err := BlockOn(rt, root)
	if err != nil {
		t.Fatalf("BlockOn failed: %v", err)
	}
	if v != 7 {
		t.Errorf("got %d, want 7", v)
	}
}

func TestSpawnRunsWithoutAwait(t *testing.T) {
	rt := newTestRuntime(t)

	ran := false
	bg := FutureFunc[struct{}](func(cx *Context) (struct{}, error, bool) {
		ran = true
		return struct{}{}, nil, true
	})
	spawned := false
	root := FutureFunc[struct{}](func(cx *Context) (struct{}, error, bool) {
		if !spawned {
			spawned = true
			Spawn(cx.Runtime(), bg)
		}
		// Yield once so the background task gets a turn before we resolve.
		if !ran {
			cx.Waker().Wake()
			return struct{}{}, nil, false
		}
		return struct{}{}, nil, true
	})
	if _, err := BlockOn(rt, root); err != nil {
		t.Fatalf("BlockOn failed: %v", err)
	}
	if !ran {
		t.Error("background task never ran")
	}
}

func TestCancelDeliversErrCancelled(t *testing.T) {
	rt := newTestRuntime(t)

	root := FutureFunc[int](func(cx *Context) (int, error, bool) {
		h := Spawn(cx.Runtime(), Sleep(time.Hour))
		h.Cancel()
		_, err, done := h.Poll(cx)
		if !done {
			t.Error("cancelled handle still pending")
		}
		return 0, err, true
	})
	_, err := BlockOn(rt, root)
	if !errors.Is(err, ErrCancelled) {
		t.Errorf("got %v, want ErrCancelled", err)
	}
}

func TestCancelledTaskIgnoresStaleWake(t *testing.T) {
	rt := newTestRuntime(t)

	polls := 0
	var handle *Handle[struct{}]
	root := FutureFunc[struct{}](func(cx *Context) (struct{}, error, bool) {
		if handle == nil {
			handle = Spawn(cx.Runtime(), FutureFunc[struct{}](func(cx *Context) (struct{}, error, bool) {
				polls++
				cx.Waker().Wake()
				return struct{}{}, nil, false
			}))
			// Cancel before its first poll; the pending wake is stale.
			handle.Cancel()
			cx.Waker().Wake()
			return struct{}{}, nil, false
		}
		return struct{}{}, nil, true
	})
	if _, err := BlockOn(rt, root); err != nil {
		t.Fatalf("BlockOn failed: %v", err)
	}
	if polls != 0 {
		t.Errorf("cancelled task was polled %d times, want 0", polls)
	}
	if handle.State() != StateCancelled {
		t.Errorf("state = %v, want %v", handle.State(), StateCancelled)
	}
}

func TestCancelAfterCompletionIsNoop(t *testing.T) {
	rt := newTestRuntime(t)

	var h *Handle[int]
	root := FutureFunc[int](func(cx *Context) (int, error, bool) {
		if h == nil {
			h = Spawn(cx.Runtime(), Ready(3))
		}
		v, err, done := h.Poll(cx)
		if !done {
			return 0, err, false
		}
		h.Cancel()
		v2, err2 := h.Result()
		if v2 != v || err2 != nil {
			t.Errorf("Cancel after completion changed result to (%d, %v)", v2, err2)
		}
		return v, err, true
	})
	v, err := BlockOn(rt, root)
	if err != nil {
		t.Fatalf("BlockOn failed: %v", err)
	}
	if v != 3 {
		t.Errorf("got %d, want 3", v)
	}
}

func TestWakeIsIdempotent(t *testing.T) {
	rt := newTestRuntime(t, WithMetrics(true))

	polls := 0
	root := FutureFunc[struct{}](func(cx *Context) (struct{}, error, bool) {
		polls++
		if polls == 1 {
			// Several wakes before the next poll collapse into one entry.
			cx.Waker().Wake()
			cx.Waker().Wake()
			cx.Waker().Wake()
			return struct{}{}, nil, false
		}
		return struct{}{}, nil, true
	})
	if _, err := BlockOn(rt, root); err != nil {
		t.Fatalf("BlockOn failed: %v", err)
	}
	if polls != 2 {
		t.Errorf("task polled %d times, want 2", polls)
	}
}

func TestReadyQueueFIFO(t *testing.T) {
	rt := newTestRuntime(t)

	var order []int
	mk := func(id int) Future[struct{}] {
		return FutureFunc[struct{}](func(cx *Context) (struct{}, error, bool) {
			order = append(order, id)
			return struct{}{}, nil, true
		})
	}
	spawned := false
	root := FutureFunc[struct{}](func(cx *Context) (struct{}, error, bool) {
		if !spawned {
			spawned = true
			Spawn(cx.Runtime(), mk(1))
			Spawn(cx.Runtime(), mk(2))
			Spawn(cx.Runtime(), mk(3))
			cx.Waker().Wake()
			return struct{}{}, nil, false
		}
		return struct{}{}, nil, len(order) == 3
	})
	if _, err := BlockOn(rt, root); err != nil {
		t.Fatalf("BlockOn failed: %v", err)
	}
	for i, id := range order {
		if id != i+1 {
			t.Fatalf("wake order = %v, want [1 2 3]", order)
		}
	}
}

func TestYield(t *testing.T) {
	rt := newTestRuntime(t)

	var order []string
	spawned := false
	var y *YieldFuture
	root := FutureFunc[struct{}](func(cx *Context) (struct{}, error, bool) {
		if !spawned {
			spawned = true
			y = Yield()
			Spawn(cx.Runtime(), FutureFunc[struct{}](func(cx *Context) (struct{}, error, bool) {
				order = append(order, "other")
				return struct{}{}, nil, true
			}))
		}
		if _, _, done := y.Poll(cx); !done {
			return struct{}{}, nil, false
		}
		order = append(order, "yielder")
		return struct{}{}, nil, true
	})
	if _, err := BlockOn(rt, root); err != nil {
		t.Fatalf("BlockOn failed: %v", err)
	}
	if len(order) != 2 || order[0] != "other" || order[1] != "yielder" {
		t.Errorf("order = %v, want [other yielder]", order)
	}
}

func TestSpawnPanicBecomesError(t *testing.T) {
	rt := newTestRuntime(t)

	var h *Handle[int]
	root := FutureFunc[int](func(cx *Context) (int, error, bool) {
		if h == nil {
			h = Spawn(cx.Runtime(), FutureFunc[int](func(cx *Context) (int, error, bool) {
				panic("kaboom")
			}))
		}
		return h.Poll(cx)
	})
	_, err := BlockOn(rt, root)
	var pe *PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("got %v, want *PanicError", err)
	}
	if pe.Value != "kaboom" {
		t.Errorf("panic value = %v, want kaboom", pe.Value)
	}
}

func TestJoinAll(t *testing.T) {
	rt := newTestRuntime(t)

	var join *JoinAllFuture[int]
	root := FutureFunc[[]int](func(cx *Context) ([]int, error, bool) {
		if join == nil {
			r := cx.Runtime()
			h1 := Spawn(r, Ready(1))
			s := Sleep(time.Millisecond)
			h2 := Spawn(r, FutureFunc[int](func(cx *Context) (int, error, bool) {
				if _, _, done := s.Poll(cx); !done {
					return 0, nil, false
				}
				return 2, nil, true
			}))
			h3 := Spawn(r, Ready(3))
			join = JoinAll(h1, h2, h3)
		}
		return join.Poll(cx)
	})
	vs, err := BlockOn(rt, root)
	if err != nil {
		t.Fatalf("BlockOn failed: %v", err)
	}
	if len(vs) != 3 || vs[0] != 1 || vs[1] != 2 || vs[2] != 3 {
		t.Errorf("got %v, want [1 2 3]", vs)
	}
}

func TestJoinAllCollectsErrors(t *testing.T) {
	rt := newTestRuntime(t)

	want := errors.New("bad")
	var join *JoinAllFuture[int]
	root := FutureFunc[[]int](func(cx *Context) ([]int, error, bool) {
		if join == nil {
			r := cx.Runtime()
			h1 := Spawn(r, Ready(1))
			h2 := Spawn(r, Fail[int](want))
			join = JoinAll(h1, h2)
		}
		return join.Poll(cx)
	})
	_, err := BlockOn(rt, root)
	if !errors.Is(err, want) {
		t.Errorf("got %v, want wrapped %v", err, want)
	}
}

func TestMetricsCounters(t *testing.T) {
	rt := newTestRuntime(t, WithMetrics(true))

	if _, err := BlockOn(rt, Ready(1)); err != nil {
		t.Fatalf("BlockOn failed: %v", err)
	}
	m := rt.Metrics()
	if m.TasksSpawned != 1 {
		t.Errorf("TasksSpawned = %d, want 1", m.TasksSpawned)
	}
	if m.TasksCompleted != 1 {
		t.Errorf("TasksCompleted = %d, want 1", m.TasksCompleted)
	}
	if m.Ticks == 0 {
		t.Error("Ticks = 0, want > 0")
	}
}

func TestMetricsDisabledReturnsZero(t *testing.T) {
	rt := newTestRuntime(t)

	if _, err := BlockOn(rt, Ready(1)); err != nil {
		t.Fatalf("BlockOn failed: %v", err)
	}
	if m := rt.Metrics(); m != (Metrics{}) {
		t.Errorf("metrics without WithMetrics = %+v, want zero", m)
	}
}

func TestTaskStateString(t *testing.T) {
	states := map[TaskState]string{
		StateCreated:   "Created",
		StateScheduled: "Scheduled",
		StateRunning:   "Running",
		StateSuspended: "Suspended",
		StateCompleted: "Completed",
		StateCancelled: "Cancelled",
	}
	for s, want := range states {
		if got := s.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", s, got, want)
		}
	}
}
