package cadentis

import (
	"errors"
	"testing"
	"time"
)

func TestTimeoutInnerWins(t *testing.T) {
	rt := newTestRuntime(t)

	start := time.Now()
	v, err := BlockOn[int](rt, Timeout[int](time.Hour, FutureFunc[int](func(cx *Context) (int, error, bool) {
		return 99, nil, true
	})))
	if err != nil {
		t.Fatalf("BlockOn failed: %v", err)
	}
	if v != 99 {
		t.Errorf("got %d, want 99", v)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("took %v, inner completion should not wait for the deadline", elapsed)
	}
	// The deadline entry must be dead or BlockOn's park would have seen it.
	if n := rt.timers.pending(); n != 0 {
		t.Errorf("live timers after inner win = %d, want 0", n)
	}
}

func TestTimeoutExpires(t *testing.T) {
	rt := newTestRuntime(t)

	inner := Sleep(time.Hour)
	_, err := BlockOn[struct{}](rt, Timeout[struct{}](10*time.Millisecond, inner))
	if !errors.Is(err, ErrTimedOut) {
		t.Fatalf("got %v, want ErrTimedOut", err)
	}
	// The losing sleep's timer must have been torn down with the task.
	if n := rt.timers.pending(); n != 0 {
		t.Errorf("live timers after expiry = %d, want 0", n)
	}
}

func TestTimeoutExpiryLeavesSiblingSources(t *testing.T) {
	rt := newTestRuntime(t)

	// One task polls a timeout and an unrelated sleep side by side. Expiry
	// must tear down only the losing computation's sources; the sibling
	// sleep keeps its timer entry and resolves on its own schedule.
	const siblingDelay = 50 * time.Millisecond
	to := Timeout[struct{}](10*time.Millisecond, Sleep(time.Hour))
	sibling := Sleep(siblingDelay)
	timedOut := false
	root := FutureFunc[struct{}](func(cx *Context) (struct{}, error, bool) {
		if !timedOut {
			if _, err, done := to.Poll(cx); done {
				if !errors.Is(err, ErrTimedOut) {
					t.Errorf("timeout resolved with %v, want ErrTimedOut", err)
				}
				timedOut = true
			}
		}
		if _, _, done := sibling.Poll(cx); !done {
			return struct{}{}, nil, false
		}
		return struct{}{}, nil, true
	})
	start := time.Now()
	if _, err := BlockOn(rt, root); err != nil {
		t.Fatalf("BlockOn failed after %v: %v", time.Since(start), err)
	}
	if !timedOut {
		t.Error("timeout never expired")
	}
	if elapsed := time.Since(start); elapsed < siblingDelay {
		t.Errorf("resolved after %v, sibling sleep should have held until %v", elapsed, siblingDelay)
	}
}

func TestTimeoutInnerError(t *testing.T) {
	rt := newTestRuntime(t)

	want := errors.New("inner failed")
	_, err := BlockOn[int](rt, Timeout[int](time.Hour, Fail[int](want)))
	if !errors.Is(err, want) {
		t.Errorf("got %v, want %v", err, want)
	}
	if errors.Is(err, ErrTimedOut) {
		t.Error("inner failure misreported as timeout")
	}
}

func TestTimeoutNested(t *testing.T) {
	rt := newTestRuntime(t)

	// Outer deadline is tighter and must win.
	inner := Timeout[struct{}](time.Hour, Sleep(time.Hour))
	start := time.Now()
	_, err := BlockOn[struct{}](rt, Timeout[struct{}](10*time.Millisecond, inner))
	if !errors.Is(err, ErrTimedOut) {
		t.Fatalf("got %v, want ErrTimedOut", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("outer deadline took %v to fire", elapsed)
	}
}
