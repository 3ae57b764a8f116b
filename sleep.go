// Copyright 2026 Enzo Blain
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package cadentis

import "time"

// SleepFuture suspends the calling task until at least its duration has
// elapsed. The timer entry is registered on the first poll; a fired entry is
// the only wake path, so a subsequent poll observing the fired flag resolves.
type SleepFuture struct {
	entry *timerEntry
	d     time.Duration
}

// Sleep returns a future that resolves no earlier than d after its first
// poll. A non-positive duration resolves immediately.
func Sleep(d time.Duration) *SleepFuture {
	return &SleepFuture{d: d}
}

// Poll implements Future.
func (s *SleepFuture) Poll(cx *Context) (struct{}, error, bool) {
	if s.d <= 0 {
		return struct{}{}, nil, true
	}
	if s.entry == nil {
		rt := cx.Runtime()
		s.entry = rt.timers.schedule(rt.now().Add(s.d), cx.Waker())
		if m := rt.metrics; m != nil {
			m.TimersScheduled++
		}
		rt.log.Trace().
			Uint64("task", cx.task.id).
			Dur("duration", s.d).
			Log("sleep scheduled")
		return struct{}{}, nil, false
	}
	if s.entry.fired {
		return struct{}{}, nil, true
	}
	// Woken by something else in the same task; the entry stays armed.
	return struct{}{}, nil, false
}
