// Copyright 2026 Enzo Blain
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package cadentis

// Metrics is a snapshot of runtime counters. Counters are plain values:
// they are only ever written from the loop goroutine.
type Metrics struct {
	Ticks           uint64 // event loop iterations
	TaskPolls       uint64 // individual task polls
	ReactorPolls    uint64 // blocking/non-blocking OS poll calls
	Wakes           uint64 // waker invocations that enqueued a task
	TimersScheduled uint64
	TimersFired     uint64
	TasksSpawned    uint64
	TasksCompleted  uint64
	TasksCancelled  uint64
}

// Metrics returns a snapshot of the runtime's counters. Collection is
// enabled via WithMetrics; otherwise the zero value is returned.
func (rt *Runtime) Metrics() Metrics {
	if rt.metrics == nil {
		return Metrics{}
	}
	return *rt.metrics
}
