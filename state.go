// Copyright 2026 Enzo Blain
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package cadentis

// TaskState represents the lifecycle state of a task.
//
// State Machine:
//
//	StateCreated → StateScheduled          [Spawn]
//	StateScheduled → StateRunning          [drain pass pops the task]
//	StateRunning → StateCompleted          [poll returned done]
//	StateRunning → StateSuspended          [poll returned pending]
//	StateRunning → StateScheduled          [poll returned pending after a self-wake]
//	StateSuspended → StateScheduled        [waker fired]
//	any non-terminal → StateCancelled      [Handle.Cancel]
//
// StateCompleted and StateCancelled are terminal. Tasks are mutated only
// from the goroutine executing the event loop, so states are plain values
// with no atomics.
type TaskState uint8

const (
	// StateCreated indicates the task exists but has never been scheduled.
	StateCreated TaskState = iota
	// StateScheduled indicates the task sits in the ready queue awaiting its
	// next poll.
	StateScheduled
	// StateRunning indicates the task is being polled right now. Exactly one
	// task is running at any instant.
	StateRunning
	// StateSuspended indicates the last poll returned pending and the task is
	// waiting on its registered wake source.
	StateSuspended
	// StateCompleted indicates the task's computation resolved.
	StateCompleted
	// StateCancelled indicates the task was torn down before completion. Any
	// stale wake delivered for it is ignored.
	StateCancelled
)

// String returns a human-readable representation of the state.
func (s TaskState) String() string {
	switch s {
	case StateCreated:
		return "Created"
	case StateScheduled:
		return "Scheduled"
	case StateRunning:
		return "Running"
	case StateSuspended:
		return "Suspended"
	case StateCompleted:
		return "Completed"
	case StateCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// terminal reports whether the state admits no further transitions.
func (s TaskState) terminal() bool {
	return s == StateCompleted || s == StateCancelled
}
