// Copyright 2026 Enzo Blain
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package cadentis provides a lightweight single-threaded asynchronous task
// runtime for Go, featuring poll-driven futures, one-shot I/O readiness
// registration, min-heap timers, and non-blocking TCP and file surfaces.
//
// # Architecture
//
// The runtime is built around a [Runtime] core that owns a FIFO ready queue,
// a timer heap, and an optional reactor bound to the platform's readiness
// facility. Computations implement [Future]: a Poll method that either
// resolves or arranges exactly one wake source (a readiness registration or
// a timer entry) before suspending. [BlockOn] drives a root future to
// completion; [Spawn] schedules additional tasks whose results are awaited
// through [Handle].
//
// # Execution Model
//
// Each loop iteration fires due timers, polls every task that was ready at
// the start of the pass in wake order, then parks on the OS poller bounded
// by the nearest timer deadline. Readiness registrations are one-shot: a
// fired registration is removed and the owning future re-registers on its
// next unsuccessful attempt. Wakers are idempotent; redundant wakes before
// the next poll collapse into a single ready-queue entry.
//
// Everything runs on the goroutine calling [BlockOn]. No type in this
// package is safe for concurrent use from other goroutines, which is what
// lets task state, the ready queue, and the registration table go entirely
// unlocked.
//
// # Platform Support
//
// Readiness notification is implemented using platform-native mechanisms:
//   - Linux: epoll
//   - macOS: kqueue
//
// # I/O and Timers
//
// [Bind], [Connect], [Stream], [File], and [Mkdir] expose non-blocking
// TCP and filesystem operations behind the [WithIO] and [WithFS] options.
// [Sleep], [Timeout], [Retry], and [Yield] provide the timer-backed
// combinators. All I/O follows a single idiom: attempt the syscall, and on
// EAGAIN register interest and suspend until the reactor reports readiness.
//
// # Error Types
//
// Failures surface as sentinel errors ([ErrTimedOut], [ErrCancelled],
// [ErrIODisabled], [ErrFSDisabled], [ErrStalled]) or as wrapping types
// ([IOError], [RegistrationError], [PanicError]) that support [errors.Is]
// and [errors.As] against their causes.
package cadentis
