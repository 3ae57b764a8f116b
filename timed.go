// Copyright 2026 Enzo Blain
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package cadentis

import "time"

// TimedResult carries a task's result together with the wall time it took
// to resolve, measured from construction of the Timed wrapper.
type TimedResult[T any] struct {
	Value   T
	Elapsed time.Duration
}

// TimedFuture wraps a Handle and measures elapsed time until it resolves.
type TimedFuture[T any] struct {
	handle *Handle[T]
	start  time.Time
}

// Timed returns a future resolving to the handle's result plus the elapsed
// duration. Useful for timing async operations in a composable way.
func Timed[T any](h *Handle[T]) *TimedFuture[T] {
	return &TimedFuture[T]{handle: h, start: time.Now()}
}

// Poll implements Future.
func (t *TimedFuture[T]) Poll(cx *Context) (TimedResult[T], error, bool) {
	v, err, done := t.handle.Poll(cx)
	if !done {
		return TimedResult[T]{}, nil, false
	}
	return TimedResult[T]{Value: v, Elapsed: time.Since(t.start)}, err, true
}
