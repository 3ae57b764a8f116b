// Copyright 2026 Enzo Blain
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package cadentis

// Future is a resumable computation. Poll advances it by one step.
//
// When done is true the computation has resolved; value and err carry the
// outcome and the future must not be polled again. When done is false the
// future must already have arranged exactly one pending wake source (a
// reactor registration or a timer entry) via cx before returning; failing
// that stalls the owning task forever. That contract is not enforced at
// runtime; it is the substitute for language-native suspension.
type Future[T any] interface {
	Poll(cx *Context) (value T, err error, done bool)
}

// FutureFunc adapts a function to the Future interface. State, if any,
// lives in the closure.
type FutureFunc[T any] func(cx *Context) (T, error, bool)

// Poll implements Future.
func (f FutureFunc[T]) Poll(cx *Context) (T, error, bool) {
	return f(cx)
}

// ReadyFuture resolves to a fixed outcome on its first poll.
type ReadyFuture[T any] struct {
	err   error
	value T
}

// Ready returns a future that is immediately resolved with value.
func Ready[T any](value T) *ReadyFuture[T] {
	return &ReadyFuture[T]{value: value}
}

// Fail returns a future that immediately resolves to err.
func Fail[T any](err error) *ReadyFuture[T] {
	return &ReadyFuture[T]{err: err}
}

// Poll implements Future.
func (f *ReadyFuture[T]) Poll(cx *Context) (T, error, bool) {
	return f.value, f.err, true
}

// YieldFuture suspends its task for exactly one drain pass.
type YieldFuture struct {
	yielded bool
}

// Yield returns a future that is pending on its first poll and resolved on
// its second. The current task is woken immediately, so it lands at the back
// of the ready queue and other ready tasks get a turn first. The immediate
// wake is the pending wake source required by the poll contract.
func Yield() *YieldFuture {
	return &YieldFuture{}
}

// Poll implements Future.
func (y *YieldFuture) Poll(cx *Context) (struct{}, error, bool) {
	if !y.yielded {
		y.yielded = true
		cx.Waker().Wake()
		return struct{}{}, nil, false
	}
	return struct{}{}, nil, true
}
