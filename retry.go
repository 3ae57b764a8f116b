// Copyright 2026 Enzo Blain
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package cadentis

import "time"

// RetryPolicy parameterises the retry combinator. Retry is the only place
// the runtime re-invokes anything automatically, and only because the
// caller opted in here.
type RetryPolicy struct {
	// Backoff returns the delay before the next attempt, given the number of
	// attempts made so far (>= 1). Nil, or a non-positive return, retries
	// immediately.
	Backoff func(attempt int) time.Duration

	// MaxAttempts bounds the number of invocations of the action. Zero or
	// negative means unbounded.
	MaxAttempts int
}

// RetryFuture re-invokes an action until it succeeds or attempts are
// exhausted, sleeping between attempts per the policy. It layers on the
// same suspension primitives as everything else; no new concurrency
// machinery is involved.
type RetryFuture[T any] struct {
	op      func() Future[T]
	current Future[T]
	delay   *SleepFuture
	policy  RetryPolicy
	attempt int
}

// Retry returns a future driving op under the given policy. op is called
// once per attempt to produce a fresh future; a failed attempt's error is
// surfaced unchanged once attempts are exhausted.
func Retry[T any](policy RetryPolicy, op func() Future[T]) *RetryFuture[T] {
	return &RetryFuture[T]{policy: policy, op: op}
}

// Attempts returns the number of times the action has been invoked.
func (r *RetryFuture[T]) Attempts() int {
	return r.attempt
}

// Poll implements Future.
func (r *RetryFuture[T]) Poll(cx *Context) (T, error, bool) {
	var zero T
	for {
		if r.delay != nil {
			if _, _, done := r.delay.Poll(cx); !done {
				return zero, nil, false
			}
			r.delay = nil
		}
		if r.current == nil {
			r.current = r.op()
			r.attempt++
		}
		v, err, done := r.current.Poll(cx)
		if !done {
			return zero, nil, false
		}
		if err == nil {
			return v, nil, true
		}
		r.current = nil
		if r.policy.MaxAttempts > 0 && r.attempt >= r.policy.MaxAttempts {
			return zero, err, true
		}
		cx.Runtime().log.Debug().
			Int("attempt", r.attempt).
			Err(err).
			Log("retrying after failed attempt")
		if r.policy.Backoff != nil {
			if d := r.policy.Backoff(r.attempt); d > 0 {
				r.delay = Sleep(d)
			}
		}
	}
}
