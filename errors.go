// Copyright 2026 Enzo Blain
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package cadentis

import (
	"errors"
	"fmt"
)

// Standard errors.
var (
	// ErrIODisabled is returned when a reactor-backed operation is attempted
	// on a runtime built without WithIO.
	ErrIODisabled = errors.New("cadentis: i/o support not enabled")

	// ErrFSDisabled is returned when a filesystem operation is attempted on a
	// runtime built without WithFS.
	ErrFSDisabled = errors.New("cadentis: filesystem support not enabled")

	// ErrTimedOut is the terminal result of a Timeout whose deadline elapsed
	// before the inner computation resolved.
	ErrTimedOut = errors.New("cadentis: deadline elapsed")

	// ErrCancelled is delivered to awaiters of a task that was cancelled
	// before completion.
	ErrCancelled = errors.New("cadentis: task cancelled")

	// ErrStalled is returned by BlockOn when the root computation is pending
	// but no wake source exists anywhere in the runtime: no ready tasks, no
	// timer entries, and no reactor registrations. Such a computation can
	// never progress.
	ErrStalled = errors.New("cadentis: pending with no registered wake source")

	// ErrReentrantBlockOn is returned when BlockOn is called from inside a
	// task poll on the same runtime.
	ErrReentrantBlockOn = errors.New("cadentis: BlockOn called from within the runtime")

	// ErrInterestBusy reports that a (descriptor, interest) pair already has an
	// outstanding registration owned by another task.
	ErrInterestBusy = errors.New("cadentis: interest already registered")

	// ErrPollerClosed is returned by poller operations after Close.
	ErrPollerClosed = errors.New("cadentis: poller closed")
)

// joinErrors collapses a slice of errors into one, preserving errors.Is
// matching across all of them.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

// RegistrationError reports a reactor registration rejected synchronously,
// for example due to an invalid descriptor or resource exhaustion. It is
// returned from the call that attempted the registration, never via
// suspension.
type RegistrationError struct {
	Cause    error
	FD       int
	Interest Interest
}

// Error implements the error interface.
func (e *RegistrationError) Error() string {
	return fmt.Sprintf("cadentis: register fd %d for %s: %v", e.FD, e.Interest, e.Cause)
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *RegistrationError) Unwrap() error {
	return e.Cause
}

// IOError wraps a failed syscall with the operation that issued it. It
// surfaces at the poll where the syscall failed.
type IOError struct {
	Err error
	Op  string
}

// Error implements the error interface.
func (e *IOError) Error() string {
	return fmt.Sprintf("cadentis: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying OS error for use with [errors.Is] and [errors.As].
func (e *IOError) Unwrap() error {
	return e.Err
}

// PanicError wraps a panic recovered from a task poll. The panicking task is
// treated as completed with this error; the runtime keeps running.
type PanicError struct {
	Value any
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("cadentis: task panicked: %v", e.Value)
}

// Unwrap returns the underlying error if the panic value is an error type.
// If the panic value is not an error (e.g. a string), returns nil.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
