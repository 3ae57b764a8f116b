// Copyright 2026 Enzo Blain
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package cadentis

// sysPoller abstracts the OS readiness-notification facility behind the
// reactor. One reference implementation exists per platform family:
//   - Linux: epoll (poller_linux.go)
//   - Darwin/BSD: kqueue (poller_darwin.go)
//
// The poller tracks an interest mask per descriptor; the reactor enforces
// one-shot semantics by disarming an interest as soon as it fires. Further
// backends can be added behind this interface without touching the core.
type sysPoller interface {
	// arm adds interest to fd's monitored mask. Errors (invalid descriptor,
	// resource limits) are reported synchronously.
	arm(fd int, interest Interest) error

	// disarm removes interest from fd's monitored mask. Disarming an
	// interest that is not armed is a no-op.
	disarm(fd int, interest Interest) error

	// wait blocks until a monitored descriptor is ready or the timeout
	// elapses. timeoutMs < 0 blocks indefinitely; 0 polls non-blocking.
	// A wait interrupted by a signal returns no events and no error.
	wait(timeoutMs int) ([]ioEvent, error)

	// close releases the poller's OS resources.
	close() error
}

// ioEvent is one readiness notification: the descriptor, the interests the
// OS reported ready, and error/hangup conditions. On error or hangup every
// registration for the descriptor is fired so the owning primitive retries
// its syscall and observes the failure directly.
type ioEvent struct {
	fd    int
	ready Interest
	hup   bool
	fail  bool
}
