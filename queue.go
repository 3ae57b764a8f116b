// Copyright 2026 Enzo Blain
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package cadentis

import "github.com/eapache/queue"

// readyQueue is the FIFO of tasks pending their next poll, backed by a
// growable ring buffer. It is mutated only from the loop goroutine and
// needs no locking.
type readyQueue struct {
	q *queue.Queue
}

func newReadyQueue() *readyQueue {
	return &readyQueue{q: queue.New()}
}

func (r *readyQueue) push(t *task) {
	r.q.Add(t)
}

func (r *readyQueue) pop() (*task, bool) {
	if r.q.Length() == 0 {
		return nil, false
	}
	return r.q.Remove().(*task), true
}

func (r *readyQueue) len() int {
	return r.q.Length()
}
