// Copyright 2026 Enzo Blain
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package cadentis

import (
	"container/heap"
	"time"
)

// timerEntry is a pending deadline bound to a waker. Cancellation is lazy:
// a cancelled entry may remain physically in the heap but is skipped when
// popped and never invokes its waker.
type timerEntry struct {
	when      time.Time
	waker     *Waker
	fired     bool
	cancelled bool
}

// cancel marks the entry dead. Safe to call after the entry fired.
func (e *timerEntry) cancel() {
	e.cancelled = true
}

// timerHeap is a min-heap of timer entries ordered by deadline.
type timerHeap []*timerEntry

func (h timerHeap) Len() int           { return len(h) }
func (h timerHeap) Less(i, j int) bool { return h[i].when.Before(h[j].when) }
func (h timerHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *timerHeap) Push(x any) {
	*h = append(*h, x.(*timerEntry))
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return x
}

// timerDriver owns the heap of pending deadlines. It is mutated only from
// the loop goroutine.
type timerDriver struct {
	heap timerHeap
}

// schedule inserts a new entry firing at when, bound to w, and records it
// against w's task for cancellation-time teardown.
func (d *timerDriver) schedule(when time.Time, w *Waker) *timerEntry {
	e := &timerEntry{when: when, waker: w}
	heap.Push(&d.heap, e)
	w.task.timers = append(w.task.timers, e)
	return e
}

// fire pops every entry whose deadline is at or before now, skipping
// cancelled entries, and wakes the rest. Returns the number of wakers fired.
func (d *timerDriver) fire(now time.Time) int {
	fired := 0
	for len(d.heap) > 0 {
		top := d.heap[0]
		if top.cancelled {
			heap.Pop(&d.heap)
			continue
		}
		if top.when.After(now) {
			break
		}
		heap.Pop(&d.heap)
		top.fired = true
		top.waker.task.forgetTimer(top)
		top.waker.Wake()
		fired++
	}
	return fired
}

// next returns the earliest live deadline, discarding any cancelled entries
// it encounters at the top of the heap.
func (d *timerDriver) next() (time.Time, bool) {
	for len(d.heap) > 0 {
		if d.heap[0].cancelled {
			heap.Pop(&d.heap)
			continue
		}
		return d.heap[0].when, true
	}
	return time.Time{}, false
}

func (d *timerDriver) pending() int {
	n := 0
	for _, e := range d.heap {
		if !e.cancelled {
			n++
		}
	}
	return n
}
