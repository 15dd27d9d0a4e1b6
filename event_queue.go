// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package dvsim

import "container/heap"

// deadlineHeap is a min-heap of distinct deadline ticks. It never carries
// ordering information *within* a tick: all same-deadline ordering is
// resolved by the insertion-ordered timerList bucket that the eventQueue
// keeps per tick, never by heap comparison.
type deadlineHeap []Tick

func (h deadlineHeap) Len() int            { return len(h) }
func (h deadlineHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h deadlineHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *deadlineHeap) Push(x interface{}) { *h = append(*h, x.(Tick)) }
func (h *deadlineHeap) Pop() interface{} {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// eventQueue is the time-ordered multimap from deadline tick to a FIFO of
// scheduled timers. Its invariants: every contained timer is Active; every
// deadline is >= the tick it was inserted at; insertion order within one
// tick is preserved.
type eventQueue struct {
	ticks   deadlineHeap
	buckets map[Tick]*timerList
}

func newEventQueue() *eventQueue {
	return &eventQueue{buckets: make(map[Tick]*timerList)}
}

// insert adds t to the bucket for its deadline, creating the bucket (and
// pushing its tick onto the heap) if this is the first timer due then.
func (q *eventQueue) insert(t *Timer) {
	b, ok := q.buckets[t.deadline]
	if !ok {
		b = newTimerList()
		q.buckets[t.deadline] = b
		heap.Push(&q.ticks, t.deadline)
	}
	b.append(t)
}

// remove detaches t from its bucket. The bucket itself, and its heap
// entry, are reclaimed lazily the next time pruneEmptyTop runs, which is
// cheaper than a heap removal mid-structure; correctness only depends on
// the bucket being empty, not absent, when its tick is reached.
func (q *eventQueue) remove(t *Timer) {
	b := q.buckets[t.deadline]
	if b == nil {
		return
	}
	b.remove(t)
}

// pruneEmptyTop discards heap entries whose bucket has been fully
// cancelled, so isEmpty/earliestDeadline never observe a stale tick.
func (q *eventQueue) pruneEmptyTop() {
	for len(q.ticks) > 0 {
		t := q.ticks[0]
		b, ok := q.buckets[t]
		if ok && !b.isEmpty() {
			return
		}
		heap.Pop(&q.ticks)
		delete(q.buckets, t)
	}
}

func (q *eventQueue) isEmpty() bool {
	q.pruneEmptyTop()
	return len(q.ticks) == 0
}

// earliestDeadline returns the smallest tick with at least one active
// timer still due, without removing anything.
func (q *eventQueue) earliestDeadline() (Tick, bool) {
	q.pruneEmptyTop()
	if len(q.ticks) == 0 {
		return 0, false
	}
	return q.ticks[0], true
}

// popDueBucket removes and returns the entire FIFO bucket for deadline t.
// The caller must have just confirmed t == earliestDeadline().
func (q *eventQueue) popDueBucket(t Tick) *timerList {
	b := q.buckets[t]
	delete(q.buckets, t)
	heap.Pop(&q.ticks)
	return b
}
