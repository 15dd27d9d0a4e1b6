// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package dvsim

// timerList is an intrusive, insertion-ordered circular doubly linked list
// of *Timer, used as the FIFO bucket holding every timer due at one
// deadline tick. There is exactly one list per deadline, and no concurrent
// access to guard against.
type timerList struct {
	head Timer // sentinel; only next/prev are meaningful on this node
}

func newTimerList() *timerList {
	l := &timerList{}
	l.head.next = &l.head
	l.head.prev = &l.head
	return l
}

func (l *timerList) isEmpty() bool {
	return l.head.next == &l.head
}

// append adds t to the end of the list, preserving registration order.
func (l *timerList) append(t *Timer) {
	t.prev = l.head.prev
	t.next = &l.head
	t.prev.next = t
	l.head.prev = t
}

// remove detaches t from whichever list it is linked into.
func (l *timerList) remove(t *Timer) {
	t.prev.next = t.next
	t.next.prev = t.prev
	t.next = t
	t.prev = t
}

// forEach visits every entry in insertion order. f may remove the *current*
// entry (e.g. a timer cancelling itself) but must not remove any other one.
func (l *timerList) forEach(f func(*Timer)) {
	v := l.head.next
	for v != &l.head {
		next := v.next
		f(v)
		v = next
	}
}
