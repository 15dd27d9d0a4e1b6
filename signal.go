// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package dvsim

// Filter decides, given the previous and new value of a Signal, whether an
// observer watching for a particular kind of change should be woken.
type Filter func(prev, cur uint64) bool

type waiter struct {
	filter Filter
	resume func()
}

type observer struct {
	id     uint64
	filter Filter
	cb     func(prev, cur uint64)
}

// Signal is a two-phase non-blocking-assignment (NBA) value cell: Nba
// arms a pending value synchronously, and that value becomes externally
// visible, waking waiters and always_at observers, one delta cycle after
// the microtask queued by Nba runs (the trigger phase).
type Signal struct {
	sim  *Simulator
	name string

	current  uint64
	previous uint64
	hasValue bool

	pendingArmed bool
	pendingValue uint64

	waiters   []waiter
	observers []observer
	nextObsID uint64
}

// NewSignal creates a Signal seeded with the given initial value; the
// initial value counts as both ReadCurrent and ReadPrevious until the
// first Nba completes its trigger phase.
func NewSignal(sim *Simulator, name string, initial uint64) *Signal {
	return &Signal{
		sim:      sim,
		name:     name,
		current:  initial,
		previous: initial,
		hasValue: true,
	}
}

// ReadCurrent returns the value as of the end of the most recent trigger
// phase.
func (s *Signal) ReadCurrent() uint64 { return s.current }

// ReadPrevious returns the value immediately before the most recent
// trigger phase, for edge filters that need to compare against it.
func (s *Signal) ReadPrevious() uint64 { return s.previous }

// Nba arms value as the signal's next value. The microtask it queues only
// schedules the trigger phase one delta cycle later; current and previous
// are not written by that microtask but in the trigger phase, so
// ReadCurrent returns the old value until the trigger phase has run.
//
// The pending value is tracked synchronously, at the call site: a second
// Nba arriving before the first one's trigger phase has run is allowed
// only if it repeats the same value (a no-op); a conflicting value fails
// immediately with MultipleNba rather than silently overwriting the first.
func (s *Signal) Nba(value uint64) error {
	if s.pendingArmed {
		if s.pendingValue != value {
			return newErr(MultipleNba, s.name, "conflicting nba before previous nba's trigger phase")
		}
		return nil
	}
	s.pendingArmed = true
	s.pendingValue = value
	s.sim.ScheduleMicrotask(func() {
		s.sim.scheduleDelta(func() { s.triggerPhase() })
	})
	return nil
}

// triggerPhase makes the armed Nba value visible, advances previous, and
// wakes every waiter and always_at observer whose filter matches the
// transition.
func (s *Signal) triggerPhase() {
	if !s.pendingArmed {
		return
	}
	prev := s.current
	cur := s.pendingValue
	s.pendingArmed = false
	s.previous = prev
	s.current = cur
	s.hasValue = true

	for _, ob := range s.observers {
		if ob.filter(prev, cur) {
			ob.cb(prev, cur)
		}
	}

	// Snapshot-and-clear before iterating: a resumed waiter's callback runs
	// synchronously up to its next suspension, which may itself call
	// Changed and append a fresh waiter. Iterating s.waiters directly while
	// a concurrent append mutates the same backing array would corrupt the
	// in-place compaction; operating on a frozen snapshot instead keeps any
	// such reentrant append isolated in the (now-empty) live slice.
	pending := s.waiters
	s.waiters = nil
	for _, w := range pending {
		if w.filter(prev, cur) {
			w.resume()
		} else {
			s.waiters = append(s.waiters, w)
		}
	}
}

// Changed suspends the calling task until the next trigger phase for
// which filter(previous, current) is true, then resumes it exactly once.
// This is a one-shot wait: call it again from inside the task to arm a
// fresh wait for the next matching transition.
func (c *Context) Changed(sig *Signal, filter Filter) {
	if c.co == nil {
		panic("dvsim: Changed called outside a running task")
	}
	co := c.co
	sig.waiters = append(sig.waiters, waiter{
		filter: filter,
		resume: co.runTurn,
	})
	co.suspend()
}

// AlwaysAt registers cb to run on every trigger phase for which
// filter(previous, current) is true, for the lifetime of the Signal.
// Unlike Changed, the registration is persistent: it is never
// automatically removed. AlwaysAt returns an id that Unregister can later
// use to remove it.
func (s *Signal) AlwaysAt(filter Filter, cb func(prev, cur uint64)) uint64 {
	s.nextObsID++
	id := s.nextObsID
	s.observers = append(s.observers, observer{id: id, filter: filter, cb: cb})
	return id
}

// Unregister removes a persistent observer previously installed with
// AlwaysAt. Unregistering an id that is not currently registered is a
// no-op.
func (s *Signal) Unregister(id uint64) {
	for i, ob := range s.observers {
		if ob.id == id {
			s.observers = append(s.observers[:i], s.observers[i+1:]...)
			return
		}
	}
}
