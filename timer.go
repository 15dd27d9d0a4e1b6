// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package dvsim

import "github.com/google/uuid"

// TimerId is an opaque handle identity, independent of deadline, so that
// reschedule preserves identity across cancel/resume.
type TimerId = uuid.UUID

// TimerState is the timer lifecycle state machine.
type TimerState uint8

const (
	// TimerPending: in the event queue, will fire at its deadline.
	TimerPending TimerState = iota
	// TimerFiring: its callback is currently executing.
	TimerFiring
	// TimerCancelled: inactive, removed from the event queue, may be
	// resumed if its (possibly rescheduled) deadline is not before now.
	TimerCancelled
	// TimerDone: a one-shot timer that has fired and will never fire again.
	TimerDone
)

func (s TimerState) String() string {
	switch s {
	case TimerPending:
		return "pending"
	case TimerFiring:
		return "firing"
	case TimerCancelled:
		return "cancelled"
	case TimerDone:
		return "done"
	default:
		return "unknown"
	}
}

// TimerCallback receives the firing Timer itself (so it can read TickCount
// or call Cancel).
type TimerCallback func(t *Timer)

// Timer is the cancellable handle returned when a delay or periodic
// registration is requested. It is also the intrusive FIFO node used by
// the event queue: next/prev are meaningful only while the timer sits in
// an EventQueue bucket.
type Timer struct {
	id       TimerId
	sim      *Simulator
	deadline Tick
	// savedDeadline records the deadline at the instant of the most recent
	// Cancel(); Reschedule() is only meaningful relative to this value, and
	// only between a Cancel() and the matching Resume().
	savedDeadline Tick
	periodTicks   Tick // 0 => one-shot
	callback      TimerCallback
	zone          *ClockZone
	state         TimerState
	tickCount     uint64

	next, prev *Timer
}

// ID returns the timer's stable identity.
func (t *Timer) ID() TimerId { return t.id }

// Active reports whether the timer is still live (pending or mid-fire).
func (t *Timer) Active() bool {
	return t.state == TimerPending || t.state == TimerFiring
}

// State returns the timer's current lifecycle state.
func (t *Timer) State() TimerState { return t.state }

// TickCount reports the number of firings completed so far. While a
// periodic callback is executing, TickCount returns the count *before*
// the firing in progress (first firing observes 0).
func (t *Timer) TickCount() uint64 { return t.tickCount }

// Periodic reports whether the timer re-arms itself after each firing.
func (t *Timer) Periodic() bool { return t.periodTicks != 0 }

// Zone returns the clock zone that owns this timer.
func (t *Timer) Zone() *ClockZone { return t.zone }

// Cancel stops the timer. A pending timer is pulled out of the event
// queue immediately; a timer cancelled from inside its own firing
// callback simply never reschedules. Idempotent on an already-cancelled
// or already-done timer.
func (t *Timer) Cancel() {
	t.sim.cancelTimer(t)
}

// Reschedule shifts a cancelled timer's stored next-call deadline to
// savedDeadline + extra. It is only meaningful between a Cancel() and the
// matching Resume(); calling it at any other time is a safe no-op rather
// than corrupting the timer's deadline.
func (t *Timer) Reschedule(extra Tick) {
	if t.state != TimerCancelled {
		return
	}
	t.deadline = t.savedDeadline.Add(extra)
}

// Resume re-arms a cancelled timer at its current deadline, provided that
// deadline is not in the past. Resuming a timer that was never cancelled
// is a no-op (DoubleResume), not an error.
func (t *Timer) Resume() error {
	return t.sim.resumeTimer(t)
}

func (t *Timer) detached() bool {
	return t == t.next || t.next == nil
}
