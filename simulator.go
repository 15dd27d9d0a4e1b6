// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package dvsim

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/intuitivelabs/dvsim/internal/simlog"
)

// Simulator owns virtual time, the event queue, the microtask queue, and
// the root clock zone. Exactly one Simulator is active during a
// simulation run; Reset tears it down, after which ScheduleMicrotask,
// CreateTimer, Elapse, Run and every Delay or timer creation panic with
// SimulatorReset. The accessors (Root, TickPeriod, Now, ElapsedTicks,
// Logger) and the by-id timer operations do not check for a reset.
type Simulator struct {
	now        Tick
	tickPeriod TickPeriod

	micro microtaskQueue
	queue *eventQueue

	root   *ClockZone
	timers map[TimerId]*Timer

	logger *slog.Logger

	maxElapseTicks        Tick
	rejectReentrantElapse bool
	elapsing              bool

	wasReset bool
}

// New constructs a Simulator whose root clock runs at tickPeriod
// picoseconds per tick. tickPeriod must be strictly positive.
func New(tickPeriod TickPeriod, opts ...Option) *Simulator {
	if tickPeriod <= 0 {
		panic("dvsim: tick period must be strictly positive")
	}
	cfg := simConfig{
		logger:                simlog.Discard(),
		rejectReentrantElapse: true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	s := &Simulator{
		tickPeriod:            tickPeriod,
		queue:                 newEventQueue(),
		timers:                make(map[TimerId]*Timer),
		logger:                cfg.logger,
		maxElapseTicks:        cfg.maxElapseTicks,
		rejectReentrantElapse: cfg.rejectReentrantElapse,
	}
	s.root = newRootZone(s, tickPeriod)
	return s
}

// Reset tears down the simulator and all associated state. A Simulator
// must be reset before being discarded; reuse after Reset without a fresh
// New is forbidden, and the scheduling operations listed on Simulator
// panic when called after it.
func (s *Simulator) Reset() {
	s.wasReset = true
	s.micro = microtaskQueue{}
	s.queue = newEventQueue()
	s.timers = nil
	s.root = nil
}

func (s *Simulator) checkLive() {
	if s.wasReset {
		panic(newErr(SimulatorReset, "simulator", "used after Reset()"))
	}
}

// Root returns the simulator's own zone (divisor 1, the ambient zone for
// the task passed to Run).
func (s *Simulator) Root() *ClockZone { return s.root }

// TickPeriod returns the root clock's tick period in picoseconds.
func (s *Simulator) TickPeriod() TickPeriod { return s.tickPeriod }

// Now returns the current virtual tick count.
func (s *Simulator) Now() Tick { return s.now }

// ElapsedTicks is Now(), expressed in root-clock ticks (the root zone has
// divisor 1, so the two always agree).
func (s *Simulator) ElapsedTicks() Tick { return s.now }

// Logger returns the structured logger configured for this simulator.
func (s *Simulator) Logger() *slog.Logger { return s.logger }

// ticksForDuration converts an absolute picosecond duration into a
// non-negative count of root ticks, rounding up (never firing early).
func (s *Simulator) ticksForDuration(d Duration) (Tick, error) {
	if d < 0 {
		return 0, newErr(InvalidDuration, "duration", "negative duration")
	}
	ticks, rest := d.Ticks(s.tickPeriod)
	if rest > 0 {
		ticks++
	}
	return ticks, nil
}

// ScheduleMicrotask enqueues cb to run before the next time advance, after
// every microtask already queued.
func (s *Simulator) ScheduleMicrotask(cb func()) {
	s.checkLive()
	s.micro.push(cb)
}

// scheduleDelta enqueues cb as a zero-delay timer: it runs in a later pass
// of the wheel than any timer already due "now", after the current
// microtask drain, without advancing now.
func (s *Simulator) scheduleDelta(cb func()) {
	_, _ = s.scheduleTimer(0, 0, func(*Timer) { cb() }, nil)
}

// scheduleTimer is the single low-level constructor every timer-creating
// operation (CreateTimer, Delay, deltaWait) funnels through.
func (s *Simulator) scheduleTimer(deltaTicks Tick, periodTicks Tick, cb TimerCallback, zone *ClockZone) (*Timer, error) {
	s.checkLive()
	t := &Timer{
		id:          uuid.New(),
		sim:         s,
		deadline:    s.now.Add(deltaTicks),
		periodTicks: periodTicks,
		callback:    cb,
		zone:        zone,
		state:       TimerPending,
	}
	t.next, t.prev = t, t
	s.timers[t.id] = t
	if zone != nil {
		zone.owned[t.id] = t
	}
	s.queue.insert(t)
	s.logger.Debug("timer created", "id", t.id, "deadline", t.deadline, "periodic", periodTicks != 0)
	return t, nil
}

// CreateTimer registers a one-shot or periodic timer attributed to the
// root zone. Prefer Context.CreateTimer from inside a task so the timer
// is attributed to the task's own ambient zone.
func (s *Simulator) CreateTimer(dur Duration, periodic bool, cb TimerCallback) (*Timer, error) {
	return s.createTimerFor(s.root, dur, periodic, cb)
}

func (s *Simulator) createTimerFor(zone *ClockZone, dur Duration, periodic bool, cb TimerCallback) (*Timer, error) {
	s.checkLive()
	if dur < 0 {
		return nil, newErr(InvalidDuration, zone.fullName, "negative duration")
	}
	if periodic && dur == 0 {
		return nil, newErr(InvalidDuration, zone.fullName, "periodic timer with zero period")
	}
	deltaTicks, err := s.ticksForDuration(dur)
	if err != nil {
		return nil, err
	}
	var periodTicks Tick
	if periodic {
		periodTicks = deltaTicks
		if periodTicks == 0 {
			return nil, newErr(InvalidDuration, zone.fullName, "periodic timer with zero period")
		}
	}
	return s.scheduleTimer(deltaTicks, periodTicks, cb, zone)
}

// cancelTimer is the scheduler-level half of Timer.Cancel: it removes a
// pending timer from the event queue, or, if called from inside the
// timer's own firing callback, marks it so the dispatcher skips the
// reschedule it would otherwise perform.
func (s *Simulator) cancelTimer(t *Timer) {
	switch t.state {
	case TimerPending:
		s.queue.remove(t)
		t.savedDeadline = t.deadline
		t.state = TimerCancelled
	case TimerFiring:
		t.savedDeadline = t.deadline
		t.state = TimerCancelled
	default:
		// already Cancelled or Done: Cancel is idempotent.
	}
}

// resumeTimer re-arms a cancelled timer at its current (possibly
// Reschedule-shifted) deadline.
func (s *Simulator) resumeTimer(t *Timer) error {
	if t.state != TimerCancelled {
		return nil // DoubleResume: no-op, not an error.
	}
	if t.deadline.LT(s.now) {
		return newErr(TimerNotInFuture, t.id.String(), "deadline before now")
	}
	t.state = TimerPending
	s.queue.insert(t)
	s.logger.Debug("timer resumed", "id", t.id, "deadline", t.deadline)
	return nil
}

// Cancel, Reschedule, and Resume by TimerId, for callers that only kept
// the handle's id. Prefer calling the corresponding method directly on a
// *Timer when you have one.
func (s *Simulator) Cancel(id TimerId) {
	if t, ok := s.timers[id]; ok {
		t.Cancel()
	}
}

func (s *Simulator) RescheduleByID(id TimerId, delta Tick) {
	if t, ok := s.timers[id]; ok {
		t.Reschedule(delta)
	}
}

func (s *Simulator) ResumeByID(id TimerId) error {
	if t, ok := s.timers[id]; ok {
		return t.Resume()
	}
	return nil
}

// dispatchBucket fires every timer in bucket that is still pending, in
// insertion order. A timer cancelled by an earlier callback of the same
// bucket is skipped.
func (s *Simulator) dispatchBucket(bucket *timerList) {
	bucket.forEach(func(t *Timer) {
		if t.state != TimerPending {
			return
		}
		t.state = TimerFiring
		s.logger.Debug("timer firing", "id", t.id, "now", s.now, "tick_count", t.tickCount)
		t.callback(t)
		t.tickCount++
		if t.state == TimerCancelled {
			s.logger.Debug("timer cancelled during firing, not rescheduled", "id", t.id)
			return
		}
		if t.Periodic() {
			t.deadline = s.now.Add(t.periodTicks)
			t.state = TimerPending
			s.queue.insert(t)
		} else {
			t.state = TimerDone
		}
	})
}

// step runs one iteration of the scheduling algorithm: drain one
// microtask if any remain, else advance to (and dispatch) the earliest
// due timer bucket. Returns false once there is nothing left to do before
// hasHorizon's limit.
func (s *Simulator) step(horizon Tick, hasHorizon bool) bool {
	if !s.micro.isEmpty() {
		fn := s.micro.pop()
		fn()
		return true
	}
	deadline, ok := s.queue.earliestDeadline()
	if !ok {
		return false
	}
	if hasHorizon && deadline.GT(horizon) {
		return false
	}
	s.now = deadline
	bucket := s.queue.popDueBucket(deadline)
	s.dispatchBucket(bucket)
	return true
}

// runLoop drives step to exhaustion. maxElapseTicks, when set, bounds the
// number of steps taken at a single tick value: a zero-delay timer that
// keeps rescheduling itself (or a chain of microtasks that keeps
// re-enqueuing) would otherwise spin the loop forever without now ever
// advancing, so runLoop aborts with MaxElapseStepsExceeded once that
// budget is spent.
func (s *Simulator) runLoop(horizon Tick, hasHorizon bool) error {
	lastNow := s.now
	steps := Tick(0)
	for s.step(horizon, hasHorizon) {
		if s.maxElapseTicks <= 0 {
			continue
		}
		if s.now != lastNow {
			lastNow = s.now
			steps = 0
			continue
		}
		steps++
		if steps > s.maxElapseTicks {
			return newErr(MaxElapseStepsExceeded, "simulator", "runaway zero-delay loop: now did not advance")
		}
	}
	return nil
}

func (s *Simulator) beginElapse() error {
	if s.elapsing {
		if s.rejectReentrantElapse {
			return newErr(ReentrantElapse, "simulator", "nested elapse() rejected")
		}
	}
	s.elapsing = true
	return nil
}

// Elapse advances virtual time toward now + ceil(duration/tickPeriod),
// running the scheduling loop until either the event and microtask queues
// are both empty or that horizon is reached. An idle queue is a
// successful completion, not an error (IdleQueue).
func (s *Simulator) Elapse(duration Duration) error {
	s.checkLive()
	deltaTicks, err := s.ticksForDuration(duration)
	if err != nil {
		return err
	}
	if err := s.beginElapse(); err != nil {
		return err
	}
	defer func() { s.elapsing = false }()
	horizon := s.now.Add(deltaTicks)
	return s.runLoop(horizon, true)
}

// Run enters the simulation: it installs the scheduler as the ambient
// context for task, spawns it as the initial cooperative task under the
// root zone, and then drives the scheduler until both queues are empty.
func (s *Simulator) Run(task TaskFunc) error {
	s.checkLive()
	if err := s.beginElapse(); err != nil {
		return err
	}
	defer func() { s.elapsing = false }()
	s.root.Run(task)
	return s.runLoop(0, false)
}
