// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package dvsim

// Context is the ambient environment every suspension a task creates
// inherits: the current tick period, the owning clock zone, and the
// simulator handle. It is passed explicitly to every task invocation
// instead of relying on goroutine-local state, so a task can never observe
// a tick period different from the one active at its most recent
// suspension.
type Context struct {
	sim    *Simulator
	zone   *ClockZone
	period TickPeriod
	co     *coroutine
}

// Sim returns the simulator driving this task.
func (c *Context) Sim() *Simulator { return c.sim }

// Zone returns the clock zone this task is currently running under.
func (c *Context) Zone() *ClockZone { return c.zone }

// TickPeriod returns the picosecond length of one tick in this task's
// current ambient zone.
func (c *Context) TickPeriod() TickPeriod { return c.period }

// clone returns a Context sharing the same simulator and zone, suitable
// as the starting point for a nested task (blocking_microtask/delta): the
// nested task is not itself suspended, so it gets its own coroutine, but
// keeps the caller's zone/period.
func (c *Context) clone() *Context {
	cp := *c
	cp.co = nil
	return &cp
}

// Delay suspends the calling task for n ticks of its own ambient clock
// period, by calling Delay on the task's own zone.
func (c *Context) Delay(n Tick) error {
	return c.zone.Delay(c, n)
}

// CreateTimer registers a timer attributed to this task's ambient zone.
func (c *Context) CreateTimer(dur Duration, periodic bool, cb TimerCallback) (*Timer, error) {
	return c.sim.createTimerFor(c.zone, dur, periodic, cb)
}

// BlockingMicrotask runs fn as a nested cooperative task scheduled as a
// microtask (so it starts before the next time advance) and suspends the
// caller until fn returns: an external-I/O hook that never advances time
// beyond the current instant.
func (c *Context) BlockingMicrotask(fn TaskFunc) {
	c.runNested(fn, c.sim.ScheduleMicrotask)
}

// BlockingDelta is BlockingMicrotask, but fn starts one delta cycle later
// (as a zero-delay timer) rather than immediately as a microtask.
func (c *Context) BlockingDelta(fn TaskFunc) {
	c.runNested(fn, c.sim.scheduleDelta)
}

// Fork spawns fn as an independent task, scheduled to start on the next
// microtask drain, without suspending the calling task. Unlike
// BlockingMicrotask, the caller continues running immediately; fn runs on
// its own coroutine with no connection back to the caller beyond sharing
// the same zone and tick period.
func (c *Context) Fork(fn TaskFunc) {
	nestedCtx := c.clone()
	c.sim.ScheduleMicrotask(func() {
		co := spawn(fn, nestedCtx)
		co.runTurn()
	})
}

// runNested spawns fn as an independent task once `schedule` fires it,
// and suspends the caller until fn runs to completion.
func (c *Context) runNested(fn TaskFunc, schedule func(func())) {
	caller := c.co
	nestedCtx := c.clone()
	schedule(func() {
		co := spawnWithCompletion(fn, nestedCtx, caller.runTurn)
		co.runTurn()
	})
	caller.suspend()
}

// deltaWait suspends the caller for exactly one delta cycle: a zero-delay
// timer hop that does not advance now.
func (c *Context) deltaWait() {
	co := c.co
	c.sim.scheduleDelta(func() { co.runTurn() })
	co.suspend()
}
