// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package dvsim

// TaskFunc is a cooperative task: a function that runs on the virtual time
// axis, suspending itself (via ctx's operations) rather than ever blocking
// a real OS thread for an observable amount of wall-clock time.
type TaskFunc func(ctx *Context)

// coroutine is a goroutine-per-task generator: the task runs on its own
// goroutine, but control is handed back and forth over a pair of
// unbuffered channels so that exactly one goroutine is ever unparked at a
// time. User tasks are polled by the scheduler; suspensions yield control
// back, and resumption is triggered by the scheduler firing a timer or a
// signal trigger. This keeps a single dispatch thread with no locks:
// only whichever side currently holds the baton touches simulator state.
type coroutine struct {
	resume   chan struct{}
	yield    chan struct{}
	finished bool
}

// spawn starts fn on a new goroutine, parked immediately until the first
// runTurn. ctx.co is wired before the goroutine can observe it.
func spawn(fn TaskFunc, ctx *Context) *coroutine {
	return spawnWithCompletion(fn, ctx, nil)
}

// spawnWithCompletion is spawn, plus a callback invoked the instant fn
// returns, before the coroutine's final yield, so the callback still runs
// with the baton, inside the same logical turn. BlockingMicrotask and
// BlockingDelta use this to resume their caller exactly when the nested
// task finishes.
func spawnWithCompletion(fn TaskFunc, ctx *Context, onDone func()) *coroutine {
	co := &coroutine{resume: make(chan struct{}), yield: make(chan struct{})}
	ctx.co = co
	go func() {
		<-co.resume
		fn(ctx)
		co.finished = true
		if onDone != nil {
			onDone()
		}
		co.yield <- struct{}{}
	}()
	return co
}

// runTurn hands the baton to the task and blocks until it suspends again
// (suspend) or returns. Only the current baton holder may call this.
func (c *coroutine) runTurn() {
	c.resume <- struct{}{}
	<-c.yield
}

// suspend hands the baton back to whoever last called runTurn, and blocks
// until they call runTurn again.
func (c *coroutine) suspend() {
	c.yield <- struct{}{}
	<-c.resume
}
