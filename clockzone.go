// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package dvsim

// ClockZoneId identifies a zone by its full hierarchical name
// (parent.FullName + "." + name). NewClockZone does not reject a duplicate
// name under the same parent, so two such siblings share one id.
type ClockZoneId = string

// ClockZone is a scoped scaling of the tick period for any task run under
// it, and a unit of bulk suspend/resume. Zones form an open tree of clock
// scalings rooted at the simulator's own zone; each zone keeps the set of
// timers created directly under it so that Suspend never has to scan the
// whole event queue, only its own owned set and its descendants'.
type ClockZone struct {
	sim      *Simulator
	name     string
	fullName string
	parent   *ClockZone
	children []*ClockZone
	divisor  int64

	// tickPeriod is parent.tickPeriod * divisor (picoseconds).
	tickPeriod TickPeriod

	// owned holds only the timers created directly under this zone (not
	// its descendants' timers).
	owned map[TimerId]*Timer

	suspended      bool
	suspendedSet   []*Timer
	suspensionTime Tick
}

func newRootZone(sim *Simulator, period TickPeriod) *ClockZone {
	return &ClockZone{
		sim:        sim,
		name:       "root",
		fullName:   "root",
		divisor:    1,
		tickPeriod: period,
		owned:      make(map[TimerId]*Timer),
	}
}

// NewClockZone forks a new context off parent with tick_period =
// parent.tick_period * divisor. divisor must be a positive integer; a
// zero or negative divisor is rejected at construction.
func NewClockZone(name string, parent *ClockZone, divisor int64) (*ClockZone, error) {
	if parent == nil {
		return nil, newErr(InvalidDuration, name, "clock zone requires a parent")
	}
	if divisor <= 0 {
		return nil, newErr(InvalidDuration, parent.fullName+"."+name, "divisor must be positive")
	}
	z := &ClockZone{
		sim:        parent.sim,
		name:       name,
		fullName:   parent.fullName + "." + name,
		parent:     parent,
		divisor:    divisor,
		tickPeriod: parent.tickPeriod * TickPeriod(divisor),
		owned:      make(map[TimerId]*Timer),
	}
	parent.children = append(parent.children, z)
	return z, nil
}

// Name returns the zone's own (non-hierarchical) name.
func (z *ClockZone) Name() string { return z.name }

// FullName returns the full hierarchical name, used as this zone's id.
func (z *ClockZone) FullName() string { return z.fullName }

// ID returns the zone's identity (its full name).
func (z *ClockZone) ID() ClockZoneId { return z.fullName }

// TickPeriod returns this zone's effective tick period in picoseconds.
func (z *ClockZone) TickPeriod() TickPeriod { return z.tickPeriod }

// Parent returns the enclosing zone, or nil for the root.
func (z *ClockZone) Parent() *ClockZone { return z.parent }

// Run runs fn with this zone as its ambient context. All timers created by
// fn (and the nested tasks it transitively blocks on) are tagged with this
// zone's id. Run starts fn synchronously, just like entering a function
// call, up to fn's first suspension point, then returns; fn continues
// independently afterward, driven by the scheduler like any other task.
func (z *ClockZone) Run(fn TaskFunc) {
	ctx := &Context{sim: z.sim, zone: z, period: z.tickPeriod}
	co := spawn(fn, ctx)
	co.runTurn()
}

// Delay suspends ctx's task for n * z.TickPeriod() picoseconds, using this
// zone's tick period even if ctx's own ambient zone differs; useful for
// cross-hierarchy waits.
func (z *ClockZone) Delay(ctx *Context, n Tick) error {
	if ctx == nil || ctx.co == nil {
		panic("dvsim: Delay called outside a running task")
	}
	absDur := n.ToDuration(z.tickPeriod)
	if absDur < 0 {
		return newErr(InvalidDuration, z.fullName, "negative delay")
	}
	rootTicks, err := z.sim.ticksForDuration(absDur)
	if err != nil {
		return err
	}
	co := ctx.co
	if _, err := z.sim.scheduleTimer(rootTicks, 0, func(*Timer) { co.runTurn() }, z); err != nil {
		return err
	}
	co.suspend()
	return nil
}

// ElapsedTicks returns now/tick_period for this zone: how many of this
// zone's own ticks have elapsed since the simulation began.
func (z *ClockZone) ElapsedTicks() Tick {
	if z.tickPeriod <= 0 {
		return 0
	}
	nowPs := z.sim.now.ToDuration(z.sim.tickPeriod)
	return Tick(int64(nowPs) / int64(z.tickPeriod))
}

// collectActive appends every currently active timer owned by z or any of
// its descendants to out.
func (z *ClockZone) collectActive(out *[]*Timer) {
	for _, t := range z.owned {
		if t.Active() {
			*out = append(*out, t)
		}
	}
	for _, c := range z.children {
		c.collectActive(out)
	}
}

// Suspend cancels every currently active timer owned by this zone or any
// descendant, recording the set and the current tick so a later Resume
// can shift them all forward by the elapsed gap. Idempotent: a second
// Suspend before a matching Resume is a no-op.
func (z *ClockZone) Suspend() {
	if z.suspended {
		return
	}
	var collected []*Timer
	z.collectActive(&collected)
	for _, t := range collected {
		z.sim.cancelTimer(t)
	}
	z.suspendedSet = collected
	z.suspensionTime = z.sim.now
	z.suspended = true
}

// Resume re-arms every timer recorded by the last Suspend, shifted forward
// by now - suspensionTime, so each fires exactly that many ticks later
// than it would have absent the suspension. Resuming without a preceding
// Suspend is a no-op (DoubleResume), not an error.
func (z *ClockZone) Resume() error {
	if !z.suspended {
		return nil
	}
	delta := z.sim.now.Sub(z.suspensionTime)
	set := z.suspendedSet
	z.suspendedSet = nil
	z.suspended = false
	for _, t := range set {
		t.Reschedule(delta)
		if err := t.Resume(); err != nil {
			return err
		}
	}
	return nil
}
