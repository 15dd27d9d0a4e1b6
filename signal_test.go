// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package dvsim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignalNbaTwoPhaseVisibility(t *testing.T) {
	sim := New(TickPeriod(1))
	sig := NewSignal(sim, "s", 0)

	require.NoError(t, sig.Nba(7))
	// Still 0: the microtask hasn't even run yet.
	require.Equal(t, uint64(0), sig.ReadCurrent())

	require.NoError(t, sim.Elapse(Duration(10)))
	require.Equal(t, uint64(7), sig.ReadCurrent())
	require.Equal(t, uint64(0), sig.ReadPrevious())
}

func TestSignalSameValueNbaLeavesPreviousUnchanged(t *testing.T) {
	sim := New(TickPeriod(1))
	sig := NewSignal(sim, "s", 3)

	var triggerCount int
	sig.AlwaysAt(AnyEdge(), func(prev, cur uint64) { triggerCount++ })

	require.NoError(t, sig.Nba(3))
	require.NoError(t, sim.Elapse(Duration(10)))
	require.Equal(t, uint64(3), sig.ReadCurrent())
	require.Equal(t, uint64(3), sig.ReadPrevious())
	require.Equal(t, 0, triggerCount)
}

// TestSignalNbaRoundTripIdempotence reproduces the round-trip property:
// nba(v), delta, nba(v), delta leaves current == v with no error, and an
// any_edge observer fires exactly once, on the transition into v, never
// again while the value is unchanged.
func TestSignalNbaRoundTripIdempotence(t *testing.T) {
	sim := New(TickPeriod(1))
	sig := NewSignal(sim, "s", 0)
	var edges int
	sig.AlwaysAt(AnyEdge(), func(prev, cur uint64) { edges++ })

	require.NoError(t, sig.Nba(5))
	require.NoError(t, sim.Elapse(Duration(10)))
	require.NoError(t, sig.Nba(5))
	require.NoError(t, sim.Elapse(Duration(10)))

	require.Equal(t, uint64(5), sig.ReadCurrent())
	require.Equal(t, 1, edges)
}

// TestSignalNbaConflictingValuesFailWithMultipleNba reproduces the
// conflicting-write invariant: two Nba calls in the same delta with
// different values must fail the second one with MultipleNba, and the
// signal's pending value must remain the first one written.
func TestSignalNbaConflictingValuesFailWithMultipleNba(t *testing.T) {
	sim := New(TickPeriod(1))
	sig := NewSignal(sim, "s", 0)

	require.NoError(t, sig.Nba(1))
	err := sig.Nba(2)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrMultipleNba))

	require.NoError(t, sim.Elapse(Duration(10)))
	require.Equal(t, uint64(1), sig.ReadCurrent())
}

// TestSignalNbaRepeatedSameValueIsAllowed reproduces the other half of the
// same invariant: repeating the same value in the same delta is not a
// conflict.
func TestSignalNbaRepeatedSameValueIsAllowed(t *testing.T) {
	sim := New(TickPeriod(1))
	sig := NewSignal(sim, "s", 0)

	require.NoError(t, sig.Nba(1))
	require.NoError(t, sig.Nba(1))

	require.NoError(t, sim.Elapse(Duration(10)))
	require.Equal(t, uint64(1), sig.ReadCurrent())
}

// TestSignalEdgesScenario reproduces end-to-end scenario 6: a signal
// starting at 0 is incremented five times (1..5) with a delta between
// each, then written back to 0. any_edge must match every one of the six
// transitions; pos_edge only the 0->1 transition; neg_edge only the
// 5(>0)->0 transition; value==4 only the transition that lands on 4.
func TestSignalEdgesScenario(t *testing.T) {
	sim := New(TickPeriod(1))
	sig := NewSignal(sim, "s", 0)

	var anyCount, posCount, negCount, valueCount int
	sig.AlwaysAt(AnyEdge(), func(prev, cur uint64) { anyCount++ })
	sig.AlwaysAt(PosEdge(), func(prev, cur uint64) { posCount++ })
	sig.AlwaysAt(NegEdge(), func(prev, cur uint64) { negCount++ })
	sig.AlwaysAt(ValueEquals(4), func(prev, cur uint64) { valueCount++ })

	require.NoError(t, sim.Run(func(ctx *Context) {
		for v := uint64(1); v <= 5; v++ {
			require.NoError(t, sig.Nba(v))
			ctx.Changed(sig, AnyEdge())
		}
		require.NoError(t, sig.Nba(0))
		ctx.Changed(sig, AnyEdge())
	}))

	require.Equal(t, 6, anyCount)
	require.Equal(t, 1, posCount)
	require.Equal(t, 1, negCount)
	require.Equal(t, 1, valueCount)
}

func TestSignalChangedIsOneShot(t *testing.T) {
	sim := New(TickPeriod(1))
	sig := NewSignal(sim, "s", 0)
	var wakes int

	require.NoError(t, sim.Run(func(ctx *Context) {
		ctx.Changed(sig, AnyEdge())
		wakes++
	}))

	require.NoError(t, sig.Nba(1))
	require.NoError(t, sim.Elapse(Duration(100)))
	require.NoError(t, sig.Nba(2))
	require.NoError(t, sim.Elapse(Duration(100)))

	require.Equal(t, 1, wakes)
}

func TestFilters(t *testing.T) {
	require.True(t, AnyEdge()(0, 1))
	require.False(t, AnyEdge()(1, 1))

	require.True(t, PosEdge()(0, 1))
	require.False(t, PosEdge()(1, 2))

	require.True(t, NegEdge()(1, 0))
	require.False(t, NegEdge()(0, 1))

	require.True(t, ValueEquals(4)(1, 4))
	require.False(t, ValueEquals(4)(1, 5))
}
