// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package dvsim

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/intuitivelabs/dvsim/internal/simlog"
)

func TestWithLoggerInstallsCustomLogger(t *testing.T) {
	var buf bytes.Buffer
	l := simlog.New(simlog.WithWriter(&buf), simlog.WithLevel(slog.LevelDebug))
	sim := New(TickPeriod(1), WithLogger(l))

	_, err := sim.CreateTimer(Duration(1), false, func(*Timer) {})
	require.NoError(t, err)
	require.Contains(t, buf.String(), "timer created")
}

func TestWithLoggerIgnoresNil(t *testing.T) {
	sim := New(TickPeriod(1), WithLogger(nil))
	require.NotNil(t, sim.Logger())
}

func TestWithMaxElapseTicksDefaultsToUnlimited(t *testing.T) {
	sim := New(TickPeriod(1))
	require.Equal(t, Tick(0), sim.maxElapseTicks)
}

func TestWithMaxElapseTicksSetsLimit(t *testing.T) {
	sim := New(TickPeriod(1), WithMaxElapseTicks(Tick(5)))
	require.Equal(t, Tick(5), sim.maxElapseTicks)
}

func TestWithReentrantElapseRejectedCanBeDisabled(t *testing.T) {
	sim := New(TickPeriod(1), WithReentrantElapseRejected(false))

	var innerErr error
	_, _ = sim.CreateTimer(Duration(1), false, func(*Timer) {
		innerErr = sim.Elapse(Duration(5))
	})
	require.NoError(t, sim.Elapse(Duration(100)))
	require.NoError(t, innerErr)
}
