// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package dvsim

import (
	"log/slog"

	"github.com/intuitivelabs/dvsim/internal/simlog"
)

// Option configures a Simulator at construction time.
type Option func(*simConfig)

type simConfig struct {
	logger                *slog.Logger
	maxElapseTicks        Tick
	rejectReentrantElapse bool
}

// WithLogger installs a custom *slog.Logger for scheduler trace output.
// Without this option the simulator discards its logs.
func WithLogger(l *slog.Logger) Option {
	return func(c *simConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDefaultLogger installs simlog.New(opts...): a text handler on
// stderr, gated to the given level.
func WithDefaultLogger(level slog.Level) Option {
	return func(c *simConfig) {
		c.logger = simlog.New(simlog.WithLevel(level))
	}
}

// WithMaxElapseTicks aborts a running Elapse/Run call that spins through
// more than n same-tick steps without now ever advancing, returning
// MaxElapseStepsExceeded instead of hanging forever on a mis-specified
// infinite loop of zero-delay timers. 0 (the default) means unlimited.
func WithMaxElapseTicks(n Tick) Option {
	return func(c *simConfig) { c.maxElapseTicks = n }
}

// WithReentrantElapseRejected controls whether a nested Elapse/Run call
// (one made from inside a running scheduler step, e.g. from a timer or
// microtask callback) is rejected with ReentrantElapse. Rejecting is the
// default.
func WithReentrantElapseRejected(reject bool) Option {
	return func(c *simConfig) { c.rejectReentrantElapse = reject }
}
