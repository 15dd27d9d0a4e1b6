// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

// Package dvsim implements the core of a discrete-event simulation kernel
// for modeling digital hardware systems at the transaction level. It drives
// user-written cooperative tasks against a virtual time axis: wall-clock
// time never enters the picture, and the passage of time is produced
// exclusively by the scheduler advancing a monotonically non-decreasing
// tick counter as it dispatches timers and microtasks.
//
// The package is single-threaded and cooperative by design: exactly one
// goroutine ever touches simulator state at a time, handed off explicitly
// between the scheduler and the currently running task (see task.go). There
// is no real-time execution, no parallel dispatch, and no persistence.
package dvsim
