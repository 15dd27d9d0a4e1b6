// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

// Package simlog provides the structured logging used throughout dvsim: a
// small functional-options constructor around a *slog.Logger, defaulting
// to text output on stderr at Debug level.
package simlog

import (
	"io"
	"log/slog"
	"os"
)

// Option configures a Logger built with New.
type Option func(*config)

type config struct {
	level  slog.Level
	format Format
	writer io.Writer
}

// Format selects the slog handler used to render log lines.
type Format uint8

const (
	FormatText Format = iota
	FormatJSON
)

// WithLevel sets the minimum level that will be emitted.
func WithLevel(l slog.Level) Option {
	return func(c *config) { c.level = l }
}

// WithFormat selects text or JSON rendering.
func WithFormat(f Format) Option {
	return func(c *config) { c.format = f }
}

// WithWriter redirects output (tests typically pass a bytes.Buffer).
func WithWriter(w io.Writer) Option {
	return func(c *config) {
		if w != nil {
			c.writer = w
		}
	}
}

// New builds a *slog.Logger configured for the simulator. Default level is
// Debug because the scheduler's own trace-level events (timer creation,
// including delta hops, timer dispatch and resume) are only useful at that
// level; callers raise
// it with WithLevel to quiet the kernel down.
func New(opts ...Option) *slog.Logger {
	c := config{
		level:  slog.LevelDebug,
		format: FormatText,
		writer: os.Stderr,
	}
	for _, opt := range opts {
		opt(&c)
	}
	ho := &slog.HandlerOptions{Level: c.level}
	var h slog.Handler
	switch c.format {
	case FormatJSON:
		h = slog.NewJSONHandler(c.writer, ho)
	default:
		h = slog.NewTextHandler(c.writer, ho)
	}
	return slog.New(h)
}

// Discard returns a logger that drops everything; used as the zero-value
// default for a Simulator built without an explicit logging Option, so the
// kernel never pays for formatting log lines nobody asked for.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
