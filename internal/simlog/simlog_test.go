// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package simlog

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewTextFormatWritesLines(t *testing.T) {
	var buf bytes.Buffer
	l := New(WithWriter(&buf), WithLevel(slog.LevelInfo))
	l.Info("hello", "k", "v")
	require.Contains(t, buf.String(), "hello")
	require.Contains(t, buf.String(), "k=v")
}

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(WithWriter(&buf), WithFormat(FormatJSON), WithLevel(slog.LevelInfo))
	l.Info("hello")
	require.Contains(t, buf.String(), `"msg":"hello"`)
}

func TestLevelGating(t *testing.T) {
	var buf bytes.Buffer
	l := New(WithWriter(&buf), WithLevel(slog.LevelWarn))
	l.Debug("should not appear")
	require.Empty(t, buf.String())
}

func TestDiscardDropsEverything(t *testing.T) {
	l := Discard()
	require.NotPanics(t, func() { l.Error("whatever") })
}
