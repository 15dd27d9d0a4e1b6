// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package dvsim

// AnyEdge matches every transition where the value actually changes.
func AnyEdge() Filter {
	return func(prev, cur uint64) bool { return prev != cur }
}

// PosEdge matches the "0 to nonzero" edge boolean-valued signals use,
// generalized to any unsigned encoding.
func PosEdge() Filter {
	return func(prev, cur uint64) bool { return prev == 0 && cur != 0 }
}

// NegEdge matches a transition from a nonzero value back to zero.
func NegEdge() Filter {
	return func(prev, cur uint64) bool { return prev != 0 && cur == 0 }
}

// ValueEquals matches any transition whose new value equals want,
// regardless of the previous value, including a transition that "changes"
// to the same value it already had.
func ValueEquals(want uint64) Filter {
	return func(_, cur uint64) bool { return cur == want }
}
