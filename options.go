// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/lzo

package lgqc

// Options overrides the decompressor's window sizing. A nil Options uses the
// spec-mandated defaults (MaxWindowSize, OptimalResultBuffer). Tests that
// need an effectively unbounded buffer (spec §8 invariant 2) set
// OptimalResultBuffer to a very large value.
type Options struct {
	// MaxWindowSize overrides MaxWindowSize if nonzero.
	MaxWindowSize int
	// OptimalResultBuffer overrides OptimalResultBuffer if nonzero.
	OptimalResultBuffer int
}

// DefaultOptions returns the spec-mandated window sizing.
func DefaultOptions() *Options {
	return &Options{MaxWindowSize: MaxWindowSize, OptimalResultBuffer: OptimalResultBuffer}
}
