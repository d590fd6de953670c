// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/lzo

package lgqc

import (
	"errors"

	"golang.org/x/sync/semaphore"
)

// Decompressor is the streaming decoder for the compressed stream format
// described in spec §4.1 (C2). It is stateful across calls to Feed: input
// accumulates, a cursor tracks the next byte to decode, and prev_offset
// remembers the last back-reference offset for same-offset blocks.
//
// A Decompressor must not be used from more than one goroutine at a time;
// Feed enforces this with a size-1 semaphore rather than silently racing
// (spec §5 "no cross-call interleaving is allowed").
type Decompressor struct {
	input []byte
	pos   int

	prevOffset    int
	hasPrevOffset bool

	win *window

	pending   bool // mid-stream flush occurred; HasMore() should report true
	poisoned  bool
	reentrant *semaphore.Weighted
}

// New creates a Decompressor. A nil opts uses DefaultOptions.
func New(opts *Options) *Decompressor {
	if opts == nil {
		opts = DefaultOptions()
	}
	maxSize := opts.MaxWindowSize
	if maxSize == 0 {
		maxSize = MaxWindowSize
	}
	optimalCap := opts.OptimalResultBuffer
	if optimalCap == 0 {
		optimalCap = OptimalResultBuffer
	}
	return &Decompressor{
		win:       newWindow(maxSize, optimalCap),
		reentrant: semaphore.NewWeighted(1),
	}
}

// HasMore reports whether the last Feed returned early because of a
// mid-stream flush, so buffered output (and possibly unconsumed input) is
// still pending (spec §4.1.7).
func (d *Decompressor) HasMore() bool {
	return d.pending
}

// Feed appends data to the input buffer (data may be empty, to "pump"
// without new input) and runs the dispatch loop until input is exhausted,
// the end marker is consumed, or a mid-stream flush triggers (spec §4.1.7).
//
// After a DecompressionError, the Decompressor is poisoned (spec §7) and
// every subsequent Feed call returns ErrPoisoned until a fresh Decompressor
// is created.
func (d *Decompressor) Feed(data []byte) ([]byte, error) {
	if !d.reentrant.TryAcquire(1) {
		return nil, ErrReentrantFeed
	}
	defer d.reentrant.Release(1)

	if d.poisoned {
		return nil, ErrPoisoned
	}

	if len(data) > 0 {
		d.input = append(d.input, data...)
	}

	for {
		if d.win.ShouldFlush() {
			drained := d.win.Drain()
			d.input = d.input[d.pos:]
			d.pos = 0
			d.pending = true
			return drained, nil
		}

		if d.pos >= len(d.input) {
			break
		}

		checkpoint := d.pos
		b0 := d.input[d.pos]
		d.pos++

		cont, err := d.dispatch(b0)
		if err != nil {
			if errors.Is(err, ErrInputOverrun) {
				// Incomplete block: rewind to the block boundary and await
				// more bytes, per spec §9 design note option (a).
				d.pos = checkpoint
				break
			}
			d.poisoned = true
			return nil, err
		}
		if !cont {
			break
		}
	}

	d.input = d.input[d.pos:]
	d.pos = 0
	d.pending = false
	return d.win.TakeAll(), nil
}
