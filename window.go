// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/lzo

package lgqc

// window is the append-only output buffer (spec §3, C1). It exposes
// tail-relative reads of already-produced bytes for back-reference copies,
// and sheds the non-window prefix on demand via drain.
//
// Unlike the teacher's decompressCore, which writes into a single
// preallocated dst of known final size, this decoder never knows its total
// output length up front (it's fed by an online wire protocol), so the
// buffer must grow and periodically shed its oldest bytes instead.
type window struct {
	buf        []byte
	maxSize    int // MaxWindowSize, or an override from Options
	optimalCap int // OptimalResultBuffer, or an override from Options
}

func newWindow(maxSize, optimalCap int) *window {
	return &window{
		maxSize:    maxSize,
		optimalCap: optimalCap,
	}
}

// Len returns the number of bytes currently buffered.
func (w *window) Len() int { return len(w.buf) }

// AppendLiteral appends bytes verbatim (an uncompressed block, spec §4.1.2).
func (w *window) AppendLiteral(b []byte) {
	w.buf = append(w.buf, b...)
}

// Tail returns a snapshot of the last n bytes of the buffer, unaffected by
// later appends. CopyBackRef does not use it: it reads its source directly
// from the buffer and handles overlapping copies itself.
func (w *window) Tail(n int) ([]byte, error) {
	if n > len(w.buf) {
		return nil, ErrShortWindow
	}
	tail := make([]byte, n)
	copy(tail, w.buf[len(w.buf)-n:])
	return tail, nil
}

// ShouldFlush reports whether the buffer has grown past the mid-stream flush
// threshold (spec §4.1.7 "Mid-stream flush rule").
func (w *window) ShouldFlush() bool {
	return len(w.buf) > w.optimalCap
}

// Drain returns everything older than the last maxSize bytes and keeps only
// that tail in the buffer (spec §4.1.7). If fewer than maxSize bytes are
// buffered, Drain returns nil and leaves the buffer untouched.
func (w *window) Drain() []byte {
	if len(w.buf) <= w.maxSize {
		return nil
	}
	cut := len(w.buf) - w.maxSize
	out := make([]byte, cut)
	copy(out, w.buf[:cut])
	remaining := make([]byte, w.maxSize)
	copy(remaining, w.buf[cut:])
	w.buf = remaining
	return out
}

// TakeAll returns the entire buffer and clears it (spec §4.1.7 "Normal return").
func (w *window) TakeAll() []byte {
	out := w.buf
	w.buf = nil
	return out
}
