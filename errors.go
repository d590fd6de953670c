// SPDX-License-Identifier: GPL-2.0-only
// Source: github.com/woozymasta/lzo

package lgqc

import (
	"errors"
	"fmt"
)

// Sentinel errors for the decompressor's closed error-kind set (spec §7).
var (
	// ErrInputOverrun is returned when the decoder needs more bytes than remain in input.
	// This is the normal mid-block suspension signal, not necessarily a malformed stream.
	ErrInputOverrun = errors.New("input overrun")
	// ErrNoPriorOffset is returned by a same-offset block (form D/E) when no
	// compressed block has yet established prev_offset.
	ErrNoPriorOffset = errors.New("same-offset block before any offset was established")
	// ErrZeroUncompressedLen is returned by form E when its uncompressed-length
	// field is zero (spec §4.1.4: "must be nonzero, else IllegalState").
	ErrZeroUncompressedLen = errors.New("form E uncompressed length must be nonzero")
	// ErrShortWindow is returned when a back-reference offset exceeds the
	// number of bytes currently held in the window (spec §4.1.6
	// precondition). The window is emptied whenever Feed returns normally.
	ErrShortWindow = errors.New("back-reference offset exceeds window depth")
	// ErrPoisoned is returned by Feed after a prior DecompressionError;
	// the decompressor must be discarded or reset before reuse (spec §7).
	ErrPoisoned = errors.New("decompressor state poisoned by a prior error")
	// ErrReentrantFeed is returned when a Feed call is attempted while another
	// Feed call on the same Decompressor is already in progress (spec §5).
	ErrReentrantFeed = errors.New("concurrent Feed call on the same decompressor")
)

// DecompressionError wraps a sentinel error encountered while decoding a
// compressed stream (spec §7's DecompressionError kind). It poisons the
// Decompressor it was raised from.
type DecompressionError struct {
	Op  string // the block/header form being decoded, e.g. "form B header"
	Err error
}

func (e *DecompressionError) Error() string {
	return fmt.Sprintf("lgqc: decompression error in %s: %v", e.Op, e.Err)
}

func (e *DecompressionError) Unwrap() error { return e.Err }

func newDecompressionError(op string, err error) *DecompressionError {
	return &DecompressionError{Op: op, Err: err}
}
