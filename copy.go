// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/lzo

package lgqc

// CopyBackRef implements spec §4.1.6: append copyBytes bytes, each copied
// from offset bytes before the current tail. If copyBytes > offset, LZ
// run-length semantics apply: newly appended bytes become valid source for
// the remainder of the copy. We implement this the way the teacher's
// copyBackRef does, with exponential doubling instead of a byte-by-byte
// loop or the literal "whole tail repeated, then partial" formulation in
// spec §4.1.6 — the two are equivalent because the source period (offset)
// never changes mid-copy.
func (w *window) CopyBackRef(offset, copyBytes int) error {
	if offset > len(w.buf) {
		return ErrShortWindow
	}

	start := len(w.buf) - offset
	end := start + copyBytes
	w.buf = append(w.buf, make([]byte, copyBytes)...)

	if offset >= copyBytes {
		copy(w.buf[len(w.buf)-copyBytes:], w.buf[start:end])
		return nil
	}

	outputPos := len(w.buf) - copyBytes
	copy(w.buf[outputPos:outputPos+offset], w.buf[start:outputPos])
	copied := offset
	for copied < copyBytes {
		n := copy(w.buf[outputPos+copied:outputPos+copyBytes], w.buf[outputPos:outputPos+copied])
		copied += n
	}
	return nil
}
