// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/lzo

package lgqc

// dispatch classifies and decodes one block starting at b0 (the byte
// already consumed by Feed's loop). It returns cont=false when the end
// marker was consumed. Errors that are ErrInputOverrun mean "not enough
// bytes yet for this block"; any other error is a genuine DecompressionError
// and poisons the Decompressor (spec §4.1.1).
func (d *Decompressor) dispatch(b0 byte) (cont bool, err error) {
	switch {
	case b0 == boundaryMarker:
		return true, nil

	case b0 == endMarker:
		return false, nil

	case b0>>4 == 0xE:
		return true, d.handleUncompressed(b0)

	case b0>>4 == 0xF:
		return true, d.handleSameOffset(b0)

	case b0&0x07 == 0b110 && b0>>5 != 0b101:
		return true, d.handleSameOffset(b0)

	default:
		offset, err := d.handleCompressed(b0)
		if err != nil {
			return true, err
		}
		d.prevOffset = offset
		d.hasPrevOffset = true
		return true, nil
	}
}

// readByte reads one byte at the cursor, advancing it. Returns
// ErrInputOverrun (unwrapped) if no byte remains, so Feed can rewind to the
// block boundary instead of poisoning the decompressor.
func (d *Decompressor) readByte() (byte, error) {
	if d.pos >= len(d.input) {
		return 0, ErrInputOverrun
	}
	b := d.input[d.pos]
	d.pos++
	return b, nil
}

// copyLiteral appends n bytes verbatim from input to the window. It checks
// bounds before mutating anything, so a short read leaves state untouched.
// Used only where the literal copy is the entire remainder of the block
// (nothing left afterward that could fail and force a rewind).
func (d *Decompressor) copyLiteral(n int) error {
	b, err := d.takeLiteral(n)
	if err != nil {
		return err
	}
	d.win.AppendLiteral(b)
	return nil
}

// takeLiteral returns the next n bytes of input without touching the
// window, advancing the cursor. Used by block forms where more of the
// header (and thus more opportunities to hit ErrInputOverrun) follows the
// uncompressed prefix — committing to the window before the whole block is
// known-decodable would duplicate those bytes when Feed rewinds and
// re-decodes the block on the next call.
func (d *Decompressor) takeLiteral(n int) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	if d.pos+n > len(d.input) {
		return nil, ErrInputOverrun
	}
	b := d.input[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

// handleUncompressed decodes an uncompressed block (spec §4.1.2).
func (d *Decompressor) handleUncompressed(b0 byte) error {
	var n int
	if b0 == uncompressedLongLenByte {
		lenByte, err := d.readByte()
		if err != nil {
			return err
		}
		n = int(lenByte) + 16
	} else {
		n = int(b0 & 0x0F)
	}
	if err := d.copyLiteral(n); err != nil {
		return err
	}
	return nil
}

// readChunks implements the additive copy-bytes chunk stream (spec §4.1.5).
// It consumes zero or more trailing 0xFx chunk bytes (skipping 0x16 boundary
// markers along the way) and returns their sum. Running out of input while a
// chunk could still follow is ErrInputOverrun, not "no more chunks": we
// can't distinguish "stream truly ends here" from "the next chunk byte
// hasn't arrived yet" without peeking it, so the whole enclosing block is
// treated as incomplete and rewound (spec §9 design note option (a)).
func (d *Decompressor) readChunks() (int, error) {
	sum := 0
	for {
		if d.pos >= len(d.input) {
			return 0, ErrInputOverrun
		}
		c := d.input[d.pos]

		if c == boundaryMarker {
			d.pos++
			continue
		}
		if c>>4 != 0xF {
			return sum, nil
		}

		d.pos++
		if c == chunkLongMarker {
			ext, err := d.readByte()
			if err != nil {
				return 0, err
			}
			sum += int(ext) + 16
		} else {
			sum += int(c & 0x0F)
		}
	}
}

// handleCompressed decodes a compressed block with a fresh offset: forms
// A (11-bit offset), B (14-bit offset), or C (16-bit offset) — spec §4.1.3.
// Returns the decoded offset for the caller to remember as prev_offset.
func (d *Decompressor) handleCompressed(b0 byte) (int, error) {
	var (
		uncompressedLen int
		copyBytes       int
		offsetHi        int
		formB, formC    bool
	)

	switch {
	case b0>>5 == 0b101: // form B: offset 14 bits
		formB = true
		uncompressedLen = int(b0>>3) & 3
		copyBytes = int(b0&7) << 2
	case b0&7 == 0b111: // form C: offset 16 bits
		formC = true
		uncompressedLen = int(b0>>6) & 3
		copyBytes = int(b0>>3) & 7
	default: // form A: offset 11 bits
		uncompressedLen = int(b0>>6) & 3
		copyBytes = int(b0>>3) & 7
		offsetHi = int(b0&7) << 8
	}

	literal, err := d.takeLiteral(uncompressedLen)
	if err != nil {
		return 0, err
	}

	b1, err := d.readByte()
	if err != nil {
		return 0, err
	}

	var offset int
	switch {
	case formB:
		copyBytes |= int(b1 >> 6)
		hi := int(b1&0x3F) << 8
		b2, err := d.readByte()
		if err != nil {
			return 0, err
		}
		offset = hi | int(b2)
	case formC:
		b2, err := d.readByte()
		if err != nil {
			return 0, err
		}
		offset = int(b1) | (int(b2) << 8) // little-endian, unlike forms A/B
	default:
		offset = offsetHi | int(b1)
	}

	copyBytes += 3
	chunkSum, err := d.readChunks()
	if err != nil {
		return 0, err
	}
	copyBytes += chunkSum

	// Nothing past this point can fail on a short read, so it's safe to
	// start mutating the window now.
	d.win.AppendLiteral(literal)
	if err := d.win.CopyBackRef(offset, copyBytes); err != nil {
		return 0, newDecompressionError("compressed block back-reference", err)
	}
	return offset, nil
}

// handleSameOffset decodes a compressed block reusing prev_offset: form D
// (no uncompressed prefix, spec §4.1.4) or form E (with prefix). Requires
// prev_offset to already be established.
func (d *Decompressor) handleSameOffset(b0 byte) error {
	if !d.hasPrevOffset {
		return newDecompressionError("same-offset block", ErrNoPriorOffset)
	}

	var copyBytes int
	var literal []byte
	if b0>>4 == 0xF {
		// Form D: no uncompressed prefix.
		copyBytes = int(b0) - formDLow
	} else {
		// Form E: uncompressed prefix present, must be nonzero.
		uncompressedLen := int(b0>>6) & 3
		if uncompressedLen == 0 {
			return newDecompressionError("form E header", ErrZeroUncompressedLen)
		}
		var err error
		literal, err = d.takeLiteral(uncompressedLen)
		if err != nil {
			return err
		}
		copyBytes = int(b0>>3) & 7
	}

	copyBytes += 3
	chunkSum, err := d.readChunks()
	if err != nil {
		return err
	}
	copyBytes += chunkSum

	d.win.AppendLiteral(literal)
	if err := d.win.CopyBackRef(d.prevOffset, copyBytes); err != nil {
		return newDecompressionError("same-offset block back-reference", err)
	}
	return nil
}
