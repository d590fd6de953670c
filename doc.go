// SPDX-License-Identifier: GPL-2.0-only
// Source: github.com/woozymasta/lzo

/*
Package lgqc implements the streaming decompressor for a proprietary LZ77
family compression stream used by certain LG/Qualcomm download-mode firmware
paths, together with the Window that backs its sliding back-reference history.

The protocol layer that drives paged EMMC reads across the three wire
dialects (V0/V1/V2) lives in the sibling package lgqc/protocol; this package
only concerns itself with turning a byte stream of blocks and markers into
decompressed output.

# Decompress

The decoder is an online consumer: feed it compressed bytes as they arrive
over the wire, and it emits decompressed output in window-bounded chunks.

	d := lgqc.New(nil)
	out, err := d.Feed(compressedChunk)
	for d.HasMore() {
		more, err := d.Feed(nil)
		out = append(out, more...)
	}

A single call to Feed may return less than the full decompressed stream: once
the internal window grows past OptimalResultBuffer, Feed flushes and returns
early, keeping HasMore true so the caller knows to keep pumping with empty
input before sending more compressed bytes.

# Format

A compressed stream is a sequence of blocks (uncompressed, compressed, or
compressed-reusing-the-previous-offset) and two marker bytes: 0x16 is an inert
boundary skipped wherever it appears, 0x06 ends the stream. See header.go for
the bit-level layout of each block form.
*/
package lgqc
