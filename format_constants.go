// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/lzo

package lgqc

// Block-level marker bytes (spec §4.1.1).
const (
	boundaryMarker = 0x16 // inert, skipped between blocks and inside chunk runs
	endMarker      = 0x06 // terminates the stream
)

// Uncompressed block header (spec §4.1.2): high nibble 0xE marks the block;
// byte value 0xE0 exactly means "length follows in the next byte, +16".
const uncompressedLongLenByte = 0xE0

// Same-offset block without uncompressed prefix (form D, spec §4.1.4):
// copy_bytes = b - formDLow, for b in [formDLow, formDLow+7].
const formDLow = 0xF3

// Copy-bytes chunk encoding (spec §4.1.5): (c>>4)==0xF identifies a chunk
// byte; the exact byte value 0xF0 means "value follows in the next byte, +16".
const chunkLongMarker = 0xF0

// Window sizing (spec §3).
const (
	// MaxWindowSize is the minimum number of trailing emitted bytes that stay
	// addressable by back-references.
	MaxWindowSize = 0x10000
	// OptimalResultBuffer is the soft threshold (1.3x MaxWindowSize) that
	// triggers a mid-stream flush in Feed.
	OptimalResultBuffer = MaxWindowSize + MaxWindowSize*3/10
)
