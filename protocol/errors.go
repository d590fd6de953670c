// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/lzo

// Package protocol implements the read/decompress pipeline: variant
// selection across the three wire dialects, the Framer Port contract, and
// the driver that ties them to a lgqc.Decompressor.
package protocol

import (
	"errors"
	"fmt"
)

// Sentinel errors for the closed error-kind set.
var (
	// ErrIoTimeout is returned when the Framer Port's Recv returns empty.
	ErrIoTimeout = errors.New("framer timeout")
	// ErrConfigError is returned by a Variant's ParseInit when the init
	// response is shorter than that variant's init layout.
	ErrConfigError = errors.New("init response too short for variant selection")
)

// ProtocolError reports a response whose leading byte is neither the
// expected opcode nor NAK, or a response shorter than its expected header.
type ProtocolError struct {
	Op  byte
	Got byte
	// Want is the expected opcode for an opcode mismatch, or the minimum
	// frame/body length for a too-short response.
	Want int
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error: op 0x%02x got response byte 0x%02x, want 0x%02x", e.Op, e.Got, e.Want)
}

// RemoteNakError reports a NAK frame (opcode 0x03) with its decoded reason.
type RemoteNakError struct {
	Reason uint16
}

func (e *RemoteNakError) Error() string {
	return fmt.Sprintf("remote NAK: %s", nakReasonName(e.Reason))
}

// nakReasonNames is the decoder table from §6.
var nakReasonNames = map[uint16]string{
	1:  "InvalidFCS",
	2:  "InvalidDest",
	3:  "InvalidLen",
	4:  "EarlyEnd",
	5:  "TooLarge",
	6:  "InvalidCmd",
	7:  "Failed",
	8:  "WrongIID",
	9:  "BadVPP",
	10: "VerifyFailed",
	11: "NoSecCode",
	12: "BadSecCode",
	14: "OpNotPermitted",
	15: "InvalidAddr",
	16: "AddrMismatch",
	17: "FailNandPrg",
}

// nakReasonName maps a NAK reason code to its name, falling back to the
// numeric value for unknown codes (spec §8 invariant 5).
func nakReasonName(reason uint16) string {
	if name, ok := nakReasonNames[reason]; ok {
		return name
	}
	return fmt.Sprintf("0x%04x", reason)
}
