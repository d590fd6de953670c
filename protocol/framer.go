// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/lzo

package protocol

import (
	"encoding/binary"
	"time"
)

// Opcodes from the wire command table (§6). The HDLC-like framing itself —
// FCS, escaping, retries — is an external collaborator (spec §1); only the
// opcode/body shapes named here belong to this package.
const (
	opWrite24      = 0x01
	opAck          = 0x02
	opNak          = 0x03
	opGo           = 0x05
	opNop          = 0x06
	opPreq         = 0x07
	opParams       = 0x08
	opReset        = 0x0A
	opUnlock       = 0x0B
	opVerreq       = 0x0C
	opVerrsp       = 0x0D
	opPwroff       = 0x0E
	opWrite32      = 0x0F
	opMemDebugQry  = 0x10
	opMemDebugInfo = 0x11
	opMemReadReq   = 0x12
	opMemReadResp  = 0x13
	opNandInit     = 0x30
	opDloadSwitch  = 0x3A
)

// highPermissionCode is the canonical unlock code (§6).
var highPermissionCode = []byte("d|f|++-+")

// ackSentinel is the value sendCommand returns for an expected-and-received
// bare ACK (§6 response framing convention).
var ackSentinel = []byte("ACK")

// Framer is the Framer Port contract (§6): the abstract transport this
// package is driven over. Framing, retries, and transport-level timeouts
// live on the other side of this interface (spec §1 "explicitly out of
// scope"); this package only knows how to build and interpret frame bodies.
type Framer interface {
	// Send transmits a framed packet. emptyHeader requests the no-prefix
	// framing variant (used by the dload_switch fallback).
	Send(body []byte, emptyHeader bool) error
	// Recv receives one response frame. An empty return means timeout,
	// which the caller treats as ErrIoTimeout.
	Recv() ([]byte, error)
	// SetTimeout configures the receive timeout.
	SetTimeout(d time.Duration)
}

// sendCommand implements §6's "response framing convention": send op||body,
// then classify the response's leading byte. A NAK surfaces as
// RemoteNakError; a mismatched, non-NAK opcode surfaces as ProtocolError;
// an expected ACK (0x02) returns the ackSentinel rather than an empty slice,
// so callers can tell "ACK received" apart from "zero-length payload
// received" (the sentinel's only purpose: distinguishing those cases).
func sendCommand(f Framer, op byte, body []byte, expected byte) ([]byte, error) {
	packet := make([]byte, 1+len(body))
	packet[0] = op
	copy(packet[1:], body)

	if err := f.Send(packet, false); err != nil {
		return nil, err
	}
	frame, err := f.Recv()
	if err != nil {
		return nil, err
	}
	if len(frame) == 0 {
		return nil, ErrIoTimeout
	}

	r := frame[0]
	switch {
	case r == opNak:
		if len(frame) < 3 {
			return nil, &ProtocolError{Op: op, Got: r, Want: int(expected)}
		}
		return nil, &RemoteNakError{Reason: binary.BigEndian.Uint16(frame[1:3])}
	case r == expected && expected == opAck:
		return ackSentinel, nil
	case r == expected:
		return frame[1:], nil
	default:
		return nil, &ProtocolError{Op: op, Got: r, Want: int(expected)}
	}
}

// DebugRecord is one entry of a MEM_DEBUG_INFO walk (§6 "Debug record
// layout").
type DebugRecord struct {
	Flag  uint8
	V1    uint16
	V2    uint32
	V3    uint32
	Name1 string
	Name2 string
}

// parseDebugRecords walks repeated
// u8(flag) || u16be(v1) || u32be(v2) || u32be(v3) || cstr(name1) || cstr(name2)
// records while flag == 1 and input remains (SPEC_FULL.md supplemented
// feature 2, grounded on the original's parse_debug).
func parseDebugRecords(data []byte) ([]DebugRecord, error) {
	var records []DebugRecord
	pos := 0
	for pos < len(data) {
		if data[pos] != 1 {
			break
		}
		if pos+11 > len(data) {
			return records, &ProtocolError{Op: opMemDebugInfo, Want: 11}
		}
		rec := DebugRecord{
			Flag: data[pos],
			V1:   binary.BigEndian.Uint16(data[pos+1 : pos+3]),
			V2:   binary.BigEndian.Uint32(data[pos+3 : pos+7]),
			V3:   binary.BigEndian.Uint32(data[pos+7 : pos+11]),
		}
		pos += 11

		name1, n, err := readCString(data[pos:])
		if err != nil {
			return records, err
		}
		rec.Name1 = name1
		pos += n

		name2, n, err := readCString(data[pos:])
		if err != nil {
			return records, err
		}
		rec.Name2 = name2
		pos += n

		records = append(records, rec)
	}
	return records, nil
}

// readCString reads a NUL-terminated string, returning the string (without
// the terminator) and the number of bytes consumed including it.
func readCString(data []byte) (string, int, error) {
	for i, b := range data {
		if b == 0 {
			return string(data[:i]), i + 1, nil
		}
	}
	return "", 0, &ProtocolError{Op: opMemDebugInfo, Want: 1}
}
