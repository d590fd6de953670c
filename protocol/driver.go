// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/lzo

package protocol

import (
	"encoding/binary"
	"strings"

	"github.com/relgoeth/lgqc"
)

// Driver orchestrates identification, initialization, and paged EMMC reads
// (C5, spec §4.3). It exclusively owns one Decompressor and one Variant;
// the Framer is borrowed, not owned (spec §3 "Ownership").
type Driver struct {
	framer Framer

	variant Variant
	model   string
	info    InitInfo

	decomp  *lgqc.Decompressor
	hasMore bool
}

// NewDriver creates a Driver over the given Framer Port. The Decompressor
// uses lgqc's default window sizing; callers needing non-default sizing
// should use NewDriverWithOptions.
func NewDriver(f Framer) *Driver {
	return NewDriverWithOptions(f, nil)
}

// NewDriverWithOptions creates a Driver with explicit Decompressor options
// (e.g. an unbounded OptimalResultBuffer for spec §8 invariant 2 testing).
func NewDriverWithOptions(f Framer, opts *lgqc.Options) *Driver {
	return &Driver{
		framer: f,
		decomp: lgqc.New(opts),
	}
}

// HasMore mirrors the decompressor's pending-tail state (spec §3 "Driver
// state").
func (d *Driver) HasMore() bool { return d.hasMore }

// Model returns the device model string cached by identifyConfiguration.
func (d *Driver) Model() string { return d.model }

// Info returns the four integers recovered by InternalInit.
func (d *Driver) Info() InitInfo { return d.info }

// identifyConfiguration issues the init command, retrieves the model
// string, and selects a variant per spec §4.3's selection rule. It installs
// the variant (setting the framer timeout and active read opcode) and
// returns the init response bytes unchanged.
func (d *Driver) identifyConfiguration() ([]byte, error) {
	initResp, err := sendCommand(d.framer, opNandInit, nil, opNandInit)
	if err != nil {
		return nil, err
	}

	model, err := d.GetModel()
	if err != nil {
		return nil, err
	}
	d.model = model

	d.variant = SelectVariant(model, len(initResp))
	d.framer.SetTimeout(d.variant.ConnectionTimeout())

	return initResp, nil
}

// InternalInit runs identifyConfiguration and stores the four init
// integers parsed by the selected variant.
func (d *Driver) InternalInit() error {
	initResp, err := d.identifyConfiguration()
	if err != nil {
		return err
	}
	info, err := d.variant.ParseInit(initResp)
	if err != nil {
		return err
	}
	d.info = info
	return nil
}

// InternalEMMCRead implements the paged EMMC read algorithm (spec §4.3.1).
// A non-empty chunk of decompressed bytes is returned; repeated calls with
// the same blockNum drain further chunks until the compressed stream for
// that read is fully consumed.
func (d *Driver) InternalEMMCRead(blockNum uint32) ([]byte, error) {
	if d.decomp.HasMore() {
		chunk, err := d.decomp.Feed(nil)
		if err != nil {
			return nil, err
		}
		d.hasMore = d.decomp.HasMore()
		return chunk, nil
	}

	// The trailing 0x06 0x00 0x00 0x00 is an opaque wire-contract trailer
	// (spec §9 Open Question): not decoded, just appended.
	body := append(d.variant.BuildReadRequest(blockNum), 0x06, 0x00, 0x00, 0x00)
	raw, err := sendCommand(d.framer, d.variant.ReadCmdOpcode(), body, d.variant.ReadCmdOpcode())
	if err != nil {
		return nil, err
	}

	parsed, err := d.variant.ParseResponse(raw)
	if err != nil {
		return nil, err
	}

	if !parsed.Compressed {
		d.hasMore = false
		return parsed.Payload, nil
	}

	chunk, err := d.decomp.Feed(parsed.Payload)
	if err != nil {
		return nil, err
	}
	d.hasMore = d.decomp.HasMore()
	return chunk, nil
}

// GetImplementation retrieves the device's implementation/params string
// (PREQ -> PARAMS). Grounded on the original's get_implementation(); unlike
// GetModel, this string is never "/"-to-"_" normalized and is not what
// identifyConfiguration selects a variant from.
func (d *Driver) GetImplementation() (string, error) {
	body, err := sendCommand(d.framer, opPreq, nil, opParams)
	if err != nil {
		return "", err
	}
	return decodeLenPrefixedString(body)
}

// GetModel retrieves the device's software version string (VERREQ ->
// VERRSP) and normalizes it the way the original's get_model() does:
// get_version().replace("/", "_"). The substitution matters beyond cosmetics
// — §4.3's variant selection matches "_LGE430_"/"_LGE435_" substrings
// against this normalized string, so a real device's "/"-delimited version
// (e.g. "VS840_LGE430/V10a") would never select V2 without it.
func (d *Driver) GetModel() (string, error) {
	body, err := sendCommand(d.framer, opVerreq, nil, opVerrsp)
	if err != nil {
		return "", err
	}
	version, err := decodeLenPrefixedString(body)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(version, "/", "_"), nil
}

// Ping sends NOP and expects a bare ACK.
func (d *Driver) Ping() error {
	_, err := sendCommand(d.framer, opNop, nil, opAck)
	return err
}

// ReadRAM reads size bytes from addr (MEM_READ_REQ -> MEM_READ_RESP).
func (d *Driver) ReadRAM(addr uint32, size uint16) ([]byte, error) {
	body := make([]byte, 6)
	binary.BigEndian.PutUint32(body[0:4], addr)
	binary.BigEndian.PutUint16(body[4:6], size)

	resp, err := sendCommand(d.framer, opMemReadReq, body, opMemReadResp)
	if err != nil {
		return nil, err
	}
	if len(resp) < 6 {
		return nil, &ProtocolError{Op: opMemReadReq, Want: 6}
	}
	return resp[6:], nil
}

// SetHighPermissions sends UNLOCK with the given code and expects ACK.
func (d *Driver) SetHighPermissions(code []byte) error {
	_, err := sendCommand(d.framer, opUnlock, code, opAck)
	return err
}

// HighPermissionCode is the canonical unlock code (§6), for callers that
// want SetHighPermissions(protocol.HighPermissionCode()) rather than
// supplying their own.
func HighPermissionCode() []byte {
	out := make([]byte, len(highPermissionCode))
	copy(out, highPermissionCode)
	return out
}

// SwitchToDownloadMode sends DLOAD_SWITCH with the normal frame header and,
// if that fails, retries with an empty header (SPEC_FULL.md supplemented
// feature 1, grounded on the original's dload_switch).
func (d *Driver) SwitchToDownloadMode() error {
	if _, err := sendCommand(d.framer, opDloadSwitch, nil, opDloadSwitch); err == nil {
		return nil
	}
	packet := []byte{opDloadSwitch}
	if err := d.framer.Send(packet, true); err != nil {
		return err
	}
	frame, err := d.framer.Recv()
	if err != nil {
		return err
	}
	if len(frame) == 0 {
		return ErrIoTimeout
	}
	if frame[0] != opDloadSwitch {
		return &ProtocolError{Op: opDloadSwitch, Got: frame[0], Want: opDloadSwitch}
	}
	return nil
}

// DebugInfo queries and walks the device's MEM_DEBUG_INFO records
// (SPEC_FULL.md supplemented feature 2, grounded on the original's
// debug_info/parse_debug).
func (d *Driver) DebugInfo() ([]DebugRecord, error) {
	body, err := sendCommand(d.framer, opMemDebugQry, nil, opMemDebugInfo)
	if err != nil {
		return nil, err
	}
	return parseDebugRecords(body)
}

// Write24 writes data at a 24-bit address (SPEC_FULL.md supplemented
// feature 3).
func (d *Driver) Write24(addr uint32, data []byte) error {
	body := make([]byte, 3+2+len(data))
	putUint24BE(body[0:3], addr)
	binary.BigEndian.PutUint16(body[3:5], uint16(len(data)))
	copy(body[5:], data)
	_, err := sendCommand(d.framer, opWrite24, body, opAck)
	return err
}

// Write32 writes data at a 32-bit address (SPEC_FULL.md supplemented
// feature 3).
func (d *Driver) Write32(addr uint32, data []byte) error {
	body := make([]byte, 4+2+len(data))
	binary.BigEndian.PutUint32(body[0:4], addr)
	binary.BigEndian.PutUint16(body[4:6], uint16(len(data)))
	copy(body[6:], data)
	_, err := sendCommand(d.framer, opWrite32, body, opAck)
	return err
}

// Go jumps execution to addr (SPEC_FULL.md supplemented feature 3).
func (d *Driver) Go(addr uint32) error {
	body := make([]byte, 4)
	binary.BigEndian.PutUint32(body, addr)
	_, err := sendCommand(d.framer, opGo, body, opAck)
	return err
}

// Reset sends RESET and expects ACK (SPEC_FULL.md supplemented feature 3).
func (d *Driver) Reset() error {
	_, err := sendCommand(d.framer, opReset, nil, opAck)
	return err
}

// PowerOff sends PWROFF and expects ACK (SPEC_FULL.md supplemented
// feature 3).
func (d *Driver) PowerOff() error {
	_, err := sendCommand(d.framer, opPwroff, nil, opAck)
	return err
}

// putUint24BE writes the low 24 bits of v into b[0:3], big-endian.
func putUint24BE(b []byte, v uint32) {
	b[0] = byte(v >> 16)
	b[1] = byte(v >> 8)
	b[2] = byte(v)
}

// decodeLenPrefixedString decodes u8(len) || text[len], used by PARAMS and
// VERRSP response bodies.
func decodeLenPrefixedString(body []byte) (string, error) {
	if len(body) < 1 {
		return "", &ProtocolError{Want: 1}
	}
	n := int(body[0])
	if len(body) < 1+n {
		return "", &ProtocolError{Want: 1 + n}
	}
	return string(body[1 : 1+n]), nil
}
