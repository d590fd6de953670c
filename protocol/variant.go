// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/lzo

package protocol

import (
	"encoding/binary"
	"strings"
	"time"
)

// ParsedResponse is the result of Variant.ParseResponse: whether the payload
// is a compressed decompressor stream chunk, and the payload bytes
// themselves (§4.2).
type ParsedResponse struct {
	Compressed bool
	Payload    []byte
}

// InitInfo is the result of Variant.ParseInit: the four integers recovered
// from an init response (§4.2, §4.3's Driver state).
type InitInfo struct {
	MaxBlockCnt   uint32
	MaxBlockSize  uint32
	MaxPageSize   uint32
	MaxPageCnt    uint8
	HasMaxPageCnt bool
}

// Variant is a value object capturing one wire dialect's constants and
// header layouts (§4.2, §9 "Variant polymorphism" — tagged dispatch rather
// than inheritance: the three kinds below are a closed set of plain
// structs implementing the same interface, not a class hierarchy).
type Variant interface {
	// ReadCmdOpcode is the opcode used for EMMC_READ requests.
	ReadCmdOpcode() byte
	// BlocksPerRead is the device's per-request block span.
	BlocksPerRead() uint16
	// ConnectionTimeout is the receive timeout to install on the framer.
	ConnectionTimeout() time.Duration
	// BuildReadRequest builds the opcode-less body of an EMMC_READ request
	// for block blockNum.
	BuildReadRequest(blockNum uint32) []byte
	// ParseResponse splits a read-response body (opcode byte already
	// stripped) into compressed-flag and payload.
	ParseResponse(data []byte) (ParsedResponse, error)
	// ParseInit recovers the four init integers from an init-command
	// response body.
	ParseInit(data []byte) (InitInfo, error)
}

// SelectVariant implements spec §4.3's identify_configuration selection
// rule and §8 invariant 4's round-trip property.
func SelectVariant(model string, initResponseLen int) Variant {
	if strings.Contains(model, "_LGE430_") || strings.Contains(model, "_LGE435_") {
		return V2{}
	}
	if initResponseLen > 0x200 {
		return V1{}
	}
	return V0{}
}

// V0 is the legacy variant.
type V0 struct{}

func (V0) ReadCmdOpcode() byte              { return 0x50 }
func (V0) BlocksPerRead() uint16            { return 0x200 }
func (V0) ConnectionTimeout() time.Duration { return 250 * time.Millisecond }

// BuildReadRequest: 0x00 || u32le(n).
func (V0) BuildReadRequest(blockNum uint32) []byte {
	body := make([]byte, 5)
	binary.LittleEndian.PutUint32(body[1:], blockNum)
	return body
}

// ParseResponse treats byte 0 as err_code (already consumed by the framer
// layer per spec wording — unused here beyond offset bookkeeping), bytes
// 9..13 as an unused data_len, byte 14 as is_compressed, payload from 15.
func (V0) ParseResponse(data []byte) (ParsedResponse, error) {
	if len(data) < 15 {
		return ParsedResponse{}, &ProtocolError{Want: 15}
	}
	return ParsedResponse{
		Compressed: data[14] != 0,
		Payload:    data[15:],
	}, nil
}

// ParseInit skips 5 bytes, then (max_block_cnt, max_block_size, max_page_size)
// as u32le, plus an optional trailing max_page_cnt byte.
func (V0) ParseInit(data []byte) (InitInfo, error) {
	return parseInitV0Layout(data, 5, false)
}

// V1 uses a longer, flag-based response header and swaps the page/block
// size order in ParseInit relative to V0 (spec §9 Open Question: preserved
// exactly as specified, not "fixed").
type V1 struct{}

func (V1) ReadCmdOpcode() byte              { return 0x50 }
func (V1) BlocksPerRead() uint16            { return 0x200 }
func (V1) ConnectionTimeout() time.Duration { return 250 * time.Millisecond }

// BuildReadRequest: (7 x 0x00) || u32le(n) || u32le(0x200) || u32le(0).
func (V1) BuildReadRequest(blockNum uint32) []byte {
	body := make([]byte, 7+4+4+4)
	binary.LittleEndian.PutUint32(body[7:], blockNum)
	binary.LittleEndian.PutUint32(body[11:], 0x200)
	binary.LittleEndian.PutUint32(body[15:], 0)
	return body
}

func (V1) ParseResponse(data []byte) (ParsedResponse, error) {
	if len(data) < 23 {
		return ParsedResponse{}, &ProtocolError{Want: 23}
	}
	flag := binary.LittleEndian.Uint32(data[0:4])
	return ParsedResponse{
		Compressed: flag == 0x100,
		Payload:    data[23:],
	}, nil
}

// ParseInit skips 7 bytes, then (max_block_cnt, max_page_size, max_block_size)
// as u32le — note the swap versus V0. max_page_cnt is always absent.
func (V1) ParseInit(data []byte) (InitInfo, error) {
	info, err := parseInitV0Layout(data, 7, true)
	if err != nil {
		return InitInfo{}, err
	}
	info.MaxPageSize, info.MaxBlockSize = info.MaxBlockSize, info.MaxPageSize
	return info, nil
}

// V2 extends V0 with a different opcode, a much smaller per-request block
// span, and a tighter timeout; response/init parsing are identical to V0.
type V2 struct{}

func (V2) ReadCmdOpcode() byte              { return 0x99 }
func (V2) BlocksPerRead() uint16            { return 6 }
func (V2) ConnectionTimeout() time.Duration { return 20 * time.Millisecond }

// BuildReadRequest: 0x00 || u32le(n) || u32le(6).
func (V2) BuildReadRequest(blockNum uint32) []byte {
	body := make([]byte, 1+4+4)
	binary.LittleEndian.PutUint32(body[1:5], blockNum)
	binary.LittleEndian.PutUint32(body[5:9], 6)
	return body
}

func (V2) ParseResponse(data []byte) (ParsedResponse, error) { return V0{}.ParseResponse(data) }
func (V2) ParseInit(data []byte) (InitInfo, error)           { return V0{}.ParseInit(data) }

// parseInitV0Layout implements the shared "skip n bytes, read three u32le,
// optionally read one trailing byte" shape used by V0/V1/V2 (spec §4.2).
// swapOrderNoPageCnt selects V1's swapped field order and absent page count;
// the caller performs the swap (this helper only decodes in on-wire order).
func parseInitV0Layout(data []byte, skip int, swapOrderNoPageCnt bool) (InitInfo, error) {
	need := skip + 12
	if len(data) < need {
		return InitInfo{}, ErrConfigError
	}
	rest := data[skip:]
	info := InitInfo{
		MaxBlockCnt:  binary.LittleEndian.Uint32(rest[0:4]),
		MaxBlockSize: binary.LittleEndian.Uint32(rest[4:8]),
		MaxPageSize:  binary.LittleEndian.Uint32(rest[8:12]),
	}
	if swapOrderNoPageCnt {
		return info, nil
	}
	if len(rest) > 12 {
		info.MaxPageCnt = rest[12]
		info.HasMaxPageCnt = true
	}
	return info, nil
}
