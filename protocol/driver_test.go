// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/lzo

package protocol

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/relgoeth/lgqc"
)

// scriptedFramer replays a fixed sequence of response frames, one per Recv
// call, and records every sent packet for later assertion.
type scriptedFramer struct {
	frames  [][]byte
	sent    [][]byte
	timeout time.Duration
}

func (s *scriptedFramer) Send(body []byte, emptyHeader bool) error {
	s.sent = append(s.sent, append([]byte{}, body...))
	return nil
}

func (s *scriptedFramer) Recv() ([]byte, error) {
	if len(s.frames) == 0 {
		return nil, nil
	}
	f := s.frames[0]
	s.frames = s.frames[1:]
	return f, nil
}

func (s *scriptedFramer) SetTimeout(d time.Duration) { s.timeout = d }

// optimalResultBufferForTest returns the mid-stream flush threshold used by
// newTestDecompressor (lgqc's exported OptimalResultBuffer), so tests can
// size a literal relative to it.
func optimalResultBufferForTest() int {
	return lgqc.OptimalResultBuffer
}

// newTestDecompressor builds a Decompressor with the same window sizing
// internalEMMCRead tests assume (optimalResultBufferForTest), via lgqc's
// public Options rather than poking unexported fields.
func newTestDecompressor() *lgqc.Decompressor {
	return lgqc.New(&lgqc.Options{OptimalResultBuffer: optimalResultBufferForTest()})
}

func putU32leD(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

// buildV0InitResponse builds a short (non-V1/V2-selecting) NAND_INIT response
// body matching V0's parse_init layout.
func buildV0InitResponse() []byte {
	body := make([]byte, 5+12+1)
	rest := body[5:]
	putU32leD(rest[0:4], 64)
	putU32leD(rest[4:8], 512)
	putU32leD(rest[8:12], 4096)
	rest[12] = 4
	return body
}

func TestDriver_IdentifyConfiguration_SelectsV0(t *testing.T) {
	initResp := buildV0InitResponse()
	modelResp := append([]byte{byte(len("GENERIC_PHONE"))}, []byte("GENERIC_PHONE")...)

	f := &scriptedFramer{frames: [][]byte{
		append([]byte{opNandInit}, initResp...),
		append([]byte{opVerrsp}, modelResp...),
	}}
	d := NewDriver(f)

	resp, err := d.identifyConfiguration()
	if err != nil {
		t.Fatalf("identifyConfiguration failed: %v", err)
	}
	if diff := cmp.Diff(initResp, resp); diff != "" {
		t.Fatalf("init response mismatch (-want +got):\n%s", diff)
	}
	if d.Model() != "GENERIC_PHONE" {
		t.Fatalf("Model() = %q", d.Model())
	}
	if _, ok := d.variant.(V0); !ok {
		t.Fatalf("expected V0 selection, got %T", d.variant)
	}
	if f.timeout != (V0{}).ConnectionTimeout() {
		t.Fatalf("framer timeout = %v, want %v", f.timeout, (V0{}).ConnectionTimeout())
	}
}

func TestDriver_InternalInit_PopulatesInfo(t *testing.T) {
	initResp := buildV0InitResponse()
	modelResp := append([]byte{byte(len("GENERIC_PHONE"))}, []byte("GENERIC_PHONE")...)

	f := &scriptedFramer{frames: [][]byte{
		append([]byte{opNandInit}, initResp...),
		append([]byte{opVerrsp}, modelResp...),
	}}
	d := NewDriver(f)

	if err := d.InternalInit(); err != nil {
		t.Fatalf("InternalInit failed: %v", err)
	}
	want := InitInfo{MaxBlockCnt: 64, MaxBlockSize: 512, MaxPageSize: 4096, MaxPageCnt: 4, HasMaxPageCnt: true}
	if diff := cmp.Diff(want, d.Info()); diff != "" {
		t.Fatalf("Info() mismatch (-want +got):\n%s", diff)
	}
}

// TestDriver_InternalEMMCRead_VerbatimPayload covers the not-compressed
// branch: the response payload is returned unchanged and HasMore clears.
func TestDriver_InternalEMMCRead_VerbatimPayload(t *testing.T) {
	d := &Driver{framer: &scriptedFramer{}, variant: V0{}, decomp: lgqc.New(nil)}
	resp := make([]byte, 18)
	resp[14] = 0 // is_compressed = false
	copy(resp[15:], []byte{0x01, 0x02, 0x03})

	sf := &scriptedFramer{frames: [][]byte{append([]byte{d.variant.ReadCmdOpcode()}, resp...)}}
	d.framer = sf

	out, err := d.InternalEMMCRead(5)
	if err != nil {
		t.Fatalf("InternalEMMCRead failed: %v", err)
	}
	if diff := cmp.Diff([]byte{0x01, 0x02, 0x03}, out); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
	if d.HasMore() {
		t.Fatal("expected HasMore = false for a verbatim payload")
	}
}

// TestDriver_InternalEMMCRead_CompressedFeedsDecompressor covers the
// compressed branch: the payload is fed to the Decompressor and its output
// returned.
func TestDriver_InternalEMMCRead_CompressedFeedsDecompressor(t *testing.T) {
	d := &Driver{variant: V0{}, decomp: newTestDecompressor()}
	resp := make([]byte, 20)
	resp[14] = 1 // is_compressed = true
	// Uncompressed short-literal block: E3 'h' 'i' '!' 06
	copy(resp[15:], []byte{0xE3, 'h', 'i', '!', 0x06})

	sf := &scriptedFramer{frames: [][]byte{append([]byte{d.variant.ReadCmdOpcode()}, resp...)}}
	d.framer = sf

	out, err := d.InternalEMMCRead(1)
	if err != nil {
		t.Fatalf("InternalEMMCRead failed: %v", err)
	}
	if !bytes.Equal(out, []byte("hi!")) {
		t.Fatalf("got %q, want %q", out, "hi!")
	}
	if d.HasMore() {
		t.Fatal("expected HasMore = false once the block's end marker is reached")
	}
}

// TestDriver_InternalEMMCRead_PumpsPendingChunks covers the has-more pump
// path: a call with decomp.HasMore() already true must drain the next
// chunk instead of issuing a new wire request.
func TestDriver_InternalEMMCRead_PumpsPendingChunks(t *testing.T) {
	sf := &scriptedFramer{}
	d := &Driver{framer: sf, variant: V0{}, decomp: newTestDecompressor()}

	big := bytes.Repeat([]byte{0x42}, 2*optimalResultBufferForTest())
	var packed []byte
	for i := 0; i < len(big); {
		end := i + 64
		if end > len(big) {
			end = len(big)
		}
		chunk := big[i:end]
		if len(chunk) >= 16 {
			packed = append(packed, 0xE0, byte(len(chunk)-16))
		} else {
			packed = append(packed, 0xE0|byte(len(chunk)))
		}
		packed = append(packed, chunk...)
		i = end
	}
	packed = append(packed, 0x06)

	resp := make([]byte, 15+len(packed))
	resp[14] = 1
	copy(resp[15:], packed)
	sf.frames = [][]byte{append([]byte{d.variant.ReadCmdOpcode()}, resp...)}

	var out []byte
	chunk, err := d.InternalEMMCRead(2)
	if err != nil {
		t.Fatalf("InternalEMMCRead failed: %v", err)
	}
	out = append(out, chunk...)
	for d.HasMore() {
		if len(sf.frames) != 0 {
			t.Fatal("pump path must not issue a new wire request")
		}
		chunk, err = d.InternalEMMCRead(2)
		if err != nil {
			t.Fatalf("InternalEMMCRead pump failed: %v", err)
		}
		out = append(out, chunk...)
	}
	if !bytes.Equal(out, big) {
		t.Fatalf("pumped output length %d, want %d", len(out), len(big))
	}
}

func TestDriver_GetModel(t *testing.T) {
	// The device's raw version string is "/"-delimited; GetModel must
	// normalize it to "_" so SelectVariant's substring checks can match
	// (spec §4.3, matching the original's get_model = get_version().replace).
	version := "VS840_LGE430/V10a"
	modelResp := append([]byte{byte(len(version))}, []byte(version)...)
	f := &scriptedFramer{frames: [][]byte{append([]byte{opVerrsp}, modelResp...)}}
	d := NewDriver(f)

	got, err := d.GetModel()
	if err != nil {
		t.Fatalf("GetModel failed: %v", err)
	}
	if want := "VS840_LGE430_V10a"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestDriver_GetImplementation(t *testing.T) {
	implResp := append([]byte{byte(len("ABC123"))}, []byte("ABC123")...)
	f := &scriptedFramer{frames: [][]byte{append([]byte{opParams}, implResp...)}}
	d := NewDriver(f)

	got, err := d.GetImplementation()
	if err != nil {
		t.Fatalf("GetImplementation failed: %v", err)
	}
	if got != "ABC123" {
		t.Fatalf("got %q, want %q", got, "ABC123")
	}
}

func TestDriver_Ping(t *testing.T) {
	f := &scriptedFramer{frames: [][]byte{{opAck}}}
	d := NewDriver(f)
	if err := d.Ping(); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}

func TestDriver_ReadRAM(t *testing.T) {
	resp := make([]byte, 6+4)
	copy(resp[6:], []byte{0xDE, 0xAD, 0xBE, 0xEF})
	f := &scriptedFramer{frames: [][]byte{append([]byte{opMemReadResp}, resp...)}}
	d := NewDriver(f)

	got, err := d.ReadRAM(0x1000, 4)
	if err != nil {
		t.Fatalf("ReadRAM failed: %v", err)
	}
	if diff := cmp.Diff([]byte{0xDE, 0xAD, 0xBE, 0xEF}, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	wantSent := []byte{opMemReadReq, 0x00, 0x00, 0x10, 0x00, 0x00, 0x04}
	if diff := cmp.Diff(wantSent, f.sent[0]); diff != "" {
		t.Fatalf("sent packet mismatch (-want +got):\n%s", diff)
	}
}

func TestDriver_SetHighPermissions(t *testing.T) {
	f := &scriptedFramer{frames: [][]byte{{opAck}}}
	d := NewDriver(f)
	if err := d.SetHighPermissions(HighPermissionCode()); err != nil {
		t.Fatalf("SetHighPermissions failed: %v", err)
	}
	wantSent := append([]byte{opUnlock}, HighPermissionCode()...)
	if diff := cmp.Diff(wantSent, f.sent[0]); diff != "" {
		t.Fatalf("sent packet mismatch (-want +got):\n%s", diff)
	}
}

func TestDriver_SwitchToDownloadMode_EmptyHeaderFallback(t *testing.T) {
	f := &scriptedFramer{frames: [][]byte{{0x99}, {opDloadSwitch}}}
	d := NewDriver(f)
	if err := d.SwitchToDownloadMode(); err != nil {
		t.Fatalf("SwitchToDownloadMode failed: %v", err)
	}
}

func TestDriver_DebugInfo(t *testing.T) {
	var body []byte
	body = append(body, 1, 0x00, 0x01, 0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00, 0x03)
	body = append(body, []byte("a\x00b\x00")...)
	body = append(body, 0)

	f := &scriptedFramer{frames: [][]byte{append([]byte{opMemDebugInfo}, body...)}}
	d := NewDriver(f)

	got, err := d.DebugInfo()
	if err != nil {
		t.Fatalf("DebugInfo failed: %v", err)
	}
	if len(got) != 1 || got[0].Name1 != "a" || got[0].Name2 != "b" {
		t.Fatalf("unexpected records: %+v", got)
	}
}

func TestDriver_WriteAndGoAndResetAndPowerOff(t *testing.T) {
	f := &scriptedFramer{frames: [][]byte{{opAck}, {opAck}, {opAck}, {opAck}, {opAck}}}
	d := NewDriver(f)

	if err := d.Write24(0x010203, []byte{0xAA}); err != nil {
		t.Fatalf("Write24 failed: %v", err)
	}
	if err := d.Write32(0x01020304, []byte{0xBB}); err != nil {
		t.Fatalf("Write32 failed: %v", err)
	}
	if err := d.Go(0x01020304); err != nil {
		t.Fatalf("Go failed: %v", err)
	}
	if err := d.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if err := d.PowerOff(); err != nil {
		t.Fatalf("PowerOff failed: %v", err)
	}

	wantWrite24 := []byte{opWrite24, 0x01, 0x02, 0x03, 0x00, 0x01, 0xAA}
	if diff := cmp.Diff(wantWrite24, f.sent[0]); diff != "" {
		t.Fatalf("Write24 packet mismatch (-want +got):\n%s", diff)
	}
}
