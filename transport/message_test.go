package transport

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeFrameRoundTrip(t *testing.T) {
	wire := EncodeFrame(TypeError, []byte("boom"))
	if wire[0] != byte(TypeError) {
		t.Fatalf("wire[0] = %x, want %x", wire[0], TypeError)
	}
	f, err := DecodeFrame(wire)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if f.Type != TypeError || string(f.Payload) != "boom" {
		t.Fatalf("f = %+v", f)
	}
}

func TestDecodeFrameEmptyFails(t *testing.T) {
	if _, err := DecodeFrame(nil); err != ErrEmptyFrame {
		t.Fatalf("err = %v, want ErrEmptyFrame", err)
	}
}

func TestIsJSONPayload(t *testing.T) {
	cases := []struct {
		payload []byte
		want    bool
	}{
		{[]byte(`{"x":1}`), true},
		{[]byte(`[1,2]`), true},
		{[]byte{0x01, 0x02}, false},
		{nil, false},
	}
	for _, c := range cases {
		if got := IsJSONPayload(c.payload); got != c.want {
			t.Errorf("IsJSONPayload(%v) = %v, want %v", c.payload, got, c.want)
		}
	}
}

func TestEncodeDecodeTickRoundTrip(t *testing.T) {
	m := TickMessage{
		Frame:            50,
		HasSnapshotFrame: true,
		SnapshotFrame:    48,
		HasSnapshotHash:  true,
		SnapshotHash:     "abc123",
		Inputs: []InputEntry{
			{ClientHash: 0xDEADBEEF, Seq: 7, Data: []byte(`{"w":true}`)},
			{ClientHash: 0x1, Seq: 0, Data: []byte{0xFF, 0x00}},
		},
	}
	wire, err := EncodeTick(m)
	if err != nil {
		t.Fatalf("EncodeTick: %v", err)
	}
	got, err := DecodeTick(wire)
	if err != nil {
		t.Fatalf("DecodeTick: %v", err)
	}
	if got.Frame != m.Frame || got.SnapshotFrame != m.SnapshotFrame || got.SnapshotHash != m.SnapshotHash {
		t.Fatalf("got = %+v", got)
	}
	if len(got.Inputs) != 2 {
		t.Fatalf("len(Inputs) = %d, want 2", len(got.Inputs))
	}
	if got.Inputs[0].ClientHash != 0xDEADBEEF || got.Inputs[0].Seq != 7 {
		t.Fatalf("Inputs[0] = %+v", got.Inputs[0])
	}
	if !bytes.Equal(got.Inputs[0].Data, []byte(`{"w":true}`)) {
		t.Fatalf("Inputs[0].Data = %q", got.Inputs[0].Data)
	}
	if !IsJSONPayload(got.Inputs[0].Data) {
		t.Fatalf("Inputs[0].Data should be detected as JSON")
	}
	if IsJSONPayload(got.Inputs[1].Data) {
		t.Fatalf("Inputs[1].Data should not be detected as JSON")
	}
}

func TestEncodeTickNoSnapshotFields(t *testing.T) {
	m := TickMessage{Frame: 1, Inputs: nil}
	wire, err := EncodeTick(m)
	if err != nil {
		t.Fatalf("EncodeTick: %v", err)
	}
	got, err := DecodeTick(wire)
	if err != nil {
		t.Fatalf("DecodeTick: %v", err)
	}
	if got.HasSnapshotFrame || got.HasSnapshotHash || len(got.Inputs) != 0 {
		t.Fatalf("got = %+v", got)
	}
}

func TestEncodeDecodeInitialStateRoundTrip(t *testing.T) {
	m := InitialStateMessage{
		Frame:    100,
		RoomID:   "room-42",
		Snapshot: []byte{0x01, 0x02, 0x03},
		History:  [][]byte{[]byte("frame0"), []byte("frame1")},
	}
	wire, err := EncodeInitialState(m)
	if err != nil {
		t.Fatalf("EncodeInitialState: %v", err)
	}
	got, err := DecodeInitialState(wire)
	if err != nil {
		t.Fatalf("DecodeInitialState: %v", err)
	}
	if got.Frame != 100 || got.RoomID != "room-42" {
		t.Fatalf("got = %+v", got)
	}
	if !bytes.Equal(got.Snapshot, m.Snapshot) {
		t.Fatalf("Snapshot = %v", got.Snapshot)
	}
	if len(got.History) != 2 || string(got.History[0]) != "frame0" || string(got.History[1]) != "frame1" {
		t.Fatalf("History = %v", got.History)
	}
}

func TestEncodeDecodeSendSnapshotRoundTrip(t *testing.T) {
	m := SendSnapshotMessage{
		Seq:     3,
		Frame:   9000,
		HashHex: "deadbeef",
		Payload: []byte{0x10, 0x20, 0x30},
	}
	wire, err := EncodeSendSnapshot(m)
	if err != nil {
		t.Fatalf("EncodeSendSnapshot: %v", err)
	}
	got, err := DecodeSendSnapshot(wire)
	if err != nil {
		t.Fatalf("DecodeSendSnapshot: %v", err)
	}
	if got.Seq != 3 || got.Frame != 9000 || got.HashHex != "deadbeef" {
		t.Fatalf("got = %+v", got)
	}
	if !bytes.Equal(got.Payload, m.Payload) {
		t.Fatalf("Payload = %v", got.Payload)
	}
}

func TestDecodeTickTruncatedFails(t *testing.T) {
	m := TickMessage{Frame: 1, Inputs: []InputEntry{{ClientHash: 1, Seq: 1, Data: []byte("x")}}}
	wire, err := EncodeTick(m)
	if err != nil {
		t.Fatalf("EncodeTick: %v", err)
	}
	truncated := wire[:len(wire)-2]
	if _, err := DecodeTick(truncated); err == nil {
		t.Fatalf("DecodeTick on truncated frame should fail")
	}
}

func TestEncodeTickRejectsTooManyInputs(t *testing.T) {
	inputs := make([]InputEntry, 256)
	if _, err := EncodeTick(TickMessage{Inputs: inputs}); err == nil {
		t.Fatalf("EncodeTick should reject 256 inputs")
	}
}
