// Package transport implements the wire framing spec.md §6 describes for
// the networking collaborator: a one-byte message type tag followed by a
// type-specific payload. The kernel itself never opens a socket — this
// package only encodes and decodes frames, the same split romloader/loader.go
// draws between sniffing a container format and the caller that owns the
// file handle.
package transport

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// Type is the one-byte message tag prefixing every frame.
type Type byte

// Message types, verbatim from spec.md §6.
const (
	TypeTick             Type = 0x01
	TypeInitialState     Type = 0x02
	TypeRoomJoined       Type = 0x03
	TypeRoomCreated      Type = 0x04
	TypeError            Type = 0x05
	TypeSnapshotUpdate   Type = 0x06
	TypeRoomLeft         Type = 0x07
	TypeSyncHash         Type = 0x08
	TypeClientListUpdate Type = 0x09
	TypeBinaryInput      Type = 0x20
	TypeBinarySnapshot   Type = 0x21
	TypeSendSnapshot     Type = 0x23
)

// ErrFrameTooShort is returned when a buffer ends before a length-prefixed
// field it declared could be read.
var ErrFrameTooShort = errors.New("transport: frame too short")

// ErrEmptyFrame is returned when decoding a zero-length buffer, which
// cannot carry even the one-byte type tag.
var ErrEmptyFrame = errors.New("transport: empty frame")

// Frame wraps a decoded type tag with its remaining payload bytes.
type Frame struct {
	Type    Type
	Payload []byte
}

// EncodeFrame prepends t's one-byte tag to payload.
func EncodeFrame(t Type, payload []byte) []byte {
	out := make([]byte, 1+len(payload))
	out[0] = byte(t)
	copy(out[1:], payload)
	return out
}

// DecodeFrame splits a raw wire message into its type tag and payload.
func DecodeFrame(data []byte) (Frame, error) {
	if len(data) == 0 {
		return Frame{}, ErrEmptyFrame
	}
	return Frame{Type: Type(data[0]), Payload: data[1:]}, nil
}

// IsJSONPayload reports whether an opaque input/snapshot payload looks
// like JSON, per spec.md §6 ("JSON if the first byte is '{' or '['").
// Input payloads that aren't JSON are passed through opaque.
func IsJSONPayload(payload []byte) bool {
	if len(payload) == 0 {
		return false
	}
	return payload[0] == '{' || payload[0] == '['
}

// InputEntry is one client's input within a TICK message.
type InputEntry struct {
	ClientHash uint32
	Seq        uint32
	Data       []byte
}

// TickMessage is the 0x01 TICK payload: the authority's per-frame input
// broadcast, optionally carrying a snapshot checkpoint reference.
type TickMessage struct {
	Frame            uint32
	HasSnapshotFrame bool
	SnapshotFrame    uint32
	HasSnapshotHash  bool
	SnapshotHash     string
	Inputs           []InputEntry
}

// EncodeTick serializes m per spec.md §6's TICK layout: frame (u32-LE),
// a presence byte followed by snapshotFrame (u32-LE) when set, a presence
// byte followed by snapshotHash (u8 length + bytes) when set, input count
// (u8), then per-input clientHash (u32-LE), seq (u32-LE), dataLen
// (u16-LE), payload.
func EncodeTick(m TickMessage) ([]byte, error) {
	if len(m.Inputs) > 0xFF {
		return nil, fmt.Errorf("transport: tick has %d inputs, max 255", len(m.Inputs))
	}
	var buf bytes.Buffer
	writeU32(&buf, m.Frame)
	writeBool(&buf, m.HasSnapshotFrame)
	if m.HasSnapshotFrame {
		writeU32(&buf, m.SnapshotFrame)
	}
	writeBool(&buf, m.HasSnapshotHash)
	if m.HasSnapshotHash {
		if len(m.SnapshotHash) > 0xFF {
			return nil, fmt.Errorf("transport: snapshot hash %d bytes exceeds u8 length", len(m.SnapshotHash))
		}
		buf.WriteByte(byte(len(m.SnapshotHash)))
		buf.WriteString(m.SnapshotHash)
	}
	buf.WriteByte(byte(len(m.Inputs)))
	for _, in := range m.Inputs {
		if len(in.Data) > 0xFFFF {
			return nil, fmt.Errorf("transport: input payload %d bytes exceeds u16 length", len(in.Data))
		}
		writeU32(&buf, in.ClientHash)
		writeU32(&buf, in.Seq)
		writeU16(&buf, uint16(len(in.Data)))
		buf.Write(in.Data)
	}
	return buf.Bytes(), nil
}

// DecodeTick parses a TICK payload produced by EncodeTick.
func DecodeTick(payload []byte) (TickMessage, error) {
	r := bytes.NewReader(payload)
	var m TickMessage
	var err error
	if m.Frame, err = readU32(r); err != nil {
		return TickMessage{}, err
	}
	if m.HasSnapshotFrame, err = readBool(r); err != nil {
		return TickMessage{}, err
	}
	if m.HasSnapshotFrame {
		if m.SnapshotFrame, err = readU32(r); err != nil {
			return TickMessage{}, err
		}
	}
	if m.HasSnapshotHash, err = readBool(r); err != nil {
		return TickMessage{}, err
	}
	if m.HasSnapshotHash {
		hashLen, herr := r.ReadByte()
		if herr != nil {
			return TickMessage{}, ErrFrameTooShort
		}
		hashBytes := make([]byte, hashLen)
		if _, err := readFull(r, hashBytes); err != nil {
			return TickMessage{}, err
		}
		m.SnapshotHash = string(hashBytes)
	}
	count, err := r.ReadByte()
	if err != nil {
		return TickMessage{}, ErrFrameTooShort
	}
	m.Inputs = make([]InputEntry, 0, count)
	for i := 0; i < int(count); i++ {
		var in InputEntry
		if in.ClientHash, err = readU32(r); err != nil {
			return TickMessage{}, err
		}
		if in.Seq, err = readU32(r); err != nil {
			return TickMessage{}, err
		}
		dataLen, err := readU16(r)
		if err != nil {
			return TickMessage{}, err
		}
		in.Data = make([]byte, dataLen)
		if _, err := readFull(r, in.Data); err != nil {
			return TickMessage{}, err
		}
		m.Inputs = append(m.Inputs, in)
	}
	return m, nil
}

// InitialStateMessage is the 0x02 INITIAL_STATE payload sent to a client
// joining mid-match: the frame to resume at, the room id, a snapshot
// blob, and the confirmed input history needed to replay forward.
type InitialStateMessage struct {
	Frame    uint32
	RoomID   string
	Snapshot []byte
	History  [][]byte
}

// EncodeInitialState serializes m: frame (u32-LE), roomId (u16-LE length
// + UTF-8), snapshot (u32-LE length + bytes), history entry count (u32-LE)
// then each entry as u32-LE length + bytes.
func EncodeInitialState(m InitialStateMessage) ([]byte, error) {
	var buf bytes.Buffer
	writeU32(&buf, m.Frame)
	if err := writeLenPrefixedString(&buf, m.RoomID); err != nil {
		return nil, err
	}
	writeU32(&buf, uint32(len(m.Snapshot)))
	buf.Write(m.Snapshot)
	writeU32(&buf, uint32(len(m.History)))
	for _, entry := range m.History {
		writeU32(&buf, uint32(len(entry)))
		buf.Write(entry)
	}
	return buf.Bytes(), nil
}

// DecodeInitialState parses an INITIAL_STATE payload produced by
// EncodeInitialState.
func DecodeInitialState(payload []byte) (InitialStateMessage, error) {
	r := bytes.NewReader(payload)
	var m InitialStateMessage
	var err error
	if m.Frame, err = readU32(r); err != nil {
		return InitialStateMessage{}, err
	}
	if m.RoomID, err = readLenPrefixedString(r); err != nil {
		return InitialStateMessage{}, err
	}
	snapLen, err := readU32(r)
	if err != nil {
		return InitialStateMessage{}, err
	}
	m.Snapshot = make([]byte, snapLen)
	if _, err := readFull(r, m.Snapshot); err != nil {
		return InitialStateMessage{}, err
	}
	historyCount, err := readU32(r)
	if err != nil {
		return InitialStateMessage{}, err
	}
	m.History = make([][]byte, 0, historyCount)
	for i := uint32(0); i < historyCount; i++ {
		entryLen, err := readU32(r)
		if err != nil {
			return InitialStateMessage{}, err
		}
		entry := make([]byte, entryLen)
		if _, err := readFull(r, entry); err != nil {
			return InitialStateMessage{}, err
		}
		m.History = append(m.History, entry)
	}
	return m, nil
}

// SendSnapshotMessage is the 0x23 SEND_SNAPSHOT payload: a client
// volunteering its locally computed snapshot for a given frame, tagged
// with a hex state hash the authority can compare before trusting it.
type SendSnapshotMessage struct {
	Seq     uint32
	Frame   uint32
	HashHex string
	Payload []byte
}

// EncodeSendSnapshot serializes m: seq (u32-LE), frame (u32-LE), hash
// length (u8) + ASCII hex digits, then the raw snapshot payload.
func EncodeSendSnapshot(m SendSnapshotMessage) ([]byte, error) {
	if len(m.HashHex) > 0xFF {
		return nil, fmt.Errorf("transport: hash hex %d bytes exceeds u8 length", len(m.HashHex))
	}
	var buf bytes.Buffer
	writeU32(&buf, m.Seq)
	writeU32(&buf, m.Frame)
	buf.WriteByte(byte(len(m.HashHex)))
	buf.WriteString(m.HashHex)
	buf.Write(m.Payload)
	return buf.Bytes(), nil
}

// DecodeSendSnapshot parses a SEND_SNAPSHOT payload produced by
// EncodeSendSnapshot. Whatever remains after the hash field is the
// snapshot payload verbatim.
func DecodeSendSnapshot(payload []byte) (SendSnapshotMessage, error) {
	r := bytes.NewReader(payload)
	var m SendSnapshotMessage
	var err error
	if m.Seq, err = readU32(r); err != nil {
		return SendSnapshotMessage{}, err
	}
	if m.Frame, err = readU32(r); err != nil {
		return SendSnapshotMessage{}, err
	}
	hashLen, err := r.ReadByte()
	if err != nil {
		return SendSnapshotMessage{}, ErrFrameTooShort
	}
	hashBytes := make([]byte, hashLen)
	if _, err := readFull(r, hashBytes); err != nil {
		return SendSnapshotMessage{}, err
	}
	m.HashHex = string(hashBytes)
	rest := make([]byte, r.Len())
	if _, err := readFull(r, rest); err != nil {
		return SendSnapshotMessage{}, err
	}
	m.Payload = rest
	return m, nil
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	buf.Write(tmp[:])
}

func writeU16(buf *bytes.Buffer, v uint16) {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	buf.Write(tmp[:])
}

func writeBool(buf *bytes.Buffer, v bool) {
	if v {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
}

func writeLenPrefixedString(buf *bytes.Buffer, s string) error {
	if len(s) > 0xFFFF {
		return fmt.Errorf("transport: string %d bytes exceeds u16 length", len(s))
	}
	writeU16(buf, uint16(len(s)))
	buf.WriteString(s)
	return nil
}

func readU32(r *bytes.Reader) (uint32, error) {
	var tmp [4]byte
	if _, err := readFull(r, tmp[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(tmp[:]), nil
}

func readU16(r *bytes.Reader) (uint16, error) {
	var tmp [2]byte
	if _, err := readFull(r, tmp[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(tmp[:]), nil
}

func readBool(r *bytes.Reader) (bool, error) {
	b, err := r.ReadByte()
	if err != nil {
		return false, ErrFrameTooShort
	}
	return b != 0, nil
}

func readLenPrefixedString(r *bytes.Reader) (string, error) {
	n, err := readU16(r)
	if err != nil {
		return "", err
	}
	data := make([]byte, n)
	if _, err := readFull(r, data); err != nil {
		return "", err
	}
	return string(data), nil
}

func readFull(r *bytes.Reader, buf []byte) (int, error) {
	n, err := r.Read(buf)
	if err != nil && len(buf) > 0 {
		return n, ErrFrameTooShort
	}
	if n != len(buf) {
		return n, ErrFrameTooShort
	}
	return n, nil
}
