// Package snapshot implements the sparse entity-store snapshot codec,
// its binary framing, the small self-describing binary message codec
// used for wire values, and the ascending-fold state hash (spec.md
// §4.4). The binary framing follows the teacher's save-state format
// (EmulatorBase.Serialize/Deserialize/VerifyState in emu/emulator.go):
// a fixed magic, a version field, and a CRC32 over the payload, checked
// before any of it is trusted.
package snapshot

import (
	"encoding/binary"
	"errors"
	"math"
)

// Wire value type tags for the self-describing message codec (spec.md
// §4.4 "Binary message codec").
const (
	tagNull uint8 = iota
	tagBool
	tagU8
	tagU16
	tagU32
	tagI32
	tagF64
	tagString
	tagArray
	tagObject
)

// ErrTruncated is returned when a buffer ends before a length-prefixed
// value's declared length is satisfied.
var ErrTruncated = errors.New("snapshot: truncated message buffer")

// EncodeValue appends the self-describing wire encoding of v to buf and
// returns the result. Supported Go types: nil, bool, uint8, uint16,
// uint32, int32, float64, string, []any, map[string]any. Any other type
// is encoded as null.
func EncodeValue(buf []byte, v any) []byte {
	switch x := v.(type) {
	case nil:
		return append(buf, tagNull)
	case bool:
		b := uint8(0)
		if x {
			b = 1
		}
		return append(buf, tagBool, b)
	case uint8:
		return append(buf, tagU8, x)
	case uint16:
		buf = append(buf, tagU16)
		return binary.LittleEndian.AppendUint16(buf, x)
	case uint32:
		buf = append(buf, tagU32)
		return binary.LittleEndian.AppendUint32(buf, x)
	case int32:
		buf = append(buf, tagI32)
		return binary.LittleEndian.AppendUint32(buf, uint32(x))
	case float64:
		buf = append(buf, tagF64)
		return binary.LittleEndian.AppendUint64(buf, math.Float64bits(x))
	case string:
		buf = append(buf, tagString)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(x)))
		return append(buf, x...)
	case []any:
		buf = append(buf, tagArray)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(x)))
		for _, elem := range x {
			buf = EncodeValue(buf, elem)
		}
		return buf
	case map[string]any:
		buf = append(buf, tagObject)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(x)))
		for k, val := range x {
			buf = EncodeValue(buf, k)
			buf = EncodeValue(buf, val)
		}
		return buf
	default:
		return append(buf, tagNull)
	}
}

// DecodeValue reads one self-describing value from buf, returning the
// value and the number of bytes consumed. Decoding is strict about
// truncation but permissive about tags: an unrecognised type tag decodes
// to nil rather than erroring, per spec.md §4.4.
func DecodeValue(buf []byte) (any, int, error) {
	if len(buf) < 1 {
		return nil, 0, ErrTruncated
	}
	tag := buf[0]
	rest := buf[1:]
	switch tag {
	case tagNull:
		return nil, 1, nil
	case tagBool:
		if len(rest) < 1 {
			return nil, 0, ErrTruncated
		}
		return rest[0] != 0, 2, nil
	case tagU8:
		if len(rest) < 1 {
			return nil, 0, ErrTruncated
		}
		return rest[0], 2, nil
	case tagU16:
		if len(rest) < 2 {
			return nil, 0, ErrTruncated
		}
		return binary.LittleEndian.Uint16(rest), 3, nil
	case tagU32:
		if len(rest) < 4 {
			return nil, 0, ErrTruncated
		}
		return binary.LittleEndian.Uint32(rest), 5, nil
	case tagI32:
		if len(rest) < 4 {
			return nil, 0, ErrTruncated
		}
		return int32(binary.LittleEndian.Uint32(rest)), 5, nil
	case tagF64:
		if len(rest) < 8 {
			return nil, 0, ErrTruncated
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(rest)), 9, nil
	case tagString:
		return decodeString(rest, 1)
	case tagArray:
		if len(rest) < 4 {
			return nil, 0, ErrTruncated
		}
		n := binary.LittleEndian.Uint32(rest)
		off := 5
		rest = rest[4:]
		out := make([]any, 0, n)
		for i := uint32(0); i < n; i++ {
			v, consumed, err := DecodeValue(rest)
			if err != nil {
				return nil, 0, err
			}
			out = append(out, v)
			rest = rest[consumed:]
			off += consumed
		}
		return out, off, nil
	case tagObject:
		if len(rest) < 4 {
			return nil, 0, ErrTruncated
		}
		n := binary.LittleEndian.Uint32(rest)
		off := 5
		rest = rest[4:]
		out := make(map[string]any, n)
		for i := uint32(0); i < n; i++ {
			kv, consumed, err := DecodeValue(rest)
			if err != nil {
				return nil, 0, err
			}
			key, ok := kv.(string)
			if !ok {
				return nil, 0, errors.New("snapshot: object key was not a string")
			}
			rest = rest[consumed:]
			off += consumed

			val, consumed, err := DecodeValue(rest)
			if err != nil {
				return nil, 0, err
			}
			out[key] = val
			rest = rest[consumed:]
			off += consumed
		}
		return out, off, nil
	default:
		// Unknown tag: yield null, consuming only the tag byte so the
		// caller can keep decoding whatever framing wraps this value.
		return nil, 1, nil
	}
}

func decodeString(rest []byte, tagLen int) (any, int, error) {
	if len(rest) < 4 {
		return nil, 0, ErrTruncated
	}
	n := binary.LittleEndian.Uint32(rest)
	rest = rest[4:]
	if uint32(len(rest)) < n {
		return nil, 0, ErrTruncated
	}
	return string(rest[:n]), tagLen + 4 + int(n), nil
}
