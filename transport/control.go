package transport

import "encoding/json"

// The remaining message types spec.md §6 names (ROOM_JOINED, ROOM_CREATED,
// ERROR, SNAPSHOT_UPDATE, ROOM_LEFT, SYNC_HASH, CLIENT_LIST_UPDATE) carry
// no binary layout of their own — they are small, infrequent control-plane
// notices, so their payload is plain UTF-8 JSON, consistent with the "a
// payload first byte of '{' is treated as JSON" rule TICK's opaque input
// fields already follow.

// RoomJoinedPayload is the 0x03 ROOM_JOINED payload.
type RoomJoinedPayload struct {
	RoomID   string   `json:"roomId"`
	ClientID string   `json:"clientId"`
	Clients  []string `json:"clients"`
}

// RoomCreatedPayload is the 0x04 ROOM_CREATED payload.
type RoomCreatedPayload struct {
	RoomID   string `json:"roomId"`
	ClientID string `json:"clientId"`
}

// ErrorPayload is the 0x05 ERROR payload.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SnapshotUpdatePayload is the 0x06 SNAPSHOT_UPDATE payload: an
// authority broadcasting its periodic checkpoint (spec.md §4.6 "periodic
// snapshot broadcast by the authority, every ~100 frames").
type SnapshotUpdatePayload struct {
	Frame    uint32 `json:"frame"`
	Hash     string `json:"hash"`
	Snapshot []byte `json:"snapshot"`
}

// RoomLeftPayload is the 0x07 ROOM_LEFT payload.
type RoomLeftPayload struct {
	RoomID   string `json:"roomId"`
	ClientID string `json:"clientId"`
}

// SyncHashPayload is the 0x08 SYNC_HASH payload: a peer's state hash for
// a given frame, used for the drift report of spec.md §4.6.
type SyncHashPayload struct {
	Frame uint32 `json:"frame"`
	Hash  string `json:"hash"`
}

// ClientListUpdatePayload is the 0x09 CLIENT_LIST_UPDATE payload.
type ClientListUpdatePayload struct {
	RoomID  string   `json:"roomId"`
	Clients []string `json:"clients"`
}

// EncodeJSON marshals v and wraps it in a frame tagged with t. Intended
// for the control-message types in this file, not TICK/INITIAL_STATE/
// SEND_SNAPSHOT, which have their own binary codecs.
func EncodeJSON(t Type, v any) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return EncodeFrame(t, payload), nil
}

// DecodeJSON unmarshals a frame's payload into v.
func DecodeJSON(payload []byte, v any) error {
	return json.Unmarshal(payload, v)
}
