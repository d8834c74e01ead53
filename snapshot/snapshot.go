package snapshot

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"log"
	"sort"

	"github.com/lockstep/kernel/ecs"
	"github.com/lockstep/kernel/fixed"
)

const (
	magic        = "LOCKSTEPSNAP"
	formatVer    = uint16(1)
	headerSize   = len(magic) + 2 + 4 // magic + version + crc32
)

// ErrBadMagic is returned by Decode when the header's magic bytes don't
// match, mirroring EmulatorBase.VerifyState's magic check.
var ErrBadMagic = errors.New("snapshot: invalid magic bytes")

// ErrUnsupportedVersion is returned when the header's version is newer
// than this build understands.
var ErrUnsupportedVersion = errors.New("snapshot: unsupported version")

// ErrCorrupt is returned when the payload's CRC32 doesn't match the
// header's recorded checksum.
var ErrCorrupt = errors.New("snapshot: CRC32 mismatch")

type entityMeta struct {
	ID       uint32  `json:"id"`
	TypeName string  `json:"type"`
	ClientID *uint32 `json:"clientId,omitempty"`
}

type internEntryMeta struct {
	ID        uint32 `json:"id"`
	Namespace string `json:"ns"`
	Value     string `json:"value"`
}

type meta struct {
	Components        []string          `json:"components"`
	Entities          []entityMeta      `json:"entities"`
	AllocNextIndex    uint32            `json:"allocNextIndex"`
	AllocFreeList     []uint32          `json:"allocFreeList"`
	AllocGenerations  []uint16          `json:"allocGenerations"`
	Interner          []internEntryMeta `json:"interner"`
	PRNGState0        uint32            `json:"prngS0"`
	PRNGState1        uint32            `json:"prngS1"`
	Frame             uint32            `json:"frame"`
	ConfirmedInputSeq uint32            `json:"confirmedInputSeq"`
}

// Encode produces the binary snapshot of w's current state, following
// spec.md §4.4. prng's state is embedded since the kernel's PRNG is
// process-global (spec.md §9 "Global PRNG") rather than world-owned.
func Encode(w *ecs.World, prng *fixed.PRNG) ([]byte, error) {
	ids := w.ActiveIDs()

	var entities []entityMeta
	for _, id := range ids {
		em := entityMeta{ID: uint32(id), TypeName: w.TypeName(id)}
		if cid, ok := w.ClientIDOf(id); ok {
			c := cid
			em.ClientID = &c
		}
		entities = append(entities, em)
	}

	var components []string
	for _, name := range w.ComponentNames() {
		def, ok := w.Component(name)
		if ok && def.Sync {
			components = append(components, name)
		}
	}

	var interned []internEntryMeta
	for _, e := range w.Interner().Entries() {
		interned = append(interned, internEntryMeta{ID: e.ID, Namespace: e.Namespace, Value: e.Value})
	}

	prngState := prng.Save()

	m := meta{
		Components:        components,
		Entities:          entities,
		AllocNextIndex:    w.Allocator().NextIndex(),
		AllocFreeList:     w.Allocator().FreeList(),
		AllocGenerations:  w.Allocator().Generations(),
		Interner:          interned,
		PRNGState0:        prngState.S0,
		PRNGState1:        prngState.S1,
		Frame:             w.Frame(),
		ConfirmedInputSeq: w.ConfirmedInputSeq(),
	}

	metaBytes, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("snapshot: marshal meta: %w", err)
	}

	bitmap := encodeBitmap(ids, w.Allocator().NextIndex())

	var payload []byte
	payload = binary.LittleEndian.AppendUint32(payload, uint32(len(metaBytes)))
	payload = append(payload, metaBytes...)
	payload = binary.LittleEndian.AppendUint32(payload, uint32(len(bitmap)))
	payload = append(payload, bitmap...)

	for _, name := range components {
		col := w.Column(name)
		def, _ := w.Component(name)
		payload = append(payload, packColumn(w, col, def, entities)...)
	}

	out := make([]byte, 0, headerSize+len(payload))
	out = append(out, []byte(magic)...)
	out = binary.LittleEndian.AppendUint16(out, formatVer)
	crc := crc32.ChecksumIEEE(payload)
	out = binary.LittleEndian.AppendUint32(out, crc)
	out = append(out, payload...)
	return out, nil
}

func encodeBitmap(ids []ecs.EntityID, capacity uint32) []byte {
	bitmap := make([]byte, (capacity+7)/8)
	for _, id := range ids {
		idx := id.Index()
		bitmap[idx/8] |= 1 << (idx % 8)
	}
	return bitmap
}

// packColumn emits the concatenation of each field's values, in schema
// order, for the ids in entities, in that same order. Fields not in an
// entity's type sync allow-list are written as their zero value rather
// than omitted, keeping every per-entity slot a fixed width.
func packColumn(w *ecs.World, col *ecs.Column, def *ecs.ComponentDef, entities []entityMeta) []byte {
	var out []byte
	for fieldIdx, field := range def.Fields {
		for _, em := range entities {
			id := ecs.EntityID(em.ID)
			allowed := fieldAllowed(w, em.TypeName, def.Name, field.Name)
			index := id.Index()
			switch field.Type {
			case ecs.FieldFixed:
				v := int32(0)
				if allowed && col.HasIndex(index) {
					v = int32(col.GetFixed(index, fieldIdx))
				}
				out = binary.LittleEndian.AppendUint32(out, uint32(v))
			case ecs.FieldU8:
				v := uint8(0)
				if allowed && col.HasIndex(index) {
					v = col.GetU8(index, fieldIdx)
				}
				out = append(out, v)
			case ecs.FieldBool:
				v := uint8(0)
				if allowed && col.HasIndex(index) && col.GetBool(index, fieldIdx) {
					v = 1
				}
				out = append(out, v)
			case ecs.FieldF32:
				// f32 fields are render-only and never synced; schema
				// validation warns if sync=true carries one, but guard
				// here too rather than trust that warning was heeded.
				out = binary.LittleEndian.AppendUint32(out, 0)
			}
		}
	}
	return out
}

func fieldAllowed(w *ecs.World, typeName, component, field string) bool {
	typeDef, ok := w.EntityType(typeName)
	if !ok {
		return true
	}
	allow, has := typeDef.SyncFields(component)
	if !has {
		return true
	}
	for _, f := range allow {
		if f == field {
			return true
		}
	}
	return false
}

// Decode restores w (which must already have every component/entity
// type registered that the snapshot can reference) from a blob produced
// by Encode, and returns the restored PRNG state for the caller to load
// into the process-global PRNG. Per spec.md §7, an entity referencing a
// type the receiver never registered is skipped with a warning rather
// than aborting the whole restore.
func Decode(w *ecs.World, data []byte) (fixed.State, error) {
	if len(data) < headerSize {
		return fixed.State{}, ErrCorrupt
	}
	if string(data[:len(magic)]) != magic {
		return fixed.State{}, ErrBadMagic
	}
	off := len(magic)
	version := binary.LittleEndian.Uint16(data[off : off+2])
	off += 2
	if version > formatVer {
		return fixed.State{}, ErrUnsupportedVersion
	}
	expectedCRC := binary.LittleEndian.Uint32(data[off : off+4])
	off += 4
	payload := data[off:]
	if crc32.ChecksumIEEE(payload) != expectedCRC {
		return fixed.State{}, ErrCorrupt
	}

	if len(payload) < 4 {
		return fixed.State{}, ErrCorrupt
	}
	metaLen := binary.LittleEndian.Uint32(payload)
	payload = payload[4:]
	if uint32(len(payload)) < metaLen {
		return fixed.State{}, ErrCorrupt
	}
	var m meta
	if err := json.Unmarshal(payload[:metaLen], &m); err != nil {
		return fixed.State{}, fmt.Errorf("snapshot: unmarshal meta: %w", err)
	}
	payload = payload[metaLen:]

	if len(payload) < 4 {
		return fixed.State{}, ErrCorrupt
	}
	bitmapLen := binary.LittleEndian.Uint32(payload)
	payload = payload[4:]
	if uint32(len(payload)) < bitmapLen {
		return fixed.State{}, ErrCorrupt
	}
	payload = payload[bitmapLen:] // bitmap is redundant with meta.Entities on decode; kept for wire parity

	clearWorld(w)

	freeList := append([]uint32(nil), m.AllocFreeList...)
	for _, em := range m.Entities {
		if _, ok := w.EntityType(em.TypeName); ok {
			continue
		}
		log.Printf("snapshot: skipping entity %d of unregistered type %q", em.ID, em.TypeName)
		// This index was live on the encoding side but its type isn't
		// registered here; it must not just sit unoccupied-and-
		// unreachable, or the allocator would leak that index forever.
		freeList = append(freeList, ecs.EntityID(em.ID).Index())
	}
	sort.Slice(freeList, func(i, j int) bool { return freeList[i] < freeList[j] })

	w.Allocator().RestoreState(m.AllocNextIndex, freeList, m.AllocGenerations, allOccupied(w, m))

	var interned []ecs.Entry
	for _, e := range m.Interner {
		interned = append(interned, ecs.Entry{ID: e.ID, Namespace: e.Namespace, Value: e.Value})
	}
	w.Interner().RestoreEntries(interned)

	w.SetFrame(m.Frame)
	w.SetConfirmedInputSeq(m.ConfirmedInputSeq)

	for _, em := range m.Entities {
		if _, ok := w.EntityType(em.TypeName); !ok {
			continue // ErrUnknownEntityType condition: skip, don't abort (spec.md §7)
		}
		if err := w.SpawnWithID(em.TypeName, ecs.EntityID(em.ID), nil); err != nil {
			continue
		}
		if em.ClientID != nil {
			_ = w.SetClientID(ecs.EntityID(em.ID), *em.ClientID)
		}
	}

	// Packed columns were written against the full encode-side entity
	// list, regardless of whether this receiver recognises every type
	// (the encoder has no way to know that) — so unpacking must walk the
	// same full list to stay byte-aligned, even though entities whose
	// type this world never registered were never spawned above and so
	// are simply skipped by the presence check inside unpackColumn.
	for _, name := range m.Components {
		col := w.Column(name)
		def, ok := w.Component(name)
		if col == nil || !ok {
			continue
		}
		unpackColumn(col, def, m.Entities, payload)
		payload = payload[columnByteLen(def, len(m.Entities)):]
	}

	return fixed.State{S0: m.PRNGState0, S1: m.PRNGState1}, nil
}

// allOccupied marks only the indices of entities whose type w actually
// has registered: an index belonging to an unrecognised type must not
// be marked occupied, or it would permanently leak from the allocator
// (never spawned, so never reachable to destroy and free it again).
func allOccupied(w *ecs.World, m meta) []bool {
	out := make([]bool, m.AllocNextIndex)
	for _, em := range m.Entities {
		if _, ok := w.EntityType(em.TypeName); !ok {
			continue
		}
		idx := ecs.EntityID(em.ID).Index()
		if idx < uint32(len(out)) {
			out[idx] = true
		}
	}
	return out
}

func clearWorld(w *ecs.World) {
	for _, id := range w.ActiveIDs() {
		w.Destroy(id)
	}
}

func columnByteLen(def *ecs.ComponentDef, n int) int {
	size := 0
	for _, f := range def.Fields {
		switch f.Type {
		case ecs.FieldFixed, ecs.FieldF32:
			size += 4 * n
		case ecs.FieldU8, ecs.FieldBool:
			size += n
		}
	}
	return size
}

func unpackColumn(col *ecs.Column, def *ecs.ComponentDef, entities []entityMeta, payload []byte) {
	off := 0
	for fieldIdx, field := range def.Fields {
		for _, em := range entities {
			index := ecs.EntityID(em.ID).Index()
			// Entities whose type this world never registered were
			// never spawned, so the column has no presence bit set for
			// them here; their slot's bytes are still consumed to keep
			// every later field's offset aligned with the encoder.
			present := col.HasIndex(index)
			switch field.Type {
			case ecs.FieldFixed:
				v := int32(binary.LittleEndian.Uint32(payload[off : off+4]))
				if present {
					col.SetFixed(index, fieldIdx, fixed.Scalar(v))
				}
				off += 4
			case ecs.FieldU8:
				v := payload[off]
				if present {
					col.SetU8(index, fieldIdx, v)
				}
				off++
			case ecs.FieldBool:
				v := payload[off] != 0
				if present {
					col.SetBool(index, fieldIdx, v)
				}
				off++
			case ecs.FieldF32:
				off += 4 // render-only, never restored from a synced column
			}
		}
	}
}
