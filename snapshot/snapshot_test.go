package snapshot

import (
	"bytes"
	"testing"

	"github.com/lockstep/kernel/ecs"
	"github.com/lockstep/kernel/fixed"
)

func buildWorld(t *testing.T) *ecs.World {
	t.Helper()
	w := ecs.NewWorld(16)
	if _, err := w.DefineComponent("position", []ecs.FieldSchema{
		{Name: "x", Type: ecs.FieldFixed},
		{Name: "y", Type: ecs.FieldFixed},
	}, true); err != nil {
		t.Fatalf("DefineComponent: %v", err)
	}
	if _, err := w.DefineComponent("health", []ecs.FieldSchema{
		{Name: "hp", Type: ecs.FieldU8, Default: 100},
	}, true); err != nil {
		t.Fatalf("DefineComponent: %v", err)
	}
	if _, err := w.DefineEntity("pawn").With("position").With("health").Register(); err != nil {
		t.Fatalf("Register: %v", err)
	}
	return w
}

// TestScenarioF_SparseSnapshotSymmetry builds a world with ids {1,3,7},
// encodes it, decodes into a fresh world of the same definitions, and
// checks the ids and component values survive exactly.
func TestScenarioF_SparseSnapshotSymmetry(t *testing.T) {
	w := buildWorld(t)
	prng := fixed.NewPRNG(42)

	want := map[ecs.EntityID]float64{}
	for _, idx := range []uint32{1, 3, 7} {
		id := ecs.EntityID(idx)
		if err := w.SpawnWithID("pawn", id, map[string]any{"position.x": float64(idx) * 1.5}); err != nil {
			t.Fatalf("SpawnWithID(%d): %v", idx, err)
		}
		want[id] = float64(idx) * 1.5
	}

	blob, err := Encode(w, prng)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	fresh := buildWorld(t)
	freshPRNG := fixed.NewPRNG(1)
	state, err := Decode(fresh, blob)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	freshPRNG.Load(state)

	var ids []ecs.EntityID
	fresh.QueryType("pawn").Each(func(id ecs.EntityID) { ids = append(ids, id) })
	wantIDs := []ecs.EntityID{1, 3, 7}
	if len(ids) != len(wantIDs) {
		t.Fatalf("restored ids = %v, want %v", ids, wantIDs)
	}
	for i, id := range wantIDs {
		if ids[i] != id {
			t.Fatalf("restored ids[%d] = %v, want %v (full: %v)", i, ids[i], id, ids)
		}
		acc, err := fresh.Get(id, "position")
		if err != nil {
			t.Fatalf("Get(%v, position): %v", id, err)
		}
		if got := acc.Fixed("x").ToFloat(); got != want[id] {
			t.Fatalf("restored position.x for %v = %v, want %v", id, got, want[id])
		}
	}
}

// TestInvariant3_EncodeDecodeEncodeByteIdentical is invariant 3.
func TestInvariant3_EncodeDecodeEncodeByteIdentical(t *testing.T) {
	w := buildWorld(t)
	prng := fixed.NewPRNG(7)
	for _, idx := range []uint32{0, 2, 5} {
		if _, err := w.Spawn("pawn", map[string]any{"position.x": float64(idx)}); err != nil {
			t.Fatalf("Spawn: %v", err)
		}
	}

	first, err := Encode(w, prng)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	fresh := buildWorld(t)
	freshPRNG := fixed.NewPRNG(1)
	state, err := Decode(fresh, first)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	freshPRNG.Load(state)

	second, err := Encode(fresh, freshPRNG)
	if err != nil {
		t.Fatalf("re-Encode: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Fatalf("encode->decode->encode not byte-identical:\nfirst:  %x\nsecond: %x", first, second)
	}
}

// TestInvariant4_StateHashSurvivesRoundTrip is invariant 4.
func TestInvariant4_StateHashSurvivesRoundTrip(t *testing.T) {
	w := buildWorld(t)
	prng := fixed.NewPRNG(123)
	for _, idx := range []uint32{0, 1, 2, 3} {
		if _, err := w.Spawn("pawn", map[string]any{"position.x": float64(idx) * 0.25}); err != nil {
			t.Fatalf("Spawn: %v", err)
		}
	}

	before := StateHash(w)

	blob, err := Encode(w, prng)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	fresh := buildWorld(t)
	if _, err := Decode(fresh, blob); err != nil {
		t.Fatalf("Decode: %v", err)
	}

	after := StateHash(fresh)
	if before != after {
		t.Fatalf("stateHash(W) = %s, stateHash(decode(encode(W))) = %s", before, after)
	}
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	w := buildWorld(t)
	prng := fixed.NewPRNG(1)
	blob, err := Encode(w, prng)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	corrupted := append([]byte(nil), blob...)
	corrupted[0] ^= 0xFF

	fresh := buildWorld(t)
	if _, err := Decode(fresh, corrupted); err != ErrBadMagic {
		t.Fatalf("Decode with corrupted magic = %v, want ErrBadMagic", err)
	}
}

func TestDecodeRejectsBadCRC(t *testing.T) {
	w := buildWorld(t)
	prng := fixed.NewPRNG(1)
	blob, err := Encode(w, prng)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	corrupted := append([]byte(nil), blob...)
	corrupted[len(corrupted)-1] ^= 0xFF

	fresh := buildWorld(t)
	if _, err := Decode(fresh, corrupted); err != ErrCorrupt {
		t.Fatalf("Decode with corrupted payload = %v, want ErrCorrupt", err)
	}
}

func TestDecodeSkipsUnknownEntityType(t *testing.T) {
	w := buildWorld(t)
	if _, err := w.DefineEntity("rogue").With("health").Register(); err != nil {
		t.Fatalf("Register: %v", err)
	}
	prng := fixed.NewPRNG(1)
	if _, err := w.Spawn("pawn", nil); err != nil {
		t.Fatalf("Spawn pawn: %v", err)
	}
	if _, err := w.Spawn("rogue", nil); err != nil {
		t.Fatalf("Spawn rogue: %v", err)
	}
	blob, err := Encode(w, prng)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// Fresh world never registers "rogue" — its entity must be skipped,
	// not abort the whole restore (spec.md §7).
	fresh := buildWorld(t)
	if _, err := Decode(fresh, blob); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if fresh.QueryType("pawn").Count() != 1 {
		t.Fatalf("expected the pawn entity to survive restore")
	}
}
