package ecs

import "testing"

func TestQueryTypeAscendingOrder(t *testing.T) {
	w := basicWorld(t)
	var ids []EntityID
	for i := 0; i < 6; i++ {
		id, err := w.Spawn("pawn", nil)
		if err != nil {
			t.Fatalf("Spawn %d: %v", i, err)
		}
		ids = append(ids, id)
	}

	var seen []EntityID
	w.QueryType("pawn").Each(func(id EntityID) { seen = append(seen, id) })
	if len(seen) != len(ids) {
		t.Fatalf("query returned %d entities, want %d", len(seen), len(ids))
	}
	for i := 1; i < len(seen); i++ {
		if seen[i-1] >= seen[i] {
			t.Fatalf("query not ascending at %d: %v", i, seen)
		}
	}
}

func TestQuerySkipsDestroyedDuringIteration(t *testing.T) {
	w := basicWorld(t)
	var ids []EntityID
	for i := 0; i < 4; i++ {
		id, _ := w.Spawn("pawn", nil)
		ids = append(ids, id)
	}

	q := w.QueryType("pawn")
	// Destroy one of the entities the query already captured before
	// consuming it; the query must skip it rather than error.
	w.Destroy(ids[2])

	var seen []EntityID
	q.Each(func(id EntityID) { seen = append(seen, id) })
	if len(seen) != 3 {
		t.Fatalf("expected 3 survivors after mid-capture destroy, got %d: %v", len(seen), seen)
	}
	for _, id := range seen {
		if id == ids[2] {
			t.Fatalf("destroyed entity %v must not appear in query results", id)
		}
	}
}

func TestQueryDestroyDuringEach(t *testing.T) {
	w := basicWorld(t)
	for i := 0; i < 5; i++ {
		if _, err := w.Spawn("pawn", nil); err != nil {
			t.Fatalf("Spawn %d: %v", i, err)
		}
	}

	count := 0
	w.QueryType("pawn").Each(func(id EntityID) {
		count++
		// Destroying the current entity mid-iteration must not panic or
		// skip/revisit others.
		w.Destroy(id)
	})
	if count != 5 {
		t.Fatalf("Each visited %d entities, want 5", count)
	}
	if w.QueryType("pawn").Count() != 0 {
		t.Fatalf("expected no survivors after destroying all during Each")
	}
}

func TestQueryIntersectionPicksSmallestProbe(t *testing.T) {
	w := basicWorld(t)
	if _, err := w.DefineComponent("velocity", []FieldSchema{{Name: "vx", Type: FieldFixed}}, true); err != nil {
		t.Fatalf("DefineComponent: %v", err)
	}
	var ids []EntityID
	for i := 0; i < 5; i++ {
		id, _ := w.Spawn("pawn", nil)
		ids = append(ids, id)
	}
	// Only two of the five pawns get velocity.
	if err := w.AddComponent(ids[1], "velocity"); err != nil {
		t.Fatalf("AddComponent: %v", err)
	}
	if err := w.AddComponent(ids[3], "velocity"); err != nil {
		t.Fatalf("AddComponent: %v", err)
	}

	var seen []EntityID
	w.Query("pawn", "velocity").Each(func(id EntityID) { seen = append(seen, id) })
	if len(seen) != 2 || seen[0] != ids[1] || seen[1] != ids[3] {
		t.Fatalf("Query(pawn,velocity) = %v, want [%v %v]", seen, ids[1], ids[3])
	}
}

func TestQueryUnknownNameIsEmpty(t *testing.T) {
	w := basicWorld(t)
	if w.Query("nonexistent").Count() != 0 {
		t.Fatalf("query over an unregistered name must yield nothing")
	}
}

func TestQueryComponent(t *testing.T) {
	w := basicWorld(t)
	if _, err := w.DefineComponent("velocity", []FieldSchema{{Name: "vx", Type: FieldFixed}}, true); err != nil {
		t.Fatalf("DefineComponent: %v", err)
	}
	a, _ := w.Spawn("pawn", nil)
	b, _ := w.Spawn("pawn", nil)
	if err := w.AddComponent(a, "velocity"); err != nil {
		t.Fatalf("AddComponent: %v", err)
	}

	var seen []EntityID
	w.QueryComponent("velocity").Each(func(id EntityID) { seen = append(seen, id) })
	if len(seen) != 1 || seen[0] != a {
		t.Fatalf("QueryComponent(velocity) = %v, want [%v]", seen, a)
	}

	if err := w.RemoveComponent(a, "velocity"); err != nil {
		t.Fatalf("RemoveComponent: %v", err)
	}
	if w.QueryComponent("velocity").Count() != 0 {
		t.Fatalf("expected no entities with velocity after removal")
	}
	_ = b
}
