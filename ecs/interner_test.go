package ecs

import "testing"

func TestInternerRoundTrip(t *testing.T) {
	in := NewInterner()
	id1 := in.Intern("client", "alice")
	id2 := in.Intern("client", "bob")
	id3 := in.Intern("client", "alice") // repeat, must return id1
	if id3 != id1 {
		t.Fatalf("re-interning the same (namespace,value) returned %d, want %d", id3, id1)
	}
	if id1 == id2 {
		t.Fatalf("distinct values must get distinct ids")
	}

	ns, val, ok := in.Lookup(id2)
	if !ok || ns != "client" || val != "bob" {
		t.Fatalf("Lookup(%d) = (%q,%q,%v), want (client,bob,true)", id2, ns, val, ok)
	}
	if _, _, ok := in.Lookup(9999); ok {
		t.Fatalf("Lookup of unknown id must fail")
	}
}

func TestInternerEntriesAscending(t *testing.T) {
	in := NewInterner()
	in.Intern("a", "z")
	in.Intern("a", "y")
	in.Intern("b", "x")

	entries := in.Entries()
	if len(entries) != 3 {
		t.Fatalf("Entries len = %d, want 3", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i-1].ID >= entries[i].ID {
			t.Fatalf("Entries not ascending by id: %+v", entries)
		}
	}
}

func TestInternerRestoreEntries(t *testing.T) {
	in := NewInterner()
	in.Intern("a", "z")
	in.Intern("b", "x")
	saved := in.Entries()

	fresh := NewInterner()
	fresh.RestoreEntries(saved)

	for _, e := range saved {
		ns, val, ok := fresh.Lookup(e.ID)
		if !ok || ns != e.Namespace || val != e.Value {
			t.Fatalf("restored Lookup(%d) = (%q,%q,%v), want (%q,%q,true)", e.ID, ns, val, ok, e.Namespace, e.Value)
		}
	}
	// next allocation must continue past the max restored id, not collide.
	next := fresh.Intern("c", "new")
	for _, e := range saved {
		if next == e.ID {
			t.Fatalf("newly interned id %d collides with restored id", next)
		}
	}
}
