package ecs

import "github.com/lockstep/kernel/fixed"

// World is the entity store: allocator, component registry, column
// storage, entity records, and the three incrementally maintained query
// indices (spec.md §3 "Query indices"). It is the single point of truth
// the rest of the kernel (physics, snapshot, rollback) reads and writes
// through.
type World struct {
	*Registry
	alloc *Allocator
	cap   uint32

	columns map[string]*Column
	records map[EntityID]*entityRecord

	typeIndex      map[string]*idSet
	componentIndex map[string]*idSet
	clientIndex    map[uint32]EntityID

	interner *Interner

	frame             uint32
	confirmedInputSeq uint32

	inputs map[EntityID]any
}

// NewWorld creates an empty world with the given entity capacity (callers
// pass ecs.OperationalCap unless testing a smaller bound).
func NewWorld(capacity uint32) *World {
	return &World{
		Registry:       newRegistry(),
		alloc:          NewAllocator(capacity),
		cap:            capacity,
		columns:        make(map[string]*Column),
		records:        make(map[EntityID]*entityRecord),
		typeIndex:      make(map[string]*idSet),
		componentIndex: make(map[string]*idSet),
		clientIndex:    make(map[uint32]EntityID),
		interner:       NewInterner(),
		inputs:         make(map[EntityID]any),
	}
}

// Interner exposes the world's string interner.
func (w *World) Interner() *Interner { return w.interner }

// Frame returns the current tick counter, part of snapshot state.
func (w *World) Frame() uint32 { return w.frame }

// SetFrame sets the tick counter (used by snapshot restore and the
// rollback controller).
func (w *World) SetFrame(f uint32) { w.frame = f }

// ConfirmedInputSeq returns the confirmed input-sequence counter, part of
// snapshot state.
func (w *World) ConfirmedInputSeq() uint32 { return w.confirmedInputSeq }

// SetConfirmedInputSeq sets the confirmed input-sequence counter.
func (w *World) SetConfirmedInputSeq(seq uint32) { w.confirmedInputSeq = seq }

// DefineComponent registers a component on this world and ensures it has
// backing column storage allocated at full world capacity.
func (w *World) DefineComponent(name string, fields []FieldSchema, sync bool) (*ComponentDef, error) {
	def, err := w.Registry.DefineComponent(name, fields, sync)
	if err != nil {
		return nil, err
	}
	w.columns[name] = newColumn(def, w.cap)
	w.componentIndex[name] = &idSet{}
	return def, nil
}

func (w *World) column(name string) (*Column, error) {
	c, ok := w.columns[name]
	if !ok {
		return nil, ErrUnknownComponent
	}
	return c, nil
}

// Spawn allocates a new entity of the given registered type, applying
// overrides on top of schema defaults, and returns its handle. overrides
// is keyed "component.field" -> value (float64 for i32-fixed/f32, or a
// type matching the field for u8/bool); i32-fixed overrides are given as
// native floats and converted once here (spec.md §4.2).
func (w *World) Spawn(typeName string, overrides map[string]any) (EntityID, error) {
	typeDef, ok := w.EntityType(typeName)
	if !ok {
		return 0, ErrUnknownEntityType
	}
	id, err := w.alloc.Alloc()
	if err != nil {
		return 0, err
	}
	w.initRecord(id, typeDef, overrides)
	return id, nil
}

// SpawnWithID spawns an entity with an externally chosen id (used by
// snapshot restore), forcing the allocator to adopt that exact index and
// generation.
func (w *World) SpawnWithID(typeName string, id EntityID, overrides map[string]any) error {
	typeDef, ok := w.EntityType(typeName)
	if !ok {
		return ErrUnknownEntityType
	}
	if err := w.alloc.AllocSpecific(id); err != nil {
		return err
	}
	w.initRecord(id, typeDef, overrides)
	return nil
}

func (w *World) initRecord(id EntityID, typeDef *EntityTypeDef, overrides map[string]any) {
	rec := &entityRecord{id: id, typeName: typeDef.Name, components: make(map[string]bool)}
	w.records[id] = rec

	index := id.Index()
	for _, compName := range typeDef.Components {
		col, ok := w.columns[compName]
		if !ok {
			continue
		}
		col.grow(w.cap)
		col.writeDefaults(index)
		col.setPresence(index, true)
		rec.components[compName] = true
		w.indexAdd(compName, id)
	}

	ts, ok := w.typeIndex[typeDef.Name]
	if !ok {
		ts = &idSet{}
		w.typeIndex[typeDef.Name] = ts
	}
	ts.insert(id)

	w.applyOverrides(id, overrides)
}

func (w *World) applyOverrides(id EntityID, overrides map[string]any) {
	index := id.Index()
	for key, val := range overrides {
		compName, fieldName := splitKey(key)
		col, ok := w.columns[compName]
		if !ok {
			continue
		}
		fi := col.def.fieldIndex(fieldName)
		if fi < 0 {
			continue
		}
		switch f := col.def.Fields[fi]; f.Type {
		case FieldFixed:
			if v, ok := val.(float64); ok {
				col.SetFixed(index, fi, fixed.FromFloat(v))
			} else if v, ok := val.(fixed.Scalar); ok {
				col.SetFixed(index, fi, v)
			}
		case FieldU8:
			if v, ok := val.(int); ok {
				col.SetU8(index, fi, uint8(v))
			} else if v, ok := val.(uint8); ok {
				col.SetU8(index, fi, v)
			}
		case FieldBool:
			if v, ok := val.(bool); ok {
				col.SetBool(index, fi, v)
			}
		case FieldF32:
			if v, ok := val.(float64); ok {
				col.SetF32(index, fi, float32(v))
			} else if v, ok := val.(float32); ok {
				col.SetF32(index, fi, v)
			}
		}
	}
}

func splitKey(key string) (component, field string) {
	for i := 0; i < len(key); i++ {
		if key[i] == '.' {
			return key[:i], key[i+1:]
		}
	}
	return key, ""
}

func (w *World) indexAdd(compName string, id EntityID) {
	cs, ok := w.componentIndex[compName]
	if !ok {
		cs = &idSet{}
		w.componentIndex[compName] = cs
	}
	cs.insert(id)
}

func (w *World) indexRemove(compName string, id EntityID) {
	if cs, ok := w.componentIndex[compName]; ok {
		cs.remove(id)
	}
}

// SetClientID associates id with an interned client id, asserting
// uniqueness: the spec calls last-write-wins a bug, so binding a client
// id that is already bound to a different entity panics.
func (w *World) SetClientID(id EntityID, clientID uint32) error {
	if existing, ok := w.clientIndex[clientID]; ok && existing != id {
		panic("ecs: client id already bound to a different entity")
	}
	rec, ok := w.records[id]
	if !ok {
		return ErrStaleHandle
	}
	rec.clientID = &clientID
	w.clientIndex[clientID] = id
	return nil
}

// LookupClient resolves an interned client id to its entity, if bound.
func (w *World) LookupClient(clientID uint32) (EntityID, bool) {
	id, ok := w.clientIndex[clientID]
	return id, ok
}

// AddComponent attaches component to an already-spawned entity,
// initializing it to schema defaults and updating indices.
func (w *World) AddComponent(id EntityID, compName string) error {
	rec, ok := w.records[id]
	if !ok || !w.alloc.IsAlive(id) {
		return ErrStaleHandle
	}
	col, err := w.column(compName)
	if err != nil {
		return err
	}
	index := id.Index()
	col.writeDefaults(index)
	col.setPresence(index, true)
	rec.components[compName] = true
	w.indexAdd(compName, id)
	return nil
}

// RemoveComponent detaches component from id, clearing its presence bit
// and removing it from the component index.
func (w *World) RemoveComponent(id EntityID, compName string) error {
	rec, ok := w.records[id]
	if !ok || !w.alloc.IsAlive(id) {
		return ErrStaleHandle
	}
	col, err := w.column(compName)
	if err != nil {
		return err
	}
	col.setPresence(id.Index(), false)
	delete(rec.components, compName)
	w.indexRemove(compName, id)
	return nil
}

// Destroy clears presence for every owned component, removes the entity
// from every index, frees its id, and discards its record. Destroying an
// already-dead or unknown handle is a no-op (spec.md §4.2 "Idempotent").
func (w *World) Destroy(id EntityID) {
	rec, ok := w.records[id]
	if !ok || !w.alloc.IsAlive(id) {
		return
	}
	index := id.Index()
	for compName := range rec.components {
		if col, ok := w.columns[compName]; ok {
			col.setPresence(index, false)
		}
		w.indexRemove(compName, id)
	}
	if ts, ok := w.typeIndex[rec.typeName]; ok {
		ts.remove(id)
	}
	if rec.clientID != nil {
		delete(w.clientIndex, *rec.clientID)
	}
	delete(w.records, id)
	w.alloc.Free(id)
}

// HasComponent reports whether id currently carries compName.
func (w *World) HasComponent(id EntityID, compName string) bool {
	rec, ok := w.records[id]
	if !ok {
		return false
	}
	return rec.components[compName]
}

// TypeName returns the entity type name for id, or "" if unknown.
func (w *World) TypeName(id EntityID) string {
	rec, ok := w.records[id]
	if !ok {
		return ""
	}
	return rec.typeName
}

// IsAlive reports whether id refers to a live entity.
func (w *World) IsAlive(id EntityID) bool { return w.alloc.IsAlive(id) }

// Accessor reads/writes one component's fields at a fixed entity index,
// converting to/from fixed.Scalar for i32-fixed fields. Matches spec.md
// §4.2's "lightweight accessor whose getters/setters read/write the raw
// column at the handle's index" and §9's guidance to avoid boxed handles:
// an Accessor is a small value, not a pointer chasing growable storage,
// and must not outlive the tick it was obtained in.
type Accessor struct {
	col   *Column
	index uint32
}

// Get returns an Accessor for (id, component), failing with
// ErrMissingComponent if the entity doesn't carry it and ErrStaleHandle
// if the handle itself is dead.
func (w *World) Get(id EntityID, compName string) (Accessor, error) {
	if !w.alloc.IsAlive(id) {
		return Accessor{}, ErrStaleHandle
	}
	col, err := w.column(compName)
	if err != nil {
		return Accessor{}, err
	}
	if !col.has(id.Index()) {
		return Accessor{}, ErrMissingComponent
	}
	return Accessor{col: col, index: id.Index()}, nil
}

func (a Accessor) fieldIdx(name string) int { return a.col.def.fieldIndex(name) }

func (a Accessor) Fixed(field string) fixed.Scalar { return a.col.GetFixed(a.index, a.fieldIdx(field)) }
func (a Accessor) SetFixed(field string, v fixed.Scalar) {
	a.col.SetFixed(a.index, a.fieldIdx(field), v)
}
func (a Accessor) U8(field string) uint8        { return a.col.GetU8(a.index, a.fieldIdx(field)) }
func (a Accessor) SetU8(field string, v uint8)  { a.col.SetU8(a.index, a.fieldIdx(field), v) }
func (a Accessor) Bool(field string) bool       { return a.col.GetBool(a.index, a.fieldIdx(field)) }
func (a Accessor) SetBool(field string, v bool) { a.col.SetBool(a.index, a.fieldIdx(field), v) }
func (a Accessor) F32(field string) float32     { return a.col.GetF32(a.index, a.fieldIdx(field)) }
func (a Accessor) SetF32(field string, v float32) {
	a.col.SetF32(a.index, a.fieldIdx(field), v)
}

// ActiveIDs returns every currently live entity id in ascending order.
// Used by the state hash and snapshot encoder, both of which must fold
// over entities in ascending id order (spec.md §4.5).
func (w *World) ActiveIDs() []EntityID {
	out := make([]EntityID, 0, len(w.records))
	for id := range w.records {
		out = append(out, id)
	}
	sortIDs(out)
	return out
}

func sortIDs(ids []EntityID) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}

// Allocator exposes the underlying id allocator, used by snapshot.Encode
// to read nextIndex/freeList/generations and by restore to overwrite
// them.
func (w *World) Allocator() *Allocator { return w.alloc }

// Column returns the raw column for compName, used by snapshot.Encode to
// pack field data. Returns nil if the component was never defined.
func (w *World) Column(compName string) *Column { return w.columns[compName] }

// EntityComponents returns the sorted (by registration order) list of
// component names id currently carries.
func (w *World) EntityComponents(id EntityID) []string {
	rec, ok := w.records[id]
	if !ok {
		return nil
	}
	var out []string
	for _, name := range w.Registry.ComponentNames() {
		if rec.components[name] {
			out = append(out, name)
		}
	}
	return out
}

// ClientIDOf returns the interned client id bound to id, if any.
func (w *World) ClientIDOf(id EntityID) (uint32, bool) {
	rec, ok := w.records[id]
	if !ok || rec.clientID == nil {
		return 0, false
	}
	return *rec.clientID, true
}

// RouteInput attaches an opaque input payload to the entity bound to
// clientID's per-tick slot (spec.md §4.2 "Per-tick input routing"). It is
// a silent no-op if no entity is currently bound to that client id — an
// input arriving for a client whose entity hasn't spawned yet (or has
// already been destroyed) is simply dropped for this tick.
func (w *World) RouteInput(clientID uint32, input any) {
	id, ok := w.clientIndex[clientID]
	if !ok {
		return
	}
	w.inputs[id] = input
}

// Input returns the input payload routed to id for the current tick, if
// any. Systems call this during the input/update phases.
func (w *World) Input(id EntityID) (any, bool) {
	v, ok := w.inputs[id]
	return v, ok
}

// ClearInputs discards all per-tick input slots. sched.Scheduler.Run
// calls it once per tick, after every phase has run, so a stale input is
// never read on a subsequent tick it wasn't sent for.
func (w *World) ClearInputs() {
	for id := range w.inputs {
		delete(w.inputs, id)
	}
}
