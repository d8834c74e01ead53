package ecs

import "log"

// FieldType is the semantic set of component field types spec.md §3
// allows: i32-fixed (a fixed.Scalar stored as its raw Q16.16 integer),
// u8, bool, and f32 (render-only, never synchronised).
type FieldType int

const (
	FieldFixed FieldType = iota
	FieldU8
	FieldBool
	FieldF32
)

func (t FieldType) String() string {
	switch t {
	case FieldFixed:
		return "i32-fixed"
	case FieldU8:
		return "u8"
	case FieldBool:
		return "bool"
	case FieldF32:
		return "f32"
	default:
		return "unknown"
	}
}

// FieldSchema describes one field of a component: its name, type, and
// default value (interpreted according to Type; fixed-point defaults are
// given as a native float and converted each time the default is written
// into a column slot).
type FieldSchema struct {
	Name    string
	Type    FieldType
	Default float64
}

// ComponentDef is a registered component definition: an ordered field
// list and whether the component participates in snapshots/state hashing
// at all (spec.md §3 "sync flag").
type ComponentDef struct {
	Name   string
	Fields []FieldSchema
	Sync   bool
}

// fieldIndex returns the position of name in the schema, or -1.
func (d *ComponentDef) fieldIndex(name string) int {
	for i, f := range d.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Registry owns the set of defined components and entity types. A World
// embeds exactly one Registry.
type Registry struct {
	components map[string]*ComponentDef
	order      []string // registration order, used for deterministic iteration
	entities   map[string]*EntityTypeDef
}

func newRegistry() *Registry {
	return &Registry{
		components: make(map[string]*ComponentDef),
		entities:   make(map[string]*EntityTypeDef),
	}
}

// DefineComponent registers a named component with the given field
// schema. sync controls whether it is included in snapshots and the
// state hash. Registering the f32 type on a sync=true component is
// allowed (spec.md doesn't forbid it structurally) but logged as a
// warning, since f32 is documented as render-only state that must never
// appear in synchronised state.
func (r *Registry) DefineComponent(name string, fields []FieldSchema, sync bool) (*ComponentDef, error) {
	if _, exists := r.components[name]; exists {
		return nil, ErrDuplicateComponent
	}
	def := &ComponentDef{Name: name, Fields: append([]FieldSchema(nil), fields...), Sync: sync}
	for _, f := range def.Fields {
		if f.Type == FieldF32 && sync {
			log.Printf("ecs: component %q field %q is f32 and sync=true; f32 is render-only and must never be synchronised", name, f.Name)
		}
	}
	r.components[name] = def
	r.order = append(r.order, name)
	return def, nil
}

// Component looks up a previously defined component.
func (r *Registry) Component(name string) (*ComponentDef, bool) {
	d, ok := r.components[name]
	return d, ok
}

// ComponentNames returns all registered component names in registration
// order (not sorted — registration order is what spec.md §4.5 uses for
// "iteration over components on an entity is by registration order").
func (r *Registry) ComponentNames() []string {
	return append([]string(nil), r.order...)
}
