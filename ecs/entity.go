package ecs

// EntityTypeDef is a registered entity type: the set of components it
// always carries (with spawn-time overrides applied) and an optional
// per-field sync allow-list used to trim snapshots below full-component
// granularity (spec.md §4.4 "within those only the fields listed in the
// entity-type's sync allow-list").
type EntityTypeDef struct {
	Name       string
	Components []string
	// syncFields, if non-nil for a component name, restricts snapshot
	// output to exactly these fields of that component for this entity
	// type. A component absent from this map is synced in full.
	syncFields map[string][]string
}

// EntityTypeBuilder accumulates an entity type definition before
// Register() publishes it (spec.md §4.2 "defineEntity(name): returns a
// builder... register() publishes it").
type EntityTypeBuilder struct {
	registry *Registry
	def      *EntityTypeDef
}

// DefineEntity starts building a new entity type.
func (r *Registry) DefineEntity(name string) *EntityTypeBuilder {
	return &EntityTypeBuilder{
		registry: r,
		def: &EntityTypeDef{
			Name:       name,
			syncFields: make(map[string][]string),
		},
	}
}

// With adds a component to the entity type. syncFields, if given, restricts
// this entity type's snapshot output for that component to the listed
// fields only.
func (b *EntityTypeBuilder) With(component string, syncFields ...string) *EntityTypeBuilder {
	b.def.Components = append(b.def.Components, component)
	if len(syncFields) > 0 {
		b.def.syncFields[component] = syncFields
	}
	return b
}

// Register publishes the entity type, failing with ErrDuplicateEntityType
// if the name is already registered.
func (b *EntityTypeBuilder) Register() (*EntityTypeDef, error) {
	if _, exists := b.registry.entities[b.def.Name]; exists {
		return nil, ErrDuplicateEntityType
	}
	b.registry.entities[b.def.Name] = b.def
	return b.def, nil
}

// SyncFields returns the entity type's sync allow-list for component, if
// one was set via With's syncFields argument. ok is false when the
// component should be synced in full (spec.md §4.4 "within those only
// the fields listed in the entity-type's sync allow-list (if one is set;
// otherwise all fields)").
func (d *EntityTypeDef) SyncFields(component string) (fields []string, ok bool) {
	f, ok := d.syncFields[component]
	return f, ok
}

// EntityType looks up a previously registered entity type.
func (r *Registry) EntityType(name string) (*EntityTypeDef, bool) {
	d, ok := r.entities[name]
	return d, ok
}

// entityRecord is the live bookkeeping for one spawned entity (spec.md §3
// "Entity record"): its type, the set of components it actually carries
// right now, and its optional interned client id.
type entityRecord struct {
	id         EntityID
	typeName   string
	components map[string]bool
	clientID   *uint32
}
