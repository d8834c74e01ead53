package facade

import "github.com/lockstep/kernel/ecs"

// Builder spawns one instance of a prefab into w, applying extra on top
// of whatever overrides the prefab itself bakes in. It returns the new
// entity's handle.
type Builder func(w *ecs.World, extra map[string]any) (ecs.EntityID, error)

// PrefabRegistry maps a prefab name to the builder that constructs it
// (spec.md §4.6 "prefab registry (name → builder)"). Nothing here is
// part of the kernel's state — prefabs are a façade-level convenience
// for game code, not something snapshots need to know about.
type PrefabRegistry struct {
	builders map[string]Builder
}

// NewPrefabRegistry creates an empty registry.
func NewPrefabRegistry() *PrefabRegistry {
	return &PrefabRegistry{builders: make(map[string]Builder)}
}

// Register associates name with builder, replacing any prior builder of
// the same name.
func (r *PrefabRegistry) Register(name string, builder Builder) {
	r.builders[name] = builder
}

// Spawn looks up name's builder and invokes it against w, merging extra
// into whatever overrides the builder applies. Returns ErrUnknownPrefab
// if name was never registered.
func (r *PrefabRegistry) Spawn(w *ecs.World, name string, extra map[string]any) (ecs.EntityID, error) {
	builder, ok := r.builders[name]
	if !ok {
		return 0, ErrUnknownPrefab
	}
	return builder(w, extra)
}

// EntityPrefab returns a Builder that spawns typeName with overrides
// merged on top of defaults, the common case for a prefab that is just
// "this registered entity type, with these starting field values".
func EntityPrefab(typeName string, defaults map[string]any) Builder {
	return func(w *ecs.World, extra map[string]any) (ecs.EntityID, error) {
		overrides := make(map[string]any, len(defaults)+len(extra))
		for k, v := range defaults {
			overrides[k] = v
		}
		for k, v := range extra {
			overrides[k] = v
		}
		return w.Spawn(typeName, overrides)
	}
}
