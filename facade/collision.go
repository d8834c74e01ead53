package facade

import "github.com/lockstep/kernel/physics"

// CollisionHandler reacts to a resolved or sensor contact between an
// entity of typeA and an entity of typeB, in that argument order.
type CollisionHandler func(a, b *physics.Body, event physics.ContactEvent)

type typePair struct {
	a, b string
}

// CollisionRegistry dispatches contact events by the pair of entity
// type names involved (spec.md §4.6 "a collision-handler registry keyed
// by (typeA, typeB) — same-type handlers are invoked twice with swapped
// arguments"). Entity types, not components, are the key: a handler
// reacts to "a player hit a wall", which is a statement about what the
// two entities are, not which components happen to carry collision
// geometry.
type CollisionRegistry struct {
	typeOf   func(label string) (string, bool)
	handlers map[typePair]CollisionHandler
}

// NewCollisionRegistry creates an empty registry. typeOf resolves a
// physics body's Label (the entity id the façade used as the body's
// label) back to its registered entity type name.
func NewCollisionRegistry(typeOf func(label string) (string, bool)) *CollisionRegistry {
	return &CollisionRegistry{typeOf: typeOf, handlers: make(map[typePair]CollisionHandler)}
}

// On registers handler for the (typeA, typeB) pair. If typeA == typeB,
// the single handler is invoked for every contact between two entities
// of that type, once per direction (spec.md's "invoked twice with
// swapped arguments").
func (r *CollisionRegistry) On(typeA, typeB string, handler CollisionHandler) {
	r.handlers[typePair{typeA, typeB}] = handler
}

// Dispatch resolves event's two bodies to entity types and invokes the
// matching handler(s), if any are registered. An (A,B) contact with
// distinct types invokes the (A,B) handler, passed (event.A, event.B),
// and also the (B,A) handler if one is registered, passed (event.B,
// event.A) with the normal flipped, so a handler fires whichever body
// the event lists first. A (T,T) contact invokes the (T,T) handler twice, once
// per argument order, matching physical symmetry: each entity should
// see itself as "self" and the other as "other".
func (r *CollisionRegistry) Dispatch(event physics.ContactEvent) {
	typeA, okA := r.typeOf(event.A.Label)
	typeB, okB := r.typeOf(event.B.Label)
	if !okA || !okB {
		return
	}

	if typeA == typeB {
		if h, ok := r.handlers[typePair{typeA, typeB}]; ok {
			h(event.A, event.B, event)
			h(event.B, event.A, swapEvent(event))
		}
		return
	}

	if h, ok := r.handlers[typePair{typeA, typeB}]; ok {
		h(event.A, event.B, event)
	}
	if h, ok := r.handlers[typePair{typeB, typeA}]; ok {
		h(event.B, event.A, swapEvent(event))
	}
}

func swapEvent(e physics.ContactEvent) physics.ContactEvent {
	e.A, e.B = e.B, e.A
	e.Normal = e.Normal.Scale(-1)
	return e
}
