package ecs

import "errors"

// Error taxonomy per spec.md §7. CapacityExceeded and the duplicate-
// registration errors are fatal to the caller; StaleHandle,
// MissingComponent, and UnknownEntityType are local conditions a system
// is expected to handle, not a tick driver abort.
var (
	// ErrCapacityExceeded is returned when allocating an entity would
	// exceed the operational cap (10 000, see spec.md §3).
	ErrCapacityExceeded = errors.New("ecs: entity capacity exceeded")

	// ErrStaleHandle is returned when a handle's generation no longer
	// matches the live generation at its index.
	ErrStaleHandle = errors.New("ecs: stale entity handle")

	// ErrMissingComponent is returned by Get when the entity does not
	// carry the requested component.
	ErrMissingComponent = errors.New("ecs: missing component")

	// ErrDuplicateComponent is returned by DefineComponent when the name
	// is already registered.
	ErrDuplicateComponent = errors.New("ecs: duplicate component definition")

	// ErrDuplicateEntityType is returned by Register when the entity
	// type name is already registered.
	ErrDuplicateEntityType = errors.New("ecs: duplicate entity type definition")

	// ErrUnknownEntityType is returned (and logged, not fatal) when a
	// snapshot names an entity type the receiving world never
	// registered; spec.md §7 requires the offending entity be skipped,
	// not the whole restore aborted.
	ErrUnknownEntityType = errors.New("ecs: unknown entity type")

	// ErrUnknownComponent is returned when a spawn override or query
	// names a component that was never defined.
	ErrUnknownComponent = errors.New("ecs: unknown component")

	// ErrUnknownField is returned when a column operation names a field
	// the component schema doesn't declare.
	ErrUnknownField = errors.New("ecs: unknown field")
)
