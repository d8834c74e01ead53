// Package facade provides the thin assembly layer spec.md §4.6 describes:
// prefab registration, physics-entity mirroring, authority election, a
// collision-handler registry, and the authority's periodic snapshot
// broadcast. It is modeled on the teacher's top-level driver
// (ui/app.go, cli/runner.go) — a single place that wires the lower
// layers together and owns the parts of the loop none of fixed, ecs,
// sched, physics, snapshot or rollback know about individually.
package facade

import "github.com/lockstep/kernel/ecs"

// Component names the façade registers, used by the physics mirroring
// plugin and by render collaborators that query them (spec.md §6).
const (
	CompTransform2D = "transform2d"
	CompRigidBody   = "rigidbody"
	CompImpulse     = "impulse2d"
	CompSprite      = "sprite"
)

// DefineComponents registers the façade's standard component set on w.
// Game code is free to define additional components directly through
// ecs.World; these four are the ones the physics plugin and renderer
// collaborator (spec.md §6) agree on by name.
func DefineComponents(w *ecs.World) error {
	if _, err := w.DefineComponent(CompTransform2D, []ecs.FieldSchema{
		{Name: "x", Type: ecs.FieldFixed},
		{Name: "y", Type: ecs.FieldFixed},
		{Name: "angle", Type: ecs.FieldFixed},
	}, true); err != nil {
		return err
	}

	if _, err := w.DefineComponent(CompRigidBody, []ecs.FieldSchema{
		{Name: "kind", Type: ecs.FieldU8}, // physics.BodyKind
		{Name: "shape", Type: ecs.FieldU8}, // physics.ShapeKind
		{Name: "vx", Type: ecs.FieldFixed},
		{Name: "vy", Type: ecs.FieldFixed},
		{Name: "angularV", Type: ecs.FieldFixed},
		{Name: "radius", Type: ecs.FieldFixed},
		{Name: "halfW", Type: ecs.FieldFixed},
		{Name: "halfH", Type: ecs.FieldFixed},
		{Name: "mass", Type: ecs.FieldFixed},
		{Name: "restitution", Type: ecs.FieldFixed},
		{Name: "friction", Type: ecs.FieldFixed},
		{Name: "layer", Type: ecs.FieldU8},
		{Name: "mask", Type: ecs.FieldU8},
		{Name: "isSensor", Type: ecs.FieldBool},
		{Name: "lockRotation", Type: ecs.FieldBool},
	}, true); err != nil {
		return err
	}

	// Impulse is a one-shot force injection: game systems write fx/fy
	// during the update phase, the physics plugin consumes and zeroes
	// it during prePhysics (spec.md §4.3 "force/impulse accumulated
	// this tick ... consumed and reset during integration").
	if _, err := w.DefineComponent(CompImpulse, []ecs.FieldSchema{
		{Name: "fx", Type: ecs.FieldFixed},
		{Name: "fy", Type: ecs.FieldFixed},
	}, false); err != nil {
		return err
	}

	if _, err := w.DefineComponent(CompSprite, []ecs.FieldSchema{
		{Name: "shape", Type: ecs.FieldU8},
		{Name: "width", Type: ecs.FieldFixed},
		{Name: "height", Type: ecs.FieldFixed},
		{Name: "radius", Type: ecs.FieldFixed},
		{Name: "colorR", Type: ecs.FieldU8},
		{Name: "colorG", Type: ecs.FieldU8},
		{Name: "colorB", Type: ecs.FieldU8},
		{Name: "colorA", Type: ecs.FieldU8},
		{Name: "spriteId", Type: ecs.FieldU8},
		{Name: "offsetX", Type: ecs.FieldFixed},
		{Name: "offsetY", Type: ecs.FieldFixed},
		{Name: "scale", Type: ecs.FieldFixed},
		{Name: "layer", Type: ecs.FieldU8},
		{Name: "visible", Type: ecs.FieldBool},
	}, false); err != nil {
		return err
	}

	return nil
}
