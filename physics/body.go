// Package physics implements the deterministic 2D rigid-body world
// driven by the rollback controller (spec.md §4.3). Every computation on
// the step path is fixed-point; the package imports only
// github.com/lockstep/kernel/fixed and sort, never math. Float literals
// appear only where constants and body defaults go through fixed.FromFloat.
package physics

import "github.com/lockstep/kernel/fixed"

// ShapeKind distinguishes the two supported collider shapes.
type ShapeKind int

const (
	ShapeCircle ShapeKind = iota
	ShapeBox
)

// BodyKind controls how a body participates in integration and
// resolution (spec.md §4.3 "Static bodies never move; kinematic bodies
// move under correction but do not take an impulse from dynamic
// bodies").
type BodyKind int

const (
	Static BodyKind = iota
	Kinematic
	Dynamic
)

// sleepThreshold is 0.12 * fixed.One, squared comparisons are done on
// LengthSq so no square root is needed to test the sleep condition.
var sleepThreshold = fixed.FromFloat(0.12)

// sleepFrames is the number of consecutive low-motion frames before a
// body sleeps (spec.md §4.3).
const sleepFrames = 20

// velocityFloor is the magnitude below which a velocity component is
// snapped to zero after integration (spec.md §4.3 "clamp small
// velocities to zero").
var velocityFloor = fixed.FromFloat(0.05)

// positionSlop is the penetration depth resolution treats as already
// resolved (spec.md §4.3 "shrink depth by a fixed slop ≈0.01").
var positionSlop = fixed.FromFloat(0.01)

const cellSize = 64 // default spatial-hash cell size, in world units

// Body is one rigid body in the world. Label is used for the
// start-of-step stable sort (spec.md §4.3 "Ordering determinism") and
// for collision-event dispatch ordering; it should be unique but the
// resolver does not require it to be.
type Body struct {
	Label string

	Kind  BodyKind
	Shape ShapeKind

	Position fixed.Vec2
	Angle    fixed.Scalar
	Velocity fixed.Vec2
	AngularV fixed.Scalar

	Radius      fixed.Scalar // circle
	HalfW, HalfH fixed.Scalar // box

	Mass        fixed.Scalar
	InvMass     fixed.Scalar
	Restitution fixed.Scalar
	Friction    fixed.Scalar

	Layer uint16
	Mask  uint16

	IsSensor     bool
	LockRotation bool

	sleeping     bool
	sleepCounter int

	// force/impulse accumulated this tick by game code, consumed and
	// reset during integration.
	pendingForce fixed.Vec2
}

// NewDynamicCircle constructs a dynamic circle body with the given mass;
// mass <= 0 is treated as infinite (InvMass = 0), matching a kinematic
// body's effective response to impulses.
func NewDynamicCircle(label string, pos fixed.Vec2, radius, mass fixed.Scalar) *Body {
	b := &Body{
		Label:    label,
		Kind:     Dynamic,
		Shape:    ShapeCircle,
		Position: pos,
		Radius:   radius,
		Mass:     mass,
		Friction: fixed.FromFloat(0.3),
		Layer:    1,
		Mask:     0xFFFF,
	}
	b.setMass(mass)
	return b
}

// NewStaticBox constructs a static axis-aligned box body.
func NewStaticBox(label string, pos fixed.Vec2, halfW, halfH fixed.Scalar) *Body {
	return &Body{
		Label:    label,
		Kind:     Static,
		Shape:    ShapeBox,
		Position: pos,
		HalfW:    halfW,
		HalfH:    halfH,
		Friction: fixed.FromFloat(0.3),
		Layer:    1,
		Mask:     0xFFFF,
	}
}

func (b *Body) setMass(mass fixed.Scalar) {
	b.Mass = mass
	if b.Kind != Dynamic || mass <= 0 {
		b.InvMass = 0
		return
	}
	b.InvMass = fixed.Div(fixed.One, mass)
}

// SetMass is the exported form of setMass, for callers (the façade's
// physics-mirroring plugin) building bodies directly from a generic
// component schema rather than through NewDynamicCircle/NewStaticBox.
func (b *Body) SetMass(mass fixed.Scalar) { b.setMass(mass) }

// Movable reports whether position correction may move this body at all
// (spec.md §4.3 "Both bodies must be movable; else skip").
func (b *Body) Movable() bool { return b.Kind != Static }

// Sleeping reports whether the body is currently asleep.
func (b *Body) Sleeping() bool { return b.sleeping }

// Wake clears the sleep flag and counter. Called on any force, a non-zero
// velocity write, a non-zero collision impulse reaching a sleeping body,
// and by RestoreWakeAll (spec.md §4.3 state machine).
func (b *Body) Wake() {
	b.sleeping = false
	b.sleepCounter = 0
}

// SetVelocity writes velocity directly. Per spec.md §4.3, only a
// *non-zero* velocity write clears the sleep flag/counter — writing the
// zero velocity a resting body already holds (as the façade's physics
// plugin does every tick, mirroring an unchanged rigidbody component)
// must not repeatedly wake it and starve the sleep-frame counter.
func (b *Body) SetVelocity(v fixed.Vec2) {
	b.Velocity = v
	if v.X != 0 || v.Y != 0 {
		b.Wake()
	}
}

// ApplyForce accumulates a force to be integrated on the next step, and
// wakes the body.
func (b *Body) ApplyForce(f fixed.Vec2) {
	b.pendingForce = b.pendingForce.Add(f)
	b.Wake()
}

// AABB returns the axis-aligned bounding box of the body at its current
// position and angle (spec.md §4.3 "Shapes and AABB").
func (b *Body) AABB() (min, max fixed.Vec2) {
	switch b.Shape {
	case ShapeCircle:
		r := fixed.V2(b.Radius, b.Radius)
		return b.Position.Sub(r), b.Position.Add(r)
	case ShapeBox:
		if b.Angle == 0 {
			ext := fixed.V2(b.HalfW, b.HalfH)
			return b.Position.Sub(ext), b.Position.Add(ext)
		}
		c := fixed.Cos(b.Angle)
		s := fixed.Sin(b.Angle)
		ex := fixed.Abs(fixed.Mul(b.HalfW, c)) + fixed.Abs(fixed.Mul(b.HalfH, s))
		ey := fixed.Abs(fixed.Mul(b.HalfW, s)) + fixed.Abs(fixed.Mul(b.HalfH, c))
		ext := fixed.V2(ex, ey)
		return b.Position.Sub(ext), b.Position.Add(ext)
	}
	return b.Position, b.Position
}

// boundingRadius is used by the broad phase to decide whether a body
// fits in a single cell or must go on the oversized list.
func (b *Body) boundingRadius() fixed.Scalar {
	switch b.Shape {
	case ShapeCircle:
		return b.Radius
	case ShapeBox:
		return fixed.Sqrt(fixed.Mul(b.HalfW, b.HalfW) + fixed.Mul(b.HalfH, b.HalfH))
	}
	return 0
}
