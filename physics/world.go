package physics

import (
	"sort"

	"github.com/lockstep/kernel/fixed"
)

// World is a self-contained 2D physics world stepped once per tick by the
// postPhysics/physics/prePhysics systems the façade wires up (spec.md
// §4.6). It holds no entity-store knowledge; the façade's physics plugin
// is responsible for mirroring ecs components in and out of bodies.
type World struct {
	Gravity        fixed.Vec2
	LinearDamping  fixed.Scalar
	AngularDamping fixed.Scalar

	bodies   []*Body
	listener func(ContactEvent)
}

// NewWorld creates a physics world with linear and angular damping of
// 0.1, applied each step as a factor of (1 - 0.1*dt), and zero gravity;
// callers set Gravity explicitly.
func NewWorld() *World {
	return &World{
		LinearDamping:  fixed.FromFloat(0.1),
		AngularDamping: fixed.FromFloat(0.1),
	}
}

// AddBody adds b to the world.
func (w *World) AddBody(b *Body) { w.bodies = append(w.bodies, b) }

// RemoveBody removes b from the world, if present.
func (w *World) RemoveBody(b *Body) {
	for i, body := range w.bodies {
		if body == b {
			w.bodies = append(w.bodies[:i], w.bodies[i+1:]...)
			return
		}
	}
}

// Bodies returns the current body list (not label-sorted; sorting only
// happens at the start of Step).
func (w *World) Bodies() []*Body { return w.bodies }

// SetContactListener installs the handler invoked once per resolved or
// sensor contact, in (labelA, labelB) order, each step.
func (w *World) SetContactListener(fn func(ContactEvent)) { w.listener = fn }

// RestoreWakeAll wakes every body in the world. Must be called whenever
// the owning simulation's state is loaded from a snapshot (spec.md §4.3
// "restoring a snapshot wakes every body" / §9 Design Notes "Restore
// wakes every body"): a receiving peer could otherwise continue
// simulating a body as asleep when the authority expects it moving,
// silently diverging.
func (w *World) RestoreWakeAll() {
	for _, b := range w.bodies {
		b.Wake()
	}
}

// Step advances the world by dt, in the order spec.md §4.3 "Integration"
// describes: sort bodies by label, apply gravity/damping, run the broad
// and narrow phases and resolver, integrate position/angle, clamp small
// velocities, and update sleep bookkeeping.
func (w *World) Step(dt fixed.Scalar) {
	sort.SliceStable(w.bodies, func(i, j int) bool {
		return w.bodies[i].Label < w.bodies[j].Label
	})

	for _, b := range w.bodies {
		if b.Kind != Dynamic || b.Sleeping() {
			continue
		}
		b.Velocity = b.Velocity.Add(w.Gravity.Scale(dt))
		b.Velocity = b.Velocity.Add(b.pendingForce.Scale(fixed.Div(dt, b.massOrOne())))
		b.pendingForce = fixed.Zero2
		b.Velocity = b.Velocity.Scale(fixed.One - fixed.Mul(w.LinearDamping, dt))
		if !b.LockRotation {
			b.AngularV = fixed.Mul(b.AngularV, fixed.One-fixed.Mul(w.AngularDamping, dt))
		}
	}

	pairs := broadPhase(w.bodies)

	var events []ContactEvent
	for _, p := range pairs {
		a, b := w.bodies[p.a], w.bodies[p.b]
		c, ok := narrow(a, b)
		if !ok {
			continue
		}
		isSensor := a.IsSensor || b.IsSensor
		if !isSensor {
			resolve(a, b, c)
		}
		events = append(events, ContactEvent{A: a, B: b, Point: c.point, Normal: c.normal, IsSensor: isSensor})
	}

	for _, b := range w.bodies {
		if b.Kind == Static || b.Sleeping() {
			continue
		}
		b.Position = b.Position.Add(b.Velocity.Scale(dt))
		if !b.LockRotation {
			b.Angle = b.Angle + fixed.Mul(b.AngularV, dt)
		}
		clampSmallVelocity(b)
		updateSleep(b)
	}

	if w.listener != nil {
		sort.SliceStable(events, func(i, j int) bool {
			if events[i].A.Label != events[j].A.Label {
				return events[i].A.Label < events[j].A.Label
			}
			return events[i].B.Label < events[j].B.Label
		})
		for _, e := range events {
			w.listener(e)
		}
	}
}

func clampSmallVelocity(b *Body) {
	if fixed.Abs(b.Velocity.X) < velocityFloor {
		b.Velocity.X = 0
	}
	if fixed.Abs(b.Velocity.Y) < velocityFloor {
		b.Velocity.Y = 0
	}
}

// updateSleep implements the 20-frame sleep condition of spec.md §4.3:
// while |v|^2 < threshold^2 and |w|^2 < threshold^2 for sleepFrames
// consecutive steps, the body sleeps and its velocities are forced to
// zero.
func updateSleep(b *Body) {
	if b.Kind != Dynamic {
		return
	}
	thresholdSq := fixed.Mul(sleepThreshold, sleepThreshold)
	slow := b.Velocity.LengthSq() < thresholdSq && fixed.Mul(b.AngularV, b.AngularV) < thresholdSq
	if !slow {
		b.sleepCounter = 0
		return
	}
	b.sleepCounter++
	if b.sleepCounter >= sleepFrames {
		b.sleeping = true
		b.Velocity = fixed.Zero2
		b.AngularV = 0
	}
}

// massOrOne returns Mass, or fixed.One if Mass is non-positive, so that
// a force applied to an effectively-infinite-mass body integrates to no
// acceleration rather than dividing by zero.
func (b *Body) massOrOne() fixed.Scalar {
	if b.Mass <= 0 {
		return fixed.One
	}
	return b.Mass
}
