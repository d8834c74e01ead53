package physics

import "github.com/lockstep/kernel/fixed"

// ContactEvent is reported to the world's contact listener for every
// resolved (or sensor) pair this step, after sorting by (labelA, labelB)
// per spec.md §4.3 "Ordering determinism".
type ContactEvent struct {
	A, B     *Body
	Point    fixed.Vec2
	Normal   fixed.Vec2
	IsSensor bool
}

// resolve applies position correction and velocity impulse to a and b
// for the given contact, per spec.md §4.3 "Resolver". Sensor pairs skip
// both and are reported as-is.
func resolve(a, b *Body, c contact) {
	if a.IsSensor || b.IsSensor {
		return
	}
	positionCorrect(a, b, c)
	velocityImpulse(a, b, c)
}

func positionCorrect(a, b *Body, c contact) {
	if !a.Movable() && !b.Movable() {
		return
	}
	depth := c.depth - positionSlop
	if depth <= 0 {
		return
	}
	correction := c.normal.Scale(depth)

	aMovable := a.Movable()
	bMovable := b.Movable()
	switch {
	case aMovable && bMovable:
		half := correction.Scale(fixed.Half)
		a.Position = a.Position.Sub(half)
		b.Position = b.Position.Add(half)
	case bMovable:
		b.Position = b.Position.Add(correction)
	case aMovable:
		a.Position = a.Position.Sub(correction)
	}
}

func velocityImpulse(a, b *Body, c contact) {
	relVel := b.Velocity.Sub(a.Velocity)
	velAlongNormal := relVel.Dot(c.normal)
	if velAlongNormal > 0 {
		return
	}

	invMassSum := a.InvMass + b.InvMass
	if invMassSum == 0 {
		return
	}

	e := fixed.Min(a.Restitution, b.Restitution)
	j := fixed.Mul(-(fixed.One + e), velAlongNormal)
	j = fixed.Div(j, invMassSum)

	impulse := c.normal.Scale(j)
	a.Velocity = a.Velocity.Sub(impulse.Scale(a.InvMass))
	b.Velocity = b.Velocity.Add(impulse.Scale(b.InvMass))
	if j != 0 {
		if a.Sleeping() {
			a.Wake()
		}
		if b.Sleeping() {
			b.Wake()
		}
	}

	// Tangent friction, clamped by the Coulomb limit |j_n|*mu.
	relVel = b.Velocity.Sub(a.Velocity)
	tangent := relVel.Sub(c.normal.Scale(relVel.Dot(c.normal)))
	tangentLenSq := tangent.LengthSq()
	if tangentLenSq == 0 {
		return
	}
	tangent = tangent.Normalize()

	jt := -relVel.Dot(tangent)
	jt = fixed.Div(jt, invMassSum)

	mu := fixed.Mul(a.Friction, b.Friction)
	maxFriction := fixed.Mul(fixed.Abs(j), mu)
	jt = fixed.Clamp(jt, -maxFriction, maxFriction)

	frictionImpulse := tangent.Scale(jt)
	a.Velocity = a.Velocity.Sub(frictionImpulse.Scale(a.InvMass))
	b.Velocity = b.Velocity.Add(frictionImpulse.Scale(b.InvMass))
}
