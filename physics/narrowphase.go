package physics

import "github.com/lockstep/kernel/fixed"

// contact describes one resolvable overlap between two bodies, with the
// normal pointing from a to b.
type contact struct {
	normal fixed.Vec2
	point  fixed.Vec2
	depth  fixed.Scalar
}

// narrow dispatches to the correct case based on the two bodies' shapes
// and returns (contact, true) if they overlap (spec.md §4.3 "Narrow
// phase").
func narrow(a, b *Body) (contact, bool) {
	switch {
	case a.Shape == ShapeCircle && b.Shape == ShapeCircle:
		return circleCircle(a, b)
	case a.Shape == ShapeBox && b.Shape == ShapeBox:
		return boxBox(a, b)
	case a.Shape == ShapeCircle && b.Shape == ShapeBox:
		return circleBox(a, b)
	case a.Shape == ShapeBox && b.Shape == ShapeCircle:
		c, ok := circleBox(b, a)
		if !ok {
			return contact{}, false
		}
		c.normal = c.normal.Neg()
		return c, true
	}
	return contact{}, false
}

func circleCircle(a, b *Body) (contact, bool) {
	delta := b.Position.Sub(a.Position)
	distSq := delta.LengthSq()
	sumR := a.Radius + b.Radius
	sumRSq := fixed.Mul(sumR, sumR)
	if distSq >= sumRSq {
		return contact{}, false
	}
	dist := fixed.Sqrt(distSq)
	depth := sumR - dist
	var normal fixed.Vec2
	if dist == 0 {
		normal = fixed.V2(fixed.One, 0)
	} else {
		normal = fixed.V2(fixed.Div(delta.X, dist), fixed.Div(delta.Y, dist))
	}
	point := a.Position.Add(normal.Scale(a.Radius))
	return contact{normal: normal, point: point, depth: depth}, true
}

func boxBox(a, b *Body) (contact, bool) {
	delta := b.Position.Sub(a.Position)
	overlapX := (a.HalfW + b.HalfW) - fixed.Abs(delta.X)
	overlapY := (a.HalfH + b.HalfH) - fixed.Abs(delta.Y)
	if overlapX <= 0 || overlapY <= 0 {
		return contact{}, false
	}
	mid := a.Position.Add(b.Position).Scale(fixed.Half)
	if overlapX < overlapY {
		normal := fixed.V2(fixed.Sign(delta.X), 0)
		if delta.X == 0 {
			normal = fixed.V2(fixed.One, 0)
		}
		return contact{normal: normal, point: mid, depth: overlapX}, true
	}
	normal := fixed.V2(0, fixed.Sign(delta.Y))
	if delta.Y == 0 {
		normal = fixed.V2(0, fixed.One)
	}
	return contact{normal: normal, point: mid, depth: overlapY}, true
}

// circleBox tests a against b where a is the circle and b is the box,
// matching spec.md §4.3 case 3: clamp the circle centre into the box to
// find the closest point, then branch on whether the centre itself is
// inside the box.
func circleBox(a, b *Body) (contact, bool) {
	local := a.Position.Sub(b.Position)

	clampedX := fixed.Clamp(local.X, -b.HalfW, b.HalfW)
	clampedY := fixed.Clamp(local.Y, -b.HalfH, b.HalfH)
	closestLocal := fixed.V2(clampedX, clampedY)

	// Normal convention throughout this package points from a to b, so
	// that the resolver's "a -= normal*corr; b += normal*corr" separates
	// both bodies (mirroring circleCircle and boxBox, where the normal is
	// literally b.Position - a.Position).
	inside := local.X == clampedX && local.Y == clampedY
	if !inside {
		closest := b.Position.Add(closestLocal)
		delta := closest.Sub(a.Position)
		distSq := delta.LengthSq()
		if distSq >= fixed.Mul(a.Radius, a.Radius) {
			return contact{}, false
		}
		dist := fixed.Sqrt(distSq)
		var normal fixed.Vec2
		if dist == 0 {
			normal = fixed.V2(0, fixed.One)
		} else {
			normal = fixed.V2(fixed.Div(delta.X, dist), fixed.Div(delta.Y, dist))
		}
		depth := a.Radius - dist
		return contact{normal: normal, point: closest, depth: depth}, true
	}

	// Centre is inside the box: find the axis with the smallest exit
	// distance and push out along it, adding the radius to the exit
	// distance. This is the deliberately aggressive branch documented in
	// spec.md §9 Open Questions (1): it ejects the centre past the face
	// rather than to the face, to avoid chatter on deep penetration.
	exitX := b.HalfW - fixed.Abs(local.X)
	exitY := b.HalfH - fixed.Abs(local.Y)

	var normal fixed.Vec2
	var exitDistance fixed.Scalar
	if exitX < exitY {
		exitDistance = exitX
		normal = fixed.V2(-fixed.Sign(local.X), 0)
		if local.X == 0 {
			normal = fixed.V2(-fixed.One, 0)
		}
	} else {
		exitDistance = exitY
		normal = fixed.V2(0, -fixed.Sign(local.Y))
		if local.Y == 0 {
			normal = fixed.V2(0, -fixed.One)
		}
	}
	depth := exitDistance + a.Radius
	point := b.Position.Add(closestLocal)
	return contact{normal: normal, point: point, depth: depth}, true
}
