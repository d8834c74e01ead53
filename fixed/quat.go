package fixed

// Quat is a unit quaternion of Q16.16 scalars, used by the rotational
// component of the 3D variant (spec.md §9 Open Questions: the 3D resolver
// itself is out of scope, but its rotation representation lives here
// alongside the rest of the numeric layer).
type Quat struct {
	X, Y, Z, W Scalar
}

// IdentityQuat is the identity rotation.
var IdentityQuat = Quat{W: One}

// FromAxisAngle builds a unit quaternion from a rotation axis (assumed
// already normalized) and an angle in radians (Q16.16).
func FromAxisAngle(axis Vec3, angle Scalar) Quat {
	half := Div(angle, FromInt(2))
	s := Sin(half)
	c := Cos(half)
	return Quat{
		X: Mul(axis.X, s),
		Y: Mul(axis.Y, s),
		Z: Mul(axis.Z, s),
		W: c,
	}
}

// Mul composes two rotations: applying the result is equivalent to
// applying b then a.
func (a Quat) Mul(b Quat) Quat {
	return Quat{
		X: Mul(a.W, b.X) + Mul(a.X, b.W) + Mul(a.Y, b.Z) - Mul(a.Z, b.Y),
		Y: Mul(a.W, b.Y) - Mul(a.X, b.Z) + Mul(a.Y, b.W) + Mul(a.Z, b.X),
		Z: Mul(a.W, b.Z) + Mul(a.X, b.Y) - Mul(a.Y, b.X) + Mul(a.Z, b.W),
		W: Mul(a.W, b.W) - Mul(a.X, b.X) - Mul(a.Y, b.Y) - Mul(a.Z, b.Z),
	}
}

func (a Quat) Conjugate() Quat {
	return Quat{X: -a.X, Y: -a.Y, Z: -a.Z, W: a.W}
}

func (a Quat) LengthSq() Scalar {
	return Mul(a.X, a.X) + Mul(a.Y, a.Y) + Mul(a.Z, a.Z) + Mul(a.W, a.W)
}

// Normalize returns a unit quaternion, or IdentityQuat if a has zero
// length (never divides by zero).
func (a Quat) Normalize() Quat {
	l := Sqrt(a.LengthSq())
	if l == 0 {
		return IdentityQuat
	}
	return Quat{Div(a.X, l), Div(a.Y, l), Div(a.Z, l), Div(a.W, l)}
}

// RotateVec3 rotates v by the unit quaternion a.
func (a Quat) RotateVec3(v Vec3) Vec3 {
	qv := Quat{v.X, v.Y, v.Z, 0}
	r := a.Mul(qv).Mul(a.Conjugate())
	return Vec3{r.X, r.Y, r.Z}
}
