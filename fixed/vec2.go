package fixed

// Vec2 is a 2D vector of Q16.16 scalars.
type Vec2 struct {
	X, Y Scalar
}

// Zero2 is the zero vector.
var Zero2 = Vec2{}

func V2(x, y Scalar) Vec2 { return Vec2{X: x, Y: y} }

func (a Vec2) Add(b Vec2) Vec2 { return Vec2{a.X + b.X, a.Y + b.Y} }
func (a Vec2) Sub(b Vec2) Vec2 { return Vec2{a.X - b.X, a.Y - b.Y} }
func (a Vec2) Neg() Vec2       { return Vec2{-a.X, -a.Y} }

func (a Vec2) Scale(s Scalar) Vec2 {
	return Vec2{Mul(a.X, s), Mul(a.Y, s)}
}

func (a Vec2) Dot(b Vec2) Scalar {
	return Mul(a.X, b.X) + Mul(a.Y, b.Y)
}

// Cross returns the scalar (z-component) cross product of a and b.
func (a Vec2) Cross(b Vec2) Scalar {
	return Mul(a.X, b.Y) - Mul(a.Y, b.X)
}

func (a Vec2) LengthSq() Scalar {
	return a.Dot(a)
}

func (a Vec2) Length() Scalar {
	return Sqrt(a.LengthSq())
}

// Normalize returns a unit vector in the direction of a, or the zero
// vector when a has zero length (never divides by zero).
func (a Vec2) Normalize() Vec2 {
	l := a.Length()
	if l == 0 {
		return Zero2
	}
	return Vec2{Div(a.X, l), Div(a.Y, l)}
}

// Perp returns the counter-clockwise perpendicular of a.
func (a Vec2) Perp() Vec2 {
	return Vec2{-a.Y, a.X}
}

func (a Vec2) Equal(b Vec2) bool {
	return a.X == b.X && a.Y == b.Y
}

// Rotate rotates a by the given angle (radians, Q16.16) using the trig
// lookup table, never a raw floating-point rotation matrix.
func (a Vec2) Rotate(angle Scalar) Vec2 {
	s := Sin(angle)
	c := Cos(angle)
	return Vec2{
		X: Mul(a.X, c) - Mul(a.Y, s),
		Y: Mul(a.X, s) + Mul(a.Y, c),
	}
}
