package fixed

// Vec3 is a 3D vector of Q16.16 scalars. The core simulation (spec.md §1,
// §4.3) is 2D only; Vec3 exists for the quaternion/rotation support code
// and for hosts embedding the 3D physics variant described as future work
// in spec.md §9 Open Questions.
type Vec3 struct {
	X, Y, Z Scalar
}

var Zero3 = Vec3{}

func V3(x, y, z Scalar) Vec3 { return Vec3{X: x, Y: y, Z: z} }

func (a Vec3) Add(b Vec3) Vec3 { return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z} }
func (a Vec3) Sub(b Vec3) Vec3 { return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }
func (a Vec3) Neg() Vec3       { return Vec3{-a.X, -a.Y, -a.Z} }

func (a Vec3) Scale(s Scalar) Vec3 {
	return Vec3{Mul(a.X, s), Mul(a.Y, s), Mul(a.Z, s)}
}

func (a Vec3) Dot(b Vec3) Scalar {
	return Mul(a.X, b.X) + Mul(a.Y, b.Y) + Mul(a.Z, b.Z)
}

func (a Vec3) Cross(b Vec3) Vec3 {
	return Vec3{
		X: Mul(a.Y, b.Z) - Mul(a.Z, b.Y),
		Y: Mul(a.Z, b.X) - Mul(a.X, b.Z),
		Z: Mul(a.X, b.Y) - Mul(a.Y, b.X),
	}
}

func (a Vec3) LengthSq() Scalar { return a.Dot(a) }
func (a Vec3) Length() Scalar   { return Sqrt(a.LengthSq()) }

func (a Vec3) Normalize() Vec3 {
	l := a.Length()
	if l == 0 {
		return Zero3
	}
	return Vec3{Div(a.X, l), Div(a.Y, l), Div(a.Z, l)}
}
