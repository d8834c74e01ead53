package fixed

import (
	"math"
	"testing"
)

func TestSinCos_PythagoreanIdentity(t *testing.T) {
	for deg := 0; deg < 360; deg += 5 {
		angle := FromFloat(float64(deg) * math.Pi / 180)
		s := Sin(angle).ToFloat()
		c := Cos(angle).ToFloat()
		sum := s*s + c*c
		if math.Abs(sum-1.0) > 0.02 {
			t.Errorf("deg=%d: sin^2+cos^2 = %v, want ~1", deg, sum)
		}
	}
}

func TestSin_AtPi(t *testing.T) {
	got := Sin(Pi).ToFloat()
	if math.Abs(got) > 0.01 {
		t.Errorf("Sin(pi) = %v, want ~0", got)
	}
}

func TestSin_KnownValues(t *testing.T) {
	if math.Abs(Sin(0).ToFloat()) > 0.001 {
		t.Errorf("Sin(0) = %v, want 0", Sin(0).ToFloat())
	}
	if math.Abs(Sin(HalfPi).ToFloat()-1.0) > 0.01 {
		t.Errorf("Sin(pi/2) = %v, want ~1", Sin(HalfPi).ToFloat())
	}
}

func TestAtan2_Quadrants(t *testing.T) {
	cases := []struct {
		y, x Scalar
		want float64
	}{
		{FromInt(1), FromInt(1), math.Pi / 4},
		{FromInt(1), FromInt(-1), 3 * math.Pi / 4},
		{FromInt(-1), FromInt(-1), -3 * math.Pi / 4},
		{FromInt(-1), FromInt(1), -math.Pi / 4},
	}
	for _, c := range cases {
		got := Atan2(c.y, c.x).ToFloat()
		if math.Abs(got-c.want) > 0.05 {
			t.Errorf("Atan2(%v,%v) = %v, want ~%v", c.y.ToFloat(), c.x.ToFloat(), got, c.want)
		}
	}
}

func TestVec2_Rotate90(t *testing.T) {
	v := V2(FromInt(1), FromInt(0))
	rotated := v.Rotate(HalfPi)
	if math.Abs(rotated.X.ToFloat()) > 0.01 {
		t.Errorf("rotate(1,0) by 90deg: X = %v, want ~0", rotated.X.ToFloat())
	}
	if math.Abs(rotated.Y.ToFloat()-1.0) > 0.01 {
		t.Errorf("rotate(1,0) by 90deg: Y = %v, want ~1", rotated.Y.ToFloat())
	}
}
