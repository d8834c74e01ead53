package fixed

import "testing"

// TestScalar_RoundTrip covers Scenario A from spec.md §8.
func TestScalar_RoundTrip(t *testing.T) {
	if got := FromFloat(3.5); got != 229376 {
		t.Errorf("FromFloat(3.5) = %d, want 229376", got)
	}
	if got := FromFloat(3.5).ToFloat(); got != 3.5 {
		t.Errorf("ToFloat(FromFloat(3.5)) = %v, want 3.5", got)
	}

	got := Mul(FromFloat(2.5), FromInt(4))
	want := FromInt(10)
	if got != want {
		t.Errorf("Mul(2.5,4) = %d, want %d (655360)", got, want)
	}
	if want != 655360 {
		t.Fatalf("sanity: FromInt(10) = %d, want 655360", want)
	}
}

func TestDiv_ByZeroSaturates(t *testing.T) {
	testCases := []struct {
		a    Scalar
		want Scalar
	}{
		{FromInt(5), maxSat},
		{FromInt(-5), -maxSat},
		{0, maxSat},
	}
	for _, tc := range testCases {
		if got := Div(tc.a, 0); got != tc.want {
			t.Errorf("Div(%d,0) = %d, want %d", tc.a, got, tc.want)
		}
	}
}

func TestFloorCeil(t *testing.T) {
	v := FromFloat(3.75)
	if got := Floor(v); got != FromInt(3) {
		t.Errorf("Floor(3.75) = %v, want 3", got.ToFloat())
	}
	if got := Ceil(v); got != FromInt(4) {
		t.Errorf("Ceil(3.75) = %v, want 4", got.ToFloat())
	}
	if got := Floor(FromInt(3)); got != FromInt(3) {
		t.Errorf("Floor(3) = %v, want 3", got.ToFloat())
	}
}

func TestMul_BitIdenticalAcrossRuns(t *testing.T) {
	a, b := FromFloat(1.2345), FromFloat(-6.789)
	first := Mul(a, b)
	for i := 0; i < 1000; i++ {
		if got := Mul(a, b); got != first {
			t.Fatalf("Mul not bit-identical at iteration %d: %d != %d", i, got, first)
		}
	}
}

func TestSqrt_ExactForPerfectSquares(t *testing.T) {
	for n := 0; n < 50; n++ {
		in := FromInt(n * n)
		got := Sqrt(in)
		want := FromInt(n)
		if got != want {
			t.Errorf("Sqrt(%d^2) = %v, want %d", n, got.ToFloat(), n)
		}
	}
}

func TestSqrt_Contract(t *testing.T) {
	for _, f := range []float64{0.01, 0.5, 1, 2, 3.7, 100, 32767} {
		in := FromFloat(f)
		r := Sqrt(in)
		target := int64(in) << fracBits
		if int64(r)*int64(r) > target {
			t.Errorf("Sqrt(%v): r^2 > input*One", f)
		}
		if int64(r+1)*int64(r+1) <= target {
			t.Errorf("Sqrt(%v): (r+1)^2 <= input*One", f)
		}
	}
}
