package fixed

import "math"

// tableSize is the number of entries spanning one quadrant [0, pi/2].
const tableSize = 256

// Pi, HalfPi and TwoPi are the Q16.16 constants the angle-reduction code
// reduces against. They are part of the binary contract in the same sense
// as sinTable: every implementation must reduce angles the same way.
var (
	Pi     = FromFloat(math.Pi)
	HalfPi = FromFloat(math.Pi / 2)
	TwoPi  = FromFloat(2 * math.Pi)
)

// sinTable holds tableSize+1 (257) pre-computed Q16.16 sine values
// spanning the first quadrant, i.e. sinTable[i] = sin(i * (pi/2) /
// tableSize). It is computed once at package init — a one-time,
// non-hot-path step — never recomputed during a tick. Its values are the
// binary contract spec.md §4.1 calls out: two implementations must agree
// on this table byte-for-byte, which means this table must never be
// regenerated with a different method or rounding rule once fixed.
var sinTable [tableSize + 1]Scalar

func init() {
	for i := 0; i <= tableSize; i++ {
		angle := (math.Pi / 2) * float64(i) / float64(tableSize)
		sinTable[i] = FromFloat(math.Sin(angle))
	}
}

// reduceAngle maps an arbitrary angle into [0, 2*Pi) by adding or
// subtracting enough full periods.
func reduceAngle(angle Scalar) Scalar {
	if TwoPi == 0 {
		return 0
	}
	r := angle % TwoPi
	if r < 0 {
		r += TwoPi
	}
	return r
}

// Sin returns the Q16.16 sine of angle (radians, Q16.16), by quadrant
// reflection over the one-quadrant lookup table with linear interpolation
// between neighbouring entries.
func Sin(angle Scalar) Scalar {
	a := reduceAngle(angle)

	quadrant := 0
	switch {
	case a < HalfPi:
		quadrant = 0
	case a < 2*HalfPi:
		quadrant = 1
		a = 2*HalfPi - a
	case a < 3*HalfPi:
		quadrant = 2
		a = a - 2*HalfPi
	default:
		quadrant = 3
		a = 4*HalfPi - a
	}

	v := lookupSin(a)
	if quadrant >= 2 {
		v = -v
	}
	return v
}

// lookupSin evaluates the quadrant-local table for a in [0, HalfPi],
// linearly interpolating between the two bracketing entries.
func lookupSin(a Scalar) Scalar {
	if a < 0 {
		a = 0
	}
	if a > HalfPi {
		a = HalfPi
	}

	// index == floor(a * tableSize / HalfPi); a and HalfPi are both
	// Q16.16, so the quotient is a plain integer. Done in 64-bit to avoid
	// overflow in the product.
	idxFP := (int64(a) * int64(tableSize)) / int64(HalfPi)
	idx := int(idxFP)
	if idx >= tableSize {
		return sinTable[tableSize]
	}

	lo := sinTable[idx]
	hi := sinTable[idx+1]

	// Fractional position between idx and idx+1, in Q16.16: the distance
	// of a past entry idx's angle, divided by one table step.
	step := Div(HalfPi, FromInt(tableSize))
	base := Mul(FromInt(idx), step)
	frac := Div(a-base, step)
	frac = Clamp(frac, 0, One)

	return lo + Mul(hi-lo, frac)
}

// Cos returns the Q16.16 cosine of angle via the identity cos(x) = sin(x + pi/2).
func Cos(angle Scalar) Scalar {
	return Sin(angle + HalfPi)
}

// Atan2 returns the Q16.16 angle (radians) of the point (y, x), using the
// standard octant reduction: the argument is folded into the first octant
// by sign and magnitude comparison, approximated there with a minimax
// polynomial on the ratio, then unfolded by the same symmetries.
func Atan2(y, x Scalar) Scalar {
	if x == 0 && y == 0 {
		return 0
	}

	absX := Abs(x)
	absY := Abs(y)

	var angle Scalar
	if absX >= absY {
		r := Div(absY, absX)
		angle = atanPoly(r)
	} else {
		r := Div(absX, absY)
		angle = HalfPi - atanPoly(r)
	}

	switch {
	case x >= 0 && y >= 0:
		return angle
	case x < 0 && y >= 0:
		return Pi - angle
	case x < 0 && y < 0:
		return angle - Pi
	default: // x >= 0 && y < 0
		return -angle
	}
}

// atanCoeff holds atanPoly's minimax coefficients pre-baked to Q16.16,
// the same one-time FromFloat-at-package-init treatment sinTable gets —
// §1 forbids floating-point on the simulation path, so these must be
// computed once, never re-derived from float64 constants inside Atan2's
// call path.
var atanCoeff = [5]Scalar{
	FromFloat(0.9998660),
	FromFloat(-0.3302995),
	FromFloat(0.1801410),
	FromFloat(-0.0851330),
	FromFloat(0.0208351),
}

// atanPoly approximates atan(r) for r in [0,1] using a ninth-order odd
// minimax-style polynomial (five terms in r, r^3, ..., r^9) in Q16.16, accurate to within the tolerance
// spec.md's testable properties require (no bit-exactness demanded for
// atan2, unlike sin/cos, which is why this is a polynomial rather than a
// committed lookup table).
func atanPoly(r Scalar) Scalar {
	r2 := Mul(r, r)
	poly := atanCoeff[4]
	poly = Mul(poly, r2) + atanCoeff[3]
	poly = Mul(poly, r2) + atanCoeff[2]
	poly = Mul(poly, r2) + atanCoeff[1]
	poly = Mul(poly, r2) + atanCoeff[0]
	return Mul(poly, r)
}
