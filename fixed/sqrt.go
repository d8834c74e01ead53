package fixed

// maxSqrtIterations caps the Newton-Raphson loop so a pathological seed
// can never spin the kernel; the correction pass below is what actually
// guarantees the contract, not iteration count.
const maxSqrtIterations = 40

// Sqrt computes the Q16.16 square root of a non-negative Q16.16 value
// using Newton-Raphson on the 64-bit widened value, followed by a
// post-loop correction that nudges the result until
// result*result <= input*One < (result+1)*(result+1). The correction is
// what makes the result independent of the initial guess, which is the
// determinism contract this function exists to satisfy.
func Sqrt(s Scalar) Scalar {
	if s <= 0 {
		return 0
	}

	target := int64(s) << fracBits // input * One, widened

	// Initial guess: s itself, a reasonable order-of-magnitude seed in
	// Q16.16 space for inputs >= 1.0; it is never zero here since s > 0,
	// and the loop below still guards against a zero x before dividing.
	x := int64(s)
	if x == 0 {
		x = 1
	}

	for i := 0; i < maxSqrtIterations; i++ {
		if x == 0 {
			x = 1
		}
		next := (x + target/x) / 2
		if next == x {
			break
		}
		x = next
	}

	r := Scalar(x)

	// Correction: decrement while we overshot, increment while we
	// undershot. At most a handful of steps given the Newton start.
	for r > 0 && int64(r)*int64(r) > target {
		r--
	}
	for int64(r+1)*int64(r+1) <= target {
		r++
	}

	return r
}
