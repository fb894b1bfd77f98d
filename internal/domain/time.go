package domain

// Time comparisons throughout the core use 32-bit wraparound arithmetic:
// widening to 64 bits would break the comparison semantics at the 49.7-day
// rollover of a wrapping millisecond counter.

// SignedDelta returns (int32)(a - b), the signed-difference idiom used for
// "has this deadline passed" comparisons (source scheduler, tick driver).
func SignedDelta(a, b uint32) int32 {
	return int32(a - b)
}

// Elapsed returns the unsigned wraparound elapsed time a-b, used for window
// and aging comparisons where both operands are known to be non-decreasing
// within the window being tested.
func Elapsed(a, b uint32) uint32 {
	return a - b
}
