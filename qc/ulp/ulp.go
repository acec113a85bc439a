// Package ulp measures the distance between two float64 values in units in the
// last place.
package ulp

import (
	"math"
)

// Infinite is the distance reported when either operand is NaN.
const Infinite = math.MaxUint64

// Distance returns how many representable doubles separate a and b. Zeros of
// either sign are at distance 0 from each other; NaN is Infinite from
// everything, itself included.
func Distance(a, b float64) uint64 {
	if math.IsNaN(a) || math.IsNaN(b) {
		return Infinite
	}
	if a == 0 && b == 0 {
		return 0
	}

	ia, ib := ordered(a), ordered(b)
	if ia >= ib {
		return uint64(ia) - uint64(ib)
	}
	return uint64(ib) - uint64(ia)
}

// ordered flips the magnitude bits of negative values so that integer order
// matches float order across the whole line.
func ordered(f float64) int64 {
	bits := int64(math.Float64bits(f))
	return bits ^ ((bits >> 63) & math.MaxInt64)
}

// RelErr is |a-b| / max(1e-12, |a|, |b|).
func RelErr(a, b float64) float64 {
	return math.Abs(a-b) / math.Max(1e-12, math.Max(math.Abs(a), math.Abs(b)))
}
