package ulp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDistance(t *testing.T) {
	negZero := math.Copysign(0, -1)

	testCases := []struct {
		name string
		a, b float64
		want uint64
	}{
		{"identical", 1.5, 1.5, 0},
		{"signed zeros", negZero, 0, 0},
		{"next up", 1.0, math.Nextafter(1.0, 2), 1},
		{"next down", 1.0, math.Nextafter(1.0, 0), 1},
		{"two steps", 1.0, math.Nextafter(math.Nextafter(1.0, 2), 2), 2},
		{"negative neighbours", -1.0, math.Nextafter(-1.0, -2), 1},
		{"max to inf", math.MaxFloat64, math.Inf(1), 1},
		{"smallest subnormal from zero", 0, math.SmallestNonzeroFloat64, 1},
		{"nan left", math.NaN(), 1, Infinite},
		{"nan right", 1, math.NaN(), Infinite},
		{"nan both", math.NaN(), math.NaN(), Infinite},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Distance(tc.a, tc.b))
			require.Equal(t, tc.want, Distance(tc.b, tc.a))
		})
	}
}

func TestDistanceAcrossZero(t *testing.T) {
	// -inf and +inf sit at the two ends of the ordering
	require.Equal(t, Distance(-math.MaxFloat64, math.MaxFloat64)+2, Distance(math.Inf(-1), math.Inf(1)))
	require.Equal(t, uint64(3), Distance(-math.SmallestNonzeroFloat64, math.SmallestNonzeroFloat64))
}

func TestRelErr(t *testing.T) {
	require.Equal(t, 0.0, RelErr(0, 0))
	require.InDelta(t, 0.04, RelErr(1.2, 1.25), 1e-12)
	require.Equal(t, 1.0, RelErr(1e-12, 0))
}

func TestDistanceMonotone(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.Float64().Draw(t, "a")
		if math.IsNaN(a) || math.IsInf(a, 0) {
			t.Skip("non-finite")
		}
		up := math.Nextafter(a, math.Inf(1))
		upUp := math.Nextafter(up, math.Inf(1))
		if math.IsInf(upUp, 0) {
			t.Skip("at the edge")
		}
		if Distance(a, upUp) < Distance(a, up) {
			t.Fatalf("distance shrank moving away from %v", a)
		}
	})
}
