package exam

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOverallNormalizesToTenPointScale(t *testing.T) {
	tests := []struct {
		name     string
		total    float64
		maxTotal float64
		want     float64
	}{
		{"full marks", 40, 40, 10.0},
		{"all fallback midpoints", 20, 40, 5.0},
		{"rounds to one decimal", 35, 40, 8.8},
		{"rounds half up", 33, 40, 8.3},
		{"zero total", 0, 40, 0},
		{"zero max is safe", 10, 0, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.InDelta(t, tc.want, Overall(tc.total, tc.maxTotal), 1e-9)
		})
	}
}

func TestOverallIndependentOfExaminerCount(t *testing.T) {
	// Same fraction of the total, different panel sizes.
	require.Equal(t, Overall(15, 20), Overall(30, 40))
}

func TestBandIsMonotonicStepFunction(t *testing.T) {
	tests := []struct {
		total float64
		want  string
	}{
		{40, "A*"},
		{36, "A*"},
		{35.9, "A"},
		{32, "A"},
		{28, "B"},
		{24, "C"},
		{20, "D"},
		{16, "E"},
		{15.9, "U"},
		{0, "U"},
	}

	for _, tc := range tests {
		require.Equal(t, tc.want, Band(tc.total, 40), "total %.1f", tc.total)
	}
}

func TestBandZeroMax(t *testing.T) {
	require.Equal(t, "U", Band(10, 0))
}

func TestAggregationIsIdempotent(t *testing.T) {
	first := Overall(27, 40)
	second := Overall(27, 40)
	require.Equal(t, first, second)
	require.Equal(t, Band(27, 40), Band(27, 40))
}

func TestClamp(t *testing.T) {
	require.Equal(t, 10.0, Clamp(42, 10))
	require.Equal(t, 0.0, Clamp(-3, 10))
	require.Equal(t, 7.5, Clamp(7.5, 10))
}
