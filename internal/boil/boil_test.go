package boil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLengthFactor(t *testing.T) {
	require.Equal(t, 2.5, LengthFactor(0))
	require.InDelta(t, 10, LengthFactor(0.1), 1e-9)
	require.InDelta(t, 2.02, LengthFactor(18), 0.01)
	require.InDelta(t, 0, LengthFactor(100), 0.01)

	// strictly decreasing with length
	prev := LengthFactor(0.1)
	for _, h := range []float64{1, 5, 10, 25, 50, 200} {
		f := LengthFactor(h)
		require.Less(t, f, prev)
		prev = f
	}
}

func TestRating(t *testing.T) {
	table := []struct {
		name     string
		hours    float64
		score    float64
		weight   float64
		expected float64
	}{
		{
			name:  "unknown length",
			hours: 0, score: 80, weight: 0.75,
			// 80*0.75 + 2.5*0.25*10
			expected: 66.3,
		},
		{
			name:  "default weight",
			hours: 0, score: 80, weight: 0,
			expected: 66.3,
		},
		{
			name:  "very short game",
			hours: 0.1, score: 90, weight: 0.75,
			// 67.5 + 10*2.5
			expected: 92.5,
		},
		{
			name:  "full quality weight",
			hours: 40, score: 73, weight: 1,
			expected: 73,
		},
		{
			name:  "length only",
			hours: 0.1, score: 73, weight: 0.0000001,
			expected: 100,
		},
	}

	for _, row := range table {
		t.Run(row.name, func(t *testing.T) {
			require.Equal(t, row.expected, Rating(row.hours, row.score, row.weight))
		})
	}
}

func TestRatingMatchesFormula(t *testing.T) {
	for _, hours := range []float64{0.5, 3.2, 12, 18, 47.5, 120} {
		for _, score := range []float64{40, 65, 88, 97} {
			lf := 10 * math.Exp(-1*(math.Log(5)/18)*(hours-0.1))
			expected := math.Round((score*0.75+lf*0.25*10)*10) / 10
			require.Equal(t, expected, Rating(hours, score, 0.75))
		}
	}
}

func TestRound1(t *testing.T) {
	require.Equal(t, 12.5, Round1(12.4999999))
	require.Equal(t, 0.8, Round1(0.75))
	require.Equal(t, 66.3, Round1(66.25))
}

// values whose tenths land exactly on a half after scaling round away from
// zero, even where their binary value sits just below the half.
func TestRound1Halves(t *testing.T) {
	table := []struct {
		input    float64
		expected float64
	}{
		{input: 1.15, expected: 1.2},
		{input: 2.25, expected: 2.3},
		{input: 8.45, expected: 8.5},
		{input: 0.05, expected: 0.1},
		{input: -1.25, expected: -1.3},
	}
	for _, row := range table {
		require.Equal(t, row.expected, Round1(row.input), "%v", row.input)
	}
}
