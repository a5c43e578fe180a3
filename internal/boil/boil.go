// Package boil computes the "boil rating" of a game, a single score that
// weighs critic rating against how long the game takes to beat.
package boil

import "math"

// DefaultQualityWeight is the share of the rating that comes from the critic
// score, the rest comes from the length factor.
const DefaultQualityWeight = 0.75

// unknownLengthFactor is used when no playtime is known.
const unknownLengthFactor = 2.5

// the length factor shrinks by a factor of 5 every 18 hours.
var decay = math.Log(5) / 18

// LengthFactor maps hours to beat onto (0, 10], shorter is higher.
// 0.1h -> 10, 18h -> ~2, 100h -> ~0. Zero hours means unknown.
func LengthFactor(hours float64) float64 {
	if hours == 0 {
		return unknownLengthFactor
	}
	return 10 * math.Exp(-decay*(hours-0.1))
}

// Rating combines a critic score (0-100) and hours to beat into a 0-100
// score rounded to one decimal. A zero qualityWeight means
// DefaultQualityWeight.
func Rating(hours, score, qualityWeight float64) float64 {
	if qualityWeight == 0 {
		qualityWeight = DefaultQualityWeight
	}
	rating := score*qualityWeight + LengthFactor(hours)*(1-qualityWeight)*10
	return Round1(rating)
}

// Round1 rounds to one decimal place, halves away from zero.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
