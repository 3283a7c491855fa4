// Package rating implements the pairwise Elo recurrence.
package rating

import "math"

const (
	// DefaultRating is assigned to a competitor on first appearance.
	DefaultRating = 1500.0
	// DefaultK is the sensitivity constant used by the replay.
	DefaultK = 24.0

	base  = 10.0
	scale = 400.0
)

// Expected returns the win probabilities of two competitors rated ra and rb.
// ea+eb == 1 within floating-point tolerance for all finite inputs.
func Expected(ra, rb float64) (ea, eb float64) {
	ea = 1 / (1 + math.Pow(base, (rb-ra)/scale))
	eb = 1 / (1 + math.Pow(base, (ra-rb)/scale))
	return ea, eb
}

// Update applies one result. sa and sb are the observed outcome indicators
// (exactly one of them is 1). With sa+sb == 1 the update is zero-sum.
func Update(ra, rb, sa, sb, k float64) (raNew, rbNew float64) {
	ea, eb := Expected(ra, rb)
	raNew = ra + k*(sa-ea)
	rbNew = rb + k*(sb-eb)
	return raNew, rbNew
}

// Indicators turns two scores into outcome indicators. Side A wins only with
// a strictly greater score.
func Indicators(scoreA, scoreB float64) (sa, sb float64) {
	if scoreA > scoreB {
		return 1, 0
	}
	return 0, 1
}
