package traffic

import (
	"math"

	"github.com/paulmach/orb"
)

// polygonsIntersect tests two convex closed rings for overlap with the
// separating axis theorem, after a bounding box rejection.
func polygonsIntersect(a, b orb.Ring) bool {
	if !a.Bound().Intersects(b.Bound()) {
		return false
	}
	for _, ring := range []orb.Ring{a, b} {
		for i := 0; i+1 < len(ring); i++ {
			edge := orb.Point{ring[i+1][0] - ring[i][0], ring[i+1][1] - ring[i][1]}
			axis := orb.Point{-edge[1], edge[0]}
			minA, maxA := project(a, axis)
			minB, maxB := project(b, axis)
			if maxA < minB || maxB < minA {
				return false
			}
		}
	}
	return true
}

func project(ring orb.Ring, axis orb.Point) (float64, float64) {
	minD, maxD := math.Inf(1), math.Inf(-1)
	for _, p := range ring {
		d := p[0]*axis[0] + p[1]*axis[1]
		minD = math.Min(minD, d)
		maxD = math.Max(maxD, d)
	}
	return minD, maxD
}
