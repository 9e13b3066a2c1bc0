package pathfinding

import (
	"steerflow/internal/core"
)

// Simplify drops waypoints that lie within tolerance of the line through
// their neighbours (Douglas-Peucker). Endpoints are always kept.
func Simplify(path []core.Vector2D, tolerance float64) []core.Vector2D {
	if len(path) < 3 {
		return append([]core.Vector2D(nil), path...)
	}

	keep := make([]bool, len(path))
	keep[0], keep[len(path)-1] = true, true
	douglasPeucker(path, 0, len(path)-1, tolerance, keep)

	out := make([]core.Vector2D, 0, len(path))
	for i, p := range path {
		if keep[i] {
			out = append(out, p)
		}
	}
	return out
}

func douglasPeucker(path []core.Vector2D, first, last int, tolerance float64, keep []bool) {
	if last-first < 2 {
		return
	}

	farthest, farthestDist := -1, tolerance
	for i := first + 1; i < last; i++ {
		if d := distanceToSegment(path[i], path[first], path[last]); d > farthestDist {
			farthest, farthestDist = i, d
		}
	}
	if farthest < 0 {
		return
	}

	keep[farthest] = true
	douglasPeucker(path, first, farthest, tolerance, keep)
	douglasPeucker(path, farthest, last, tolerance, keep)
}

func distanceToSegment(p, a, b core.Vector2D) float64 {
	ab := b.Sub(a)
	lenSq := ab.LengthSq()
	if lenSq < core.Epsilon {
		return p.Distance(a)
	}
	t := max(0, min(1, p.Sub(a).Dot(ab)/lenSq))
	return p.Distance(a.Add(ab.Scale(t)))
}
