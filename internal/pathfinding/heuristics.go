package pathfinding

import (
	"math"

	"steerflow/internal/core"
)

// ManhattanDistance suits 4-connected grids.
func ManhattanDistance(a, b core.Vector2D) float64 {
	d := a.Sub(b)
	return math.Abs(d.X) + math.Abs(d.Y)
}

func EuclideanDistance(a, b core.Vector2D) float64 {
	return a.Distance(b)
}

// DiagonalDistance is the Chebyshev distance.
func DiagonalDistance(a, b core.Vector2D) float64 {
	d := a.Sub(b)
	return max(math.Abs(d.X), math.Abs(d.Y))
}

// OctileDistance is exact on 8-connected grids without obstacles.
func OctileDistance(a, b core.Vector2D) float64 {
	d := a.Sub(b)
	dx, dy := math.Abs(d.X), math.Abs(d.Y)
	return dx + dy + (math.Sqrt2-2)*min(dx, dy)
}

// HeuristicByName resolves the names used in configuration.
func HeuristicByName(name string) (core.HeuristicFunc, bool) {
	switch name {
	case "euclidean":
		return EuclideanDistance, true
	case "manhattan":
		return ManhattanDistance, true
	case "diagonal", "chebyshev":
		return DiagonalDistance, true
	case "octile":
		return OctileDistance, true
	default:
		return nil, false
	}
}
