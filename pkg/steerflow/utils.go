package steerflow

import (
	"math"
	"math/rand"

	"steerflow/internal/core"
	"steerflow/internal/pathfinding"
)

// Vector2D utility functions

// NewVector2D creates a new 2D vector
func NewVector2D(x, y float64) core.Vector2D {
	return core.Vector2D{X: x, Y: y}
}

// HeadingFromAngle returns the unit heading angle radians counterclockwise
// from +X
func HeadingFromAngle(angle float64) core.Vector2D {
	return core.Vector2D{X: math.Cos(angle), Y: math.Sin(angle)}
}

// Angle returns the direction of v in radians, in (-Pi, Pi]
func Angle(v core.Vector2D) float64 {
	return math.Atan2(v.Y, v.X)
}

// Lerp linearly interpolates between two vectors
func Lerp(a, b core.Vector2D, t float64) core.Vector2D {
	return a.Add(b.Sub(a).Scale(t))
}

// RotateVector rotates a vector by the given angle (in radians)
func RotateVector(v core.Vector2D, angle float64) core.Vector2D {
	sin, cos := math.Sincos(angle)
	return core.Vector2D{
		X: v.X*cos - v.Y*sin,
		Y: v.X*sin + v.Y*cos,
	}
}

// AABB utility functions

// NewAABB creates a new axis-aligned bounding box
func NewAABB(minX, minY, maxX, maxY float64) core.AABB {
	return core.AABB{
		Min: core.Vector2D{X: minX, Y: minY},
		Max: core.Vector2D{X: maxX, Y: maxY},
	}
}

// AABBFromCenterSize creates an AABB from center point and size
func AABBFromCenterSize(center core.Vector2D, width, height float64) core.AABB {
	half := core.Vector2D{X: width / 2, Y: height / 2}
	return core.AABB{Min: center.Sub(half), Max: center.Add(half)}
}

// Path utility functions

// PathLength sums the segment lengths of a path
func PathLength(path []core.Vector2D) float64 {
	total := 0.0
	for i := 1; i < len(path); i++ {
		total += path[i-1].Distance(path[i])
	}
	return total
}

// SmoothPath pulls interior waypoints towards the average of their
// neighbours. Endpoints never move.
func SmoothPath(path []core.Vector2D, iterations int) []core.Vector2D {
	smoothed := append([]core.Vector2D(nil), path...)
	if len(path) < 3 {
		return smoothed
	}

	for iter := 0; iter < iterations; iter++ {
		for i := 1; i < len(smoothed)-1; i++ {
			sum := smoothed[i-1].Add(smoothed[i]).Add(smoothed[i+1])
			smoothed[i] = sum.Scale(1.0 / 3)
		}
	}
	return smoothed
}

// SimplifyPath drops waypoints within epsilon of the simplified route
func SimplifyPath(path []core.Vector2D, epsilon float64) []core.Vector2D {
	return pathfinding.Simplify(path, epsilon)
}

// Random utility functions

// RandomPosition returns a point drawn uniformly from bounds. Pass a seeded
// source to keep scenarios reproducible.
func RandomPosition(rng *rand.Rand, bounds core.AABB) core.Vector2D {
	size := bounds.Size()
	return core.Vector2D{
		X: bounds.Min.X + rng.Float64()*size.X,
		Y: bounds.Min.Y + rng.Float64()*size.Y,
	}
}

// RandomPositionInCircle returns a point drawn uniformly from a disk
func RandomPositionInCircle(rng *rand.Rand, center core.Vector2D, radius float64) core.Vector2D {
	angle := rng.Float64() * 2 * math.Pi
	distance := radius * math.Sqrt(rng.Float64())
	return center.Add(HeadingFromAngle(angle).Scale(distance))
}
