package core

import "math"

// Epsilon is the tolerance used for "effectively zero" comparisons.
const Epsilon = 1e-10

// NewVector2D creates a new 2D vector
func NewVector2D(x, y float64) Vector2D {
	return Vector2D{X: x, Y: y}
}

// Add returns the sum of two vectors
func (v Vector2D) Add(other Vector2D) Vector2D {
	return Vector2D{X: v.X + other.X, Y: v.Y + other.Y}
}

// Sub returns the difference between two vectors
func (v Vector2D) Sub(other Vector2D) Vector2D {
	return Vector2D{X: v.X - other.X, Y: v.Y - other.Y}
}

// Scale multiplies the vector by a scalar value
func (v Vector2D) Scale(factor float64) Vector2D {
	return Vector2D{X: v.X * factor, Y: v.Y * factor}
}

// Neg returns the opposite vector
func (v Vector2D) Neg() Vector2D {
	return Vector2D{X: -v.X, Y: -v.Y}
}

// Dot returns the dot product of two vectors
func (v Vector2D) Dot(other Vector2D) float64 {
	return v.X*other.X + v.Y*other.Y
}

// Length returns the magnitude of the vector
func (v Vector2D) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// LengthSq returns the squared magnitude
func (v Vector2D) LengthSq() float64 {
	return v.X*v.X + v.Y*v.Y
}

// Normalize returns a unit vector in the same direction, or the zero
// vector when v has no length.
func (v Vector2D) Normalize() Vector2D {
	length := v.Length()
	if length < Epsilon {
		return Vector2D{}
	}
	return Vector2D{X: v.X / length, Y: v.Y / length}
}

// Perp returns v rotated 90 degrees counter-clockwise
func (v Vector2D) Perp() Vector2D {
	return Vector2D{X: -v.Y, Y: v.X}
}

// Truncate limits the length of v to max
func (v Vector2D) Truncate(max float64) Vector2D {
	if v.LengthSq() > max*max {
		return v.Normalize().Scale(max)
	}
	return v
}

// Distance returns the distance between two points
func (v Vector2D) Distance(other Vector2D) float64 {
	return v.Sub(other).Length()
}

// DistanceSq returns the squared distance between two points
func (v Vector2D) DistanceSq(other Vector2D) float64 {
	return v.Sub(other).LengthSq()
}

// IsZero reports whether both components are within Epsilon of zero
func (v Vector2D) IsZero() bool {
	return math.Abs(v.X) < Epsilon && math.Abs(v.Y) < Epsilon
}

// ApproxEqual compares two vectors component-wise within tolerance
func (v Vector2D) ApproxEqual(other Vector2D, tolerance float64) bool {
	return math.Abs(v.X-other.X) <= tolerance && math.Abs(v.Y-other.Y) <= tolerance
}
