package core

import "github.com/go-gl/mathgl/mgl64"

// Transform is a 2D rigid placement: a position plus an orthonormal
// basis. Heading is the local +X axis, Side the local +Y axis.
type Transform struct {
	Position Vector2D
	heading  Vector2D
	side     Vector2D
}

// NewTransform builds a transform at position facing heading. A zero
// heading falls back to +X.
func NewTransform(position, heading Vector2D) Transform {
	t := Transform{Position: position}
	t.SetHeading(heading)
	return t
}

// Heading returns the unit forward axis
func (t *Transform) Heading() Vector2D {
	return t.heading
}

// Side returns the unit axis perpendicular to Heading
func (t *Transform) Side() Vector2D {
	return t.side
}

// SetHeading re-orients the transform. Zero vectors are ignored once a
// heading has been established.
func (t *Transform) SetHeading(heading Vector2D) {
	h := heading.Normalize()
	if h.IsZero() {
		if !t.heading.IsZero() {
			return
		}
		h = Vector2D{X: 1}
	}
	t.heading = h
	t.side = h.Perp()
}

// Matrix returns the local-to-world affine matrix
func (t *Transform) Matrix() mgl64.Mat3 {
	return mgl64.Mat3FromCols(
		mgl64.Vec3{t.heading.X, t.heading.Y, 0},
		mgl64.Vec3{t.side.X, t.side.Y, 0},
		mgl64.Vec3{t.Position.X, t.Position.Y, 1},
	)
}

// InverseMatrix returns the world-to-local affine matrix. The basis is
// orthonormal so the inverse is the transposed rotation with the
// translation rotated back.
func (t *Transform) InverseMatrix() mgl64.Mat3 {
	tx := -t.Position.Dot(t.heading)
	ty := -t.Position.Dot(t.side)
	return mgl64.Mat3FromCols(
		mgl64.Vec3{t.heading.X, t.side.X, 0},
		mgl64.Vec3{t.heading.Y, t.side.Y, 0},
		mgl64.Vec3{tx, ty, 1},
	)
}

// ToWorld converts a point in local space to world space
func (t *Transform) ToWorld(local Vector2D) Vector2D {
	return apply(t.Matrix(), local, 1)
}

// ToLocal converts a world space point into local space
func (t *Transform) ToLocal(world Vector2D) Vector2D {
	return apply(t.InverseMatrix(), world, 1)
}

// VectorToWorld rotates a local direction into world space (no translation)
func (t *Transform) VectorToWorld(local Vector2D) Vector2D {
	return apply(t.Matrix(), local, 0)
}

// VectorToLocal rotates a world direction into local space (no translation)
func (t *Transform) VectorToLocal(world Vector2D) Vector2D {
	return apply(t.InverseMatrix(), world, 0)
}

func apply(m mgl64.Mat3, v Vector2D, w float64) Vector2D {
	r := m.Mul3x1(mgl64.Vec3{v.X, v.Y, w})
	return Vector2D{X: r.X(), Y: r.Y()}
}
