package collision

import (
	"steerflow/internal/core"
)

// Body is anything the collision manager can test and push around.
type Body interface {
	core.Spatial
	Type() core.EntityType
	// InverseMass is zero for immovable bodies.
	InverseMass() float64
	Shape() Shape
	SetPosition(p core.Vector2D)
}

// Mover is implemented by bodies that carry a velocity. Bodies that do not
// implement it are never touched by velocity resolution.
type Mover interface {
	Velocity() core.Vector2D
	SetVelocity(v core.Vector2D)
}

// Contact describes one overlapping pair for the current frame.
//
// ContactNormal is a unit vector pointing from SecondBody towards
// FirstBody. A nil SecondBody means the first body hit static wall
// geometry. Listeners may set Resolved to skip all resolution, or
// VelocityResolved to skip only the impulse pass.
type Contact struct {
	FirstBody        Body
	SecondBody       Body
	ContactNormal    core.Vector2D
	Penetration      float64
	Restitution      float64
	Resolved         bool
	VelocityResolved bool
}

// IsWall reports whether the contact is against static geometry.
func (c *Contact) IsWall() bool {
	return c.SecondBody == nil
}

// ContactListener receives every contact of a frame before resolution.
// The pointer is only valid for the duration of the call.
type ContactListener interface {
	OnContact(c *Contact)
}

// ContactListenerFunc adapts a plain function to ContactListener.
type ContactListenerFunc func(c *Contact)

func (f ContactListenerFunc) OnContact(c *Contact) { f(c) }

func velocityOf(b Body) core.Vector2D {
	if m, ok := b.(Mover); ok {
		return m.Velocity()
	}
	return core.Vector2D{}
}

// impulseInverseMass is the inverse mass seen by the velocity pass.
// Bodies without a velocity behave as immovable there.
func impulseInverseMass(b Body) (Mover, float64) {
	if b == nil {
		return nil, 0
	}
	m, ok := b.(Mover)
	if !ok {
		return nil, 0
	}
	return m, b.InverseMass()
}
