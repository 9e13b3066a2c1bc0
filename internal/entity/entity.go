package entity

import (
	"steerflow/internal/collision"
	"steerflow/internal/core"
)

var _ collision.Body = (*Entity)(nil)

// Entity is a body with a pose and an optional collision shape. On its own
// it never moves unless pushed by contact resolution, and by default it
// has infinite mass.
//
// The shape borrows the entity's transform, so an Entity must not be
// copied once a shape is set.
type Entity struct {
	id        uint64
	typ       core.EntityType
	transform core.Transform
	shape     collision.Shape
	invMass   float64
}

// NewEntity creates an immovable entity without a shape.
func NewEntity(id uint64, typ core.EntityType, position, heading core.Vector2D) *Entity {
	e := &Entity{}
	e.init(id, typ, position, heading)
	return e
}

func (e *Entity) init(id uint64, typ core.EntityType, position, heading core.Vector2D) {
	e.id = id
	e.typ = typ
	e.transform = core.NewTransform(position, heading)
}

func (e *Entity) ID() uint64                  { return e.id }
func (e *Entity) Type() core.EntityType       { return e.typ }
func (e *Entity) Position() core.Vector2D     { return e.transform.Position }
func (e *Entity) SetPosition(p core.Vector2D) { e.transform.Position = p }
func (e *Entity) Heading() core.Vector2D      { return e.transform.Heading() }
func (e *Entity) Side() core.Vector2D         { return e.transform.Side() }
func (e *Entity) SetHeading(h core.Vector2D)  { e.transform.SetHeading(h) }
func (e *Entity) Transform() *core.Transform  { return &e.transform }
func (e *Entity) Shape() collision.Shape      { return e.shape }
func (e *Entity) InverseMass() float64        { return e.invMass }

// BoundingRadius is the radius of the shape, or zero without one. Entities
// with zero radius take no part in collision.
func (e *Entity) BoundingRadius() float64 {
	if e.shape == nil {
		return 0
	}
	return e.shape.Radius()
}

// SetMass sets the mass. A non-positive mass makes the entity immovable.
func (e *Entity) SetMass(mass float64) {
	if mass <= 0 {
		e.invMass = 0
		return
	}
	e.invMass = 1 / mass
}

// Mass returns zero for immovable entities.
func (e *Entity) Mass() float64 {
	if e.invMass == 0 {
		return 0
	}
	return 1 / e.invMass
}

func (e *Entity) SetDisk(radius float64) {
	e.shape = collision.NewDisk(&e.transform, radius)
}

func (e *Entity) SetBox(halfWidth, halfHeight float64) {
	e.shape = collision.NewBox(&e.transform, halfWidth, halfHeight)
}

// SetPolyline sets a polyline shape from points in the entity's local
// frame.
func (e *Entity) SetPolyline(points []core.Vector2D, closed bool) {
	e.shape = collision.PolylineFromPoints(&e.transform, points, closed)
}

func (e *Entity) ClearShape() {
	e.shape = nil
}
