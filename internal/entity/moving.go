package entity

import (
	"steerflow/internal/collision"
	"steerflow/internal/core"
)

var _ collision.Mover = (*Moving)(nil)

// minHeadingSpeed is the speed below which the heading stops tracking
// the velocity.
const minHeadingSpeed = 1e-8

// Moving is an entity driven by an equation of motion. Forces are
// accumulated with AddForce and consumed by Integrate.
type Moving struct {
	Entity

	velocity core.Vector2D
	force    core.Vector2D
	maxSpeed float64
	maxForce float64
}

// NewMoving creates a moving entity of unit mass.
func NewMoving(id uint64, typ core.EntityType, position, heading core.Vector2D, maxSpeed, maxForce float64) *Moving {
	m := &Moving{maxSpeed: maxSpeed, maxForce: maxForce}
	m.init(id, typ, position, heading)
	m.invMass = 1
	return m
}

func (m *Moving) Velocity() core.Vector2D     { return m.velocity }
func (m *Moving) SetVelocity(v core.Vector2D) { m.velocity = v }
func (m *Moving) Speed() float64              { return m.velocity.Length() }
func (m *Moving) MaxSpeed() float64           { return m.maxSpeed }
func (m *Moving) SetMaxSpeed(s float64)       { m.maxSpeed = s }
func (m *Moving) MaxForce() float64           { return m.maxForce }
func (m *Moving) SetMaxForce(f float64)       { m.maxForce = f }
func (m *Moving) Force() core.Vector2D        { return m.force }

// AddForce adds f to the force applied on the next Integrate.
func (m *Moving) AddForce(f core.Vector2D) {
	m.force = m.force.Add(f)
}

// Integrate advances the entity by dt seconds with semi-implicit Euler and
// clears the accumulated force.
func (m *Moving) Integrate(dt float64) {
	accel := m.force.Scale(m.invMass)
	m.velocity = m.velocity.Add(accel.Scale(dt)).Truncate(m.maxSpeed)
	m.transform.Position = m.transform.Position.Add(m.velocity.Scale(dt))

	if m.velocity.LengthSq() > minHeadingSpeed*minHeadingSpeed {
		m.transform.SetHeading(m.velocity.Normalize())
	}
	m.force = core.Vector2D{}
}
