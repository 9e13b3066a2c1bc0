package entity

import (
	"steerflow/internal/core"
	"steerflow/internal/steering"
)

var _ steering.Agent = (*Vehicle)(nil)

// Vehicle is a moving entity steered by its own steering.Behavior.
type Vehicle struct {
	Moving
	steering *steering.Behavior
}

func NewVehicle(id uint64, typ core.EntityType, position, heading core.Vector2D, maxSpeed, maxForce float64, world steering.World) *Vehicle {
	v := &Vehicle{Moving: Moving{maxSpeed: maxSpeed, maxForce: maxForce}}
	v.init(id, typ, position, heading)
	v.invMass = 1
	v.steering = steering.NewBehavior(v, world)
	return v
}

func (v *Vehicle) Steering() *steering.Behavior {
	return v.steering
}

// Update applies this tick's steering force and integrates.
func (v *Vehicle) Update(dt float64) {
	v.AddForce(v.steering.Calculate())
	v.Integrate(dt)
}
