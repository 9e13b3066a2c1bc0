package steering

import (
	"steerflow/internal/core"
)

// Agent is the read-only view of a vehicle that steering needs.
type Agent interface {
	core.Spatial
	Velocity() core.Vector2D
	Speed() float64
	Heading() core.Vector2D
	Side() core.Vector2D
	MaxSpeed() float64
	MaxForce() float64
	Transform() *core.Transform
}

// World answers the proximity queries of obstacle avoidance.
type World interface {
	// TagObstaclesWithinRange appends to out every obstacle whose bounding
	// circle comes within radius of the agent. The agent itself must not be
	// reported.
	TagObstaclesWithinRange(agent Agent, radius float64, out []core.Spatial) []core.Spatial
}
