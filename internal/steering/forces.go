package steering

import (
	"math"

	"steerflow/internal/core"
)

// Seek steers towards target at full speed.
func (b *Behavior) Seek(target core.Vector2D) core.Vector2D {
	desired := target.Sub(b.agent.Position()).Normalize().Scale(b.agent.MaxSpeed())
	return desired.Sub(b.agent.Velocity())
}

// Flee steers directly away from target at full speed.
func (b *Behavior) Flee(target core.Vector2D) core.Vector2D {
	desired := b.agent.Position().Sub(target).Normalize().Scale(b.agent.MaxSpeed())
	return desired.Sub(b.agent.Velocity())
}

// Arrive is Seek with a speed that falls off linearly with distance so the
// agent comes to rest on target.
func (b *Behavior) Arrive(target core.Vector2D, d Deceleration) core.Vector2D {
	toTarget := target.Sub(b.agent.Position())
	dist := toTarget.Length()
	if dist <= core.Epsilon {
		return core.Vector2D{}
	}

	speed := min(dist/float64(d), b.agent.MaxSpeed())
	desired := toTarget.Scale(speed / dist)
	return desired.Sub(b.agent.Velocity())
}

// Pursuit seeks the point the evader is predicted to reach.
func (b *Behavior) Pursuit(evader Agent) core.Vector2D {
	toEvader := evader.Position().Sub(b.agent.Position())
	relativeHeading := b.agent.Heading().Dot(evader.Heading())

	// Evader ahead and facing us: just go for it.
	if toEvader.Dot(b.agent.Heading()) > 0 && relativeHeading < -0.95 {
		return b.Seek(evader.Position())
	}

	lookAhead := lookAheadTime(toEvader.Length(), b.agent.MaxSpeed()+evader.Speed())
	return b.Seek(evader.Position().Add(evader.Velocity().Scale(lookAhead)))
}

// Evade flees the point the pursuer is predicted to reach. Pursuers
// farther than ThreatRange are ignored.
func (b *Behavior) Evade(pursuer Agent) core.Vector2D {
	toPursuer := pursuer.Position().Sub(b.agent.Position())
	if toPursuer.LengthSq() > ThreatRange*ThreatRange {
		return core.Vector2D{}
	}

	lookAhead := lookAheadTime(toPursuer.Length(), b.agent.MaxSpeed()+pursuer.Speed())
	return b.Flee(pursuer.Position().Add(pursuer.Velocity().Scale(lookAhead)))
}

// OffsetPursuit holds position at offset in the leader's local frame.
func (b *Behavior) OffsetPursuit(leader Agent, offset core.Vector2D) core.Vector2D {
	worldOffset := leader.Transform().ToWorld(offset)
	toOffset := worldOffset.Sub(b.agent.Position())

	lookAhead := lookAheadTime(toOffset.Length(), b.agent.MaxSpeed()+leader.Speed())
	return b.Seek(worldOffset.Add(leader.Velocity().Scale(lookAhead)))
}

func lookAheadTime(dist, closingSpeed float64) float64 {
	if closingSpeed <= core.Epsilon {
		return 0
	}
	return dist / closingSpeed
}

// FollowPath seeks each waypoint in turn and arrives at the last one.
// Reached waypoints are popped from the path.
func (b *Behavior) FollowPath() core.Vector2D {
	front, ok := b.path.Front()
	if !ok {
		return core.Vector2D{}
	}

	pos := b.agent.Position()
	if b.path.Len() > 1 {
		if pos.DistanceSq(front) < b.waypointDist*b.waypointDist {
			b.path.Pop()
			front, _ = b.path.Front()
		}
		if b.path.Len() > 1 {
			return b.Seek(front)
		}
	}

	// Last waypoint, including one just exposed by the pop above.

	half := b.waypointDist / 2
	if pos.DistanceSq(front) < half*half {
		b.path.Pop()
		return core.Vector2D{}
	}
	return b.Arrive(front, b.deceleration)
}

// ObstacleAvoidance steers away from the closest obstacle that intersects
// a detection box projected ahead of the agent. The box grows with speed.
func (b *Behavior) ObstacleAvoidance() core.Vector2D {
	if b.world == nil {
		return core.Vector2D{}
	}

	boxLength := b.minBoxLength
	if maxSpeed := b.agent.MaxSpeed(); maxSpeed > 0 {
		boxLength += b.agent.Speed() / maxSpeed * b.minBoxLength
	}
	if boxLength <= 0 {
		return core.Vector2D{}
	}

	b.tagged = b.world.TagObstaclesWithinRange(b.agent, boxLength, b.tagged[:0])
	defer clear(b.tagged)

	transform := b.agent.Transform()
	var (
		closest      core.Spatial
		closestDist  = math.MaxFloat64
		closestLocal core.Vector2D
	)

	for _, ob := range b.tagged {
		local := transform.ToLocal(ob.Position())
		if local.X < 0 {
			continue
		}

		expanded := ob.BoundingRadius() + b.agent.BoundingRadius()
		if math.Abs(local.Y) > expanded {
			continue
		}

		// Intersect the circle with the local x axis and keep the nearest
		// point in front of the agent.
		sqrtPart := math.Sqrt(expanded*expanded - local.Y*local.Y)
		ip := local.X - sqrtPart
		if ip <= 0 {
			ip = local.X + sqrtPart
		}

		if ip < closestDist {
			closestDist = ip
			closest = ob
			closestLocal = local
		}
	}

	if closest == nil {
		return core.Vector2D{}
	}

	multiplier := 1 + (boxLength-closestLocal.X)/boxLength
	radius := closest.BoundingRadius()
	force := core.Vector2D{
		X: (radius - closestLocal.X) * brakingWeight,
		Y: (radius - closestLocal.Y) * multiplier,
	}
	return transform.VectorToWorld(force)
}

// straightAhead is the lowest priority term. It carries zero weight by
// default.
func (b *Behavior) straightAhead() core.Vector2D {
	return b.agent.Heading().Scale(b.agent.MaxSpeed()).Sub(b.agent.Velocity())
}
