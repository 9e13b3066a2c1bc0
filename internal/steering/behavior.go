package steering

import (
	"fmt"

	"steerflow/internal/core"
)

// Kind is a bit in the set of enabled behaviours.
type Kind uint32

const (
	Seek Kind = 1 << iota
	Flee
	Arrive
	Pursuit
	Evade
	OffsetPursuit
	FollowPath
	ObstacleAvoidance
)

var kindNames = map[string]Kind{
	"seek":               Seek,
	"flee":               Flee,
	"arrive":             Arrive,
	"pursuit":            Pursuit,
	"evade":              Evade,
	"offset_pursuit":     OffsetPursuit,
	"follow_path":        FollowPath,
	"obstacle_avoidance": ObstacleAvoidance,
}

// ParseKind maps a configuration name such as "follow_path" to its Kind.
func ParseKind(name string) (Kind, error) {
	k, ok := kindNames[name]
	if !ok {
		return 0, fmt.Errorf("unknown steering behaviour %q", name)
	}
	return k, nil
}

// SummingMethod selects how enabled behaviours are combined.
type SummingMethod uint8

const (
	Prioritized SummingMethod = iota
	WeightedAverage
)

// Deceleration divides the distance to the target in Arrive; larger
// values arrive more gently.
type Deceleration int

const (
	Fast   Deceleration = 1
	Normal Deceleration = 2
	Slow   Deceleration = 3
)

const (
	// ThreatRange is the distance beyond which Evade ignores a pursuer.
	ThreatRange = 100.0

	brakingWeight = 0.2

	DefaultWaypointDistance = 5.0
	DefaultMinBoxLength     = 40.0
)

// Weights scale each behaviour's contribution before summing.
type Weights struct {
	Seek              float64
	Flee              float64
	Arrive            float64
	Pursuit           float64
	Evade             float64
	OffsetPursuit     float64
	FollowPath        float64
	ObstacleAvoidance float64
	StraightAhead     float64
}

func DefaultWeights() Weights {
	return Weights{
		Seek:              1,
		Flee:              1,
		Arrive:            1,
		Pursuit:           1,
		Evade:             1,
		OffsetPursuit:     1,
		FollowPath:        1,
		ObstacleAvoidance: 3,
		StraightAhead:     0,
	}
}

// Behavior computes the steering force of one agent. It is owned by that
// agent's control code and is not safe for concurrent use.
type Behavior struct {
	agent Agent
	world World

	flags        Kind
	method       SummingMethod
	weights      Weights
	deceleration Deceleration

	target core.Vector2D
	// targetAgent1 is the evader for Pursuit and the leader for
	// OffsetPursuit; targetAgent2 is the pursuer for Evade.
	targetAgent1 Agent
	targetAgent2 Agent
	offset       core.Vector2D

	path         *Path
	waypointDist float64
	minBoxLength float64

	steeringForce core.Vector2D
	tagged        []core.Spatial
}

// NewBehavior returns a Behavior with every behaviour off, prioritized
// summing and default tunables. world may be nil when obstacle avoidance
// is never enabled.
func NewBehavior(agent Agent, world World) *Behavior {
	return &Behavior{
		agent:        agent,
		world:        world,
		method:       Prioritized,
		weights:      DefaultWeights(),
		deceleration: Normal,
		path:         NewPath(false),
		waypointDist: DefaultWaypointDistance,
		minBoxLength: DefaultMinBoxLength,
	}
}

func (b *Behavior) On(k Kind)            { b.flags |= k }
func (b *Behavior) Off(k Kind)           { b.flags &^= k }
func (b *Behavior) IsOn(k Kind) bool     { return b.flags&k == k }
func (b *Behavior) Enabled() Kind        { return b.flags }
func (b *Behavior) Force() core.Vector2D { return b.steeringForce }

func (b *Behavior) SetSummingMethod(m SummingMethod) { b.method = m }
func (b *Behavior) SetWeights(w Weights)             { b.weights = w }
func (b *Behavior) Weights() Weights                 { return b.weights }
func (b *Behavior) SetDeceleration(d Deceleration)   { b.deceleration = d }
func (b *Behavior) SetTarget(t core.Vector2D)        { b.target = t }
func (b *Behavior) Target() core.Vector2D            { return b.target }
func (b *Behavior) SetWaypointDistance(d float64)    { b.waypointDist = d }
func (b *Behavior) SetMinBoxLength(l float64)        { b.minBoxLength = l }
func (b *Behavior) Path() *Path                      { return b.path }

// SetPath replaces the waypoints followed by FollowPath.
func (b *Behavior) SetPath(waypoints []core.Vector2D, looped bool) {
	b.path.Set(waypoints)
	b.path.SetLooped(looped)
}

func (b *Behavior) SeekOn(target core.Vector2D) {
	b.target = target
	b.On(Seek)
}

func (b *Behavior) FleeOn(target core.Vector2D) {
	b.target = target
	b.On(Flee)
}

func (b *Behavior) ArriveOn(target core.Vector2D, d Deceleration) {
	b.target = target
	b.deceleration = d
	b.On(Arrive)
}

func (b *Behavior) PursuitOn(evader Agent) {
	b.targetAgent1 = evader
	b.On(Pursuit)
}

func (b *Behavior) EvadeOn(pursuer Agent) {
	b.targetAgent2 = pursuer
	b.On(Evade)
}

// OffsetPursuitOn keeps the agent at offset, expressed in the leader's
// local frame.
func (b *Behavior) OffsetPursuitOn(leader Agent, offset core.Vector2D) {
	b.targetAgent1 = leader
	b.offset = offset
	b.On(OffsetPursuit)
}

func (b *Behavior) FollowPathOn() { b.On(FollowPath) }

func (b *Behavior) ObstacleAvoidanceOn() { b.On(ObstacleAvoidance) }

// Calculate returns the steering force for this tick. The force is not
// applied; the caller adds it to the agent's force accumulator.
func (b *Behavior) Calculate() core.Vector2D {
	b.steeringForce = core.Vector2D{}

	switch b.method {
	case WeightedAverage:
		b.steeringForce = b.calculateWeightedSum()
	default:
		b.steeringForce = b.calculatePrioritized()
	}
	return b.steeringForce
}

// AccumulateForce adds force to running without letting the total exceed
// the agent's MaxForce. When force does not fit, only the remaining budget
// is added along its direction and false is returned.
func (b *Behavior) AccumulateForce(running *core.Vector2D, force core.Vector2D) bool {
	remaining := b.agent.MaxForce() - running.Length()
	if remaining <= 0 {
		return false
	}

	if force.Length() <= remaining {
		*running = running.Add(force)
		return true
	}

	*running = running.Add(force.Normalize().Scale(remaining))
	return false
}

func (b *Behavior) calculateWeightedSum() core.Vector2D {
	var sum core.Vector2D
	w := b.weights

	if b.IsOn(ObstacleAvoidance) {
		sum = sum.Add(b.ObstacleAvoidance().Scale(w.ObstacleAvoidance))
	}
	if b.IsOn(Evade) && b.targetAgent2 != nil {
		sum = sum.Add(b.Evade(b.targetAgent2).Scale(w.Evade))
	}
	if b.IsOn(Flee) {
		sum = sum.Add(b.Flee(b.target).Scale(w.Flee))
	}
	if b.IsOn(Seek) {
		sum = sum.Add(b.Seek(b.target).Scale(w.Seek))
	}
	if b.IsOn(Arrive) {
		sum = sum.Add(b.Arrive(b.target, b.deceleration).Scale(w.Arrive))
	}
	if b.IsOn(Pursuit) && b.targetAgent1 != nil {
		sum = sum.Add(b.Pursuit(b.targetAgent1).Scale(w.Pursuit))
	}
	if b.IsOn(OffsetPursuit) && b.targetAgent1 != nil {
		sum = sum.Add(b.OffsetPursuit(b.targetAgent1, b.offset).Scale(w.OffsetPursuit))
	}
	if b.IsOn(FollowPath) {
		sum = sum.Add(b.FollowPath().Scale(w.FollowPath))
	}
	sum = sum.Add(b.straightAhead().Scale(w.StraightAhead))

	return sum.Truncate(b.agent.MaxForce())
}

func (b *Behavior) calculatePrioritized() core.Vector2D {
	var total core.Vector2D
	w := b.weights

	if b.IsOn(ObstacleAvoidance) {
		if !b.AccumulateForce(&total, b.ObstacleAvoidance().Scale(w.ObstacleAvoidance)) {
			return total
		}
	}
	if b.IsOn(Evade) && b.targetAgent2 != nil {
		if !b.AccumulateForce(&total, b.Evade(b.targetAgent2).Scale(w.Evade)) {
			return total
		}
	}
	if b.IsOn(Flee) {
		if !b.AccumulateForce(&total, b.Flee(b.target).Scale(w.Flee)) {
			return total
		}
	}
	if b.IsOn(Seek) {
		if !b.AccumulateForce(&total, b.Seek(b.target).Scale(w.Seek)) {
			return total
		}
	}
	if b.IsOn(Arrive) {
		if !b.AccumulateForce(&total, b.Arrive(b.target, b.deceleration).Scale(w.Arrive)) {
			return total
		}
	}
	if b.IsOn(Pursuit) && b.targetAgent1 != nil {
		if !b.AccumulateForce(&total, b.Pursuit(b.targetAgent1).Scale(w.Pursuit)) {
			return total
		}
	}
	if b.IsOn(OffsetPursuit) && b.targetAgent1 != nil {
		if !b.AccumulateForce(&total, b.OffsetPursuit(b.targetAgent1, b.offset).Scale(w.OffsetPursuit)) {
			return total
		}
	}
	if b.IsOn(FollowPath) {
		if !b.AccumulateForce(&total, b.FollowPath().Scale(w.FollowPath)) {
			return total
		}
	}
	b.AccumulateForce(&total, b.straightAhead().Scale(w.StraightAhead))

	return total
}
