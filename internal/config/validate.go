package config

import (
	"fmt"

	"steerflow/internal/core"
	"steerflow/internal/steering"
)

var summingMethods = map[string]steering.SummingMethod{
	"prioritized": steering.Prioritized,
	"weighted":    steering.WeightedAverage,
}

var decelerations = map[string]steering.Deceleration{
	"fast":   steering.Fast,
	"normal": steering.Normal,
	"slow":   steering.Slow,
}

// ParseTypes ORs the named entity types together.
func ParseTypes(names []string) (core.EntityType, error) {
	var mask core.EntityType
	for _, name := range names {
		t, ok := core.ParseEntityType(name)
		if !ok {
			return 0, fmt.Errorf("unknown entity type %q", name)
		}
		mask |= t
	}
	return mask, nil
}

func (c *SteeringConfig) SummingMethod() (steering.SummingMethod, error) {
	m, ok := summingMethods[c.Method]
	if !ok {
		return 0, fmt.Errorf("unknown summing method %q", c.Method)
	}
	return m, nil
}

func (c *SteeringConfig) DecelerationValue() (steering.Deceleration, error) {
	d, ok := decelerations[c.Deceleration]
	if !ok {
		return 0, fmt.Errorf("unknown deceleration %q", c.Deceleration)
	}
	return d, nil
}

// Kinds ORs the configured behaviours together.
func (c *SteeringConfig) Kinds() (steering.Kind, error) {
	var kinds steering.Kind
	for _, name := range c.Behaviors {
		k, err := steering.ParseKind(name)
		if err != nil {
			return 0, err
		}
		kinds |= k
	}
	return kinds, nil
}

// ApplyWeights overrides the entries of w named in the config.
func (c *SteeringConfig) ApplyWeights(w *steering.Weights) error {
	for name, value := range c.Weights {
		switch name {
		case "seek":
			w.Seek = value
		case "flee":
			w.Flee = value
		case "arrive":
			w.Arrive = value
		case "pursuit":
			w.Pursuit = value
		case "evade":
			w.Evade = value
		case "offset_pursuit":
			w.OffsetPursuit = value
		case "follow_path":
			w.FollowPath = value
		case "obstacle_avoidance":
			w.ObstacleAvoidance = value
		case "straight_ahead":
			w.StraightAhead = value
		default:
			return fmt.Errorf("unknown steering weight %q", name)
		}
	}
	return nil
}

// Validate reports the first problem found. Every error wraps
// ErrInvalidScenario.
func (s *Scenario) Validate() error {
	if err := s.validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}
	return nil
}

func (s *Scenario) validate() error {
	if s.Frames < 0 {
		return fmt.Errorf("frames must not be negative, got %d", s.Frames)
	}
	if s.TimeStep <= 0 {
		return fmt.Errorf("time_step must be positive, got %g", s.TimeStep)
	}

	w := s.World
	if w.Min[0] >= w.Max[0] || w.Min[1] >= w.Max[1] {
		return fmt.Errorf("world min %v must be below max %v", w.Min, w.Max)
	}
	if w.MaxContacts <= 0 {
		return fmt.Errorf("max_contacts must be positive, got %d", w.MaxContacts)
	}
	if w.Restitution != nil && (*w.Restitution < 0 || *w.Restitution > 1) {
		return fmt.Errorf("restitution must be within [0, 1], got %g", *w.Restitution)
	}
	if w.GridSize <= 0 {
		return fmt.Errorf("grid_size must be positive, got %g", w.GridSize)
	}
	for _, rule := range w.Ignore {
		if len(rule) == 0 {
			return fmt.Errorf("empty ignore rule")
		}
		if _, err := ParseTypes(rule); err != nil {
			return fmt.Errorf("ignore rule %v: %w", rule, err)
		}
	}

	byName := make(map[string]*EntityConfig, len(s.Entities))
	for i := range s.Entities {
		e := &s.Entities[i]
		if e.Name == "" {
			continue
		}
		if _, dup := byName[e.Name]; dup {
			return fmt.Errorf("duplicate entity name %q", e.Name)
		}
		byName[e.Name] = e
	}

	for _, pair := range w.IgnorePairs {
		if len(pair) != 2 {
			return fmt.Errorf("ignore pair %v must name two entities", pair)
		}
		for _, name := range pair {
			if _, ok := byName[name]; !ok {
				return fmt.Errorf("ignore pair names unknown entity %q", name)
			}
		}
	}

	for i := range s.Entities {
		if err := s.Entities[i].validate(byName); err != nil {
			name := s.Entities[i].Name
			if name == "" {
				name = fmt.Sprintf("#%d", i)
			}
			return fmt.Errorf("entity %s: %w", name, err)
		}
	}
	return nil
}

func (e *EntityConfig) validate(byName map[string]*EntityConfig) error {
	switch e.Kind {
	case KindStatic, KindMoving, KindVehicle:
	default:
		return fmt.Errorf("unknown kind %q", e.Kind)
	}
	if _, err := e.TypeMask(); err != nil {
		return err
	}
	if e.Mass < 0 {
		return fmt.Errorf("mass must not be negative, got %g", e.Mass)
	}
	if e.Kind != KindStatic && (e.MaxSpeed <= 0 || e.MaxForce <= 0) {
		return fmt.Errorf("max_speed and max_force must be positive")
	}
	if e.Shape != nil {
		if err := e.Shape.validate(); err != nil {
			return fmt.Errorf("shape: %w", err)
		}
	}
	if e.Steering != nil {
		if e.Kind != KindVehicle {
			return fmt.Errorf("only vehicles can steer")
		}
		if err := e.Steering.validate(byName); err != nil {
			return fmt.Errorf("steering: %w", err)
		}
	}
	return nil
}

func (s *Shape) validate() error {
	switch s.Kind {
	case "disk":
		if s.Radius <= 0 {
			return fmt.Errorf("disk radius must be positive, got %g", s.Radius)
		}
	case "box":
		if s.HalfExtents[0] <= 0 || s.HalfExtents[1] <= 0 {
			return fmt.Errorf("box half_extents must be positive, got %v", s.HalfExtents)
		}
	case "polyline":
		if len(s.Points) < 2 {
			return fmt.Errorf("polyline needs at least two points, got %d", len(s.Points))
		}
	default:
		return fmt.Errorf("unknown shape kind %q", s.Kind)
	}
	return nil
}

func (c *SteeringConfig) validate(byName map[string]*EntityConfig) error {
	if _, err := c.Kinds(); err != nil {
		return err
	}
	if _, err := c.SummingMethod(); err != nil {
		return err
	}
	if _, err := c.DecelerationValue(); err != nil {
		return err
	}
	if err := c.ApplyWeights(&steering.Weights{}); err != nil {
		return err
	}
	if c.WaypointDistance < 0 || c.MinBoxLength < 0 {
		return fmt.Errorf("waypoint_distance and min_box_length must not be negative")
	}

	for _, ref := range []string{c.Pursue, c.Evade, c.Leader} {
		if ref == "" {
			continue
		}
		target, ok := byName[ref]
		if !ok {
			return fmt.Errorf("unknown target entity %q", ref)
		}
		if target.Kind != KindVehicle && target.Kind != KindMoving {
			return fmt.Errorf("target entity %q must be moving", ref)
		}
	}
	if c.Pursue != "" && c.Leader != "" {
		return fmt.Errorf("pursue and leader share a target slot; set only one")
	}
	return nil
}
