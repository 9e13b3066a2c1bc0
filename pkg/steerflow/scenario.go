package steerflow

import (
	"context"
	"fmt"

	"steerflow/internal/collision"
	"steerflow/internal/config"
	"steerflow/internal/core"
	"steerflow/internal/entity"
	"steerflow/internal/observability/log"
	"steerflow/internal/steering"
)

// Simulation is an Engine populated from a scenario file, with the
// scenario's frame count and time step.
type Simulation struct {
	*Engine

	Name     string
	Frames   int
	TimeStep float64

	ids map[string]uint64
}

// LoadSimulation reads, validates and builds the scenario at path.
func LoadSimulation(path string, opts ...Option) (*Simulation, error) {
	s, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return NewSimulation(s, opts...)
}

// NewSimulation builds a world from an already validated scenario.
func NewSimulation(s *config.Scenario, opts ...Option) (*Simulation, error) {
	cfg := DefaultConfig()
	cfg.SceneBounds = s.World.Bounds()
	cfg.MaxContacts = s.World.MaxContacts
	cfg.PathGridSize = s.World.GridSize
	cfg.PathTolerance = s.World.GridSize / 2
	if s.World.Restitution != nil {
		cfg.Restitution = *s.World.Restitution
	}

	sim := &Simulation{
		Engine:   NewEngine(cfg, opts...),
		Name:     s.Name,
		Frames:   s.Frames,
		TimeStep: s.TimeStep,
		ids:      make(map[string]uint64, len(s.Entities)),
	}

	// Every entity exists before steering is wired so targets can be
	// declared in any order. Names are optional, so bodies are kept by
	// their position in the file.
	built := make([]shapedBody, len(s.Entities))
	byName := make(map[string]shapedBody, len(s.Entities))
	for i := range s.Entities {
		ec := &s.Entities[i]
		b, err := sim.spawn(ec)
		if err != nil {
			return nil, fmt.Errorf("entity %s: %w", entityLabel(ec, i), err)
		}
		built[i] = b
		if ec.Name != "" {
			byName[ec.Name] = b
		}
	}

	for i := range s.Entities {
		ec := &s.Entities[i]
		if ec.Steering == nil {
			continue
		}
		v, ok := built[i].(*entity.Vehicle)
		if !ok {
			return nil, fmt.Errorf("entity %s: only vehicles can steer", entityLabel(ec, i))
		}
		if err := configureSteering(v.Steering(), ec.Steering, byName); err != nil {
			return nil, fmt.Errorf("entity %s: %w", entityLabel(ec, i), err)
		}
	}

	for _, w := range s.Walls {
		sim.AddWall(w.From.Vector(), w.To.Vector())
	}
	for _, rule := range s.World.Ignore {
		mask, err := config.ParseTypes(rule)
		if err != nil {
			return nil, fmt.Errorf("ignore rule %v: %w", rule, err)
		}
		sim.IgnoreTypes(mask)
	}
	for _, pair := range s.World.IgnorePairs {
		if len(pair) != 2 {
			return nil, fmt.Errorf("ignore pair %v: need two entities", pair)
		}
		if err := sim.IgnorePair(sim.ids[pair[0]], sim.ids[pair[1]]); err != nil {
			return nil, fmt.Errorf("ignore pair %v: %w", pair, err)
		}
	}

	// Planning needs every obstacle and wall in place.
	for i := range s.Entities {
		ec := &s.Entities[i]
		if ec.Steering == nil || ec.Steering.PlanTo == nil {
			continue
		}
		if _, err := sim.PlanPath(built[i].ID(), ec.Steering.PlanTo.Vector()); err != nil {
			return nil, fmt.Errorf("entity %s: %w", entityLabel(ec, i), err)
		}
	}

	sim.logger.Debug("scenario built",
		log.String("scenario", sim.Name),
		log.Int("entities", len(s.Entities)),
		log.Int("walls", len(s.Walls)),
	)
	return sim, nil
}

// shapedBody is the set-up surface shared by every entity kind.
type shapedBody interface {
	collision.Body
	SetDisk(radius float64)
	SetBox(halfWidth, halfHeight float64)
	SetPolyline(points []core.Vector2D, closed bool)
	SetMass(mass float64)
}

func (s *Simulation) spawn(ec *config.EntityConfig) (shapedBody, error) {
	typ, err := ec.TypeMask()
	if err != nil {
		return nil, err
	}
	id := s.NextID()
	pos, heading := ec.Position.Vector(), ec.Heading.Vector()

	var body shapedBody
	switch ec.Kind {
	case config.KindVehicle:
		body = entity.NewVehicle(id, typ, pos, heading, ec.MaxSpeed, ec.MaxForce, s.world.SteeringWorld())
	case config.KindMoving:
		body = entity.NewMoving(id, typ, pos, heading, ec.MaxSpeed, ec.MaxForce)
	default:
		body = entity.NewEntity(id, typ, pos, heading)
	}

	if m, ok := body.(collision.Mover); ok {
		m.SetVelocity(ec.Velocity.Vector())
	}
	body.SetMass(ec.Mass)

	if sh := ec.Shape; sh != nil {
		switch sh.Kind {
		case "disk":
			body.SetDisk(sh.Radius)
		case "box":
			body.SetBox(sh.HalfExtents[0], sh.HalfExtents[1])
		case "polyline":
			points := make([]core.Vector2D, len(sh.Points))
			for i, p := range sh.Points {
				points[i] = p.Vector()
			}
			body.SetPolyline(points, sh.Closed)
		}
	}

	if err := s.world.AddEntity(body); err != nil {
		return nil, err
	}
	if ec.Name != "" {
		s.ids[ec.Name] = id
	}
	return body, nil
}

// entityLabel names an entity in errors, falling back to its index.
func entityLabel(ec *config.EntityConfig, i int) string {
	if ec.Name != "" {
		return ec.Name
	}
	return fmt.Sprintf("#%d", i)
}

// ID returns the entity ID assigned to a named scenario entity. Unnamed
// entities are only reachable through the engine queries.
func (s *Simulation) ID(name string) (uint64, bool) {
	id, ok := s.ids[name]
	return id, ok
}

// Run steps every frame of the scenario and returns the final state hash.
func (s *Simulation) Run(ctx context.Context) (uint64, error) {
	if err := s.Engine.Run(ctx, s.Frames, s.TimeStep); err != nil {
		return 0, fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	return s.StateHash(), nil
}

func configureSteering(b *steering.Behavior, c *config.SteeringConfig, byName map[string]shapedBody) error {
	kinds, err := c.Kinds()
	if err != nil {
		return err
	}
	method, err := c.SummingMethod()
	if err != nil {
		return err
	}
	decel, err := c.DecelerationValue()
	if err != nil {
		return err
	}
	weights := steering.DefaultWeights()
	if err := c.ApplyWeights(&weights); err != nil {
		return err
	}

	b.SetSummingMethod(method)
	b.SetWeights(weights)
	b.SetDeceleration(decel)
	b.SetTarget(c.Target.Vector())
	if c.WaypointDistance > 0 {
		b.SetWaypointDistance(c.WaypointDistance)
	}
	if c.MinBoxLength > 0 {
		b.SetMinBoxLength(c.MinBoxLength)
	}
	if len(c.Path) > 0 {
		waypoints := make([]core.Vector2D, len(c.Path))
		for i, p := range c.Path {
			waypoints[i] = p.Vector()
		}
		b.SetPath(waypoints, c.Loop)
	}

	agent := func(name string) (steering.Agent, error) {
		a, ok := byName[name].(steering.Agent)
		if !ok {
			return nil, fmt.Errorf("target entity %q cannot be steered against", name)
		}
		return a, nil
	}
	if c.Pursue != "" {
		a, err := agent(c.Pursue)
		if err != nil {
			return err
		}
		b.PursuitOn(a)
	}
	if c.Evade != "" {
		a, err := agent(c.Evade)
		if err != nil {
			return err
		}
		b.EvadeOn(a)
	}
	if c.Leader != "" {
		a, err := agent(c.Leader)
		if err != nil {
			return err
		}
		b.OffsetPursuitOn(a, c.Offset.Vector())
	}

	// Setting a target turns its behaviour on; the list decides what stays on.
	b.Off(b.Enabled())
	b.On(kinds)
	return nil
}
