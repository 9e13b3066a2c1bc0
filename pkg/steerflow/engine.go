package steerflow

import (
	"context"
	"fmt"

	"steerflow/internal/collision"
	"steerflow/internal/core"
	"steerflow/internal/entity"
	"steerflow/internal/observability/log"
	"steerflow/internal/scene"
)

// Engine is the main steering and collision simulation engine
type Engine struct {
	world  *scene.World
	config *Config
	logger log.Log
}

// Config holds configuration for the engine
type Config struct {
	SceneBounds   core.AABB
	MaxContacts   int
	Restitution   float64
	PathGridSize  float64
	PathTolerance float64

	// ObstacleTypes are the entity types vehicles steer around.
	ObstacleTypes core.EntityType
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		SceneBounds:   NewAABB(-1000, -1000, 1000, 1000),
		MaxContacts:   1024,
		Restitution:   collision.DefaultRestitution,
		PathGridSize:  1.0,
		PathTolerance: 0.5,
		ObstacleTypes: core.EntityTypeObstacle,
	}
}

type Option func(*Engine)

// WithLogger routes engine and world logs to l.
func WithLogger(l log.Log) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates a new engine with an empty world
func NewEngine(config *Config, opts ...Option) *Engine {
	if config == nil {
		config = DefaultConfig()
	}

	e := &Engine{config: config, logger: log.Nop()}
	for _, opt := range opts {
		opt(e)
	}

	e.world = scene.NewWorld(scene.Config{
		Bounds:        config.SceneBounds,
		MaxContacts:   config.MaxContacts,
		Restitution:   config.Restitution,
		ObstacleTypes: config.ObstacleTypes,
		PathGridSize:  config.PathGridSize,
		PathTolerance: config.PathTolerance,
	}, scene.WithLogger(e.logger))
	return e
}

// VehicleSpec describes a steered vehicle to add.
type VehicleSpec struct {
	Type     core.EntityType
	Position core.Vector2D
	Heading  core.Vector2D
	Radius   float64
	Mass     float64
	MaxSpeed float64
	MaxForce float64
}

// Entity Management

// AddEntity adds a prebuilt body. Its ID should come from NextID.
func (e *Engine) AddEntity(b collision.Body) error {
	return e.world.AddEntity(b)
}

// NextID reserves an entity ID
func (e *Engine) NextID() uint64 {
	return e.world.NextID()
}

// AddObstacle adds an immovable disk obstacle
func (e *Engine) AddObstacle(position core.Vector2D, radius float64) (*entity.Entity, error) {
	ob := entity.NewEntity(e.world.NextID(), core.EntityTypeObstacle, position, core.Vector2D{X: 1})
	ob.SetDisk(radius)
	if err := e.world.AddEntity(ob); err != nil {
		return nil, fmt.Errorf("failed to add obstacle: %w", err)
	}
	return ob, nil
}

// AddBoxObstacle adds an immovable oriented box obstacle
func (e *Engine) AddBoxObstacle(position, heading core.Vector2D, halfWidth, halfHeight float64) (*entity.Entity, error) {
	ob := entity.NewEntity(e.world.NextID(), core.EntityTypeObstacle, position, heading)
	ob.SetBox(halfWidth, halfHeight)
	if err := e.world.AddEntity(ob); err != nil {
		return nil, fmt.Errorf("failed to add box obstacle: %w", err)
	}
	return ob, nil
}

// AddMover adds an unsteered disk that keeps its velocity until something
// pushes it. A non-positive maxSpeed caps it at its initial speed.
func (e *Engine) AddMover(typ core.EntityType, position, velocity core.Vector2D, radius, maxSpeed float64) (*entity.Moving, error) {
	if maxSpeed <= 0 {
		maxSpeed = velocity.Length()
	}
	heading := core.Vector2D{X: 1}
	if !velocity.IsZero() {
		heading = velocity.Normalize()
	}
	m := entity.NewMoving(e.world.NextID(), typ, position, heading, maxSpeed, 0)
	m.SetDisk(radius)
	m.SetVelocity(velocity)
	if err := e.world.AddEntity(m); err != nil {
		return nil, fmt.Errorf("failed to add mover: %w", err)
	}
	return m, nil
}

// AddVehicle adds a steered disk vehicle. Turn behaviours on through
// v.Steering().
func (e *Engine) AddVehicle(spec VehicleSpec) (*entity.Vehicle, error) {
	if spec.Type == core.EntityTypeNone {
		spec.Type = core.EntityTypeVehicle
	}
	v := e.world.NewVehicle(spec.Type, spec.Position, spec.Heading, spec.MaxSpeed, spec.MaxForce)
	if spec.Radius > 0 {
		v.SetDisk(spec.Radius)
	}
	if spec.Mass != 0 {
		v.SetMass(spec.Mass)
	}
	if err := e.world.AddEntity(v); err != nil {
		return nil, fmt.Errorf("failed to add vehicle: %w", err)
	}
	return v, nil
}

// AddWall adds a static wall segment
func (e *Engine) AddWall(from, to core.Vector2D) {
	e.world.AddWall(from, to)
}

// RemoveEntity removes an entity from the world
func (e *Engine) RemoveEntity(entityID uint64) error {
	return e.world.RemoveEntity(entityID)
}

// UpdateEntity re-indexes an entity moved or reshaped by the caller
func (e *Engine) UpdateEntity(entityID uint64) error {
	return e.world.UpdateEntity(entityID)
}

// GetEntity retrieves an entity by ID
func (e *Engine) GetEntity(entityID uint64) (collision.Body, error) {
	return e.world.Entity(entityID)
}

// GetVehicle retrieves a vehicle by ID
func (e *Engine) GetVehicle(entityID uint64) (*entity.Vehicle, error) {
	return e.world.Vehicle(entityID)
}

// Spatial Queries

func (e *Engine) GetEntitiesInArea(bounds core.AABB) []collision.Body {
	return e.world.EntitiesInArea(bounds)
}

func (e *Engine) GetEntitiesInRadius(center core.Vector2D, radius float64) []collision.Body {
	return e.world.EntitiesInRadius(center, radius)
}

// GetNearestEntity returns the nearest entity to the given point, or nil
func (e *Engine) GetNearestEntity(point core.Vector2D, maxDistance float64) collision.Body {
	b, ok := e.world.Nearest(point, maxDistance)
	if !ok {
		return nil
	}
	return b
}

func (e *Engine) GetEntitiesByType(entityType core.EntityType) []collision.Body {
	return e.world.EntitiesByType(entityType)
}

// Collision

// IgnoreTypes suppresses contacts between entities whose combined type
// mask contains types
func (e *Engine) IgnoreTypes(types core.EntityType) {
	e.world.Ignore(types)
}

// IgnorePair suppresses contacts between two entities
func (e *Engine) IgnorePair(a, b uint64) error {
	return e.world.IgnorePair(a, b)
}

// OnContact calls fn for every contact of every frame until unsubscribed.
// fn runs inside Step and must not call back into the engine.
func (e *Engine) OnContact(fn func(c *collision.Contact)) string {
	return e.world.Subscribe(collision.ContactListenerFunc(fn))
}

func (e *Engine) Unsubscribe(id string) bool {
	return e.world.Unsubscribe(id)
}

// Contacts returns the contacts of the last frame
func (e *Engine) Contacts() []collision.Contact {
	return e.world.Contacts()
}

// Pathfinding

// PlanPath routes a vehicle around static obstacles and sets it following
// the result
func (e *Engine) PlanPath(vehicleID uint64, goal core.Vector2D) ([]core.Vector2D, error) {
	return e.world.PlanPath(vehicleID, goal)
}

// Simulation

// Step advances the world by dt seconds
func (e *Engine) Step(dt float64) {
	e.world.Step(dt)
}

// Run steps the world frames times, stopping early if ctx is done.
func (e *Engine) Run(ctx context.Context, frames int, dt float64) error {
	for i := 0; i < frames; i++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("stopped after %d of %d frames: %w", i, frames, err)
		}
		e.world.Step(dt)
	}
	return nil
}

// StateHash fingerprints every entity's position and velocity
func (e *Engine) StateHash() uint64 {
	return e.world.StateHash()
}

// Performance and Debugging

// GetConfig returns the current engine configuration
func (e *Engine) GetConfig() *Config {
	return e.config
}

// World exposes the underlying world
func (e *Engine) World() *scene.World {
	return e.world
}

// GetStats returns world statistics
func (e *Engine) GetStats() Stats {
	s := e.world.Stats()
	return Stats{
		Frame:         s.Frame,
		EntityCount:   s.Entities,
		VehicleCount:  s.Vehicles,
		ObstacleCount: len(e.world.EntitiesByType(core.EntityTypeObstacle)),
		WallCount:     s.Walls,
		ContactCount:  s.Contacts,
		DroppedCount:  s.Dropped,
		SceneBounds:   e.world.Bounds(),
	}
}

// Stats represents world statistics after the last frame
type Stats struct {
	Frame         uint64
	EntityCount   int
	VehicleCount  int
	ObstacleCount int
	WallCount     int
	ContactCount  int
	DroppedCount  int
	SceneBounds   core.AABB
}
