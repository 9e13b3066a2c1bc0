package scene

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"steerflow/internal/collision"
	"steerflow/internal/core"
	"steerflow/internal/entity"
	"steerflow/internal/observability/log"
	"steerflow/internal/spatial"
	"steerflow/internal/steering"
)

var (
	ErrEntityNotFound  = errors.New("entity not found")
	ErrDuplicateEntity = errors.New("entity already exists")
	ErrNotVehicle      = errors.New("entity is not a vehicle")
)

// Config holds the tunables of a World.
type Config struct {
	Bounds      core.AABB
	MaxContacts int
	Restitution float64

	// ObstacleTypes selects which entities obstacle avoidance steers around.
	ObstacleTypes core.EntityType

	// PathGridSize is the A* cell size used by PlanPath; PathTolerance is
	// the Douglas-Peucker tolerance applied to the planned route.
	PathGridSize  float64
	PathTolerance float64
}

// DefaultConfig returns a 1000x1000 world centred on the origin.
func DefaultConfig() Config {
	return Config{
		Bounds: core.AABB{
			Min: core.Vector2D{X: -500, Y: -500},
			Max: core.Vector2D{X: 500, Y: 500},
		},
		MaxContacts:   1024,
		Restitution:   collision.DefaultRestitution,
		ObstacleTypes: core.EntityTypeObstacle,
		PathGridSize:  1,
		PathTolerance: 0.5,
	}
}

type Option func(*World)

func WithLogger(l log.Log) Option {
	return func(w *World) {
		if l != nil {
			w.logger = l
		}
	}
}

// updater is implemented by vehicles, which steer and then integrate.
type updater interface {
	Update(dt float64)
}

// integrator is implemented by bodies that move without steering.
type integrator interface {
	Integrate(dt float64)
}

// World owns every entity and wall of a simulation and advances them one
// frame at a time with Step. Query methods are safe for concurrent use;
// contact listeners run under the world lock and must not call back into
// the World.
type World struct {
	mu sync.RWMutex

	cfg      Config
	bodies   []collision.Body // ordered by ID
	byID     map[uint64]collision.Body
	index    *spatial.QuadTree[collision.Body]
	outside  map[uint64]bool
	walls    []collision.Segment
	contacts *collision.Manager
	view     *steeringView

	listeners []subscription
	fanout    collision.ContactListener
	frame     uint64
	nextID    atomic.Uint64

	logger log.Log
}

// NewWorld creates an empty world.
func NewWorld(cfg Config, opts ...Option) *World {
	w := &World{
		cfg:     cfg,
		byID:    make(map[uint64]collision.Body),
		index:   spatial.NewQuadTree[collision.Body](cfg.Bounds),
		outside: make(map[uint64]bool),
		logger:  log.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.contacts = collision.NewManager(cfg.MaxContacts,
		collision.WithRestitution(cfg.Restitution),
		collision.WithLogger(w.logger),
	)
	w.view = &steeringView{world: w}
	w.fanout = collision.ContactListenerFunc(w.raise)
	return w
}

// NextID reserves a fresh entity ID. IDs are never reused.
func (w *World) NextID() uint64 {
	return w.nextID.Add(1)
}

// SteeringWorld is the view vehicles of this world query for obstacles.
func (w *World) SteeringWorld() steering.World {
	return w.view
}

// NewVehicle reserves an ID and builds a vehicle wired to this world. The
// vehicle is not added until AddEntity is called, so its shape and
// behaviours can be set up first.
func (w *World) NewVehicle(typ core.EntityType, position, heading core.Vector2D, maxSpeed, maxForce float64) *entity.Vehicle {
	return entity.NewVehicle(w.NextID(), typ, position, heading, maxSpeed, maxForce, w.view)
}

// AddEntity registers a body. Its ID must be non-zero and unused.
func (w *World) AddEntity(b collision.Body) error {
	if b == nil {
		return fmt.Errorf("entity cannot be nil")
	}
	id := b.ID()
	if id == 0 {
		return fmt.Errorf("entity ID must be non-zero")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, exists := w.byID[id]; exists {
		return fmt.Errorf("add entity %d: %w", id, ErrDuplicateEntity)
	}
	if err := w.index.Insert(b); err != nil {
		return fmt.Errorf("add entity %d: %w", id, err)
	}

	w.byID[id] = b
	i, _ := slices.BinarySearchFunc(w.bodies, id, compareID)
	w.bodies = slices.Insert(w.bodies, i, b)

	// Keep reserved IDs ahead of caller-chosen ones.
	for {
		next := w.nextID.Load()
		if next >= id || w.nextID.CompareAndSwap(next, id) {
			break
		}
	}

	w.logger.Debug("entity added",
		log.Uint64("id", id),
		log.Uint64("type", uint64(b.Type())),
		log.Float64("radius", b.BoundingRadius()),
	)
	return nil
}

// RemoveEntity drops a body. Ignore rules naming it are kept, and vehicles
// still targeting it keep their reference.
func (w *World) RemoveEntity(id uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, exists := w.byID[id]; !exists {
		return fmt.Errorf("remove entity %d: %w", id, ErrEntityNotFound)
	}

	// Bodies that left the world bounds are no longer indexed.
	_ = w.index.Remove(id)
	delete(w.outside, id)
	delete(w.byID, id)
	if i, found := slices.BinarySearchFunc(w.bodies, id, compareID); found {
		w.bodies = slices.Delete(w.bodies, i, i+1)
	}

	w.logger.Debug("entity removed", log.Uint64("id", id))
	return nil
}

// UpdateEntity re-indexes a body after its position or shape was changed
// outside Step.
func (w *World) UpdateEntity(id uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	b, exists := w.byID[id]
	if !exists {
		return fmt.Errorf("update entity %d: %w", id, ErrEntityNotFound)
	}
	if err := w.index.Update(b); err != nil {
		w.outside[id] = true
		return fmt.Errorf("update entity %d: %w", id, err)
	}
	delete(w.outside, id)
	return nil
}

func (w *World) Entity(id uint64) (collision.Body, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	b, exists := w.byID[id]
	if !exists {
		return nil, fmt.Errorf("entity %d: %w", id, ErrEntityNotFound)
	}
	return b, nil
}

func (w *World) Vehicle(id uint64) (*entity.Vehicle, error) {
	b, err := w.Entity(id)
	if err != nil {
		return nil, err
	}
	v, ok := b.(*entity.Vehicle)
	if !ok {
		return nil, fmt.Errorf("entity %d: %w", id, ErrNotVehicle)
	}
	return v, nil
}

// Entities returns every body ordered by ID.
func (w *World) Entities() []collision.Body {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Clone(w.bodies)
}

func (w *World) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.bodies)
}

// EntitiesInArea returns bodies whose bounding circle overlaps area.
func (w *World) EntitiesInArea(area core.AABB) []collision.Body {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.index.Query(area)
}

// EntitiesInRadius returns bodies whose bounding circle comes within
// radius of center.
func (w *World) EntitiesInRadius(center core.Vector2D, radius float64) []collision.Body {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.index.QueryRadius(center, radius)
}

// Nearest returns the body whose centre is closest to point within
// maxDistance.
func (w *World) Nearest(point core.Vector2D, maxDistance float64) (collision.Body, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.index.GetNearest(point, maxDistance)
}

// EntitiesByType returns bodies sharing at least one type bit with mask.
func (w *World) EntitiesByType(mask core.EntityType) []collision.Body {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var out []collision.Body
	for _, b := range w.bodies {
		if b.Type()&mask != 0 {
			out = append(out, b)
		}
	}
	return out
}

// AddWall adds a static segment that bodies collide against.
func (w *World) AddWall(from, to core.Vector2D) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.walls = append(w.walls, collision.Segment{A: from, B: to})
}

func (w *World) Walls() []collision.Segment {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Clone(w.walls)
}

// Ignore suppresses contacts between bodies whose combined type mask
// contains types.
func (w *World) Ignore(types core.EntityType) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.contacts.Ignore(types)
}

// IgnorePair suppresses contacts between two specific entities.
func (w *World) IgnorePair(a, b uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, id := range []uint64{a, b} {
		if _, exists := w.byID[id]; !exists {
			return fmt.Errorf("ignore pair %d/%d: entity %d: %w", a, b, id, ErrEntityNotFound)
		}
	}
	w.contacts.IgnorePair(a, b)
	return nil
}

func (w *World) Bounds() core.AABB {
	return w.cfg.Bounds
}

func compareID(b collision.Body, id uint64) int {
	switch {
	case b.ID() < id:
		return -1
	case b.ID() > id:
		return 1
	default:
		return 0
	}
}
