package core

// Vector2D represents a 2D coordinate/vector
type Vector2D struct {
	X, Y float64
}

// AABB (Axis-Aligned Bounding Box) represents a rectangular boundary
type AABB struct {
	Min, Max Vector2D
}

// EntityType is a bitmask describing what kind of entity something is.
// Collision ignore rules and contact ordering both work on these values.
type EntityType uint32

const EntityTypeNone EntityType = 0

const (
	EntityTypeObstacle EntityType = 1 << iota
	EntityTypeVehicle
	EntityTypePlayer
	EntityTypeProjectile
	EntityTypePickup
	EntityTypeWall
)

var entityTypeNames = map[string]EntityType{
	"obstacle":   EntityTypeObstacle,
	"vehicle":    EntityTypeVehicle,
	"player":     EntityTypePlayer,
	"projectile": EntityTypeProjectile,
	"pickup":     EntityTypePickup,
	"wall":       EntityTypeWall,
}

// ParseEntityType resolves a type name as used in scenario files.
func ParseEntityType(name string) (EntityType, bool) {
	t, ok := entityTypeNames[name]
	return t, ok
}

// Has reports whether every bit of other is set in t.
func (t EntityType) Has(other EntityType) bool {
	return t&other == other
}

// Spatial is anything with an identity, a centre and a bounding circle.
// Broad phase structures and range queries are built on it.
type Spatial interface {
	ID() uint64
	Position() Vector2D
	BoundingRadius() float64
}

// CircleBounds returns the AABB enclosing a circle
func CircleBounds(center Vector2D, radius float64) AABB {
	return AABB{
		Min: Vector2D{X: center.X - radius, Y: center.Y - radius},
		Max: Vector2D{X: center.X + radius, Y: center.Y + radius},
	}
}

// Intersects checks if two AABBs overlap
func (b AABB) Intersects(other AABB) bool {
	return b.Min.X < other.Max.X && b.Max.X > other.Min.X &&
		b.Min.Y < other.Max.Y && b.Max.Y > other.Min.Y
}

// Contains checks if bounds lies entirely inside b
func (b AABB) Contains(bounds AABB) bool {
	return bounds.Min.X >= b.Min.X && bounds.Max.X <= b.Max.X &&
		bounds.Min.Y >= b.Min.Y && bounds.Max.Y <= b.Max.Y
}

// ContainsPoint checks if a point lies inside b (edges inclusive)
func (b AABB) ContainsPoint(p Vector2D) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X && p.Y >= b.Min.Y && p.Y <= b.Max.Y
}

// Size returns the extent of the box along each axis
func (b AABB) Size() Vector2D {
	return b.Max.Sub(b.Min)
}

// Center returns the midpoint of the box
func (b AABB) Center() Vector2D {
	return Vector2D{X: (b.Min.X + b.Max.X) / 2, Y: (b.Min.Y + b.Max.Y) / 2}
}

// Pathfinder plans a route around blocked areas
type Pathfinder interface {
	FindPath(start, goal Vector2D, obstacles []AABB) ([]Vector2D, error)
	SetHeuristic(heuristic HeuristicFunc)
}

// HeuristicFunc defines heuristic function for pathfinding
type HeuristicFunc func(a, b Vector2D) float64
