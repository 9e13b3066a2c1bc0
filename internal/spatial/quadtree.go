package spatial

import (
	"fmt"
	"sort"

	"steerflow/internal/core"
)

const (
	// MaxEntitiesPerNode defines when to split a quadtree node
	MaxEntitiesPerNode = 10
	// MaxDepth defines maximum depth of the quadtree
	MaxDepth = 8
)

// QuadTree is the persistent spatial index behind world range queries.
// Items are stored by their bounding circle's AABB; moving items must be
// re-inserted with Update after they move.
type QuadTree[T core.Spatial] struct {
	bounds core.AABB
	items  map[uint64]entry[T]
	root   *quadNode[T]
}

type entry[T core.Spatial] struct {
	item   T
	bounds core.AABB
}

// quadNode represents a node in the quadtree
type quadNode[T core.Spatial] struct {
	bounds   core.AABB
	items    map[uint64]entry[T]
	children [4]*quadNode[T] // NW, NE, SW, SE
	depth    int
}

// NewQuadTree creates a new quadtree with the given bounds
func NewQuadTree[T core.Spatial](bounds core.AABB) *QuadTree[T] {
	qt := &QuadTree[T]{bounds: bounds}
	qt.Clear()
	return qt
}

// Insert adds an item to the quadtree
func (qt *QuadTree[T]) Insert(item T) error {
	bounds := core.CircleBounds(item.Position(), item.BoundingRadius())
	if !qt.bounds.Contains(bounds) {
		return fmt.Errorf("item %d bounds %+v outside quadtree bounds %+v", item.ID(), bounds, qt.bounds)
	}

	e := entry[T]{item: item, bounds: bounds}
	qt.items[item.ID()] = e
	qt.root.insert(e)
	return nil
}

// Remove removes an item from the quadtree
func (qt *QuadTree[T]) Remove(id uint64) error {
	e, exists := qt.items[id]
	if !exists {
		return fmt.Errorf("item with id %d not found", id)
	}

	delete(qt.items, id)
	qt.root.remove(e)
	return nil
}

// Update re-indexes an item after it moved
func (qt *QuadTree[T]) Update(item T) error {
	if old, exists := qt.items[item.ID()]; exists {
		delete(qt.items, item.ID())
		qt.root.remove(old)
	}
	return qt.Insert(item)
}

// Len returns the number of indexed items
func (qt *QuadTree[T]) Len() int {
	return len(qt.items)
}

// Query returns all items whose bounds overlap the given box, ordered by ID
func (qt *QuadTree[T]) Query(bounds core.AABB) []T {
	var results []entry[T]
	qt.root.query(bounds, &results)

	sort.Slice(results, func(i, j int) bool { return results[i].item.ID() < results[j].item.ID() })
	out := make([]T, len(results))
	for i, e := range results {
		out[i] = e.item
	}
	return out
}

// QueryRadius returns all items whose bounding circle comes within
// radius of center, ordered by ID
func (qt *QuadTree[T]) QueryRadius(center core.Vector2D, radius float64) []T {
	candidates := qt.Query(core.CircleBounds(center, radius))
	results := candidates[:0]

	for _, item := range candidates {
		reach := radius + item.BoundingRadius()
		if item.Position().DistanceSq(center) < reach*reach {
			results = append(results, item)
		}
	}

	return results
}

// GetNearest returns the item whose centre is nearest to point within maxDistance
func (qt *QuadTree[T]) GetNearest(point core.Vector2D, maxDistance float64) (T, bool) {
	var nearest T
	found := false
	minDistance := maxDistance

	for _, item := range qt.Query(core.CircleBounds(point, maxDistance)) {
		distance := item.Position().Distance(point)
		if distance < minDistance {
			minDistance = distance
			nearest = item
			found = true
		}
	}

	return nearest, found
}

// Clear removes all items from the quadtree
func (qt *QuadTree[T]) Clear() {
	qt.items = make(map[uint64]entry[T])
	qt.root = &quadNode[T]{
		bounds: qt.bounds,
		items:  make(map[uint64]entry[T]),
	}
}

// insert adds an entry to this node or its children
func (qn *quadNode[T]) insert(e entry[T]) {
	if qn.children[0] != nil {
		if childIndex := qn.getChildIndex(e.bounds); childIndex != -1 {
			qn.children[childIndex].insert(e)
			return
		}
	}

	qn.items[e.item.ID()] = e

	if len(qn.items) > MaxEntitiesPerNode && qn.depth < MaxDepth && qn.children[0] == nil {
		qn.split()
	}
}

// remove walks only the branch that can hold the entry
func (qn *quadNode[T]) remove(e entry[T]) {
	delete(qn.items, e.item.ID())

	if qn.children[0] != nil {
		for _, child := range qn.children {
			if child.bounds.Contains(e.bounds) {
				child.remove(e)
			}
		}
	}
}

func (qn *quadNode[T]) query(bounds core.AABB, results *[]entry[T]) {
	for _, e := range qn.items {
		if bounds.Intersects(e.bounds) {
			*results = append(*results, e)
		}
	}

	if qn.children[0] != nil {
		for _, child := range qn.children {
			if bounds.Intersects(child.bounds) {
				child.query(bounds, results)
			}
		}
	}
}

// split divides this node into four children
func (qn *quadNode[T]) split() {
	midX := (qn.bounds.Min.X + qn.bounds.Max.X) / 2
	midY := (qn.bounds.Min.Y + qn.bounds.Max.Y) / 2

	childBounds := [4]core.AABB{
		{Min: core.Vector2D{X: qn.bounds.Min.X, Y: midY}, Max: core.Vector2D{X: midX, Y: qn.bounds.Max.Y}}, // NW
		{Min: core.Vector2D{X: midX, Y: midY}, Max: qn.bounds.Max},                                         // NE
		{Min: qn.bounds.Min, Max: core.Vector2D{X: midX, Y: midY}},                                         // SW
		{Min: core.Vector2D{X: midX, Y: qn.bounds.Min.Y}, Max: core.Vector2D{X: qn.bounds.Max.X, Y: midY}}, // SE
	}

	for i := range qn.children {
		qn.children[i] = &quadNode[T]{
			bounds: childBounds[i],
			items:  make(map[uint64]entry[T]),
			depth:  qn.depth + 1,
		}
	}

	for id, e := range qn.items {
		if childIndex := qn.getChildIndex(e.bounds); childIndex != -1 {
			qn.children[childIndex].insert(e)
			delete(qn.items, id)
		}
	}
}

// getChildIndex returns which child quadrant fully contains the bounds
func (qn *quadNode[T]) getChildIndex(bounds core.AABB) int {
	for i, child := range qn.children {
		if child != nil && child.bounds.Contains(bounds) {
			return i
		}
	}
	return -1
}
