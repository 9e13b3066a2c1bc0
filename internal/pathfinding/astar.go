package pathfinding

import (
	"container/heap"
	"errors"
	"fmt"
	"math"

	"steerflow/internal/core"
)

var ErrNoPath = errors.New("no path")

var _ core.Pathfinder = (*AStarPathfinder)(nil)

// cell is a grid coordinate in units of gridSize.
type cell struct {
	x, y int
}

// AStarPathfinder plans routes on a uniform grid laid over the world.
// Blocked cells are those touched by an obstacle's bounds grown by the
// clearance.
type AStarPathfinder struct {
	heuristic     core.HeuristicFunc
	gridSize      float64
	clearance     float64
	allowDiagonal bool
	maxNodes      int
}

// NewAStarPathfinder creates a pathfinder with diagonal moves and a
// Euclidean heuristic.
func NewAStarPathfinder(gridSize float64) *AStarPathfinder {
	return &AStarPathfinder{
		heuristic:     EuclideanDistance,
		gridSize:      gridSize,
		allowDiagonal: true,
		maxNodes:      10000,
	}
}

func (a *AStarPathfinder) SetHeuristic(heuristic core.HeuristicFunc) {
	a.heuristic = heuristic
}

func (a *AStarPathfinder) SetAllowDiagonal(allow bool) {
	a.allowDiagonal = allow
}

// SetMaxNodes bounds the number of cells expanded per search.
func (a *AStarPathfinder) SetMaxNodes(maxNodes int) {
	a.maxNodes = maxNodes
}

// SetClearance grows every obstacle by c, typically the radius of the
// agent that will follow the path.
func (a *AStarPathfinder) SetClearance(c float64) {
	a.clearance = max(c, 0)
}

func (a *AStarPathfinder) GridSize() float64 {
	return a.gridSize
}

// FindPath returns waypoints from start to goal. Intermediate waypoints
// are cell centres; the first and last are start and goal themselves.
func (a *AStarPathfinder) FindPath(start, goal core.Vector2D, obstacles []core.AABB) ([]core.Vector2D, error) {
	startCell := a.toCell(start)
	goalCell := a.toCell(goal)
	blocked := a.blockedCells(obstacles)

	if blocked[goalCell] {
		return nil, fmt.Errorf("%w: goal %v is blocked", ErrNoPath, goal)
	}

	open := &nodeQueue{}
	heap.Init(open)
	openSet := make(map[cell]*node)
	closed := make(map[cell]bool)

	first := &node{cell: startCell, h: a.estimate(startCell, goalCell)}
	first.f = first.h
	heap.Push(open, first)
	openSet[startCell] = first

	explored := 0
	for open.Len() > 0 && explored < a.maxNodes {
		current := heap.Pop(open).(*node)
		delete(openSet, current.cell)
		closed[current.cell] = true
		explored++

		if current.cell == goalCell {
			return a.reconstruct(current, start, goal), nil
		}

		for _, next := range a.neighbours(current.cell) {
			if closed[next] || blocked[next] {
				continue
			}
			if a.cutsCorner(current.cell, next, blocked) {
				continue
			}

			g := current.g + a.moveCost(current.cell, next)
			n, inOpen := openSet[next]
			if !inOpen {
				n = &node{cell: next, g: g, h: a.estimate(next, goalCell), parent: current}
				n.f = n.g + n.h
				heap.Push(open, n)
				openSet[next] = n
			} else if g < n.g {
				n.g = g
				n.f = n.g + n.h
				n.parent = current
				heap.Fix(open, n.index)
			}
		}
	}

	return nil, fmt.Errorf("%w from %v to %v (explored %d nodes)", ErrNoPath, start, goal, explored)
}

func (a *AStarPathfinder) toCell(p core.Vector2D) cell {
	return cell{
		x: int(math.Floor(p.X / a.gridSize)),
		y: int(math.Floor(p.Y / a.gridSize)),
	}
}

func (a *AStarPathfinder) centre(c cell) core.Vector2D {
	return core.Vector2D{
		X: (float64(c.x) + 0.5) * a.gridSize,
		Y: (float64(c.y) + 0.5) * a.gridSize,
	}
}

func (a *AStarPathfinder) estimate(from, to cell) float64 {
	return a.heuristic(a.centre(from), a.centre(to))
}

// blockedCells marks every cell overlapped by a grown obstacle.
func (a *AStarPathfinder) blockedCells(obstacles []core.AABB) map[cell]bool {
	blocked := make(map[cell]bool)
	for _, ob := range obstacles {
		minX := int(math.Floor((ob.Min.X - a.clearance) / a.gridSize))
		maxX := int(math.Ceil((ob.Max.X + a.clearance) / a.gridSize))
		minY := int(math.Floor((ob.Min.Y - a.clearance) / a.gridSize))
		maxY := int(math.Ceil((ob.Max.Y + a.clearance) / a.gridSize))

		for x := minX; x < maxX; x++ {
			for y := minY; y < maxY; y++ {
				blocked[cell{x, y}] = true
			}
		}
	}
	return blocked
}

var (
	orthogonal = []cell{{0, 1}, {1, 0}, {0, -1}, {-1, 0}}
	diagonal   = []cell{{1, 1}, {1, -1}, {-1, -1}, {-1, 1}}
)

func (a *AStarPathfinder) neighbours(c cell) []cell {
	out := make([]cell, 0, 8)
	for _, d := range orthogonal {
		out = append(out, cell{c.x + d.x, c.y + d.y})
	}
	if a.allowDiagonal {
		for _, d := range diagonal {
			out = append(out, cell{c.x + d.x, c.y + d.y})
		}
	}
	return out
}

// cutsCorner rejects diagonal steps that squeeze between two blocked
// orthogonal cells.
func (a *AStarPathfinder) cutsCorner(from, to cell, blocked map[cell]bool) bool {
	if from.x == to.x || from.y == to.y {
		return false
	}
	return blocked[cell{to.x, from.y}] || blocked[cell{from.x, to.y}]
}

func (a *AStarPathfinder) moveCost(from, to cell) float64 {
	if from.x != to.x && from.y != to.y {
		return math.Sqrt2 * a.gridSize
	}
	return a.gridSize
}

func (a *AStarPathfinder) reconstruct(goalNode *node, start, goal core.Vector2D) []core.Vector2D {
	var path []core.Vector2D
	for n := goalNode; n != nil; n = n.parent {
		path = append(path, a.centre(n.cell))
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	path[0] = start
	if len(path) == 1 {
		return append(path, goal)
	}
	path[len(path)-1] = goal
	return path
}
