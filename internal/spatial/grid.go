package spatial

import (
	"math"

	"steerflow/internal/core"
)

// Grid is a uniform broad-phase grid rebuilt from scratch every frame.
// Items are bucketed by centre point into exactly one cell; the cell size
// is derived from the largest bounding diameter so any two overlapping
// circles always sit in the same or adjacent cells.
//
// Cell storage is reused across builds to avoid per-frame allocation.
type Grid[T core.Spatial] struct {
	bounds   core.AABB
	cellSize float64
	cols     int
	rows     int
	cells    [][]T
}

// NewGrid creates an empty grid. Call Build before querying.
func NewGrid[T core.Spatial]() *Grid[T] {
	return &Grid[T]{}
}

// Build partitions items into cells. Items with a non-positive bounding
// radius never collide and are left out.
func (g *Grid[T]) Build(items []T) {
	g.reset()

	first := true
	maxRadius := 0.0
	for _, item := range items {
		r := item.BoundingRadius()
		if r <= 0 {
			continue
		}
		p := item.Position()
		if first {
			g.bounds = core.AABB{Min: p, Max: p}
			first = false
		} else {
			g.bounds.Min.X = math.Min(g.bounds.Min.X, p.X)
			g.bounds.Min.Y = math.Min(g.bounds.Min.Y, p.Y)
			g.bounds.Max.X = math.Max(g.bounds.Max.X, p.X)
			g.bounds.Max.Y = math.Max(g.bounds.Max.Y, p.Y)
		}
		maxRadius = math.Max(maxRadius, r)
	}
	if first {
		g.cols, g.rows = 0, 0
		return
	}

	g.cellSize = 2 * maxRadius
	extent := g.bounds.Size()
	g.cols = cellCount(extent.X, g.cellSize)
	g.rows = cellCount(extent.Y, g.cellSize)

	need := g.cols * g.rows
	if cap(g.cells) < need {
		g.cells = append(g.cells[:cap(g.cells)], make([][]T, need-cap(g.cells))...)
	}
	g.cells = g.cells[:need]

	for _, item := range items {
		if item.BoundingRadius() <= 0 {
			continue
		}
		idx := g.cellIndex(item.Position())
		g.cells[idx] = append(g.cells[idx], item)
	}
}

// Neighbours appends to out every item in the cell holding item's centre
// and in the ring of adjacent cells, clamped at the grid edges. The item
// itself is included when it was part of the build.
func (g *Grid[T]) Neighbours(item T, out []T) []T {
	if g.cols == 0 || g.rows == 0 {
		return out
	}
	col, row := g.cellCoords(item.Position())

	for r := max(row-1, 0); r <= min(row+1, g.rows-1); r++ {
		for c := max(col-1, 0); c <= min(col+1, g.cols-1); c++ {
			out = append(out, g.cells[r*g.cols+c]...)
		}
	}
	return out
}

// Bounds returns the box enclosing every bucketed centre
func (g *Grid[T]) Bounds() core.AABB {
	return g.bounds
}

// CellSize returns the nominal cell size (twice the largest radius)
func (g *Grid[T]) CellSize() float64 {
	return g.cellSize
}

// Dimensions returns the number of columns and rows
func (g *Grid[T]) Dimensions() (cols, rows int) {
	return g.cols, g.rows
}

func (g *Grid[T]) reset() {
	for i := range g.cells {
		clear(g.cells[i])
		g.cells[i] = g.cells[i][:0]
	}
	g.bounds = core.AABB{}
	g.cellSize = 0
}

func (g *Grid[T]) cellIndex(p core.Vector2D) int {
	col, row := g.cellCoords(p)
	return row*g.cols + col
}

// cellCoords maps a point to floor((p - min) / extent * count), clamped so
// that points on the max edge land in the last cell.
func (g *Grid[T]) cellCoords(p core.Vector2D) (col, row int) {
	extent := g.bounds.Size()
	col = axisCell(p.X-g.bounds.Min.X, extent.X, g.cols)
	row = axisCell(p.Y-g.bounds.Min.Y, extent.Y, g.rows)
	return col, row
}

func axisCell(offset, extent float64, count int) int {
	if extent <= 0 {
		return 0
	}
	idx := int(math.Floor(offset / extent * float64(count)))
	if idx < 0 {
		return 0
	}
	if idx >= count {
		return count - 1
	}
	return idx
}

// MaxCellsPerAxis bounds the grid for scenes of small bodies spread over
// a large area. Capped cells are wider than the cell size, so neighbour
// queries stay complete.
const MaxCellsPerAxis = 512

// cellCount is floor(extent / cellSize), at least one cell so degenerate
// (zero-extent) axes still have somewhere to bucket items, and at most
// MaxCellsPerAxis.
func cellCount(extent, cellSize float64) int {
	if cellSize <= 0 || extent <= 0 {
		return 1
	}
	n := math.Floor(extent / cellSize)
	switch {
	case n < 1:
		return 1
	case n > MaxCellsPerAxis:
		return MaxCellsPerAxis
	}
	return int(n)
}
