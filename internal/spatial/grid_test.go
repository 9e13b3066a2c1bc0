package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"steerflow/internal/core"
)

func ids(items []*circle) map[uint64]bool {
	out := make(map[uint64]bool, len(items))
	for _, item := range items {
		out[item.ID()] = true
	}
	return out
}

func TestGridDimensions(t *testing.T) {
	g := NewGrid[*circle]()
	g.Build([]*circle{
		{id: 1, pos: core.Vector2D{X: 0, Y: 0}, radius: 1},
		{id: 2, pos: core.Vector2D{X: 10, Y: 4}, radius: 2},
		{id: 3, pos: core.Vector2D{X: 100, Y: 100}, radius: 0}, // ignored
	})

	assert.Equal(t, 4.0, g.CellSize())
	cols, rows := g.Dimensions()
	assert.Equal(t, 2, cols) // floor(10 / 4)
	assert.Equal(t, 1, rows) // floor(4 / 4)
	assert.Equal(t, core.AABB{Max: core.Vector2D{X: 10, Y: 4}}, g.Bounds())
}

func TestGridNeighboursSkipsFarCells(t *testing.T) {
	g := NewGrid[*circle]()
	items := []*circle{
		{id: 1, pos: core.Vector2D{X: 0, Y: 0}, radius: 1},
		{id: 2, pos: core.Vector2D{X: 1.5, Y: 0}, radius: 1},
		{id: 3, pos: core.Vector2D{X: 20, Y: 0}, radius: 1},
	}
	g.Build(items)

	found := ids(g.Neighbours(items[0], nil))
	assert.True(t, found[1])
	assert.True(t, found[2])
	assert.False(t, found[3])
}

// Items sitting exactly on cell boundary lines must still see every
// item their bounding circle could overlap.
func TestGridNeighbourCompletenessOnBoundaries(t *testing.T) {
	const radius = 1.0
	var items []*circle
	id := uint64(1)
	for x := 0.0; x <= 20; x += 1 {
		for y := 0.0; y <= 20; y += 1 {
			items = append(items, &circle{id: id, pos: core.Vector2D{X: x, Y: y}, radius: radius})
			id++
		}
	}

	g := NewGrid[*circle]()
	g.Build(items)
	require.Equal(t, 2*radius, g.CellSize())

	for _, a := range items {
		found := ids(g.Neighbours(a, nil))
		for _, b := range items {
			reach := a.radius + b.radius
			if a.pos.DistanceSq(b.pos) < reach*reach {
				require.True(t, found[b.id], "item %d at %v misses overlapping item %d at %v", a.id, a.pos, b.id, b.pos)
			}
		}
	}
}

func TestGridDegenerateExtent(t *testing.T) {
	g := NewGrid[*circle]()
	items := []*circle{
		{id: 1, pos: core.Vector2D{X: 5, Y: 5}, radius: 1},
		{id: 2, pos: core.Vector2D{X: 5, Y: 5}, radius: 1},
	}
	g.Build(items)

	cols, rows := g.Dimensions()
	assert.Equal(t, 1, cols)
	assert.Equal(t, 1, rows)
	assert.Len(t, g.Neighbours(items[0], nil), 2)
}

func TestGridCapsCellsPerAxis(t *testing.T) {
	g := NewGrid[*circle]()
	items := []*circle{
		{id: 1, pos: core.Vector2D{X: 0, Y: 0}, radius: 0.1},
		{id: 2, pos: core.Vector2D{X: 1000, Y: 1000}, radius: 0.1},
		// Straddle the first capped cell boundary at 1000/512.
		{id: 3, pos: core.Vector2D{X: 1.9, Y: 500}, radius: 0.1},
		{id: 4, pos: core.Vector2D{X: 2.0, Y: 500}, radius: 0.1},
		{id: 5, pos: core.Vector2D{X: 50, Y: 500}, radius: 0.1},
	}
	g.Build(items)

	cols, rows := g.Dimensions()
	assert.Equal(t, MaxCellsPerAxis, cols)
	assert.Equal(t, MaxCellsPerAxis, rows)

	found := ids(g.Neighbours(items[2], nil))
	assert.True(t, found[4])
	assert.False(t, found[5])
}

func TestGridRebuildReusesCells(t *testing.T) {
	g := NewGrid[*circle]()
	a := &circle{id: 1, pos: core.Vector2D{X: 0, Y: 0}, radius: 1}
	b := &circle{id: 2, pos: core.Vector2D{X: 1, Y: 0}, radius: 1}
	g.Build([]*circle{a, b})
	assert.Len(t, g.Neighbours(a, nil), 2)

	g.Build([]*circle{a})
	assert.Len(t, g.Neighbours(a, nil), 1)

	g.Build(nil)
	assert.Empty(t, g.Neighbours(a, nil))
}

func BenchmarkGridBuildAndQuery(b *testing.B) {
	items := make([]*circle, 0, 1000)
	for i := 0; i < 1000; i++ {
		items = append(items, &circle{
			id:     uint64(i + 1),
			pos:    core.Vector2D{X: float64(i%40) * 3, Y: float64(i/40) * 3},
			radius: 1,
		})
	}
	g := NewGrid[*circle]()
	buf := make([]*circle, 0, 64)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g.Build(items)
		for _, item := range items {
			buf = g.Neighbours(item, buf[:0])
		}
	}
}
