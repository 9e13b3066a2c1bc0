package scene

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"steerflow/internal/collision"
	"steerflow/internal/core"
	"steerflow/internal/entity"
	"steerflow/internal/observability/log"
	"steerflow/internal/pathfinding"
	"steerflow/internal/steering"
)

var east = core.Vector2D{X: 1}

func staticDisk(w *World, typ core.EntityType, pos core.Vector2D, r float64) *entity.Entity {
	e := entity.NewEntity(w.NextID(), typ, pos, east)
	e.SetDisk(r)
	return e
}

func movingDisk(w *World, pos core.Vector2D, r float64) *entity.Moving {
	m := entity.NewMoving(w.NextID(), core.EntityTypeVehicle, pos, east, 200, 100)
	m.SetDisk(r)
	return m
}

func ids(bodies []collision.Body) []uint64 {
	out := make([]uint64, len(bodies))
	for i, b := range bodies {
		out[i] = b.ID()
	}
	return out
}

func TestAddRemoveEntity(t *testing.T) {
	w := NewWorld(DefaultConfig())
	rock := staticDisk(w, core.EntityTypeObstacle, core.Vector2D{}, 1)

	require.NoError(t, w.AddEntity(rock))
	assert.Equal(t, 1, w.Len())

	err := w.AddEntity(rock)
	assert.True(t, errors.Is(err, ErrDuplicateEntity), "got %v", err)

	got, err := w.Entity(rock.ID())
	require.NoError(t, err)
	assert.Same(t, rock, got)

	require.NoError(t, w.RemoveEntity(rock.ID()))
	assert.Zero(t, w.Len())

	err = w.RemoveEntity(rock.ID())
	assert.True(t, errors.Is(err, ErrEntityNotFound), "got %v", err)
	_, err = w.Entity(rock.ID())
	assert.True(t, errors.Is(err, ErrEntityNotFound), "got %v", err)
}

func TestAddEntityRejects(t *testing.T) {
	w := NewWorld(DefaultConfig())

	assert.Error(t, w.AddEntity(nil))
	assert.Error(t, w.AddEntity(entity.NewEntity(0, core.EntityTypeObstacle, core.Vector2D{}, east)))

	far := entity.NewEntity(w.NextID(), core.EntityTypeObstacle, core.Vector2D{X: 1000}, east)
	assert.Error(t, w.AddEntity(far))
	assert.Zero(t, w.Len())
}

func TestEntityOrderAndIDs(t *testing.T) {
	w := NewWorld(DefaultConfig())

	for _, id := range []uint64{5, 2, 9} {
		require.NoError(t, w.AddEntity(entity.NewEntity(id, core.EntityTypeObstacle, core.Vector2D{}, east)))
	}

	assert.Equal(t, []uint64{2, 5, 9}, ids(w.Entities()))
	assert.Equal(t, uint64(10), w.NextID())

	require.NoError(t, w.RemoveEntity(5))
	assert.Equal(t, []uint64{2, 9}, ids(w.Entities()))
}

func TestQueries(t *testing.T) {
	w := NewWorld(DefaultConfig())
	rock := staticDisk(w, core.EntityTypeObstacle, core.Vector2D{}, 1)
	mover := movingDisk(w, core.Vector2D{X: 10}, 1)
	coin := staticDisk(w, core.EntityTypePickup, core.Vector2D{X: 50, Y: 50}, 1)
	for _, b := range []collision.Body{rock, mover, coin} {
		require.NoError(t, w.AddEntity(b))
	}

	assert.Equal(t, []uint64{rock.ID(), mover.ID()}, ids(w.EntitiesInRadius(core.Vector2D{}, 12)))
	assert.Equal(t, []uint64{coin.ID()}, ids(w.EntitiesInArea(core.AABB{
		Min: core.Vector2D{X: 40, Y: 40},
		Max: core.Vector2D{X: 60, Y: 60},
	})))
	assert.Equal(t, []uint64{rock.ID(), coin.ID()}, ids(w.EntitiesByType(core.EntityTypeObstacle|core.EntityTypePickup)))

	nearest, ok := w.Nearest(core.Vector2D{X: 9}, 5)
	require.True(t, ok)
	assert.Equal(t, mover.ID(), nearest.ID())

	_, ok = w.Nearest(core.Vector2D{X: -100}, 5)
	assert.False(t, ok)

	_, err := w.Vehicle(rock.ID())
	assert.True(t, errors.Is(err, ErrNotVehicle), "got %v", err)
}

func TestStepSteersVehicles(t *testing.T) {
	w := NewWorld(DefaultConfig())
	v := w.NewVehicle(core.EntityTypeVehicle, core.Vector2D{}, east, 10, 100)
	v.SetDisk(1)
	v.Steering().SeekOn(core.Vector2D{X: 100})
	require.NoError(t, w.AddEntity(v))

	w.Step(0.1)

	assert.InDelta(t, 0.1, v.Position().X, 1e-9)
	assert.InDelta(t, 0, v.Position().Y, 1e-9)
	assert.InDelta(t, 1, v.Velocity().X, 1e-9)
	assert.Equal(t, uint64(1), w.Frame())

	got, err := w.Vehicle(v.ID())
	require.NoError(t, err)
	assert.Same(t, v, got)
}

func TestStepResolvesOverlap(t *testing.T) {
	w := NewWorld(DefaultConfig())
	a := movingDisk(w, core.Vector2D{}, 1)
	b := movingDisk(w, core.Vector2D{X: 1.5}, 1)
	require.NoError(t, w.AddEntity(a))
	require.NoError(t, w.AddEntity(b))

	w.Step(0.1)

	assert.InDelta(t, 2, a.Position().Distance(b.Position()), 1e-9)
	assert.InDelta(t, -0.25, a.Position().X, 1e-9)
	assert.InDelta(t, 1.75, b.Position().X, 1e-9)

	stats := w.Stats()
	assert.Equal(t, Stats{Frame: 1, Entities: 2, Contacts: 1}, stats)
	require.Len(t, w.Contacts(), 1)
}

func TestStepWallContact(t *testing.T) {
	w := NewWorld(DefaultConfig())
	ball := movingDisk(w, core.Vector2D{Y: 0.5}, 1)
	require.NoError(t, w.AddEntity(ball))
	w.AddWall(core.Vector2D{X: -5}, core.Vector2D{X: 5})

	w.Step(0.1)

	assert.InDelta(t, 1, ball.Position().Y, 1e-9)
	contacts := w.Contacts()
	require.Len(t, contacts, 1)
	assert.True(t, contacts[0].IsWall())
	assert.Len(t, w.Walls(), 1)
	assert.Equal(t, 1, w.Stats().Walls)
}

func TestIgnorePair(t *testing.T) {
	w := NewWorld(DefaultConfig())
	a := movingDisk(w, core.Vector2D{}, 1)
	b := movingDisk(w, core.Vector2D{X: 1.5}, 1)
	require.NoError(t, w.AddEntity(a))
	require.NoError(t, w.AddEntity(b))

	err := w.IgnorePair(a.ID(), 999)
	assert.True(t, errors.Is(err, ErrEntityNotFound), "got %v", err)

	require.NoError(t, w.IgnorePair(b.ID(), a.ID()))
	w.Step(0.1)
	assert.Empty(t, w.Contacts())
	assert.InDelta(t, 1.5, b.Position().X, 1e-9)
}

func TestIgnoreTypes(t *testing.T) {
	w := NewWorld(DefaultConfig())
	require.NoError(t, w.AddEntity(movingDisk(w, core.Vector2D{}, 1)))
	require.NoError(t, w.AddEntity(movingDisk(w, core.Vector2D{X: 1.5}, 1)))

	w.Ignore(core.EntityTypeVehicle)
	w.Step(0.1)
	assert.Empty(t, w.Contacts())
}

func TestContactListeners(t *testing.T) {
	w := NewWorld(DefaultConfig())
	a := movingDisk(w, core.Vector2D{}, 1)
	b := movingDisk(w, core.Vector2D{X: 1.5}, 1)
	require.NoError(t, w.AddEntity(a))
	require.NoError(t, w.AddEntity(b))

	var calls []string
	first := w.Subscribe(collision.ContactListenerFunc(func(c *collision.Contact) {
		calls = append(calls, "first")
		c.Resolved = true
	}))
	second := w.Subscribe(collision.ContactListenerFunc(func(c *collision.Contact) {
		calls = append(calls, "second")
	}))
	assert.NotEqual(t, first, second)

	w.Step(0.1)

	assert.Equal(t, []string{"first", "second"}, calls)
	assert.InDelta(t, 1.5, a.Position().Distance(b.Position()), 1e-9)

	assert.True(t, w.Unsubscribe(first))
	assert.False(t, w.Unsubscribe(first))

	calls = nil
	w.Step(0.1)
	assert.Equal(t, []string{"second"}, calls)
	assert.InDelta(t, 2, a.Position().Distance(b.Position()), 1e-9)
}

func TestSteeringViewTagsObstacles(t *testing.T) {
	w := NewWorld(DefaultConfig())
	v := w.NewVehicle(core.EntityTypeVehicle, core.Vector2D{}, east, 10, 10)
	v.SetDisk(1)
	rock := staticDisk(w, core.EntityTypeObstacle, core.Vector2D{X: 10, Y: 0.5}, 2)
	coin := staticDisk(w, core.EntityTypePickup, core.Vector2D{X: 5}, 1)
	far := staticDisk(w, core.EntityTypeObstacle, core.Vector2D{X: 200}, 2)
	for _, b := range []collision.Body{v, rock, coin, far} {
		require.NoError(t, w.AddEntity(b))
	}

	tagged := w.SteeringWorld().TagObstaclesWithinRange(v, 40, nil)
	require.Len(t, tagged, 1)
	assert.Equal(t, rock.ID(), tagged[0].ID())
}

func TestStateHashDeterministic(t *testing.T) {
	build := func() *World {
		w := NewWorld(DefaultConfig())
		v := w.NewVehicle(core.EntityTypeVehicle, core.Vector2D{}, east, 10, 50)
		v.SetDisk(1)
		v.Steering().ArriveOn(core.Vector2D{X: 30, Y: 10}, steering.Normal)
		require.NoError(t, w.AddEntity(v))
		require.NoError(t, w.AddEntity(staticDisk(w, core.EntityTypeObstacle, core.Vector2D{X: 15, Y: 5}, 2)))
		return w
	}

	a, b := build(), build()
	assert.Equal(t, a.StateHash(), b.StateHash())

	for i := 0; i < 30; i++ {
		a.Step(1.0 / 60)
		b.Step(1.0 / 60)
	}
	assert.Equal(t, a.StateHash(), b.StateHash())

	before := a.StateHash()
	a.Step(1.0 / 60)
	assert.NotEqual(t, before, a.StateHash())
}

func TestPlanPath(t *testing.T) {
	w := NewWorld(DefaultConfig())
	v := w.NewVehicle(core.EntityTypeVehicle, core.Vector2D{}, east, 10, 10)
	v.SetDisk(0.5)
	rock := staticDisk(w, core.EntityTypeObstacle, core.Vector2D{X: 5}, 2)
	require.NoError(t, w.AddEntity(v))
	require.NoError(t, w.AddEntity(rock))

	goal := core.Vector2D{X: 10}
	waypoints, err := w.PlanPath(v.ID(), goal)
	require.NoError(t, err)
	require.NotEmpty(t, waypoints)

	assert.Equal(t, goal, waypoints[len(waypoints)-1])
	for _, wp := range waypoints {
		assert.Greater(t, wp.Distance(rock.Position()), rock.BoundingRadius())
	}

	steer := v.Steering()
	assert.True(t, steer.IsOn(steering.FollowPath))
	assert.Equal(t, waypoints, steer.Path().Waypoints())
	assert.False(t, steer.Path().Looped())
}

func TestPlanPathErrors(t *testing.T) {
	w := NewWorld(DefaultConfig())
	v := w.NewVehicle(core.EntityTypeVehicle, core.Vector2D{}, east, 10, 10)
	v.SetDisk(0.5)
	rock := staticDisk(w, core.EntityTypeObstacle, core.Vector2D{X: 5}, 2)
	require.NoError(t, w.AddEntity(v))
	require.NoError(t, w.AddEntity(rock))

	_, err := w.PlanPath(999, core.Vector2D{})
	assert.True(t, errors.Is(err, ErrEntityNotFound), "got %v", err)

	_, err = w.PlanPath(rock.ID(), core.Vector2D{})
	assert.True(t, errors.Is(err, ErrNotVehicle), "got %v", err)

	_, err = w.PlanPath(v.ID(), rock.Position())
	assert.True(t, errors.Is(err, pathfinding.ErrNoPath), "got %v", err)
}

func TestLeavingBoundsWarnsOnce(t *testing.T) {
	zc, logs := observer.New(zapcore.DebugLevel)
	w := NewWorld(DefaultConfig(), WithLogger(log.FromZap(zap.New(zc))))

	m := entity.NewMoving(w.NextID(), core.EntityTypeProjectile, core.Vector2D{X: 499}, east, 200, 0)
	m.SetVelocity(core.Vector2D{X: 100})
	require.NoError(t, w.AddEntity(m))

	w.Step(0.1)
	w.Step(0.1)

	assert.Equal(t, 1, logs.FilterMessage("entity left world bounds").Len())
	assert.Equal(t, 2, logs.FilterMessage("frame stepped").Len())
	assert.Equal(t, 1, logs.FilterMessage("entity added").Len())

	// Still tracked by the world, just not by range queries.
	assert.Equal(t, 1, w.Len())
	assert.Empty(t, w.EntitiesInRadius(m.Position(), 5))
}
