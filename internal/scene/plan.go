package scene

import (
	"fmt"

	"steerflow/internal/collision"
	"steerflow/internal/core"
	"steerflow/internal/entity"
	"steerflow/internal/observability/log"
	"steerflow/internal/pathfinding"
)

// PlanPath routes a vehicle to goal around every immovable body and wall,
// then installs the route as its path and turns FollowPath on.
func (w *World) PlanPath(vehicleID uint64, goal core.Vector2D) ([]core.Vector2D, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	b, exists := w.byID[vehicleID]
	if !exists {
		return nil, fmt.Errorf("plan path for %d: %w", vehicleID, ErrEntityNotFound)
	}
	v, ok := b.(*entity.Vehicle)
	if !ok {
		return nil, fmt.Errorf("plan path for %d: %w", vehicleID, ErrNotVehicle)
	}

	planner := pathfinding.NewAStarPathfinder(w.cfg.PathGridSize)
	planner.SetClearance(v.BoundingRadius())

	route, err := planner.FindPath(v.Position(), goal, w.staticBounds())
	if err != nil {
		return nil, fmt.Errorf("plan path for %d: %w", vehicleID, err)
	}
	route = pathfinding.Simplify(route, w.cfg.PathTolerance)

	// The first waypoint is where the vehicle already is.
	waypoints := route[1:]
	steer := v.Steering()
	steer.SetPath(waypoints, false)
	steer.FollowPathOn()

	w.logger.Debug("path planned",
		log.Uint64("id", vehicleID),
		log.Int("waypoints", len(waypoints)),
	)
	return waypoints, nil
}

// staticBounds collects the boxes A* treats as blocked: immovable shaped
// bodies and walls.
func (w *World) staticBounds() []core.AABB {
	var out []core.AABB
	for _, b := range w.bodies {
		if b.InverseMass() > 0 || b.Shape() == nil {
			continue
		}
		if _, moves := b.(collision.Mover); moves {
			continue
		}
		out = append(out, core.CircleBounds(b.Position(), b.BoundingRadius()))
	}
	for _, s := range w.walls {
		out = append(out, core.AABB{
			Min: core.Vector2D{X: min(s.A.X, s.B.X), Y: min(s.A.Y, s.B.Y)},
			Max: core.Vector2D{X: max(s.A.X, s.B.X), Y: max(s.A.Y, s.B.Y)},
		})
	}
	return out
}
