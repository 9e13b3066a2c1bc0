package steering

import (
	"steerflow/internal/core"
)

// Path is a FIFO of waypoints consumed by FollowPath. A looped path moves
// each reached waypoint to the back instead of dropping it.
type Path struct {
	waypoints []core.Vector2D
	looped    bool
}

func NewPath(looped bool, waypoints ...core.Vector2D) *Path {
	p := &Path{looped: looped}
	p.Set(waypoints)
	return p
}

// Set replaces the waypoints with a copy of waypoints.
func (p *Path) Set(waypoints []core.Vector2D) {
	p.waypoints = append(p.waypoints[:0], waypoints...)
}

func (p *Path) Len() int         { return len(p.waypoints) }
func (p *Path) Looped() bool     { return p.looped }
func (p *Path) SetLooped(l bool) { p.looped = l }
func (p *Path) Finished() bool   { return len(p.waypoints) == 0 }

// Front returns the current waypoint.
func (p *Path) Front() (core.Vector2D, bool) {
	if len(p.waypoints) == 0 {
		return core.Vector2D{}, false
	}
	return p.waypoints[0], true
}

// Pop consumes the current waypoint.
func (p *Path) Pop() {
	n := len(p.waypoints)
	if n == 0 {
		return
	}
	front := p.waypoints[0]
	copy(p.waypoints, p.waypoints[1:])
	if p.looped {
		p.waypoints[n-1] = front
		return
	}
	p.waypoints = p.waypoints[:n-1]
}

// Waypoints returns a copy of the remaining waypoints.
func (p *Path) Waypoints() []core.Vector2D {
	return append([]core.Vector2D(nil), p.waypoints...)
}
