package scene

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"steerflow/internal/collision"
	"steerflow/internal/core"
	"steerflow/internal/observability/log"
	"steerflow/internal/steering"
)

type subscription struct {
	id       string
	listener collision.ContactListener
}

// Stats is a snapshot of the world after the last frame.
type Stats struct {
	Frame    uint64
	Entities int
	Vehicles int
	Walls    int
	Contacts int
	Dropped  int
}

// Subscribe registers a listener for every contact of every frame and
// returns the ID to unsubscribe with. Listeners run in subscription order
// and may mark a contact resolved to skip its resolution.
func (w *World) Subscribe(l collision.ContactListener) string {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := uuid.NewString()
	w.listeners = append(w.listeners, subscription{id: id, listener: l})
	return id
}

func (w *World) Unsubscribe(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i, s := range w.listeners {
		if s.id == id {
			w.listeners = append(w.listeners[:i], w.listeners[i+1:]...)
			return true
		}
	}
	return false
}

func (w *World) raise(c *collision.Contact) {
	for _, s := range w.listeners {
		s.listener.OnContact(c)
	}
}

// Step advances the world by dt:
//
//  1. vehicles steer and integrate, other moving bodies integrate, in ID order
//  2. moved bodies are re-indexed
//  3. contacts between bodies and against walls are gathered
//  4. listeners see every contact
//  5. penetration then velocity is resolved
func (w *World) Step(dt float64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, b := range w.bodies {
		switch m := b.(type) {
		case updater:
			m.Update(dt)
		case integrator:
			m.Integrate(dt)
		}
	}

	w.reindex()

	w.contacts.Clear()
	w.contacts.AccumulateContacts(w.bodies)
	w.contacts.AccumulateWallContacts(w.bodies, w.walls)
	if len(w.listeners) > 0 {
		w.contacts.RaiseContactEvents(w.fanout)
	}
	w.contacts.ResolveContacts()
	w.contacts.ResolveVelocity()

	// Resolution moves bodies too.
	w.reindex()
	w.frame++

	if w.logger.Enabled(log.LevelDebug) {
		w.logger.Debug("frame stepped",
			log.Uint64("frame", w.frame),
			log.Int("contacts", len(w.contacts.Contacts())),
			log.Int("dropped", w.contacts.Dropped()),
		)
	}
}

// reindex moves every mobile body to its new quadtree cell. A body that
// left the world bounds drops out of the index until it comes back.
func (w *World) reindex() {
	for _, b := range w.bodies {
		if _, ok := b.(collision.Mover); !ok {
			continue
		}
		id := b.ID()
		if err := w.index.Update(b); err != nil {
			if !w.outside[id] {
				w.outside[id] = true
				w.logger.Warn("entity left world bounds",
					log.Uint64("id", id),
					log.Error(err),
				)
			}
			continue
		}
		if w.outside[id] {
			delete(w.outside, id)
			w.logger.Debug("entity re-entered world bounds", log.Uint64("id", id))
		}
	}
}

// Frame is the number of completed steps.
func (w *World) Frame() uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.frame
}

// Contacts returns a copy of the contacts gathered in the last step.
func (w *World) Contacts() []collision.Contact {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]collision.Contact(nil), w.contacts.Contacts()...)
}

func (w *World) Stats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()

	s := Stats{
		Frame:    w.frame,
		Entities: len(w.bodies),
		Walls:    len(w.walls),
		Contacts: len(w.contacts.Contacts()),
		Dropped:  w.contacts.Dropped(),
	}
	for _, b := range w.bodies {
		if _, ok := b.(updater); ok {
			s.Vehicles++
		}
	}
	return s
}

// StateHash digests every body's ID, position and velocity in ID order.
// Two runs of the same scenario produce the same hash frame for frame.
func (w *World) StateHash() uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()

	d := xxhash.New()
	buf := make([]byte, 0, 40)
	for _, b := range w.bodies {
		var vel core.Vector2D
		if m, ok := b.(collision.Mover); ok {
			vel = m.Velocity()
		}
		pos := b.Position()

		buf = binary.LittleEndian.AppendUint64(buf[:0], b.ID())
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(pos.X))
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(pos.Y))
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(vel.X))
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(vel.Y))
		_, _ = d.Write(buf)
	}
	return d.Sum64()
}

// steeringView answers obstacle queries for vehicles during Step. It reads
// the index without locking since Step already holds the world lock.
type steeringView struct {
	world *World
}

func (v *steeringView) TagObstaclesWithinRange(agent steering.Agent, radius float64, out []core.Spatial) []core.Spatial {
	w := v.world
	for _, b := range w.index.QueryRadius(agent.Position(), radius) {
		if b.ID() == agent.ID() || b.Type()&w.cfg.ObstacleTypes == 0 {
			continue
		}
		out = append(out, b)
	}
	return out
}
