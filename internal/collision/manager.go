package collision

import (
	"steerflow/internal/core"
	"steerflow/internal/observability/log"
	"steerflow/internal/spatial"
)

const DefaultRestitution = 0.5

// Manager runs the per-frame collision pipeline:
//
//	Clear -> AccumulateContacts -> AccumulateWallContacts ->
//	RaiseContactEvents -> ResolveContacts -> ResolveVelocity
//
// Contacts live in a buffer sized at construction. Contacts past capacity
// are dropped and counted. A Manager is not safe for concurrent use.
type Manager struct {
	contacts    []Contact
	count       int
	dropped     int
	restitution float64

	ignoredTypes []core.EntityType
	ignoredPairs map[uint64]struct{}

	grid       *spatial.Grid[Body]
	neighbours []Body
	scratch    Contact

	logger log.Log
}

type Option func(*Manager)

// WithRestitution sets the restitution stamped on every new contact.
func WithRestitution(r float64) Option {
	return func(m *Manager) {
		m.restitution = r
	}
}

func WithLogger(l log.Log) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager creates a manager holding at most maxContacts contacts per
// frame.
func NewManager(maxContacts int, opts ...Option) *Manager {
	m := &Manager{
		contacts:     make([]Contact, max(maxContacts, 0)),
		restitution:  DefaultRestitution,
		ignoredPairs: make(map[uint64]struct{}),
		grid:         spatial.NewGrid[Body](),
		logger:       log.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Ignore suppresses every pair whose combined type mask contains all bits
// of types, e.g. Ignore(EntityTypeVehicle|EntityTypePickup).
func (m *Manager) Ignore(types core.EntityType) {
	m.ignoredTypes = append(m.ignoredTypes, types)
}

// IgnorePair suppresses the pair (a, b) regardless of order.
func (m *Manager) IgnorePair(a, b uint64) {
	m.ignoredPairs[pairKey(a, b)] = struct{}{}
}

func (m *Manager) UnignorePair(a, b uint64) {
	delete(m.ignoredPairs, pairKey(a, b))
}

// IsIgnored reports whether an ignore rule matches the pair.
func (m *Manager) IsIgnored(a, b Body) bool {
	combined := a.Type() | b.Type()
	for _, rule := range m.ignoredTypes {
		if combined.Has(rule) {
			return true
		}
	}
	_, ok := m.ignoredPairs[pairKey(a.ID(), b.ID())]
	return ok
}

// pairKey packs two IDs into one key with the smaller in the high word.
func pairKey(a, b uint64) uint64 {
	if a > b {
		a, b = b, a
	}
	return a<<32 | b&0xffffffff
}

// Clear forgets the contacts and drop count of the previous frame.
func (m *Manager) Clear() {
	clear(m.contacts[:m.count])
	m.count = 0
	m.dropped = 0
}

// Contacts returns the contacts of the current frame. The slice aliases the
// internal buffer and is overwritten by the next frame.
func (m *Manager) Contacts() []Contact {
	return m.contacts[:m.count]
}

// Capacity is the maximum number of contacts kept per frame.
func (m *Manager) Capacity() int {
	return len(m.contacts)
}

// Dropped is the number of contacts discarded this frame for lack of room.
func (m *Manager) Dropped() int {
	return m.dropped
}

// AccumulateContacts tests every pair of bodies that share a grid
// neighbourhood. Bodies without a shape or with zero radius are skipped.
func (m *Manager) AccumulateContacts(bodies []Body) {
	before := m.dropped
	m.grid.Build(bodies)

	for _, b0 := range bodies {
		if b0.BoundingRadius() <= 0 || b0.Shape() == nil {
			continue
		}
		m.neighbours = m.grid.Neighbours(b0, m.neighbours[:0])
		for _, b1 := range m.neighbours {
			// Neighbour lists are symmetric, so this visits each pair once.
			if b0.ID() <= b1.ID() {
				continue
			}
			if b1.BoundingRadius() <= 0 || b1.Shape() == nil {
				continue
			}
			if m.IsIgnored(b0, b1) {
				continue
			}
			if !ShapeToShape(b0.Shape(), b1.Shape(), &m.scratch) {
				continue
			}

			first, second, normal := b0, b1, m.scratch.ContactNormal
			if first.Type() > second.Type() {
				first, second, normal = second, first, normal.Neg()
			}
			m.add(first, second, normal, m.scratch.Penetration)
		}
	}
	clear(m.neighbours)
	m.logDropped("bodies", before)
}

// AccumulateWallContacts tests every body against every wall segment.
func (m *Manager) AccumulateWallContacts(bodies []Body, walls []Segment) {
	before := m.dropped
	for _, b := range bodies {
		if b.BoundingRadius() <= 0 || b.Shape() == nil {
			continue
		}
		for _, w := range walls {
			if ShapeToLineSegment(b.Shape(), w, &m.scratch) {
				m.add(b, nil, m.scratch.ContactNormal, m.scratch.Penetration)
			}
		}
	}
	m.logDropped("walls", before)
}

func (m *Manager) add(first, second Body, normal core.Vector2D, penetration float64) {
	if m.count >= len(m.contacts) {
		m.dropped++
		return
	}
	m.contacts[m.count] = Contact{
		FirstBody:     first,
		SecondBody:    second,
		ContactNormal: normal,
		Penetration:   penetration,
		Restitution:   m.restitution,
	}
	m.count++
}

func (m *Manager) logDropped(pass string, before int) {
	if n := m.dropped - before; n > 0 {
		m.logger.Debug("contact buffer full",
			log.String("pass", pass),
			log.Int("dropped", n),
			log.Int("capacity", len(m.contacts)),
		)
	}
}

// RaiseContactEvents hands every contact to l, resolved or not.
func (m *Manager) RaiseContactEvents(l ContactListener) {
	if l == nil {
		return
	}
	for i := 0; i < m.count; i++ {
		l.OnContact(&m.contacts[i])
	}
}

// ResolveContacts pushes overlapping bodies apart along the contact normal
// in proportion to their inverse masses. Wall contacts move the single
// body by the full penetration.
func (m *Manager) ResolveContacts() {
	for i := 0; i < m.count; i++ {
		c := &m.contacts[i]
		if c.Resolved || c.Penetration <= 0 {
			continue
		}

		if c.IsWall() {
			if c.FirstBody.InverseMass() <= 0 {
				continue
			}
			moveBy(c.FirstBody, c.ContactNormal.Scale(c.Penetration))
			continue
		}

		invA := c.FirstBody.InverseMass()
		invB := c.SecondBody.InverseMass()
		total := invA + invB
		if total <= 0 {
			continue
		}

		perInvMass := c.ContactNormal.Scale(c.Penetration / total)
		if invA > 0 {
			moveBy(c.FirstBody, perInvMass.Scale(invA))
		}
		if invB > 0 {
			moveBy(c.SecondBody, perInvMass.Scale(-invB))
		}
	}
}

func moveBy(b Body, delta core.Vector2D) {
	b.SetPosition(b.Position().Add(delta))
}

// ResolveVelocity applies an impulse to every approaching pair so that its
// separating velocity becomes -restitution times the approach speed.
func (m *Manager) ResolveVelocity() {
	for i := 0; i < m.count; i++ {
		c := &m.contacts[i]
		if c.Resolved || c.VelocityResolved {
			continue
		}

		relative := velocityOf(c.FirstBody)
		if !c.IsWall() {
			relative = relative.Sub(velocityOf(c.SecondBody))
		}
		separating := relative.Dot(c.ContactNormal)
		if separating > 0 {
			continue
		}

		moverA, invA := impulseInverseMass(c.FirstBody)
		moverB, invB := impulseInverseMass(c.SecondBody)
		total := invA + invB
		if total <= 0 {
			continue
		}

		target := -separating * c.Restitution
		impulse := (target - separating) / total
		perInvMass := c.ContactNormal.Scale(impulse)

		if invA > 0 {
			moverA.SetVelocity(moverA.Velocity().Add(perInvMass.Scale(invA)))
		}
		if invB > 0 {
			moverB.SetVelocity(moverB.Velocity().Add(perInvMass.Scale(-invB)))
		}
	}
}
