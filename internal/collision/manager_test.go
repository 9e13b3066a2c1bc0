package collision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"steerflow/internal/core"
)

type testBody struct {
	id        uint64
	typ       core.EntityType
	transform core.Transform
	shape     Shape
	invMass   float64
	velocity  core.Vector2D
}

func newDiskBody(id uint64, typ core.EntityType, x, y, radius, invMass float64) *testBody {
	b := &testBody{id: id, typ: typ, invMass: invMass}
	b.transform = core.NewTransform(core.Vector2D{X: x, Y: y}, core.Vector2D{X: 1})
	b.shape = NewDisk(&b.transform, radius)
	return b
}

func (b *testBody) ID() uint64                  { return b.id }
func (b *testBody) Type() core.EntityType       { return b.typ }
func (b *testBody) Position() core.Vector2D     { return b.transform.Position }
func (b *testBody) SetPosition(p core.Vector2D) { b.transform.Position = p }
func (b *testBody) InverseMass() float64        { return b.invMass }
func (b *testBody) Shape() Shape                { return b.shape }
func (b *testBody) Velocity() core.Vector2D     { return b.velocity }
func (b *testBody) SetVelocity(v core.Vector2D) { b.velocity = v }
func (b *testBody) BoundingRadius() float64 {
	if b.shape == nil {
		return 0
	}
	return b.shape.Radius()
}

func bodies(bs ...*testBody) []Body {
	out := make([]Body, len(bs))
	for i, b := range bs {
		out[i] = b
	}
	return out
}

func TestManagerContactOrdering(t *testing.T) {
	cases := []struct {
		name     string
		obstacle uint64
		vehicle  uint64
	}{
		{name: "obstacle has higher id", obstacle: 2, vehicle: 1},
		{name: "obstacle has lower id", obstacle: 1, vehicle: 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			obstacle := newDiskBody(tc.obstacle, core.EntityTypeObstacle, 0, 0, 1, 0)
			vehicle := newDiskBody(tc.vehicle, core.EntityTypeVehicle, 1.2, 0.9, 1, 1)

			m := NewManager(8)
			m.AccumulateContacts(bodies(obstacle, vehicle))

			contacts := m.Contacts()
			require.Len(t, contacts, 1)
			c := contacts[0]
			assert.Same(t, obstacle, c.FirstBody)
			assert.Same(t, vehicle, c.SecondBody)
			assert.InDelta(t, 0.5, c.Penetration, tol)
			assert.Equal(t, DefaultRestitution, c.Restitution)

			want := c.FirstBody.Position().Sub(c.SecondBody.Position()).Normalize()
			assertVec(t, want, c.ContactNormal)
		})
	}
}

func TestManagerSkipsZeroRadius(t *testing.T) {
	a := newDiskBody(1, core.EntityTypeVehicle, 0, 0, 1, 1)
	b := newDiskBody(2, core.EntityTypeVehicle, 0, 0, 0, 1)
	c := &testBody{id: 3, typ: core.EntityTypeVehicle}

	m := NewManager(8)
	m.AccumulateContacts(bodies(a, b, c))
	m.AccumulateWallContacts(bodies(b, c), []Segment{{A: core.Vector2D{X: -1}, B: core.Vector2D{X: 1}}})
	assert.Empty(t, m.Contacts())
}

func TestManagerCapacity(t *testing.T) {
	var bs []*testBody
	for id := uint64(1); id <= 4; id++ {
		bs = append(bs, newDiskBody(id, core.EntityTypeVehicle, float64(id)*0.1, 0, 1, 1))
	}

	m := NewManager(2)
	m.AccumulateContacts(bodies(bs...))
	assert.Len(t, m.Contacts(), 2)
	assert.Equal(t, 4, m.Dropped())

	m.AccumulateWallContacts(bodies(bs...), []Segment{{A: core.Vector2D{X: -5}, B: core.Vector2D{X: 5}}})
	assert.Len(t, m.Contacts(), 2)
	assert.Equal(t, 8, m.Dropped())

	m.Clear()
	assert.Empty(t, m.Contacts())
	assert.Zero(t, m.Dropped())
	assert.Equal(t, 2, m.Capacity())
}

func TestManagerIgnoreRules(t *testing.T) {
	vehicle := newDiskBody(1, core.EntityTypeVehicle, 0, 0, 1, 1)
	pickup := newDiskBody(2, core.EntityTypePickup, 0.5, 0, 1, 1)
	other := newDiskBody(3, core.EntityTypeVehicle, 0, 0.5, 1, 1)
	wall := newDiskBody(4, core.EntityTypeObstacle, -0.5, 0, 1, 0)

	m := NewManager(16)
	m.Ignore(core.EntityTypeVehicle | core.EntityTypePickup)
	m.IgnorePair(4, 3)

	assert.True(t, m.IsIgnored(vehicle, pickup))
	assert.True(t, m.IsIgnored(pickup, vehicle))
	assert.False(t, m.IsIgnored(vehicle, other))
	assert.True(t, m.IsIgnored(other, wall))
	assert.False(t, m.IsIgnored(vehicle, wall))

	m.AccumulateContacts(bodies(vehicle, pickup, other, wall))
	// vehicle/other, vehicle/wall and pickup/wall survive.
	assert.Len(t, m.Contacts(), 3)

	m.UnignorePair(3, 4)
	assert.False(t, m.IsIgnored(other, wall))
}

func TestManagerIgnoreSingleType(t *testing.T) {
	m := NewManager(4)
	m.Ignore(core.EntityTypePickup)

	a := newDiskBody(1, core.EntityTypePickup, 0, 0, 1, 1)
	b := newDiskBody(2, core.EntityTypeVehicle, 0, 0, 1, 1)
	c := newDiskBody(3, core.EntityTypeVehicle, 0, 0, 1, 1)
	assert.True(t, m.IsIgnored(a, b))
	assert.False(t, m.IsIgnored(b, c))
}

func TestPairKey(t *testing.T) {
	assert.Equal(t, uint64(1)<<32|2, pairKey(1, 2))
	assert.Equal(t, pairKey(1, 2), pairKey(2, 1))
	assert.NotEqual(t, pairKey(1, 2), pairKey(1, 3))
}

func TestResolveContactsMassSplit(t *testing.T) {
	a := newDiskBody(1, core.EntityTypeVehicle, 0, 0, 1, 1)
	b := newDiskBody(2, core.EntityTypeVehicle, 1.5, 0, 1, 3)

	m := NewManager(4)
	m.AccumulateContacts(bodies(a, b))
	require.Len(t, m.Contacts(), 1)

	m.ResolveContacts()
	assertVec(t, core.Vector2D{X: -0.125}, a.Position())
	assertVec(t, core.Vector2D{X: 1.875}, b.Position())
	assert.InDelta(t, 2.0, a.Position().Distance(b.Position()), tol)
}

func TestResolveContactsStaticBodies(t *testing.T) {
	static := newDiskBody(1, core.EntityTypeObstacle, 0, 0, 1, 0)
	mover := newDiskBody(2, core.EntityTypeVehicle, 1.5, 0, 1, 2)
	frozen := newDiskBody(3, core.EntityTypeObstacle, 0, -1.5, 1, 0)

	m := NewManager(4)
	m.AccumulateContacts(bodies(static, mover, frozen))
	m.ResolveContacts()

	assertVec(t, core.Vector2D{}, static.Position())
	assertVec(t, core.Vector2D{X: 2}, mover.Position())
	assertVec(t, core.Vector2D{Y: -1.5}, frozen.Position())
}

func TestResolveVelocity(t *testing.T) {
	a := newDiskBody(1, core.EntityTypeVehicle, 0, 0, 1, 1)
	b := newDiskBody(2, core.EntityTypeVehicle, 1.5, 0, 1, 1)
	a.velocity = core.Vector2D{X: 1}
	b.velocity = core.Vector2D{X: -1}

	m := NewManager(4)
	m.AccumulateContacts(bodies(a, b))
	m.ResolveVelocity()

	assertVec(t, core.Vector2D{X: -0.5}, a.velocity)
	assertVec(t, core.Vector2D{X: 0.5}, b.velocity)

	// Already separating: the second pass must not change anything.
	m.ResolveVelocity()
	assertVec(t, core.Vector2D{X: -0.5}, a.velocity)
	assertVec(t, core.Vector2D{X: 0.5}, b.velocity)
}

func TestResolveVelocityInelastic(t *testing.T) {
	a := newDiskBody(1, core.EntityTypeVehicle, 0, 0, 1, 1)
	b := newDiskBody(2, core.EntityTypeObstacle, 1.5, 0, 1, 0)
	a.velocity = core.Vector2D{X: 2, Y: 1}

	m := NewManager(4, WithRestitution(0))
	m.AccumulateContacts(bodies(a, b))
	m.ResolveVelocity()
	m.ResolveVelocity()

	assertVec(t, core.Vector2D{Y: 1}, a.velocity)
	assertVec(t, core.Vector2D{}, b.velocity)
}

func TestWallContactResolution(t *testing.T) {
	disk := newDiskBody(1, core.EntityTypeVehicle, 0, 0.5, 1, 1)
	disk.velocity = core.Vector2D{Y: -2}
	wall := Segment{A: core.Vector2D{X: -10}, B: core.Vector2D{X: 10}}

	m := NewManager(4)
	m.AccumulateWallContacts(bodies(disk), []Segment{wall})

	contacts := m.Contacts()
	require.Len(t, contacts, 1)
	assert.True(t, contacts[0].IsWall())
	assert.InDelta(t, 0.5, contacts[0].Penetration, tol)

	m.ResolveContacts()
	assertVec(t, core.Vector2D{Y: 1}, disk.Position())

	m.ResolveVelocity()
	assertVec(t, core.Vector2D{Y: 1}, disk.velocity)
}

func TestRaiseContactEventsAndResolvedFlags(t *testing.T) {
	a := newDiskBody(1, core.EntityTypeVehicle, 0, 0, 1, 1)
	b := newDiskBody(2, core.EntityTypeVehicle, 1.5, 0, 1, 1)
	a.velocity = core.Vector2D{X: 1}

	m := NewManager(4)
	m.AccumulateContacts(bodies(a, b))

	var seen int
	m.RaiseContactEvents(ContactListenerFunc(func(c *Contact) {
		seen++
		c.Resolved = true
	}))
	assert.Equal(t, 1, seen)

	// Resolved contacts are still raised.
	m.RaiseContactEvents(ContactListenerFunc(func(c *Contact) {
		seen++
		assert.True(t, c.Resolved)
	}))
	assert.Equal(t, 2, seen)
	m.RaiseContactEvents(nil)

	m.ResolveContacts()
	m.ResolveVelocity()
	assertVec(t, core.Vector2D{}, a.Position())
	assertVec(t, core.Vector2D{X: 1}, a.velocity)
}

func TestVelocityResolvedSkipsImpulseOnly(t *testing.T) {
	a := newDiskBody(1, core.EntityTypeVehicle, 0, 0, 1, 1)
	b := newDiskBody(2, core.EntityTypeVehicle, 1.5, 0, 1, 1)
	a.velocity = core.Vector2D{X: 1}

	m := NewManager(4)
	m.AccumulateContacts(bodies(a, b))
	m.RaiseContactEvents(ContactListenerFunc(func(c *Contact) {
		c.VelocityResolved = true
	}))

	m.ResolveContacts()
	m.ResolveVelocity()
	assertVec(t, core.Vector2D{X: -0.25}, a.Position())
	assertVec(t, core.Vector2D{X: 1}, a.velocity)
}

func BenchmarkAccumulateContacts(b *testing.B) {
	var bs []*testBody
	for i := 0; i < 500; i++ {
		bs = append(bs, newDiskBody(uint64(i+1), core.EntityTypeVehicle, float64(i%25)*1.5, float64(i/25)*1.5, 1, 1))
	}
	all := bodies(bs...)
	m := NewManager(4096)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Clear()
		m.AccumulateContacts(all)
	}
}
