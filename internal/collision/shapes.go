package collision

import (
	"math"

	"steerflow/internal/core"
)

// ShapeKind identifies the concrete variant behind a Shape.
type ShapeKind uint8

const (
	KindNone ShapeKind = iota
	KindDisk
	KindBox
	KindPolyline
)

func (k ShapeKind) String() string {
	switch k {
	case KindDisk:
		return "disk"
	case KindBox:
		return "box"
	case KindPolyline:
		return "polyline"
	default:
		return "none"
	}
}

// Shape is the closed set of collision geometries. Every shape reads its
// pose from a transform owned by the body it belongs to.
type Shape interface {
	Kind() ShapeKind
	// Radius is the radius of a circle centred on the transform origin
	// that encloses the whole shape.
	Radius() float64
	Transform() *core.Transform
}

// KindOf reports the kind of s, treating nil as KindNone.
func KindOf(s Shape) ShapeKind {
	if s == nil {
		return KindNone
	}
	return s.Kind()
}

// Segment is a line segment in world space.
type Segment struct {
	A, B core.Vector2D
}

// Direction returns B - A.
func (s Segment) Direction() core.Vector2D {
	return s.B.Sub(s.A)
}

// ClosestPoint returns the point on the segment nearest to p.
func (s Segment) ClosestPoint(p core.Vector2D) core.Vector2D {
	ab := s.Direction()
	lenSq := ab.LengthSq()
	if lenSq < core.Epsilon {
		return s.A
	}
	t := p.Sub(s.A).Dot(ab) / lenSq
	t = max(0, min(1, t))
	return s.A.Add(ab.Scale(t))
}

// Disk is a circle centred on its transform position.
type Disk struct {
	transform *core.Transform
	radius    float64
}

func NewDisk(t *core.Transform, radius float64) *Disk {
	return &Disk{transform: t, radius: radius}
}

func (d *Disk) Kind() ShapeKind            { return KindDisk }
func (d *Disk) Radius() float64            { return d.radius }
func (d *Disk) Transform() *core.Transform { return d.transform }
func (d *Disk) Center() core.Vector2D      { return d.transform.Position }
func (d *Disk) SetRadius(radius float64)   { d.radius = radius }

// Box is an oriented rectangle. HalfWidth runs along the transform heading,
// HalfHeight along its side.
type Box struct {
	transform  *core.Transform
	halfWidth  float64
	halfHeight float64
}

func NewBox(t *core.Transform, halfWidth, halfHeight float64) *Box {
	return &Box{transform: t, halfWidth: halfWidth, halfHeight: halfHeight}
}

func (b *Box) Kind() ShapeKind            { return KindBox }
func (b *Box) Transform() *core.Transform { return b.transform }
func (b *Box) HalfExtents() (float64, float64) {
	return b.halfWidth, b.halfHeight
}

func (b *Box) Radius() float64 {
	return math.Hypot(b.halfWidth, b.halfHeight)
}

// Polyline is a chain of segments expressed in the local space of its
// transform.
type Polyline struct {
	transform *core.Transform
	segments  []Segment
	radius    float64
}

// NewPolyline builds a polyline from local-space segments.
func NewPolyline(t *core.Transform, segments []Segment) *Polyline {
	p := &Polyline{transform: t, segments: segments}
	for _, s := range segments {
		p.radius = max(p.radius, s.A.Length(), s.B.Length())
	}
	return p
}

// PolylineFromPoints connects consecutive local-space points, closing the
// loop when closed is true.
func PolylineFromPoints(t *core.Transform, points []core.Vector2D, closed bool) *Polyline {
	var segments []Segment
	for i := 1; i < len(points); i++ {
		segments = append(segments, Segment{A: points[i-1], B: points[i]})
	}
	if closed && len(points) > 2 {
		segments = append(segments, Segment{A: points[len(points)-1], B: points[0]})
	}
	return NewPolyline(t, segments)
}

func (p *Polyline) Kind() ShapeKind            { return KindPolyline }
func (p *Polyline) Radius() float64            { return p.radius }
func (p *Polyline) Transform() *core.Transform { return p.transform }
func (p *Polyline) Len() int                   { return len(p.segments) }

// WorldSegment returns segment i transformed into world space.
func (p *Polyline) WorldSegment(i int) Segment {
	s := p.segments[i]
	return Segment{
		A: p.transform.ToWorld(s.A),
		B: p.transform.ToWorld(s.B),
	}
}
