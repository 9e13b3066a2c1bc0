package collision

import (
	"math"

	"steerflow/internal/core"
)

// Narrow-phase tests. Each returns true when the shapes overlap and, in
// that case, writes ContactNormal and Penetration into c. The normal
// points from the second argument towards the first, i.e. the direction
// the first shape must move to separate.

// ShapeToShape dispatches on the concrete kinds of a and b. Unsupported
// combinations report no collision.
func ShapeToShape(a, b Shape, c *Contact) bool {
	switch sa := a.(type) {
	case *Disk:
		switch sb := b.(type) {
		case *Disk:
			return DiskToDisk(sa, sb, c)
		case *Box:
			return flipped(BoxToDisk(sb, sa, c), c)
		case *Polyline:
			return DiskToPolyline(sa, sb, c)
		}
	case *Box:
		switch sb := b.(type) {
		case *Disk:
			return BoxToDisk(sa, sb, c)
		case *Box, *Polyline:
			// Box/Box and Box/Polyline are not implemented.
			return false
		}
	case *Polyline:
		switch sb := b.(type) {
		case *Disk:
			return flipped(DiskToPolyline(sb, sa, c), c)
		case *Box, *Polyline:
			return false
		}
	}
	return false
}

// ShapeToLineSegment tests a shape against a world-space segment. The
// normal points from the segment towards the shape. Only disks are
// supported.
func ShapeToLineSegment(s Shape, seg Segment, c *Contact) bool {
	if d, ok := s.(*Disk); ok {
		return DiskToLineSegment(d, seg, c)
	}
	return false
}

func flipped(hit bool, c *Contact) bool {
	if hit {
		c.ContactNormal = c.ContactNormal.Neg()
	}
	return hit
}

// DiskToDisk reports overlap between two disks. Touching disks do not
// collide. Concentric disks separate along +X.
func DiskToDisk(a, b *Disk, c *Contact) bool {
	delta := a.Center().Sub(b.Center())
	dist := delta.Length()
	penetration := a.Radius() + b.Radius() - dist
	if penetration <= 0 {
		return false
	}

	if dist > core.Epsilon {
		c.ContactNormal = delta.Scale(1 / dist)
	} else {
		c.ContactNormal = core.Vector2D{X: 1}
	}
	c.Penetration = penetration
	return true
}

// DiskToLineSegment reports overlap between a disk and a segment. When the
// disk centre lies on the segment the normal is the segment's
// perpendicular (or +Y for a zero-length segment) and the penetration is
// the full radius.
func DiskToLineSegment(d *Disk, seg Segment, c *Contact) bool {
	center := d.Center()
	radius := d.Radius()

	delta := center.Sub(seg.ClosestPoint(center))
	dist := delta.Length()
	if dist >= radius {
		return false
	}

	if dist > core.Epsilon {
		c.ContactNormal = delta.Scale(1 / dist)
		c.Penetration = radius - dist
		return true
	}

	normal := seg.Direction().Perp().Normalize()
	if normal.IsZero() {
		normal = core.Vector2D{Y: 1}
	}
	c.ContactNormal = normal
	c.Penetration = radius
	return true
}

// DiskToPolyline reports the first segment of p, in order, that the disk
// overlaps. It is not the deepest contact.
func DiskToPolyline(d *Disk, p *Polyline, c *Contact) bool {
	for i := 0; i < p.Len(); i++ {
		if DiskToLineSegment(d, p.WorldSegment(i), c) {
			return true
		}
	}
	return false
}

// BoxToDisk treats the disk as an expanded box in the box's local frame
// and separates along the axis of least overlap. The normal points from
// the disk towards the box.
func BoxToDisk(box *Box, disk *Disk, c *Contact) bool {
	local := box.Transform().ToLocal(disk.Center())
	radius := disk.Radius()

	overlapX := box.halfWidth + radius - math.Abs(local.X)
	overlapY := box.halfHeight + radius - math.Abs(local.Y)
	if overlapX <= 0 || overlapY <= 0 {
		return false
	}

	t := box.Transform()
	if overlapX < overlapY {
		c.ContactNormal = t.Heading().Scale(-sign(local.X))
		c.Penetration = overlapX
	} else {
		c.ContactNormal = t.Side().Scale(-sign(local.Y))
		c.Penetration = overlapY
	}
	return true
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
