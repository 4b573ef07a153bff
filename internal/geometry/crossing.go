package geometry

import (
	"math"

	"github.com/jbeda/geom"
)

// orientation of the ordered triple (p, q, r): 0 colinear, 1 clockwise,
// 2 counterclockwise.
func orientation(p, q, r geom.Coord) int {
	val := (q.Y-p.Y)*(r.X-q.X) - (q.X-p.X)*(r.Y-q.Y)
	if math.Abs(val) < FLOAT_EQUAL_THRESH {
		return 0
	}
	if val > 0 {
		return 1
	}
	return 2
}

// onSegment reports whether q lies in the bounding box of pr. Only meaningful
// when p, q, r are colinear.
func onSegment(p, q, r geom.Coord) bool {
	return q.X <= math.Max(p.X, r.X) && q.X >= math.Min(p.X, r.X) &&
		q.Y <= math.Max(p.Y, r.Y) && q.Y >= math.Min(p.Y, r.Y)
}

// SegmentsCross reports whether segment p1p2 touches or crosses p3p4.
func SegmentsCross(p1, p2, p3, p4 geom.Coord) bool {
	o1 := orientation(p1, p2, p3)
	o2 := orientation(p1, p2, p4)
	o3 := orientation(p3, p4, p1)
	o4 := orientation(p3, p4, p2)

	// General case
	if o1 != o2 && o3 != o4 {
		return true
	}

	// Special cases
	if o1 == 0 && onSegment(p1, p3, p2) {
		return true
	}
	if o2 == 0 && onSegment(p1, p4, p2) {
		return true
	}
	if o3 == 0 && onSegment(p3, p1, p4) {
		return true
	}
	if o4 == 0 && onSegment(p3, p2, p4) {
		return true
	}
	return false
}

// LineIntersection returns the intersection of the infinite lines through
// p1p2 and p3p4. ok is false for parallel lines.
func LineIntersection(p1, p2, p3, p4 geom.Coord) (geom.Coord, bool) {
	d1 := p2.Minus(p1)
	d2 := p4.Minus(p3)
	den := d1.X*d2.Y - d1.Y*d2.X
	if math.Abs(den) < FLOAT_EQUAL_THRESH {
		return geom.Coord{}, false
	}
	w := p3.Minus(p1)
	t := (w.X*d2.Y - w.Y*d2.X) / den
	return p1.Plus(d1.Times(t)), true
}

// SharesEndpoint reports whether the two segments meet at an endpoint.
// Lines drawn between lattice nodes touch all the time; those are not
// crossings.
func SharesEndpoint(p1, p2, p3, p4 geom.Coord) bool {
	return AlmostEqualsCoord(p1, p3) || AlmostEqualsCoord(p1, p4) ||
		AlmostEqualsCoord(p2, p3) || AlmostEqualsCoord(p2, p4)
}
