package geometry

import "github.com/jbeda/geom"

// cross of (b-a) x (c-a).
func cross(a, b, c geom.Coord) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// TriangleContains reports whether p lies inside or on the edge of t,
// whatever its winding.
func TriangleContains(t geom.Triangle, p geom.Coord) bool {
	return ConvexContains([]geom.Coord{t.A, t.B, t.C}, p)
}

// ConvexContains reports whether p lies inside or on the boundary of the
// convex polygon poly. A small tolerance keeps points on shared edges inside
// both neighbours.
func ConvexContains(poly []geom.Coord, p geom.Coord) bool {
	if len(poly) < 3 {
		return false
	}
	const eps = 1e-6
	pos, neg := false, false
	for i := range poly {
		c := cross(poly[i], poly[(i+1)%len(poly)], p)
		if c > eps {
			pos = true
		} else if c < -eps {
			neg = true
		}
		if pos && neg {
			return false
		}
	}
	return true
}

// BoundsOf is the bounding rect of pts.
func BoundsOf(pts ...geom.Coord) geom.Rect {
	r := geom.NilRect()
	for _, p := range pts {
		r.ExpandToContainCoord(p)
	}
	return r
}

// RectsOverlap reports whether a and b share any point, edges included.
func RectsOverlap(a, b geom.Rect) bool {
	return a.Min.X <= b.Max.X && b.Min.X <= a.Max.X &&
		a.Min.Y <= b.Max.Y && b.Min.Y <= a.Max.Y
}
