package geometry

import (
	"math"

	"github.com/jbeda/geom"
)

// MIN_CURVE is the bow below which a connection is drawn straight.
const MIN_CURVE = 0.0001

// BowControl returns the control point of a quadratic Bezier from p1 to p2
// bowed along the left normal by curve times the segment length. ok is
// false when the result would be a straight line (tiny curve or degenerate
// segment).
func BowControl(p1, p2 geom.Coord, curve float64) (ctrl geom.Coord, ok bool) {
	if math.Abs(curve) < MIN_CURVE {
		return geom.Coord{}, false
	}
	d := p2.Minus(p1)
	length := d.Magnitude()
	if length < MIN_CURVE {
		return geom.Coord{}, false
	}
	n := geom.Coord{X: -d.Y, Y: d.X}.Times(1 / length)
	mid := p1.Plus(p2).Times(0.5)
	return mid.Plus(n.Times(length * curve)), true
}
