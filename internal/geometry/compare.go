// Package geometry holds the small vector, ray and containment helpers shared
// by the grid, symmetry, tiling and topology packages.
//
// 2D values are github.com/jbeda/geom coordinates, 3D values are gonum r3
// vectors and affine transforms are mathgl 4x4 matrices.
package geometry

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jbeda/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

// Comparing floating point sucks. Good enough for pixel and unit-cube sized
// coordinates, nothing more.
const FLOAT_EQUAL_THRESH = 0.00000001

// KEY_PRECISION is the number of decimals kept when a value is used in a key.
const KEY_PRECISION = 5

func FloatAlmostEqual(a, b float64) bool {
	return math.Abs(a-b) < FLOAT_EQUAL_THRESH
}

func AlmostEqualsCoord(a, b geom.Coord) bool {
	return FloatAlmostEqual(a.X, b.X) && FloatAlmostEqual(a.Y, b.Y)
}

func AlmostEqualsVec(a, b r3.Vec) bool {
	return FloatAlmostEqual(a.X, b.X) && FloatAlmostEqual(a.Y, b.Y) && FloatAlmostEqual(a.Z, b.Z)
}

// Round rounds v to KEY_PRECISION decimals. Negative zero comes back as zero
// so that -0.000001 and 0.000001 share a key.
func Round(v float64) float64 {
	r := math.Round(v*1e5) / 1e5
	if r == 0 {
		return 0
	}
	return r
}

// Key2 is the canonical map key of a 2D point.
func Key2(c geom.Coord) string {
	return fmt.Sprintf("%.5f,%.5f", Round(c.X), Round(c.Y))
}

// Key3 is the canonical map key of a 3D point.
func Key3(v r3.Vec) string {
	return fmt.Sprintf("%.5f,%.5f,%.5f", Round(v.X), Round(v.Y), Round(v.Z))
}

// Coord drops the Z component.
func Coord(v r3.Vec) geom.Coord {
	return geom.Coord{X: v.X, Y: v.Y}
}

// Lift places a 2D point on the z = 0 plane.
func Lift(c geom.Coord) r3.Vec {
	return r3.Vec{X: c.X, Y: c.Y}
}

func ToMgl(v r3.Vec) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

func FromMgl(v mgl64.Vec3) r3.Vec {
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}
}

// Apply transforms a point by an affine matrix.
func Apply(m mgl64.Mat4, p r3.Vec) r3.Vec {
	return FromMgl(m.Mul4x1(ToMgl(p).Vec4(1)).Vec3())
}

// Apply2 transforms a 2D point by an affine matrix, treating it as z = 0.
func Apply2(m mgl64.Mat4, c geom.Coord) geom.Coord {
	return Coord(Apply(m, Lift(c)))
}

// Centroid is the mean of the given points.
func Centroid(pts []geom.Coord) geom.Coord {
	var c geom.Coord
	if len(pts) == 0 {
		return c
	}
	for _, p := range pts {
		c = c.Plus(p)
	}
	return c.Times(1 / float64(len(pts)))
}
