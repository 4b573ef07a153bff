package geometry

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jbeda/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestKeysTolerateJitter(t *testing.T) {
	assert.Equal(t, Key2(geom.Coord{X: 1, Y: 2}), Key2(geom.Coord{X: 1.000001, Y: 1.999999}))
	assert.Equal(t, "0.00000,0.00000", Key2(geom.Coord{X: -0.000001, Y: 0.000001}))
	assert.NotEqual(t, Key2(geom.Coord{X: 1, Y: 2}), Key2(geom.Coord{X: 1.0001, Y: 2}))
	assert.Equal(t, "0.50000,-0.50000,0.00000", Key3(r3.Vec{X: 0.5, Y: -0.5, Z: -0}))
}

func TestApply(t *testing.T) {
	m := mgl64.Translate3D(1, 2, 3).Mul4(mgl64.Scale3D(-1, 1, 1))
	got := Apply(m, r3.Vec{X: 1, Y: 1, Z: 1})
	assert.True(t, AlmostEqualsVec(r3.Vec{X: 0, Y: 3, Z: 4}, got), "got %v", got)

	c := Apply2(mgl64.HomogRotate3DZ(math.Pi/2), geom.Coord{X: 1, Y: 0})
	assert.True(t, AlmostEqualsCoord(geom.Coord{X: 0, Y: 1}, c), "got %v", c)
}

func TestSegmentsCross(t *testing.T) {
	a, b := geom.Coord{X: 0, Y: 0}, geom.Coord{X: 10, Y: 10}
	c, d := geom.Coord{X: 0, Y: 10}, geom.Coord{X: 10, Y: 0}
	assert.True(t, SegmentsCross(a, b, c, d))
	assert.False(t, SegmentsCross(a, c, b, d))

	p, ok := LineIntersection(a, b, c, d)
	require.True(t, ok)
	assert.True(t, AlmostEqualsCoord(geom.Coord{X: 5, Y: 5}, p))

	_, ok = LineIntersection(a, c, b, d)
	assert.False(t, ok, "parallel lines")

	assert.True(t, SharesEndpoint(a, b, b, d))
}

func TestConvexContains(t *testing.T) {
	tri := geom.Triangle{A: geom.Coord{X: 0, Y: 0}, B: geom.Coord{X: 10, Y: 0}, C: geom.Coord{X: 5, Y: 8}}
	assert.True(t, TriangleContains(tri, geom.Coord{X: 5, Y: 2}))
	assert.True(t, TriangleContains(tri, geom.Coord{X: 5, Y: 0}), "edge counts as inside")
	assert.False(t, TriangleContains(tri, geom.Coord{X: 0, Y: 5}))

	// winding must not matter
	rev := geom.Triangle{A: tri.C, B: tri.B, C: tri.A}
	assert.True(t, TriangleContains(rev, geom.Coord{X: 5, Y: 2}))
}

func TestRayIntersectBox(t *testing.T) {
	box := Cube(0.5)

	r := NewRay(r3.Vec{X: 2, Y: 0, Z: 0}, r3.Vec{X: -1, Y: 0, Z: 0})
	p, ok := r.IntersectBox(box)
	require.True(t, ok)
	assert.True(t, AlmostEqualsVec(r3.Vec{X: 0.5}, p), "got %v", p)

	inside := NewRay(r3.Vec{}, r3.Vec{X: 0, Y: 1, Z: 0})
	p, ok = inside.IntersectBox(box)
	require.True(t, ok)
	assert.True(t, AlmostEqualsVec(r3.Vec{Y: 0.5}, p), "exit point when starting inside, got %v", p)

	miss := NewRay(r3.Vec{X: 2, Y: 2, Z: 0}, r3.Vec{X: 0, Y: 1, Z: 0})
	_, ok = miss.IntersectBox(box)
	assert.False(t, ok)

	away := NewRay(r3.Vec{X: 2, Y: 0, Z: 0}, r3.Vec{X: 1, Y: 0, Z: 0})
	_, ok = away.IntersectBox(box)
	assert.False(t, ok)
}

func TestRayDistanceSqToPoint(t *testing.T) {
	r := NewRay(r3.Vec{}, r3.Vec{X: 1})
	assert.InDelta(t, 4.0, r.DistanceSqToPoint(r3.Vec{X: 5, Y: 2}), 1e-12)
	assert.InDelta(t, 1.0+4.0, r.DistanceSqToPoint(r3.Vec{X: -1, Y: 2}), 1e-12, "behind the origin")
}

func TestBowControl(t *testing.T) {
	_, ok := BowControl(geom.Coord{}, geom.Coord{X: 10}, 0)
	assert.False(t, ok)

	c, ok := BowControl(geom.Coord{}, geom.Coord{X: 10}, 0.5)
	require.True(t, ok)
	assert.True(t, AlmostEqualsCoord(geom.Coord{X: 5, Y: 5}, c), "got %v", c)
}

func TestConfigurationError(t *testing.T) {
	err := Invalid("subdivisions", 0, "must be at least 1")
	var ce *ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "subdivisions", ce.Field)
	assert.Contains(t, err.Error(), "must be at least 1")
}
