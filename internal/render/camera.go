package render

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/jbeda/geom"
	"gonum.org/v1/gonum/spatial/r3"

	"raumharmonik/internal/geometry"
)

// Camera is an orthographic view of the 3D scene onto a pixel viewport.
type Camera struct {
	Eye, Target, Up r3.Vec
	// HalfExtent is half the world-space width visible across the viewport.
	HalfExtent float64
	Viewport   geom.Rect

	viewProj mgl64.Mat4
	inverse  mgl64.Mat4
}

// DefaultCamera looks at the origin from (1.8, 1.8, 1.8).
func DefaultCamera(viewport geom.Rect) *Camera {
	return NewCamera(r3.Vec{X: 1.8, Y: 1.8, Z: 1.8}, r3.Vec{}, r3.Vec{Y: 1}, 1.1, viewport)
}

func NewCamera(eye, target, up r3.Vec, halfExtent float64, viewport geom.Rect) *Camera {
	c := &Camera{Eye: eye, Target: target, Up: up, HalfExtent: halfExtent, Viewport: viewport}
	view := mgl64.LookAtV(geometry.ToMgl(eye), geometry.ToMgl(target), geometry.ToMgl(up))
	e := halfExtent
	proj := mgl64.Ortho(-e, e, -e, e, 0.01, 100)
	c.viewProj = proj.Mul4(view)
	c.inverse = c.viewProj.Inv()
	return c
}

// Project maps a world point to viewport pixels, y growing downwards.
func (c *Camera) Project(p r3.Vec) geom.Coord {
	ndc := c.viewProj.Mul4x1(geometry.ToMgl(p).Vec4(1))
	w := c.Viewport.Width()
	h := c.Viewport.Height()
	return geom.Coord{
		X: c.Viewport.Min.X + (ndc[0]+1)/2*w,
		Y: c.Viewport.Min.Y + (1-ndc[1])/2*h,
	}
}

// Ray is the pick ray through a viewport pixel, starting on the near plane.
func (c *Camera) Ray(px geom.Coord) geometry.Ray {
	w := c.Viewport.Width()
	h := c.Viewport.Height()
	x := (px.X-c.Viewport.Min.X)/w*2 - 1
	y := 1 - (px.Y-c.Viewport.Min.Y)/h*2
	near := c.inverse.Mul4x1(mgl64.Vec4{x, y, -1, 1})
	origin := geometry.FromMgl(near.Vec3().Mul(1 / near[3]))
	return geometry.NewRay(origin, r3.Sub(c.Target, c.Eye))
}

// Depth is the distance of p in front of the eye along the view direction.
func (c *Camera) Depth(p r3.Vec) float64 {
	dir := r3.Unit(r3.Sub(c.Target, c.Eye))
	return r3.Dot(r3.Sub(p, c.Eye), dir)
}
