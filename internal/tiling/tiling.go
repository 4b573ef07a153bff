// Package tiling repeats a motif and its symmetry orbit across a periodic
// tessellation that covers a viewport.
package tiling

import (
	"iter"
	"math"

	"github.com/jbeda/geom"

	"raumharmonik/internal/grid"
)

// MARGIN_TILES is how far the tile range reaches past the viewport on every
// side.
const MARGIN_TILES = 2

// Placement is one tile of the tessellation. A point p of the base cell
// lands at Center + (p - centroid), or Center - (p - centroid) when Flip is
// set (the point reflection used by down-pointing triangles).
type Placement struct {
	Center   geom.Coord
	Flip     bool
	Row, Col int
}

// Place maps an offset from the base cell centroid into this tile.
func (p Placement) Place(rel geom.Coord) geom.Coord {
	if p.Flip {
		return p.Center.Minus(rel)
	}
	return p.Center.Plus(rel)
}

// Tiler lays out the tiles of one shape.
type Tiler interface {
	Tiles(g grid.Grid, viewport geom.Rect) iter.Seq[Placement]
}

func TilerFor(shape grid.Shape) Tiler {
	switch shape {
	case grid.Triangle:
		return triangleTiler{}
	case grid.Square:
		return squareTiler{}
	case grid.Hexagon:
		return hexagonTiler{}
	}
	return nil
}

// Tile returns the placements of g covering viewport. Unknown shapes yield
// nothing.
func Tile(g grid.Grid, viewport geom.Rect) iter.Seq[Placement] {
	t := TilerFor(g.Shape)
	if t == nil || !(g.Side > 0) {
		return func(func(Placement) bool) {}
	}
	return t.Tiles(g, viewport)
}

// TilePolygon is the outline of the tile at p.
func TilePolygon(g grid.Grid, p Placement) []geom.Coord {
	out := make([]geom.Coord, len(g.OuterCorners))
	for i, c := range g.OuterCorners {
		out[i] = p.Place(c.Minus(g.Centroid))
	}
	return out
}

// span returns the index range of steps of size step from origin that
// covers [lo, hi] plus the margin.
func span(origin, step, lo, hi float64) (int, int) {
	first := int(math.Floor((lo-origin)/step)) - MARGIN_TILES
	last := int(math.Ceil((hi-origin)/step)) + MARGIN_TILES
	return first, last
}

func odd(i int) bool {
	return i&1 != 0
}

// +++ triangle

// Up-pointing triangles sit on rows of height sqrt(3)/2*side, every other
// row shifted right by half a side. The down-pointing triangle to the right
// of each one is the same cell turned 180 degrees about its own centroid.
type triangleTiler struct{}

func (triangleTiler) Tiles(g grid.Grid, viewport geom.Rect) iter.Seq[Placement] {
	s := g.Side
	h := s * math.Sqrt(3) / 2
	apex := g.OuterCorners[0]
	r0, r1 := span(apex.Y, h, viewport.Min.Y, viewport.Max.Y)
	c0, c1 := span(apex.X, s, viewport.Min.X, viewport.Max.X)

	return func(yield func(Placement) bool) {
		for row := r0; row <= r1; row++ {
			for col := c0; col <= c1; col++ {
				a := geom.Coord{X: apex.X + float64(col)*s, Y: apex.Y + float64(row)*h}
				if odd(row) {
					a.X += s / 2
				}
				up := Placement{Center: a.Plus(geom.Coord{Y: 2 * h / 3}), Row: row, Col: 2 * col}
				if !yield(up) {
					return
				}
				down := Placement{Center: a.Plus(geom.Coord{X: s / 2, Y: h / 3}), Flip: true, Row: row, Col: 2*col + 1}
				if !yield(down) {
					return
				}
			}
		}
	}
}

// +++ square

type squareTiler struct{}

func (squareTiler) Tiles(g grid.Grid, viewport geom.Rect) iter.Seq[Placement] {
	s := g.Side
	c := g.Centroid
	r0, r1 := span(c.Y, s, viewport.Min.Y, viewport.Max.Y)
	c0, c1 := span(c.X, s, viewport.Min.X, viewport.Max.X)

	return func(yield func(Placement) bool) {
		for row := r0; row <= r1; row++ {
			for col := c0; col <= c1; col++ {
				p := Placement{
					Center: c.Plus(geom.Coord{X: float64(col) * s, Y: float64(row) * s}),
					Row:    row,
					Col:    col,
				}
				if !yield(p) {
					return
				}
			}
		}
	}
}

// +++ hexagon

// Flat-top hexagons in columns 1.5*side apart, rows sqrt(3)*side apart, odd
// columns pushed down by half a row.
type hexagonTiler struct{}

func (hexagonTiler) Tiles(g grid.Grid, viewport geom.Rect) iter.Seq[Placement] {
	s := g.Side
	w := 1.5 * s
	h := math.Sqrt(3) * s
	c := g.Centroid
	r0, r1 := span(c.Y, h, viewport.Min.Y, viewport.Max.Y)
	c0, c1 := span(c.X, w, viewport.Min.X, viewport.Max.X)

	return func(yield func(Placement) bool) {
		for col := c0; col <= c1; col++ {
			for row := r0; row <= r1; row++ {
				center := c.Plus(geom.Coord{X: float64(col) * w, Y: float64(row) * h})
				if odd(col) {
					center.Y += h / 2
				}
				if !yield(Placement{Center: center, Row: row, Col: col}) {
					return
				}
			}
		}
	}
}
