package tiling

import (
	"io"
	"log"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jbeda/geom"
	"github.com/jbeda/geom/qtree"

	"raumharmonik/internal/geometry"
	"raumharmonik/internal/grid"
)

// +++ Line

// Line is a drawn segment. Directed lines only match lines running the same
// way, which matters once they are drawn bowed.
type Line struct {
	A, B     geom.Coord
	directed bool
}

func AlmostEqualsLines(a, b Line) bool {
	if geometry.AlmostEqualsCoord(a.A, b.A) && geometry.AlmostEqualsCoord(a.B, b.B) {
		return true
	}
	return !a.directed && geometry.AlmostEqualsCoord(a.A, b.B) && geometry.AlmostEqualsCoord(a.B, b.A)
}

func (l Line) Equals(oi interface{}) bool {
	ol, ok := oi.(Line)
	return ok && AlmostEqualsLines(l, ol)
}

func (l Line) Bounds() geom.Rect {
	return geometry.BoundsOf(l.A, l.B)
}

// Dedup removes lines equal within tolerance, keeping the first of each in
// input order.
func Dedup(lines []Line) []Line {
	if len(lines) == 0 {
		return nil
	}
	allBounds := geom.NilRect()
	for _, l := range lines {
		allBounds.ExpandToContainRect(l.Bounds())
	}
	// keep the root cell from collapsing for a lone axis-aligned line
	pad := geom.Coord{X: 1, Y: 1}
	allBounds = geom.Rect{Min: allBounds.Min.Minus(pad), Max: allBounds.Max.Plus(pad)}

	qt := qtree.New(qtree.ConfigDefault(), allBounds)
	for _, l := range lines {
		qt.FindOrInsert(l)
	}

	col := make(map[qtree.Item]bool)
	qt.Enumerate(col)
	out := make([]Line, 0, len(col))
	emitted := make(map[Line]bool, len(col))
	for _, l := range lines {
		if col[l] && !emitted[l] {
			emitted[l] = true
			out = append(out, l)
		}
	}
	return out
}

// Options tune Replicate.
type Options struct {
	// Directed keeps lines that only differ in direction apart.
	Directed bool
	Logger   *log.Logger
}

// Orbit applies every transform to every segment, relative to the base cell
// centroid, and drops the duplicates. Segments are given as base cell
// coordinates.
func Orbit(g grid.Grid, segments [][2]geom.Coord, transforms []mgl64.Mat4, directed bool) []Line {
	lines := make([]Line, 0, len(segments)*len(transforms))
	for _, m := range transforms {
		for _, s := range segments {
			lines = append(lines, Line{
				A:        geometry.Apply2(m, s[0].Minus(g.Centroid)),
				B:        geometry.Apply2(m, s[1].Minus(g.Centroid)),
				directed: directed,
			})
		}
	}
	return Dedup(lines)
}

// Replicate draws the orbit of segments into every tile covering viewport.
// Lines entirely outside the viewport are culled and duplicates where
// neighbouring tiles meet are removed.
func Replicate(g grid.Grid, segments [][2]geom.Coord, transforms []mgl64.Mat4, viewport geom.Rect, opt Options) []Line {
	l := opt.Logger
	if l == nil {
		l = log.New(io.Discard, "", 0)
	}

	orbit := Orbit(g, segments, transforms, opt.Directed)
	var lines []Line
	tiles := 0
	for p := range Tile(g, viewport) {
		tiles++
		for _, o := range orbit {
			line := Line{A: p.Place(o.A), B: p.Place(o.B), directed: opt.Directed}
			if geometry.RectsOverlap(line.Bounds(), viewport) {
				lines = append(lines, line)
			}
		}
	}

	l.Printf("Number of tiles: %d, lines per tile: %d", tiles, len(orbit))
	l.Printf("Number of lines before dedup: %d", len(lines))
	lines = Dedup(lines)
	l.Printf("Number of lines after dedup: %d", len(lines))
	return lines
}
