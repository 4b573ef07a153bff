// Package grid builds the base cell of a tessellation and the deterministic,
// id-stable lattice of nodes a motif is drawn on.
package grid

import (
	"math"
	"strings"

	"github.com/jbeda/geom"
	"gonum.org/v1/gonum/spatial/r3"

	"raumharmonik/internal/geometry"
)

// Shape is the closed set of tessellating base cells.
type Shape int

const (
	Triangle Shape = iota
	Square
	Hexagon
)

func (s Shape) String() string {
	switch s {
	case Triangle:
		return "triangle"
	case Square:
		return "square"
	case Hexagon:
		return "hexagon"
	default:
		return "unknown"
	}
}

// ParseShape maps a UI token to a Shape. "hex" is accepted for hexagon.
func ParseShape(token string) (Shape, error) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "triangle":
		return Triangle, nil
	case "square":
		return Square, nil
	case "hexagon", "hex":
		return Hexagon, nil
	}
	return 0, geometry.Invalid("shape", token, "expected triangle, square or hexagon")
}

// LatticePoint is a grid node. IDs start at 1 in generation order and are
// the identity motif segments refer to.
type LatticePoint struct {
	ID  int
	Pos r3.Vec
}

func (p LatticePoint) Coord() geom.Coord {
	return geometry.Coord(p.Pos)
}

func (p LatticePoint) Key() string {
	return geometry.Key3(p.Pos)
}

// Grid is the generated base cell.
type Grid struct {
	Shape        Shape
	Nodes        []LatticePoint
	Centroid     geom.Coord
	OuterCorners []geom.Coord
	// Side is the edge length of the cell, the unit the tilers step by.
	Side float64
}

// Generator produces the base cell for one shape.
type Generator interface {
	Generate(n int, f float64, bounds geom.Rect) Grid
}

// GeneratorFor returns the strategy for shape.
func GeneratorFor(shape Shape) (Generator, error) {
	switch shape {
	case Triangle:
		return triangleGenerator{}, nil
	case Square:
		return squareGenerator{}, nil
	case Hexagon:
		return hexagonGenerator{}, nil
	}
	return nil, geometry.Invalid("shape", int(shape), "unknown shape")
}

// Generate validates the parameters and builds the grid for shape with n
// subdivisions, scaled down by the size factor f and centred in bounds.
func Generate(shape Shape, n int, f float64, bounds geom.Rect) (Grid, error) {
	if err := Validate(n, f, bounds); err != nil {
		return Grid{}, err
	}
	gen, err := GeneratorFor(shape)
	if err != nil {
		return Grid{}, err
	}
	return gen.Generate(n, f, bounds), nil
}

// Validate checks the generator inputs without building anything.
func Validate(n int, f float64, bounds geom.Rect) error {
	if n < 1 {
		return geometry.Invalid("subdivisions", n, "must be at least 1")
	}
	if !(f > 0) || math.IsInf(f, 0) {
		return geometry.Invalid("size factor", f, "must be a positive number")
	}
	if !(bounds.Width() > 0) || !(bounds.Height() > 0) {
		return geometry.Invalid("bounds", bounds, "must have a positive area")
	}
	return nil
}

func canvasSize(bounds geom.Rect) float64 {
	return math.Min(bounds.Width(), bounds.Height())
}

func center(bounds geom.Rect) geom.Coord {
	return bounds.Min.Plus(bounds.Max).Times(0.5)
}

func lerp(a, b geom.Coord, t float64) geom.Coord {
	return a.Plus(b.Minus(a).Times(t))
}

func numbered(pts []geom.Coord) []LatticePoint {
	nodes := make([]LatticePoint, len(pts))
	for i, p := range pts {
		nodes[i] = LatticePoint{ID: i + 1, Pos: geometry.Lift(p)}
	}
	return nodes
}

// +++ triangle

type triangleGenerator struct{}

func (triangleGenerator) Generate(n int, f float64, bounds geom.Rect) Grid {
	side := canvasSize(bounds) / f
	h := side * math.Sqrt(3) / 2
	c := center(bounds)

	a := geom.Coord{X: c.X, Y: c.Y - h/2}
	b := geom.Coord{X: c.X - side/2, Y: c.Y + h/2}
	cc := geom.Coord{X: c.X + side/2, Y: c.Y + h/2}

	pts := make([]geom.Coord, 0, n*(n+1)/2)
	for i := 0; i < n; i++ {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		for j := 0; j <= i; j++ {
			s := 0.0
			if i > 0 {
				s = float64(j) / float64(i)
			}
			pts = append(pts, lerp(a, lerp(b, cc, s), t))
		}
	}

	corners := []geom.Coord{a, b, cc}
	return Grid{
		Shape:        Triangle,
		Nodes:        numbered(pts),
		Centroid:     geometry.Centroid(corners),
		OuterCorners: corners,
		Side:         side,
	}
}

// +++ square

type squareGenerator struct{}

func (squareGenerator) Generate(n int, f float64, bounds geom.Rect) Grid {
	side := canvasSize(bounds) / f
	c := center(bounds)
	start := c.Minus(geom.Coord{X: side / 2, Y: side / 2})
	step := 0.0
	if n > 1 {
		step = side / float64(n-1)
	}

	pts := make([]geom.Coord, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			pts = append(pts, start.Plus(geom.Coord{X: float64(j) * step, Y: float64(i) * step}))
		}
	}

	return Grid{
		Shape: Square,
		Nodes: numbered(pts),
		// centre of the cell, not of the nodes: a 1x1 grid sits in a corner
		Centroid: c,
		OuterCorners: []geom.Coord{
			start,
			start.Plus(geom.Coord{X: side}),
			start.Plus(geom.Coord{X: side, Y: side}),
			start.Plus(geom.Coord{Y: side}),
		},
		Side: side,
	}
}

// +++ hexagon

type hexagonGenerator struct{}

// HexCorners returns the flat-top hexagon of the given height whose bounding
// box is centred on c, clockwise from the top-left corner.
func HexCorners(c geom.Coord, height float64) []geom.Coord {
	side := height / math.Sqrt(3)
	top := c.Y - height/2
	r3h := math.Sqrt(3) / 2 * side
	return []geom.Coord{
		{X: c.X - side/2, Y: top},
		{X: c.X + side/2, Y: top},
		{X: c.X + side, Y: top + r3h},
		{X: c.X + side/2, Y: top + 2*r3h},
		{X: c.X - side/2, Y: top + 2*r3h},
		{X: c.X - side, Y: top + r3h},
	}
}

// hexRing is ring r of n: the outer corners scaled by r/n about the centroid
// followed by r-1 bridging points along each edge.
func hexRing(corners []geom.Coord, centroid geom.Coord, r, n int) []geom.Coord {
	scale := float64(r) / float64(n)
	ring := make([]geom.Coord, 6)
	for i, c := range corners {
		ring[i] = lerp(centroid, c, scale)
	}

	pts := make([]geom.Coord, 0, 6*r)
	pts = append(pts, ring...)
	for i := 0; i < 6; i++ {
		c1, c2 := ring[i], ring[(i+1)%6]
		for seg := 1; seg < r; seg++ {
			pts = append(pts, lerp(c1, c2, float64(seg)/float64(r)))
		}
	}
	return pts
}

func (hexagonGenerator) Generate(n int, f float64, bounds geom.Rect) Grid {
	height := canvasSize(bounds) / f
	corners := HexCorners(center(bounds), height)
	centroid := geometry.Centroid(corners)

	pts := make([]geom.Coord, 0, 3*n*(n+1)+1)
	for r := n; r >= 1; r-- {
		pts = append(pts, hexRing(corners, centroid, r, n)...)
	}
	pts = append(pts, centroid)

	return Grid{
		Shape:        Hexagon,
		Nodes:        numbered(pts),
		Centroid:     centroid,
		OuterCorners: corners,
		Side:         height / math.Sqrt(3),
	}
}

////////////////////////////////////////////////////////////////////////////
// 3D lattice

// Lattice returns n evenly spaced nodes per axis across box, x varying
// slowest. n = 1 yields the box centre.
func Lattice(n int, box geometry.Box) ([]LatticePoint, error) {
	if n < 1 {
		return nil, geometry.Invalid("lattice subdivisions", n, "must be at least 1")
	}
	size := box.Size()
	if size.X < 0 || size.Y < 0 || size.Z < 0 {
		return nil, geometry.Invalid("lattice box", box, "min must not exceed max")
	}

	at := func(i int, lo, extent float64) float64 {
		if n == 1 {
			return lo + extent/2
		}
		return lo + extent*float64(i)/float64(n-1)
	}

	nodes := make([]LatticePoint, 0, n*n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			for k := 0; k < n; k++ {
				nodes = append(nodes, LatticePoint{
					ID: len(nodes) + 1,
					Pos: r3.Vec{
						X: at(i, box.Min.X, size.X),
						Y: at(j, box.Min.Y, size.Y),
						Z: at(k, box.Min.Z, size.Z),
					},
				})
			}
		}
	}
	return nodes, nil
}
