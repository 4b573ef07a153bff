package symmetry

import (
	"math"
	"strings"

	"raumharmonik/internal/geometry"
)

// MaxRawTransforms bounds the number of raw combinations one configuration
// may generate before deduplication. Setters reject anything above it.
const MaxRawTransforms = 10000

// Axis selects a rotation, translation or screw axis.
type Axis int

const (
	AxisNone Axis = iota
	AxisX
	AxisY
	AxisZ
	// AxisAll applies independently along x, y and z.
	AxisAll
)

var axisNames = []string{"none", "x", "y", "z", "all"}

func (a Axis) String() string {
	if a < AxisNone || a > AxisAll {
		return "unknown"
	}
	return axisNames[a]
}

func ParseAxis(token string) (Axis, error) {
	t := strings.ToLower(strings.TrimSpace(token))
	if t == "" {
		return AxisNone, nil
	}
	for i, name := range axisNames {
		if name == t {
			return Axis(i), nil
		}
	}
	return AxisNone, geometry.Invalid("axis", token, "expected none, x, y, z or all")
}

// axes expands a selector into the concrete axes it stands for.
func (a Axis) axes() []Axis {
	switch a {
	case AxisX, AxisY, AxisZ:
		return []Axis{a}
	case AxisAll:
		return []Axis{AxisX, AxisY, AxisZ}
	}
	return nil
}

// Plane is one of the three principal mirror planes.
type Plane int

const (
	PlaneXY Plane = iota
	PlaneYZ
	PlaneZX
)

// Planes lists the mirror planes in the order reflections are expanded.
var Planes = []Plane{PlaneXY, PlaneYZ, PlaneZX}

var planeNames = []string{"xy", "yz", "zx"}

func (p Plane) String() string {
	if p < PlaneXY || p > PlaneZX {
		return "unknown"
	}
	return planeNames[p]
}

func ParsePlane(token string) (Plane, error) {
	t := strings.ToLower(strings.TrimSpace(token))
	for i, name := range planeNames {
		if name == t {
			return Plane(i), nil
		}
	}
	return PlaneXY, geometry.Invalid("plane", token, "expected xy, yz or zx")
}

type Rotation struct {
	Axis Axis
	Fold int
}

type Translation struct {
	Axis  Axis
	Count int
	Step  float64
}

// Rotoreflection rotates by Angle*i about Axis, then mirrors in Plane, for
// i in [1, Count].
type Rotoreflection struct {
	Enabled  bool
	Axis     Axis
	Plane    Plane
	AngleDeg float64
	Count    int
}

// Screw rotates by Angle*i about Axis while moving Distance*i along it, in
// both directions, for i in [1, Count].
type Screw struct {
	Enabled  bool
	Axis     Axis
	AngleDeg float64
	Distance float64
	Count    int
}

// Config is the declarative symmetry state of a scene. The zero value is the
// trivial group.
type Config struct {
	Reflections    [3]bool // indexed by Plane
	Rotation       Rotation
	Translation    Translation
	Inversion      bool
	Rotoreflection Rotoreflection
	Screw          Screw
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func validAxis(a Axis) bool {
	return a >= AxisNone && a <= AxisAll
}

// Normalize validates c and returns it with dependent counts forced to zero
// where an axis is none. c itself is never changed.
func (c Config) Normalize() (Config, error) {
	r := &c.Rotation
	if !validAxis(r.Axis) {
		return c, geometry.Invalid("rotation axis", int(r.Axis), "unknown axis")
	}
	if r.Axis == AxisNone {
		r.Fold = 0
	} else if r.Fold < 1 {
		return c, geometry.Invalid("rotation fold", r.Fold, "must be at least 1")
	}

	t := &c.Translation
	if !validAxis(t.Axis) {
		return c, geometry.Invalid("translation axis", int(t.Axis), "unknown axis")
	}
	if t.Count < 0 {
		return c, geometry.Invalid("translation count", t.Count, "must not be negative")
	}
	if !finite(t.Step) || t.Step < 0 {
		return c, geometry.Invalid("translation step", t.Step, "must be a non-negative number")
	}
	if t.Axis == AxisNone {
		t.Count = 0
	}

	rr := &c.Rotoreflection
	if !validAxis(rr.Axis) || rr.Axis == AxisAll {
		return c, geometry.Invalid("rotoreflection axis", rr.Axis.String(), "expected none, x, y or z")
	}
	if rr.Plane < PlaneXY || rr.Plane > PlaneZX {
		return c, geometry.Invalid("rotoreflection plane", int(rr.Plane), "unknown plane")
	}
	if rr.Count < 0 {
		return c, geometry.Invalid("rotoreflection count", rr.Count, "must not be negative")
	}
	if !finite(rr.AngleDeg) {
		return c, geometry.Invalid("rotoreflection angle", rr.AngleDeg, "must be finite")
	}
	if rr.Axis == AxisNone {
		rr.Count = 0
	}

	s := &c.Screw
	if !validAxis(s.Axis) || s.Axis == AxisAll {
		return c, geometry.Invalid("screw axis", s.Axis.String(), "expected none, x, y or z")
	}
	if s.Count < 0 {
		return c, geometry.Invalid("screw count", s.Count, "must not be negative")
	}
	if !finite(s.AngleDeg) || !finite(s.Distance) {
		return c, geometry.Invalid("screw", s, "angle and distance must be finite")
	}
	if s.Axis == AxisNone {
		s.Count = 0
	}

	if raw := c.RawCount(); raw > MaxRawTransforms {
		return c, geometry.Invalid("symmetry", raw, "too many raw transform combinations")
	}
	return c, nil
}

func (c Config) rotationActive() bool {
	return c.Rotation.Axis != AxisNone && c.Rotation.Fold > 1
}

func (c Config) translationActive() bool {
	t := c.Translation
	return t.Axis != AxisNone && t.Count > 0 && t.Step > 0
}

func (c Config) rotoreflectionActive() bool {
	r := c.Rotoreflection
	return r.Enabled && r.Axis != AxisNone && r.Count > 0
}

func (c Config) screwActive() bool {
	s := c.Screw
	return s.Enabled && s.Axis != AxisNone && s.Count > 0
}

// RawCount is the number of transforms generated before deduplication.
func (c Config) RawCount() float64 {
	n := 1.0
	for _, on := range c.Reflections {
		if on {
			n *= 2
		}
	}
	if c.rotationActive() {
		n *= math.Pow(float64(c.Rotation.Fold), float64(len(c.Rotation.Axis.axes())))
	}
	if c.translationActive() {
		n *= math.Pow(float64(2*c.Translation.Count+1), float64(len(c.Translation.Axis.axes())))
	}
	if c.Inversion {
		n *= 2
	}
	if c.rotoreflectionActive() {
		n *= float64(1 + c.Rotoreflection.Count)
	}
	if c.screwActive() {
		n *= float64(1 + 2*c.Screw.Count)
	}
	return n
}

// Planar is the 2D symmetry of a tessellation cell: an optional mirror
// across the vertical axis and an N-fold rotation in the drawing plane.
func Planar(fold int, reflect bool) Config {
	var c Config
	c.Reflections[PlaneYZ] = reflect
	if fold > 1 {
		c.Rotation = Rotation{Axis: AxisZ, Fold: fold}
	}
	return c
}
