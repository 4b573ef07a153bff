// Package symmetry computes the deduplicated set of affine transforms
// generated by a declarative point group configuration.
package symmetry

import (
	"fmt"
	"io"
	"log"
	"math"
	"slices"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/spatial/r3"

	"raumharmonik/internal/geometry"
)

// ZERO_THRESH is the magnitude below which a matrix element keys as zero.
const ZERO_THRESH = 1e-10

// Engine owns one scene's symmetry configuration and caches its transforms.
// It is not safe for concurrent use.
type Engine struct {
	cfg   Config
	cache []mgl64.Mat4
	dirty bool
	log   *log.Logger
}

func NewEngine() *Engine {
	return &Engine{dirty: true, log: log.New(io.Discard, "", 0)}
}

// SetLogger sends transform counts to l. A nil logger discards them.
func (me *Engine) SetLogger(l *log.Logger) {
	if l == nil {
		l = log.New(io.Discard, "", 0)
	}
	me.log = l
}

func (me *Engine) Config() Config {
	return me.cfg
}

// SetConfig replaces the whole configuration. On error nothing changes.
func (me *Engine) SetConfig(cfg Config) error {
	n, err := cfg.Normalize()
	if err != nil {
		return err
	}
	me.cfg = n
	me.dirty = true
	return nil
}

func (me *Engine) update(f func(c *Config)) error {
	next := me.cfg
	f(&next)
	return me.SetConfig(next)
}

func (me *Engine) SetReflection(p Plane, on bool) error {
	if p < PlaneXY || p > PlaneZX {
		return geometry.Invalid("reflection plane", int(p), "unknown plane")
	}
	return me.update(func(c *Config) { c.Reflections[p] = on })
}

func (me *Engine) SetRotation(axis Axis, fold int) error {
	return me.update(func(c *Config) { c.Rotation = Rotation{Axis: axis, Fold: fold} })
}

func (me *Engine) SetTranslation(axis Axis, count int, step float64) error {
	return me.update(func(c *Config) { c.Translation = Translation{Axis: axis, Count: count, Step: step} })
}

func (me *Engine) SetInversion(on bool) error {
	return me.update(func(c *Config) { c.Inversion = on })
}

func (me *Engine) SetRotoreflection(r Rotoreflection) error {
	return me.update(func(c *Config) { c.Rotoreflection = r })
}

func (me *Engine) SetScrew(s Screw) error {
	return me.update(func(c *Config) { c.Screw = s })
}

// Transforms returns the deduplicated transform set, identity first. The
// returned slice is a copy.
func (me *Engine) Transforms() []mgl64.Mat4 {
	if me.dirty || me.cache == nil {
		me.cache = Build(me.cfg, me.log)
		me.dirty = false
	}
	return slices.Clone(me.cache)
}

////////////////////////////////////////////////////////////////////////////
// Generators

// Reflect mirrors in a principal plane.
func Reflect(p Plane) mgl64.Mat4 {
	switch p {
	case PlaneXY:
		return mgl64.Scale3D(1, 1, -1)
	case PlaneYZ:
		return mgl64.Scale3D(-1, 1, 1)
	case PlaneZX:
		return mgl64.Scale3D(1, -1, 1)
	}
	return mgl64.Ident4()
}

// Rotate rotates by angle radians about a principal axis.
func Rotate(a Axis, angle float64) mgl64.Mat4 {
	switch a {
	case AxisX:
		return mgl64.HomogRotate3DX(angle)
	case AxisY:
		return mgl64.HomogRotate3DY(angle)
	case AxisZ:
		return mgl64.HomogRotate3DZ(angle)
	}
	return mgl64.Ident4()
}

// Translate moves d along a principal axis.
func Translate(a Axis, d float64) mgl64.Mat4 {
	switch a {
	case AxisX:
		return mgl64.Translate3D(d, 0, 0)
	case AxisY:
		return mgl64.Translate3D(0, d, 0)
	case AxisZ:
		return mgl64.Translate3D(0, 0, d)
	}
	return mgl64.Ident4()
}

// Inversion is the point reflection through the origin.
func Inversion() mgl64.Mat4 {
	return mgl64.Scale3D(-1, -1, -1)
}

// About conjugates m so that it acts around centre instead of the origin.
func About(m mgl64.Mat4, centre r3.Vec) mgl64.Mat4 {
	to := mgl64.Translate3D(centre.X, centre.Y, centre.Z)
	back := mgl64.Translate3D(-centre.X, -centre.Y, -centre.Z)
	return to.Mul4(m).Mul4(back)
}

func rad(deg float64) float64 {
	return deg * math.Pi / 180
}

// combos returns every non-zero assignment of values[i] to each axis in
// axes, composed with build. values[0] must be the neutral value.
func combos(axes []Axis, values []float64, build func(Axis, float64) mgl64.Mat4) []mgl64.Mat4 {
	var out []mgl64.Mat4
	idx := make([]int, len(axes))
	for {
		nonZero := false
		m := mgl64.Ident4()
		for i, a := range axes {
			if idx[i] != 0 {
				nonZero = true
			}
			m = m.Mul4(build(a, values[idx[i]]))
		}
		if nonZero {
			out = append(out, m)
		}

		// odometer
		i := len(axes) - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < len(values) {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			return out
		}
	}
}

// expand returns set ∪ {m·g : m ∈ set, g ∈ gens}.
func expand(set []mgl64.Mat4, gens []mgl64.Mat4) []mgl64.Mat4 {
	out := make([]mgl64.Mat4, 0, len(set)*(1+len(gens)))
	out = append(out, set...)
	for _, g := range gens {
		for _, m := range set {
			out = append(out, m.Mul4(g))
		}
	}
	return out
}

// Build computes the transform set of cfg without caching. cfg is assumed
// to be normalized.
func Build(cfg Config, l *log.Logger) []mgl64.Mat4 {
	set := []mgl64.Mat4{mgl64.Ident4()}

	for _, p := range Planes {
		if cfg.Reflections[p] {
			set = expand(set, []mgl64.Mat4{Reflect(p)})
		}
	}

	if cfg.rotationActive() {
		fold := cfg.Rotation.Fold
		angles := make([]float64, fold)
		for i := range angles {
			angles[i] = 2 * math.Pi * float64(i) / float64(fold)
		}
		gens := combos(cfg.Rotation.Axis.axes(), angles, Rotate)
		set = expand(set, gens)
	}

	if cfg.translationActive() {
		t := cfg.Translation
		offsets := []float64{0}
		for k := 1; k <= t.Count; k++ {
			offsets = append(offsets, float64(k)*t.Step, -float64(k)*t.Step)
		}
		gens := combos(t.Axis.axes(), offsets, Translate)
		set = expand(set, gens)
	}

	if cfg.Inversion {
		set = expand(set, []mgl64.Mat4{Inversion()})
	}

	if cfg.rotoreflectionActive() {
		rr := cfg.Rotoreflection
		gens := make([]mgl64.Mat4, 0, rr.Count)
		for i := 1; i <= rr.Count; i++ {
			gens = append(gens, Reflect(rr.Plane).Mul4(Rotate(rr.Axis, rad(rr.AngleDeg)*float64(i))))
		}
		set = expand(set, gens)
	}

	if cfg.screwActive() {
		s := cfg.Screw
		gens := make([]mgl64.Mat4, 0, 2*s.Count)
		for i := 1; i <= s.Count; i++ {
			f := float64(i)
			gens = append(gens,
				Translate(s.Axis, s.Distance*f).Mul4(Rotate(s.Axis, rad(s.AngleDeg)*f)),
				Translate(s.Axis, -s.Distance*f).Mul4(Rotate(s.Axis, -rad(s.AngleDeg)*f)),
			)
		}
		set = expand(set, gens)
	}

	out := Deduplicate(set)
	if l != nil {
		l.Printf("Number of transforms before dedup: %d", len(set))
		l.Printf("Number of transforms after dedup: %d", len(out))
	}
	return out
}

////////////////////////////////////////////////////////////////////////////
// Dedup

// Key is the canonical string form of m: every element rounded to five
// decimals, with near-zero values keyed as zero.
func Key(m mgl64.Mat4) string {
	var b strings.Builder
	for i, v := range m {
		if math.Abs(v) < ZERO_THRESH {
			v = 0
		}
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%.5f", geometry.Round(v))
	}
	return b.String()
}

// Deduplicate keeps the first occurrence of every key, in order.
func Deduplicate(ms []mgl64.Mat4) []mgl64.Mat4 {
	seen := make(map[string]bool, len(ms))
	out := make([]mgl64.Mat4, 0, len(ms))
	for _, m := range ms {
		k := Key(m)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, m)
	}
	return out
}
