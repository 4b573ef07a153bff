package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Ray is a half line. Dir need not be normalized; NewRay normalizes it.
type Ray struct {
	Origin r3.Vec
	Dir    r3.Vec
}

func NewRay(origin, dir r3.Vec) Ray {
	return Ray{Origin: origin, Dir: r3.Unit(dir)}
}

// At returns the point at parameter t.
func (r Ray) At(t float64) r3.Vec {
	return r3.Add(r.Origin, r3.Scale(t, r.Dir))
}

// DistanceSqToPoint is the squared distance from p to the closest point of
// the ray. Points behind the origin measure to the origin.
func (r Ray) DistanceSqToPoint(p r3.Vec) float64 {
	t := r3.Dot(r3.Sub(p, r.Origin), r.Dir)
	if t < 0 {
		return r3.Norm2(r3.Sub(p, r.Origin))
	}
	return r3.Norm2(r3.Sub(r.At(t), p))
}

// Box is an axis aligned box.
type Box struct {
	Min, Max r3.Vec
}

// Cube returns the box [-half, half]^3.
func Cube(half float64) Box {
	return Box{
		Min: r3.Vec{X: -half, Y: -half, Z: -half},
		Max: r3.Vec{X: half, Y: half, Z: half},
	}
}

func (b Box) Contains(p r3.Vec) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Size returns the edge lengths of the box.
func (b Box) Size() r3.Vec {
	return r3.Sub(b.Max, b.Min)
}

// IntersectBox returns the first point where the ray enters b, or the exit
// point when the origin is already inside. ok is false on a miss.
func (r Ray) IntersectBox(b Box) (r3.Vec, bool) {
	tmin, tmax := math.Inf(-1), math.Inf(1)
	o := [3]float64{r.Origin.X, r.Origin.Y, r.Origin.Z}
	d := [3]float64{r.Dir.X, r.Dir.Y, r.Dir.Z}
	lo := [3]float64{b.Min.X, b.Min.Y, b.Min.Z}
	hi := [3]float64{b.Max.X, b.Max.Y, b.Max.Z}
	for i := 0; i < 3; i++ {
		if d[i] == 0 {
			if o[i] < lo[i] || o[i] > hi[i] {
				return r3.Vec{}, false
			}
			continue
		}
		t1 := (lo[i] - o[i]) / d[i]
		t2 := (hi[i] - o[i]) / d[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return r3.Vec{}, false
		}
	}
	if tmax < 0 {
		return r3.Vec{}, false
	}
	if tmin >= 0 {
		return r.At(tmin), true
	}
	return r.At(tmax), true
}
