package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"raumharmonik/internal/geometry"
	"raumharmonik/internal/grid"
	"raumharmonik/internal/symmetry"
)

const (
	MIN_CURVE_AMOUNT = -0.5
	MAX_CURVE_AMOUNT = 0.5
)

// DefaultFold is the natural rotational order of a base cell.
func DefaultFold(shape grid.Shape) int {
	switch shape {
	case grid.Triangle:
		return 3
	case grid.Square:
		return 4
	case grid.Hexagon:
		return 6
	}
	return 1
}

// ParseMode turns a symmetry mode token into a fold count and a mirror flag.
// "rotation" and "rotation_reflection" take the fold from the shape.
func ParseMode(shape grid.Shape, token string) (int, bool, error) {
	t := strings.ToLower(strings.TrimSpace(token))
	switch t {
	case "", "none":
		return 1, false, nil
	case "reflection_only", "reflection":
		return 1, true, nil
	case "rotation":
		return DefaultFold(shape), false, nil
	case "rotation_reflection":
		return DefaultFold(shape), true, nil
	}

	reflect := false
	rest := t
	if r, ok := strings.CutPrefix(t, "rotation_reflection"); ok {
		reflect, rest = true, r
	} else if r, ok := strings.CutPrefix(t, "rotation"); ok {
		rest = r
	} else {
		return 0, false, geometry.Invalid("mode", token, "unknown symmetry mode")
	}
	fold, err := strconv.Atoi(rest)
	if err != nil || fold < 1 {
		return 0, false, geometry.Invalid("mode", token, "unknown symmetry mode")
	}
	return fold, reflect, nil
}

// ParseColor checks a "#rrggbb" colour and returns it lower-cased.
func ParseColor(s string) (string, error) {
	if len(s) != 7 || s[0] != '#' {
		return "", geometry.Invalid("color", s, "expected #rrggbb")
	}
	if _, err := strconv.ParseUint(s[1:], 16, 32); err != nil {
		return "", geometry.Invalid("color", s, "expected #rrggbb")
	}
	return strings.ToLower(s), nil
}

// ClampCurve limits a curve amount to [-0.5, 0.5]. NaN becomes 0.
func ClampCurve(c float64) float64 {
	if math.IsNaN(c) {
		return 0
	}
	return math.Max(MIN_CURVE_AMOUNT, math.Min(MAX_CURVE_AMOUNT, c))
}

// PlanarSymmetry resolves the 2D symmetry of t: the mode token, then the
// explicit fold and reflect overrides.
func (t TessellationConfig) PlanarSymmetry(shape grid.Shape) (symmetry.Config, error) {
	fold, reflect, err := ParseMode(shape, t.Mode)
	if err != nil {
		return symmetry.Config{}, err
	}
	if t.Fold < 0 {
		return symmetry.Config{}, geometry.Invalid("fold", t.Fold, "must not be negative")
	}
	if t.Fold > 0 {
		fold = t.Fold
	}
	if t.Reflect != nil {
		reflect = *t.Reflect
	}
	return symmetry.Planar(fold, reflect), nil
}

// Build turns the UI tokens into a validated symmetry.Config.
func (s SymmetryConfig) Build() (symmetry.Config, error) {
	var c symmetry.Config
	for _, p := range s.Reflections {
		plane, err := symmetry.ParsePlane(p)
		if err != nil {
			return c, err
		}
		c.Reflections[plane] = true
	}

	axis, err := symmetry.ParseAxis(s.Rotation.Axis)
	if err != nil {
		return c, fmt.Errorf("rotation: %w", err)
	}
	c.Rotation = symmetry.Rotation{Axis: axis, Fold: s.Rotation.Fold}

	if axis, err = symmetry.ParseAxis(s.Translation.Axis); err != nil {
		return c, fmt.Errorf("translation: %w", err)
	}
	c.Translation = symmetry.Translation{Axis: axis, Count: s.Translation.Count, Step: s.Translation.Step}

	c.Inversion = s.Inversion

	rr := s.Rotoreflection
	if axis, err = symmetry.ParseAxis(rr.Axis); err != nil {
		return c, fmt.Errorf("rotoreflection: %w", err)
	}
	plane := symmetry.PlaneXY
	if rr.Plane != "" {
		if plane, err = symmetry.ParsePlane(rr.Plane); err != nil {
			return c, fmt.Errorf("rotoreflection: %w", err)
		}
	}
	c.Rotoreflection = symmetry.Rotoreflection{Enabled: rr.Enabled, Axis: axis, Plane: plane, AngleDeg: rr.Angle, Count: rr.Count}

	sc := s.Screw
	if axis, err = symmetry.ParseAxis(sc.Axis); err != nil {
		return c, fmt.Errorf("screw: %w", err)
	}
	c.Screw = symmetry.Screw{Enabled: sc.Enabled, Axis: axis, AngleDeg: sc.Angle, Distance: sc.Distance, Count: sc.Count}

	return c.Normalize()
}
