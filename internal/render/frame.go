package render

import (
	"bufio"
	"fmt"
	"io"
	"log"

	"github.com/jbeda/geom"
)

// Tunable constants for output
const (
	DEFAULT_STYLE        = "stroke-linecap: round; stroke-linejoin: round; fill: none"
	DEFAULT_STROKE       = "#000000"
	DEFAULT_STROKE_WIDTH = 1.5
	DEFAULT_BACKGROUND   = "#ffffff"
	GUIDE_STYLE          = "stroke: #bbbbbb; stroke-width: 0.75; fill: none"
	MARKER_STYLE         = "fill: #ff3366; stroke: none"
	PENDING_MARKER_STYLE = "fill: #ffcc00; stroke: #000000; stroke-width: 0.5"
	MARKER_RADIUS        = 3.0
	FACE_STYLE           = "stroke: none"
	FACE_FILL            = "#3366ff"
	FACE_OPACITY         = 0.25
	VOLUME_FILL          = "#ff9933"
)

type Line struct {
	A, B geom.Coord
}

// Curve is a line bowed through a quadratic Bezier control point.
type Curve struct {
	A, Ctrl, B geom.Coord
}

type Marker struct {
	At      geom.Coord
	ID      int
	Pending bool
}

// Polygon is a filled surface, a face or a volume side.
type Polygon struct {
	Points []geom.Coord
	Fill   string
	Depth  float64
}

// Frame is everything one render draws, already in pixel coordinates.
type Frame struct {
	ViewBox     geom.Rect
	Background  string
	Stroke      string
	StrokeWidth float64

	// Guides are the cell outline and cube edges, drawn under everything.
	Guides  []Line
	Faces   []Polygon
	Lines   []Line
	Curves  []Curve
	Markers []Marker
}

// Options tune WriteSVG.
type Options struct {
	// JoinPaths chains touching lines into polylines before writing.
	JoinPaths bool
	// CountCrossings fills Stats.Crossings. Quadratic in the line count.
	CountCrossings bool
	Logger         *log.Logger
}

type Stats struct {
	Lines     int
	Curves    int
	Paths     int
	Loops     int
	Crossings int
	Markers   int
	Faces     int
	Length    float64
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// WriteSVG serializes f to w.
func WriteSVG(w io.Writer, f Frame, opt Options) (Stats, error) {
	l := opt.Logger
	if l == nil {
		l = log.New(io.Discard, "", 0)
	}
	bw := bufio.NewWriter(w)
	svg := NewSVG(bw)
	stats := Stats{Lines: len(f.Lines), Curves: len(f.Curves), Markers: len(f.Markers), Faces: len(f.Faces)}

	width := f.StrokeWidth
	if width <= 0 {
		width = DEFAULT_STROKE_WIDTH
	}
	stroke := fmt.Sprintf("%s; stroke: %s; stroke-width: %g", DEFAULT_STYLE, orDefault(f.Stroke, DEFAULT_STROKE), width)

	svg.Start(f.ViewBox)
	svg.Rect(f.ViewBox, "fill: "+orDefault(f.Background, DEFAULT_BACKGROUND))

	for _, g := range f.Guides {
		svg.Line(g.A, g.B, GUIDE_STYLE)
	}

	for _, p := range f.Faces {
		svg.Polygon(p.Points, fmt.Sprintf("%s; fill: %s; fill-opacity: %g", FACE_STYLE, orDefault(p.Fill, FACE_FILL), FACE_OPACITY))
	}

	pc := NewPathCollection(l)
	add := pc.Append
	if opt.JoinPaths {
		add = pc.AddSegment
	}
	for _, ln := range f.Lines {
		add(&StraightSegment{A: ln.A, B: ln.B})
	}
	for _, c := range f.Curves {
		add(&BowedSegment{A: c.A, Ctrl: c.Ctrl, B: c.B})
	}
	if opt.JoinPaths {
		l.Printf("Optimizing line paths")
		pc.Optimize()
	}
	stats.Paths = pc.NumPaths()
	stats.Loops = pc.Loops()
	stats.Length = pc.TotalLength()
	if opt.CountCrossings {
		stats.Crossings = pc.Crossings()
	}
	pc.Draw(svg, stroke)

	for _, m := range f.Markers {
		style := MARKER_STYLE
		if m.Pending {
			style = PENDING_MARKER_STYLE
		}
		svg.Circle(m.At, MARKER_RADIUS, style, fmt.Sprintf("data-node='%d'", m.ID))
	}
	svg.End()

	if err := svg.Err(); err != nil {
		return stats, fmt.Errorf("failed to write svg: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return stats, fmt.Errorf("failed to write svg: %w", err)
	}
	l.Printf("Wrote %d paths from %d lines and %d curves", stats.Paths, stats.Lines, stats.Curves)
	return stats, nil
}
