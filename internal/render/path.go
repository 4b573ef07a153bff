package render

import (
	"container/list"
	"io"
	"log"
	"math"

	"github.com/jbeda/geom"

	"raumharmonik/internal/geometry"
)

// +++ Path
type PathSegment interface {
	P1() *geom.Coord
	P2() *geom.Coord
	Reverse()
	PathDraw(svg *SVG)
	Length() float64
}

// Path is a chain of segments, each starting where the previous one ends.
type Path struct {
	segs *list.List
}

func (me *Path) init() {
	if me.segs == nil {
		me.segs = new(list.List)
	}
}

func (me *Path) pushFront(seg PathSegment) {
	me.init()
	me.segs.PushFront(seg)
}

func (me *Path) PushPathFront(path *Path) {
	me.init()
	me.segs.PushFrontList(path.segs)
}

func (me *Path) PushPathBack(path *Path) {
	me.init()
	me.segs.PushBackList(path.segs)
}

func (me *Path) Reverse() {
	newSegs := new(list.List)
	for e := me.segs.Front(); e != nil; e = e.Next() {
		e.Value.(PathSegment).Reverse()
		newSegs.PushFront(e.Value)
	}
	me.segs = newSegs
}

func (me *Path) Len() int {
	if me.segs == nil {
		return 0
	}
	return me.segs.Len()
}

func (me *Path) Front() PathSegment {
	if me.Len() == 0 {
		return nil
	}
	return me.segs.Front().Value.(PathSegment)
}

func (me *Path) FrontPoint() *geom.Coord {
	s := me.Front()
	if s != nil {
		return s.P1()
	}
	return nil
}

func (me *Path) Back() PathSegment {
	if me.Len() == 0 {
		return nil
	}
	return me.segs.Back().Value.(PathSegment)
}

func (me *Path) BackPoint() *geom.Coord {
	s := me.Back()
	if s != nil {
		return s.P2()
	}
	return nil
}

func (me *Path) Draw(svg *SVG, s ...string) {
	if me.Len() == 0 {
		return
	}
	svg.StartPath(*me.FrontPoint(), s...)
	for e := me.segs.Front(); e != nil; e = e.Next() {
		e.Value.(PathSegment).PathDraw(svg)
	}
	svg.EndPath()
}

func (me *Path) TotalLength() float64 {
	total := 0.0
	if me.segs == nil {
		return total
	}
	for e := me.segs.Front(); e != nil; e = e.Next() {
		total += e.Value.(PathSegment).Length()
	}
	return total
}

func (me *Path) closed() bool {
	if me.Len() == 0 {
		return false
	}
	return geometry.AlmostEqualsCoord(*me.FrontPoint(), *me.BackPoint())
}

func (me *Path) segments() []PathSegment {
	var segments []PathSegment
	for e := me.segs.Front(); e != nil; e = e.Next() {
		segments = append(segments, e.Value.(PathSegment))
	}
	return segments
}

// +++ StraightSegment
type StraightSegment struct {
	A, B geom.Coord
}

func (sl *StraightSegment) P1() *geom.Coord { return &sl.A }
func (sl *StraightSegment) P2() *geom.Coord { return &sl.B }
func (sl *StraightSegment) PathDraw(svg *SVG) {
	svg.PathLineTo(sl.B)
}
func (sl *StraightSegment) Reverse() {
	sl.A, sl.B = sl.B, sl.A
}
func (sl *StraightSegment) Length() float64 {
	return sl.A.DistanceFrom(sl.B)
}

// +++ BowedSegment

// BowedSegment is a quadratic Bezier. Reversing keeps the control point so
// the bow stays on the same side.
type BowedSegment struct {
	A, Ctrl, B geom.Coord
}

func (bs *BowedSegment) P1() *geom.Coord { return &bs.A }
func (bs *BowedSegment) P2() *geom.Coord { return &bs.B }
func (bs *BowedSegment) PathDraw(svg *SVG) {
	svg.PathQuadBezierTo(bs.B, bs.Ctrl)
}
func (bs *BowedSegment) Reverse() {
	bs.A, bs.B = bs.B, bs.A
}

// Length is the control polygon length, an upper bound of the arc length.
func (bs *BowedSegment) Length() float64 {
	return bs.A.DistanceFrom(bs.Ctrl) + bs.Ctrl.DistanceFrom(bs.B)
}

////////////////////////////////////////////////////////////////////////////
// Path joining

type PathCollection struct {
	paths []*Path
	log   *log.Logger
}

func NewPathCollection(l *log.Logger) *PathCollection {
	if l == nil {
		l = log.New(io.Discard, "", 0)
	}
	return &PathCollection{log: l}
}

func (opc *PathCollection) Draw(svg *SVG, s ...string) {
	for _, path := range opc.paths {
		path.Draw(svg, s...)
	}
}

func (opc *PathCollection) NumPaths() int {
	return len(opc.paths)
}

// Append adds p as a path of its own.
func (opc *PathCollection) Append(p PathSegment) {
	path := new(Path)
	path.pushFront(p)
	opc.paths = append(opc.paths, path)
}

func (opc *PathCollection) AddSegment(p PathSegment) {
	path := new(Path)
	path.pushFront(p)
	opc.AddPath(path)
}

// AddPath appends np to the first open path it continues, reversing it if
// that lines the ends up, or keeps it as a new path. Closed loops are never
// extended.
func (opc *PathCollection) AddPath(np *Path) {
	npP1 := np.FrontPoint()
	npP2 := np.BackPoint()
	for _, path := range opc.paths {
		if path.closed() {
			continue
		}
		if geometry.AlmostEqualsCoord(*npP2, *path.FrontPoint()) {
			path.PushPathFront(np)
			return
		}
		if geometry.AlmostEqualsCoord(*npP1, *path.BackPoint()) {
			path.PushPathBack(np)
			return
		}
		if geometry.AlmostEqualsCoord(*npP1, *path.FrontPoint()) {
			np.Reverse()
			path.PushPathFront(np)
			return
		}
		if geometry.AlmostEqualsCoord(*npP2, *path.BackPoint()) {
			np.Reverse()
			path.PushPathBack(np)
			return
		}
	}

	opc.paths = append(opc.paths, np)
}

// Optimize joins paths until the count stops shrinking, then orders them
// greedily to shorten pen-up travel between path ends.
func (opc *PathCollection) Optimize() {
	if len(opc.paths) == 0 {
		return
	}
	opc.log.Printf("  Number of paths before optimization: %d", len(opc.paths))
	// Loop through until the number of paths stabilizes
	for i := 0; ; i++ {
		prevNumPaths := len(opc.paths)

		oldPaths := opc.paths
		opc.paths = nil
		for _, p := range oldPaths {
			opc.AddPath(p)
		}

		opc.log.Printf("  Number of paths after iteration %d: %d", i, len(opc.paths))
		if prevNumPaths == len(opc.paths) {
			break
		}
	}

	// Create a linked list of all paths not used so we can remove them once
	// they are used
	oldPaths := new(list.List)
	for _, p := range opc.paths[1:] {
		oldPaths.PushBack(p)
	}

	// Simple N^2 greedy pass picking the nearest path end each time.
	newPaths := []*Path{opc.paths[0]}
	travelDistance := 0.0
	lastPoint := opc.paths[0].BackPoint()
	for oldPaths.Len() != 0 {
		bestDistance := math.MaxFloat64
		bestDistanceElem := (*list.Element)(nil)
		bestReversed := false
		for p := oldPaths.Front(); p != nil; p = p.Next() {
			path := p.Value.(*Path)
			if d := lastPoint.DistanceFrom(*path.FrontPoint()); d < bestDistance {
				bestDistance, bestDistanceElem, bestReversed = d, p, false
			}
			if d := lastPoint.DistanceFrom(*path.BackPoint()); d < bestDistance {
				bestDistance, bestDistanceElem, bestReversed = d, p, true
			}
		}
		best := bestDistanceElem.Value.(*Path)
		if bestReversed {
			best.Reverse()
		}
		newPaths = append(newPaths, best)
		lastPoint = best.BackPoint()
		travelDistance += bestDistance
		oldPaths.Remove(bestDistanceElem)
	}
	opc.paths = newPaths
	opc.log.Printf("  Pen-up travel distance after optimization: %f", travelDistance)
}

// Loops counts the closed paths.
func (opc *PathCollection) Loops() int {
	n := 0
	for _, path := range opc.paths {
		if path.closed() {
			n++
		}
	}
	return n
}

func (opc *PathCollection) TotalLength() float64 {
	total := 0.0
	for _, path := range opc.paths {
		total += path.TotalLength()
	}
	return total
}

// Crossings counts pairs of segments that cross without meeting at an
// endpoint, treating bowed segments by their chords.
func (opc *PathCollection) Crossings() int {
	var segs []PathSegment
	for _, path := range opc.paths {
		segs = append(segs, path.segments()...)
	}
	count := 0
	for i := 0; i < len(segs); i++ {
		a1, a2 := *segs[i].P1(), *segs[i].P2()
		for j := i + 1; j < len(segs); j++ {
			b1, b2 := *segs[j].P1(), *segs[j].P2()
			if geometry.SharesEndpoint(a1, a2, b1, b2) {
				continue
			}
			if geometry.SegmentsCross(a1, a2, b1, b2) {
				count++
			}
		}
	}
	return count
}
