package motif

import (
	"math"

	"github.com/jbeda/geom"
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"

	"raumharmonik/internal/geometry"
	"raumharmonik/internal/grid"
)

// kdNode is a lattice point as a kd-tree element.
type kdNode struct {
	grid.LatticePoint
}

func (n *kdNode) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(*kdNode)
	switch d {
	case 0:
		return n.Pos.X - q.Pos.X
	case 1:
		return n.Pos.Y - q.Pos.Y
	case 2:
		return n.Pos.Z - q.Pos.Z
	}
	panic("unreachable")
}

func (n *kdNode) Dims() int { return 3 }

// Distance is squared euclidean distance.
func (n *kdNode) Distance(c kdtree.Comparable) float64 {
	q := c.(*kdNode)
	return r3.Norm2(r3.Sub(n.Pos, q.Pos))
}

type kdNodes []kdNode

func (p kdNodes) Index(i int) kdtree.Comparable { return &p[i] }
func (p kdNodes) Len() int                      { return len(p) }

func (p kdNodes) Pivot(d kdtree.Dim) int {
	pl := kdPlane{dim: d, nodes: p}
	return kdtree.Partition(pl, kdtree.MedianOfMedians(pl))
}

func (p kdNodes) Slice(start, end int) kdtree.Interface { return p[start:end] }

type kdPlane struct {
	dim   kdtree.Dim
	nodes kdNodes
}

func (p kdPlane) Less(i, j int) bool {
	return p.nodes[i].Compare(&p.nodes[j], p.dim) < 0
}
func (p kdPlane) Swap(i, j int) { p.nodes[i], p.nodes[j] = p.nodes[j], p.nodes[i] }
func (p kdPlane) Len() int      { return len(p.nodes) }
func (p kdPlane) Slice(start, end int) kdtree.SortSlicer {
	p.nodes = p.nodes[start:end]
	return p
}

// Index answers nearest-node queries over a fixed set of nodes.
type Index struct {
	tree *kdtree.Tree
	size int
}

func NewIndex(nodes []grid.LatticePoint) *Index {
	// the tree reorders its backing slice
	pts := make(kdNodes, len(nodes))
	for i, n := range nodes {
		pts[i] = kdNode{n}
	}
	if len(pts) == 0 {
		return &Index{}
	}
	return &Index{tree: kdtree.New(pts, false), size: len(pts)}
}

// Nearest returns the node closest to q and its squared distance.
func (me *Index) Nearest(q r3.Vec) (grid.LatticePoint, float64, bool) {
	if me.size == 0 {
		return grid.LatticePoint{}, math.Inf(1), false
	}
	c, d2 := me.tree.Nearest(&kdNode{grid.LatticePoint{Pos: q}})
	if c == nil {
		return grid.LatticePoint{}, math.Inf(1), false
	}
	return c.(*kdNode).LatticePoint, d2, true
}

func (me *Store) index3() *Index {
	if me.picker == nil {
		me.picker = NewIndex(me.nodes)
	}
	return me.picker
}

// PickNearest2D returns the node nearest to q in the drawing plane, if it is
// strictly closer than radius.
func (me *Store) PickNearest2D(q geom.Coord, radius float64) (grid.LatticePoint, bool) {
	n, d2, ok := me.index3().Nearest(geometry.Lift(q))
	if !ok || d2 >= radius*radius {
		return grid.LatticePoint{}, false
	}
	return n, true
}

// Pick is the outcome of a 3D pointer query.
type Pick struct {
	Node  grid.LatticePoint
	Found bool
	// Surface is where the ray meets the box. Valid when OnBox is set, even
	// if no node was found.
	Surface r3.Vec
	OnBox   bool
}

// PickNearest3D prefers the node nearest the ray itself when its squared
// distance to the ray is below rayThreshold. Failing that it takes the node
// nearest to where the ray meets box, again within rayThreshold.
func (me *Store) PickNearest3D(ray geometry.Ray, box geometry.Box, rayThreshold float64) Pick {
	var pick Pick

	// ties go to the node closest to the ray origin
	best, bestD, bestT := -1, math.Inf(1), math.Inf(1)
	for i, n := range me.nodes {
		d := ray.DistanceSqToPoint(n.Pos)
		t := r3.Dot(r3.Sub(n.Pos, ray.Origin), ray.Dir)
		if d < bestD-geometry.FLOAT_EQUAL_THRESH || (d <= bestD+geometry.FLOAT_EQUAL_THRESH && t < bestT) {
			best, bestD, bestT = i, d, t
		}
	}
	if best >= 0 && bestD < rayThreshold {
		pick.Node, pick.Found = me.nodes[best], true
	}

	pick.Surface, pick.OnBox = ray.IntersectBox(box)
	if pick.Found || !pick.OnBox {
		return pick
	}
	if n, d2, ok := me.index3().Nearest(pick.Surface); ok && d2 < rayThreshold {
		pick.Node, pick.Found = n, true
	}
	return pick
}
