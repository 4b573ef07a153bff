// Package topology derives triangular faces and tetrahedral volumes from the
// connection graph of a 3D motif, and proposes the edges that would close
// the ones that are almost there.
package topology

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"raumharmonik/internal/motif"
)

const (
	// AREA_EPS is compared against the squared triangle area.
	AREA_EPS = 1e-12
	// VOLUME_EPS is compared against the absolute scalar triple product.
	VOLUME_EPS = 1e-12

	DEFAULT_MAX_NEW_EDGES = 20
)

// Graph is the adjacency of point keys built from committed connections.
type Graph struct {
	adj map[string]map[string]bool
	pos map[string]r3.Vec
	ids map[string]int
}

// Adjacency builds the graph of s. Nodes without connections are included
// so that completion can see them as positions, but never as vertices.
func Adjacency(s *motif.Store) Graph {
	g := Graph{
		adj: make(map[string]map[string]bool),
		pos: make(map[string]r3.Vec),
		ids: make(map[string]int),
	}
	for _, n := range s.Nodes() {
		k := n.Key()
		if _, ok := g.ids[k]; ok {
			continue
		}
		g.ids[k] = n.ID
		g.pos[k] = n.Pos
	}
	for _, seg := range s.Segments() {
		a, okA := s.Node(seg.A)
		b, okB := s.Node(seg.B)
		if !okA || !okB {
			continue
		}
		g.link(a.Key(), b.Key())
	}
	return g
}

func (g Graph) link(a, b string) {
	if g.adj[a] == nil {
		g.adj[a] = make(map[string]bool)
	}
	if g.adj[b] == nil {
		g.adj[b] = make(map[string]bool)
	}
	g.adj[a][b] = true
	g.adj[b][a] = true
}

func (g Graph) Adjacent(a, b string) bool {
	return g.adj[a][b]
}

// Neighbours returns the keys adjacent to k in sorted order.
func (g Graph) Neighbours(k string) []string {
	out := make([]string, 0, len(g.adj[k]))
	for n := range g.adj[k] {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// Vertices returns every key with at least one connection, sorted.
func (g Graph) Vertices() []string {
	out := make([]string, 0, len(g.adj))
	for k := range g.adj {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func (g Graph) Position(k string) (r3.Vec, bool) {
	p, ok := g.pos[k]
	return p, ok
}

// ID maps a key back to the node id it was built from.
func (g Graph) ID(k string) (int, bool) {
	id, ok := g.ids[k]
	return id, ok
}

////////////////////////////////////////////////////////////////////////////
// Faces and volumes

// Face is a non-degenerate triangle with all three edges connected. Keys
// are sorted.
type Face struct {
	Keys [3]string
}

// Volume is a non-degenerate tetrahedron with all six edges connected.
// Keys are sorted.
type Volume struct {
	Keys [4]string
}

func areaSq(a, b, c r3.Vec) float64 {
	cr := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
	return r3.Norm2(cr) / 4
}

func tripleProduct(a, b, c, d r3.Vec) float64 {
	return r3.Dot(r3.Sub(b, a), r3.Cross(r3.Sub(c, a), r3.Sub(d, a)))
}

func (g Graph) nonDegenerateFace(a, b, c string) bool {
	return areaSq(g.pos[a], g.pos[b], g.pos[c]) > AREA_EPS
}

func (g Graph) nonDegenerateVolume(a, b, c, d string) bool {
	return math.Abs(tripleProduct(g.pos[a], g.pos[b], g.pos[c], g.pos[d])) > VOLUME_EPS
}

// DeriveFaces finds every connected triple with a non-zero area.
func DeriveFaces(g Graph) []Face {
	var faces []Face
	for _, a := range g.Vertices() {
		nb := g.Neighbours(a)
		for i, b := range nb {
			if b <= a {
				continue
			}
			for _, c := range nb[i+1:] {
				if !g.Adjacent(b, c) {
					continue
				}
				if g.nonDegenerateFace(a, b, c) {
					faces = append(faces, Face{Keys: [3]string{a, b, c}})
				}
			}
		}
	}
	return faces
}

// DeriveVolumes extends every face by a fourth vertex connected to all
// three of its corners.
func DeriveVolumes(faces []Face, g Graph) []Volume {
	var vols []Volume
	for _, f := range faces {
		a, b, c := f.Keys[0], f.Keys[1], f.Keys[2]
		for _, d := range g.Neighbours(a) {
			// d > c keeps each sorted quadruple to a single face
			if d <= c || !g.Adjacent(b, d) || !g.Adjacent(c, d) {
				continue
			}
			if g.nonDegenerateVolume(a, b, c, d) {
				vols = append(vols, Volume{Keys: [4]string{a, b, c, d}})
			}
		}
	}
	return vols
}

////////////////////////////////////////////////////////////////////////////
// Completion

// ProposeCompletion returns up to maxNewEdges missing edges, as node id
// pairs. With volumes set, edges that close a tetrahedron with five of six
// edges present come first. Then come edges closing a triangle with two
// of three edges present. A non-positive maxNewEdges uses the default.
func ProposeCompletion(g Graph, maxNewEdges int, volumes bool) [][2]int {
	if maxNewEdges <= 0 {
		maxNewEdges = DEFAULT_MAX_NEW_EDGES
	}
	seen := make(map[[2]string]bool)
	var out [][2]int

	propose := func(x, y string) bool {
		if x > y {
			x, y = y, x
		}
		e := [2]string{x, y}
		if seen[e] {
			return len(out) < maxNewEdges
		}
		seen[e] = true
		ix, _ := g.ID(x)
		iy, _ := g.ID(y)
		out = append(out, [2]int{ix, iy})
		return len(out) < maxNewEdges
	}

	verts := g.Vertices()

	if volumes {
		// x and y are disconnected but share an edge pq of common neighbours
		for i, x := range verts {
			for _, y := range verts[i+1:] {
				if g.Adjacent(x, y) {
					continue
				}
				common := g.common(x, y)
				closes := false
				for j, p := range common {
					for _, q := range common[j+1:] {
						if g.Adjacent(p, q) && g.nonDegenerateVolume(x, y, p, q) {
							closes = true
							break
						}
					}
					if closes {
						break
					}
				}
				if closes && !propose(x, y) {
					return out
				}
			}
		}
	}

	// b and c are disconnected but share the neighbour a
	for _, a := range verts {
		nb := g.Neighbours(a)
		for i, b := range nb {
			for _, c := range nb[i+1:] {
				if g.Adjacent(b, c) || !g.nonDegenerateFace(a, b, c) {
					continue
				}
				if !propose(b, c) {
					return out
				}
			}
		}
	}
	return out
}

func (g Graph) common(x, y string) []string {
	var out []string
	for _, n := range g.Neighbours(x) {
		if g.Adjacent(y, n) {
			out = append(out, n)
		}
	}
	return out
}

////////////////////////////////////////////////////////////////////////////
// Cache

// Cache holds the faces and volumes of a store and rebuilds them on read
// once the store revision moved.
type Cache struct {
	rev     uint64
	valid   bool
	faces   []Face
	volumes []Volume
}

func (me *Cache) refresh(s *motif.Store) {
	if me.valid && me.rev == s.Revision() {
		return
	}
	g := Adjacency(s)
	me.faces = DeriveFaces(g)
	me.volumes = DeriveVolumes(me.faces, g)
	me.rev = s.Revision()
	me.valid = true
}

func (me *Cache) Faces(s *motif.Store) []Face {
	me.refresh(s)
	return me.faces
}

func (me *Cache) Volumes(s *motif.Store) []Volume {
	me.refresh(s)
	return me.volumes
}

// Invalidate forces the next read to rebuild.
func (me *Cache) Invalidate() {
	me.valid = false
}
