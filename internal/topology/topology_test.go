package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"raumharmonik/internal/geometry"
	"raumharmonik/internal/grid"
	"raumharmonik/internal/motif"
)

func tetraStore() *motif.Store {
	return motif.NewStore([]grid.LatticePoint{
		{ID: 1, Pos: r3.Vec{}},
		{ID: 2, Pos: r3.Vec{X: 1}},
		{ID: 3, Pos: r3.Vec{Y: 1}},
		{ID: 4, Pos: r3.Vec{Z: 1}},
	})
}

func connectAll(t *testing.T, s *motif.Store, pairs [][2]int) {
	t.Helper()
	for _, p := range pairs {
		_, err := s.CommitSegment(p[0], p[1])
		require.NoError(t, err)
	}
}

var tetraEdges = [][2]int{{1, 2}, {1, 3}, {1, 4}, {2, 3}, {2, 4}, {3, 4}}

func TestTetrahedron(t *testing.T) {
	s := tetraStore()
	connectAll(t, s, tetraEdges)

	g := Adjacency(s)
	faces := DeriveFaces(g)
	assert.Len(t, faces, 4)
	vols := DeriveVolumes(faces, g)
	require.Len(t, vols, 1)
}

func TestDegenerateFiltered(t *testing.T) {
	s := motif.NewStore([]grid.LatticePoint{
		{ID: 1, Pos: r3.Vec{}},
		{ID: 2, Pos: r3.Vec{X: 0.5}},
		{ID: 3, Pos: r3.Vec{X: 1}},
		{ID: 4, Pos: r3.Vec{Y: 1}},
	})
	connectAll(t, s, [][2]int{{1, 2}, {2, 3}, {1, 3}})
	assert.Empty(t, DeriveFaces(Adjacency(s)), "collinear triple")

	// coplanar quadruple: faces yes, volume no
	connectAll(t, s, [][2]int{{1, 4}, {2, 4}, {3, 4}})
	g := Adjacency(s)
	faces := DeriveFaces(g)
	assert.NotEmpty(t, faces)
	assert.Empty(t, DeriveVolumes(faces, g))
}

func TestProposeTriangle(t *testing.T) {
	s := tetraStore()
	connectAll(t, s, [][2]int{{1, 2}, {1, 3}})

	got := ProposeCompletion(Adjacency(s), 0, false)
	require.Len(t, got, 1)
	assert.ElementsMatch(t, []int{2, 3}, got[0][:])
}

func TestProposeTetrahedronFirst(t *testing.T) {
	s := tetraStore()
	connectAll(t, s, tetraEdges[:5]) // 3-4 missing

	got := ProposeCompletion(Adjacency(s), 1, true)
	require.Len(t, got, 1)
	assert.ElementsMatch(t, []int{3, 4}, got[0][:])
}

func TestProposeCap(t *testing.T) {
	// a star: the centre joined to every other lattice node
	nodes, err := grid.Lattice(3, geometry.Cube(0.5))
	require.NoError(t, err)
	s := motif.NewStore(nodes)
	for _, n := range nodes {
		if n.ID != 14 {
			_, err := s.CommitSegment(14, n.ID)
			require.NoError(t, err)
		}
	}
	got := ProposeCompletion(Adjacency(s), 5, false)
	assert.Len(t, got, 5)

	got = ProposeCompletion(Adjacency(s), 0, false)
	assert.Len(t, got, DEFAULT_MAX_NEW_EDGES)
}

func TestNothingToPropose(t *testing.T) {
	s := tetraStore()
	connectAll(t, s, tetraEdges)
	assert.Empty(t, ProposeCompletion(Adjacency(s), 0, true))
}

func TestCacheFollowsRevision(t *testing.T) {
	s := tetraStore()
	var c Cache
	assert.Empty(t, c.Faces(s))

	connectAll(t, s, tetraEdges)
	assert.Len(t, c.Faces(s), 4)
	assert.Len(t, c.Volumes(s), 1)

	require.True(t, s.Undo())
	assert.Len(t, c.Faces(s), 2)
	assert.Empty(t, c.Volumes(s))
}
