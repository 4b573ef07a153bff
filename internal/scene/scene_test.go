package scene

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/jbeda/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"raumharmonik/internal/config"
	"raumharmonik/internal/geometry"
	"raumharmonik/internal/grid"
	"raumharmonik/internal/motif"
	"raumharmonik/internal/render"
	"raumharmonik/internal/symmetry"
)

func triangleScene(t *testing.T) *TileScene {
	t.Helper()
	cfg := config.Default()
	cfg.Canvas.Width, cfg.Canvas.Height = 320, 320
	cfg.Tessellation.Shape = "triangle"
	cfg.Tessellation.Subdivisions = 4
	cfg.Tessellation.SizeFactor = 5
	cfg.Tessellation.Segments = [][2]int{{1, 3}}
	s, err := NewTileScene(cfg.Tessellation, cfg.Canvas)
	require.NoError(t, err)
	return s
}

func nodeAt(t *testing.T, s *motif.Store, id int) geom.Coord {
	t.Helper()
	n, ok := s.Node(id)
	require.True(t, ok)
	return n.Coord()
}

func TestNewTileScene(t *testing.T) {
	s := triangleScene(t)
	st := s.State()
	assert.Equal(t, "triangle", st.Shape)
	assert.Equal(t, 10, st.Nodes)
	assert.Equal(t, 3, st.Fold)
	assert.True(t, st.Reflect)
	assert.Equal(t, 6, st.Transforms)
	assert.Equal(t, [][2]int{{1, 3}}, st.Segments)
	assert.True(t, st.CanUndo)

	cfg := config.Default()
	cfg.Tessellation.Shape = "pentagon"
	_, err := NewTileScene(cfg.Tessellation, cfg.Canvas)
	var ce *geometry.ConfigurationError
	assert.True(t, errors.As(err, &ce))

	cfg = config.Default()
	cfg.Tessellation.Segments = [][2]int{{1, 1}}
	_, err = NewTileScene(cfg.Tessellation, cfg.Canvas)
	assert.ErrorIs(t, err, motif.ErrSameEndpoint)
}

func TestTileClick(t *testing.T) {
	s := triangleScene(t)
	store := s.Store()

	res, ok, err := s.Click(nodeAt(t, store, 5).Plus(geom.Coord{X: 3, Y: -2}))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, motif.Selected, res.Outcome)
	assert.Equal(t, 5, res.Node)
	require.NotNil(t, s.State().Pending)

	res, ok, err = s.Click(nodeAt(t, store, 8))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, motif.Committed, res.Outcome)
	require.NotNil(t, res.Segment)
	assert.True(t, store.Has(5, 8))
	assert.Nil(t, s.State().Pending)

	// far from every node
	_, ok, _ = s.Click(geom.Coord{X: 1, Y: 1})
	assert.False(t, ok)

	// the same node twice cancels
	_, _, _ = s.Click(nodeAt(t, store, 2))
	res, _, _ = s.Click(nodeAt(t, store, 2))
	assert.Equal(t, motif.Cancelled, res.Outcome)

	// an existing connection is rejected softly
	_, _, _ = s.SelectNode(8)
	res, ok, err = s.SelectNode(5)
	assert.True(t, ok)
	assert.Equal(t, motif.Rejected, res.Outcome)
	assert.ErrorIs(t, err, motif.ErrDuplicateSegment)
	assert.Equal(t, 2, store.SegmentCount())
}

func TestTileUndoRedoClear(t *testing.T) {
	s := triangleScene(t)
	_, err := s.Connect(2, 9)
	require.NoError(t, err)

	assert.True(t, s.Undo())
	assert.Equal(t, [][2]int{{1, 3}}, s.State().Segments)
	assert.True(t, s.Redo())
	assert.Len(t, s.State().Segments, 2)

	assert.True(t, s.Clear())
	assert.Empty(t, s.State().Segments)
	assert.True(t, s.Undo())
	assert.Len(t, s.State().Segments, 2)
}

func TestTileTopologyChangeClears(t *testing.T) {
	s := triangleScene(t)

	var ce *geometry.ConfigurationError
	assert.True(t, errors.As(s.SetSubdivisions(0), &ce))
	assert.True(t, errors.As(s.SetSizeFactor(-1), &ce))
	// rejected changes keep everything
	assert.Equal(t, 10, s.State().Nodes)
	assert.Len(t, s.State().Segments, 1)

	require.NoError(t, s.SetShape(grid.Square))
	st := s.State()
	assert.Equal(t, 16, st.Nodes)
	assert.Empty(t, st.Segments)
	assert.False(t, st.CanUndo)
}

func TestTileRepeatedConfiguredSegment(t *testing.T) {
	cfg := config.Default()
	cfg.Tessellation.Segments = [][2]int{{1, 2}, {2, 1}, {2, 3}}
	s, err := NewTileScene(cfg.Tessellation, cfg.Canvas)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Store().SegmentCount())

	cfg.Tessellation.Segments = [][2]int{{1, 1}}
	_, err = NewTileScene(cfg.Tessellation, cfg.Canvas)
	assert.True(t, errors.Is(err, motif.ErrSameEndpoint))

	cfg.Tessellation.Segments = [][2]int{{1, 999}}
	_, err = NewTileScene(cfg.Tessellation, cfg.Canvas)
	assert.True(t, errors.Is(err, motif.ErrUnknownNode))
}

func TestTileSetGrid(t *testing.T) {
	s := triangleScene(t)
	vp := s.Viewport()

	err := s.SetGrid(grid.Square, 0, 5, vp)
	require.Error(t, err)
	assert.Equal(t, grid.Triangle, s.Shape())
	assert.Equal(t, 1, s.Store().SegmentCount())

	bigger := geom.Rect{Max: geom.Coord{X: 640, Y: 640}}
	require.NoError(t, s.SetGrid(grid.Triangle, 4, 5, bigger))
	assert.Equal(t, 1, s.Store().SegmentCount())
	assert.Equal(t, bigger, s.Viewport())

	require.NoError(t, s.SetGrid(grid.Square, 3, 5, vp))
	assert.Equal(t, grid.Square, s.Shape())
	assert.Equal(t, 9, s.Store().NodeCount())
	assert.Equal(t, 0, s.Store().SegmentCount())
	assert.Equal(t, vp, s.Viewport())
}

func TestTileResizeKeepsConnections(t *testing.T) {
	s := triangleScene(t)
	before := nodeAt(t, s.Store(), 3)

	require.NoError(t, s.Resize(geom.Rect{Max: geom.Coord{X: 640, Y: 640}}))
	assert.True(t, s.Store().Has(1, 3))
	after := nodeAt(t, s.Store(), 3)
	assert.InDelta(t, 2*before.X, after.X, 1e-9)
	assert.InDelta(t, 2*before.Y, after.Y, 1e-9)

	assert.Error(t, s.Resize(geom.Rect{}))
	assert.Equal(t, 640.0, s.Viewport().Max.X)
}

func TestTileSymmetrySettings(t *testing.T) {
	s := triangleScene(t)
	require.NoError(t, s.SetShape(grid.Square))

	require.NoError(t, s.SetMode("rotation"))
	st := s.State()
	assert.Equal(t, 4, st.Fold)
	assert.False(t, st.Reflect)
	assert.Equal(t, 4, st.Transforms)

	assert.Error(t, s.SetMode("twirl"))
	assert.Error(t, s.SetSymmetry(0, true))
	assert.Equal(t, 4, s.State().Fold)

	s.SetCurve(3)
	assert.Equal(t, 0.5, s.State().Curve)
	assert.Error(t, s.SetColor("red"))
	require.NoError(t, s.SetColor("#AA0000"))
	assert.Equal(t, "#aa0000", s.State().LineColor)
}

func TestTileFrame(t *testing.T) {
	s := triangleScene(t)
	f := s.Frame()
	assert.NotEmpty(t, f.Lines)
	assert.Empty(t, f.Curves)
	assert.Empty(t, f.Markers)
	assert.Empty(t, f.Guides)
	assert.Equal(t, 320.0, f.ViewBox.Max.X)

	s.ShowNodes(true)
	s.ShowCell(true)
	_, _, _ = s.SelectNode(4)
	f = s.Frame()
	assert.Len(t, f.Markers, 10)
	assert.Len(t, f.Guides, 3)
	pending := 0
	for _, m := range f.Markers {
		if m.Pending {
			pending++
			assert.Equal(t, 4, m.ID)
		}
	}
	assert.Equal(t, 1, pending)

	s.SetCurve(0.2)
	f = s.Frame()
	assert.Empty(t, f.Lines)
	assert.Len(t, f.Curves, len(s.Lines()))
}

func TestTileRandom(t *testing.T) {
	s := triangleScene(t)
	seg, ok := s.Random()
	require.True(t, ok)
	assert.True(t, s.Store().Has(seg.A, seg.B))
	assert.Equal(t, 2, s.Store().SegmentCount())
}

////////////////////////////////////////////////////////////////////////////
// 3D

func spaceScene(t *testing.T, mutate func(sc *config.SpaceConfig)) *SpaceScene {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg.Raumharmonik)
	}
	s, err := NewSpaceScene(cfg.Raumharmonik, cfg.Canvas)
	require.NoError(t, err)
	return s
}

// lattice ids of a corner tetrahedron of the 3x3x3 lattice
const (
	corner = 1
	alongX = 10
	alongY = 4
	alongZ = 2
)

func TestSpaceLattice(t *testing.T) {
	s := spaceScene(t, nil)
	assert.Equal(t, 27, s.State().Nodes)
	n, _ := s.Store().Node(14)
	assert.True(t, geometry.AlmostEqualsVec(r3.Vec{}, n.Pos))

	require.NoError(t, s.SetSubdivisions(2))
	assert.Equal(t, 8, s.State().Nodes)
	assert.Error(t, s.SetSubdivisions(0))
	assert.Equal(t, 8, s.State().Nodes)
}

func TestSpaceComplete(t *testing.T) {
	s := spaceScene(t, func(sc *config.SpaceConfig) {
		sc.ShowVolumes = true
		sc.Segments = [][2]int{
			{corner, alongX}, {corner, alongY}, {corner, alongZ},
			{alongX, alongY}, {alongX, alongZ},
		}
	})
	assert.Len(t, s.Faces(), 2)
	assert.Empty(t, s.Volumes())

	assert.Equal(t, 1, s.Complete())
	assert.True(t, s.Store().Has(alongY, alongZ))
	assert.Len(t, s.Faces(), 4)
	assert.Len(t, s.Volumes(), 1)

	// one batch, one undo
	require.True(t, s.Undo())
	assert.Len(t, s.Faces(), 2)

	assert.Equal(t, 0, spaceScene(t, nil).Complete())
}

func TestSpaceRepeatedConfiguredSegment(t *testing.T) {
	s := spaceScene(t, func(sc *config.SpaceConfig) {
		sc.Segments = [][2]int{{1, 14}, {14, 1}}
	})
	assert.Equal(t, 1, s.Store().SegmentCount())
}

func TestSpaceSymmetry(t *testing.T) {
	s := spaceScene(t, func(sc *config.SpaceConfig) {
		sc.Segments = [][2]int{{corner, 14}}
	})
	assert.Len(t, s.Segments3D(), 1)

	var c symmetry.Config
	c.Reflections = [3]bool{true, true, true}
	require.NoError(t, s.SetSymmetry(c))
	assert.Len(t, s.Segments3D(), 8)
	assert.Equal(t, 8, s.State().Transforms)

	c.Rotation = symmetry.Rotation{Axis: symmetry.AxisX, Fold: 0}
	assert.Error(t, s.SetSymmetry(c))
	assert.Equal(t, 8, s.State().Transforms)
}

func TestSpaceClick(t *testing.T) {
	s := spaceScene(t, nil)

	// the centre pixel looks down the main diagonal, nearest corner wins
	centre := geom.Coord{X: 400, Y: 400}
	res, ok, err := s.ClickPixel(centre)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 27, res.Node)
	assert.Equal(t, motif.Selected, res.Outcome)

	res, _, _ = s.ClickPixel(centre)
	assert.Equal(t, motif.Cancelled, res.Outcome)

	_, _, _ = s.ClickPixel(centre)
	res, ok, err = s.Click(geometry.NewRay(r3.Vec{X: 2, Y: -0.5, Z: -0.5}, r3.Vec{X: -1}))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 19, res.Node)
	assert.Equal(t, motif.Committed, res.Outcome)
	assert.True(t, s.Store().Has(27, 19))

	_, ok, _ = s.Click(geometry.NewRay(r3.Vec{X: 2, Y: 2, Z: 2}, r3.Vec{X: 1}))
	assert.False(t, ok)
}

func TestSpaceFreeForm(t *testing.T) {
	s := spaceScene(t, func(sc *config.SpaceConfig) { sc.FreeForm = true })
	assert.Equal(t, 0, s.State().Nodes)

	first := geometry.NewRay(r3.Vec{X: 2, Y: 0.1, Z: 0.2}, r3.Vec{X: -1})
	res, ok, err := s.Click(first)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, motif.Selected, res.Outcome)
	n, _ := s.Store().Node(res.Node)
	assert.True(t, geometry.AlmostEqualsVec(r3.Vec{X: 0.5, Y: 0.1, Z: 0.2}, n.Pos))

	res, ok, err = s.Click(geometry.NewRay(r3.Vec{X: 0.1, Y: 2, Z: 0.3}, r3.Vec{Y: -1}))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, motif.Committed, res.Outcome)
	assert.Equal(t, 2, s.State().Nodes)
	assert.Equal(t, 1, s.Store().SegmentCount())

	// an existing point is picked again instead of stacking a new one
	res, _, _ = s.Click(first)
	assert.Equal(t, 1, res.Node)
	assert.Equal(t, 2, s.State().Nodes)

	// a ray that misses the cube places nothing
	_, ok, _ = s.Click(geometry.NewRay(r3.Vec{X: 2, Y: 2, Z: 2}, r3.Vec{X: 1}))
	assert.False(t, ok)

	require.NoError(t, s.SetFreeForm(false))
	assert.Equal(t, 27, s.State().Nodes)
}

func TestSpaceFrame(t *testing.T) {
	s := spaceScene(t, func(sc *config.SpaceConfig) {
		sc.ShowFaces = true
		sc.ShowVolumes = true
		sc.Segments = [][2]int{
			{corner, alongX}, {corner, alongY}, {corner, alongZ},
			{alongX, alongY}, {alongX, alongZ}, {alongY, alongZ},
		}
	})
	f := s.Frame()
	assert.Len(t, f.Guides, 12)
	assert.Len(t, f.Lines, 6)
	// four faces plus the four sides of the one volume
	require.Len(t, f.Faces, 8)
	for i := 1; i < len(f.Faces); i++ {
		assert.GreaterOrEqual(t, f.Faces[i-1].Depth, f.Faces[i].Depth)
	}
	assert.Empty(t, f.Markers)

	s.ShowNodes(true)
	assert.Len(t, s.Frame().Markers, 27)
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	r, err := FromConfig(cfg)
	require.NoError(t, err)
	assert.IsType(t, &TileScene{}, r)

	cfg.Scene = "raumharmonik"
	r, err = FromConfig(cfg)
	require.NoError(t, err)
	assert.IsType(t, &SpaceScene{}, r)

	cfg.Scene = "opera"
	_, err = FromConfig(cfg)
	var ce *geometry.ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "scene", ce.Field)
}

func TestWriteSVG(t *testing.T) {
	s := triangleScene(t)
	var buf bytes.Buffer
	stats, err := WriteSVG(&buf, s, render.Options{JoinPaths: true})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(buf.String()), "<"))
	assert.Contains(t, buf.String(), "<svg")
	assert.Positive(t, stats.Paths)
}
