// Package scene owns the state of one sketch: the grid, the motif drawn on
// it, the symmetry engine and the derived caches. A scene is driven by
// pointer and settings events and turned into a render.Frame on demand.
// Scenes are not safe for concurrent use.
package scene

import (
	"io"
	"log"
	"math/rand/v2"

	"github.com/jbeda/geom"

	"raumharmonik/internal/config"
	"raumharmonik/internal/geometry"
	"raumharmonik/internal/grid"
	"raumharmonik/internal/motif"
	"raumharmonik/internal/render"
	"raumharmonik/internal/symmetry"
	"raumharmonik/internal/tiling"
)

// Pointer tolerances in pixels. Hexagon nodes sit closer together at the
// same canvas size, so they get a wider target.
const (
	CLICK_RADIUS     = 10.0
	HEX_CLICK_RADIUS = 20.0
)

func discard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// ClickResult describes what a pointer event did.
type ClickResult struct {
	Node    int           `json:"node"`
	Outcome motif.Outcome `json:"outcome"`
	// Segment is set when the click committed a connection.
	Segment *motif.Segment `json:"segment,omitempty"`
}

// TileScene is a 2D tessellation sketch.
type TileScene struct {
	shape    grid.Shape
	n        int
	f        float64
	viewport geom.Rect
	g        grid.Grid

	store  *motif.Store
	sel    motif.Selector
	engine *symmetry.Engine
	fold   int
	mirror bool

	curve       float64
	color       string
	background  string
	strokeWidth float64
	showNodes   bool
	showCell    bool

	rng *rand.Rand
	log *log.Logger
}

// NewTileScene builds a scene from its configuration, committing the
// configured and random segments.
func NewTileScene(tc config.TessellationConfig, canvas config.CanvasConfig) (*TileScene, error) {
	shape, err := grid.ParseShape(tc.Shape)
	if err != nil {
		return nil, err
	}
	viewport := geom.Rect{Max: geom.Coord{X: float64(canvas.Width), Y: float64(canvas.Height)}}
	g, err := grid.Generate(shape, tc.Subdivisions, tc.SizeFactor, viewport)
	if err != nil {
		return nil, err
	}
	sym, err := tc.PlanarSymmetry(shape)
	if err != nil {
		return nil, err
	}

	me := &TileScene{
		shape:       shape,
		n:           tc.Subdivisions,
		f:           tc.SizeFactor,
		viewport:    viewport,
		g:           g,
		store:       motif.NewStore(g.Nodes),
		engine:      symmetry.NewEngine(),
		curve:       config.ClampCurve(tc.Curve),
		color:       render.DEFAULT_STROKE,
		background:  canvas.Background,
		strokeWidth: tc.StrokeWidth,
		showNodes:   tc.ShowNodes,
		showCell:    tc.ShowCell,
		rng:         rand.New(rand.NewPCG(tc.Seed, tc.Seed^0x9e3779b97f4a7c15)),
		log:         discard(),
	}
	if err := me.engine.SetConfig(sym); err != nil {
		return nil, err
	}
	me.fold, me.mirror = planarParams(sym)
	if tc.LineColor != "" {
		if err := me.SetColor(tc.LineColor); err != nil {
			return nil, err
		}
	}

	if err := commitPairs(me.store, tc.Segments); err != nil {
		return nil, err
	}
	for i := 0; i < tc.RandomSegments; i++ {
		me.store.AddRandomSegment(me.rng)
	}
	return me, nil
}

func planarParams(c symmetry.Config) (int, bool) {
	fold := 1
	if c.Rotation.Axis == symmetry.AxisZ && c.Rotation.Fold > 1 {
		fold = c.Rotation.Fold
	}
	return fold, c.Reflections[symmetry.PlaneYZ]
}

// SetLogger sends progress counts to l. A nil logger discards them.
func (me *TileScene) SetLogger(l *log.Logger) {
	if l == nil {
		l = discard()
	}
	me.log = l
	me.engine.SetLogger(l)
}

func (me *TileScene) Shape() grid.Shape   { return me.shape }
func (me *TileScene) Grid() grid.Grid     { return me.g }
func (me *TileScene) Store() *motif.Store { return me.store }
func (me *TileScene) Viewport() geom.Rect { return me.viewport }

// regenerate rebuilds the grid for a topology change. On error nothing
// changes.
func (me *TileScene) regenerate(shape grid.Shape, n int, f float64, viewport geom.Rect) error {
	g, err := grid.Generate(shape, n, f, viewport)
	if err != nil {
		return err
	}
	me.shape, me.n, me.f, me.viewport, me.g = shape, n, f, viewport, g
	me.store.Reset(g.Nodes)
	me.sel.Reset()
	return nil
}

// SetGrid applies a shape, subdivision, size and canvas change at once.
// When only the canvas changes the motif is kept as in Resize, otherwise it
// is cleared. On error nothing changes.
func (me *TileScene) SetGrid(shape grid.Shape, n int, f float64, viewport geom.Rect) error {
	if shape == me.shape && n == me.n && f == me.f {
		return me.Resize(viewport)
	}
	return me.regenerate(shape, n, f, viewport)
}

// SetShape switches the base cell. Connections are cleared.
func (me *TileScene) SetShape(shape grid.Shape) error {
	return me.regenerate(shape, me.n, me.f, me.viewport)
}

// SetSubdivisions changes the node count. Connections are cleared.
func (me *TileScene) SetSubdivisions(n int) error {
	return me.regenerate(me.shape, n, me.f, me.viewport)
}

// SetSizeFactor changes the cell size relative to the canvas. Connections
// are cleared.
func (me *TileScene) SetSizeFactor(f float64) error {
	return me.regenerate(me.shape, me.n, f, me.viewport)
}

// Resize rebuilds the grid for a new canvas with the same shape,
// subdivisions and size factor. Node ids are stable so connections survive
// and move with their nodes.
func (me *TileScene) Resize(viewport geom.Rect) error {
	g, err := grid.Generate(me.shape, me.n, me.f, viewport)
	if err != nil {
		return err
	}
	if err := me.store.Relocate(g.Nodes); err != nil {
		return err
	}
	me.viewport, me.g = viewport, g
	return nil
}

// SetSymmetry sets the N-fold rotation and the vertical mirror.
func (me *TileScene) SetSymmetry(fold int, reflect bool) error {
	if fold < 1 {
		return geometry.Invalid("fold", fold, "must be at least 1")
	}
	if err := me.engine.SetConfig(symmetry.Planar(fold, reflect)); err != nil {
		return err
	}
	me.fold, me.mirror = fold, reflect
	return nil
}

// SetMode sets the symmetry from a mode token, resolved against the
// current shape.
func (me *TileScene) SetMode(token string) error {
	fold, reflect, err := config.ParseMode(me.shape, token)
	if err != nil {
		return err
	}
	return me.SetSymmetry(fold, reflect)
}

// SetCurve sets the bow of every connection, clamped to [-0.5, 0.5].
func (me *TileScene) SetCurve(c float64) {
	me.curve = config.ClampCurve(c)
}

func (me *TileScene) SetColor(color string) error {
	c, err := config.ParseColor(color)
	if err != nil {
		return err
	}
	me.color = c
	return nil
}

func (me *TileScene) ShowNodes(on bool) { me.showNodes = on }
func (me *TileScene) ShowCell(on bool)  { me.showCell = on }

// Click feeds a pointer press at px through the selection state machine.
// ok is false when no node is near enough. err explains a Rejected outcome.
func (me *TileScene) Click(px geom.Coord) (ClickResult, bool, error) {
	radius := CLICK_RADIUS
	if me.shape == grid.Hexagon {
		radius = HEX_CLICK_RADIUS
	}
	n, ok := me.store.PickNearest2D(px, radius)
	if !ok {
		return ClickResult{}, false, nil
	}
	return selectNode(&me.sel, me.store, n.ID)
}

// SelectNode feeds a node id through the selection state machine as if it
// had been clicked.
func (me *TileScene) SelectNode(id int) (ClickResult, bool, error) {
	if _, ok := me.store.Node(id); !ok {
		return ClickResult{}, false, nil
	}
	return selectNode(&me.sel, me.store, id)
}

func selectNode(sel *motif.Selector, s *motif.Store, id int) (ClickResult, bool, error) {
	out, seg, err := sel.Select(s, id)
	res := ClickResult{Node: id, Outcome: out}
	if out == motif.Committed {
		res.Segment = &seg
	}
	return res, true, err
}

// Connect commits a segment directly, bypassing the selection state.
func (me *TileScene) Connect(a, b int) (motif.Segment, error) {
	return me.store.CommitSegment(a, b)
}

func (me *TileScene) Undo() bool { return me.store.Undo() }
func (me *TileScene) Redo() bool { return me.store.Redo() }

// Clear removes every connection as one undoable action and drops any
// pending selection.
func (me *TileScene) Clear() bool {
	me.sel.Reset()
	return me.store.Clear()
}

// Random adds one connection between two random unconnected nodes.
func (me *TileScene) Random() (motif.Segment, bool) {
	return me.store.AddRandomSegment(me.rng)
}

func (me *TileScene) baseSegments() [][2]geom.Coord {
	segs := me.store.Segments()
	out := make([][2]geom.Coord, 0, len(segs))
	for _, s := range segs {
		a, b, ok := me.store.Endpoints(s)
		if !ok {
			continue
		}
		out = append(out, [2]geom.Coord{geometry.Coord(a), geometry.Coord(b)})
	}
	return out
}

// Lines replicates the motif across the canvas.
func (me *TileScene) Lines() []tiling.Line {
	return tiling.Replicate(me.g, me.baseSegments(), me.engine.Transforms(), me.viewport, tiling.Options{
		// bowed lines depend on direction
		Directed: me.curve != 0,
		Logger:   me.log,
	})
}

// Frame renders the current state.
func (me *TileScene) Frame() render.Frame {
	f := render.Frame{
		ViewBox:     me.viewport,
		Background:  me.background,
		Stroke:      me.color,
		StrokeWidth: me.strokeWidth,
	}

	if me.showCell {
		c := me.g.OuterCorners
		for i := range c {
			f.Guides = append(f.Guides, render.Line{A: c[i], B: c[(i+1)%len(c)]})
		}
	}

	for _, ln := range me.Lines() {
		if ctrl, ok := geometry.BowControl(ln.A, ln.B, me.curve); ok {
			f.Curves = append(f.Curves, render.Curve{A: ln.A, Ctrl: ctrl, B: ln.B})
		} else {
			f.Lines = append(f.Lines, render.Line{A: ln.A, B: ln.B})
		}
	}

	if me.showNodes {
		pending, active := me.sel.Pending()
		for _, n := range me.store.Nodes() {
			f.Markers = append(f.Markers, render.Marker{At: n.Coord(), ID: n.ID, Pending: active && n.ID == pending})
		}
	}
	return f
}

// TileState is the JSON view of a tessellation scene.
type TileState struct {
	Shape        string   `json:"shape"`
	Subdivisions int      `json:"subdivisions"`
	SizeFactor   float64  `json:"size_factor"`
	Fold         int      `json:"fold"`
	Reflect      bool     `json:"reflect"`
	Curve        float64  `json:"curve"`
	LineColor    string   `json:"line_color"`
	ShowNodes    bool     `json:"show_nodes"`
	Nodes        int      `json:"nodes"`
	Segments     [][2]int `json:"segments"`
	Pending      *int     `json:"pending,omitempty"`
	Transforms   int      `json:"transforms"`
	Crossings    int      `json:"crossings"`
	CanUndo      bool     `json:"can_undo"`
	CanRedo      bool     `json:"can_redo"`
}

func (me *TileScene) State() TileState {
	st := TileState{
		Shape:        me.shape.String(),
		Subdivisions: me.n,
		SizeFactor:   me.f,
		Fold:         me.fold,
		Reflect:      me.mirror,
		Curve:        me.curve,
		LineColor:    me.color,
		ShowNodes:    me.showNodes,
		Nodes:        me.store.NodeCount(),
		Segments:     [][2]int{},
		Transforms:   len(me.engine.Transforms()),
		Crossings:    me.store.Crossings(),
		CanUndo:      me.store.CanUndo(),
		CanRedo:      me.store.CanRedo(),
	}
	for _, s := range me.store.Segments() {
		st.Segments = append(st.Segments, [2]int{s.A, s.B})
	}
	if id, ok := me.sel.Pending(); ok {
		st.Pending = &id
	}
	return st
}
