package scene

import (
	"log"
	"slices"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jbeda/geom"
	"gonum.org/v1/gonum/spatial/r3"

	"raumharmonik/internal/config"
	"raumharmonik/internal/geometry"
	"raumharmonik/internal/grid"
	"raumharmonik/internal/motif"
	"raumharmonik/internal/render"
	"raumharmonik/internal/symmetry"
	"raumharmonik/internal/topology"
)

const (
	// CUBE_HALF_SIZE bounds the 3D scene to [-0.5, 0.5] on every axis.
	CUBE_HALF_SIZE = 0.5
	// PICK_THRESHOLD is a squared world distance, about a fifth of the
	// spacing of a 3x3x3 lattice.
	PICK_THRESHOLD = 0.01
)

// SpaceScene is a 3D Raumharmonik sketch inside the unit cube.
type SpaceScene struct {
	n        int
	freeForm bool
	box      geometry.Box

	store  *motif.Store
	sel    motif.Selector
	engine *symmetry.Engine
	cache  topology.Cache
	camera *render.Camera

	color       string
	background  string
	showNodes   bool
	showFaces   bool
	showVolumes bool
	maxNewEdges int

	log *log.Logger
}

// NewSpaceScene builds a scene from its configuration, committing the
// configured segments and running completion if asked to.
func NewSpaceScene(sc config.SpaceConfig, canvas config.CanvasConfig) (*SpaceScene, error) {
	sym, err := sc.Symmetry.Build()
	if err != nil {
		return nil, err
	}
	me := &SpaceScene{
		n:           sc.Subdivisions,
		freeForm:    sc.FreeForm,
		box:         geometry.Cube(CUBE_HALF_SIZE),
		engine:      symmetry.NewEngine(),
		color:       render.DEFAULT_STROKE,
		background:  canvas.Background,
		showNodes:   sc.ShowNodes,
		showFaces:   sc.ShowFaces,
		showVolumes: sc.ShowVolumes,
		maxNewEdges: sc.MaxNewEdges,
		log:         discard(),
	}
	me.camera = render.DefaultCamera(geom.Rect{Max: geom.Coord{X: float64(canvas.Width), Y: float64(canvas.Height)}})

	nodes, err := me.baseNodes(me.n, me.freeForm)
	if err != nil {
		return nil, err
	}
	me.store = motif.NewStore(nodes)
	if err := me.engine.SetConfig(sym); err != nil {
		return nil, err
	}
	if sc.LineColor != "" {
		c, err := config.ParseColor(sc.LineColor)
		if err != nil {
			return nil, err
		}
		me.color = c
	}

	if err := commitPairs(me.store, sc.Segments); err != nil {
		return nil, err
	}
	if sc.Complete {
		me.Complete()
	}
	return me, nil
}

func (me *SpaceScene) baseNodes(n int, freeForm bool) ([]grid.LatticePoint, error) {
	if freeForm {
		return nil, nil
	}
	return grid.Lattice(n, me.box)
}

func (me *SpaceScene) SetLogger(l *log.Logger) {
	if l == nil {
		l = discard()
	}
	me.log = l
	me.engine.SetLogger(l)
}

func (me *SpaceScene) Store() *motif.Store        { return me.store }
func (me *SpaceScene) Engine() *symmetry.Engine   { return me.engine }
func (me *SpaceScene) Camera() *render.Camera     { return me.camera }
func (me *SpaceScene) Box() geometry.Box          { return me.box }
func (me *SpaceScene) FreeForm() bool             { return me.freeForm }
func (me *SpaceScene) Faces() []topology.Face     { return me.cache.Faces(me.store) }
func (me *SpaceScene) Volumes() []topology.Volume { return me.cache.Volumes(me.store) }

// SetSubdivisions rebuilds the lattice. Connections and history are
// cleared.
func (me *SpaceScene) SetSubdivisions(n int) error {
	if n < 1 {
		return geometry.Invalid("lattice subdivisions", n, "must be at least 1")
	}
	nodes, err := me.baseNodes(n, me.freeForm)
	if err != nil {
		return err
	}
	me.n = n
	me.store.Reset(nodes)
	me.sel.Reset()
	return nil
}

// SetFreeForm switches between lattice and free-form placement, clearing
// the motif.
func (me *SpaceScene) SetFreeForm(on bool) error {
	nodes, err := me.baseNodes(me.n, on)
	if err != nil {
		return err
	}
	me.freeForm = on
	me.store.Reset(nodes)
	me.sel.Reset()
	return nil
}

// SetSymmetry replaces the whole point group. Connections survive.
func (me *SpaceScene) SetSymmetry(c symmetry.Config) error {
	return me.engine.SetConfig(c)
}

func (me *SpaceScene) SetColor(color string) error {
	c, err := config.ParseColor(color)
	if err != nil {
		return err
	}
	me.color = c
	return nil
}

func (me *SpaceScene) ShowNodes(on bool)   { me.showNodes = on }
func (me *SpaceScene) ShowFaces(on bool)   { me.showFaces = on }
func (me *SpaceScene) ShowVolumes(on bool) { me.showVolumes = on }

// Click resolves a pick ray to a node and feeds it to the selection state
// machine. In free-form mode a ray that meets the cube away from every
// node places a new one there.
func (me *SpaceScene) Click(ray geometry.Ray) (ClickResult, bool, error) {
	pick := me.store.PickNearest3D(ray, me.box, PICK_THRESHOLD)
	if !pick.Found {
		if !me.freeForm || !pick.OnBox {
			return ClickResult{}, false, nil
		}
		pick.Node = me.store.AddPoint(pick.Surface)
	}
	return selectNode(&me.sel, me.store, pick.Node.ID)
}

// ClickPixel is Click for a viewport position seen through the camera.
func (me *SpaceScene) ClickPixel(px geom.Coord) (ClickResult, bool, error) {
	return me.Click(me.camera.Ray(px))
}

func (me *SpaceScene) Connect(a, b int) (motif.Segment, error) {
	return me.store.CommitSegment(a, b)
}

func (me *SpaceScene) Undo() bool { return me.store.Undo() }
func (me *SpaceScene) Redo() bool { return me.store.Redo() }

func (me *SpaceScene) Clear() bool {
	me.sel.Reset()
	return me.store.Clear()
}

// Complete commits the edges that close almost-complete triangles, and
// tetrahedra when volumes are shown, as one undoable action. It returns the
// number of edges added.
func (me *SpaceScene) Complete() int {
	g := topology.Adjacency(me.store)
	pairs := topology.ProposeCompletion(g, me.maxNewEdges, me.showVolumes)
	added := me.store.CommitBatch(pairs)
	me.log.Printf("Completion proposed %d edges, added %d", len(pairs), len(added))
	return len(added)
}

// Segments3D is the world-space orbit of every connection under the
// transform set, without duplicates.
func (me *SpaceScene) Segments3D() [][2]r3.Vec {
	transforms := me.engine.Transforms()
	seen := make(map[string]bool)
	var out [][2]r3.Vec
	for _, seg := range me.store.Segments() {
		a, b, ok := me.store.Endpoints(seg)
		if !ok {
			continue
		}
		for _, m := range transforms {
			ta, tb := geometry.Apply(m, a), geometry.Apply(m, b)
			ka, kb := geometry.Key3(ta), geometry.Key3(tb)
			if kb < ka {
				ka, kb = kb, ka
			}
			key := ka + "|" + kb
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, [2]r3.Vec{ta, tb})
		}
	}
	me.log.Printf("Number of 3D segments after dedup: %d", len(out))
	return out
}

func (me *SpaceScene) cubeEdges() [][2]r3.Vec {
	lo, hi := me.box.Min, me.box.Max
	corner := func(i int) r3.Vec {
		v := lo
		if i&1 != 0 {
			v.X = hi.X
		}
		if i&2 != 0 {
			v.Y = hi.Y
		}
		if i&4 != 0 {
			v.Z = hi.Z
		}
		return v
	}
	var edges [][2]r3.Vec
	for i := 0; i < 8; i++ {
		for _, bit := range []int{1, 2, 4} {
			if i&bit == 0 {
				edges = append(edges, [2]r3.Vec{corner(i), corner(i | bit)})
			}
		}
	}
	return edges
}

// surfaces is the symmetric image of every face, and of every volume side
// when volumes are shown, farthest first.
func (me *SpaceScene) surfaces(transforms []mgl64.Mat4) []render.Polygon {
	g := topology.Adjacency(me.store)
	seen := make(map[string]bool)
	var polys []render.Polygon

	add := func(keys []string, fill string) {
		pts := make([]r3.Vec, 0, len(keys))
		for _, k := range keys {
			p, ok := g.Position(k)
			if !ok {
				return
			}
			pts = append(pts, p)
		}
		for _, m := range transforms {
			world := make([]r3.Vec, len(pts))
			wk := make([]string, len(pts))
			for i, p := range pts {
				world[i] = geometry.Apply(m, p)
				wk[i] = geometry.Key3(world[i])
			}
			slices.Sort(wk)
			key := fill + "#" + strings.Join(wk, "|")
			if seen[key] {
				continue
			}
			seen[key] = true

			poly := render.Polygon{Fill: fill}
			depth := 0.0
			for _, w := range world {
				poly.Points = append(poly.Points, me.camera.Project(w))
				depth += me.camera.Depth(w)
			}
			poly.Depth = depth / float64(len(world))
			polys = append(polys, poly)
		}
	}

	if me.showFaces {
		for _, f := range me.Faces() {
			add(f.Keys[:], render.FACE_FILL)
		}
	}
	if me.showVolumes {
		for _, v := range me.Volumes() {
			k := v.Keys
			for _, side := range [][]string{{k[0], k[1], k[2]}, {k[0], k[1], k[3]}, {k[0], k[2], k[3]}, {k[1], k[2], k[3]}} {
				add(side, render.VOLUME_FILL)
			}
		}
	}

	slices.SortStableFunc(polys, func(a, b render.Polygon) int {
		switch {
		case a.Depth > b.Depth:
			return -1
		case a.Depth < b.Depth:
			return 1
		}
		return 0
	})
	return polys
}

// Frame projects the current state through the camera.
func (me *SpaceScene) Frame() render.Frame {
	f := render.Frame{
		ViewBox:    me.camera.Viewport,
		Background: me.background,
		Stroke:     me.color,
	}
	for _, e := range me.cubeEdges() {
		f.Guides = append(f.Guides, render.Line{A: me.camera.Project(e[0]), B: me.camera.Project(e[1])})
	}
	f.Faces = me.surfaces(me.engine.Transforms())
	for _, s := range me.Segments3D() {
		f.Lines = append(f.Lines, render.Line{A: me.camera.Project(s[0]), B: me.camera.Project(s[1])})
	}

	if me.showNodes || me.freeForm {
		pending, active := me.sel.Pending()
		for _, n := range me.store.Nodes() {
			f.Markers = append(f.Markers, render.Marker{At: me.camera.Project(n.Pos), ID: n.ID, Pending: active && n.ID == pending})
		}
	}
	return f
}

// SpaceState is the JSON view of a 3D scene.
type SpaceState struct {
	Subdivisions int      `json:"subdivisions"`
	FreeForm     bool     `json:"free_form"`
	Nodes        int      `json:"nodes"`
	Segments     [][2]int `json:"segments"`
	Pending      *int     `json:"pending,omitempty"`
	Transforms   int      `json:"transforms"`
	Faces        int      `json:"faces"`
	Volumes      int      `json:"volumes"`
	CanUndo      bool     `json:"can_undo"`
	CanRedo      bool     `json:"can_redo"`
}

func (me *SpaceScene) State() SpaceState {
	st := SpaceState{
		Subdivisions: me.n,
		FreeForm:     me.freeForm,
		Nodes:        me.store.NodeCount(),
		Segments:     [][2]int{},
		Transforms:   len(me.engine.Transforms()),
		Faces:        len(me.Faces()),
		Volumes:      len(me.Volumes()),
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
