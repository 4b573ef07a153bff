package server

import (
	"bytes"
	"io"
	"log"
	"net/http"

	"github.com/jbeda/geom"
	"github.com/labstack/echo/v4"

	"raumharmonik/internal/config"
	"raumharmonik/internal/grid"
	"raumharmonik/internal/motif"
	"raumharmonik/internal/render"
	"raumharmonik/internal/scene"
)

const SVG_CONTENT_TYPE = "image/svg+xml"

// Handler serves the sketch API.
type Handler struct {
	reg      *Registry
	defaults config.Config
	version  string
	log      *log.Logger
}

// NewHandler creates a handler whose new scenes start from defaults.
func NewHandler(reg *Registry, defaults config.Config, version string, l *log.Logger) *Handler {
	if l == nil {
		l = log.New(io.Discard, "", 0)
	}
	return &Handler{reg: reg, defaults: defaults, version: version, log: l}
}

func (h *Handler) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": h.version,
		"scenes":  h.reg.Len(),
	})
}

func renderOptions(c echo.Context, l *log.Logger) render.Options {
	return render.Options{
		JoinPaths:      c.QueryParam("join") == "true",
		CountCrossings: c.QueryParam("crossings") == "true",
		Logger:         l,
	}
}

func (h *Handler) writeSVG(c echo.Context, r scene.Renderer) error {
	var buf bytes.Buffer
	stats, err := scene.WriteSVG(&buf, r, renderOptions(c, h.log))
	if err != nil {
		return NewInternalError("failed to render", err)
	}
	h.log.Printf("Rendered %d paths, %d faces, %d markers", stats.Paths, stats.Faces, stats.Markers)
	return c.Blob(http.StatusOK, SVG_CONTENT_TYPE, buf.Bytes())
}

// HandleRender draws a one-off scene from a full configuration.
func (h *Handler) HandleRender(c echo.Context) error {
	cfg := h.defaults.Clone()
	if err := c.Bind(&cfg); err != nil {
		return NewBadRequestError("invalid configuration", err)
	}
	cfg.ApplyDefaults()
	r, err := scene.FromConfig(&cfg)
	if err != nil {
		return err
	}
	r.SetLogger(h.log)
	return h.writeSVG(c, r)
}

type createRequest struct {
	Canvas       config.CanvasConfig       `json:"canvas"`
	Tessellation config.TessellationConfig `json:"tessellation"`
}

type sceneResponse struct {
	ID    string          `json:"id"`
	State scene.TileState `json:"state"`
}

func (h *Handler) HandleCreateScene(c echo.Context) error {
	defaults := h.defaults.Clone()
	req := createRequest{Canvas: defaults.Canvas, Tessellation: defaults.Tessellation}
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid scene configuration", err)
	}
	cfg := config.Config{Canvas: req.Canvas, Tessellation: req.Tessellation}
	cfg.ApplyDefaults()

	s, err := scene.NewTileScene(cfg.Tessellation, cfg.Canvas)
	if err != nil {
		return err
	}
	s.SetLogger(h.log)
	id := h.reg.Add(s)
	return c.JSON(http.StatusCreated, sceneResponse{ID: id, State: s.State()})
}

// withScene runs f on the scene named by the :id parameter and replies with
// whatever f returns, or the scene state when f returns nil.
func (h *Handler) withScene(c echo.Context, status int, f func(s *scene.TileScene) (interface{}, error)) error {
	id := c.Param("id")
	var body interface{}
	ok, err := h.reg.With(id, func(s *scene.TileScene) error {
		out, err := f(s)
		if err != nil {
			return err
		}
		if out == nil {
			out = sceneResponse{ID: id, State: s.State()}
		}
		body = out
		return nil
	})
	if !ok {
		return NewNotFoundError("scene", id)
	}
	if err != nil {
		return err
	}
	return c.JSON(status, body)
}

func (h *Handler) HandleGetScene(c echo.Context) error {
	return h.withScene(c, http.StatusOK, func(s *scene.TileScene) (interface{}, error) {
		return nil, nil
	})
}

func (h *Handler) HandleDeleteScene(c echo.Context) error {
	id := c.Param("id")
	if !h.reg.Delete(id) {
		return NewNotFoundError("scene", id)
	}
	return c.NoContent(http.StatusNoContent)
}

type clickRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	// Node selects by id instead of position.
	Node *int `json:"node"`
}

type clickResponse struct {
	Hit    bool               `json:"hit"`
	Result *scene.ClickResult `json:"result,omitempty"`
	// Reason explains a rejected selection.
	Reason string          `json:"reason,omitempty"`
	State  scene.TileState `json:"state"`
}

func (h *Handler) HandleClick(c echo.Context) error {
	var req clickRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid click", err)
	}
	return h.withScene(c, http.StatusOK, func(s *scene.TileScene) (interface{}, error) {
		var res scene.ClickResult
		var hit bool
		var err error
		if req.Node != nil {
			res, hit, err = s.SelectNode(*req.Node)
		} else {
			res, hit, err = s.Click(geom.Coord{X: req.X, Y: req.Y})
		}
		out := clickResponse{Hit: hit, State: s.State()}
		if hit {
			out.Result = &res
		}
		if err != nil {
			out.Reason = err.Error()
		}
		return out, nil
	})
}

type segmentRequest struct {
	A int `json:"a"`
	B int `json:"b"`
}

type segmentResponse struct {
	Segment motif.Segment   `json:"segment"`
	State   scene.TileState `json:"state"`
}

func (h *Handler) HandleAddSegment(c echo.Context) error {
	var req segmentRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid segment", err)
	}
	return h.withScene(c, http.StatusCreated, func(s *scene.TileScene) (interface{}, error) {
		seg, err := s.Connect(req.A, req.B)
		if err != nil {
			return nil, err
		}
		return segmentResponse{Segment: seg, State: s.State()}, nil
	})
}

func (h *Handler) HandleRandom(c echo.Context) error {
	return h.withScene(c, http.StatusCreated, func(s *scene.TileScene) (interface{}, error) {
		seg, ok := s.Random()
		if !ok {
			return nil, NewConflictError("no unconnected node pair found")
		}
		return segmentResponse{Segment: seg, State: s.State()}, nil
	})
}

type changeResponse struct {
	Changed bool            `json:"changed"`
	State   scene.TileState `json:"state"`
}

func (h *Handler) history(c echo.Context, op func(s *scene.TileScene) bool) error {
	return h.withScene(c, http.StatusOK, func(s *scene.TileScene) (interface{}, error) {
		changed := op(s)
		return changeResponse{Changed: changed, State: s.State()}, nil
	})
}

func (h *Handler) HandleUndo(c echo.Context) error {
	return h.history(c, (*scene.TileScene).Undo)
}

func (h *Handler) HandleRedo(c echo.Context) error {
	return h.history(c, (*scene.TileScene).Redo)
}

func (h *Handler) HandleClear(c echo.Context) error {
	return h.history(c, (*scene.TileScene).Clear)
}

type symmetryRequest struct {
	Mode    string `json:"mode"`
	Fold    *int   `json:"fold"`
	Reflect *bool  `json:"reflect"`
}

// HandleSetSymmetry takes either a mode token or an explicit fold and
// mirror flag.
func (h *Handler) HandleSetSymmetry(c echo.Context) error {
	var req symmetryRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid symmetry", err)
	}
	return h.withScene(c, http.StatusOK, func(s *scene.TileScene) (interface{}, error) {
		st := s.State()
		fold, reflect := st.Fold, st.Reflect
		if req.Mode != "" {
			var err error
			if fold, reflect, err = config.ParseMode(s.Shape(), req.Mode); err != nil {
				return nil, err
			}
		}
		if req.Fold != nil {
			fold = *req.Fold
		}
		if req.Reflect != nil {
			reflect = *req.Reflect
		}
		return nil, s.SetSymmetry(fold, reflect)
	})
}

type gridRequest struct {
	Shape        string   `json:"shape"`
	Subdivisions *int     `json:"subdivisions"`
	SizeFactor   *float64 `json:"size_factor"`
	Width        *int     `json:"width"`
	Height       *int     `json:"height"`
}

// HandleSetGrid changes the base cell or the canvas. Shape, subdivision and
// size changes clear the motif. A canvas change keeps it.
func (h *Handler) HandleSetGrid(c echo.Context) error {
	var req gridRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid grid", err)
	}
	return h.withScene(c, http.StatusOK, func(s *scene.TileScene) (interface{}, error) {
		st := s.State()
		shape := s.Shape()
		if req.Shape != "" {
			var err error
			if shape, err = grid.ParseShape(req.Shape); err != nil {
				return nil, err
			}
		}
		n, f := st.Subdivisions, st.SizeFactor
		if req.Subdivisions != nil {
			n = *req.Subdivisions
		}
		if req.SizeFactor != nil {
			f = *req.SizeFactor
		}
		vp := s.Viewport()
		if req.Width != nil {
			vp.Max.X = vp.Min.X + float64(*req.Width)
		}
		if req.Height != nil {
			vp.Max.Y = vp.Min.Y + float64(*req.Height)
		}
		return nil, s.SetGrid(shape, n, f, vp)
	})
}

type styleRequest struct {
	Curve     *float64 `json:"curve"`
	LineColor string   `json:"line_color"`
	ShowNodes *bool    `json:"show_nodes"`
	ShowCell  *bool    `json:"show_cell"`
}

func (h *Handler) HandleSetStyle(c echo.Context) error {
	var req styleRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid style", err)
	}
	return h.withScene(c, http.StatusOK, func(s *scene.TileScene) (interface{}, error) {
		if req.LineColor != "" {
			if err := s.SetColor(req.LineColor); err != nil {
				return nil, err
			}
		}
		if req.Curve != nil {
			s.SetCurve(*req.Curve)
		}
		if req.ShowNodes != nil {
			s.ShowNodes(*req.ShowNodes)
		}
		if req.ShowCell != nil {
			s.ShowCell(*req.ShowCell)
		}
		return nil, nil
	})
}

func (h *Handler) HandleFrame(c echo.Context) error {
	id := c.Param("id")
	var frame render.Frame
	ok, _ := h.reg.With(id, func(s *scene.TileScene) error {
		frame = s.Frame()
		return nil
	})
	if !ok {
		return NewNotFoundError("scene", id)
	}
	var buf bytes.Buffer
	if _, err := render.WriteSVG(&buf, frame, renderOptions(c, h.log)); err != nil {
		return NewInternalError("failed to render", err)
	}
	return c.Blob(http.StatusOK, SVG_CONTENT_TYPE, buf.Bytes())
}
