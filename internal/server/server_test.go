package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raumharmonik/internal/config"
	"raumharmonik/internal/scene"
)

const triangleBody = `{
	"canvas": {"width": 320, "height": 320},
	"tessellation": {
		"shape": "triangle",
		"subdivisions": 4,
		"size_factor": 5,
		"mode": "rotation_reflection",
		"segments": [[1, 3]]
	}
}`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return New(config.Default(), "test", nil)
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func createScene(t *testing.T, srv *Server) string {
	t.Helper()
	rec := do(t, srv, http.MethodPost, "/api/scenes", triangleBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decode[sceneResponse](t, rec)
	require.NotEmpty(t, resp.ID)
	return resp.ID
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Contains(t, rec.Body.String(), `"version":"test"`)
}

func TestCreateAndGetScene(t *testing.T) {
	srv := newTestServer(t)
	id := createScene(t, srv)

	rec := do(t, srv, http.MethodGet, "/api/scenes/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[sceneResponse](t, rec).State
	assert.Equal(t, "triangle", st.Shape)
	assert.Equal(t, 10, st.Nodes)
	assert.Equal(t, 3, st.Fold)
	assert.True(t, st.Reflect)
	assert.Equal(t, [][2]int{{1, 3}}, st.Segments)
	// unspecified fields keep their defaults
	assert.Equal(t, "#000000", st.LineColor)
	assert.Equal(t, 1, srv.Registry().Len())
}

func TestCreateSceneRejectsBadConfig(t *testing.T) {
	srv := newTestServer(t)
	rec := do(t, srv, http.MethodPost, "/api/scenes", `{"tessellation": {"shape": "pentagon"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	apiErr := decode[APIError](t, rec)
	assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
	assert.Contains(t, apiErr.Message, "shape")

	rec = do(t, srv, http.MethodPost, "/api/scenes", `{"tessellation": `)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "BAD_REQUEST", decode[APIError](t, rec).Code)
}

func TestRequestsLeaveDefaultsAlone(t *testing.T) {
	cfg := config.Default()
	reflect := true
	cfg.Tessellation.Reflect = &reflect
	cfg.Tessellation.Segments = [][2]int{{1, 2}, {2, 3}}
	cfg.Raumharmonik.Symmetry.Reflections = []string{"xy"}
	srv := New(cfg, "test", nil)

	rec := do(t, srv, http.MethodPost, "/api/scenes", `{"tessellation": {"reflect": false, "segments": [[4, 5]]}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	st := decode[sceneResponse](t, rec).State
	assert.False(t, st.Reflect)
	assert.Equal(t, [][2]int{{4, 5}}, st.Segments)

	rec = do(t, srv, http.MethodPost, "/api/render", `{"scene": "raumharmonik", "raumharmonik": {"symmetry": {"reflections": ["yz"]}}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.True(t, *cfg.Tessellation.Reflect)
	assert.Equal(t, [][2]int{{1, 2}, {2, 3}}, cfg.Tessellation.Segments)
	assert.Equal(t, []string{"xy"}, cfg.Raumharmonik.Symmetry.Reflections)

	rec = do(t, srv, http.MethodPost, "/api/scenes", `{}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	st = decode[sceneResponse](t, rec).State
	assert.True(t, st.Reflect)
	assert.Equal(t, [][2]int{{1, 2}, {2, 3}}, st.Segments)
}

func TestUnknownScene(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/api/scenes/nope", "/api/scenes/nope/frame.svg"} {
		rec := do(t, srv, http.MethodGet, path, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Equal(t, "NOT_FOUND", decode[APIError](t, rec).Code)
	}
	rec := do(t, srv, http.MethodPost, "/api/scenes/nope/undo", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSegments(t *testing.T) {
	srv := newTestServer(t)
	id := createScene(t, srv)
	path := "/api/scenes/" + id + "/segments"

	rec := do(t, srv, http.MethodPost, path, `{"a": 2, "b": 9}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decode[segmentResponse](t, rec)
	assert.Equal(t, 2, resp.Segment.A)
	assert.Len(t, resp.State.Segments, 2)

	rec = do(t, srv, http.MethodPost, path, `{"a": 9, "b": 2}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONFLICT", decode[APIError](t, rec).Code)

	rec = do(t, srv, http.MethodPost, path, `{"a": 1, "b": 1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, path, `{"a": 1, "b": 99}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/scenes/"+id+"/random", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, decode[segmentResponse](t, rec).State.Segments, 3)
}

func TestClick(t *testing.T) {
	srv := newTestServer(t)
	id := createScene(t, srv)
	path := "/api/scenes/" + id + "/click"

	rec := do(t, srv, http.MethodPost, path, `{"node": 4}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"outcome":"selected"`)
	resp := decode[clickResponse](t, rec)
	require.NotNil(t, resp.State.Pending)
	assert.Equal(t, 4, *resp.State.Pending)

	rec = do(t, srv, http.MethodPost, path, `{"node": 7}`)
	resp = decode[clickResponse](t, rec)
	assert.True(t, resp.Hit)
	require.NotNil(t, resp.Result)
	require.NotNil(t, resp.Result.Segment)
	assert.Len(t, resp.State.Segments, 2)

	rec = do(t, srv, http.MethodPost, path, `{"x": 1, "y": 1}`)
	resp = decode[clickResponse](t, rec)
	assert.False(t, resp.Hit)

	// a duplicate is reported, not failed
	do(t, srv, http.MethodPost, path, `{"node": 7}`)
	rec = do(t, srv, http.MethodPost, path, `{"node": 4}`)
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decode[clickResponse](t, rec)
	assert.Contains(t, resp.Reason, "already exists")
}

func TestHistory(t *testing.T) {
	srv := newTestServer(t)
	id := createScene(t, srv)
	base := "/api/scenes/" + id

	rec := do(t, srv, http.MethodPost, base+"/clear", "")
	resp := decode[changeResponse](t, rec)
	assert.True(t, resp.Changed)
	assert.Empty(t, resp.State.Segments)

	resp = decode[changeResponse](t, do(t, srv, http.MethodPost, base+"/undo", ""))
	assert.True(t, resp.Changed)
	assert.Len(t, resp.State.Segments, 1)

	resp = decode[changeResponse](t, do(t, srv, http.MethodPost, base+"/redo", ""))
	assert.True(t, resp.Changed)
	assert.Empty(t, resp.State.Segments)

	resp = decode[changeResponse](t, do(t, srv, http.MethodPost, base+"/redo", ""))
	assert.False(t, resp.Changed)
}

func TestSettings(t *testing.T) {
	srv := newTestServer(t)
	id := createScene(t, srv)
	base := "/api/scenes/" + id

	rec := do(t, srv, http.MethodPut, base+"/symmetry", `{"mode": "rotation6"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[sceneResponse](t, rec).State
	assert.Equal(t, 6, st.Fold)
	assert.False(t, st.Reflect)

	rec = do(t, srv, http.MethodPut, base+"/symmetry", `{"fold": 0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode[APIError](t, rec).Code)

	rec = do(t, srv, http.MethodPut, base+"/symmetry", `{"mode": "rotation_reflection3", "fold": 2}`)
	st = decode[sceneResponse](t, rec).State
	assert.Equal(t, 2, st.Fold)
	assert.True(t, st.Reflect)

	rec = do(t, srv, http.MethodPut, base+"/style", `{"curve": 0.2, "show_nodes": true, "line_color": "#FF0000"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	st = decode[sceneResponse](t, rec).State
	assert.Equal(t, 0.2, st.Curve)
	assert.True(t, st.ShowNodes)
	assert.Equal(t, "#ff0000", st.LineColor)

	// a canvas change keeps the motif
	rec = do(t, srv, http.MethodPut, base+"/grid", `{"width": 640, "height": 640}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[sceneResponse](t, rec).State.Segments, 1)

	rec = do(t, srv, http.MethodPut, base+"/grid", `{"subdivisions": 0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// a rejected grid change applies none of its fields
	rec = do(t, srv, http.MethodPut, base+"/grid", `{"shape": "square", "subdivisions": 0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	st = decode[sceneResponse](t, do(t, srv, http.MethodGet, base, "")).State
	assert.Equal(t, "triangle", st.Shape)
	assert.Equal(t, 4, st.Subdivisions)
	assert.Len(t, st.Segments, 1)

	rec = do(t, srv, http.MethodPut, base+"/grid", `{"shape": "square"}`)
	st = decode[sceneResponse](t, rec).State
	assert.Equal(t, 16, st.Nodes)
	assert.Empty(t, st.Segments)
}

func TestFrame(t *testing.T) {
	srv := newTestServer(t)
	id := createScene(t, srv)

	rec := do(t, srv, http.MethodGet, "/api/scenes/"+id+"/frame.svg?join=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, SVG_CONTENT_TYPE, rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Body.String(), "<svg")
	assert.Contains(t, rec.Body.String(), "<path")
}

func TestDeleteScene(t *testing.T) {
	srv := newTestServer(t)
	id := createScene(t, srv)

	rec := do(t, srv, http.MethodDelete, "/api/scenes/"+id, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, srv, http.MethodDelete, "/api/scenes/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 0, srv.Registry().Len())
}

func TestRender(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/render", triangleBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "<svg")

	rec = do(t, srv, http.MethodPost, "/api/render", `{"scene": "raumharmonik", "raumharmonik": {"segments": [[1, 14]], "show_nodes": true}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "data-node='27'")

	rec = do(t, srv, http.MethodPost, "/api/render", `{"scene": "opera"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegistryEvictsLeastRecentlyUsed(t *testing.T) {
	reg := NewRegistry(2)
	clock := time.Unix(0, 0)
	reg.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	tc := config.Default()
	mk := func() *scene.TileScene {
		s, err := scene.NewTileScene(tc.Tessellation, tc.Canvas)
		require.NoError(t, err)
		return s
	}

	first := reg.Add(mk())
	second := reg.Add(mk())
	ok, err := reg.With(first, func(*scene.TileScene) error { return nil })
	require.True(t, ok)
	require.NoError(t, err)

	third := reg.Add(mk())
	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, 1, reg.Evicted())

	ok, _ = reg.With(second, func(*scene.TileScene) error { return nil })
	assert.False(t, ok)
	ok, _ = reg.With(first, func(*scene.TileScene) error { return nil })
	assert.True(t, ok)
	ok, _ = reg.With(third, func(*scene.TileScene) error { return nil })
	assert.True(t, ok)
}
