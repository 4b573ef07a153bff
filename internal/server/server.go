// Package server exposes tessellation scenes over HTTP: create a scene,
// feed it clicks and settings, and fetch the current frame as SVG.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"raumharmonik/internal/config"
)

const (
	// BODY_LIMIT bounds request bodies. Scene configs are small.
	BODY_LIMIT = "1M"

	SHUTDOWN_TIMEOUT = 10 * time.Second
)

// Server wraps the echo instance and the scene registry.
type Server struct {
	echo     *echo.Echo
	registry *Registry
	cfg      *config.Config
	log      *log.Logger
}

// New builds the server and registers every route.
func New(cfg *config.Config, version string, l *log.Logger) *Server {
	reg := NewRegistry(cfg.Server.MaxScenes)
	h := NewHandler(reg, *cfg, version, l)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = ErrorHandler
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/api/health"
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(BODY_LIMIT))

	RegisterRoutes(e, h)
	return &Server{echo: e, registry: reg, cfg: cfg, log: h.log}
}

// RegisterRoutes mounts the API on e.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	api := e.Group("/api")
	api.GET("/health", h.HandleHealth)
	api.POST("/render", h.HandleRender)

	scenes := api.Group("/scenes")
	scenes.POST("", h.HandleCreateScene)
	scenes.GET("/:id", h.HandleGetScene)
	scenes.DELETE("/:id", h.HandleDeleteScene)
	scenes.POST("/:id/click", h.HandleClick)
	scenes.POST("/:id/segments", h.HandleAddSegment)
	scenes.POST("/:id/random", h.HandleRandom)
	scenes.POST("/:id/undo", h.HandleUndo)
	scenes.POST("/:id/redo", h.HandleRedo)
	scenes.POST("/:id/clear", h.HandleClear)
	scenes.PUT("/:id/symmetry", h.HandleSetSymmetry)
	scenes.PUT("/:id/grid", h.HandleSetGrid)
	scenes.PUT("/:id/style", h.HandleSetStyle)
	scenes.GET("/:id/frame.svg", h.HandleFrame)
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Registry() *Registry {
	return s.registry
}

func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
}

// Start blocks serving on Addr until Shutdown.
func (s *Server) Start() error {
	s.log.Printf("Server listening on %s", s.Addr())
	if err := s.echo.Start(s.Addr()); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), SHUTDOWN_TIMEOUT)
	defer cancel()
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
