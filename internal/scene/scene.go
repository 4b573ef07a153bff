package scene

import (
	"errors"
	"fmt"
	"io"
	"log"

	"raumharmonik/internal/config"
	"raumharmonik/internal/geometry"
	"raumharmonik/internal/motif"
	"raumharmonik/internal/render"
)

// Renderer is any scene that can be drawn.
type Renderer interface {
	Frame() render.Frame
	SetLogger(l *log.Logger)
}

// FromConfig builds the scene cfg.Scene names.
func FromConfig(cfg *config.Config) (Renderer, error) {
	switch cfg.Scene {
	case "tessellation", "":
		return NewTileScene(cfg.Tessellation, cfg.Canvas)
	case "raumharmonik", "space":
		return NewSpaceScene(cfg.Raumharmonik, cfg.Canvas)
	}
	return nil, geometry.Invalid("scene", cfg.Scene, "expected tessellation or raumharmonik")
}

// WriteSVG renders r to w.
func WriteSVG(w io.Writer, r Renderer, opt render.Options) (render.Stats, error) {
	stats, err := render.WriteSVG(w, r.Frame(), opt)
	if err != nil {
		return stats, fmt.Errorf("failed to render scene: %w", err)
	}
	return stats, nil
}

// commitPairs commits configured node pairs in order. A repeated pair is
// skipped.
func commitPairs(s *motif.Store, pairs [][2]int) error {
	for _, p := range pairs {
		if _, err := s.CommitSegment(p[0], p[1]); err != nil && !errors.Is(err, motif.ErrDuplicateSegment) {
			return fmt.Errorf("segment %d-%d: %w", p[0], p[1], err)
		}
	}
	return nil
}
