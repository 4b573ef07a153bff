// Package config loads sketch and server settings from YAML and turns the
// UI-level tokens (shape names, symmetry modes, colours) into the values
// the core packages take.
package config

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Config holds everything one run needs.
type Config struct {
	// Scene picks what cmd/sketch renders: "tessellation" or "raumharmonik".
	Scene        string             `yaml:"scene" json:"scene"`
	Canvas       CanvasConfig       `yaml:"canvas" json:"canvas"`
	Tessellation TessellationConfig `yaml:"tessellation" json:"tessellation"`
	Raumharmonik SpaceConfig        `yaml:"raumharmonik" json:"raumharmonik"`
	Server       ServerConfig       `yaml:"server" json:"server"`
}

// CanvasConfig is the pixel viewport.
type CanvasConfig struct {
	Width      int    `yaml:"width" json:"width"`
	Height     int    `yaml:"height" json:"height"`
	Background string `yaml:"background" json:"background"`
}

// TessellationConfig describes a 2D sketch.
type TessellationConfig struct {
	Shape        string  `yaml:"shape" json:"shape"`
	Subdivisions int     `yaml:"subdivisions" json:"subdivisions"`
	SizeFactor   float64 `yaml:"size_factor" json:"size_factor"`
	// Mode is a symmetry token such as "rotation_reflection6". Fold and
	// Reflect override it when set.
	Mode        string  `yaml:"mode" json:"mode"`
	Fold        int     `yaml:"fold" json:"fold"`
	Reflect     *bool   `yaml:"reflect" json:"reflect"`
	Curve       float64 `yaml:"curve" json:"curve"`
	LineColor   string  `yaml:"line_color" json:"line_color"`
	StrokeWidth float64 `yaml:"stroke_width" json:"stroke_width"`
	ShowNodes   bool    `yaml:"show_nodes" json:"show_nodes"`
	ShowCell    bool    `yaml:"show_cell" json:"show_cell"`
	// Segments are node id pairs committed in order.
	Segments [][2]int `yaml:"segments" json:"segments"`
	// RandomSegments are added after Segments, drawn from Seed.
	RandomSegments int    `yaml:"random_segments" json:"random_segments"`
	Seed           uint64 `yaml:"seed" json:"seed"`
}

type RotationConfig struct {
	Axis string `yaml:"axis" json:"axis"`
	Fold int    `yaml:"fold" json:"fold"`
}

type TranslationConfig struct {
	Axis  string  `yaml:"axis" json:"axis"`
	Count int     `yaml:"count" json:"count"`
	Step  float64 `yaml:"step" json:"step"`
}

type RotoreflectionConfig struct {
	Enabled bool    `yaml:"enabled" json:"enabled"`
	Axis    string  `yaml:"axis" json:"axis"`
	Plane   string  `yaml:"plane" json:"plane"`
	Angle   float64 `yaml:"angle" json:"angle"` // degrees
	Count   int     `yaml:"count" json:"count"`
}

type ScrewConfig struct {
	Enabled  bool    `yaml:"enabled" json:"enabled"`
	Axis     string  `yaml:"axis" json:"axis"`
	Angle    float64 `yaml:"angle" json:"angle"` // degrees
	Distance float64 `yaml:"distance" json:"distance"`
	Count    int     `yaml:"count" json:"count"`
}

// SymmetryConfig is the 3D point group, in UI tokens.
type SymmetryConfig struct {
	// Reflections lists the enabled mirror planes: xy, yz, zx.
	Reflections    []string             `yaml:"reflections" json:"reflections"`
	Rotation       RotationConfig       `yaml:"rotation" json:"rotation"`
	Translation    TranslationConfig    `yaml:"translation" json:"translation"`
	Inversion      bool                 `yaml:"inversion" json:"inversion"`
	Rotoreflection RotoreflectionConfig `yaml:"rotoreflection" json:"rotoreflection"`
	Screw          ScrewConfig          `yaml:"screw" json:"screw"`
}

// SpaceConfig describes a 3D sketch inside the unit cube.
type SpaceConfig struct {
	Subdivisions int `yaml:"subdivisions" json:"subdivisions"`
	// FreeForm starts with no lattice. Points are placed where clicks meet
	// the cube.
	FreeForm  bool           `yaml:"free_form" json:"free_form"`
	Symmetry  SymmetryConfig `yaml:"symmetry" json:"symmetry"`
	LineColor string         `yaml:"line_color" json:"line_color"`
	ShowNodes bool           `yaml:"show_nodes" json:"show_nodes"`
	ShowFaces bool           `yaml:"show_faces" json:"show_faces"`
	// ShowVolumes also shades tetrahedra and lets completion close them.
	ShowVolumes bool     `yaml:"show_volumes" json:"show_volumes"`
	Segments    [][2]int `yaml:"segments" json:"segments"`
	// Complete runs surface completion once after Segments.
	Complete    bool `yaml:"complete" json:"complete"`
	MaxNewEdges int  `yaml:"max_new_edges" json:"max_new_edges"`
}

type ServerConfig struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`
	// MaxScenes bounds the number of live interactive scenes.
	MaxScenes int `yaml:"max_scenes" json:"max_scenes"`
}

// Default returns a config with every default filled in.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML and fills the defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// Clone returns a deep copy, so decoding into it leaves cfg untouched.
func (cfg Config) Clone() Config {
	out := cfg
	out.Tessellation = cfg.Tessellation.Clone()
	out.Raumharmonik = cfg.Raumharmonik.Clone()
	return out
}

func (t TessellationConfig) Clone() TessellationConfig {
	out := t
	out.Segments = slices.Clone(t.Segments)
	if t.Reflect != nil {
		reflect := *t.Reflect
		out.Reflect = &reflect
	}
	return out
}

func (s SpaceConfig) Clone() SpaceConfig {
	out := s
	out.Segments = slices.Clone(s.Segments)
	out.Symmetry.Reflections = slices.Clone(s.Symmetry.Reflections)
	return out
}

// ApplyDefaults sets every zero field that has a default.
func (cfg *Config) ApplyDefaults() {
	if cfg.Scene == "" {
		cfg.Scene = "tessellation"
	}
	if cfg.Canvas.Width == 0 {
		cfg.Canvas.Width = 800
	}
	if cfg.Canvas.Height == 0 {
		cfg.Canvas.Height = 800
	}
	if cfg.Canvas.Background == "" {
		cfg.Canvas.Background = "#ffffff"
	}
	cfg.Tessellation.applyDefaults()
	cfg.Raumharmonik.applyDefaults()
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.MaxScenes == 0 {
		cfg.Server.MaxScenes = 64
	}
}

func (t *TessellationConfig) applyDefaults() {
	if t.Shape == "" {
		t.Shape = "hexagon"
	}
	if t.Subdivisions == 0 {
		t.Subdivisions = 3
	}
	if t.SizeFactor == 0 {
		t.SizeFactor = 4
	}
	if t.Mode == "" {
		t.Mode = "rotation_reflection"
	}
	if t.LineColor == "" {
		t.LineColor = "#000000"
	}
	if t.StrokeWidth == 0 {
		t.StrokeWidth = 2
	}
}

func (s *SpaceConfig) applyDefaults() {
	if s.Subdivisions == 0 {
		s.Subdivisions = 3
	}
	if s.LineColor == "" {
		s.LineColor = "#000000"
	}
	if s.MaxNewEdges == 0 {
		s.MaxNewEdges = 20
	}
}
