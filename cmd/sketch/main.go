// Command sketch renders one scene described by a YAML file to SVG.
package main

import (
	"flag"
	"io"
	"log"
	"os"

	"raumharmonik/internal/config"
	"raumharmonik/internal/render"
	"raumharmonik/internal/scene"
)

func main() {
	configPath := flag.String("config", "", "scene configuration (YAML); defaults when empty")
	outPath := flag.String("out", "", "output SVG file; stdout when empty")
	join := flag.Bool("join", true, "chain touching lines into polylines")
	crossings := flag.Bool("crossings", false, "count line crossings")
	verbose := flag.Bool("v", false, "log progress")
	flag.Parse()

	l := log.New(os.Stderr, "sketch: ", log.LstdFlags)

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			l.Fatalf("Failed to load configuration: %v", err)
		}
	}

	r, err := scene.FromConfig(cfg)
	if err != nil {
		l.Fatalf("Failed to build %s scene: %v", cfg.Scene, err)
	}
	if *verbose {
		r.SetLogger(l)
	}

	var w io.Writer = os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			l.Fatalf("Failed to create output: %v", err)
		}
		defer f.Close()
		w = f
	}

	opt := render.Options{JoinPaths: *join, CountCrossings: *crossings}
	if *verbose {
		opt.Logger = l
	}
	stats, err := scene.WriteSVG(w, r, opt)
	if err != nil {
		l.Fatalf("%v", err)
	}
	l.Printf("%s: %d lines, %d curves in %d paths (%d closed, length %.1f), %d faces, %d markers",
		cfg.Scene, stats.Lines, stats.Curves, stats.Paths, stats.Loops, stats.Length, stats.Faces, stats.Markers)
	if *crossings {
		l.Printf("%d crossings", stats.Crossings)
	}
}
