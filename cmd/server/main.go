package main

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"raumharmonik/internal/config"
	"raumharmonik/internal/server"
)

const VERSION = "0.1.0"

func main() {
	log.Println("Starting sketch server...")

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/server.yaml"
	}

	cfg, err := config.Load(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Printf("No configuration at %s, using defaults", configPath)
		cfg = config.Default()
	case err != nil:
		log.Fatalf("Failed to load configuration: %v", err)
	default:
		log.Printf("Configuration loaded from %s", configPath)
	}

	srv := server.New(cfg, VERSION, log.Default())
	log.Printf("Server will run on %s, keeping at most %d scenes", srv.Addr(), cfg.Server.MaxScenes)

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		log.Fatalf("Server error: %v", err)
	case sig := <-sigChan:
		log.Printf("Received signal %v, shutting down...", sig)
	}

	if err := srv.Shutdown(); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	log.Printf("Server stopped, %d scenes evicted", srv.Registry().Evicted())
}
