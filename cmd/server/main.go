// Package main is the entry point for the ExecMind API server.
//
// MAIN PACKAGE:
// main stays minimal. Its job is to:
//  1. Read configuration (YAML file and environment, see internal/config)
//  2. Build the logger
//  3. Make sure the data and upload directories exist
//  4. Hand everything to server.New and block in Start
//
// All actual logic lives in the internal packages.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/execmind/internal/config"
	"github.com/sakif/execmind/internal/logging"
	"github.com/sakif/execmind/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := logging.New(cfg.Log)

	// os.MkdirAll is a no-op for directories that already exist.
	dirs := []string{cfg.Uploads.Dir}
	if cfg.Database.Path != ":memory:" {
		dirs = append(dirs, filepath.Dir(cfg.Database.Path))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("failed to create directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT or SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
