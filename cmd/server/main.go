// Package main is the entry point for the user-management backend.
//
// The main package stays minimal — its job is to:
//  1. Set up logging
//  2. Load configuration
//  3. Create and start the server
//
// All actual logic lives in imported packages (internal/server,
// internal/handler, ...). This separation keeps the app testable: tests
// construct the same components without running main.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rlbk/nodejs-backend/internal/config"
	"github.com/rlbk/nodejs-backend/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// The config file path can be overridden for deployments; secrets in
	// the file can themselves be overridden by environment variables (see
	// internal/config).
	configPath := "config.yaml"
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		configPath = env
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// The database file and the upload temp dir live under directories that
	// may not exist on first run.
	for _, dir := range []string{filepath.Dir(cfg.DB.Path), cfg.Upload.TempDir} {
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

	// Start blocks until the server shuts down (Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
