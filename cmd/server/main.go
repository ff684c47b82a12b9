// Package main is the entry point for the memories API server.
//
// main stays minimal: read configuration from the environment, build the
// logger, hand both to internal/server, and exit non-zero on failure.
// All actual behavior lives in the internal packages.
package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sakif/spacetime/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	port := 3333
	if portStr := os.Getenv("PORT"); portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
		port = p
	}

	dbPath := "data/spacetime.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", filepath.Dir(dbPath)),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	uploadDir := "uploads"
	if envUploads := os.Getenv("UPLOAD_DIR"); envUploads != "" {
		uploadDir = envUploads
	}

	// JWT_SECRET signs every bearer token; generate one with
	//   openssl rand -hex 32
	// The server refuses to start without it — a guessable secret means
	// anyone can mint tokens for any user.
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	githubClientID := os.Getenv("GITHUB_CLIENT_ID")
	githubClientSecret := os.Getenv("GITHUB_CLIENT_SECRET")
	if githubClientID == "" || githubClientSecret == "" {
		logger.Error("GITHUB_CLIENT_ID and GITHUB_CLIENT_SECRET are required")
		os.Exit(1)
	}

	cfg := server.Config{
		Port:               port,
		DBPath:             dbPath,
		UploadDir:          uploadDir,
		JWTSecret:          jwtSecret,
		GitHubClientID:     githubClientID,
		GitHubClientSecret: githubClientSecret,
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Blocks until SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
