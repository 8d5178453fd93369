// Package main is the entry point for the learnloop API server. It reads
// configuration from the environment, builds the logger, and hands off to
// internal/server.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sakif/learnloop/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		var err error
		port, err = strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
	}

	dbPath := "data/learnloop.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", filepath.Dir(dbPath)),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// JWT_SECRET signs session tokens and is the one mandatory setting.
	// Generate with: openssl rand -hex 32
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	// External API credentials are optional: without them the affected
	// operations report service_unavailable instead of blocking startup.
	youtubeKey := os.Getenv("YOUTUBE_API_KEY")
	if youtubeKey == "" {
		logger.Warn("YOUTUBE_API_KEY not set, video search will be unavailable")
	}
	googleAPIKey := os.Getenv("GOOGLE_API_KEY")
	if googleAPIKey == "" {
		logger.Warn("GOOGLE_API_KEY not set, lesson generation will degrade")
	}
	identityBaseURL := os.Getenv("IDENTITY_BASE_URL")

	corsOrigins := []string{"http://localhost:3000"}
	if envOrigins := os.Getenv("CORS_ORIGINS"); envOrigins != "" {
		corsOrigins = strings.Split(envOrigins, ",")
		for i := range corsOrigins {
			corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
		}
	}

	googleCallbackURL := os.Getenv("GOOGLE_CALLBACK_URL")
	if googleCallbackURL == "" {
		googleCallbackURL = fmt.Sprintf("http://localhost:%d/auth/google/callback", port)
	}

	cfg := server.Config{
		Port:               port,
		DBPath:             dbPath,
		JWTSecret:          jwtSecret,
		YouTubeAPIKey:      youtubeKey,
		GoogleAPIKey:       googleAPIKey,
		IdentityBaseURL:    identityBaseURL,
		CORSOrigins:        corsOrigins,
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleCallbackURL:  googleCallbackURL,
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
