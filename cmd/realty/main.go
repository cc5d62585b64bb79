// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Command realty runs the Pacific Realty backend and its maintenance tasks.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/olegiv/realty-go/internal/config"
	"github.com/olegiv/realty-go/internal/logging"
	"github.com/olegiv/realty-go/internal/store"
)

const brand = "Pacific Realty"

var rootCmd = &cobra.Command{
	Use:   "realty",
	Short: "Pacific Realty backend",
	Long: `Real-estate backend serving properties, blogs, leads, newsletters
and site content over a JSON API.

Run without a subcommand to start the HTTP server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(createAdminCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// env is what every subcommand needs before it can do its work.
type env struct {
	cfg   *config.Config
	db    *gorm.DB
	level slog.Level
}

// bootstrap loads configuration, installs the logger and opens the
// database. When migrate is set, pending migrations are applied and WARN+
// log records start flowing into the events table.
func bootstrap(ctx context.Context, migrate bool) (*env, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	level := parseLogLevel(cfg.LogLevel)
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(textHandler))

	slog.Info("opening database", "driver", cfg.DBDriver)
	db, err := store.Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if migrate {
		slog.Info("running database migrations")
		if err := store.Migrate(ctx, db, cfg.DBDriver); err != nil {
			_ = store.Close(db)
			return nil, fmt.Errorf("running migrations: %w", err)
		}
		slog.Info("database ready")

		slog.SetDefault(slog.New(logging.NewEventLogHandler(textHandler, db)))
		slog.Info("event log integration enabled", "min_level", "warn")
	}

	return &env{cfg: cfg, db: db, level: level}, nil
}

func (e *env) close() {
	if err := store.Close(e.db); err != nil {
		slog.Error("error closing database connection", "error", err)
	}
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
