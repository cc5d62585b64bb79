// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"

	"github.com/olegiv/realty-go/internal/model"
)

// compositeIndexes are created after the tables exist.
var compositeIndexes = []struct {
	model   any
	table   string
	name    string
	columns string
}{
	{&model.Property{}, "properties", "idx_properties_status_type", "status, type"},
	{&model.Blog{}, "blogs", "idx_blogs_status_published_at", "status, published_at"},
	{&model.BlogView{}, "blog_views", "idx_blog_views_blog_created", "blog_id, created_at"},
}

// migrations returns the versioned schema changes. Each step drives the gorm
// Migrator so the same history applies to every supported dialect.
func migrations(db *gorm.DB) []*goose.Migration {
	return []*goose.Migration{
		goose.NewGoMigration(1,
			&goose.GoFunc{RunDB: func(ctx context.Context, _ *sql.DB) error {
				return db.WithContext(ctx).AutoMigrate(model.All()...)
			}},
			&goose.GoFunc{RunDB: func(ctx context.Context, _ *sql.DB) error {
				m := db.WithContext(ctx).Migrator()
				if err := m.DropTable("user_favorites"); err != nil {
					return err
				}
				tables := model.All()
				slices.Reverse(tables)
				return m.DropTable(tables...)
			}},
		),
		goose.NewGoMigration(2,
			&goose.GoFunc{RunDB: func(ctx context.Context, _ *sql.DB) error {
				tx := db.WithContext(ctx)
				for _, idx := range compositeIndexes {
					if tx.Migrator().HasIndex(idx.model, idx.name) {
						continue
					}
					stmt := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
					if err := tx.Exec(stmt).Error; err != nil {
						return fmt.Errorf("creating index %s: %w", idx.name, err)
					}
				}
				return nil
			}},
			&goose.GoFunc{RunDB: func(ctx context.Context, _ *sql.DB) error {
				m := db.WithContext(ctx).Migrator()
				for _, idx := range compositeIndexes {
					if m.HasIndex(idx.model, idx.name) {
						if err := m.DropIndex(idx.model, idx.name); err != nil {
							return err
						}
					}
				}
				return nil
			}},
		),
	}
}

func gooseDialect(driver string) (goose.Dialect, error) {
	switch driver {
	case DriverPostgres:
		return goose.DialectPostgres, nil
	case DriverMySQL:
		return goose.DialectMySQL, nil
	case DriverSQLite:
		return goose.DialectSQLite3, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

func newProvider(db *gorm.DB, driver string) (*goose.Provider, error) {
	dialect, err := gooseDialect(driver)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting connection pool: %w", err)
	}
	provider, err := goose.NewProvider(dialect, sqlDB, nil,
		goose.WithGoMigrations(migrations(db)...),
		goose.WithDisableGlobalRegistry(true),
	)
	if err != nil {
		return nil, fmt.Errorf("creating migration provider: %w", err)
	}
	return provider, nil
}

// Migrate runs all pending database migrations.
func Migrate(ctx context.Context, db *gorm.DB, driver string) error {
	provider, err := newProvider(db, driver)
	if err != nil {
		return err
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	for _, r := range results {
		slog.Info("applied migration", "version", r.Source.Version, "duration", r.Duration)
	}
	return nil
}

// MigrationStatus describes one migration and whether it has been applied.
type MigrationStatus struct {
	Version int64
	Applied bool
}

// Status reports the state of every known migration.
func Status(ctx context.Context, db *gorm.DB, driver string) ([]MigrationStatus, error) {
	provider, err := newProvider(db, driver)
	if err != nil {
		return nil, err
	}

	statuses, err := provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading migration status: %w", err)
	}

	out := make([]MigrationStatus, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, MigrationStatus{
			Version: s.Source.Version,
			Applied: s.State == goose.StateApplied,
		})
	}
	return out, nil
}
