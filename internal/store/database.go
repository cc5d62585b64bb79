// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package store opens the database, runs migrations and seeds default content.
package store

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Supported drivers. Values match config.Driver*.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// DBConfig holds database configuration options.
type DBConfig struct {
	Driver string
	DSN    string
	// MaxOpenConns is the maximum number of open connections to the database.
	MaxOpenConns int
	// MaxIdleConns is the maximum number of connections in the idle connection pool.
	MaxIdleConns int
	// ConnMaxLifetime is the maximum amount of time a connection may be reused.
	ConnMaxLifetime time.Duration
	// ConnMaxIdleTime is the maximum amount of time a connection may be idle.
	ConnMaxIdleTime time.Duration
	// SlowQueryThreshold logs queries slower than this at WARN level.
	SlowQueryThreshold time.Duration
	// LogQueries logs every SQL statement at INFO level.
	LogQueries bool
}

// DefaultDBConfig returns sensible pool defaults for the given driver and DSN.
func DefaultDBConfig(driver, dsn string) DBConfig {
	return DBConfig{
		Driver:             driver,
		DSN:                dsn,
		MaxOpenConns:       25,
		MaxIdleConns:       10,
		ConnMaxLifetime:    30 * time.Minute,
		ConnMaxIdleTime:    5 * time.Minute,
		SlowQueryThreshold: 500 * time.Millisecond,
	}
}

// Open connects to the database with default pool settings.
func Open(driver, dsn string) (*gorm.DB, error) {
	return OpenWithConfig(DefaultDBConfig(driver, dsn))
}

// OpenWithConfig connects to the database and configures the connection pool.
func OpenWithConfig(cfg DBConfig) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	logLevel := logger.Warn
	if cfg.LogQueries {
		logLevel = logger.Info
	}
	gormLogger := logger.New(
		slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn),
		logger.Config{
			SlowThreshold:             cfg.SlowQueryThreshold,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

// Close closes the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func dialectorFor(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case DriverPostgres:
		return postgres.Open(dsn), nil
	case DriverMySQL:
		dsnCfg, err := mysqldriver.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("parsing mysql DSN: %w", err)
		}
		// time.Time columns need parseTime.
		dsnCfg.ParseTime = true
		if dsnCfg.Loc == nil {
			dsnCfg.Loc = time.UTC
		}
		return mysql.Open(dsnCfg.FormatDSN()), nil
	case DriverSQLite:
		return sqlite.Open(sqliteDSN(dsn)), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// sqlitePragmas are applied per connection through the DSN.
var sqlitePragmas = []string{
	"_journal_mode=WAL",  // Write-Ahead Logging for better concurrency
	"_busy_timeout=5000", // Wait 5s when database is locked
	"_synchronous=NORMAL",
	"_foreign_keys=on", // Enforce foreign key constraints
}

// sqliteDSN appends connection pragmas that the DSN does not set itself.
func sqliteDSN(dsn string) string {
	var missing []string
	for _, p := range sqlitePragmas {
		name, _, _ := strings.Cut(p, "=")
		if !strings.Contains(dsn, name+"=") {
			missing = append(missing, p)
		}
	}
	if len(missing) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(missing, "&")
}
