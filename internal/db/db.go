// Package db opens the SQLite database that backs the search history.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"weatherdash/internal/config"
	"weatherdash/internal/migrate"

	_ "github.com/mattn/go-sqlite3"
)

const pingTimeout = 5 * time.Second

// historyPragmas are appended to file-backed databases built from
// SQLITE_PATH. An explicit SQLITE_DSN is used untouched.
var historyPragmas = []string{
	"_foreign_keys=on",
	"_busy_timeout=5000",
	"_journal_mode=WAL",
}

// Open connects to the history database described by cfg and checks that it
// answers. With SQLiteLogSQL set every statement is logged through logger.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*sql.DB, error) {
	dsn, err := historyDSN(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := openPool(cfg, dsn, logger)
	if err != nil {
		return nil, err
	}
	tunePool(pool, cfg)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.PingContext(pingCtx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping history db: %w", err)
	}
	return pool, nil
}

// OpenMigrated opens the history database and brings its schema up to date.
// It returns the number of migrations applied by this call.
func OpenMigrated(ctx context.Context, cfg config.Config, logger *slog.Logger) (*sql.DB, int, error) {
	pool, err := Open(ctx, cfg, logger)
	if err != nil {
		return nil, 0, err
	}
	applied, err := migrate.Run(ctx, pool)
	if err != nil {
		_ = pool.Close()
		return nil, 0, err
	}
	return pool, applied, nil
}

func Close(pool *sql.DB) error {
	if pool == nil {
		return nil
	}
	return pool.Close()
}

func openPool(cfg config.Config, dsn string, logger *slog.Logger) (*sql.DB, error) {
	if !cfg.SQLiteLogSQL {
		pool, err := sql.Open(cfg.SQLiteDriver, dsn)
		if err != nil {
			return nil, fmt.Errorf("open history db: %w", err)
		}
		return pool, nil
	}
	connector, err := NewLoggingConnector(dsn, logger)
	if err != nil {
		return nil, fmt.Errorf("history db connector: %w", err)
	}
	return sql.OpenDB(connector), nil
}

// tunePool applies the pool limits from cfg. One open connection keeps
// SQLite to a single writer.
func tunePool(pool *sql.DB, cfg config.Config) {
	if cfg.SQLiteMaxOpenConns > 0 {
		pool.SetMaxOpenConns(cfg.SQLiteMaxOpenConns)
	}
	if cfg.SQLiteMaxIdleConns >= 0 {
		pool.SetMaxIdleConns(cfg.SQLiteMaxIdleConns)
	}
	if cfg.SQLiteConnMaxLifetime > 0 {
		pool.SetConnMaxLifetime(cfg.SQLiteConnMaxLifetime)
	}
}

// historyDSN resolves the DSN for cfg, creating the parent directory of a
// file-backed database.
func historyDSN(cfg config.Config) (string, error) {
	if cfg.SQLiteDSN != "" {
		return cfg.SQLiteDSN, nil
	}

	path := cfg.SQLitePath
	file, _, _ := strings.Cut(strings.TrimPrefix(path, "file:"), "?")
	if dir := filepath.Dir(file); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create history db dir %s: %w", dir, err)
		}
	}

	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(historyPragmas, "&"), nil
}
