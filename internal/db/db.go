package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"eve-starmap/internal/logger"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	sql *sql.DB
}

// DefaultPath prefers the working directory so the DB is stable across
// go run / go build, falling back to the executable directory.
func DefaultPath() string {
	if wd, err := os.Getwd(); err == nil {
		return filepath.Join(wd, "starmap.db")
	}
	exe, _ := os.Executable()
	return filepath.Join(filepath.Dir(exe), "starmap.db")
}

// Open opens (or creates) the SQLite database at path and runs migrations.
// An empty path means DefaultPath().
func Open(path string) (*DB, error) {
	if path == "" {
		path = DefaultPath()
	}
	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	d := &DB{sql: sqlDB}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	logger.Success("DB", fmt.Sprintf("Opened %s", path))
	return d, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) migrate() error {
	version := 0
	// Try to read current version
	d.sql.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)

	if version < 1 {
		_, err := d.sql.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);

			CREATE TABLE IF NOT EXISTS config (
				key   TEXT PRIMARY KEY,
				value TEXT NOT NULL
			);

			CREATE TABLE IF NOT EXISTS jump_bridges (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				from_system TEXT NOT NULL,
				to_system   TEXT NOT NULL,
				pair_key    TEXT NOT NULL UNIQUE,
				added_at    TEXT NOT NULL
			);

			CREATE TABLE IF NOT EXISTS system_telemetry (
				system_id  INTEGER PRIMARY KEY,
				npc_kills  INTEGER NOT NULL DEFAULT 0,
				pod_kills  INTEGER NOT NULL DEFAULT 0,
				ship_kills INTEGER NOT NULL DEFAULT 0,
				ship_jumps INTEGER NOT NULL DEFAULT 0,
				fetched_at TEXT NOT NULL
			);

			CREATE TABLE IF NOT EXISTS telemetry_history (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				timestamp   TEXT NOT NULL,
				systems     INTEGER NOT NULL,
				ship_kills  INTEGER NOT NULL,
				ship_jumps  INTEGER NOT NULL,
				duration_ms INTEGER NOT NULL,
				error       TEXT NOT NULL DEFAULT ''
			);
			CREATE INDEX IF NOT EXISTS idx_telemetry_history_ts ON telemetry_history(timestamp);

			INSERT OR IGNORE INTO schema_version (version) VALUES (1);
		`)
		if err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
	}
	return nil
}

// SqlDB returns the underlying *sql.DB.
func (d *DB) SqlDB() *sql.DB {
	return d.sql
}
