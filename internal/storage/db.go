package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

func InitDB(path string) (*sql.DB, error) {
	if path == "" {
		path = "portpulse.db"
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("error open db: %w", err)
	}

	// sqlite allows a single writer at a time.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error ping db: %w", err)
	}

	_, err = db.Exec(`
	CREATE TABLE IF NOT EXISTS watches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		target TEXT NOT NULL,
		port INTEGER NOT NULL CHECK (port BETWEEN 1 AND 65535),
		timeout_ms INTEGER NOT NULL DEFAULT 2000,
		interval_seconds INTEGER NOT NULL DEFAULT 60,
		skip_liveness INTEGER NOT NULL DEFAULT 0,
		enabled INTEGER NOT NULL DEFAULT 1
	);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating watches table: %w", err)
	}

	_, err = db.Exec(`
	CREATE TABLE IF NOT EXISTS results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		watch_id INTEGER REFERENCES watches(id) ON DELETE CASCADE,
		batch_id TEXT NOT NULL DEFAULT '',
		target TEXT NOT NULL,
		port INTEGER NOT NULL,
		host_reachable TEXT NOT NULL,
		connection_status TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		checked_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_results_target_port ON results(target, port);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating results table: %w", err)
	}

	return db, nil
}
