// Package missionlog persists mission runs and their event streams to a
// local SQLite database, so ground crews can review what a vehicle did after
// the fact.
package missionlog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const defaultDBName = "missions.db"

// Open opens (creating if needed) the mission log database at dir and
// ensures the schema is present. An empty dir uses the current directory.
func Open(dir string) (*sql.DB, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)", filepath.Join(dir, defaultDBName))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func migrate(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS missions (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			final_state TEXT,
			windows_detected INTEGER NOT NULL DEFAULT 0,
			windows_unique INTEGER NOT NULL DEFAULT 0,
			windows_cleaned INTEGER NOT NULL DEFAULT 0,
			waypoints INTEGER NOT NULL DEFAULT 0,
			battery REAL,
			fluid REAL,
			distance_m REAL,
			sim_elapsed_ms INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS mission_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			mission_id TEXT NOT NULL REFERENCES missions(id),
			seq INTEGER NOT NULL,
			kind TEXT NOT NULL,
			detail TEXT NOT NULL,
			battery REAL,
			fluid REAL
		)`,
		`CREATE TABLE IF NOT EXISTS mission_windows (
			mission_id TEXT NOT NULL REFERENCES missions(id),
			window_id INTEGER NOT NULL,
			cx REAL NOT NULL, cy REAL NOT NULL, cz REAL NOT NULL,
			width REAL NOT NULL, height REAL NOT NULL,
			cleaned INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (mission_id, window_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_mission_events_mission ON mission_events(mission_id)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("missionlog migrate: %w", err)
		}
	}
	return nil
}
