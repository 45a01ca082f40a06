package graph

import (
	"database/sql"
	"fmt"
)

const symbolSchemaVersion = 1

// migrateSymbolSchema creates the store tables on a fresh database and
// rejects databases written by a newer schema.
func migrateSymbolSchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if version > symbolSchemaVersion {
		return fmt.Errorf("symbol store schema v%d is newer than supported v%d", version, symbolSchemaVersion)
	}
	if version == symbolSchemaVersion {
		return nil
	}

	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS file_blobs (
  project_key TEXT NOT NULL,
  file_path TEXT NOT NULL,
  module_name TEXT NOT NULL,
  content_hash TEXT NOT NULL,
  blob BLOB NOT NULL,
  PRIMARY KEY (project_key, file_path)
);

CREATE TABLE IF NOT EXISTS definitions (
  project_key TEXT NOT NULL,
  qualified_name TEXT NOT NULL,
  symbol_name TEXT NOT NULL,
  module_name TEXT NOT NULL,
  class_name TEXT NOT NULL DEFAULT '',
  file_path TEXT NOT NULL,
  line_number INTEGER NOT NULL DEFAULT 0,
  parameters TEXT NOT NULL DEFAULT '[]',
  return_type TEXT NOT NULL DEFAULT 'Any',
  PRIMARY KEY (project_key, qualified_name)
);
CREATE INDEX IF NOT EXISTS idx_definitions_project_name ON definitions(project_key, symbol_name);

CREATE TABLE IF NOT EXISTS call_edges (
  project_key TEXT NOT NULL,
  caller TEXT NOT NULL,
  callee TEXT NOT NULL,
  sites INTEGER NOT NULL DEFAULT 1,
  PRIMARY KEY (project_key, caller, callee)
);
CREATE INDEX IF NOT EXISTS idx_call_edges_project_callee ON call_edges(project_key, callee);

CREATE TABLE IF NOT EXISTS runs (
  run_id TEXT PRIMARY KEY,
  project_key TEXT NOT NULL,
  started_at INTEGER NOT NULL,
  finished_at INTEGER NOT NULL,
  files INTEGER NOT NULL DEFAULT 0,
  parsed INTEGER NOT NULL DEFAULT 0,
  cached INTEGER NOT NULL DEFAULT 0,
  skipped INTEGER NOT NULL DEFAULT 0,
  definitions INTEGER NOT NULL DEFAULT 0,
  edges INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_runs_project_started ON runs(project_key, started_at);

PRAGMA user_version = 1;
`)
	if err != nil {
		return fmt.Errorf("create v1 schema: %w", err)
	}
	return nil
}
