package graph

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"pymap/internal/engine/parser"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const sqliteDriverName = "sqlite"

type SQLiteSymbolStore struct {
	db          *sql.DB
	projectKey  string
	callersStmt *sql.Stmt
	calleesStmt *sql.Stmt

	cacheMu     sync.RWMutex
	callerCache map[string][]CallEdge
}

var _ Store = (*SQLiteSymbolStore)(nil)

// RunRecord is one row of the run history.
type RunRecord struct {
	ID       string
	Started  time.Time
	Finished time.Time
	Stats    Stats
}

func OpenSQLiteSymbolStore(path, projectKey string, busyTimeout time.Duration) (*SQLiteSymbolStore, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("symbol store path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("symbol store path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create symbol store directory %q: %w", dir, err)
		}
	}

	if busyTimeout <= 0 {
		busyTimeout = 5 * time.Second
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", cleanPath, busyTimeout.Milliseconds())
	db, err := sql.Open(sqliteDriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite symbol store %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite symbol store %q: %w", cleanPath, err)
	}

	if err := migrateSymbolSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	key := strings.TrimSpace(projectKey)
	if key == "" {
		key = "default"
	}

	callersStmt, err := db.Prepare(`SELECT caller, callee, sites FROM call_edges
WHERE project_key = ? AND callee = ?
ORDER BY caller`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("prepare callers stmt: %w", err)
	}

	calleesStmt, err := db.Prepare(`SELECT caller, callee, sites FROM call_edges
WHERE project_key = ? AND caller = ?
ORDER BY callee`)
	if err != nil {
		_ = callersStmt.Close()
		_ = db.Close()
		return nil, fmt.Errorf("prepare callees stmt: %w", err)
	}

	return &SQLiteSymbolStore{
		db:          db,
		projectKey:  key,
		callersStmt: callersStmt,
		calleesStmt: calleesStmt,
		callerCache: make(map[string][]CallEdge),
	}, nil
}

func (s *SQLiteSymbolStore) clearCache() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.callerCache = make(map[string][]CallEdge)
}

func (s *SQLiteSymbolStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	if s.callersStmt != nil {
		_ = s.callersStmt.Close()
	}
	if s.calleesStmt != nil {
		_ = s.calleesStmt.Close()
	}
	return s.db.Close()
}

func (s *SQLiteSymbolStore) LoadFile(path, contentHash string) (*parser.File, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialized")
	}
	var (
		storedHash string
		blob       []byte
	)
	err := s.db.QueryRow(`SELECT content_hash, blob FROM file_blobs WHERE project_key = ? AND file_path = ?`, s.projectKey, path).Scan(&storedHash, &blob)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load file blob: %w", err)
	}
	if storedHash != contentHash {
		return nil, nil
	}
	var file parser.File
	if err := json.Unmarshal(blob, &file); err != nil {
		return nil, fmt.Errorf("unmarshal file blob: %w", err)
	}
	return &file, nil
}

func (s *SQLiteSymbolStore) UpsertFile(file *parser.File, contentHash string) error {
	if s == nil || s.db == nil || file == nil {
		return nil
	}
	blob, err := json.Marshal(file)
	if err != nil {
		return fmt.Errorf("marshal file blob: %w", err)
	}
	_, err = s.db.Exec(`INSERT OR REPLACE INTO file_blobs (project_key, file_path, module_name, content_hash, blob) VALUES (?, ?, ?, ?, ?)`,
		s.projectKey, file.Path, file.Module, contentHash, blob)
	if err != nil {
		return fmt.Errorf("upsert file blob: %w", err)
	}
	return nil
}

func (s *SQLiteSymbolStore) PruneToPaths(paths []string) error {
	if s == nil || s.db == nil {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin prune tx: %w", err)
	}
	if len(paths) == 0 {
		if _, err := tx.Exec(`DELETE FROM file_blobs WHERE project_key = ?`, s.projectKey); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("clear file blobs for empty path set: %w", err)
		}
	} else {
		if err := loadTempPaths(tx, s.projectKey, paths); err != nil {
			_ = tx.Rollback()
			return err
		}
		if _, err := tx.Exec(`DELETE FROM file_blobs WHERE project_key = ? AND file_path NOT IN (SELECT file_path FROM current_paths WHERE project_key = ?)`, s.projectKey, s.projectKey); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("delete stale file blobs: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit prune tx: %w", err)
	}
	return nil
}

func (s *SQLiteSymbolStore) SaveMapping(m *Mapping, edges []CallEdge) error {
	if s == nil || s.db == nil || m == nil {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin mapping tx: %w", err)
	}
	if err := replaceDefinitions(tx, s.projectKey, m.Functions); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := replaceEdges(tx, s.projectKey, edges); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit mapping tx: %w", err)
	}
	s.clearCache()
	return nil
}

func replaceDefinitions(tx *sql.Tx, projectKey string, records []FunctionRecord) error {
	if _, err := tx.Exec(`DELETE FROM definitions WHERE project_key = ?`, projectKey); err != nil {
		return fmt.Errorf("clear definitions: %w", err)
	}
	stmt, err := tx.Prepare(`
INSERT INTO definitions (
  project_key,
  qualified_name,
  symbol_name,
  module_name,
  class_name,
  file_path,
  line_number,
  parameters,
  return_type
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return fmt.Errorf("prepare definition insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		params, err := json.Marshal(rec.Parameters)
		if err != nil {
			return fmt.Errorf("marshal parameters for %q: %w", rec.QualifiedName, err)
		}
		name := rec.QualifiedName
		if i := strings.LastIndex(name, "."); i >= 0 {
			name = name[i+1:]
		}
		if _, err := stmt.Exec(
			projectKey,
			rec.QualifiedName,
			name,
			rec.Module,
			rec.Class,
			rec.File,
			rec.Line,
			string(params),
			rec.ReturnType,
		); err != nil {
			return fmt.Errorf("insert definition %q: %w", rec.QualifiedName, err)
		}
	}
	return nil
}

func replaceEdges(tx *sql.Tx, projectKey string, edges []CallEdge) error {
	if _, err := tx.Exec(`DELETE FROM call_edges WHERE project_key = ?`, projectKey); err != nil {
		return fmt.Errorf("clear call edges: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO call_edges (project_key, caller, callee, sites) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare edge insert: %w", err)
	}
	defer stmt.Close()

	for _, edge := range edges {
		if _, err := stmt.Exec(projectKey, edge.Caller, edge.Callee, edge.Sites); err != nil {
			return fmt.Errorf("insert call edge (%s -> %s): %w", edge.Caller, edge.Callee, err)
		}
	}
	return nil
}

func (s *SQLiteSymbolStore) RecordRun(stats Stats, started, finished time.Time) (string, error) {
	if s == nil || s.db == nil {
		return "", fmt.Errorf("store not initialized")
	}
	id := uuid.NewString()
	_, err := s.db.Exec(`INSERT INTO runs (
  run_id, project_key, started_at, finished_at, files, parsed, cached, skipped, definitions, edges
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, s.projectKey, started.UnixNano(), finished.UnixNano(),
		stats.Files, stats.Parsed, stats.Cached, stats.Skipped, stats.Definitions, stats.Edges)
	if err != nil {
		return "", fmt.Errorf("record run: %w", err)
	}
	return id, nil
}

// Runs returns the most recent runs, newest first.
func (s *SQLiteSymbolStore) Runs(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(`SELECT run_id, started_at, finished_at, files, parsed, cached, skipped, definitions, edges
FROM runs WHERE project_key = ?
ORDER BY started_at DESC, run_id
LIMIT ?`, s.projectKey, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var (
			rec              RunRecord
			started, finished int64
		)
		if err := rows.Scan(&rec.ID, &started, &finished,
			&rec.Stats.Files, &rec.Stats.Parsed, &rec.Stats.Cached, &rec.Stats.Skipped,
			&rec.Stats.Definitions, &rec.Stats.Edges); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.Started = time.Unix(0, started)
		rec.Finished = time.Unix(0, finished)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Callers returns the edges pointing at qualifiedName, sorted by caller.
func (s *SQLiteSymbolStore) Callers(qualifiedName string) ([]CallEdge, error) {
	s.cacheMu.RLock()
	if res, ok := s.callerCache[qualifiedName]; ok {
		s.cacheMu.RUnlock()
		return res, nil
	}
	s.cacheMu.RUnlock()

	res, err := queryEdges(s.callersStmt, s.projectKey, qualifiedName)
	if err != nil {
		return nil, err
	}

	s.cacheMu.Lock()
	s.callerCache[qualifiedName] = res
	s.cacheMu.Unlock()
	return res, nil
}

// Callees returns the edges leaving qualifiedName, sorted by callee.
func (s *SQLiteSymbolStore) Callees(qualifiedName string) ([]CallEdge, error) {
	return queryEdges(s.calleesStmt, s.projectKey, qualifiedName)
}

func queryEdges(stmt *sql.Stmt, args ...any) ([]CallEdge, error) {
	rows, err := stmt.Query(args...)
	if err != nil {
		return nil, fmt.Errorf("query call edges: %w", err)
	}
	defer rows.Close()

	out := make([]CallEdge, 0)
	for rows.Next() {
		var edge CallEdge
		if err := rows.Scan(&edge.Caller, &edge.Callee, &edge.Sites); err != nil {
			return nil, fmt.Errorf("scan call edge: %w", err)
		}
		out = append(out, edge)
	}
	return out, rows.Err()
}

// FindDefinitions returns the qualified names stored for a bare name.
func (s *SQLiteSymbolStore) FindDefinitions(name string) ([]string, error) {
	rows, err := s.db.Query(`SELECT qualified_name FROM definitions WHERE project_key = ? AND symbol_name = ? ORDER BY qualified_name`, s.projectKey, name)
	if err != nil {
		return nil, fmt.Errorf("query definitions: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, fmt.Errorf("scan definition: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func loadTempPaths(tx *sql.Tx, projectKey string, paths []string) error {
	if _, err := tx.Exec(`CREATE TEMP TABLE IF NOT EXISTS current_paths (
  project_key TEXT NOT NULL,
  file_path TEXT NOT NULL,
  PRIMARY KEY (project_key, file_path)
)`); err != nil {
		return fmt.Errorf("create temp paths table: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM current_paths WHERE project_key = ?`, projectKey); err != nil {
		return fmt.Errorf("clear temp paths table: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO current_paths (project_key, file_path) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare temp path insert: %w", err)
	}
	defer stmt.Close()
	for _, p := range paths {
		if _, err := stmt.Exec(projectKey, p); err != nil {
			return fmt.Errorf("insert temp path: %w", err)
		}
	}
	return nil
}
