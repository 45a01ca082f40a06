package graph

import (
	"time"

	"pymap/internal/engine/parser"
)

// Store is the port for persisting extraction results and call graphs.
//
// The pipeline depends only on this interface; the SQLite adapter lives in
// symbol_store.go and NoopStore is used when persistence is disabled.
type Store interface {
	// LoadFile returns the cached extraction of path when it was stored with
	// the same content hash. Returns (nil, nil) on a miss.
	LoadFile(path, contentHash string) (*parser.File, error)

	// UpsertFile caches the extraction of one file under its content hash.
	UpsertFile(file *parser.File, contentHash string) error

	// PruneToPaths drops cached files that are no longer part of the project.
	PruneToPaths(paths []string) error

	// SaveMapping replaces the stored definitions and call edges.
	SaveMapping(m *Mapping, edges []CallEdge) error

	// RecordRun appends a run summary and returns its id.
	RecordRun(stats Stats, started, finished time.Time) (string, error)

	Close() error
}

// NoopStore satisfies Store without any disk I/O.
type NoopStore struct{}

var _ Store = (*NoopStore)(nil)

// LoadFile always misses.
func (n *NoopStore) LoadFile(_, _ string) (*parser.File, error) { return nil, nil }

func (n *NoopStore) UpsertFile(_ *parser.File, _ string) error { return nil }

func (n *NoopStore) PruneToPaths(_ []string) error { return nil }

func (n *NoopStore) SaveMapping(_ *Mapping, _ []CallEdge) error { return nil }

// RecordRun returns an empty id.
func (n *NoopStore) RecordRun(_ Stats, _, _ time.Time) (string, error) { return "", nil }

func (n *NoopStore) Close() error { return nil }
