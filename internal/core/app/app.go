package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pymap/internal/core/config"
	"pymap/internal/core/errors"
	"pymap/internal/engine/graph"
	"pymap/internal/engine/parser"
	"pymap/internal/shared/util"
)

// App runs the mapping pipeline for one project root.
type App struct {
	Config *config.Config
	Root   string // absolute project root
	Parser *parser.Parser

	filter *util.PathFilter
	store  graph.Store
	memo   *util.LRU[string, memoEntry] // keyed by slash-relative path
}

type memoEntry struct {
	hash string
	file *parser.File
}

// New resolves the project root and prepares the parser and exclude filter.
// Persistence stays disabled until OpenStore is called.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	root, err := filepath.Abs(cfg.Paths.ProjectRoot)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "resolve project root"), errors.CtxPath, cfg.Paths.ProjectRoot)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "project root not found"), errors.CtxPath, root)
	}
	if !info.IsDir() {
		return nil, errors.AddContext(errors.New(errors.CodeValidationError, "project root is not a directory"), errors.CtxPath, root)
	}

	dirs, err := excludeDirPatterns(root, cfg.Exclude.Dirs, cfg.Exclude.GitignoreEnabled())
	if err != nil {
		return nil, err
	}
	filter, err := util.NewPathFilter(dirs, cfg.Exclude.Files)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "compile exclude patterns")
	}

	return &App{
		Config: cfg,
		Root:   root,
		Parser: parser.NewParser(parser.NewGrammarLoader(), cfg.Paths.SourceRoots),
		filter: filter,
		store:  &graph.NoopStore{},
		memo:   util.NewLRU[string, memoEntry](cfg.Scan.CacheEntries),
	}, nil
}

// SetStore replaces the persistence backend. A nil store disables
// persistence.
func (a *App) SetStore(store graph.Store) {
	if store == nil {
		store = &graph.NoopStore{}
	}
	a.store = store
}

// OpenStore opens the SQLite store named by the db config section when it is
// enabled and returns it so callers can query it directly.
func (a *App) OpenStore() (*graph.SQLiteSymbolStore, error) {
	if !a.Config.DB.Enabled {
		return nil, nil
	}
	store, err := graph.OpenSQLiteSymbolStore(a.DBPath(), a.Config.DB.ProjectKey, a.Config.DB.BusyTimeout)
	if err != nil {
		return nil, fmt.Errorf("open sqlite symbol store: %w", err)
	}
	a.store = store
	return store, nil
}

// DBPath is the configured database path resolved against the project root.
func (a *App) DBPath() string {
	return a.resolve(a.Config.DB.Path)
}

// OutputPath is the configured output path resolved against the project
// root, or "-" for stdout.
func (a *App) OutputPath() string {
	if strings.TrimSpace(a.Config.Output.Path) == "-" {
		return "-"
	}
	return a.resolve(a.Config.Output.Path)
}

func (a *App) resolve(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(a.Root, filepath.FromSlash(p))
}

func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}
