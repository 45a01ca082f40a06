package app

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"pymap/internal/core/errors"
	"pymap/internal/engine/graph"
	"pymap/internal/engine/parser"
	"pymap/internal/engine/resolver"
	"pymap/internal/shared/observability"
	"pymap/internal/shared/util"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// extraction is the pass-1 outcome for one file. Exactly one of file and
// warning is set.
type extraction struct {
	file    *parser.File
	hash    string
	cached  bool
	warning *graph.Warning
}

// Run discovers, extracts and resolves the whole project and returns the
// mapping. Extraction runs in parallel; the symbol table is built only after
// every file is done and is read-only while calls are resolved. A cancelled
// context aborts the run without touching the store.
func (a *App) Run(ctx context.Context) (*graph.Mapping, error) {
	started := time.Now()
	ctx, span := observability.Tracer.Start(ctx, "pipeline.run", trace.WithAttributes(attribute.String("root", a.Root)))
	defer span.End()

	mapping, slots, paths, edges, err := a.run(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	a.persist(ctx, slots, paths, mapping, edges, started)

	slog.Info("mapping built",
		"files", mapping.Stats.Files,
		"parsed", mapping.Stats.Parsed,
		"cached", mapping.Stats.Cached,
		"skipped", mapping.Stats.Skipped,
		"definitions", mapping.Stats.Definitions,
		"edges", mapping.Stats.Edges,
		"duration", time.Since(started),
	)
	return mapping, nil
}

func (a *App) run(ctx context.Context) (*graph.Mapping, []extraction, []string, []graph.CallEdge, error) {
	paths, err := a.Scan()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	slog.Debug("discovered python files", "root", a.Root, "files", len(paths))

	slots, err := a.extractAll(ctx, paths)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	stats := graph.Stats{Files: len(paths)}
	files := make([]*parser.File, 0, len(slots))
	var warnings []graph.Warning
	for _, slot := range slots {
		switch {
		case slot.warning != nil:
			stats.Skipped++
			warnings = append(warnings, *slot.warning)
			continue
		case slot.cached:
			stats.Cached++
		default:
			stats.Parsed++
		}
		files = append(files, slot.file)
	}

	table := a.buildTable(ctx, files)
	res, err := a.resolveCalls(ctx, table)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	functions := res.Functions
	if functions == nil {
		functions = []graph.FunctionRecord{}
	}
	stats.Definitions = len(functions)
	stats.Edges = len(res.Edges)

	mapping := &graph.Mapping{
		Functions: functions,
		Warnings:  warnings,
		Stats:     stats,
	}
	return mapping, slots, paths, res.Edges, nil
}

func (a *App) workers() int {
	if a.Config.Scan.Workers < 1 {
		return 1
	}
	return a.Config.Scan.Workers
}

func (a *App) extractAll(ctx context.Context, paths []string) ([]extraction, error) {
	ctx, span := observability.Tracer.Start(ctx, "pipeline.extract", trace.WithAttributes(attribute.Int("files", len(paths))))
	defer span.End()
	timer := prometheus.NewTimer(observability.StageDuration.WithLabelValues("extract"))
	defer timer.ObserveDuration()

	slots := make([]extraction, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers())
	for i, rel := range paths {
		i, rel := i, rel
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slots[i] = a.extractFile(rel)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return slots, nil
}

// extractFile reads one file and returns its extraction, taken from the
// store when the content hash matches a cached row.
func (a *App) extractFile(rel string) extraction {
	abs := filepath.Join(a.Root, filepath.FromSlash(rel))
	info, err := os.Stat(abs)
	if err != nil {
		return skipFile(rel, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "stat file"), errors.CtxOperation, "stat"))
	}
	if limit := a.Config.Scan.MaxFileSize; limit > 0 && info.Size() > limit {
		return skipFile(rel, errors.New(errors.CodeValidationError, fmt.Sprintf("file exceeds max_file_size (%d bytes)", limit)))
	}
	content, err := os.ReadFile(abs)
	if err != nil {
		return skipFile(rel, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "read file"), errors.CtxOperation, "read"))
	}

	hash := util.ContentHash(content)
	if cached := a.loadCached(rel, hash); cached != nil {
		observability.FilesTotal.WithLabelValues("cached").Inc()
		return extraction{file: cached, hash: hash, cached: true}
	}

	start := time.Now()
	file, err := a.Parser.ParseFile(rel, content)
	observability.ParsingDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		a.memo.Remove(rel)
		return skipFile(rel, err)
	}
	observability.FilesTotal.WithLabelValues("parsed").Inc()
	a.memo.Put(rel, memoEntry{hash: hash, file: file})
	return extraction{file: file, hash: hash}
}

// loadCached looks in the in-memory cache first, then in the store. Files
// are never mutated after extraction, so sharing them across runs is safe.
func (a *App) loadCached(rel, hash string) *parser.File {
	if entry, ok := a.memo.Get(rel); ok && entry.hash == hash {
		return entry.file
	}
	file, err := a.store.LoadFile(rel, hash)
	if err != nil {
		slog.Warn("symbol cache lookup failed", "path", rel, "error", err)
		return nil
	}
	if file == nil {
		return nil
	}
	// Rows written under different source roots carry stale module paths.
	if module, _ := parser.ModulePath(rel, a.Config.Paths.SourceRoots); module != file.Module {
		return nil
	}
	a.memo.Put(rel, memoEntry{hash: hash, file: file})
	return file
}

// forget drops cached extractions for files that no longer exist.
func (a *App) forget(paths []string) {
	for _, p := range paths {
		if _, err := os.Lstat(p); !os.IsNotExist(err) {
			continue
		}
		rel, err := filepath.Rel(a.Root, p)
		if err != nil {
			continue
		}
		a.memo.Remove(filepath.ToSlash(rel))
	}
}

func skipFile(rel string, err error) extraction {
	slog.Warn("skipping file", "path", rel, "error", err)
	observability.FilesTotal.WithLabelValues("skipped").Inc()

	w := graph.Warning{Path: rel, Code: string(errors.CodeInternal), Message: err.Error()}
	var de *errors.DomainError
	if stderrors.As(err, &de) {
		w.Code = string(de.Code)
		w.Message = de.Message
		if de.Err != nil {
			w.Message += ": " + de.Err.Error()
		}
		if line, ok := de.Context[errors.CtxLine].(int); ok {
			w.Line = line
		}
	}
	return extraction{warning: &w}
}

func (a *App) buildTable(ctx context.Context, files []*parser.File) *graph.SymbolTable {
	_, span := observability.Tracer.Start(ctx, "pipeline.symbol_table")
	defer span.End()
	timer := prometheus.NewTimer(observability.StageDuration.WithLabelValues("symbol_table"))
	defer timer.ObserveDuration()

	table := graph.BuildSymbolTable(files)
	for _, q := range table.Replaced() {
		slog.Debug("definition replaced by a later file", "qualified_name", q)
	}
	observability.SymbolTableDefinitions.Set(float64(table.Len()))
	span.SetAttributes(attribute.Int("definitions", table.Len()))
	return table
}

func (a *App) resolveCalls(ctx context.Context, table *graph.SymbolTable) (*resolver.Result, error) {
	ctx, span := observability.Tracer.Start(ctx, "pipeline.resolve")
	defer span.End()
	timer := prometheus.NewTimer(observability.StageDuration.WithLabelValues("resolve"))
	defer timer.ObserveDuration()

	res, err := resolver.NewResolver(table).ResolveAll(ctx, a.workers())
	if err != nil {
		return nil, err
	}
	for strategy, n := range res.Strategies {
		observability.ResolutionsTotal.WithLabelValues(string(strategy)).Add(float64(n))
	}
	for reason, n := range res.Unresolved {
		observability.UnresolvedTotal.WithLabelValues(string(reason)).Add(float64(n))
	}
	observability.CallGraphEdges.Set(float64(len(res.Edges)))
	span.SetAttributes(attribute.Int("edges", len(res.Edges)))
	return res, nil
}

// persist writes the run to the store. Store failures are logged and never
// fail the run: the mapping is already complete.
func (a *App) persist(ctx context.Context, slots []extraction, paths []string, m *graph.Mapping, edges []graph.CallEdge, started time.Time) {
	_, span := observability.Tracer.Start(ctx, "pipeline.persist")
	defer span.End()
	timer := prometheus.NewTimer(observability.StageDuration.WithLabelValues("persist"))
	defer timer.ObserveDuration()

	for _, slot := range slots {
		if slot.file == nil || slot.cached {
			continue
		}
		if err := a.store.UpsertFile(slot.file, slot.hash); err != nil {
			slog.Warn("failed to cache extracted file", "path", slot.file.Path, "error", err)
		}
	}
	if err := a.store.PruneToPaths(paths); err != nil {
		slog.Warn("failed to prune cached files", "error", err)
	}
	if err := a.store.SaveMapping(m, edges); err != nil {
		slog.Warn("failed to persist mapping", "error", err)
	}
	id, err := a.store.RecordRun(m.Stats, started, time.Now())
	if err != nil {
		slog.Warn("failed to record run", "error", err)
		return
	}
	if id != "" {
		slog.Debug("run recorded", "run_id", id)
	}
}
