package app

import (
	"context"
	"io"
	"log/slog"
	"time"

	"pymap/internal/core/watcher"
	"pymap/internal/engine/graph"
	"pymap/internal/shared/observability"
	"pymap/internal/shared/util"
)

// RunReport is handed to the watch callback after every rebuild.
type RunReport struct {
	Mapping *graph.Mapping
	Output  string
	Elapsed time.Duration
	Err     error
}

// Watch builds and writes the mapping once, then rebuilds after each
// debounced batch of Python changes until ctx is done. Rebuilds are rate
// limited by watch.max_rebuilds_per_second. When observability.metrics_address
// is set, /metrics and /health are served for the lifetime of the loop.
func (a *App) Watch(ctx context.Context, stdout io.Writer, onRun func(RunReport)) error {
	var server *observability.Server
	if addr := a.Config.Observability.MetricsAddress; addr != "" {
		server = observability.NewServer(addr)
		if err := server.Start(); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Stop(shutdownCtx); err != nil {
				slog.Warn("metrics server shutdown failed", "error", err)
			}
		}()
	}

	trigger := make(chan struct{}, 1)
	w, err := watcher.NewWatcher(a.Config.Watch.Debounce, a.filter, func(paths []string) {
		slog.Info("python sources changed", "files", len(paths), "first", paths[0])
		a.forget(paths)
		select {
		case trigger <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Watch([]string{a.Root}); err != nil {
		return err
	}

	rebuild := func() {
		report := a.rebuild(ctx, stdout)
		if server != nil {
			defs, edges := 0, 0
			if report.Mapping != nil {
				defs, edges = report.Mapping.Stats.Definitions, report.Mapping.Stats.Edges
			}
			server.ReportRun(defs, edges, report.Err)
		}
		if onRun != nil {
			onRun(report)
		}
	}

	limiter := util.NewLimiter(a.Config.Watch.MaxRebuildsPerSecond, 1)
	limiter.Allow(1)
	rebuild()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-trigger:
			if !limiter.Allow(1) {
				observability.RebuildsTotal.WithLabelValues("throttled").Inc()
				if err := limiter.Wait(ctx, 1); err != nil {
					return nil
				}
			}
			rebuild()
		}
	}
}

func (a *App) rebuild(ctx context.Context, stdout io.Writer) RunReport {
	started := time.Now()
	m, err := a.Run(ctx)
	if err != nil {
		if ctx.Err() == nil {
			observability.RebuildsTotal.WithLabelValues("error").Inc()
			slog.Error("rebuild failed", "error", err)
		}
		return RunReport{Elapsed: time.Since(started), Err: err}
	}
	target, err := a.WriteOutput(m, stdout)
	if err != nil {
		observability.RebuildsTotal.WithLabelValues("error").Inc()
		slog.Error("writing mapping failed", "error", err)
		return RunReport{Mapping: m, Elapsed: time.Since(started), Err: err}
	}
	observability.RebuildsTotal.WithLabelValues("ok").Inc()
	return RunReport{Mapping: m, Output: target, Elapsed: time.Since(started)}
}
