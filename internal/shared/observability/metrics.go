package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pymap_parsing_seconds",
		Help:    "Time spent parsing and extracting a Python source file.",
		Buckets: prometheus.DefBuckets,
	})

	ParsersLeased = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pymap_parsers_leased",
		Help: "Tree-sitter parsers currently leased from the pool.",
	})

	FilesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pymap_files_total",
		Help: "Files processed by the extraction pass, by outcome (parsed, cached, skipped).",
	}, []string{"outcome"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pymap_stage_seconds",
		Help:    "Time spent in each pipeline stage.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	SymbolTableDefinitions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pymap_symbol_table_definitions",
		Help: "Number of definitions in the most recently built symbol table.",
	})

	CallGraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pymap_call_graph_edges",
		Help: "Number of unique caller/callee edges in the most recent mapping.",
	})

	ResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pymap_resolutions_total",
		Help: "Resolved call sites by resolution strategy.",
	}, []string{"strategy"})

	UnresolvedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pymap_unresolved_total",
		Help: "Call sites that were dropped, by reason.",
	}, []string{"reason"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pymap_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	RebuildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pymap_rebuilds_total",
		Help: "Watch-mode rebuilds by result (ok, error, throttled).",
	}, []string{"result"})
)
