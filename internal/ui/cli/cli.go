package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"pymap/internal/core/app"
	"pymap/internal/core/config"
	"pymap/internal/shared/observability"

	"github.com/spf13/cobra"
)

const Version = "0.1.0"

type options struct {
	configPath string
	format     string
	output     string
	watch      bool
	workers    int
	db         bool
	verbose    bool
}

// Run executes the command line and returns the process exit code.
func Run(args []string) int {
	cmd := NewRootCommand(os.Stdout, os.Stderr)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "pymap [root]",
		Short: "Map every function of a Python project and the project functions it calls",
		Long: `pymap statically parses every .py file under root, records each function's
qualified name, parameters and return annotation, and resolves which project
functions it calls across files. The mapping is written to <root>/mapping.md
unless --output says otherwise.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			configureLogging(stderr, opts.verbose)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMap(cmd, opts, firstArg(args), stdout, stderr)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	persistent := root.PersistentFlags()
	persistent.StringVarP(&opts.configPath, "config", "c", "", "Path to config file (default <root>/"+config.DefaultConfigFile+")")
	persistent.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	flags := root.Flags()
	flags.StringVarP(&opts.format, "format", "f", "", "Output format: markdown, json or yaml")
	flags.StringVarP(&opts.output, "output", "o", "", `Output path, relative to root; "-" writes to stdout`)
	flags.BoolVarP(&opts.watch, "watch", "w", false, "Rebuild the mapping whenever a Python file changes")
	flags.IntVar(&opts.workers, "workers", 0, "Parallel workers for parsing and resolution (default: CPU count)")
	flags.BoolVar(&opts.db, "db", false, "Persist definitions, call edges and parsed files to the SQLite store")

	root.AddCommand(
		newVersionCommand(stdout),
		newCallersCommand(opts, stdout),
		newCalleesCommand(opts, stdout),
		newDefsCommand(opts, stdout),
		newRunsCommand(opts, stdout),
	)
	return root
}

func configureLogging(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// loadConfig reads the explicit --config file, or <root>/pymap.toml when it
// exists. A positional root always wins over paths.project_root; otherwise a
// relative project_root is taken relative to the config file.
func loadConfig(cmd *cobra.Command, opts *options, rootArg string) (*config.Config, error) {
	explicit := cmd.Flags().Changed("config")
	path := opts.configPath
	if !explicit {
		dir := rootArg
		if dir == "" {
			dir = "."
		}
		path = filepath.Join(dir, config.DefaultConfigFile)
	}

	cfg, err := config.LoadOrDefault(path, explicit)
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", path, err)
	}

	switch {
	case rootArg != "":
		cfg.Paths.ProjectRoot = rootArg
	case !filepath.IsAbs(cfg.Paths.ProjectRoot):
		if _, statErr := os.Stat(path); statErr == nil {
			cfg.Paths.ProjectRoot = filepath.Join(filepath.Dir(path), cfg.Paths.ProjectRoot)
		}
	}
	return cfg, nil
}

func applyFlagOverrides(cmd *cobra.Command, opts *options, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Output.Format = strings.ToLower(strings.TrimSpace(opts.format))
	}
	if flags.Changed("output") {
		cfg.Output.Path = strings.TrimSpace(opts.output)
	}
	if flags.Changed("workers") && opts.workers > 0 {
		cfg.Scan.Workers = opts.workers
	}
	if flags.Changed("db") {
		cfg.DB.Enabled = opts.db
	}
	return config.Validate(cfg)
}

func runMap(cmd *cobra.Command, opts *options, rootArg string, stdout, stderr io.Writer) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd, opts, rootArg)
	if err != nil {
		return err
	}
	if err := applyFlagOverrides(cmd, opts, cfg); err != nil {
		return err
	}

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName: cfg.Observability.ServiceName,
		Endpoint:    cfg.Observability.OTLPEndpoint,
		Insecure:    cfg.Observability.OTLPInsecure,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			slog.Warn("tracing shutdown failed", "error", err)
		}
	}()

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	if _, err := a.OpenStore(); err != nil {
		return err
	}

	if opts.watch {
		slog.Info("watching for changes", "root", a.Root)
		return a.Watch(ctx, stdout, func(r app.RunReport) {
			if r.Err == nil {
				fmt.Fprintln(stderr, RenderSummary(r.Mapping.Stats, r.Output, r.Elapsed))
			}
		})
	}

	started := time.Now()
	m, err := a.Run(ctx)
	if err != nil {
		return err
	}
	target, err := a.WriteOutput(m, stdout)
	if err != nil {
		return err
	}
	fmt.Fprintln(stderr, RenderSummary(m.Stats, target, time.Since(started)))
	return nil
}
