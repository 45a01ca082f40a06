package cli

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"pymap/internal/core/app"
	"pymap/internal/core/errors"
	"pymap/internal/engine/graph"

	"github.com/spf13/cobra"
)

func newVersionCommand(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the pymap version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(stdout, "pymap v%s\n", Version)
		},
	}
}

func newCallersCommand(opts *options, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "callers <qualified-name> [root]",
		Short: "List the functions that call a function, from the last --db run",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, args[1:], func(store *graph.SQLiteSymbolStore) error {
				edges, err := store.Callers(args[0])
				if err != nil {
					return err
				}
				return printEdges(stdout, edges, func(e graph.CallEdge) string { return e.Caller })
			})
		},
	}
}

func newCalleesCommand(opts *options, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "callees <qualified-name> [root]",
		Short: "List the project functions a function calls, from the last --db run",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, args[1:], func(store *graph.SQLiteSymbolStore) error {
				edges, err := store.Callees(args[0])
				if err != nil {
					return err
				}
				return printEdges(stdout, edges, func(e graph.CallEdge) string { return e.Callee })
			})
		},
	}
}

func newDefsCommand(opts *options, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "defs <name> [root]",
		Short: "List the qualified names defined under a bare function name",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, args[1:], func(store *graph.SQLiteSymbolStore) error {
				names, err := store.FindDefinitions(args[0])
				if err != nil {
					return err
				}
				for _, name := range names {
					fmt.Fprintln(stdout, name)
				}
				return nil
			})
		},
	}
}

func newRunsCommand(opts *options, stdout io.Writer) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs [root]",
		Short: "Show the most recent recorded runs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, args, func(store *graph.SQLiteSymbolStore) error {
				runs, err := store.Runs(limit)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "RUN\tSTARTED\tDURATION\tFILES\tPARSED\tCACHED\tSKIPPED\tDEFINITIONS\tEDGES")
				for _, r := range runs {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\n",
						r.ID, r.Started.Local().Format(time.DateTime), r.Finished.Sub(r.Started).Round(time.Millisecond),
						r.Stats.Files, r.Stats.Parsed, r.Stats.Cached, r.Stats.Skipped, r.Stats.Definitions, r.Stats.Edges)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to show")
	return cmd
}

// withStore opens the project's existing SQLite store for a read-only query.
func withStore(cmd *cobra.Command, opts *options, args []string, fn func(*graph.SQLiteSymbolStore) error) error {
	cfg, err := loadConfig(cmd, opts, firstArg(args))
	if err != nil {
		return err
	}
	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	path := a.DBPath()
	if _, err := os.Stat(path); err != nil {
		return errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "no symbol database; run pymap --db first"), errors.CtxPath, path)
	}
	cfg.DB.Enabled = true
	store, err := a.OpenStore()
	if err != nil {
		return err
	}
	return fn(store)
}

func printEdges(w io.Writer, edges []graph.CallEdge, name func(graph.CallEdge) string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, e := range edges {
		sites := "site"
		if e.Sites != 1 {
			sites = "sites"
		}
		fmt.Fprintf(tw, "%s\t%d %s\n", name(e), e.Sites, sites)
	}
	return tw.Flush()
}
