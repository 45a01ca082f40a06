package resolver

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"pymap/internal/engine/graph"
	"pymap/internal/engine/parser"

	"golang.org/x/sync/errgroup"
)

// Resolver maps call sites to project definitions. It only reads the
// frozen symbol table, so one Resolver may serve many goroutines.
type Resolver struct {
	table *graph.SymbolTable
}

func NewResolver(table *graph.SymbolTable) *Resolver {
	return &Resolver{table: table}
}

// Result is the call graph of the whole project.
type Result struct {
	Functions  []graph.FunctionRecord // sorted by qualified name
	Edges      []graph.CallEdge       // sorted by caller, then callee
	Strategies map[Strategy]int
	Unresolved map[Reason]int
}

// Resolve applies the strategies for the call's shape in their fixed order.
func (r *Resolver) Resolve(def *parser.Definition, site parser.CallSite) Resolution {
	switch site.Kind {
	case parser.CallBare:
		return r.resolveBare(def, site.Name())
	case parser.CallChain:
		return r.resolveChain(def, site.Segments)
	case parser.CallSuper:
		return r.resolveSuper(def, site.Name())
	default:
		if name := site.Name(); name != "" {
			return r.uniqueByName(name, StrategyTrailingName)
		}
		return Unresolved(ReasonNotFound)
	}
}

// resolveBare tries, in order: the caller's module (sibling methods
// included), the import map, wildcard sources and finally the project-wide
// bare-name index.
func (r *Resolver) resolveBare(def *parser.Definition, name string) Resolution {
	if name == "" {
		return Unresolved(ReasonNotFound)
	}
	// cls() inside a classmethod constructs the enclosing class.
	if def.Class != "" && name == def.Receiver && def.IsClassMethod() {
		if target, ok := r.acceptCallable(def.Class); ok {
			return Resolved(target, StrategyReceiver)
		}
		return Unresolved(ReasonNotFound)
	}

	info := moduleInfo(r.table, def)
	if target, ok := r.acceptCallable(parser.JoinQualified(info.Module, name)); ok {
		return Resolved(target, StrategySameModule)
	}
	if def.Class != "" {
		if target, ok := r.acceptCallable(def.Class + "." + name); ok {
			return Resolved(target, StrategySameClass)
		}
	}
	if target, ok := r.uniqueInModule(info.Module, name); ok {
		return Resolved(target, StrategyModuleUnique)
	}

	imported, isImported := info.ImportMap[name]
	if isImported {
		if target, ok := r.resolveQualified(imported); ok {
			return Resolved(target, StrategyImport)
		}
	}

	if len(info.Wildcards) > 0 {
		found := ""
		for _, source := range info.Wildcards {
			target, ok := r.resolveQualified(parser.JoinQualified(source, name))
			if !ok {
				continue
			}
			if found != "" && found != target {
				return ambiguous(2)
			}
			found = target
		}
		if found != "" {
			return Resolved(found, StrategyWildcard)
		}
	}

	return r.fallback(name, StrategyBareName, isImported)
}

// resolveChain substitutes the chain root through the import map or the
// method receiver, then tries a same-module class or function, and falls
// back to the bare-name index with the trailing segment.
func (r *Resolver) resolveChain(def *parser.Definition, segments []string) Resolution {
	if len(segments) < 2 {
		return r.resolveBare(def, strings.Join(segments, "."))
	}
	root := segments[0]
	rest := strings.Join(segments[1:], ".")
	trailing := segments[len(segments)-1]
	info := moduleInfo(r.table, def)

	if imported, ok := info.ImportMap[root]; ok {
		if target, ok := r.resolveQualified(parser.JoinQualified(imported, rest)); ok {
			return Resolved(target, StrategyImport)
		}
		return r.fallback(trailing, StrategyTrailingName, true)
	}

	if def.Receiver != "" && root == def.Receiver && def.Class != "" {
		if target, inherited, ok := r.lookupMember(def.Class, rest); ok {
			if inherited {
				return Resolved(target, StrategyInherited)
			}
			return Resolved(target, StrategyReceiver)
		}
		return r.fallback(trailing, StrategyTrailingName, false)
	}

	member := parser.JoinQualified(info.Module, root)
	_, isClass := r.table.Class(member)
	_, isDef := r.table.Lookup(member)
	if isClass || isDef {
		if target, ok := r.resolveQualified(member + "." + rest); ok {
			return Resolved(target, StrategyModuleMember)
		}
	}

	return r.fallback(trailing, StrategyTrailingName, false)
}

// fallback applies the bare-name index. A miss after an import binding that
// pointed outside the project is reported as external.
func (r *Resolver) fallback(name string, strategy Strategy, imported bool) Resolution {
	res := r.uniqueByName(name, strategy)
	if imported && !res.OK() && res.Reason == ReasonNotFound {
		return Unresolved(ReasonExternal)
	}
	return res
}

func (r *Resolver) resolveSuper(def *parser.Definition, name string) Resolution {
	if def.Class == "" || name == "" {
		return Unresolved(ReasonNotFound)
	}
	for _, base := range r.bases(def.Class) {
		if target, _, ok := r.lookupMember(base, name); ok {
			return Resolved(target, StrategySuper)
		}
	}
	return Unresolved(ReasonNotFound)
}

type fileResult struct {
	records    []graph.FunctionRecord
	edges      []graph.CallEdge
	strategies map[Strategy]int
	unresolved map[Reason]int
}

// ResolveAll resolves every definition in the table. Work is split per file
// and bounded by workers; results are merged in sorted order so the output
// does not depend on scheduling.
func (r *Resolver) ResolveAll(ctx context.Context, workers int) (*Result, error) {
	var (
		order  []string
		byFile = make(map[string][]*parser.Definition)
	)
	for _, def := range r.table.Definitions() {
		path := def.Location.File
		if _, ok := byFile[path]; !ok {
			order = append(order, path)
		}
		byFile[path] = append(byFile[path], def)
	}
	sort.Strings(order)

	slots := make([]fileResult, len(order))
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, path := range order {
		i, defs := i, byFile[path]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slots[i] = r.resolveFile(defs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{
		Strategies: make(map[Strategy]int),
		Unresolved: make(map[Reason]int),
	}
	for _, slot := range slots {
		res.Functions = append(res.Functions, slot.records...)
		res.Edges = append(res.Edges, slot.edges...)
		for k, v := range slot.strategies {
			res.Strategies[k] += v
		}
		for k, v := range slot.unresolved {
			res.Unresolved[k] += v
		}
	}
	sort.Slice(res.Functions, func(i, j int) bool {
		return res.Functions[i].QualifiedName < res.Functions[j].QualifiedName
	})
	sort.Slice(res.Edges, func(i, j int) bool {
		if res.Edges[i].Caller != res.Edges[j].Caller {
			return res.Edges[i].Caller < res.Edges[j].Caller
		}
		return res.Edges[i].Callee < res.Edges[j].Callee
	})
	return res, nil
}

func (r *Resolver) resolveFile(defs []*parser.Definition) fileResult {
	out := fileResult{
		strategies: make(map[Strategy]int),
		unresolved: make(map[Reason]int),
	}
	for _, def := range defs {
		sites := make(map[string]int)
		for _, site := range def.CallSites {
			res := r.Resolve(def, site)
			if !res.OK() {
				out.unresolved[res.Reason]++
				if res.Reason == ReasonAmbiguous {
					slog.Debug("ambiguous call dropped", "caller", def.QualifiedName, "call", site.Expr, "candidates", res.Candidates)
				}
				continue
			}
			out.strategies[res.Strategy]++
			sites[res.Target]++
		}

		calls := make([]string, 0, len(sites))
		for callee := range sites {
			calls = append(calls, callee)
		}
		sort.Strings(calls)
		for _, callee := range calls {
			out.edges = append(out.edges, graph.CallEdge{Caller: def.QualifiedName, Callee: callee, Sites: sites[callee]})
		}

		out.records = append(out.records, graph.FunctionRecord{
			QualifiedName: def.QualifiedName,
			Module:        def.Module,
			Class:         def.Class,
			Parameters:    def.Parameters,
			ReturnType:    def.ReturnType,
			Calls:         calls,
			File:          def.Location.File,
			Line:          def.Location.Line,
		})
	}
	return out
}
