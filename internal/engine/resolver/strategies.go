package resolver

import (
	"strings"

	"pymap/internal/engine/graph"
	"pymap/internal/engine/parser"
)

// maxHops bounds re-export chains and base-class walks.
const maxHops = 8

type acceptFunc func(q string) (string, bool)

// acceptCallable succeeds for a definition, or for a project class whose
// constructor (__init__, possibly inherited) is a definition.
func (r *Resolver) acceptCallable(q string) (string, bool) {
	if _, ok := r.table.Lookup(q); ok {
		return q, true
	}
	if _, ok := r.table.Class(q); ok {
		if target, _, ok := r.lookupMember(q, "__init__"); ok {
			return target, true
		}
	}
	return "", false
}

func (r *Resolver) acceptClass(q string) (string, bool) {
	if _, ok := r.table.Class(q); ok {
		return q, true
	}
	return "", false
}

// follow accepts q directly or chases it through the import map and
// wildcard sources of the module that owns it, so a name re-exported by a
// package __init__ reaches its definition. Wildcard sources must agree on a
// single target.
func (r *Resolver) follow(q string, accept acceptFunc) (string, bool) {
	return r.followFrom(q, accept, 0, make(map[string]bool))
}

func (r *Resolver) followFrom(q string, accept acceptFunc, hops int, path map[string]bool) (string, bool) {
	if hops > maxHops || path[q] {
		return "", false
	}
	if target, ok := accept(q); ok {
		return target, true
	}

	module, rest, ok := r.splitModule(q)
	if !ok {
		return "", false
	}
	info, _ := r.table.Module(module)

	path[q] = true
	defer delete(path, q)

	head, tail, _ := strings.Cut(rest, ".")
	if target, ok := info.ImportMap[head]; ok {
		return r.followFrom(parser.JoinQualified(target, tail), accept, hops+1, path)
	}

	found := ""
	for _, source := range info.Wildcards {
		target, ok := r.followFrom(parser.JoinQualified(source, rest), accept, hops+1, path)
		if !ok {
			continue
		}
		if found != "" && found != target {
			return "", false
		}
		found = target
	}
	return found, found != ""
}

// splitModule finds the longest project module that is a strict prefix of q.
func (r *Resolver) splitModule(q string) (module, rest string, ok bool) {
	parts := strings.Split(q, ".")
	for i := len(parts) - 1; i >= 1; i-- {
		candidate := strings.Join(parts[:i], ".")
		if _, ok := r.table.Module(candidate); ok {
			return candidate, strings.Join(parts[i:], "."), true
		}
	}
	if _, ok := r.table.Module(""); ok {
		return "", q, true
	}
	return "", "", false
}

// resolveQualified resolves a fully qualified candidate: directly or through
// re-exports, then as a member of a project class (inherited members
// included).
func (r *Resolver) resolveQualified(q string) (string, bool) {
	if target, ok := r.follow(q, r.acceptCallable); ok {
		return target, true
	}
	owner, member, ok := cutLast(q)
	if !ok {
		return "", false
	}
	classQ, ok := r.follow(owner, r.acceptClass)
	if !ok {
		return "", false
	}
	target, _, ok := r.lookupMember(classQ, member)
	return target, ok
}

// lookupMember finds member on classQ or, depth-first, on its project base
// classes. inherited reports whether a base class supplied it.
func (r *Resolver) lookupMember(classQ, member string) (target string, inherited bool, ok bool) {
	return r.lookupMemberFrom(classQ, member, 0, make(map[string]bool))
}

func (r *Resolver) lookupMemberFrom(classQ, member string, depth int, seen map[string]bool) (string, bool, bool) {
	if depth > maxHops || seen[classQ] {
		return "", false, false
	}
	seen[classQ] = true

	q := classQ + "." + member
	if _, ok := r.table.Lookup(q); ok {
		return q, depth > 0, true
	}
	if _, ok := r.table.Class(q); ok && member != "__init__" {
		if target, ok := r.acceptCallable(q); ok {
			return target, depth > 0, true
		}
	}
	for _, base := range r.bases(classQ) {
		if target, _, ok := r.lookupMemberFrom(base, member, depth+1, seen); ok {
			return target, true, true
		}
	}
	return "", false, false
}

// bases resolves the superclass expressions of classQ to project classes,
// in declaration order. Subscripted bases (Generic[T]) use their origin.
func (r *Resolver) bases(classQ string) []string {
	class, ok := r.table.Class(classQ)
	if !ok || len(class.Bases) == 0 {
		return nil
	}
	info, ok := r.table.File(class.Location.File)
	if !ok {
		return nil
	}

	out := make([]string, 0, len(class.Bases))
	for _, text := range class.Bases {
		if i := strings.IndexByte(text, '['); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
		if text == "" || strings.ContainsAny(text, "() ") {
			continue
		}
		// Classes nested in the same outer class see their siblings.
		if outer, _, ok := cutLast(classQ); ok && outer != info.Module {
			if sibling, ok := r.acceptClass(outer + "." + text); ok {
				out = append(out, sibling)
				continue
			}
		}
		if base, ok := r.follow(parser.JoinQualified(info.Module, text), r.acceptClass); ok {
			out = append(out, base)
		}
	}
	return out
}

// uniqueByName applies the project-wide bare-name index: exactly one
// candidate resolves, anything else is dropped.
func (r *Resolver) uniqueByName(name string, strategy Strategy) Resolution {
	candidates := r.table.ByName(name)
	switch len(candidates) {
	case 0:
		return Unresolved(ReasonNotFound)
	case 1:
		return Resolved(candidates[0], strategy)
	default:
		return ambiguous(len(candidates))
	}
}

// uniqueInModule returns the only definition named name in module.
func (r *Resolver) uniqueInModule(module, name string) (string, bool) {
	found := ""
	for _, q := range r.table.ByName(name) {
		def, ok := r.table.Lookup(q)
		if !ok || def.Module != module {
			continue
		}
		if found != "" {
			return "", false
		}
		found = q
	}
	return found, found != ""
}

func cutLast(q string) (string, string, bool) {
	i := strings.LastIndexByte(q, '.')
	if i < 0 {
		return "", "", false
	}
	return q[:i], q[i+1:], true
}

func moduleInfo(table *graph.SymbolTable, def *parser.Definition) *graph.ModuleInfo {
	if info, ok := table.File(def.Location.File); ok {
		return info
	}
	return &graph.ModuleInfo{Module: def.Module}
}
