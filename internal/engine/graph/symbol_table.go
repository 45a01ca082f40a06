package graph

import (
	"sort"

	"pymap/internal/engine/parser"
)

// ModuleInfo is the per-file view the resolver needs: where names in the
// file come from.
type ModuleInfo struct {
	Path      string
	Module    string
	IsPackage bool
	ImportMap map[string]string
	Wildcards []string
}

// SymbolTable maps qualified names to definitions and classes across the
// whole project. It is built once by BuildSymbolTable and never mutated
// afterwards, so concurrent readers need no locking.
type SymbolTable struct {
	defs     map[string]*parser.Definition
	classes  map[string]*parser.Class
	byName   map[string][]string
	modules  map[string]*ModuleInfo // module path -> info
	files    map[string]*ModuleInfo // file path -> info
	ordered  []*parser.Definition
	replaced []string
}

// BuildSymbolTable registers every definition of files. files must be in
// sorted path order: when two files claim the same qualified name or module
// path, the later file wins.
func BuildSymbolTable(files []*parser.File) *SymbolTable {
	t := &SymbolTable{
		defs:    make(map[string]*parser.Definition),
		classes: make(map[string]*parser.Class),
		byName:  make(map[string][]string),
		modules: make(map[string]*ModuleInfo),
		files:   make(map[string]*ModuleInfo),
	}

	for _, file := range files {
		if file == nil {
			continue
		}
		info := &ModuleInfo{
			Path:      file.Path,
			Module:    file.Module,
			IsPackage: file.IsPackage,
			ImportMap: file.ImportMap,
			Wildcards: file.Wildcards,
		}
		t.files[file.Path] = info
		t.modules[file.Module] = info

		for i := range file.Classes {
			t.classes[file.Classes[i].QualifiedName] = &file.Classes[i]
		}
		for i := range file.Definitions {
			def := &file.Definitions[i]
			if prev, ok := t.defs[def.QualifiedName]; ok && prev.Location.File != def.Location.File {
				t.replaced = append(t.replaced, def.QualifiedName)
			}
			t.defs[def.QualifiedName] = def
		}
	}

	t.ordered = make([]*parser.Definition, 0, len(t.defs))
	for _, def := range t.defs {
		t.ordered = append(t.ordered, def)
		t.byName[def.Name] = append(t.byName[def.Name], def.QualifiedName)
	}
	sort.Slice(t.ordered, func(i, j int) bool {
		return t.ordered[i].QualifiedName < t.ordered[j].QualifiedName
	})
	for name := range t.byName {
		sort.Strings(t.byName[name])
	}
	sort.Strings(t.replaced)
	return t
}

// Lookup returns the definition registered under qualified name q.
func (t *SymbolTable) Lookup(q string) (*parser.Definition, bool) {
	def, ok := t.defs[q]
	return def, ok
}

func (t *SymbolTable) Class(q string) (*parser.Class, bool) {
	class, ok := t.classes[q]
	return class, ok
}

// ByName returns the sorted qualified names of every definition whose bare
// name is name.
func (t *SymbolTable) ByName(name string) []string {
	return append([]string(nil), t.byName[name]...)
}

// Module returns the file registered for a module path.
func (t *SymbolTable) Module(module string) (*ModuleInfo, bool) {
	info, ok := t.modules[module]
	return info, ok
}

// File returns the module info of the file at path.
func (t *SymbolTable) File(path string) (*ModuleInfo, bool) {
	info, ok := t.files[path]
	return info, ok
}

// Definitions returns every definition sorted by qualified name.
func (t *SymbolTable) Definitions() []*parser.Definition {
	return append([]*parser.Definition(nil), t.ordered...)
}

func (t *SymbolTable) Len() int {
	return len(t.defs)
}

// Replaced lists qualified names that a later file took over from an
// earlier one.
func (t *SymbolTable) Replaced() []string {
	return append([]string(nil), t.replaced...)
}
