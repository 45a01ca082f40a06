package graph

import (
	"testing"

	"pymap/internal/engine/parser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func def(file, module, class, name string, line int) parser.Definition {
	owner := module
	if class != "" {
		owner = class
	}
	return parser.Definition{
		Name:          name,
		QualifiedName: parser.JoinQualified(owner, name),
		Module:        module,
		Class:         class,
		ReturnType:    parser.AnyType,
		Location:      parser.Location{File: file, Line: line},
	}
}

func TestBuildSymbolTable_IndexesDefinitions(t *testing.T) {
	files := []*parser.File{
		{
			Path:        "a.py",
			Module:      "a",
			ImportMap:   map[string]string{},
			Definitions: []parser.Definition{def("a.py", "a", "", "run", 1), def("a.py", "a", "a.C", "m", 4)},
			Classes:     []parser.Class{{Name: "C", QualifiedName: "a.C"}},
		},
		{
			Path:        "b.py",
			Module:      "b",
			ImportMap:   map[string]string{"run": "a.run"},
			Definitions: []parser.Definition{def("b.py", "b", "", "run", 2)},
		},
	}

	table := BuildSymbolTable(files)
	require.Equal(t, 3, table.Len())

	got, ok := table.Lookup("a.C.m")
	require.True(t, ok)
	assert.Equal(t, "a.C", got.Class)

	_, ok = table.Lookup("math.sqrt")
	assert.False(t, ok)

	assert.Equal(t, []string{"a.run", "b.run"}, table.ByName("run"))
	assert.Empty(t, table.ByName("missing"))

	_, ok = table.Class("a.C")
	assert.True(t, ok)

	info, ok := table.Module("b")
	require.True(t, ok)
	assert.Equal(t, "a.run", info.ImportMap["run"])
	info, ok = table.File("a.py")
	require.True(t, ok)
	assert.Equal(t, "a", info.Module)

	var names []string
	for _, d := range table.Definitions() {
		names = append(names, d.QualifiedName)
	}
	assert.Equal(t, []string{"a.C.m", "a.run", "b.run"}, names)
}

func TestBuildSymbolTable_LaterFileWinsOnCollision(t *testing.T) {
	first := def("lib/pkg/mod.py", "pkg.mod", "", "f", 1)
	second := def("src/pkg/mod.py", "pkg.mod", "", "f", 9)

	table := BuildSymbolTable([]*parser.File{
		{Path: "lib/pkg/mod.py", Module: "pkg.mod", Definitions: []parser.Definition{first}},
		{Path: "src/pkg/mod.py", Module: "pkg.mod", Definitions: []parser.Definition{second}},
	})

	got, ok := table.Lookup("pkg.mod.f")
	require.True(t, ok)
	assert.Equal(t, "src/pkg/mod.py", got.Location.File)
	assert.Equal(t, []string{"pkg.mod.f"}, table.Replaced())
	assert.Equal(t, []string{"pkg.mod.f"}, table.ByName("f"))

	info, _ := table.Module("pkg.mod")
	assert.Equal(t, "src/pkg/mod.py", info.Path)
}

func TestBuildSymbolTable_Empty(t *testing.T) {
	table := BuildSymbolTable(nil)
	assert.Equal(t, 0, table.Len())
	assert.Empty(t, table.Definitions())
}

func TestFunctionRecord_Signature(t *testing.T) {
	rec := FunctionRecord{
		QualifiedName: "a.helper",
		Parameters:    []parser.Parameter{{Name: "x", Type: "int"}, {Name: "*args", Type: "Any"}},
		ReturnType:    "bool",
	}
	assert.Equal(t, "a.helper(x: int, *args: Any) -> bool", rec.Signature())

	assert.Equal(t, "a.noop() -> Any", FunctionRecord{QualifiedName: "a.noop", ReturnType: "Any"}.Signature())
}
