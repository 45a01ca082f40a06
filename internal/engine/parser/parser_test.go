package parser

import (
	"testing"

	"pymap/internal/core/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleModule = `
import os
import os.path
import numpy as np
from pkg.util import helper, other as alias_other
from . import sibling
from .core import Engine
from ..up import thing
from shapes import *


def plain(a, b: int, c=1, d: str = "x", *args, e, f: float = 2.0, **kwargs) -> Dict[str, int]:
    x = helper(a)
    for item in range(3):
        pass
    with open(a) as fh:
        fh.read()

    def inner(q):
        return alias_other(q)

    return inner(x)


async def fetch(url, /, *, timeout: int = 3):
    await client.get(url)


class Base(Engine, metaclass=Meta):
    def __init__(self, name: str) -> None:
        self.name = name

    @staticmethod
    def build(value):
        return Base(value)

    @classmethod
    def create(cls):
        return cls.build(1)

    class Inner:
        def deep(self):
            super().deep()
            self.items[0].append(1)


if os.environ.get("X"):
    def conditional():
        pass
`

func parseSample(t *testing.T, relPath, source string) *File {
	t.Helper()
	p := NewParser(NewGrammarLoader(), nil)
	file, err := p.ParseFile(relPath, []byte(source))
	require.NoError(t, err)
	require.NotNil(t, file)
	return file
}

func definitionsByName(file *File) map[string]Definition {
	out := make(map[string]Definition, len(file.Definitions))
	for _, def := range file.Definitions {
		out[def.QualifiedName] = def
	}
	return out
}

func TestPythonExtraction_Definitions(t *testing.T) {
	file := parseSample(t, "pkg/sub/mod.py", sampleModule)
	assert.Equal(t, "pkg.sub.mod", file.Module)
	assert.False(t, file.IsPackage)

	defs := definitionsByName(file)
	assert.Len(t, defs, 7)
	for _, name := range []string{
		"pkg.sub.mod.plain",
		"pkg.sub.mod.fetch",
		"pkg.sub.mod.Base.__init__",
		"pkg.sub.mod.Base.build",
		"pkg.sub.mod.Base.create",
		"pkg.sub.mod.Base.Inner.deep",
		"pkg.sub.mod.conditional",
	} {
		assert.Contains(t, defs, name)
	}
	assert.NotContains(t, defs, "pkg.sub.mod.inner")
	assert.NotContains(t, defs, "pkg.sub.mod.plain.inner")

	plain := defs["pkg.sub.mod.plain"]
	assert.Equal(t, []Parameter{
		{Name: "a", Type: "Any"},
		{Name: "b", Type: "int"},
		{Name: "c", Type: "Any"},
		{Name: "d", Type: "str"},
		{Name: "*args", Type: "Any"},
		{Name: "e", Type: "Any"},
		{Name: "f", Type: "float"},
		{Name: "**kwargs", Type: "Any"},
	}, plain.Parameters)
	assert.Equal(t, "Dict[str, int]", plain.ReturnType)
	assert.Empty(t, plain.Class)
	assert.Empty(t, plain.Receiver)
	assert.Equal(t, 12, plain.Location.Line)

	fetch := defs["pkg.sub.mod.fetch"]
	assert.True(t, fetch.IsAsync)
	assert.Equal(t, []Parameter{{Name: "url", Type: "Any"}, {Name: "timeout", Type: "int"}}, fetch.Parameters)
	assert.Equal(t, "Any", fetch.ReturnType)

	init := defs["pkg.sub.mod.Base.__init__"]
	assert.Equal(t, "pkg.sub.mod.Base", init.Class)
	assert.Equal(t, "self", init.Receiver)
	assert.Equal(t, "None", init.ReturnType)

	assert.Empty(t, defs["pkg.sub.mod.Base.build"].Receiver)
	assert.Equal(t, []string{"staticmethod"}, defs["pkg.sub.mod.Base.build"].Decorators)
	assert.Equal(t, "cls", defs["pkg.sub.mod.Base.create"].Receiver)
	assert.Equal(t, "pkg.sub.mod.Base.Inner", defs["pkg.sub.mod.Base.Inner.deep"].Class)
}

func TestPythonExtraction_Classes(t *testing.T) {
	file := parseSample(t, "pkg/sub/mod.py", sampleModule)

	require.Len(t, file.Classes, 2)
	assert.Equal(t, "pkg.sub.mod.Base", file.Classes[0].QualifiedName)
	assert.Equal(t, []string{"Engine"}, file.Classes[0].Bases)
	assert.Equal(t, "pkg.sub.mod.Base.Inner", file.Classes[1].QualifiedName)
	assert.Empty(t, file.Classes[1].Bases)
}

func TestPythonExtraction_ImportMap(t *testing.T) {
	file := parseSample(t, "pkg/sub/mod.py", sampleModule)

	assert.Equal(t, map[string]string{
		"os":          "os",
		"os.path":     "os.path",
		"np":          "numpy",
		"helper":      "pkg.util.helper",
		"alias_other": "pkg.util.other",
		"sibling":     "pkg.sub.sibling",
		"Engine":      "pkg.sub.core.Engine",
		"thing":       "pkg.up.thing",
	}, file.ImportMap)
	assert.Equal(t, []string{"shapes"}, file.Wildcards)
}

func TestPythonExtraction_CallSites(t *testing.T) {
	file := parseSample(t, "pkg/sub/mod.py", sampleModule)
	defs := definitionsByName(file)

	plain := defs["pkg.sub.mod.plain"]
	var exprs []string
	for _, site := range plain.CallSites {
		exprs = append(exprs, site.Expr)
	}
	assert.ElementsMatch(t, []string{"helper", "range", "open", "fh.read", "alias_other", "inner"}, exprs)

	for _, site := range plain.CallSites {
		if site.Expr == "fh.read" {
			assert.Equal(t, CallChain, site.Kind)
			assert.Equal(t, []string{"fh", "read"}, site.Segments)
		}
	}

	deep := defs["pkg.sub.mod.Base.Inner.deep"]
	kinds := make(map[CallKind][]string)
	for _, site := range deep.CallSites {
		kinds[site.Kind] = append(kinds[site.Kind], site.Name())
	}
	assert.Equal(t, []string{"deep"}, kinds[CallSuper])
	assert.Equal(t, []string{"append"}, kinds[CallComplex])
	assert.Equal(t, []string{"super"}, kinds[CallBare])
}

func TestPythonExtraction_LastDefinitionWins(t *testing.T) {
	file := parseSample(t, "dup.py", `
def f():
    return 1

def f(x: int) -> int:
    return x
`)

	require.Len(t, file.Definitions, 1)
	assert.Equal(t, []Parameter{{Name: "x", Type: "int"}}, file.Definitions[0].Parameters)
	assert.Equal(t, "int", file.Definitions[0].ReturnType)
}

func TestPythonExtraction_NoParametersIsEmptyList(t *testing.T) {
	file := parseSample(t, "bare.py", `
def g():
    pass
`)

	require.Len(t, file.Definitions, 1)
	assert.NotNil(t, file.Definitions[0].Parameters)
	assert.Empty(t, file.Definitions[0].Parameters)
}

func TestPythonExtraction_MultiLineAnnotation(t *testing.T) {
	file := parseSample(t, "wide.py", `
def g(x: Dict[
    str,
    int
]) -> None:
    pass
`)

	require.Len(t, file.Definitions, 1)
	assert.Equal(t, "Dict[str, int]", file.Definitions[0].Parameters[0].Type)
}

func TestPythonExtraction_PackageInit(t *testing.T) {
	file := parseSample(t, "pkg/__init__.py", `
from .core import run
from . import util

def boot():
    run()
`)

	assert.Equal(t, "pkg", file.Module)
	assert.True(t, file.IsPackage)
	assert.Equal(t, "pkg.core.run", file.ImportMap["run"])
	assert.Equal(t, "pkg.util", file.ImportMap["util"])
	assert.Equal(t, "pkg.boot", file.Definitions[0].QualifiedName)
}

func TestParseFile_SyntaxErrorIsParseFailure(t *testing.T) {
	p := NewParser(NewGrammarLoader(), nil)

	file, err := p.ParseFile("broken.py", []byte("def ok():\n    pass\n\ndef broken(:\n    pass\n"))
	require.Error(t, err)
	assert.Nil(t, file)
	assert.True(t, errors.IsCode(err, errors.CodeParseFailure))
	assert.Contains(t, err.Error(), "path=broken.py")
	assert.Equal(t, 0, p.pool.Active())
}

func TestParseFile_RejectsNonPython(t *testing.T) {
	p := NewParser(NewGrammarLoader(), nil)

	_, err := p.ParseFile("README.md", []byte("# hi\n"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeNotSupported))
}

func TestParseFile_EmptyFile(t *testing.T) {
	file := parseSample(t, "empty.py", "")
	assert.Empty(t, file.Definitions)
	assert.Empty(t, file.ImportMap)
}
