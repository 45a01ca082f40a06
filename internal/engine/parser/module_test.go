package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModulePath(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		path      string
		roots     []string
		module    string
		isPackage bool
	}{
		{name: "TopLevel", path: "a.py", module: "a"},
		{name: "Nested", path: "pkg/sub/mod.py", module: "pkg.sub.mod"},
		{name: "Package", path: "pkg/__init__.py", module: "pkg", isPackage: true},
		{name: "RootPackage", path: "__init__.py", module: "", isPackage: true},
		{name: "SourceRoot", path: "src/app/core.py", roots: []string{"src"}, module: "app.core"},
		{name: "LongestRoot", path: "libs/py/src/util.py", roots: []string{"libs", "libs/py/src"}, module: "util"},
		{name: "OutsideRoot", path: "tests/test_core.py", roots: []string{"src"}, module: "tests.test_core"},
		{name: "Backslashes", path: `pkg\mod.py`, module: "pkg.mod"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			module, isPackage := ModulePath(tc.path, tc.roots)
			assert.Equal(t, tc.module, module)
			assert.Equal(t, tc.isPackage, isPackage)
		})
	}
}

func TestResolveRelative(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		module    string
		isPackage bool
		level     int
		target    string
		want      string
		ok        bool
	}{
		{name: "SiblingModule", module: "pkg.a", level: 1, target: "b", want: "pkg.b", ok: true},
		{name: "CurrentPackage", module: "pkg.a", level: 1, want: "pkg", ok: true},
		{name: "FromPackageInit", module: "pkg", isPackage: true, level: 1, target: "a", want: "pkg.a", ok: true},
		{name: "Parent", module: "pkg.sub.a", level: 2, target: "util", want: "pkg.util", ok: true},
		{name: "TopLevelSibling", module: "a", level: 1, target: "b", want: "b", ok: true},
		{name: "AboveRoot", module: "a", level: 2, target: "b", ok: false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ResolveRelative(tc.module, tc.isPackage, tc.level, tc.target)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestJoinQualified(t *testing.T) {
	assert.Equal(t, "a.b.c", JoinQualified("a", "b.c"))
	assert.Equal(t, "f", JoinQualified("", "f"))
	assert.Equal(t, "", JoinQualified("", ""))
}
