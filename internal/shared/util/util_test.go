package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePatternPath(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Empty", input: "", expected: ""},
		{name: "Dot", input: ".", expected: ""},
		{name: "Trim", input: "  ./foo/bar  ", expected: "foo/bar"},
		{name: "Relative", input: "foo/../bar", expected: "bar"},
		{name: "Backslashes", input: `src\pkg`, expected: "src/pkg"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, NormalizePatternPath(tc.input))
		})
	}
}

func TestHasPathPrefix(t *testing.T) {
	t.Parallel()

	assert.True(t, HasPathPrefix("src/pkg/mod.py", "src"))
	assert.True(t, HasPathPrefix("src", "src"))
	assert.False(t, HasPathPrefix("srcs/mod.py", "src"))
	assert.False(t, HasPathPrefix("mod.py", "src"))
	assert.True(t, HasPathPrefix("", ""))
}

func TestContentHash(t *testing.T) {
	assert.Equal(t, ContentHash([]byte("def f(): pass\n")), ContentHash([]byte("def f(): pass\n")))
	assert.NotEqual(t, ContentHash([]byte("a")), ContentHash([]byte("b")))
	assert.Len(t, ContentHash(nil), 64)
}

func TestWriteFileWithDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out", "mapping.md")
	require.NoError(t, WriteFileWithDirs(path, []byte("# map\n"), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# map\n", string(data))
}
