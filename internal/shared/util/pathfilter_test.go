package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathFilter(t *testing.T) {
	t.Parallel()

	f, err := NewPathFilter([]string{".git", "__pycache__", "build*"}, []string{"*_pb2.py", "conftest.py"})
	require.NoError(t, err)

	assert.True(t, f.SkipDir(".git"))
	assert.True(t, f.SkipDir("build-output"))
	assert.False(t, f.SkipDir("src"))

	assert.True(t, f.SkipFile("service_pb2.py"))
	assert.True(t, f.SkipFile("conftest.py"))
	assert.False(t, f.SkipFile("service.py"))
}

func TestPathFilter_InvalidPattern(t *testing.T) {
	t.Parallel()

	_, err := NewPathFilter([]string{"[unclosed"}, nil)
	assert.Error(t, err)

	_, err = NewPathFilter(nil, []string{"[unclosed"})
	assert.Error(t, err)
}

func TestPathFilter_NilMatchesNothing(t *testing.T) {
	t.Parallel()

	var f *PathFilter
	assert.False(t, f.SkipDir(".git"))
	assert.False(t, f.SkipFile("x.py"))
}
