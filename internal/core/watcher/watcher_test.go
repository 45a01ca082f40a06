package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"pymap/internal/shared/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWatcher(t *testing.T, dirs, files []string) (*Watcher, <-chan []string) {
	t.Helper()
	filter, err := util.NewPathFilter(dirs, files)
	require.NoError(t, err)

	changed := make(chan []string, 16)
	w, err := NewWatcher(50*time.Millisecond, filter, func(paths []string) {
		changed <- paths
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w, changed
}

func waitFor(t *testing.T, changed <-chan []string, want string) {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case paths := <-changed:
			for _, p := range paths {
				if p == want {
					return
				}
			}
		case <-timeout:
			t.Fatalf("timed out waiting for change of %s", want)
		}
	}
}

func TestNewWatcher_RejectsNilCallback(t *testing.T) {
	w, err := NewWatcher(100*time.Millisecond, nil, nil)
	assert.ErrorIs(t, err, os.ErrInvalid)
	assert.Nil(t, w)
}

func TestWatcher_ReportsPythonChanges(t *testing.T) {
	root := t.TempDir()
	w, changed := newTestWatcher(t, []string{"__pycache__"}, []string{"*_pb2.py"})
	require.NoError(t, w.Watch([]string{root}))

	target := filepath.Join(root, "mod.py")
	require.NoError(t, os.WriteFile(target, []byte("def f():\n    pass\n"), 0o644))
	waitFor(t, changed, target)

	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "api_pb2.py"), []byte("x = 1\n"), 0o644))
	select {
	case paths := <-changed:
		assert.Failf(t, "unexpected change batch", "%v", paths)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_FollowsNewDirectories(t *testing.T) {
	root := t.TempDir()
	w, changed := newTestWatcher(t, nil, nil)
	require.NoError(t, w.Watch([]string{root}))

	subdir := filepath.Join(root, "pkg")
	require.NoError(t, os.MkdirAll(subdir, 0o755))
	nested := filepath.Join(subdir, "nested.py")
	require.NoError(t, os.WriteFile(nested, []byte("def g():\n    pass\n"), 0o644))

	waitFor(t, changed, nested)
}

func TestWatcher_RenameTriggersChange(t *testing.T) {
	root := t.TempDir()
	oldPath := filepath.Join(root, "old.py")
	require.NoError(t, os.WriteFile(oldPath, []byte("x = 1\n"), 0o644))

	w, changed := newTestWatcher(t, nil, nil)
	require.NoError(t, w.Watch([]string{root}))

	newPath := filepath.Join(root, "new.py")
	require.NoError(t, os.Rename(oldPath, newPath))

	timeout := time.After(3 * time.Second)
	for {
		select {
		case paths := <-changed:
			for _, p := range paths {
				if p == oldPath || p == newPath {
					return
				}
			}
		case <-timeout:
			t.Fatalf("timed out waiting for rename event, old=%s new=%s", oldPath, newPath)
		}
	}
}

func TestWatcher_Relevant(t *testing.T) {
	w, _ := newTestWatcher(t, nil, []string{"conftest.py"})

	assert.True(t, w.relevant("/p/pkg/mod.py"))
	assert.True(t, w.relevant("/p/pkg/MOD.PY"))
	assert.False(t, w.relevant("/p/pkg/conftest.py"))
	assert.False(t, w.relevant("/p/pkg/mod.pyc"))
	assert.False(t, w.relevant("/p/go.mod"))
}

func TestWatcher_RemovedPackageDirectoryTriggersChange(t *testing.T) {
	tests := []struct {
		name   string
		remove func(t *testing.T, dir string)
	}{
		{name: "remove", remove: func(t *testing.T, dir string) {
			require.NoError(t, os.RemoveAll(dir))
		}},
		{name: "rename out of tree", remove: func(t *testing.T, dir string) {
			require.NoError(t, os.Rename(dir, filepath.Join(t.TempDir(), "moved")))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			pkg := filepath.Join(root, "pkg")
			require.NoError(t, os.MkdirAll(pkg, 0o755))
			require.NoError(t, os.WriteFile(filepath.Join(pkg, "mod.py"), []byte("def f():\n    pass\n"), 0o644))

			w, changed := newTestWatcher(t, nil, nil)
			require.NoError(t, w.Watch([]string{root}))

			tt.remove(t, pkg)
			waitFor(t, changed, pkg)
		})
	}
}

func TestWatcher_DropDirForgetsSubtree(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "pkg", "sub")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	w, _ := newTestWatcher(t, nil, nil)
	require.NoError(t, w.watchRecursive(root))

	assert.True(t, w.dropDir(filepath.Join(root, "pkg")))
	assert.False(t, w.dropDir(nested))
	assert.False(t, w.dropDir(filepath.Join(root, "mod.py")))
	assert.True(t, w.dropDir(root))
}
