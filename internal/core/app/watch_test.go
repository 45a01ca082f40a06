package app

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch_RebuildsOnChange(t *testing.T) {
	root := writeProject(t, crossFileProject)
	a := newApp(t, root)
	a.Config.Watch.Debounce = 50 * time.Millisecond
	a.Config.Watch.MaxRebuildsPerSecond = 100

	reports := make(chan RunReport, 8)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- a.Watch(ctx, io.Discard, func(r RunReport) { reports <- r })
	}()

	next := func() RunReport {
		select {
		case r := <-reports:
			return r
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for rebuild")
			return RunReport{}
		}
	}

	first := next()
	require.NoError(t, first.Err)
	assert.Equal(t, filepath.Join(a.Root, "mapping.md"), first.Output)
	assert.Len(t, first.Mapping.Functions, 2)

	require.NoError(t, os.WriteFile(filepath.Join(root, "c.py"), []byte("from b import run\n\ndef main():\n    run()\n"), 0o644))
	// Create and write may land in separate batches; wait for the full file.
	var second RunReport
	for second.Mapping == nil || len(second.Mapping.Functions) < 3 {
		second = next()
		require.NoError(t, second.Err)
	}
	assert.Equal(t, []string{"b.run"}, second.Mapping.Functions[2].Calls)

	written, err := os.ReadFile(second.Output)
	require.NoError(t, err)
	assert.Contains(t, string(written), "### `c.main() -> Any`\n- Calls: `b.run`\n")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}
