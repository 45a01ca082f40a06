package parser

import (
	"sync"
	"testing"

	"pymap/internal/shared/observability"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParserPool_GetPut(t *testing.T) {
	pool := NewParserPool(NewGrammarLoader().Language())

	sp := pool.Get()
	require.NotNil(t, sp)
	assert.Equal(t, 1, pool.Active())
	assert.Equal(t, 1.0, testutil.ToFloat64(observability.ParsersLeased))

	pool.Put(sp)
	assert.Equal(t, 0, pool.Active())
	assert.Equal(t, 0.0, testutil.ToFloat64(observability.ParsersLeased))
}

func TestParserPool_PutNil(t *testing.T) {
	pool := NewParserPool(NewGrammarLoader().Language())

	// Put(nil) must be a no-op.
	pool.Put(nil)
	assert.Equal(t, 0, pool.Active())
}

func TestParserPool_ParsesValidPython(t *testing.T) {
	pool := NewParserPool(NewGrammarLoader().Language())

	sp := pool.Get()
	defer pool.Put(sp)

	tree := sp.Parse([]byte("def main():\n    return 1\n"), nil)
	require.NotNil(t, tree)
	defer tree.Close()

	assert.False(t, tree.RootNode().HasError())
}

func TestParserPool_ConcurrentAccess(t *testing.T) {
	pool := NewParserPool(NewGrammarLoader().Language())

	const goroutines = 20
	const iters = 50

	var wg sync.WaitGroup
	wg.Add(goroutines)

	src := []byte("def run():\n    pass\n")

	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < iters; j++ {
				sp := pool.Get()
				tree := sp.Parse(src, nil)
				if tree == nil {
					t.Errorf("expected non-nil parse tree")
				} else {
					tree.Close()
				}
				pool.Put(sp)
			}
		}()
	}

	wg.Wait()
	assert.Equal(t, 0, pool.Active())
}

func TestParserPool_LanguageSetAfterReset(t *testing.T) {
	pool := NewParserPool(NewGrammarLoader().Language())

	sp := pool.Get()
	sp.Reset()
	pool.Put(sp)

	sp2 := pool.Get()
	defer pool.Put(sp2)

	tree := sp2.Parse([]byte("def ok():\n    pass\n"), nil)
	require.NotNil(t, tree)
	defer tree.Close()
}
