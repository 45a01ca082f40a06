package parser

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"pymap/internal/shared/observability"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// ParserPool recycles tree-sitter parser instances so the extraction pass
// does not pay for sitter.NewParser() / parser.Close() on every file.
//
// Usage:
//
//	sp := pool.Get()
//	defer pool.Put(sp)
//	tree := sp.Parse(source, nil)
//
// Concurrency: safe for use by multiple goroutines simultaneously.
type ParserPool struct {
	lang *sitter.Language
	pool sync.Pool

	leases   map[*sitter.Parser]time.Time
	leasesMu sync.Mutex
}

// NewParserPool creates a pool for the given language grammar.
// The language must remain valid for the lifetime of the pool. It panics
// when the grammar's ABI is incompatible with the linked tree-sitter runtime,
// since no file could be parsed.
func NewParserPool(lang *sitter.Language) *ParserPool {
	first := sitter.NewParser()
	if err := first.SetLanguage(lang); err != nil {
		first.Close()
		panic(fmt.Sprintf("tree-sitter: incompatible python grammar: %v", err))
	}

	p := &ParserPool{
		lang:   lang,
		leases: make(map[*sitter.Parser]time.Time),
	}
	p.pool = sync.Pool{
		New: func() any {
			sp := sitter.NewParser()
			if err := sp.SetLanguage(lang); err != nil {
				slog.Debug("tree-sitter set language failed", "error", err)
			}
			return sp
		},
	}
	p.pool.Put(first)
	return p
}

// Get retrieves a parser configured for the pool's language.
func (p *ParserPool) Get() *sitter.Parser {
	sp := p.pool.Get().(*sitter.Parser)
	// Reset() on a leased parser does not clear the language, but an
	// external SetLanguage could have.
	if err := sp.SetLanguage(p.lang); err != nil {
		slog.Debug("tree-sitter set language failed", "error", err)
	}

	p.leasesMu.Lock()
	p.leases[sp] = time.Now()
	observability.ParsersLeased.Set(float64(len(p.leases)))
	p.leasesMu.Unlock()

	return sp
}

// Put resets sp and returns it for reuse. Callers must not use sp after Put.
func (p *ParserPool) Put(sp *sitter.Parser) {
	if sp == nil {
		return
	}

	p.leasesMu.Lock()
	delete(p.leases, sp)
	observability.ParsersLeased.Set(float64(len(p.leases)))
	p.leasesMu.Unlock()

	sp.Reset()
	p.pool.Put(sp)
}

// Active returns the number of parsers currently leased out.
func (p *ParserPool) Active() int {
	p.leasesMu.Lock()
	defer p.leasesMu.Unlock()
	return len(p.leases)
}
