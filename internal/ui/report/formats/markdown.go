package formats

import (
	"fmt"
	"strings"

	"pymap/internal/engine/graph"
)

type MarkdownGenerator struct{}

func NewMarkdownGenerator() *MarkdownGenerator {
	return &MarkdownGenerator{}
}

func (g *MarkdownGenerator) Extension() string { return ".md" }

// Generate writes the function map: one heading per function carrying its
// signature, followed by its sorted callees or "None".
func (g *MarkdownGenerator) Generate(m *graph.Mapping) ([]byte, error) {
	lines := []string{
		"# Project-wide Function Mapping\n",
		"## Functions (with cross-file call analysis)\n",
	}
	for _, fn := range m.Functions {
		lines = append(lines, "### `"+fn.Signature()+"`")
		if len(fn.Calls) > 0 {
			lines = append(lines, "- Calls: `"+strings.Join(fn.Calls, ", ")+"`")
		} else {
			lines = append(lines, "- Calls: None")
		}
		lines = append(lines, "")
	}

	if len(m.Warnings) > 0 {
		lines = append(lines, "## Skipped files\n")
		for _, w := range m.Warnings {
			entry := fmt.Sprintf("- `%s`: %s", w.Path, w.Message)
			if w.Line > 0 {
				entry += fmt.Sprintf(" (line %d)", w.Line)
			}
			lines = append(lines, entry)
		}
		lines = append(lines, "")
	}
	return []byte(strings.Join(lines, "\n")), nil
}
