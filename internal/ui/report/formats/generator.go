package formats

import (
	"fmt"
	"sort"
	"strings"

	"pymap/internal/engine/graph"
)

// Generator renders a mapping. Output depends only on the mapping, so an
// unchanged project renders byte-identical output.
type Generator interface {
	Generate(m *graph.Mapping) ([]byte, error)
	Extension() string
}

var generators = map[string]func() Generator{
	"markdown": func() Generator { return NewMarkdownGenerator() },
	"json":     func() Generator { return NewJSONGenerator() },
	"yaml":     func() Generator { return NewYAMLGenerator() },
}

// ForFormat returns the generator registered for format.
func ForFormat(format string) (Generator, error) {
	build, ok := generators[strings.ToLower(strings.TrimSpace(format))]
	if !ok {
		return nil, fmt.Errorf("unsupported output format %q; supported: %s", format, strings.Join(Formats(), ", "))
	}
	return build(), nil
}

// Formats lists the registered format names in sorted order.
func Formats() []string {
	names := make([]string, 0, len(generators))
	for name := range generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
