package app

import (
	"fmt"
	"io"

	"pymap/internal/engine/graph"
	"pymap/internal/shared/util"
	"pymap/internal/ui/report/formats"
)

// Render serializes m in the configured output format.
func (a *App) Render(m *graph.Mapping) ([]byte, error) {
	gen, err := formats.ForFormat(a.Config.Output.Format)
	if err != nil {
		return nil, err
	}
	return gen.Generate(m)
}

// WriteOutput renders m and writes it to the configured output path, or to
// stdout when the path is "-". It returns the destination written.
func (a *App) WriteOutput(m *graph.Mapping, stdout io.Writer) (string, error) {
	data, err := a.Render(m)
	if err != nil {
		return "", err
	}

	target := a.OutputPath()
	if target == "-" {
		if _, err := stdout.Write(data); err != nil {
			return "", fmt.Errorf("write mapping to stdout: %w", err)
		}
		return target, nil
	}
	if err := util.WriteFileWithDirs(target, data, 0o644); err != nil {
		return "", fmt.Errorf("write mapping %q: %w", target, err)
	}
	return target, nil
}
