package formats

import (
	"bytes"

	"pymap/internal/engine/graph"

	"gopkg.in/yaml.v3"
)

type YAMLGenerator struct{}

func NewYAMLGenerator() *YAMLGenerator {
	return &YAMLGenerator{}
}

func (g *YAMLGenerator) Extension() string { return ".yaml" }

func (g *YAMLGenerator) Generate(m *graph.Mapping) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
