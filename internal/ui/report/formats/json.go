package formats

import (
	"encoding/json"

	"pymap/internal/engine/graph"
)

type JSONGenerator struct{}

func NewJSONGenerator() *JSONGenerator {
	return &JSONGenerator{}
}

func (g *JSONGenerator) Extension() string { return ".json" }

func (g *JSONGenerator) Generate(m *graph.Mapping) ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
