package graph

import (
	"strings"

	"pymap/internal/engine/parser"
)

// FunctionRecord is one entry of the rendered mapping.
type FunctionRecord struct {
	QualifiedName string             `json:"qualified_name" yaml:"qualified_name"`
	Module        string             `json:"module" yaml:"module"`
	Class         string             `json:"class,omitempty" yaml:"class,omitempty"`
	Parameters    []parser.Parameter `json:"parameters" yaml:"parameters"`
	ReturnType    string             `json:"return_type" yaml:"return_type"`
	Calls         []string           `json:"calls" yaml:"calls"` // sorted, unique
	File          string             `json:"file" yaml:"file"`
	Line          int                `json:"line" yaml:"line"`
}

// Signature renders the record as qname(a: T, b: Any) -> R.
func (r FunctionRecord) Signature() string {
	params := make([]string, 0, len(r.Parameters))
	for _, p := range r.Parameters {
		params = append(params, p.Name+": "+p.Type)
	}
	return r.QualifiedName + "(" + strings.Join(params, ", ") + ") -> " + r.ReturnType
}

// Warning records a file that contributed nothing to the mapping.
type Warning struct {
	Path    string `json:"path" yaml:"path"`
	Code    string `json:"code" yaml:"code"`
	Message string `json:"message" yaml:"message"`
	Line    int    `json:"line,omitempty" yaml:"line,omitempty"`
}

type Stats struct {
	Files       int `json:"files" yaml:"files"`
	Parsed      int `json:"parsed" yaml:"parsed"`
	Cached      int `json:"cached" yaml:"cached"`
	Skipped     int `json:"skipped" yaml:"skipped"`
	Definitions int `json:"definitions" yaml:"definitions"`
	Edges       int `json:"edges" yaml:"edges"`
}

// Mapping is the complete result of one run. Functions are sorted by
// qualified name. Stats vary with cache state and are not rendered.
type Mapping struct {
	Functions []FunctionRecord `json:"functions" yaml:"functions"`
	Warnings  []Warning        `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Stats     Stats            `json:"-" yaml:"-"`
}

// CallEdge is one resolved caller -> callee relation with the number of
// call sites that produced it.
type CallEdge struct {
	Caller string
	Callee string
	Sites  int
}
