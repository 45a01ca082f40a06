package parser

import (
	"path/filepath"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

// SourceExtension is the only file extension the loader recognises.
const SourceExtension = ".py"

// GrammarLoader owns the compiled Python grammar shared by every parser.
type GrammarLoader struct {
	language *sitter.Language
}

func NewGrammarLoader() *GrammarLoader {
	return &GrammarLoader{
		language: sitter.NewLanguage(tree_sitter_python.Language()),
	}
}

func (gl *GrammarLoader) Language() *sitter.Language {
	return gl.language
}

func (gl *GrammarLoader) IsSupportedPath(path string) bool {
	return IsSupportedPath(path)
}

// IsSupportedPath reports whether path names a Python source file.
func IsSupportedPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), SourceExtension)
}
