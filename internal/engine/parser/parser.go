package parser

import (
	"pymap/internal/core/errors"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

type Parser struct {
	loader      *GrammarLoader
	pool        *ParserPool
	extractor   *PythonExtractor
	sourceRoots []string
}

func NewParser(loader *GrammarLoader, sourceRoots []string) *Parser {
	return &Parser{
		loader:      loader,
		pool:        NewParserPool(loader.Language()),
		extractor:   &PythonExtractor{},
		sourceRoots: append([]string(nil), sourceRoots...),
	}
}

// ParseFile parses one project file. relPath is the slash-separated path
// relative to the project root; it determines the module path. A tree with
// error or missing nodes is reported as CodeParseFailure and yields no File.
func (p *Parser) ParseFile(relPath string, content []byte) (*File, error) {
	if !p.loader.IsSupportedPath(relPath) {
		return nil, errors.AddContext(errors.New(errors.CodeNotSupported, "not a python source file"), errors.CtxPath, relPath)
	}

	sp := p.pool.Get()
	defer p.pool.Put(sp)

	tree := sp.Parse(content, nil)
	if tree == nil {
		return nil, errors.AddContext(errors.New(errors.CodeInternal, "parse failed"), errors.CtxPath, relPath)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		err := errors.New(errors.CodeParseFailure, "syntax error")
		err = errors.AddContext(err, errors.CtxPath, relPath)
		if bad := firstErrorNode(root); bad != nil {
			err = errors.AddContext(err, errors.CtxLine, int(bad.StartPosition().Row)+1)
		}
		return nil, err
	}

	module, isPackage := ModulePath(relPath, p.sourceRoots)
	file := &File{
		Path:      relPath,
		Module:    module,
		IsPackage: isPackage,
		ImportMap: make(map[string]string),
	}
	p.extractor.Extract(root, content, file)
	return file, nil
}

func firstErrorNode(node *sitter.Node) *sitter.Node {
	if node == nil {
		return nil
	}
	if node.IsError() || node.IsMissing() {
		return node
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if !child.HasError() && !child.IsMissing() {
			continue
		}
		if bad := firstErrorNode(child); bad != nil {
			return bad
		}
	}
	return nil
}

