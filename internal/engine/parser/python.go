package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// PythonExtractor turns a parsed module into definitions, classes, the
// import map and per-definition call sites.
type PythonExtractor struct{}

func (e *PythonExtractor) Extract(root *sitter.Node, source []byte, file *File) {
	if file.ImportMap == nil {
		file.ImportMap = make(map[string]string)
	}
	ctx := &ExtractionContext{Source: source, File: file}

	// Imports anywhere in the file feed the module-wide import map.
	imports := NewExtractorEngine(map[string]NodeHandler{
		"import_statement":      e.extractImport,
		"import_from_statement": e.extractFromImport,
	})
	imports.Walk(ctx, root)

	s := &scope{
		ctx:     ctx,
		defs:    make(map[string]int),
		classes: make(map[string]int),
	}
	s.walkBlock(root, "")
}

func (e *PythonExtractor) extractImport(ctx *ExtractionContext, node *sitter.Node) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)

		switch child.Kind() {
		case "dotted_name":
			module := ctx.Text(child)
			head, _, _ := strings.Cut(module, ".")
			ctx.File.ImportMap[head] = head
			ctx.File.ImportMap[module] = module
		case "aliased_import":
			name := ctx.Text(child.ChildByFieldName("name"))
			alias := ctx.Text(child.ChildByFieldName("alias"))
			if name != "" && alias != "" {
				ctx.File.ImportMap[alias] = name
			}
		}
	}
	return true
}

func (e *PythonExtractor) extractFromImport(ctx *ExtractionContext, node *sitter.Node) bool {
	var module string
	haveModule := false
	foundImport := false

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)

		switch child.Kind() {
		case "import":
			foundImport = true
		case "relative_import":
			module = e.resolveRelativeImport(ctx, child)
			haveModule = true
		case "dotted_name":
			if !foundImport {
				module = ctx.Text(child)
				haveModule = true
				continue
			}
			name := ctx.Text(child)
			ctx.File.ImportMap[name] = JoinQualified(module, name)
		case "aliased_import":
			name := ctx.Text(child.ChildByFieldName("name"))
			alias := ctx.Text(child.ChildByFieldName("alias"))
			if name != "" && alias != "" {
				ctx.File.ImportMap[alias] = JoinQualified(module, name)
			}
		case "wildcard_import":
			if haveModule && module != "" {
				ctx.File.Wildcards = appendUnique(ctx.File.Wildcards, module)
			}
		}
	}
	return true
}

// resolveRelativeImport makes a relative_import node absolute. Imports that
// climb above the project root keep their dotted source text, which can never
// match a project module.
func (e *PythonExtractor) resolveRelativeImport(ctx *ExtractionContext, node *sitter.Node) string {
	level := 0
	name := ""
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "import_prefix":
			level = strings.Count(ctx.Text(child), ".")
		case "dotted_name":
			name = ctx.Text(child)
		}
	}
	module, ok := ResolveRelative(ctx.File.Module, ctx.File.IsPackage, level, name)
	if !ok {
		return ctx.Text(node)
	}
	return module
}

// scope tracks the definition-bearing structure of one file: module level,
// module-level compound statements and (nested) class bodies.
type scope struct {
	ctx     *ExtractionContext
	defs    map[string]int // qualified name -> index in File.Definitions
	classes map[string]int
}

var compoundKinds = map[string]bool{
	"if_statement":        true,
	"elif_clause":         true,
	"else_clause":         true,
	"try_statement":       true,
	"except_clause":       true,
	"except_group_clause": true,
	"finally_clause":      true,
	"with_statement":      true,
	"for_statement":       true,
	"while_statement":     true,
	"match_statement":     true,
	"case_clause":         true,
	"block":               true,
}

func (s *scope) walkBlock(node *sitter.Node, classQ string) {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "function_definition":
			s.addFunction(child, nil, classQ)
		case "class_definition":
			s.addClass(child, classQ)
		case "decorated_definition":
			def := child.ChildByFieldName("definition")
			if def == nil {
				continue
			}
			switch def.Kind() {
			case "function_definition":
				s.addFunction(def, s.decorators(child), classQ)
			case "class_definition":
				s.addClass(def, classQ)
			}
		default:
			if compoundKinds[child.Kind()] {
				s.walkBlock(child, classQ)
			}
		}
	}
}

func (s *scope) qualify(classQ, name string) string {
	if classQ != "" {
		return classQ + "." + name
	}
	return JoinQualified(s.ctx.File.Module, name)
}

func (s *scope) addClass(node *sitter.Node, outerQ string) {
	ctx := s.ctx
	name := ctx.Text(node.ChildByFieldName("name"))
	if name == "" {
		return
	}

	class := Class{
		Name:          name,
		QualifiedName: s.qualify(outerQ, name),
		Bases:         s.bases(node.ChildByFieldName("superclasses")),
		Location:      ctx.Location(node),
	}
	if idx, ok := s.classes[class.QualifiedName]; ok {
		ctx.File.Classes[idx] = class
	} else {
		s.classes[class.QualifiedName] = len(ctx.File.Classes)
		ctx.File.Classes = append(ctx.File.Classes, class)
	}

	if body := node.ChildByFieldName("body"); body != nil {
		s.walkBlock(body, class.QualifiedName)
	}
}

// bases keeps positional superclass expressions; metaclass= and other
// keyword arguments are not bases.
func (s *scope) bases(args *sitter.Node) []string {
	if args == nil {
		return nil
	}
	var out []string
	for i := uint(0); i < args.ChildCount(); i++ {
		child := args.Child(i)
		switch child.Kind() {
		case "(", ")", ",", "keyword_argument", "list_splat", "dictionary_splat", "comment":
			continue
		}
		if text := strings.TrimSpace(s.ctx.Text(child)); text != "" {
			out = append(out, text)
		}
	}
	return out
}

func (s *scope) decorators(node *sitter.Node) []string {
	var out []string
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() != "decorator" {
			continue
		}
		dec := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s.ctx.Text(child)), "@"))
		if dec != "" {
			out = append(out, dec)
		}
	}
	return out
}

func (s *scope) addFunction(node *sitter.Node, decorators []string, classQ string) {
	ctx := s.ctx
	name := ctx.Text(node.ChildByFieldName("name"))
	if name == "" {
		return
	}

	def := Definition{
		Name:          name,
		QualifiedName: s.qualify(classQ, name),
		Module:        ctx.File.Module,
		Class:         classQ,
		Parameters:    s.parameters(node.ChildByFieldName("parameters")),
		ReturnType:    AnyType,
		Decorators:    decorators,
		IsAsync:       strings.HasPrefix(ctx.Text(node), "async"),
		Location:      ctx.Location(node),
	}
	if ret := node.ChildByFieldName("return_type"); ret != nil {
		def.ReturnType = ctx.AnnotationText(ret)
	}
	if classQ != "" && !hasDecorator(decorators, "staticmethod") && len(def.Parameters) > 0 {
		if first := def.Parameters[0].Name; !strings.HasPrefix(first, "*") {
			def.Receiver = first
		}
	}

	body := &ExtractionContext{Source: ctx.Source, File: ctx.File, Def: &def}
	bodyEngine.Walk(body, node.ChildByFieldName("body"))

	if idx, ok := s.defs[def.QualifiedName]; ok {
		ctx.File.Definitions[idx] = def
		return
	}
	s.defs[def.QualifiedName] = len(ctx.File.Definitions)
	ctx.File.Definitions = append(ctx.File.Definitions, def)
}

func (s *scope) parameters(params *sitter.Node) []Parameter {
	out := []Parameter{}
	if params == nil {
		return out
	}
	ctx := s.ctx
	for i := uint(0); i < params.ChildCount(); i++ {
		child := params.Child(i)
		switch child.Kind() {
		case "identifier", "list_splat_pattern", "dictionary_splat_pattern":
			out = append(out, Parameter{Name: ctx.Text(child), Type: AnyType})
		case "default_parameter":
			out = append(out, Parameter{Name: ctx.Text(child.ChildByFieldName("name")), Type: AnyType})
		case "typed_parameter":
			// The name is the first child: identifier or a splat pattern.
			name := ""
			if child.ChildCount() > 0 {
				name = ctx.Text(child.Child(0))
			}
			out = append(out, Parameter{Name: name, Type: annotation(ctx, child.ChildByFieldName("type"))})
		case "typed_default_parameter":
			out = append(out, Parameter{
				Name: ctx.Text(child.ChildByFieldName("name")),
				Type: annotation(ctx, child.ChildByFieldName("type")),
			})
		}
	}
	return out
}

func annotation(ctx *ExtractionContext, node *sitter.Node) string {
	if node == nil {
		return AnyType
	}
	if text := ctx.AnnotationText(node); text != "" {
		return text
	}
	return AnyType
}

// bodyEngine collects the call sites of a function body. Nested functions
// and classes are walked too: their calls belong to the enclosing registered
// definition.
var bodyEngine = NewExtractorEngine(map[string]NodeHandler{
	"call":                  extractCall,
	"import_statement":      skipSubtree,
	"import_from_statement": skipSubtree,
})

func skipSubtree(*ExtractionContext, *sitter.Node) bool { return true }

func extractCall(ctx *ExtractionContext, node *sitter.Node) bool {
	fn := node.ChildByFieldName("function")
	if fn == nil || ctx.Def == nil {
		return false
	}

	site := CallSite{Expr: ctx.Text(fn), Location: ctx.Location(fn)}
	switch fn.Kind() {
	case "identifier":
		site.Kind = CallBare
		site.Segments = []string{ctx.Text(fn)}
	case "attribute":
		site.Kind, site.Segments = attributeChain(ctx, fn)
	default:
		return false
	}
	if len(site.Segments) > 0 {
		ctx.Def.CallSites = append(ctx.Def.CallSites, site)
	}
	return false
}

// attributeChain flattens a.b.c into its segments. Receivers that are not a
// pure name chain collapse to the trailing attribute; super() is kept apart
// so the resolver can restrict lookup to base classes.
func attributeChain(ctx *ExtractionContext, node *sitter.Node) (CallKind, []string) {
	var segments []string
	cur := node
	for cur != nil && cur.Kind() == "attribute" {
		segments = append(segments, ctx.Text(cur.ChildByFieldName("attribute")))
		cur = cur.ChildByFieldName("object")
	}
	if cur == nil || len(segments) == 0 {
		return CallComplex, nil
	}
	reverse(segments)

	switch cur.Kind() {
	case "identifier":
		return CallChain, append([]string{ctx.Text(cur)}, segments...)
	case "call":
		if callee := cur.ChildByFieldName("function"); callee != nil && callee.Kind() == "identifier" && ctx.Text(callee) == "super" && len(segments) == 1 {
			return CallSuper, segments
		}
	}
	return CallComplex, segments[len(segments)-1:]
}

func reverse(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func hasDecorator(decorators []string, name string) bool {
	for _, dec := range decorators {
		if dec == name {
			return true
		}
	}
	return false
}

func appendUnique(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}
