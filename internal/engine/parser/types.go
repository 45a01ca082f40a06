package parser

// AnyType is recorded for parameters and returns without an annotation.
const AnyType = "Any"

type File struct {
	Path        string            `json:"path"`
	Module      string            `json:"module"`     // dotted module path, "" for a root __init__.py
	IsPackage   bool              `json:"is_package"` // file is an __init__.py
	ImportMap   map[string]string `json:"import_map"` // local name -> fully qualified target
	Wildcards   []string          `json:"wildcards,omitempty"`
	Definitions []Definition      `json:"definitions"`
	Classes     []Class           `json:"classes,omitempty"`
}

type Parameter struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

type Definition struct {
	Name          string      `json:"name"`
	QualifiedName string      `json:"qualified_name"`
	Module        string      `json:"module"`
	Class         string      `json:"class,omitempty"` // qualified name of the enclosing class
	Parameters    []Parameter `json:"parameters"`
	ReturnType    string      `json:"return_type"`
	Decorators    []string    `json:"decorators,omitempty"`
	IsAsync       bool        `json:"is_async,omitempty"`
	// Receiver is the name bound to the instance or class inside a method
	// (self/cls by convention). Empty for functions and static methods.
	Receiver  string     `json:"receiver,omitempty"`
	Location  Location   `json:"location"`
	CallSites []CallSite `json:"call_sites,omitempty"`
}

// IsClassMethod reports whether the definition is decorated @classmethod, so
// its receiver names the class itself.
func (d Definition) IsClassMethod() bool {
	return hasDecorator(d.Decorators, "classmethod")
}

type Class struct {
	Name          string   `json:"name"`
	QualifiedName string   `json:"qualified_name"`
	Bases         []string `json:"bases,omitempty"` // source text, keyword arguments excluded
	Location      Location `json:"location"`
}

type CallKind string

const (
	CallBare    CallKind = "bare"    // f()
	CallChain   CallKind = "chain"   // a.b.f()
	CallSuper   CallKind = "super"   // super().f()
	CallComplex CallKind = "complex" // x().f(), x[0].f(); only the trailing name survives
)

type CallSite struct {
	Kind     CallKind `json:"kind"`
	Segments []string `json:"segments"`
	Expr     string   `json:"expr"`
	Location Location `json:"location"`
}

// Name returns the trailing segment of the callee expression.
func (c CallSite) Name() string {
	if len(c.Segments) == 0 {
		return ""
	}
	return c.Segments[len(c.Segments)-1]
}

type Location struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}
