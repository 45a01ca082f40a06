package resolver

// Strategy names the rule that resolved a call.
type Strategy string

const (
	StrategySameModule   Strategy = "same_module"   // f() -> module.f
	StrategySameClass    Strategy = "same_class"    // f() -> module.C.f
	StrategyModuleUnique Strategy = "module_unique" // f() -> the only f in the module
	StrategyImport       Strategy = "import"        // through the import map
	StrategyWildcard     Strategy = "wildcard"      // through from X import *
	StrategyBareName     Strategy = "bare_name"     // the only f in the project
	StrategyReceiver     Strategy = "receiver"      // self.f() on the caller's class
	StrategyInherited    Strategy = "inherited"     // self.f() on a base class
	StrategyModuleMember Strategy = "module_member" // C.f() for a same-module C
	StrategySuper        Strategy = "super"         // super().f()
	StrategyTrailingName Strategy = "trailing_name" // x.f() -> the only f in the project
)

// Reason explains why a call was dropped.
type Reason string

const (
	ReasonExternal  Reason = "external_import" // imported name with no project match
	ReasonAmbiguous Reason = "ambiguous"
	ReasonNotFound  Reason = "not_found"
)

// Resolution is the outcome of resolving one call site: either a qualified
// name in the symbol table with the strategy that found it, or a reason.
type Resolution struct {
	Target     string
	Strategy   Strategy
	Reason     Reason
	Candidates int // number of candidates when Reason is ReasonAmbiguous
}

func Resolved(target string, strategy Strategy) Resolution {
	return Resolution{Target: target, Strategy: strategy}
}

func Unresolved(reason Reason) Resolution {
	return Resolution{Reason: reason}
}

func ambiguous(candidates int) Resolution {
	return Resolution{Reason: ReasonAmbiguous, Candidates: candidates}
}

// OK reports whether the call resolved to a project definition.
func (r Resolution) OK() bool {
	return r.Target != ""
}
