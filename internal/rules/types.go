package rules

import (
	"github.com/rulerun/rulerun/internal/config"
)

// ExprKind discriminates the expression forms a rule field may hold.
type ExprKind int

const (
	// ExprLiteral is a plain YAML scalar used as-is.
	ExprLiteral ExprKind = iota
	// ExprRef is a "config.<dotted.path>" reference, optionally with an
	// "or <literal>" fallback applied when the key is absent or falsy.
	ExprRef
)

// Expr is a parameter expression evaluated against the configuration.
type Expr struct {
	Raw      string
	Kind     ExprKind
	Key      string
	Literal  config.Value
	Fallback *config.Value
}

// HasFallback reports whether the expression carries an explicit fallback.
func (e Expr) HasFallback() bool {
	return e.Fallback != nil
}

// Param is a single named parameter expression. Order of declaration is
// preserved across the rulefile.
type Param struct {
	Name string
	Expr Expr
}

// Rule is an immutable description of one unit of work: a named output,
// parameter expressions, an optional concurrency hint, and a shell template.
type Rule struct {
	Name    string `validate:"required,rule_name"`
	Output  Expr
	Params  []Param
	Threads *Expr
	Shell   string `validate:"required,min=1"`
}

// Rulefile is the parsed rule declaration document, in declaration order.
type Rulefile struct {
	Rules []Rule
}

// Names returns the rule names in declaration order.
func (f *Rulefile) Names() []string {
	names := make([]string, 0, len(f.Rules))
	for _, rule := range f.Rules {
		names = append(names, rule.Name)
	}
	return names
}

// Lookup finds a rule by name.
func (f *Rulefile) Lookup(name string) (Rule, bool) {
	for _, rule := range f.Rules {
		if rule.Name == name {
			return rule, true
		}
	}
	return Rule{}, false
}
